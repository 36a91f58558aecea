package testutil

import (
	"context"
	"fmt"

	"github.com/draftops/refinery/pkg/domain"
)

// MockExecutor is a task executor that records the tasks it ran and fails
// on demand
type MockExecutor struct {
	Executed []string
	FailOn   map[string]bool
}

// NewMockExecutor creates a mock executor that succeeds on every task
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		FailOn: make(map[string]bool),
	}
}

// ExecuteTask records the task ID and fails when the stub type is marked
func (m *MockExecutor) ExecuteTask(_ context.Context, task domain.Task, _ domain.TaskAssignment) error {
	m.Executed = append(m.Executed, task.ID)
	if m.FailOn[task.StubType] {
		return fmt.Errorf("simulated failure for %s", task.StubType)
	}
	return nil
}

// StaticTool is an evidence tool that returns fixed results
type StaticTool struct {
	ToolName string
	Results  []domain.ToolResult
	Err      error
	Calls    int
}

// Name returns the tool name
func (s *StaticTool) Name() string { return s.ToolName }

// Description returns the tool description
func (s *StaticTool) Description() string { return "static test tool" }

// Execute returns the configured results or error
func (s *StaticTool) Execute(_ context.Context, _ map[string]interface{}) ([]domain.ToolResult, error) {
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Results, nil
}

// Schema returns a minimal schema
func (s *StaticTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Type: "object",
		Properties: map[string]domain.SchemaProperty{
			"query": {Type: "string", Description: "search query"},
		},
	}
}

// EvidenceRecorder is an evidence sink that stores records in memory
type EvidenceRecorder struct {
	Records []domain.ToolCallRecord
}

// RecordToolCall appends the record
func (e *EvidenceRecorder) RecordToolCall(_ context.Context, record domain.ToolCallRecord) {
	e.Records = append(e.Records, record)
}

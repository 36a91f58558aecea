package domain

import (
	"context"
)

// TaskExecutor performs the actual work for a single task. The real
// implementation is supplied by the host application (typically an LLM or
// tool call); the orchestrator only times the call and classifies its
// outcome. Cancellation is the executor's responsibility: a cancelled or
// timed-out call must return an error, which the execution loop treats as
// the task's failure path.
type TaskExecutor interface {
	ExecuteTask(ctx context.Context, task Task, assignment TaskAssignment) error
}

// TaskExecutorFunc adapts a function to the TaskExecutor interface
type TaskExecutorFunc func(ctx context.Context, task Task, assignment TaskAssignment) error

// ExecuteTask calls f
func (f TaskExecutorFunc) ExecuteTask(ctx context.Context, task Task, assignment TaskAssignment) error {
	return f(ctx, task, assignment)
}

// ProgressFunc observes an in-flight run. It is invoked with a snapshot of
// progress before each task and must not block the execution loop.
type ProgressFunc func(progress ExecutionProgress)

// EvidenceSink accumulates tool-call evidence for reference verification
type EvidenceSink interface {
	// RecordToolCall appends one evidence record
	RecordToolCall(ctx context.Context, record ToolCallRecord)
}

// Tool defines the interface for evidence-gathering tools
type Tool interface {
	// Name returns the tool name
	Name() string

	// Description returns the tool description
	Description() string

	// Execute executes the tool with given arguments
	Execute(ctx context.Context, args map[string]interface{}) ([]ToolResult, error)

	// Schema returns the tool's parameter schema
	Schema() ToolSchema
}

// ToolRegistry manages available evidence tools
type ToolRegistry interface {
	// Register registers a new tool
	Register(tool Tool) error

	// Get retrieves a tool by name
	Get(name string) (Tool, error)

	// List returns all available tools
	List() []Tool

	// Execute executes a tool by name
	Execute(ctx context.Context, name string, args map[string]interface{}) ([]ToolResult, error)
}

// ToolSchema defines the parameter schema for a tool
type ToolSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]SchemaProperty `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

// SchemaProperty defines a property in a tool schema
type SchemaProperty struct {
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
	Enum        []string    `json:"enum,omitempty"`
	Required    bool        `json:"required,omitempty"`
}

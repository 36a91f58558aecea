// Package tools manages evidence-gathering tools. The registry dispatches
// tool executions and can record every successful call as verification
// evidence.
package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/draftops/refinery/pkg/domain"
	"github.com/draftops/refinery/pkg/observability"
)

// Registry is a thread-safe tool registry
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]domain.Tool
	logger *observability.StructuredLogger
}

// NewRegistry creates an empty tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools:  make(map[string]domain.Tool),
		logger: observability.NewStructuredLogger("tools"),
	}
}

// Register registers a new tool
func (r *Registry) Register(tool domain.Tool) error {
	if tool == nil {
		return fmt.Errorf("tool cannot be nil")
	}
	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}
	r.tools[name] = tool
	return nil
}

// Get retrieves a tool by name
func (r *Registry) Get(name string) (domain.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	if !exists {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	return tool, nil
}

// List returns all registered tools sorted by name
func (r *Registry) List() []domain.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]domain.Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name() < tools[j].Name()
	})
	return tools
}

// Execute executes a tool by name
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) ([]domain.ToolResult, error) {
	tool, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	r.logger.Debug(ctx, "Executing tool",
		map[string]interface{}{
			"tool": name,
		},
	)

	results, err := tool.Execute(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("tool %s execution failed: %w", name, err)
	}
	return results, nil
}

// RecordingRegistry wraps a registry so every successful execution is
// recorded as tool-call evidence. Failed executions leave no evidence.
type RecordingRegistry struct {
	inner     domain.ToolRegistry
	sink      domain.EvidenceSink
	telemetry *observability.Telemetry
	now       func() time.Time
}

// NewRecordingRegistry wraps a registry with an evidence sink. Telemetry is
// optional.
func NewRecordingRegistry(inner domain.ToolRegistry, sink domain.EvidenceSink, telemetry *observability.Telemetry) *RecordingRegistry {
	return &RecordingRegistry{
		inner:     inner,
		sink:      sink,
		telemetry: telemetry,
		now:       time.Now,
	}
}

// Register registers a new tool with the wrapped registry
func (r *RecordingRegistry) Register(tool domain.Tool) error {
	return r.inner.Register(tool)
}

// Get retrieves a tool by name from the wrapped registry
func (r *RecordingRegistry) Get(name string) (domain.Tool, error) {
	return r.inner.Get(name)
}

// List returns all tools in the wrapped registry
func (r *RecordingRegistry) List() []domain.Tool {
	return r.inner.List()
}

// Execute executes a tool and records the successful result as evidence
func (r *RecordingRegistry) Execute(ctx context.Context, name string, args map[string]interface{}) ([]domain.ToolResult, error) {
	var results []domain.ToolResult
	var err error

	execute := func(ctx context.Context) error {
		results, err = r.inner.Execute(ctx, name, args)
		return err
	}

	if r.telemetry != nil {
		err = r.telemetry.InstrumentToolExecution(ctx, name, execute)
	} else {
		err = execute(ctx)
	}
	if err != nil {
		return nil, err
	}

	if r.sink != nil {
		r.sink.RecordToolCall(ctx, domain.ToolCallRecord{
			ID:        uuid.NewString(),
			ToolName:  name,
			Args:      args,
			Results:   results,
			Timestamp: r.now(),
		})
	}

	return results, nil
}

package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/draftops/refinery/pkg/config"
	"github.com/draftops/refinery/pkg/domain"
)

// TestTimeout provides a standard timeout for test contexts
const TestTimeout = 5 * time.Second

// NewTestContext creates a context with standard test timeout
func NewTestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	t.Cleanup(cancel)
	return ctx
}

// NewTestConfig returns a config with observability exporters disabled
func NewTestConfig() *config.Config {
	cfg := config.Default()
	cfg.Observability.Tracing.Enabled = false
	cfg.Observability.Metrics.Enabled = false
	return cfg
}

// NewTestDocument creates a document snapshot with the given stubs
func NewTestDocument(path string, refinement float64, stubs ...domain.Stub) domain.Document {
	return domain.Document{
		Path:       path,
		Title:      "Test Document",
		Refinement: refinement,
		Audience:   domain.AudienceInternal,
		Stubs:      stubs,
	}
}

// NewTestStub creates a stub with the given type and form
func NewTestStub(stubType string, form domain.StubForm) domain.Stub {
	return domain.Stub{
		Type:        stubType,
		Description: "test stub: " + stubType,
		Form:        form,
	}
}

// StubWithProps creates a stub carrying the given properties
func StubWithProps(stubType string, form domain.StubForm, props map[string]interface{}) domain.Stub {
	stub := NewTestStub(stubType, form)
	stub.Props = props
	return stub
}

// NewTestSnapshot creates a health snapshot at the given timestamp
func NewTestSnapshot(docPath string, at time.Time, refinement float64, stubCount int) domain.HealthSnapshot {
	return domain.HealthSnapshot{
		DocumentPath: docPath,
		Timestamp:    at,
		Refinement:   refinement,
		StubCount:    stubCount,
		Health:       0.7*refinement + 0.3*(1-minFloat(float64(stubCount)*0.05, 0.3)),
	}
}

// NewTestToolRecord creates an evidence record wrapping the given results
func NewTestToolRecord(toolName string, results ...domain.ToolResult) domain.ToolCallRecord {
	return domain.ToolCallRecord{
		ID:        "test-record-1",
		ToolName:  toolName,
		Results:   results,
		Timestamp: time.Now(),
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

package tools_test

import (
	"errors"
	"testing"

	"github.com/draftops/refinery/internal/testutil"
	"github.com/draftops/refinery/pkg/domain"
	"github.com/draftops/refinery/pkg/tools"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	registry := tools.NewRegistry()
	tool := &testutil.StaticTool{ToolName: "web-search"}

	if err := registry.Register(tool); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, err := registry.Get("web-search")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name() != "web-search" {
		t.Errorf("Name = %v, want web-search", got.Name())
	}
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	registry := tools.NewRegistry()
	_ = registry.Register(&testutil.StaticTool{ToolName: "web-search"})

	if err := registry.Register(&testutil.StaticTool{ToolName: "web-search"}); err == nil {
		t.Error("expected error registering a duplicate tool")
	}
}

func TestRegistry_ListSortedByName(t *testing.T) {
	registry := tools.NewRegistry()
	_ = registry.Register(&testutil.StaticTool{ToolName: "citation-lookup"})
	_ = registry.Register(&testutil.StaticTool{ToolName: "web-search"})
	_ = registry.Register(&testutil.StaticTool{ToolName: "calculator"})

	list := registry.List()
	if len(list) != 3 {
		t.Fatalf("len(List) = %d, want 3", len(list))
	}
	if list[0].Name() != "calculator" || list[2].Name() != "web-search" {
		t.Errorf("List order = %v, %v, %v", list[0].Name(), list[1].Name(), list[2].Name())
	}
}

func TestRegistry_ExecuteMissingTool(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	registry := tools.NewRegistry()

	if _, err := registry.Execute(ctx, "nope", nil); err == nil {
		t.Error("expected error executing an unregistered tool")
	}
}

func TestRecordingRegistry_RecordsSuccessfulCalls(t *testing.T) {
	ctx := testutil.NewTestContext(t)

	registry := tools.NewRegistry()
	_ = registry.Register(&testutil.StaticTool{
		ToolName: "web-search",
		Results: []domain.ToolResult{
			{URL: "https://example.com/a", Title: "A"},
		},
	})

	sink := &testutil.EvidenceRecorder{}
	recording := tools.NewRecordingRegistry(registry, sink, nil)

	results, err := recording.Execute(ctx, "web-search", map[string]interface{}{"query": "a"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}

	if len(sink.Records) != 1 {
		t.Fatalf("len(sink.Records) = %d, want 1", len(sink.Records))
	}
	record := sink.Records[0]
	if record.ToolName != "web-search" {
		t.Errorf("ToolName = %v, want web-search", record.ToolName)
	}
	if record.ID == "" {
		t.Error("record ID should be set")
	}
	if len(record.Results) != 1 || record.Results[0].URL != "https://example.com/a" {
		t.Errorf("record.Results = %+v", record.Results)
	}
}

func TestRecordingRegistry_FailedCallsLeaveNoEvidence(t *testing.T) {
	ctx := testutil.NewTestContext(t)

	registry := tools.NewRegistry()
	_ = registry.Register(&testutil.StaticTool{
		ToolName: "web-search",
		Err:      errors.New("network unavailable"),
	})

	sink := &testutil.EvidenceRecorder{}
	recording := tools.NewRecordingRegistry(registry, sink, nil)

	if _, err := recording.Execute(ctx, "web-search", nil); err == nil {
		t.Fatal("expected execution error")
	}
	if len(sink.Records) != 0 {
		t.Errorf("len(sink.Records) = %d, want 0", len(sink.Records))
	}
}

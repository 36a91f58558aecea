package state_test

import (
	"testing"
	"time"

	"github.com/draftops/refinery/pkg/domain"
	"github.com/draftops/refinery/pkg/state"
)

func samplePlan(id string) domain.Plan {
	return domain.Plan{
		ID:      id,
		TraceID: "trace-" + id,
		Document: domain.Document{
			Path:       "notes/a.md",
			Refinement: 0.5,
			Stubs: []domain.Stub{
				{Type: "needs-draft", Form: domain.StubFormPersistent},
			},
		},
		Tasks: []domain.Task{
			{ID: "task-1", VectorFamily: domain.FamilyCreation, PriorityScore: 0.6},
		},
		Assignments: map[string]domain.TaskAssignment{
			"task-1": {
				TaskID:           "task-1",
				Tier:             domain.TierLow,
				RecommendedTools: []string{"draft-generator"},
			},
		},
		ExecutionOrder: []string{"task-1"},
		CreatedAt:      time.Now(),
	}
}

func TestPlanStore_SaveAndGet(t *testing.T) {
	store := state.NewPlanStore()

	if err := store.Save(samplePlan("plan-1")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	plan, err := store.Get("plan-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if plan.ID != "plan-1" {
		t.Errorf("plan.ID = %v, want plan-1", plan.ID)
	}
	if len(plan.Tasks) != 1 {
		t.Errorf("len(Tasks) = %d, want 1", len(plan.Tasks))
	}
}

func TestPlanStore_SaveRejectsEmptyID(t *testing.T) {
	store := state.NewPlanStore()
	if err := store.Save(domain.Plan{}); err == nil {
		t.Error("expected error for empty plan ID")
	}
}

func TestPlanStore_GetMissing(t *testing.T) {
	store := state.NewPlanStore()
	if _, err := store.Get("nope"); err == nil {
		t.Error("expected error for missing plan")
	}
}

func TestPlanStore_Delete(t *testing.T) {
	store := state.NewPlanStore()
	if err := store.Save(samplePlan("plan-1")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := store.Delete("plan-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get("plan-1"); err == nil {
		t.Error("plan should be gone after delete")
	}
	if err := store.Delete("plan-1"); err == nil {
		t.Error("expected error deleting a missing plan")
	}
}

func TestPlanStore_ListAndCount(t *testing.T) {
	store := state.NewPlanStore()
	_ = store.Save(samplePlan("plan-1"))
	_ = store.Save(samplePlan("plan-2"))

	if store.Count() != 2 {
		t.Errorf("Count = %d, want 2", store.Count())
	}
	if len(store.List()) != 2 {
		t.Errorf("len(List) = %d, want 2", len(store.List()))
	}
}

func TestPlanStore_ReturnedPlansDoNotAliasStore(t *testing.T) {
	store := state.NewPlanStore()
	original := samplePlan("plan-1")
	if err := store.Save(original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Mutating the caller's copy must not affect stored state
	original.Tasks[0].PriorityScore = 0.99
	original.ExecutionOrder[0] = "tampered"
	original.Assignments["task-1"].RecommendedTools[0] = "tampered"

	stored, err := store.Get("plan-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Tasks[0].PriorityScore != 0.6 {
		t.Errorf("stored task score = %v, want 0.6", stored.Tasks[0].PriorityScore)
	}
	if stored.ExecutionOrder[0] != "task-1" {
		t.Errorf("stored order = %v, want task-1", stored.ExecutionOrder[0])
	}
	if stored.Assignments["task-1"].RecommendedTools[0] != "draft-generator" {
		t.Errorf("stored tools = %v, want draft-generator", stored.Assignments["task-1"].RecommendedTools)
	}

	// And mutating a retrieved copy must not affect later reads
	stored.Tasks[0].PriorityScore = 0.01
	again, _ := store.Get("plan-1")
	if again.Tasks[0].PriorityScore != 0.6 {
		t.Errorf("second read score = %v, want 0.6", again.Tasks[0].PriorityScore)
	}
}

package orchestrator_test

import (
	"math"
	"testing"

	"github.com/draftops/refinery/internal/testutil"
	"github.com/draftops/refinery/pkg/domain"
	"github.com/draftops/refinery/pkg/orchestrator"
)

func newOrchestrator(executor domain.TaskExecutor) *orchestrator.Orchestrator {
	return orchestrator.New(testutil.NewTestConfig(), executor, nil, nil, nil)
}

func TestDiscoverTasks_OneTaskPerStub(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	doc := testutil.NewTestDocument("notes/design.md", 0.5,
		testutil.NewTestStub("needs-source", domain.StubFormPersistent),
		testutil.NewTestStub("needs-draft", domain.StubFormPersistent),
		testutil.NewTestStub("needs-data", domain.StubFormTransient),
	)

	tasks := newOrchestrator(nil).DiscoverTasks(ctx, doc)

	if len(tasks) != 3 {
		t.Fatalf("task count = %d, want 3", len(tasks))
	}
	for _, task := range tasks {
		if task.ID == "" {
			t.Errorf("task %q has empty ID", task.Description)
		}
		if task.DocumentPath != "notes/design.md" {
			t.Errorf("DocumentPath = %v, want notes/design.md", task.DocumentPath)
		}
	}
}

func TestDiscoverTasks_VectorFamilyClassification(t *testing.T) {
	ctx := testutil.NewTestContext(t)

	explicit := testutil.NewTestStub("custom-type", domain.StubFormPersistent)
	doc := testutil.NewTestDocument("notes/a.md", 0.5,
		explicit,
		testutil.NewTestStub("needs-source", domain.StubFormPersistent),
		testutil.NewTestStub("totally-unknown", domain.StubFormPersistent),
	)
	doc.StubTypes = map[string]domain.StubTypeDef{
		"custom-type": {VectorFamily: domain.FamilyComputation},
	}

	tasks := newOrchestrator(nil).DiscoverTasks(ctx, doc)

	families := make(map[string]domain.VectorFamily)
	for _, task := range tasks {
		families[task.StubType] = task.VectorFamily
	}

	if families["custom-type"] != domain.FamilyComputation {
		t.Errorf("explicit classification = %v, want computation", families["custom-type"])
	}
	if families["needs-source"] != domain.FamilyRetrieval {
		t.Errorf("fallback classification = %v, want retrieval", families["needs-source"])
	}
	if families["totally-unknown"] != domain.FamilyCreation {
		t.Errorf("default classification = %v, want creation", families["totally-unknown"])
	}
}

func TestDiscoverTasks_PotentialEnergy(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	doc := testutil.NewTestDocument("notes/a.md", 0.5,
		testutil.StubWithProps("needs-draft", domain.StubFormPersistent, map[string]interface{}{
			"urgency":    0.9,
			"impact":     0.8,
			"complexity": 0.5,
		}),
		testutil.NewTestStub("needs-draft", domain.StubFormPersistent),
	)

	tasks := newOrchestrator(nil).DiscoverTasks(ctx, doc)

	if math.Abs(tasks[0].PotentialEnergy-0.36) > 1e-9 && math.Abs(tasks[1].PotentialEnergy-0.36) > 1e-9 {
		t.Errorf("no task has potential energy 0.36: %v, %v", tasks[0].PotentialEnergy, tasks[1].PotentialEnergy)
	}

	// All properties absent: 0.5^3
	defaulted := tasks[0].PotentialEnergy
	if math.Abs(defaulted-0.36) < 1e-9 {
		defaulted = tasks[1].PotentialEnergy
	}
	if math.Abs(defaulted-0.125) > 1e-9 {
		t.Errorf("defaulted potential energy = %v, want 0.125", defaulted)
	}
}

func TestDiscoverTasks_CriticalOutranksLow(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	doc := testutil.NewTestDocument("notes/a.md", 0.5,
		testutil.StubWithProps("needs-draft", domain.StubFormPersistent, map[string]interface{}{"priority": "low"}),
		testutil.StubWithProps("needs-draft", domain.StubFormPersistent, map[string]interface{}{"priority": "critical"}),
	)

	tasks := newOrchestrator(nil).DiscoverTasks(ctx, doc)

	if tasks[0].PriorityScore <= tasks[1].PriorityScore {
		t.Errorf("critical score %v should strictly exceed low score %v",
			tasks[0].PriorityScore, tasks[1].PriorityScore)
	}
}

func TestDiscoverTasks_BlockingSortsFirst(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	blocking := testutil.StubWithProps("needs-draft", domain.StubFormBlocking, map[string]interface{}{"priority": "low"})
	critical := testutil.StubWithProps("needs-draft", domain.StubFormPersistent, map[string]interface{}{"priority": "critical"})

	doc := testutil.NewTestDocument("notes/a.md", 0.5, critical, blocking)
	tasks := newOrchestrator(nil).DiscoverTasks(ctx, doc)

	if !tasks[0].Blocking {
		t.Errorf("first discovered task should be the blocking one (scores %v vs %v)",
			tasks[0].PriorityScore, tasks[1].PriorityScore)
	}
}

func TestAssignToFamilies_TierPolicies(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	doc := testutil.NewTestDocument("notes/a.md", 0.5,
		testutil.NewTestStub("needs-source", domain.StubFormPersistent),
		testutil.NewTestStub("needs-fix", domain.StubFormPersistent),
		testutil.NewTestStub("needs-draft", domain.StubFormPersistent),
	)

	o := newOrchestrator(nil)
	tasks := o.DiscoverTasks(ctx, doc)
	assignments := o.AssignToFamilies(tasks)

	byFamily := make(map[domain.VectorFamily]domain.TaskAssignment)
	for _, a := range assignments {
		byFamily[a.VectorFamily] = a
	}

	retrieval := byFamily[domain.FamilyRetrieval]
	if retrieval.Tier != domain.TierHigh || retrieval.ToolPolicy != domain.ToolPolicyMandatory || retrieval.Confidence != 0.9 {
		t.Errorf("retrieval assignment = %+v, want high/mandatory/0.9", retrieval)
	}

	synthesis := byFamily[domain.FamilySynthesis]
	if synthesis.Tier != domain.TierMedium || synthesis.ToolPolicy != domain.ToolPolicyEncouraged || synthesis.Confidence != 0.7 {
		t.Errorf("synthesis assignment = %+v, want medium/encouraged/0.7", synthesis)
	}

	creation := byFamily[domain.FamilyCreation]
	if creation.Tier != domain.TierLow || creation.ToolPolicy != domain.ToolPolicyOptional || creation.Confidence != 0.5 {
		t.Errorf("creation assignment = %+v, want low/optional/0.5", creation)
	}
}

func TestSelectTools_SemanticSearchAppendedAboveLowTier(t *testing.T) {
	o := newOrchestrator(nil)

	high := o.SelectTools(domain.TaskAssignment{VectorFamily: domain.FamilyRetrieval, Tier: domain.TierHigh})
	if !contains(high, "semantic-search") {
		t.Errorf("high-tier tools missing semantic-search: %v", high)
	}

	low := o.SelectTools(domain.TaskAssignment{VectorFamily: domain.FamilyCreation, Tier: domain.TierLow})
	if contains(low, "semantic-search") {
		t.Errorf("low-tier tools should not gain semantic-search: %v", low)
	}
}

func TestForecastCompletion(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	doc := testutil.NewTestDocument("notes/a.md", 0.5,
		testutil.NewTestStub("needs-draft", domain.StubFormPersistent),
		testutil.NewTestStub("needs-draft", domain.StubFormPersistent),
		testutil.NewTestStub("needs-draft", domain.StubFormPersistent),
		testutil.NewTestStub("needs-draft", domain.StubFormPersistent),
	)

	o := newOrchestrator(nil)
	tasks := o.DiscoverTasks(ctx, doc)
	forecast := o.ForecastCompletion(tasks, doc)

	// 4 tasks at default energy 0.125 each
	if math.Abs(forecast.TotalPotentialEnergy-0.5) > 1e-9 {
		t.Errorf("TotalPotentialEnergy = %v, want 0.5", forecast.TotalPotentialEnergy)
	}
	// ceil(0.5 / (5 * 0.5)) = 1
	if forecast.EstimatedSessions != 1 {
		t.Errorf("EstimatedSessions = %v, want 1", forecast.EstimatedSessions)
	}
	if math.Abs(forecast.RefinementDeltaPerSession-0.2) > 1e-9 {
		t.Errorf("RefinementDeltaPerSession = %v, want 0.2", forecast.RefinementDeltaPerSession)
	}
	if math.Abs(forecast.ProjectedRefinement-0.7) > 1e-9 {
		t.Errorf("ProjectedRefinement = %v, want 0.7", forecast.ProjectedRefinement)
	}
}

func TestForecastCompletion_NoTasks(t *testing.T) {
	doc := testutil.NewTestDocument("notes/a.md", 0.5)
	forecast := newOrchestrator(nil).ForecastCompletion(nil, doc)

	if forecast.EstimatedSessions != 0 {
		t.Errorf("EstimatedSessions = %v, want 0", forecast.EstimatedSessions)
	}
	if forecast.RefinementDeltaPerSession != 0 {
		t.Errorf("RefinementDeltaPerSession = %v, want 0", forecast.RefinementDeltaPerSession)
	}
}

func TestCreatePlan_OrderPutsBlockingAndHighTierFirst(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	doc := testutil.NewTestDocument("notes/a.md", 0.5,
		testutil.NewTestStub("needs-draft", domain.StubFormPersistent),
		testutil.NewTestStub("needs-source", domain.StubFormPersistent),
		testutil.NewTestStub("needs-fix", domain.StubFormBlocking),
	)

	o := newOrchestrator(nil)
	plan, err := o.CreatePlan(ctx, doc)
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	if len(plan.ExecutionOrder) != 3 {
		t.Fatalf("execution order length = %d, want 3", len(plan.ExecutionOrder))
	}

	first := plan.Assignments[plan.ExecutionOrder[0]]
	if !taskByID(plan, plan.ExecutionOrder[0]).Blocking {
		t.Errorf("first ordered task should be blocking, got %v/%v", first.VectorFamily, first.Tier)
	}

	second := plan.Assignments[plan.ExecutionOrder[1]]
	third := plan.Assignments[plan.ExecutionOrder[2]]
	if second.Tier != domain.TierHigh || third.Tier != domain.TierLow {
		t.Errorf("non-blocking order = %v then %v, want high then low", second.Tier, third.Tier)
	}

	stored, err := o.GetPlan(plan.ID)
	if err != nil {
		t.Fatalf("GetPlan failed: %v", err)
	}
	if stored.ID != plan.ID {
		t.Errorf("stored plan ID = %v, want %v", stored.ID, plan.ID)
	}
}

func TestExecuteWithMonitoring_AllSucceed(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	doc := testutil.NewTestDocument("notes/a.md", 0.5,
		testutil.NewTestStub("needs-draft", domain.StubFormPersistent),
		testutil.NewTestStub("needs-source", domain.StubFormPersistent),
	)

	executor := testutil.NewMockExecutor()
	o := newOrchestrator(executor)

	plan, err := o.CreatePlan(ctx, doc)
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	var callbacks int
	result, err := o.ExecuteWithMonitoring(ctx, plan.ID, func(domain.ExecutionProgress) {
		callbacks++
	})
	if err != nil {
		t.Fatalf("ExecuteWithMonitoring failed: %v", err)
	}

	if !result.Success || result.Stalled {
		t.Errorf("result = success=%v stalled=%v, want success and not stalled", result.Success, result.Stalled)
	}
	if len(executor.Executed) != 2 {
		t.Errorf("executed = %d tasks, want 2", len(executor.Executed))
	}
	if result.Summary != "all 2 tasks succeeded" {
		t.Errorf("Summary = %q", result.Summary)
	}
	// One callback per task plus the final snapshot
	if callbacks != 3 {
		t.Errorf("progress callbacks = %d, want 3", callbacks)
	}
	if len(result.Progress.Completed) != 2 {
		t.Errorf("completed = %v, want both tasks", result.Progress.Completed)
	}
	// The returned progress record reflects the finished run, not the state
	// at the last callback
	if result.Progress.PercentComplete != 1.0 {
		t.Errorf("result PercentComplete = %v, want 1.0", result.Progress.PercentComplete)
	}
}

func TestExecuteWithMonitoring_StallsOnAccumulatedFriction(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	doc := testutil.NewTestDocument("notes/a.md", 0.5,
		testutil.NewTestStub("fail-one", domain.StubFormPersistent),
		testutil.NewTestStub("fail-two", domain.StubFormPersistent),
		testutil.NewTestStub("fine-three", domain.StubFormPersistent),
		testutil.NewTestStub("fine-four", domain.StubFormPersistent),
	)

	executor := testutil.NewMockExecutor()
	executor.FailOn["fail-one"] = true
	executor.FailOn["fail-two"] = true

	o := newOrchestrator(executor)
	plan, err := o.CreatePlan(ctx, doc)
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	result, err := o.ExecuteWithMonitoring(ctx, plan.ID, nil)
	if err != nil {
		t.Fatalf("ExecuteWithMonitoring failed: %v", err)
	}

	// Two failures at severity 2 exceed the default threshold of 3
	if !result.Stalled {
		t.Fatal("run should have stalled after two failures")
	}
	if result.Success {
		t.Error("stalled run must not be successful")
	}
	if len(result.Progress.Failed) != 2 {
		t.Errorf("failed = %v, want the two failing tasks", result.Progress.Failed)
	}
	if len(result.Progress.Skipped) != 2 {
		t.Errorf("skipped = %v, want the two remaining tasks", result.Progress.Skipped)
	}
	if len(result.Progress.Completed) != 0 {
		t.Errorf("completed = %v, want none", result.Progress.Completed)
	}
	if len(executor.Executed) != 2 {
		t.Errorf("executed = %d tasks, want 2 before the stall", len(executor.Executed))
	}
}

func TestExecuteWithMonitoring_FailurePropagatesWithoutAutoSkip(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	doc := testutil.NewTestDocument("notes/a.md", 0.5,
		testutil.NewTestStub("fail-one", domain.StubFormPersistent),
	)

	executor := testutil.NewMockExecutor()
	executor.FailOn["fail-one"] = true

	cfg := testutil.NewTestConfig()
	cfg.Orchestrator.AutoSkipOnFailure = false

	o := orchestrator.New(cfg, executor, nil, nil, nil)
	plan, err := o.CreatePlan(ctx, doc)
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	if _, err := o.ExecuteWithMonitoring(ctx, plan.ID, nil); err == nil {
		t.Error("expected the task failure to propagate")
	}
}

func TestExecuteWithMonitoring_SessionCap(t *testing.T) {
	ctx := testutil.NewTestContext(t)

	stubs := make([]domain.Stub, 4)
	for i := range stubs {
		stubs[i] = testutil.NewTestStub("needs-draft", domain.StubFormPersistent)
	}
	doc := testutil.NewTestDocument("notes/a.md", 0.5, stubs...)

	cfg := testutil.NewTestConfig()
	cfg.Orchestrator.MaxTasksPerSession = 2

	executor := testutil.NewMockExecutor()
	o := orchestrator.New(cfg, executor, nil, nil, nil)

	plan, err := o.CreatePlan(ctx, doc)
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	result, err := o.ExecuteWithMonitoring(ctx, plan.ID, nil)
	if err != nil {
		t.Fatalf("ExecuteWithMonitoring failed: %v", err)
	}

	if len(executor.Executed) != 2 {
		t.Errorf("executed = %d tasks, want the session cap of 2", len(executor.Executed))
	}
	if len(result.Progress.Skipped) != 2 {
		t.Errorf("skipped = %v, want the two over-cap tasks", result.Progress.Skipped)
	}
}

func taskByID(plan domain.Plan, id string) domain.Task {
	for _, task := range plan.Tasks {
		if task.ID == id {
			return task
		}
	}
	return domain.Task{}
}

func contains(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}

package orchestrator

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/draftops/refinery/pkg/domain"
)

// CreatePlan runs the four planning phases over a document snapshot and
// stores the resulting plan. Planning is pure over the snapshot; a document
// with no stubs yields a valid empty plan.
func (o *Orchestrator) CreatePlan(ctx context.Context, doc domain.Document) (domain.Plan, error) {
	if doc.Path == "" {
		return domain.Plan{}, fmt.Errorf("document path cannot be empty")
	}

	plan := domain.Plan{
		ID:        uuid.NewString(),
		TraceID:   uuid.NewString(),
		Document:  doc,
		CreatedAt: o.now(),
	}

	if o.telemetry != nil {
		runCtx, span := o.telemetry.StartPlanRun(ctx, plan.ID, plan.TraceID, doc.Path)
		defer span.End()
		ctx = runCtx
	}

	o.runPhase(ctx, "discover", doc.Path, func(ctx context.Context) {
		plan.Tasks = o.DiscoverTasks(ctx, doc)
	})

	o.runPhase(ctx, "assign", doc.Path, func(ctx context.Context) {
		assignments := o.AssignToFamilies(plan.Tasks)
		plan.Assignments = make(map[string]domain.TaskAssignment, len(assignments))
		for _, a := range assignments {
			plan.Assignments[a.TaskID] = a
		}
	})

	o.runPhase(ctx, "order", doc.Path, func(ctx context.Context) {
		plan.ExecutionOrder = o.DetermineExecutionOrder(plan.Tasks, plan.Assignments)
	})

	o.runPhase(ctx, "forecast", doc.Path, func(ctx context.Context) {
		plan.Forecast = o.ForecastCompletion(plan.Tasks, doc)
	})

	if err := o.plans.Save(plan); err != nil {
		return domain.Plan{}, fmt.Errorf("failed to store plan: %w", err)
	}

	if o.metrics != nil {
		o.metrics.RecordPlanCreated(ctx, len(plan.Tasks))
		o.metrics.SetStoredPlanCount(int64(o.plans.Count()))
	}

	o.logger.WithDocument(doc.Path).Info(ctx, "Plan created",
		map[string]interface{}{
			"plan_id":            plan.ID,
			"task_count":         len(plan.Tasks),
			"estimated_sessions": plan.Forecast.EstimatedSessions,
		},
	)

	return plan, nil
}

// GetPlan retrieves a stored plan by ID
func (o *Orchestrator) GetPlan(id string) (domain.Plan, error) {
	return o.plans.Get(id)
}

// DetermineExecutionOrder sorts task IDs for execution: blocking tasks
// first, then more automatable tiers, then descending priority score.
func (o *Orchestrator) DetermineExecutionOrder(tasks []domain.Task, assignments map[string]domain.TaskAssignment) []string {
	ordered := make([]domain.Task, len(tasks))
	copy(ordered, tasks)

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Blocking != ordered[j].Blocking {
			return ordered[i].Blocking
		}
		ri := tierAutomatability[assignments[ordered[i].ID].Tier]
		rj := tierAutomatability[assignments[ordered[j].ID].Tier]
		if ri != rj {
			return ri < rj
		}
		return ordered[i].PriorityScore > ordered[j].PriorityScore
	})

	order := make([]string, len(ordered))
	for i, task := range ordered {
		order[i] = task.ID
	}
	return order
}

// runPhase executes one planning phase, wrapping it in a span when
// telemetry is configured. Planning phases cannot fail.
func (o *Orchestrator) runPhase(ctx context.Context, phase, documentPath string, fn func(context.Context)) {
	if o.telemetry == nil {
		fn(ctx)
		return
	}
	_ = o.telemetry.InstrumentPlanPhase(ctx, phase, documentPath, func(ctx context.Context) error {
		fn(ctx)
		return nil
	})
}

package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/draftops/refinery/pkg/domain"
)

// ExecuteWithMonitoring runs a stored plan's tasks in their execution order,
// recording friction and checking for stalls before every task. Tasks beyond
// the per-session cap are skipped. A stall stops the run and skips all
// remaining tasks; the partial result is still returned.
func (o *Orchestrator) ExecuteWithMonitoring(ctx context.Context, planID string, onProgress domain.ProgressFunc) (domain.ExecutionResult, error) {
	if o.executor == nil {
		return domain.ExecutionResult{}, fmt.Errorf("no task executor configured")
	}

	plan, err := o.plans.Get(planID)
	if err != nil {
		return domain.ExecutionResult{}, err
	}

	tasksByID := make(map[string]domain.Task, len(plan.Tasks))
	for _, task := range plan.Tasks {
		tasksByID[task.ID] = task
	}

	progress := domain.ExecutionProgress{
		PlanID:    planID,
		Completed: []string{},
		Failed:    []string{},
		Skipped:   []string{},
	}

	maxTasks := o.config.Orchestrator.MaxTasksPerSession
	window := o.config.FrictionWindowDuration()
	threshold := o.config.Orchestrator.StallThreshold

	o.logger.Info(ctx, "Execution started",
		map[string]interface{}{
			"plan_id":    planID,
			"document":   plan.Document.Path,
			"task_count": len(plan.ExecutionOrder),
		},
	)

	startTime := o.now()

	for i, taskID := range plan.ExecutionOrder {
		if i >= maxTasks {
			progress.Skipped = append(progress.Skipped, taskID)
			continue
		}

		if progress.Stalled {
			progress.Skipped = append(progress.Skipped, taskID)
			continue
		}

		if o.frictionSeverity(progress.Friction, window) >= threshold {
			progress.Stalled = true
			progress.CurrentTaskID = ""
			progress.Skipped = append(progress.Skipped, taskID)
			o.logger.Warn(ctx, "Execution stalled on accumulated friction",
				map[string]interface{}{
					"plan_id":   planID,
					"threshold": threshold,
				},
			)
			continue
		}

		task, ok := tasksByID[taskID]
		if !ok {
			progress.Skipped = append(progress.Skipped, taskID)
			continue
		}

		progress.CurrentTaskID = taskID
		updatePercent(&progress, len(plan.ExecutionOrder))
		o.reportProgress(onProgress, progress)

		taskStart := o.now()
		execErr := o.executeTask(ctx, task, plan.Assignments[taskID])
		taskDuration := o.now().Sub(taskStart)

		if o.metrics != nil {
			o.metrics.RecordTaskExecution(ctx, string(task.VectorFamily), taskDuration, execErr == nil)
		}

		if execErr != nil {
			if !o.config.Orchestrator.AutoSkipOnFailure {
				return domain.ExecutionResult{}, fmt.Errorf("task %s failed: %w", taskID, execErr)
			}

			progress.Failed = append(progress.Failed, taskID)
			o.recordFriction(ctx, &progress, domain.FrictionEvent{
				Type:      domain.FrictionToolFailure,
				Severity:  2,
				TaskID:    taskID,
				Detail:    execErr.Error(),
				Timestamp: o.now(),
			})
			o.logger.Warn(ctx, "Task failed, continuing",
				map[string]interface{}{
					"plan_id": planID,
					"task_id": taskID,
					"error":   execErr.Error(),
				},
			)
			continue
		}

		progress.Completed = append(progress.Completed, taskID)
	}

	progress.CurrentTaskID = ""
	updatePercent(&progress, len(plan.ExecutionOrder))
	duration := o.now().Sub(startTime)
	o.reportProgress(onProgress, progress)

	result := domain.ExecutionResult{
		PlanID:                planID,
		Success:               len(progress.Failed) == 0 && !progress.Stalled,
		Stalled:               progress.Stalled,
		Duration:              duration,
		ActualRefinementDelta: o.refinementDelta(plan, len(progress.Completed)),
		Summary:               executionSummary(progress, len(plan.ExecutionOrder)),
		Progress:              progress,
	}

	if o.metrics != nil {
		o.metrics.RecordExecutionComplete(ctx, duration, progress.Stalled)
	}

	o.logger.Info(ctx, "Execution completed",
		map[string]interface{}{
			"plan_id":   planID,
			"success":   result.Success,
			"stalled":   result.Stalled,
			"completed": len(progress.Completed),
			"failed":    len(progress.Failed),
			"skipped":   len(progress.Skipped),
		},
	)

	return result, nil
}

// executeTask invokes the executor for one task, under a span when telemetry
// is configured
func (o *Orchestrator) executeTask(ctx context.Context, task domain.Task, assignment domain.TaskAssignment) error {
	if o.telemetry == nil {
		return o.executor.ExecuteTask(ctx, task, assignment)
	}
	return o.telemetry.InstrumentTaskExecution(ctx, task.ID, string(task.VectorFamily),
		func(ctx context.Context) error {
			return o.executor.ExecuteTask(ctx, task, assignment)
		},
	)
}

// recordFriction appends a friction event to the run and emits its metric
func (o *Orchestrator) recordFriction(ctx context.Context, progress *domain.ExecutionProgress, event domain.FrictionEvent) {
	progress.Friction = append(progress.Friction, event)
	if o.metrics != nil {
		o.metrics.RecordFriction(ctx, string(event.Type), event.Severity)
	}
}

// frictionSeverity sums the severities of friction events inside the
// trailing window
func (o *Orchestrator) frictionSeverity(events []domain.FrictionEvent, window time.Duration) int {
	cutoff := o.now().Add(-window)
	total := 0
	for _, event := range events {
		if !event.Timestamp.Before(cutoff) {
			total += event.Severity
		}
	}
	return total
}

// updatePercent recomputes the run's completion fraction from the tasks
// already accounted for
func updatePercent(progress *domain.ExecutionProgress, total int) {
	if total > 0 {
		done := len(progress.Completed) + len(progress.Failed) + len(progress.Skipped)
		progress.PercentComplete = float64(done) / float64(total)
	}
}

// reportProgress delivers a defensive copy of the run state to the caller's
// callback
func (o *Orchestrator) reportProgress(onProgress domain.ProgressFunc, progress domain.ExecutionProgress) {
	if onProgress == nil {
		return
	}

	snapshot := progress
	snapshot.Completed = append([]string(nil), progress.Completed...)
	snapshot.Failed = append([]string(nil), progress.Failed...)
	snapshot.Skipped = append([]string(nil), progress.Skipped...)
	snapshot.Friction = append([]domain.FrictionEvent(nil), progress.Friction...)
	onProgress(snapshot)
}

// refinementDelta scales the forecast's per-session gain by the fraction of
// tasks actually completed
func (o *Orchestrator) refinementDelta(plan domain.Plan, completed int) float64 {
	if len(plan.Tasks) == 0 {
		return 0
	}
	fraction := float64(completed) / float64(len(plan.Tasks))
	return fraction * plan.Forecast.RefinementDeltaPerSession * float64(plan.Forecast.EstimatedSessions)
}

// executionSummary builds a one-line human-readable outcome
func executionSummary(progress domain.ExecutionProgress, total int) string {
	if progress.Stalled {
		return fmt.Sprintf("stalled after %d of %d tasks: accumulated friction exceeded the stall threshold",
			len(progress.Completed)+len(progress.Failed), total)
	}
	if len(progress.Failed) == 0 && len(progress.Skipped) == 0 {
		return fmt.Sprintf("all %d tasks succeeded", len(progress.Completed))
	}
	return fmt.Sprintf("completed %d of %d tasks with %d failures and %d skipped",
		len(progress.Completed), total, len(progress.Failed), len(progress.Skipped))
}

package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentPlanPhase wraps one orchestration phase (discovery, assignment,
// ordering, forecasting) with a span
func (t *Telemetry) InstrumentPlanPhase(ctx context.Context, phase string, documentPath string, fn func(context.Context) error) error {
	ctx, span := t.StartSpan(ctx, fmt.Sprintf("plan.%s", phase),
		trace.WithAttributes(
			attribute.String("phase", phase),
			attribute.String("document.path", documentPath),
		),
	)
	defer span.End()

	startTime := time.Now()

	err := fn(ctx)

	duration := time.Since(startTime)
	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.SetAttributes(
		attribute.String("status", status),
		attribute.Float64("duration.seconds", duration.Seconds()),
	)

	return err
}

// InstrumentTaskExecution wraps a single task attempt with a span
func (t *Telemetry) InstrumentTaskExecution(ctx context.Context, taskID string, family string, fn func(context.Context) error) error {
	ctx, span := t.StartSpan(ctx, "task.execute",
		trace.WithAttributes(
			attribute.String("task.id", taskID),
			attribute.String("task.family", family),
		),
	)
	defer span.End()

	startTime := time.Now()

	err := fn(ctx)

	duration := time.Since(startTime)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.SetAttributes(
		attribute.Float64("duration.seconds", duration.Seconds()),
	)

	return err
}

// InstrumentToolExecution wraps an evidence tool execution with a span
func (t *Telemetry) InstrumentToolExecution(ctx context.Context, toolName string, fn func(context.Context) error) error {
	ctx, span := t.StartSpan(ctx, fmt.Sprintf("tool.%s", toolName),
		trace.WithAttributes(
			attribute.String("tool.name", toolName),
		),
	)
	defer span.End()

	startTime := time.Now()

	err := fn(ctx)

	duration := time.Since(startTime)
	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.SetAttributes(
		attribute.String("tool.status", status),
		attribute.Float64("tool.duration_seconds", duration.Seconds()),
	)

	return err
}

// StartPlanRun starts a root span for a full plan-and-execute invocation
func (t *Telemetry) StartPlanRun(ctx context.Context, planID, traceID, documentPath string) (context.Context, trace.Span) {
	ctx, span := t.StartSpan(ctx, "plan.run",
		trace.WithAttributes(
			attribute.String("plan.id", planID),
			attribute.String("plan.trace_id", traceID),
			attribute.String("document.path", documentPath),
		),
	)
	return ctx, span
}

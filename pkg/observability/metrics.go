package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	meter metric.Meter

	// Counters
	plansCreatedTotal       metric.Int64Counter
	tasksDiscoveredTotal    metric.Int64Counter
	tasksExecutedTotal      metric.Int64Counter
	tasksFailedTotal        metric.Int64Counter
	frictionEventsTotal     metric.Int64Counter
	stallsTotal             metric.Int64Counter
	snapshotsRecordedTotal  metric.Int64Counter
	referencesVerifiedTotal metric.Int64Counter
	toolCallsRecordedTotal  metric.Int64Counter

	// Histograms
	executionDuration metric.Float64Histogram
	taskDuration      metric.Float64Histogram

	// Gauges (using async instruments)
	trackedDocuments metric.Int64ObservableGauge
	storedPlans      metric.Int64ObservableGauge

	// Values for gauges (updated by application)
	trackedDocumentCount int64
	storedPlanCount      int64
}

// NewMetrics creates and initializes all metrics
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{
		meter: meter,
	}

	var err error

	m.plansCreatedTotal, err = meter.Int64Counter(
		"plans_created_total",
		metric.WithDescription("Total number of orchestration plans created"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.tasksDiscoveredTotal, err = meter.Int64Counter(
		"tasks_discovered_total",
		metric.WithDescription("Total number of tasks discovered from annotations"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.tasksExecutedTotal, err = meter.Int64Counter(
		"tasks_executed_total",
		metric.WithDescription("Total number of tasks executed"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.tasksFailedTotal, err = meter.Int64Counter(
		"tasks_failed_total",
		metric.WithDescription("Total number of tasks failed"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.frictionEventsTotal, err = meter.Int64Counter(
		"friction_events_total",
		metric.WithDescription("Total number of friction events recorded"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.stallsTotal, err = meter.Int64Counter(
		"stalls_total",
		metric.WithDescription("Total number of stalled execution runs"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.snapshotsRecordedTotal, err = meter.Int64Counter(
		"health_snapshots_recorded_total",
		metric.WithDescription("Total number of health snapshots recorded"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.referencesVerifiedTotal, err = meter.Int64Counter(
		"references_verified_total",
		metric.WithDescription("Total number of reference candidates verified"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.toolCallsRecordedTotal, err = meter.Int64Counter(
		"tool_calls_recorded_total",
		metric.WithDescription("Total number of evidence tool calls recorded"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.executionDuration, err = meter.Float64Histogram(
		"execution_duration_seconds",
		metric.WithDescription("Duration of monitored execution runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.taskDuration, err = meter.Float64Histogram(
		"task_duration_seconds",
		metric.WithDescription("Duration of single task executions in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.trackedDocuments, err = meter.Int64ObservableGauge(
		"tracked_documents",
		metric.WithDescription("Number of documents with health history"),
		metric.WithUnit("1"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(m.trackedDocumentCount)
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	m.storedPlans, err = meter.Int64ObservableGauge(
		"stored_plans",
		metric.WithDescription("Number of orchestration plans held in the plan store"),
		metric.WithUnit("1"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(m.storedPlanCount)
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordPlanCreated records creation of an orchestration plan
func (m *Metrics) RecordPlanCreated(ctx context.Context, taskCount int) {
	m.plansCreatedTotal.Add(ctx, 1)
	m.tasksDiscoveredTotal.Add(ctx, int64(taskCount))
}

// RecordTaskExecution records one task attempt
func (m *Metrics) RecordTaskExecution(ctx context.Context, family string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "failure"
		m.tasksFailedTotal.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("family", family),
			),
		)
	}

	m.tasksExecutedTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("family", family),
			attribute.String("status", status),
		),
	)

	m.taskDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("status", status),
		),
	)
}

// RecordFriction records a friction event by type and severity
func (m *Metrics) RecordFriction(ctx context.Context, frictionType string, severity int) {
	m.frictionEventsTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("type", frictionType),
			attribute.Int("severity", severity),
		),
	)
}

// RecordExecutionComplete records the end of a monitored run
func (m *Metrics) RecordExecutionComplete(ctx context.Context, duration time.Duration, stalled bool) {
	status := "completed"
	if stalled {
		status = "stalled"
		m.stallsTotal.Add(ctx, 1)
	}

	m.executionDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("status", status),
		),
	)
}

// RecordSnapshot records one health snapshot measurement
func (m *Metrics) RecordSnapshot(ctx context.Context, audience string) {
	m.snapshotsRecordedTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("audience", audience),
		),
	)
}

// RecordReferenceVerified records one verification outcome by method
func (m *Metrics) RecordReferenceVerified(ctx context.Context, method string) {
	m.referencesVerifiedTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
		),
	)
}

// RecordToolCall records one evidence tool call
func (m *Metrics) RecordToolCall(ctx context.Context, toolName string, resultCount int) {
	m.toolCallsRecordedTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", toolName),
			attribute.Int("results", resultCount),
		),
	)
}

// SetTrackedDocumentCount updates the tracked-documents gauge value
func (m *Metrics) SetTrackedDocumentCount(count int64) {
	m.trackedDocumentCount = count
}

// SetStoredPlanCount updates the stored-plans gauge value
func (m *Metrics) SetStoredPlanCount(count int64) {
	m.storedPlanCount = count
}

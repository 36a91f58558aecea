package orchestrator

import (
	"time"

	"github.com/draftops/refinery/pkg/config"
	"github.com/draftops/refinery/pkg/domain"
	"github.com/draftops/refinery/pkg/observability"
	"github.com/draftops/refinery/pkg/state"
)

// Orchestrator turns a document snapshot and its annotations into an
// orchestration plan and runs plans under friction monitoring. One instance
// serves one logical session at a time; callers sharing an instance across
// concurrent sessions must synchronize externally.
type Orchestrator struct {
	config    *config.Config
	executor  domain.TaskExecutor
	plans     *state.PlanStore
	telemetry *observability.Telemetry
	metrics   *observability.Metrics
	logger    *observability.StructuredLogger

	// now is the clock used for friction timestamps and stall evaluation
	now func() time.Time
}

// New creates an orchestrator. The executor supplies the actual per-task
// work and may be nil for planning-only use; telemetry and metrics are
// optional.
func New(
	cfg *config.Config,
	executor domain.TaskExecutor,
	plans *state.PlanStore,
	telemetry *observability.Telemetry,
	metrics *observability.Metrics,
) *Orchestrator {
	if cfg == nil {
		cfg = config.Default()
	}
	if plans == nil {
		plans = state.NewPlanStore()
	}

	return &Orchestrator{
		config:    cfg,
		executor:  executor,
		plans:     plans,
		telemetry: telemetry,
		metrics:   metrics,
		logger:    observability.NewStructuredLogger("orchestrator"),
		now:       time.Now,
	}
}

// Plans returns the plan store backing this orchestrator
func (o *Orchestrator) Plans() *state.PlanStore {
	return o.plans
}

// clamp01 clamps v to [0, 1]
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// propFloat reads a numeric stub property, defaulting when absent or
// non-numeric
func propFloat(props map[string]interface{}, key string, def float64) float64 {
	if props == nil {
		return def
	}
	switch v := props[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}

// propString reads a string stub property, empty when absent
func propString(props map[string]interface{}, key string) string {
	if props == nil {
		return ""
	}
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

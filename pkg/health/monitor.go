// Package health tracks document quality over time. It computes a composite
// health score per measurement, derives trends over a trailing window,
// forecasts time-to-target against audience gates, and aggregates a
// vault-wide summary.
package health

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/draftops/refinery/pkg/config"
	"github.com/draftops/refinery/pkg/domain"
	"github.com/draftops/refinery/pkg/observability"
)

// Monitor owns per-document snapshot histories. One instance serves one
// logical session at a time; concurrent callers are safe but ordering across
// them is unspecified.
type Monitor struct {
	mu      sync.RWMutex
	config  *config.Config
	history map[string][]domain.HealthSnapshot
	metrics *observability.Metrics
	logger  *observability.StructuredLogger

	// now is the clock used for snapshot timestamps and window evaluation
	now func() time.Time
}

// NewMonitor creates a health monitor. Metrics are optional.
func NewMonitor(cfg *config.Config, metrics *observability.Metrics) *Monitor {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Monitor{
		config:  cfg,
		history: make(map[string][]domain.HealthSnapshot),
		metrics: metrics,
		logger:  observability.NewStructuredLogger("health"),
		now:     time.Now,
	}
}

// calculateHealth combines refinement with a stub-count penalty. The penalty
// saturates at 0.3 so stub count alone can never zero the score.
func calculateHealth(refinement float64, stubCount int) float64 {
	return 0.7*refinement + 0.3*(1-stubPenalty(stubCount))
}

// stubPenalty converts a stub count to a penalty in [0, 0.3]
func stubPenalty(stubCount int) float64 {
	return math.Min(float64(stubCount)*0.05, 0.3)
}

// RecordSnapshot computes and stores one health measurement for a document.
// Histories are capped; the oldest snapshot is evicted on overflow.
func (m *Monitor) RecordSnapshot(ctx context.Context, docPath string, refinement float64, stubCount, blockingStubCount int, audience domain.Audience) domain.HealthSnapshot {
	snapshot := domain.HealthSnapshot{
		DocumentPath:      docPath,
		Timestamp:         m.now(),
		Refinement:        refinement,
		StubCount:         stubCount,
		BlockingStubCount: blockingStubCount,
		Audience:          audience,
		StubPenalty:       stubPenalty(stubCount),
		Health:            calculateHealth(refinement, stubCount),
		UsefulnessMargin:  refinement - domain.AudienceGate(audience),
	}

	m.mu.Lock()
	snapshots := append(m.history[docPath], snapshot)
	if max := m.config.Health.MaxHistory; len(snapshots) > max {
		snapshots = snapshots[len(snapshots)-max:]
	}
	m.history[docPath] = snapshots
	documentCount := len(m.history)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.RecordSnapshot(ctx, string(audience))
		m.metrics.SetTrackedDocumentCount(int64(documentCount))
	}

	m.logger.Debug(ctx, "Health snapshot recorded",
		map[string]interface{}{
			"document":   docPath,
			"health":     snapshot.Health,
			"refinement": refinement,
			"stub_count": stubCount,
		},
	)

	return snapshot
}

// GetSnapshots returns a copy of a document's full snapshot history in
// recording order. Nil when the document is untracked.
func (m *Monitor) GetSnapshots(docPath string) []domain.HealthSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshots, exists := m.history[docPath]
	if !exists {
		return nil
	}
	out := make([]domain.HealthSnapshot, len(snapshots))
	copy(out, snapshots)
	return out
}

// TrackedDocuments returns the paths of all documents with history
func (m *Monitor) TrackedDocuments() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := make([]string, 0, len(m.history))
	for path := range m.history {
		paths = append(paths, path)
	}
	return paths
}

// latest returns the most recent snapshot for a document
func (m *Monitor) latest(docPath string) (domain.HealthSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshots := m.history[docPath]
	if len(snapshots) == 0 {
		return domain.HealthSnapshot{}, false
	}
	return snapshots[len(snapshots)-1], true
}

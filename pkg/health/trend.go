package health

import (
	"math"
	"time"

	"github.com/draftops/refinery/pkg/domain"
)

// consistentStepEpsilon is the step magnitude below which a snapshot-to-
// snapshot change counts as consistent regardless of its direction.
const consistentStepEpsilon = 0.01

// AnalyzeTrend derives a trend over the snapshots inside the trailing trend
// window. Returns false when fewer than three snapshots fall in the window.
func (m *Monitor) AnalyzeTrend(docPath string) (domain.HealthTrend, bool) {
	window := time.Duration(m.config.Health.TrendWindowDays) * 24 * time.Hour
	cutoff := m.now().Add(-window)

	m.mu.RLock()
	var recent []domain.HealthSnapshot
	for _, snapshot := range m.history[docPath] {
		if !snapshot.Timestamp.Before(cutoff) {
			recent = append(recent, snapshot)
		}
	}
	m.mu.RUnlock()

	if len(recent) < 3 {
		return domain.HealthTrend{}, false
	}

	first := recent[0]
	latest := recent[len(recent)-1]

	timeSpanDays := math.Max(1, latest.Timestamp.Sub(first.Timestamp).Hours()/24)
	slope := (latest.Health - first.Health) / timeSpanDays

	direction := domain.TrendStable
	switch {
	case slope >= 0.01:
		direction = domain.TrendImproving
	case slope <= -0.01:
		direction = domain.TrendDeclining
	}

	density := float64(len(recent)) / timeSpanDays
	consistency := stepConsistency(recent, latest.Health-first.Health)

	return domain.HealthTrend{
		DocumentPath:  docPath,
		Direction:     direction,
		Slope:         slope,
		HealthDelta:   latest.Health - first.Health,
		Velocity:      (latest.Refinement - first.Refinement) / timeSpanDays,
		Confidence:    math.Min(1, 0.5+density*0.25+consistency*0.25),
		SnapshotCount: len(recent),
		TimeSpanDays:  timeSpanDays,
	}, true
}

// stepConsistency is the fraction of consecutive steps whose sign matches
// the overall first-to-last direction. Near-zero steps count as consistent
// in either direction.
func stepConsistency(snapshots []domain.HealthSnapshot, overallDelta float64) float64 {
	steps := len(snapshots) - 1
	if steps < 1 {
		return 0
	}

	consistent := 0
	for i := 1; i < len(snapshots); i++ {
		delta := snapshots[i].Health - snapshots[i-1].Health
		if math.Abs(delta) < consistentStepEpsilon || sameSign(delta, overallDelta) {
			consistent++
		}
	}
	return float64(consistent) / float64(steps)
}

func sameSign(a, b float64) bool {
	return (a >= 0) == (b >= 0)
}

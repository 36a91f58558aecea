package health

import (
	"sort"

	"github.com/draftops/refinery/pkg/domain"
)

// Summarize aggregates the latest measurements and trends of every tracked
// document. Documents without a computable trend count as stable. At-risk
// documents have a declining trend or health below 0.4.
func (m *Monitor) Summarize() domain.VaultSummary {
	paths := m.TrackedDocuments()
	sort.Strings(paths)

	summary := domain.VaultSummary{}

	var healthSum, refinementSum float64
	for _, path := range paths {
		latest, ok := m.latest(path)
		if !ok {
			continue
		}

		summary.DocumentCount++
		healthSum += latest.Health
		refinementSum += latest.Refinement

		declining := false
		if trend, ok := m.AnalyzeTrend(path); ok {
			switch trend.Direction {
			case domain.TrendImproving:
				summary.Improving++
			case domain.TrendDeclining:
				summary.Declining++
				declining = true
			default:
				summary.Stable++
			}
		} else {
			summary.Stable++
		}

		if declining || latest.Health < 0.4 {
			summary.AtRisk = append(summary.AtRisk, path)
		}
	}

	if summary.DocumentCount > 0 {
		summary.AverageHealth = healthSum / float64(summary.DocumentCount)
		summary.AverageRefinement = refinementSum / float64(summary.DocumentCount)
	}

	return summary
}

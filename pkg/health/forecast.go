package health

import (
	"math"

	"github.com/draftops/refinery/pkg/domain"
)

// velocityEpsilon is the refinement rate below which a document counts as
// stagnant rather than moving.
const velocityEpsilon = 0.001

// ForecastDaysToTarget estimates how long a document needs to reach its
// audience gate. Returns false when the document has no snapshots. Documents
// without an audience are forecast against the personal gate.
func (m *Monitor) ForecastDaysToTarget(docPath string) (domain.RefinementForecast, bool) {
	latest, ok := m.latest(docPath)
	if !ok {
		return domain.RefinementForecast{}, false
	}

	audience := latest.Audience
	if audience == "" {
		audience = domain.AudiencePersonal
	}
	target := domain.AudienceGate(audience)
	gap := math.Max(0, target-latest.Refinement)

	forecast := domain.RefinementForecast{
		DocumentPath:      docPath,
		CurrentRefinement: latest.Refinement,
		TargetRefinement:  target,
		Gap:               gap,
	}

	if gap > 0.3 {
		forecast.Risks = append(forecast.Risks, "significant work needed to reach target")
	}
	if latest.BlockingStubCount > 0 {
		forecast.Risks = append(forecast.Risks, "blocking stubs present")
		forecast.Recommendations = append(forecast.Recommendations, "prioritize resolving blocking stubs")
	}
	if latest.StubCount > 10 {
		forecast.Risks = append(forecast.Risks, "high stub count")
		forecast.Recommendations = append(forecast.Recommendations, "batch stub resolution into focused sessions")
	}

	if gap == 0 {
		forecast.Achievable = true
		return forecast, true
	}

	velocity := 0.0
	if trend, ok := m.AnalyzeTrend(docPath); ok {
		velocity = trend.Velocity
	}

	switch {
	case velocity > velocityEpsilon:
		days := int(math.Ceil(gap / velocity))
		forecast.EstimatedDays = days
		forecast.Achievable = days < 365
		if days > 90 {
			forecast.Risks = append(forecast.Risks, "long timeline at current velocity")
		}
	case velocity < -velocityEpsilon:
		forecast.Risks = append(forecast.Risks, "refinement is declining")
		forecast.Recommendations = append(forecast.Recommendations, "investigate the cause of the regression")
	default:
		forecast.Risks = append(forecast.Risks, "no improvement velocity")
		forecast.Recommendations = append(forecast.Recommendations, "resume active work on the document")
	}

	return forecast, true
}

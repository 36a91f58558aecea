package orchestrator

import (
	"math"

	"github.com/draftops/refinery/pkg/domain"
)

// averageEnergyPerTask is the assumed mean potential energy of a task used
// by the session estimate.
// TODO: derive this from the mean of the actually-computed task energies.
const averageEnergyPerTask = 0.5

// ForecastCompletion estimates sessions-to-done and the refinement gain
// available from resolving all discovered tasks.
func (o *Orchestrator) ForecastCompletion(tasks []domain.Task, doc domain.Document) domain.Forecast {
	velocity := o.config.Orchestrator.EstimatedVelocity

	var totalEnergy float64
	blockingCount := 0
	lowTierCount := 0
	for _, task := range tasks {
		totalEnergy += task.PotentialEnergy
		if task.Blocking {
			blockingCount++
		}
		if PolicyFor(task.VectorFamily).Tier == domain.TierLow {
			lowTierCount++
		}
	}

	sessions := 0
	if totalEnergy > 0 {
		sessions = int(math.Ceil(totalEnergy / (velocity * averageEnergyPerTask)))
	}

	// The stub penalty doubles as the total refinement gain available from
	// resolving every task, spread evenly across sessions.
	totalGain := math.Min(float64(len(tasks))*0.05, 0.3)
	deltaPerSession := 0.0
	if sessions > 0 {
		deltaPerSession = totalGain / float64(sessions)
	}

	forecast := domain.Forecast{
		TotalPotentialEnergy:      totalEnergy,
		EstimatedVelocity:         velocity,
		EstimatedSessions:         sessions,
		RefinementDeltaPerSession: deltaPerSession,
		ProjectedRefinement:       math.Min(1, doc.Refinement+totalGain),
	}

	lowFraction := 0.0
	if len(tasks) > 0 {
		lowFraction = float64(lowTierCount) / float64(len(tasks))
	}

	if blockingCount > 3 {
		forecast.Risks = append(forecast.Risks,
			"multiple blocking tasks may slow progress")
	}
	if lowFraction > 0.5 {
		forecast.Risks = append(forecast.Risks,
			"majority of tasks in low-reliability tier: lower predictability")
	}

	confidence := 0.7
	if len(tasks) > 20 {
		confidence -= 0.2
	}
	if blockingCount > 5 {
		confidence -= 0.1
	}
	if lowFraction > 0.3 {
		confidence -= 0.1
	}
	forecast.Confidence = math.Max(confidence, 0.1)

	return forecast
}

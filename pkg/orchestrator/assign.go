package orchestrator

import (
	"github.com/draftops/refinery/pkg/domain"
)

// AssignToFamilies produces one assignment per task from the static policy
// tables. The tables are total over the five vector families, so assignment
// has no error conditions.
func (o *Orchestrator) AssignToFamilies(tasks []domain.Task) []domain.TaskAssignment {
	assignments := make([]domain.TaskAssignment, 0, len(tasks))
	for _, task := range tasks {
		policy := PolicyFor(task.VectorFamily)
		assignment := domain.TaskAssignment{
			TaskID:        task.ID,
			VectorFamily:  task.VectorFamily,
			Tier:          policy.Tier,
			ReviewPattern: policy.ReviewPattern,
			ToolPolicy:    tierToolPolicy[policy.Tier],
			Confidence:    tierConfidence[policy.Tier],
		}
		assignment.RecommendedTools = o.SelectTools(assignment)
		assignments = append(assignments, assignment)
	}
	return assignments
}

// SelectTools returns the tool list for an assignment: the policy table's
// recommendations for the vector family, plus semantic-search whenever the
// tier warrants automation and it is not already present.
func (o *Orchestrator) SelectTools(assignment domain.TaskAssignment) []string {
	policy := PolicyFor(assignment.VectorFamily)

	tools := make([]string, len(policy.RecommendedTools))
	copy(tools, policy.RecommendedTools)

	if assignment.Tier == domain.TierLow {
		return tools
	}
	for _, tool := range tools {
		if tool == "semantic-search" {
			return tools
		}
	}
	return append(tools, "semantic-search")
}

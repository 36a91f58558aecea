package orchestrator

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/draftops/refinery/pkg/domain"
)

// DiscoverTasks derives one task per stub in the document snapshot. The
// result is ordered blocking-first, then by descending priority score. Pure
// over its inputs; the only side channel is discovery log events.
func (o *Orchestrator) DiscoverTasks(ctx context.Context, doc domain.Document) []domain.Task {
	o.logger.Debug(ctx, "Task discovery started",
		map[string]interface{}{
			"document":   doc.Path,
			"stub_count": len(doc.Stubs),
		},
	)

	tasks := make([]domain.Task, 0, len(doc.Stubs))
	for _, stub := range doc.Stubs {
		tasks = append(tasks, o.taskFromStub(stub, doc))
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Blocking != tasks[j].Blocking {
			return tasks[i].Blocking
		}
		return tasks[i].PriorityScore > tasks[j].PriorityScore
	})

	o.logger.Info(ctx, "Task discovery completed",
		map[string]interface{}{
			"document":   doc.Path,
			"task_count": len(tasks),
		},
	)

	return tasks
}

// taskFromStub builds a single discovered task from an annotation
func (o *Orchestrator) taskFromStub(stub domain.Stub, doc domain.Document) domain.Task {
	family := classifyVectorFamily(stub, doc)
	policy := PolicyFor(family)

	// Potential energy: urgency x impact x complexity, each defaulting to
	// 0.5 when the property is absent. No further clamping.
	urgency := propFloat(stub.Props, "urgency", 0.5)
	impact := propFloat(stub.Props, "impact", 0.5)
	complexity := propFloat(stub.Props, "complexity", 0.5)
	energy := urgency * impact * complexity

	score := 0.5
	switch propString(stub.Props, "priority") {
	case "critical":
		score += 0.4
	case "high":
		score += 0.2
	case "low":
		score -= 0.2
	}
	blocking := stub.Form == domain.StubFormBlocking
	if blocking {
		score += 0.3
	}
	// Rougher documents pull every task up: more headroom, more value per fix.
	score += (1 - doc.Refinement) * 0.2

	return domain.Task{
		ID:              uuid.NewString(),
		DocumentPath:    doc.Path,
		StubType:        stub.Type,
		Description:     stub.Description,
		VectorFamily:    family,
		TaskFamily:      policy.TaskFamily,
		PriorityScore:   clamp01(score),
		PotentialEnergy: energy,
		Blocking:        blocking,
		Line:            stub.Line,
		Section:         stub.Section,
		CreatedAt:       o.now(),
	}
}

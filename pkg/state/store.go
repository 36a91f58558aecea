// Package state provides in-memory storage for orchestration plans. Plans
// are stored by value copies so callers can never mutate stored state
// through a returned plan.
package state

import (
	"fmt"
	"sync"

	"github.com/draftops/refinery/pkg/domain"
)

// PlanStore is a thread-safe in-memory plan repository keyed by plan ID
type PlanStore struct {
	mu    sync.RWMutex
	plans map[string]domain.Plan
}

// NewPlanStore creates an empty plan store
func NewPlanStore() *PlanStore {
	return &PlanStore{
		plans: make(map[string]domain.Plan),
	}
}

// Save stores a plan, replacing any existing plan with the same ID
func (s *PlanStore) Save(plan domain.Plan) error {
	if plan.ID == "" {
		return fmt.Errorf("plan ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.plans[plan.ID] = copyPlan(plan)
	return nil
}

// Get retrieves a plan by ID
func (s *PlanStore) Get(id string) (domain.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan, exists := s.plans[id]
	if !exists {
		return domain.Plan{}, fmt.Errorf("plan not found: %s", id)
	}

	return copyPlan(plan), nil
}

// Delete removes a plan by ID
func (s *PlanStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[id]; !exists {
		return fmt.Errorf("plan not found: %s", id)
	}

	delete(s.plans, id)
	return nil
}

// List returns copies of all stored plans in unspecified order
func (s *PlanStore) List() []domain.Plan {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plans := make([]domain.Plan, 0, len(s.plans))
	for _, plan := range s.plans {
		plans = append(plans, copyPlan(plan))
	}
	return plans
}

// Count returns the number of stored plans
func (s *PlanStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.plans)
}

// copyPlan deep-copies the plan's slice and map fields so stored plans and
// returned plans never alias caller memory
func copyPlan(plan domain.Plan) domain.Plan {
	copied := plan

	if plan.Tasks != nil {
		copied.Tasks = make([]domain.Task, len(plan.Tasks))
		copy(copied.Tasks, plan.Tasks)
	}

	if plan.Assignments != nil {
		copied.Assignments = make(map[string]domain.TaskAssignment, len(plan.Assignments))
		for id, assignment := range plan.Assignments {
			a := assignment
			if assignment.RecommendedTools != nil {
				a.RecommendedTools = make([]string, len(assignment.RecommendedTools))
				copy(a.RecommendedTools, assignment.RecommendedTools)
			}
			copied.Assignments[id] = a
		}
	}

	if plan.ExecutionOrder != nil {
		copied.ExecutionOrder = make([]string, len(plan.ExecutionOrder))
		copy(copied.ExecutionOrder, plan.ExecutionOrder)
	}

	if plan.Forecast.Risks != nil {
		copied.Forecast.Risks = make([]string, len(plan.Forecast.Risks))
		copy(copied.Forecast.Risks, plan.Forecast.Risks)
	}

	copied.Document = copyDocument(plan.Document)

	return copied
}

// copyDocument deep-copies a document snapshot
func copyDocument(doc domain.Document) domain.Document {
	copied := doc

	if doc.Stubs != nil {
		copied.Stubs = make([]domain.Stub, len(doc.Stubs))
		for i, stub := range doc.Stubs {
			s := stub
			if stub.Props != nil {
				s.Props = make(map[string]interface{}, len(stub.Props))
				for k, v := range stub.Props {
					s.Props[k] = v
				}
			}
			copied.Stubs[i] = s
		}
	}

	if doc.StubTypes != nil {
		copied.StubTypes = make(map[string]domain.StubTypeDef, len(doc.StubTypes))
		for k, v := range doc.StubTypes {
			copied.StubTypes[k] = v
		}
	}

	return copied
}

package operations

import (
	"fmt"
	"slices"
	"sync"
)

// Registry holds the pipeline steps in registration order
type Registry struct {
	mu    sync.RWMutex
	steps map[string]Step
	order []string
}

func NewRegistry() *Registry {
	return &Registry{steps: make(map[string]Step)}
}

// Register adds step. IDs are unique and non-empty.
func (r *Registry) Register(step Step) error {
	if step == nil {
		return fmt.Errorf("cannot register nil step")
	}
	id := step.ID()
	if id == "" {
		return fmt.Errorf("step ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.steps[id]; dup {
		return fmt.Errorf("step %s already registered", id)
	}
	r.steps[id] = step
	r.order = append(r.order, id)
	return nil
}

func (r *Registry) Get(id string) (Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	step, ok := r.steps[id]
	if !ok {
		return nil, fmt.Errorf("step %s not found", id)
	}
	return step, nil
}

func (r *Registry) Has(id string) bool {
	_, err := r.Get(id)
	return err == nil
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// ListIDs returns step IDs in registration order
func (r *Registry) ListIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// GetDependencyOrder orders the steps so each follows its dependencies.
// Among steps that are ready together, registration order wins.
func (r *Registry) GetDependencyOrder() ([]Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		for _, dep := range r.steps[id].GetDependencies() {
			if _, ok := r.steps[dep]; !ok {
				return nil, fmt.Errorf("step %s depends on unknown step %s", id, dep)
			}
		}
	}

	placed := make(map[string]bool, len(r.order))
	ordered := make([]Step, 0, len(r.order))
	for len(ordered) < len(r.order) {
		next := ""
		for _, id := range r.order {
			if placed[id] {
				continue
			}
			ready := true
			for _, dep := range r.steps[id].GetDependencies() {
				if !placed[dep] {
					ready = false
					break
				}
			}
			if ready {
				next = id
				break
			}
		}
		if next == "" {
			return nil, fmt.Errorf("dependency cycle detected")
		}
		placed[next] = true
		ordered = append(ordered, r.steps[next])
	}
	return ordered, nil
}

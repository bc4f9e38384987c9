package flowsheet

import (
	"fmt"
	"iter"

	"github.com/procflow/engine/pkg/api"
)

// Registry is a per-context mapping from unique equipment name to its
// declaration, preserving insertion order
type Registry struct {
	equipment map[api.Name]*api.Equipment
	order     []api.Name
}

// NewRegistry creates an empty equipment registry
func NewRegistry() *Registry {
	return &Registry{
		equipment: map[api.Name]*api.Equipment{},
	}
}

// Register adds equipment under its unique name. A duplicate name fails
// without mutating the registry.
func (r *Registry) Register(eq *api.Equipment) error {
	if _, ok := r.equipment[eq.Name]; ok {
		return fmt.Errorf("%w: %q", ErrNameConflict, eq.Name)
	}
	r.equipment[eq.Name] = eq
	r.order = append(r.order, eq.Name)
	return nil
}

// Lookup retrieves equipment by name
func (r *Registry) Lookup(name api.Name) (*api.Equipment, error) {
	eq, ok := r.equipment[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownReference, name)
	}
	return eq, nil
}

// All yields (name, equipment) pairs lazily in insertion order
func (r *Registry) All() iter.Seq2[api.Name, *api.Equipment] {
	return func(yield func(api.Name, *api.Equipment) bool) {
		for _, name := range r.order {
			if !yield(name, r.equipment[name]) {
				return
			}
		}
	}
}

// Len returns the number of registered equipment
func (r *Registry) Len() int {
	return len(r.order)
}

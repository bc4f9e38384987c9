package flowsheet

import (
	"github.com/procflow/engine/internal/util"
	"github.com/procflow/engine/pkg/api"
)

// StateTransitions maps states to their set of valid next states
type StateTransitions[T comparable] map[T]util.Set[T]

// contextTransitions validates context lifecycle changes. Clear is not a
// transition: it resets a context to an empty Open state from anywhere.
var contextTransitions = StateTransitions[api.ContextStatus]{
	api.StatusOpen: util.SetOf(
		api.StatusReady,
	),
	api.StatusReady: util.SetOf(
		api.StatusRunning,
	),
	api.StatusRunning: util.SetOf(
		api.StatusCompleted,
		api.StatusFailed,
	),
	api.StatusCompleted: util.SetOf(
		api.StatusReady,
	),
	api.StatusFailed: util.SetOf(
		api.StatusReady,
	),
}

// CanTransition returns whether transition from one state to another is valid
func (t StateTransitions[T]) CanTransition(from, to T) bool {
	allowed, ok := t[from]
	if !ok {
		return false
	}
	return allowed.Contains(to)
}

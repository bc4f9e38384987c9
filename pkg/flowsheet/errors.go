package flowsheet

import (
	"errors"
	"fmt"

	"github.com/procflow/engine/pkg/api"
)

var (
	ErrNameConflict        = errors.New("duplicate equipment name")
	ErrUnknownReference    = errors.New("unknown equipment reference")
	ErrUnresolvedReference = errors.New("unresolved upstream reference")
	ErrCyclicDependency    = errors.New("cyclic dependency between equipment")
	ErrContextNotOpen      = errors.New("context is not open")
	ErrContextNotReady     = errors.New("context is not ready to run")
	ErrNotFinished         = errors.New("context has not finished a run")
	ErrNoAdapter           = errors.New("no engine adapter configured")
)

// EngineExecutionError wraps a failure raised by the external engine while
// registering or executing equipment. It is the only error in this layer
// that originates from the engine rather than from flowsheet validation,
// and the only one a caller might retry after adjusting the declaration.
type EngineExecutionError struct {
	Err       error
	Equipment api.Name
}

func (e *EngineExecutionError) Error() string {
	if e.Equipment == "" {
		return fmt.Sprintf("engine execution failed: %v", e.Err)
	}
	return fmt.Sprintf("engine execution failed at %q: %v", e.Equipment, e.Err)
}

func (e *EngineExecutionError) Unwrap() error {
	return e.Err
}

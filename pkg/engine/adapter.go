package engine

import (
	"context"

	"github.com/procflow/engine/pkg/api"
)

type (
	// Handle is an opaque reference returned by the engine when equipment
	// is registered. It is owned by the adapter layer and never dereferenced
	// by callers.
	Handle string

	// Adapter is the four-operation contract against the external engine.
	// Engine-specific failures are translated into Go errors at this
	// boundary.
	Adapter interface {
		// Register creates backing state for one piece of equipment
		Register(context.Context, *api.Equipment) (Handle, error)

		// Execute runs the registered flowsheet to convergence
		Execute(context.Context) error

		// Result reads back the result document for a registered handle
		Result(context.Context, Handle) (*api.ResultRecord, error)

		// Clear releases all backing state held by the engine
		Clear(context.Context) error
	}
)

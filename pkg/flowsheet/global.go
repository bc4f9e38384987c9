package flowsheet

import (
	"context"
	"sync"

	"github.com/procflow/engine/pkg/api"
	"github.com/procflow/engine/pkg/engine"
)

// The legacy process-wide mode operates on a single default context that is
// created lazily on first use. Its reset boundaries are explicit: only
// ClearProcess and SetDefaultAdapter discard its equipment. The package
// mutex also serializes process-level runs, matching the one-live-flowsheet
// assumption of a shared engine backend.
var (
	defaultMu      sync.Mutex
	defaultCtx     *Context
	defaultAdapter engine.Adapter
)

// SetDefaultAdapter configures the engine adapter used by the process-level
// helpers. Replacing the adapter discards the current default context.
func SetDefaultAdapter(adapter engine.Adapter) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	defaultAdapter = adapter
	if defaultCtx != nil {
		defaultCtx.Clear()
		defaultCtx = nil
	}
}

// DefaultContext returns the process-wide context, creating it on first use
func DefaultContext() *Context {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return ensureDefault()
}

// AddEquipment declares equipment in the process-wide context
func AddEquipment(eq *api.Equipment) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return ensureDefault().Add(eq)
}

// RunProcess executes the process-wide flowsheet. Runs are serialized by
// the package mutex, and a finished default context is reopened so the
// same process can be run repeatedly.
func RunProcess(ctx context.Context) (*api.RunReport, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	c := ensureDefault()
	switch c.Status() {
	case api.StatusCompleted, api.StatusFailed:
		if err := c.Reopen(); err != nil {
			return nil, err
		}
	}
	return c.Run(ctx)
}

// ClearProcess discards all equipment in the process-wide context and
// returns it to an empty open state
func ClearProcess() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	ensureDefault().Clear()
}

func ensureDefault() *Context {
	if defaultCtx == nil {
		defaultCtx = New(defaultAdapter)
	}
	return defaultCtx
}

package flowsheet

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/procflow/engine/pkg/api"
	"github.com/procflow/engine/pkg/engine"
	"github.com/procflow/engine/pkg/log"
)

// Context is the scoped owner of one flowsheet: its equipment registry, its
// cached execution order, and the engine adapter it runs against. The
// lifecycle is Open → Ready → Running → Completed or Failed; a finished
// context may be reopened for another run, and Clear resets it to an empty
// Open state from anywhere.
type Context struct {
	mu       sync.Mutex
	adapter  engine.Adapter
	registry *Registry
	order    []api.Name
	status   api.ContextStatus
	report   *api.RunReport
}

// New creates an empty open context bound to the given engine adapter
func New(adapter engine.Adapter) *Context {
	return &Context{
		adapter:  adapter,
		registry: NewRegistry(),
		status:   api.StatusOpen,
	}
}

// With runs fn against a fresh context and guarantees Clear on every exit
// path, including panics and run failures
func With(adapter engine.Adapter, fn func(*Context) error) error {
	c := New(adapter)
	defer c.Clear()
	return fn(c)
}

// Add declares equipment in the context. Valid only while Open; the
// declaration is validated eagerly and a duplicate name fails without
// mutating the registry. Equipment belongs to at most one context.
func (c *Context) Add(eq *api.Equipment) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != api.StatusOpen {
		return fmt.Errorf("%w: %s", ErrContextNotOpen, c.status)
	}
	if err := eq.Validate(); err != nil {
		return err
	}
	if err := eq.Attach(); err != nil {
		return err
	}
	if err := c.registry.Register(eq); err != nil {
		eq.Detach()
		return err
	}
	return nil
}

// Resolve computes and caches the execution order, moving the context from
// Open to Ready. Repeated calls before mutation are no-ops.
func (c *Context) Resolve() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolve()
}

func (c *Context) resolve() error {
	if c.status == api.StatusReady {
		return nil
	}
	if c.status != api.StatusOpen {
		return fmt.Errorf("%w: %s", ErrContextNotOpen, c.status)
	}

	order, err := Resolve(c.registry)
	if err != nil {
		return err
	}
	c.order = order
	c.status = api.StatusReady
	return nil
}

// Run registers all equipment with the engine in dependency order, executes
// the flowsheet to convergence, and attaches per-equipment results. On an
// engine failure the report and the returned EngineExecutionError both
// carry the name of the equipment being processed. A finished context must
// be reopened or cleared before it can run again.
func (c *Context) Run(ctx context.Context) (*api.RunReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.adapter == nil {
		return nil, ErrNoAdapter
	}
	if c.status == api.StatusOpen {
		if err := c.resolve(); err != nil {
			return nil, err
		}
	}
	if c.status != api.StatusReady {
		return nil, fmt.Errorf("%w: %s", ErrContextNotReady, c.status)
	}

	c.status = api.StatusRunning
	report := &api.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Status:    api.StatusRunning,
		Order:     slices.Clone(c.order),
		Results:   map[api.Name]*api.ResultRecord{},
	}
	c.report = report

	slog.Info("Flowsheet run started",
		log.RunID(report.RunID),
		slog.Int("equipment_count", c.registry.Len()))

	if err := c.adapter.Clear(ctx); err != nil {
		return c.fail(report, "", err)
	}

	handles := make([]engine.Handle, 0, len(c.order))
	for _, name := range c.order {
		eq, err := c.registry.Lookup(name)
		if err != nil {
			return c.fail(report, name, err)
		}
		h, err := c.adapter.Register(ctx, eq)
		if err != nil {
			return c.fail(report, name, err)
		}
		handles = append(handles, h)
	}

	if err := c.adapter.Execute(ctx); err != nil {
		return c.fail(report, "", err)
	}

	for i, name := range c.order {
		rec, err := c.adapter.Result(ctx, handles[i])
		if err != nil {
			return c.fail(report, name, err)
		}
		if rec.Equipment == "" {
			rec.Equipment = name
		}
		report.Results[name] = rec
	}

	report.Status = api.StatusCompleted
	report.CompletedAt = time.Now()
	c.status = api.StatusCompleted

	slog.Info("Flowsheet run completed",
		log.RunID(report.RunID),
		log.Status(report.Status))
	return report, nil
}

func (c *Context) fail(
	report *api.RunReport, name api.Name, err error,
) (*api.RunReport, error) {
	wrapped := &EngineExecutionError{Equipment: name, Err: err}
	report.Status = api.StatusFailed
	report.Error = wrapped.Error()
	report.CompletedAt = time.Now()
	c.status = api.StatusFailed

	slog.Error("Flowsheet run failed",
		log.RunID(report.RunID),
		log.Equipment(name),
		log.Error(err))
	return report, wrapped
}

// Reopen makes a Completed or Failed context Ready for another run over the
// same equipment set. The cached execution order is reused.
func (c *Context) Reopen() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !contextTransitions.CanTransition(c.status, api.StatusReady) ||
		c.status == api.StatusOpen {
		return fmt.Errorf("%w: cannot reopen from %s",
			ErrNotFinished, c.status)
	}
	c.status = api.StatusReady
	return nil
}

// Clear discards all equipment and the last report, returning the context
// to an empty Open state. Valid from any state.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, eq := range c.registry.All() {
		eq.Detach()
	}
	c.registry = NewRegistry()
	c.order = nil
	c.report = nil
	c.status = api.StatusOpen
}

// Status returns the current lifecycle state
func (c *Context) Status() api.ContextStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Report returns the report of the most recent run, or nil before any run
func (c *Context) Report() *api.RunReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report
}

// Lookup retrieves declared equipment by name
func (c *Context) Lookup(name api.Name) (*api.Equipment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.Lookup(name)
}

// Order returns the cached execution order, or nil before Resolve
func (c *Context) Order() []api.Name {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.order)
}

// Package enginetest provides an in-memory engine adapter for tests and
// dry runs. It records registrations and serves canned result documents.
package enginetest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/procflow/engine/pkg/api"
	"github.com/procflow/engine/pkg/engine"
)

// Fake is an Adapter that never touches a real engine. Failures can be
// scripted per equipment name or for the execute phase.
type Fake struct {
	mu       sync.Mutex
	names    map[engine.Handle]api.Name
	order    []api.Name
	executed int
	cleared  int

	// Docs maps equipment names to canned result documents
	Docs map[api.Name]json.RawMessage

	// FailRegister scripts a registration failure for a named equipment
	FailRegister map[api.Name]error

	// FailExecute scripts a failure of the execute phase
	FailExecute error
}

var _ engine.Adapter = (*Fake)(nil)

// New creates an empty fake engine adapter
func New() *Fake {
	return &Fake{
		names:        map[engine.Handle]api.Name{},
		Docs:         map[api.Name]json.RawMessage{},
		FailRegister: map[api.Name]error{},
	}
}

func (f *Fake) Register(
	_ context.Context, eq *api.Equipment,
) (engine.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.FailRegister[eq.Name]; err != nil {
		return "", err
	}

	h := engine.Handle(fmt.Sprintf("h-%d", len(f.order)))
	f.names[h] = eq.Name
	f.order = append(f.order, eq.Name)
	return h, nil
}

func (f *Fake) Execute(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailExecute != nil {
		return f.FailExecute
	}
	f.executed++
	return nil
}

func (f *Fake) Result(
	_ context.Context, h engine.Handle,
) (*api.ResultRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := f.names[h]
	raw, ok := f.Docs[name]
	if !ok {
		raw = json.RawMessage(fmt.Sprintf(
			`{"equipment":%q,"status":"converged"}`, name,
		))
	}
	return &api.ResultRecord{Equipment: name, Raw: raw}, nil
}

func (f *Fake) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.names = map[engine.Handle]api.Name{}
	f.order = nil
	f.cleared++
	return nil
}

// Registered returns equipment names in registration order
func (f *Fake) Registered() []api.Name {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.Name(nil), f.order...)
}

// Executions returns how many times Execute succeeded
func (f *Fake) Executions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.executed
}

// Clears returns how many times Clear was called
func (f *Fake) Clears() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleared
}

package flowsheet

import (
	"context"
	"fmt"
	"maps"

	"github.com/procflow/engine/internal/util"
	"github.com/procflow/engine/pkg/api"
	"github.com/procflow/engine/pkg/engine"
)

type (
	// Builder accumulates deferred equipment declarations through chained
	// calls. Upstream references may name equipment declared later in the
	// chain; all references are validated in a single pass at Build time,
	// before any engine interaction. Every Add method returns the same
	// builder instance.
	Builder struct {
		adapter   engine.Adapter
		decls     []*declaration
		overrides []override
		err       error
	}

	declaration struct {
		name     api.Name
		kind     api.Kind
		config   api.Config
		upstream []api.Name
	}

	override struct {
		name  api.Name
		param api.Name
		value api.Quantity
	}
)

// NewBuilder creates an empty flowsheet builder bound to an engine adapter
func NewBuilder(adapter engine.Adapter) *Builder {
	return &Builder{adapter: adapter}
}

// Add declares equipment of an arbitrary kind. Configuration is validated
// eagerly against the kind's recognized parameter set; the first
// declaration error is held and returned from Build or Run.
func (b *Builder) Add(
	kind api.Kind, name api.Name, config api.Config, upstream ...api.Name,
) *Builder {
	if b.err != nil {
		return b
	}

	probe := api.NewEquipment(name, kind, config, upstream...)
	if err := probe.Validate(); err != nil {
		b.err = err
		return b
	}
	for _, d := range b.decls {
		if d.name == name {
			b.err = fmt.Errorf("%w: %q", ErrNameConflict, name)
			return b
		}
	}

	b.decls = append(b.decls, &declaration{
		name:     name,
		kind:     kind,
		config:   maps.Clone(config),
		upstream: append([]api.Name(nil), upstream...),
	})
	return b
}

func (b *Builder) AddStream(
	name api.Name, config api.Config, upstream ...api.Name,
) *Builder {
	return b.Add(api.KindStream, name, config, upstream...)
}

func (b *Builder) AddSeparator(
	name api.Name, config api.Config, upstream ...api.Name,
) *Builder {
	return b.Add(api.KindSeparator, name, config, upstream...)
}

func (b *Builder) AddCompressor(
	name api.Name, config api.Config, upstream ...api.Name,
) *Builder {
	return b.Add(api.KindCompressor, name, config, upstream...)
}

func (b *Builder) AddValve(
	name api.Name, config api.Config, upstream ...api.Name,
) *Builder {
	return b.Add(api.KindValve, name, config, upstream...)
}

func (b *Builder) AddHeater(
	name api.Name, config api.Config, upstream ...api.Name,
) *Builder {
	return b.Add(api.KindHeater, name, config, upstream...)
}

func (b *Builder) AddCooler(
	name api.Name, config api.Config, upstream ...api.Name,
) *Builder {
	return b.Add(api.KindCooler, name, config, upstream...)
}

func (b *Builder) AddPump(
	name api.Name, config api.Config, upstream ...api.Name,
) *Builder {
	return b.Add(api.KindPump, name, config, upstream...)
}

func (b *Builder) AddMixer(
	name api.Name, config api.Config, upstream ...api.Name,
) *Builder {
	return b.Add(api.KindMixer, name, config, upstream...)
}

// Override replaces one configuration value of a previously or later
// declared equipment. Overrides are applied at Build time, which makes the
// builder reusable for scenario studies over the same topology.
func (b *Builder) Override(
	name api.Name, param api.Name, value api.Quantity,
) *Builder {
	if b.err != nil {
		return b
	}
	b.overrides = append(b.overrides, override{
		name:  name,
		param: param,
		value: value,
	})
	return b
}

// Err returns the first declaration error, if any
func (b *Builder) Err() error {
	return b.err
}

// Build validates all upstream references against the full declaration set,
// constructs a context, and resolves its execution order. The builder
// keeps its declarations and can build again.
func (b *Builder) Build() (*Context, error) {
	if b.err != nil {
		return nil, b.err
	}

	declared := util.Set[api.Name]{}
	for _, d := range b.decls {
		declared.Add(d.name)
	}

	for _, d := range b.decls {
		for _, up := range d.upstream {
			if !declared.Contains(up) {
				return nil, fmt.Errorf("%w: %q referenced by %q",
					ErrUnresolvedReference, up, d.name)
			}
		}
	}

	configs, err := b.applyOverrides(declared)
	if err != nil {
		return nil, err
	}

	c := New(b.adapter)
	for i, d := range b.decls {
		eq := api.NewEquipment(d.name, d.kind, configs[i], d.upstream...)
		if err := c.Add(eq); err != nil {
			c.Clear()
			return nil, err
		}
	}

	if err := c.Resolve(); err != nil {
		c.Clear()
		return nil, err
	}
	return c, nil
}

// Run builds the flowsheet and executes it, returning the run report keyed
// by equipment name
func (b *Builder) Run(ctx context.Context) (*api.RunReport, error) {
	c, err := b.Build()
	if err != nil {
		return nil, err
	}
	return c.Run(ctx)
}

// applyOverrides produces per-declaration configs with scenario overrides
// applied, validating each override target and parameter
func (b *Builder) applyOverrides(
	declared util.Set[api.Name],
) ([]api.Config, error) {
	configs := make([]api.Config, len(b.decls))
	byName := map[api.Name]int{}
	for i, d := range b.decls {
		configs[i] = maps.Clone(d.config)
		byName[d.name] = i
	}

	for _, o := range b.overrides {
		if !declared.Contains(o.name) {
			return nil, fmt.Errorf("%w: override target %q",
				ErrUnresolvedReference, o.name)
		}
		i := byName[o.name]
		params, _ := api.ParamsFor(b.decls[i].kind)
		if _, ok := params[o.param]; !ok {
			return nil, fmt.Errorf("%w: %q for %s %q",
				api.ErrConfiguration, o.param, b.decls[i].kind, o.name)
		}
		if configs[i] == nil {
			configs[i] = api.Config{}
		}
		configs[i][o.param] = o.value
	}
	return configs, nil
}

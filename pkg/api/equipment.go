package api

import (
	"errors"
	"fmt"
)

type (
	// Name uniquely identifies a piece of equipment within one flowsheet
	Name string

	// Kind classifies a unit operation
	Kind string

	// Quantity is a configuration value paired with its unit string
	Quantity struct {
		Value float64 `json:"value"`
		Unit  string  `json:"unit,omitempty"`
	}

	// Config maps recognized parameter names to their declared quantities
	Config map[Name]Quantity

	// Equipment is a named unit operation. Upstream references are symbolic
	// until a context resolves them against its registry.
	Equipment struct {
		Name     Name   `json:"name"`
		Kind     Kind   `json:"kind"`
		Upstream []Name `json:"upstream,omitempty"`
		Config   Config `json:"config,omitempty"`

		attached bool
	}
)

const (
	KindStream     Kind = "stream"
	KindSeparator  Kind = "separator"
	KindCompressor Kind = "compressor"
	KindValve      Kind = "valve"
	KindHeater     Kind = "heater"
	KindCooler     Kind = "cooler"
	KindPump       Kind = "pump"
	KindMixer      Kind = "mixer"
)

const (
	ParamPressure    Name = "pressure"
	ParamTemperature Name = "temperature"
	ParamFlowRate    Name = "flow_rate"
	ParamDuty        Name = "duty"
	ParamEfficiency  Name = "efficiency"
)

var (
	ErrConfiguration   = errors.New("unrecognized configuration option")
	ErrUnknownKind     = errors.New("unknown equipment kind")
	ErrEmptyName       = errors.New("equipment name must not be empty")
	ErrAlreadyAttached = errors.New("equipment already added to a context")
)

// kindParams maps each equipment kind to its recognized configuration
// parameters and their documented effects
var kindParams = map[Kind]map[Name]string{
	KindStream: {
		ParamPressure:    "sets the stream pressure",
		ParamTemperature: "sets the stream temperature",
		ParamFlowRate:    "sets the total flow rate",
	},
	KindSeparator: {
		ParamPressure: "sets the separation pressure",
	},
	KindCompressor: {
		ParamPressure:   "sets the outlet pressure",
		ParamEfficiency: "sets the polytropic efficiency",
	},
	KindValve: {
		ParamPressure: "sets the outlet pressure",
	},
	KindHeater: {
		ParamTemperature: "sets the target outlet temperature",
		ParamDuty:        "sets the heating duty",
	},
	KindCooler: {
		ParamTemperature: "sets the target outlet temperature",
		ParamDuty:        "sets the cooling duty",
	},
	KindPump: {
		ParamPressure:   "sets the outlet pressure",
		ParamEfficiency: "sets the pump efficiency",
	},
	KindMixer: {},
}

// Kinds returns all recognized equipment kinds in a stable order
func Kinds() []Kind {
	return []Kind{
		KindStream, KindSeparator, KindCompressor, KindValve,
		KindHeater, KindCooler, KindPump, KindMixer,
	}
}

// ParamsFor returns the recognized configuration parameters for a kind,
// keyed by parameter name with a short description of each effect
func ParamsFor(kind Kind) (map[Name]string, bool) {
	params, ok := kindParams[kind]
	return params, ok
}

// NewEquipment constructs an equipment declaration. Upstream references may
// name equipment that has not been declared yet.
func NewEquipment(
	name Name, kind Kind, config Config, upstream ...Name,
) *Equipment {
	return &Equipment{
		Name:     name,
		Kind:     kind,
		Upstream: upstream,
		Config:   config,
	}
}

// Validate checks the declaration eagerly, before any engine interaction.
// Configuration keys outside the kind's recognized set are rejected.
func (e *Equipment) Validate() error {
	if e.Name == "" {
		return ErrEmptyName
	}

	params, ok := kindParams[e.Kind]
	if !ok {
		return fmt.Errorf("%w: %q for equipment %q", ErrUnknownKind,
			e.Kind, e.Name)
	}

	for key := range e.Config {
		if _, ok := params[key]; !ok {
			return fmt.Errorf("%w: %q for %s %q", ErrConfiguration,
				key, e.Kind, e.Name)
		}
	}
	return nil
}

// Attach marks the equipment as owned by a context. Equipment belongs to at
// most one context at a time.
func (e *Equipment) Attach() error {
	if e.attached {
		return fmt.Errorf("%w: %q", ErrAlreadyAttached, e.Name)
	}
	e.attached = true
	return nil
}

// Detach releases the equipment from its owning context
func (e *Equipment) Detach() {
	e.attached = false
}

// Package script lets flowsheets be declared from embedded scripting
// languages. A script does not talk to the engine itself; it populates
// a builder, and the caller decides whether to run the result.
package script

import (
	"errors"
	"fmt"

	"github.com/procflow/engine/pkg/flowsheet"
)

type (
	// Environment is a language binding that evaluates declaration
	// source and feeds the resulting equipment into a builder
	Environment interface {
		Declare(source string, b *flowsheet.Builder) error
	}

	// Registry manages the available script environments by language
	Registry struct {
		envs map[string]Environment
	}
)

const (
	LangLua = "lua"
	LangAle = "ale"
)

var ErrUnsupportedLanguage = errors.New("unsupported script language")

// NewRegistry creates a registry with the Lua and Ale environments
func NewRegistry() *Registry {
	return &Registry{
		envs: map[string]Environment{
			LangLua: NewLuaEnv(),
			LangAle: NewAleEnv(),
		},
	}
}

// Get returns the environment for the given language
func (r *Registry) Get(language string) (Environment, error) {
	env, ok := r.envs[language]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}
	return env, nil
}

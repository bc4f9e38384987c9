package script

import (
	"errors"
	"fmt"

	"github.com/Shopify/go-lua"

	"github.com/procflow/engine/pkg/api"
	"github.com/procflow/engine/pkg/flowsheet"
)

// LuaEnv declares flowsheets from Lua. Each equipment kind is exposed
// as a global function taking a name, an optional parameter table, and
// any number of upstream names:
//
//	stream("feed", {pressure = {value = 50, unit = "bara"}})
//	separator("sep", {}, "feed")
type LuaEnv struct{}

const (
	luaGlobalTableIndex = -2
	luaGlobalTableName  = "_G"
	luaOverrideName     = "override"
)

var (
	ErrLuaLoad      = errors.New("lua load error")
	ErrLuaExecution = errors.New("lua execution error")
	ErrLuaBadParam  = errors.New("bad parameter value")
)

var luaExclude = [...]string{
	"io", "os", "debug", "package", "require", "dofile", "loadfile", "load",
}

func NewLuaEnv() *LuaEnv {
	return &LuaEnv{}
}

func (e *LuaEnv) Declare(source string, b *flowsheet.Builder) error {
	l := lua.NewState()
	e.setupSandbox(l)
	e.registerBuiltins(l, b)

	if err := lua.LoadString(l, source); err != nil {
		return fmt.Errorf("%w: %w", ErrLuaLoad, err)
	}
	if err := l.ProtectedCall(0, 0, 0); err != nil {
		return fmt.Errorf("%w: %w", ErrLuaExecution, err)
	}
	return b.Err()
}

func (e *LuaEnv) setupSandbox(l *lua.State) {
	lua.OpenLibraries(l)
	l.Global(luaGlobalTableName)
	for _, name := range luaExclude {
		l.PushNil()
		l.SetField(luaGlobalTableIndex, name)
	}
	l.Pop(1)
}

func (e *LuaEnv) registerBuiltins(l *lua.State, b *flowsheet.Builder) {
	for _, kind := range api.Kinds() {
		l.Register(string(kind), func(l *lua.State) int {
			name := api.Name(lua.CheckString(l, 1))
			config, upstream, err := declareArgs(l)
			if err != nil {
				lua.Errorf(l, "%s: %s", name, err.Error())
			}
			b.Add(kind, name, config, upstream...)
			return 0
		})
	}

	l.Register(luaOverrideName, func(l *lua.State) int {
		name := api.Name(lua.CheckString(l, 1))
		param := api.Name(lua.CheckString(l, 2))
		value := lua.CheckNumber(l, 3)
		var unit string
		if l.Top() >= 4 {
			unit = lua.CheckString(l, 4)
		}
		b.Override(name, param, api.Quantity{Value: value, Unit: unit})
		return 0
	})
}

// declareArgs reads the optional parameter table and trailing upstream
// names from a kind builtin's stack
func declareArgs(l *lua.State) (api.Config, []api.Name, error) {
	first := 2
	var config api.Config
	if l.Top() >= first && l.IsTable(first) {
		var err error
		if config, err = luaConfig(l, first); err != nil {
			return nil, nil, err
		}
		first++
	}

	var upstream []api.Name
	for i := first; i <= l.Top(); i++ {
		upstream = append(upstream, api.Name(lua.CheckString(l, i)))
	}
	return config, upstream, nil
}

func luaConfig(l *lua.State, index int) (api.Config, error) {
	config := api.Config{}

	l.PushNil()
	for l.Next(index) {
		if !l.IsString(-2) {
			l.Pop(2)
			return nil, fmt.Errorf("%w: non-string parameter name",
				ErrLuaBadParam)
		}
		key, _ := l.ToString(-2)
		q, err := luaQuantity(l, l.Top())
		if err != nil {
			l.Pop(2)
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		config[api.Name(key)] = q
		l.Pop(1)
	}
	return config, nil
}

// luaQuantity accepts a bare number, a {value=n, unit=s} table, or a
// positional {n, s} pair
func luaQuantity(l *lua.State, index int) (api.Quantity, error) {
	if l.IsNumber(index) {
		v, _ := l.ToNumber(index)
		return api.Quantity{Value: v}, nil
	}
	if !l.IsTable(index) {
		return api.Quantity{}, ErrLuaBadParam
	}

	var q api.Quantity
	l.Field(index, "value")
	if l.IsNumber(-1) {
		q.Value, _ = l.ToNumber(-1)
	} else {
		l.RawGetInt(index, 1)
		if !l.IsNumber(-1) {
			l.Pop(2)
			return api.Quantity{}, ErrLuaBadParam
		}
		q.Value, _ = l.ToNumber(-1)
		l.Pop(1)
	}
	l.Pop(1)

	l.Field(index, "unit")
	if l.IsString(-1) {
		q.Unit, _ = l.ToString(-1)
	} else {
		l.RawGetInt(index, 2)
		if l.IsString(-1) {
			q.Unit, _ = l.ToString(-1)
		}
		l.Pop(1)
	}
	l.Pop(1)

	return q, nil
}

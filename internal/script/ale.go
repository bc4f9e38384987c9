package script

import (
	"errors"
	"fmt"

	"github.com/kode4food/ale"
	"github.com/kode4food/ale/core/bootstrap"
	"github.com/kode4food/ale/data"
	"github.com/kode4food/ale/env"
	"github.com/kode4food/ale/eval"

	"github.com/procflow/engine/pkg/api"
	"github.com/procflow/engine/pkg/flowsheet"
)

// AleEnv declares flowsheets from Ale. A script evaluates to a vector
// of equipment objects:
//
//	[{:name "feed" :kind "stream"
//	  :config {:pressure {:value 50 :unit "bara"}}}
//	 {:name "sep" :kind "separator" :upstream ["feed"]}]
type AleEnv struct {
	env *env.Environment
}

var (
	ErrAleEval        = errors.New("script evaluation error")
	ErrAleNotSequence = errors.New("script must evaluate to a sequence")
	ErrAleBadDecl     = errors.New("bad equipment declaration")
)

func NewAleEnv() *AleEnv {
	e := env.NewEnvironment()
	bootstrap.Into(e)
	return &AleEnv{
		env: e,
	}
}

func (e *AleEnv) Declare(source string, b *flowsheet.Builder) error {
	res, err := e.eval(source)
	if err != nil {
		return err
	}

	decls, ok := aleToGo(res).([]any)
	if !ok {
		return fmt.Errorf("%w, got: %T", ErrAleNotSequence, res)
	}
	for _, d := range decls {
		kind, name, config, upstream, err := declFromAny(d)
		if err != nil {
			return err
		}
		b.Add(kind, name, config, upstream...)
	}
	return b.Err()
}

func (e *AleEnv) eval(source string) (res ale.Value, err error) {
	return catchPanic(ErrAleEval,
		func() (ale.Value, error) {
			ns := e.env.GetAnonymous()
			return eval.String(ns, data.String(source))
		},
	)
}

func declFromAny(v any) (
	api.Kind, api.Name, api.Config, []api.Name, error,
) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", "", nil, nil,
			fmt.Errorf("%w, got: %T", ErrAleBadDecl, v)
	}

	name, ok := m["name"].(string)
	if !ok {
		return "", "", nil, nil,
			fmt.Errorf("%w: missing name", ErrAleBadDecl)
	}
	kind, ok := m["kind"].(string)
	if !ok {
		return "", "", nil, nil,
			fmt.Errorf("%w: %s: missing kind", ErrAleBadDecl, name)
	}

	config, err := configFromAny(m["config"])
	if err != nil {
		return "", "", nil, nil,
			fmt.Errorf("%w: %s: %w", ErrAleBadDecl, name, err)
	}
	upstream, err := upstreamFromAny(m["upstream"])
	if err != nil {
		return "", "", nil, nil,
			fmt.Errorf("%w: %s: %w", ErrAleBadDecl, name, err)
	}
	return api.Kind(kind), api.Name(name), config, upstream, nil
}

func configFromAny(v any) (api.Config, error) {
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("config must be an object, got: %T", v)
	}
	config := api.Config{}
	for k, val := range m {
		q, err := quantityFromAny(val)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		config[api.Name(k)] = q
	}
	return config, nil
}

func quantityFromAny(v any) (api.Quantity, error) {
	switch val := v.(type) {
	case int:
		return api.Quantity{Value: float64(val)}, nil
	case float64:
		return api.Quantity{Value: val}, nil
	case map[string]any:
		var q api.Quantity
		switch n := val["value"].(type) {
		case int:
			q.Value = float64(n)
		case float64:
			q.Value = n
		default:
			return api.Quantity{},
				fmt.Errorf("parameter value must be a number, got: %T", n)
		}
		if unit, ok := val["unit"].(string); ok {
			q.Unit = unit
		}
		return q, nil
	default:
		return api.Quantity{},
			fmt.Errorf("parameter value must be a number, got: %T", v)
	}
}

func upstreamFromAny(v any) ([]api.Name, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []api.Name{api.Name(val)}, nil
	case []any:
		names := make([]api.Name, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil,
					fmt.Errorf("upstream must be names, got: %T", item)
			}
			names = append(names, api.Name(s))
		}
		return names, nil
	default:
		return nil, fmt.Errorf("upstream must be names, got: %T", v)
	}
}

func aleToGo(value ale.Value) any {
	switch v := value.(type) {
	case data.Bool:
		return bool(v)
	case data.String:
		return string(v)
	case data.Keyword:
		return string(v)
	case data.Integer:
		return int(v)
	case data.Float:
		return float64(v)
	case data.Vector:
		return aleVectorToGo(v)
	case *data.List:
		return aleListToGo(v)
	case *data.Object:
		return aleObjectToGo(v)
	default:
		if value == data.Null {
			return nil
		}
		return fmt.Sprintf("%v", v)
	}
}

func aleVectorToGo(v data.Vector) []any {
	result := make([]any, len(v))
	for i, item := range v {
		result[i] = aleToGo(item)
	}
	return result
}

func aleListToGo(list *data.List) []any {
	var result []any
	for l := list; !l.IsEmpty(); {
		head, tail, ok := l.Split()
		if !ok {
			break
		}
		result = append(result, aleToGo(head))
		l = tail.(*data.List)
	}
	return result
}

func aleObjectToGo(obj *data.Object) map[string]any {
	result := map[string]any{}
	for _, pair := range obj.Pairs() {
		key := fmt.Sprintf("%v", aleToGo(pair.Car()))
		result[key] = aleToGo(pair.Cdr())
	}
	return result
}

func catchPanic[T any](baseErr error, fn func() (T, error)) (res T, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if e, ok := r.(error); ok {
			err = e
			return
		}
		err = fmt.Errorf("%w: %v", baseErr, r)
	}()
	return fn()
}

// Package pipelinereg turns a named, declarative pipeline definition
// (as loaded by internal/config) into a live stream.Iterator chain, the
// same way the engine package used to turn a PipelineDef's StepDef
// sequence into a runnable job: a small registry of builtin callables
// keyed by name, looked up and wired in declaration order.
package pipelinereg

import (
	"fmt"

	"github.com/example/streamfusion"
)

// Step is one declarative pipeline step: a Map or a Filter applying a
// named builtin callable to a fixed set of numeric arguments.
type Step struct {
	Kind string    `mapstructure:"kind" yaml:"kind"`
	Fn   string    `mapstructure:"fn" yaml:"fn"`
	Args []float64 `mapstructure:"args" yaml:"args"`
}

// Definition is a named, ordered sequence of Steps (spec.md §6.3's
// Map/Filter builders, assembled ahead of time instead of by a caller's
// Go code).
type Definition struct {
	Name  string `mapstructure:"name" yaml:"name"`
	Steps []Step `mapstructure:"steps" yaml:"steps"`
}

// builtin constructs a stream.Callable from a function name and its
// fixed arguments.
type builtin func(args []float64) (stream.Callable, error)

var registry = map[string]builtin{
	"identity": func(args []float64) (stream.Callable, error) {
		return func(x any) (any, error) { return x, nil }, nil
	},
	"add": arithmetic("add", func(x, n float64) float64 { return x + n }),
	"sub": arithmetic("sub", func(x, n float64) float64 { return x - n }),
	"mul": arithmetic("mul", func(x, n float64) float64 { return x * n }),
	"div": func(args []float64) (stream.Callable, error) {
		n, err := arg1(args)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, fmt.Errorf("pipelinereg: div by zero argument")
		}
		return func(x any) (any, error) {
			v, err := toFloat(x)
			if err != nil {
				return nil, err
			}
			return v / n, nil
		}, nil
	},
	"gt":  comparison("gt", func(x, n float64) bool { return x > n }),
	"gte": comparison("gte", func(x, n float64) bool { return x >= n }),
	"lt":  comparison("lt", func(x, n float64) bool { return x < n }),
	"lte": comparison("lte", func(x, n float64) bool { return x <= n }),
	"eq":  comparison("eq", func(x, n float64) bool { return x == n }),
	"even": func(args []float64) (stream.Callable, error) {
		return func(x any) (any, error) {
			v, err := toFloat(x)
			if err != nil {
				return nil, err
			}
			return int64(v)%2 == 0, nil
		}, nil
	},
	"odd": func(args []float64) (stream.Callable, error) {
		return func(x any) (any, error) {
			v, err := toFloat(x)
			if err != nil {
				return nil, err
			}
			return int64(v)%2 != 0, nil
		}, nil
	},
}

func arg1(args []float64) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("pipelinereg: expected exactly one argument, got %d", len(args))
	}
	return args[0], nil
}

func arithmetic(name string, op func(x, n float64) float64) builtin {
	return func(args []float64) (stream.Callable, error) {
		n, err := arg1(args)
		if err != nil {
			return nil, fmt.Errorf("pipelinereg: %s: %w", name, err)
		}
		return func(x any) (any, error) {
			v, err := toFloat(x)
			if err != nil {
				return nil, err
			}
			return op(v, n), nil
		}, nil
	}
}

func comparison(name string, op func(x, n float64) bool) builtin {
	return func(args []float64) (stream.Callable, error) {
		n, err := arg1(args)
		if err != nil {
			return nil, fmt.Errorf("pipelinereg: %s: %w", name, err)
		}
		return func(x any) (any, error) {
			v, err := toFloat(x)
			if err != nil {
				return nil, err
			}
			return op(v, n), nil
		}, nil
	}
}

func toFloat(x any) (float64, error) {
	switch v := x.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("pipelinereg: value %v (%T) is not numeric", x, x)
	}
}

// Lookup resolves a builtin callable by name and argument list.
func Lookup(fn string, args []float64) (stream.Callable, error) {
	ctor, ok := registry[fn]
	if !ok {
		return nil, fmt.Errorf("pipelinereg: unknown builtin %q", fn)
	}
	return ctor(args)
}

// Build wires Definition's steps into a stream.Iterator over source,
// fusing adjacent Map steps exactly as spec.md §4.2 prescribes — the
// registry does not need to know or care that fusion happens, it just
// calls stream.Map/stream.Filter in declaration order.
func Build(def Definition, source any, opts ...stream.Option) (*stream.Iterator, error) {
	if len(def.Steps) == 0 {
		return nil, fmt.Errorf("pipelinereg: pipeline %q has no steps", def.Name)
	}

	var it *stream.Iterator
	var current any = source
	for i, step := range def.Steps {
		callable, err := Lookup(step.Fn, step.Args)
		if err != nil {
			return nil, fmt.Errorf("pipelinereg: pipeline %q step %d: %w", def.Name, i, err)
		}

		switch step.Kind {
		case "map":
			it, err = stream.Map(callable, current, opts...)
		case "filter":
			it, err = stream.Filter(callable, current, opts...)
		default:
			return nil, fmt.Errorf("pipelinereg: pipeline %q step %d: unknown kind %q", def.Name, i, step.Kind)
		}
		if err != nil {
			return nil, err
		}
		current = it
	}
	return it, nil
}

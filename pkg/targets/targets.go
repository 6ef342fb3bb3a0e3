/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: targets.go
Description: Registry of built-in black-box targets. Each target is a Go function over the
host runtime together with the default inputs a search starts from.
*/

package targets

import (
	"fmt"
	"sort"

	"github.com/kleascm/akaylee-mimic/pkg/value"
)

// Target is a named black-box function with starting inputs
type Target struct {
	Name        string
	Description string
	Source      string // Equivalent JavaScript, informational only
	Func        value.Function
	inputs      func() ([]*value.Input, error)
}

// Inputs builds fresh copies of the default inputs
func (t *Target) Inputs() ([]*value.Input, error) {
	ins, err := t.inputs()
	if err != nil {
		return nil, fmt.Errorf("target %s: %w", t.Name, err)
	}
	return ins, nil
}

var registry = make(map[string]*Target)

// Register adds a target; names must be unique
func Register(t *Target) {
	if _, ok := registry[t.Name]; ok {
		panic(fmt.Sprintf("target %q registered twice", t.Name))
	}
	registry[t.Name] = t
}

// Lookup finds a target by name
func Lookup(name string) (*Target, error) {
	t, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown target %q", name)
	}
	return t, nil
}

// All lists the registered targets by name
func All() []*Target {
	out := make([]*Target, 0, len(registry))
	for _, t := range registry {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// literals parses each YAML argument list into an input
func literals(lits ...string) func() ([]*value.Input, error) {
	return func() ([]*value.Input, error) {
		out := make([]*value.Input, len(lits))
		for i, lit := range lits {
			in, err := value.ParseInput(lit)
			if err != nil {
				return nil, err
			}
			out[i] = in
		}
		return out, nil
	}
}

func init() {
	Register(&Target{
		Name:        "array.pop",
		Description: "Removes and returns the last element of an array",
		Source:      "(arr) => arr.pop()",
		Func:        func(rt value.Runtime, args []value.Value) (value.Value, error) { return pop(rt, value.Arg(args, 0)) },
		inputs:      literals(`[["a", "b", "c"]]`),
	})
	Register(&Target{
		Name:        "array.push",
		Description: "Appends an element and returns the new length",
		Source:      "(arr, x) => arr.push(x)",
		Func: func(rt value.Runtime, args []value.Value) (value.Value, error) {
			return push(rt, value.Arg(args, 0), value.Arg(args, 1))
		},
		inputs: literals(`[[1, 2], 3]`),
	})
	Register(&Target{
		Name:        "array.shift",
		Description: "Removes and returns the first element, moving the rest down",
		Source:      "(arr) => arr.shift()",
		Func:        func(rt value.Runtime, args []value.Value) (value.Value, error) { return shift(rt, value.Arg(args, 0)) },
		inputs:      literals(`[["a", "b", "c"]]`),
	})
	Register(&Target{
		Name:        "array.last-or-self",
		Description: "Returns the array itself when the flag is truthy, else its last element",
		Source:      "(arr, i) => i ? arr : arr[arr.length - 1]",
		Func:        lastOrSelf,
		inputs:      literals(`[["a", "b", "c"], 2]`),
	})
	Register(&Target{
		Name:        "array.index",
		Description: "Reads the element at an index",
		Source:      "(arr, i) => arr[i]",
		Func: func(rt value.Runtime, args []value.Value) (value.Value, error) {
			return rt.Get(value.Arg(args, 0), value.Arg(args, 1))
		},
		inputs: literals(`[[10, 20, 30], 1]`),
	})
	Register(&Target{
		Name:        "array.every",
		Description: "Reports whether every element is truthy",
		Source:      "(arr) => arr.every(x => x)",
		Func: func(rt value.Runtime, args []value.Value) (value.Value, error) {
			return scan(rt, value.Arg(args, 0), false)
		},
		inputs: literals(`[[true, true, true]]`, `[[true, false, true]]`),
	})
	Register(&Target{
		Name:        "array.some",
		Description: "Reports whether any element is truthy",
		Source:      "(arr) => arr.some(x => x)",
		Func: func(rt value.Runtime, args []value.Value) (value.Value, error) {
			return scan(rt, value.Arg(args, 0), true)
		},
		inputs: literals(`[[false, false, true]]`),
	})
	Register(&Target{
		Name:        "object.swap",
		Description: "Swaps the fields a and b of an object",
		Source:      "(o) => { const t = o.a; o.a = o.b; o.b = t; }",
		Func:        swap,
		inputs:      literals(`[{a: 1, b: 2}]`),
	})
	Register(&Target{
		Name:        "object.delete-field",
		Description: "Deletes the field x of an object",
		Source:      "(o) => delete o.x",
		Func: func(rt value.Runtime, args []value.Value) (value.Value, error) {
			if err := rt.Delete(value.Arg(args, 0), value.String("x")); err != nil {
				return value.Undefined(), err
			}
			return value.Bool(true), nil
		},
		inputs: literals(`[{x: 1, y: 2}]`),
	})
	Register(&Target{
		Name:        "noop",
		Description: "Takes nothing and returns undefined",
		Source:      "() => undefined",
		Func: func(rt value.Runtime, args []value.Value) (value.Value, error) {
			return value.Undefined(), nil
		},
		inputs: literals(`[]`),
	})
	Register(&Target{
		Name:        "throw.empty",
		Description: "Returns the first element, throwing on an empty array",
		Source:      "(arr) => { if (arr.length == 0) throw 'empty'; return arr[0]; }",
		Func:        firstOrThrow,
		inputs:      literals(`[[1, 2]]`),
	})
	Register(&Target{
		Name:        "call.apply",
		Description: "Applies a function argument to a value",
		Source:      "(f, x) => f(x)",
		Func: func(rt value.Runtime, args []value.Value) (value.Value, error) {
			return rt.Call(value.Arg(args, 0), value.Undefined(), []value.Value{value.Arg(args, 1)})
		},
		inputs: applyInputs,
	})
	Register(&Target{
		Name:        "loop.forever",
		Description: "Never returns; exhausts any recording budget",
		Source:      "() => { for (;;) {} }",
		Func: func(rt value.Runtime, args []value.Value) (value.Value, error) {
			for {
				if err := rt.Tick(); err != nil {
					return value.Undefined(), err
				}
			}
		},
		inputs: literals(`[]`),
	})
}

func applyInputs() ([]*value.Input, error) {
	in := value.NewInput()
	double := in.Heap.NewFunction("double", func(rt value.Runtime, this value.Value, args []value.Value) (value.Value, error) {
		x := value.Arg(args, 0)
		return value.Add(x, x), nil
	})
	in.Args = []value.Value{double, value.Int(21)}
	return []*value.Input{in}, nil
}

/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: candidates.go
Description: Candidate expressions for input generation. Collects the prestate addresses a
target reads, evaluates them against an argument vector and writes replacement values into
a cloned vector.
*/

package inputgen

import (
	"sort"
	"strconv"

	"github.com/kleascm/akaylee-mimic/pkg/ir"
	"github.com/kleascm/akaylee-mimic/pkg/value"
)

// Candidates collects the distinct prestate expressions of traces, least specific first
// A read of X.length where X is an array is dropped in favor of X itself, since
// perturbing X already varies its length.
func Candidates(traces []*ir.Trace, probe *value.Input) []ir.Expr {
	seen := make(map[string]bool)
	var out []ir.Expr
	add := func(e ir.Expr) {
		key := ir.ExprString(e)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, e)
	}
	for _, t := range traces {
		for _, e := range t.Prestates {
			if !ir.IsPrestate(e) {
				continue
			}
			if isArrayLength(probe, e) {
				add(ir.Base(e))
				continue
			}
			add(e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return ir.FieldLevel(out[i]) < ir.FieldLevel(out[j])
	})
	return out
}

func isArrayLength(in *value.Input, e ir.Expr) bool {
	f, ok := e.(*ir.Field)
	if !ok {
		return false
	}
	c, ok := f.Name.(*ir.Const)
	if !ok || c.Value.Kind() != value.KindString || c.Value.AsString() != "length" {
		return false
	}
	base, ok := Eval(in, f.Obj)
	return ok && in.Heap.IsArray(base)
}

// Eval evaluates a prestate expression against in
func Eval(in *value.Input, e ir.Expr) (value.Value, bool) {
	switch e := e.(type) {
	case *ir.Argument:
		i, ok := ir.ArgIndex(e)
		if !ok {
			return value.Undefined(), false
		}
		return value.Arg(in.Args, i), true
	case *ir.Field:
		base, ok := Eval(in, e.Obj)
		if !ok {
			return value.Undefined(), false
		}
		key, ok := e.Name.(*ir.Const)
		if !ok {
			return value.Undefined(), false
		}
		obj := in.Heap.Object(base)
		if obj == nil {
			return value.Undefined(), false
		}
		return obj.Get(value.PropertyKey(key.Value)), true
	default:
		return value.Undefined(), false
	}
}

// Update stores v at the address e denotes in in
// Writes past the end of an array or into a non-object fail.
func Update(in *value.Input, e ir.Expr, v value.Value) bool {
	switch e := e.(type) {
	case *ir.Argument:
		i, ok := ir.ArgIndex(e)
		if !ok || i >= len(in.Args) {
			return false
		}
		in.Args[i] = v
		return true
	case *ir.Field:
		base, ok := Eval(in, e.Obj)
		if !ok {
			return false
		}
		key, ok := e.Name.(*ir.Const)
		if !ok {
			return false
		}
		obj := in.Heap.Object(base)
		if obj == nil {
			return false
		}
		k := value.PropertyKey(key.Value)
		if obj.Kind == value.ObjectArray {
			if idx, ok := value.ArrayIndex(k); ok && idx >= obj.Length() {
				return false
			}
		}
		return obj.Set(k, v) == nil
	default:
		return false
	}
}

// alternatives lists the type-appropriate replacements for v, allocating in h
func alternatives(h *value.Heap, v value.Value) []value.Value {
	switch v.Kind() {
	case value.KindNumber:
		return []value.Value{value.Int(0), value.Int(1)}
	case value.KindString:
		return []value.Value{value.String("b"), value.String("def")}
	case value.KindBool:
		return []value.Value{value.Bool(true), value.Bool(false)}
	case value.KindRef:
		obj := h.Object(v)
		if obj == nil || obj.Kind != value.ObjectArray {
			return nil
		}
		out := []value.Value{h.NewArray()}
		if n := obj.Length(); n > 0 {
			elems := make([]value.Value, n-1)
			for i := range elems {
				elems[i] = obj.Get(strconv.Itoa(i))
			}
			out = append(out, h.NewArray(elems...))
		}
		return out
	default:
		return nil
	}
}

/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: builtins.go
Description: Array and object operations behind the built-in targets. Array methods follow
the JavaScript abstract algorithms: a length read, element reads and writes, deletes and a
final length write, all through the host runtime.
*/

package targets

import (
	"github.com/kleascm/akaylee-mimic/pkg/fault"
	"github.com/kleascm/akaylee-mimic/pkg/value"
)

var lengthKey = value.String("length")

func length(rt value.Runtime, o value.Value) (int, error) {
	l, err := rt.Get(o, lengthKey)
	if err != nil {
		return 0, err
	}
	return value.ToLength(l), nil
}

func pop(rt value.Runtime, o value.Value) (value.Value, error) {
	n, err := length(rt, o)
	if err != nil {
		return value.Undefined(), err
	}
	if n == 0 {
		return value.Undefined(), rt.Set(o, lengthKey, value.Int(0))
	}
	idx := value.Int(n - 1)
	elem, err := rt.Get(o, idx)
	if err != nil {
		return value.Undefined(), err
	}
	if err := rt.Delete(o, idx); err != nil {
		return value.Undefined(), err
	}
	if err := rt.Set(o, lengthKey, idx); err != nil {
		return value.Undefined(), err
	}
	return elem, nil
}

func push(rt value.Runtime, o, x value.Value) (value.Value, error) {
	n, err := length(rt, o)
	if err != nil {
		return value.Undefined(), err
	}
	if err := rt.Set(o, value.Int(n), x); err != nil {
		return value.Undefined(), err
	}
	if err := rt.Set(o, lengthKey, value.Int(n+1)); err != nil {
		return value.Undefined(), err
	}
	return value.Int(n + 1), nil
}

func shift(rt value.Runtime, o value.Value) (value.Value, error) {
	n, err := length(rt, o)
	if err != nil {
		return value.Undefined(), err
	}
	if n == 0 {
		return value.Undefined(), rt.Set(o, lengthKey, value.Int(0))
	}
	first, err := rt.Get(o, value.Int(0))
	if err != nil {
		return value.Undefined(), err
	}
	for k := 1; k < n; k++ {
		if err := rt.Tick(); err != nil {
			return value.Undefined(), err
		}
		v, err := rt.Get(o, value.Int(k))
		if err != nil {
			return value.Undefined(), err
		}
		if err := rt.Set(o, value.Int(k-1), v); err != nil {
			return value.Undefined(), err
		}
	}
	if err := rt.Delete(o, value.Int(n-1)); err != nil {
		return value.Undefined(), err
	}
	if err := rt.Set(o, lengthKey, value.Int(n-1)); err != nil {
		return value.Undefined(), err
	}
	return first, nil
}

// scan implements every (want false) and some (want true) with the identity predicate
func scan(rt value.Runtime, o value.Value, want bool) (value.Value, error) {
	n, err := length(rt, o)
	if err != nil {
		return value.Undefined(), err
	}
	for k := 0; k < n; k++ {
		if err := rt.Tick(); err != nil {
			return value.Undefined(), err
		}
		v, err := rt.Get(o, value.Int(k))
		if err != nil {
			return value.Undefined(), err
		}
		if v.Truthy() == want {
			return value.Bool(want), nil
		}
	}
	return value.Bool(!want), nil
}

func lastOrSelf(rt value.Runtime, args []value.Value) (value.Value, error) {
	arr := value.Arg(args, 0)
	if value.Arg(args, 1).Truthy() {
		return arr, nil
	}
	n, err := rt.Get(arr, lengthKey)
	if err != nil {
		return value.Undefined(), err
	}
	return rt.Get(arr, value.Add(n, value.Int(-1)))
}

func swap(rt value.Runtime, args []value.Value) (value.Value, error) {
	o := value.Arg(args, 0)
	a, b := value.String("a"), value.String("b")
	t, err := rt.Get(o, a)
	if err != nil {
		return value.Undefined(), err
	}
	vb, err := rt.Get(o, b)
	if err != nil {
		return value.Undefined(), err
	}
	if err := rt.Set(o, a, vb); err != nil {
		return value.Undefined(), err
	}
	if err := rt.Set(o, b, t); err != nil {
		return value.Undefined(), err
	}
	return value.Undefined(), nil
}

func firstOrThrow(rt value.Runtime, args []value.Value) (value.Value, error) {
	arr := value.Arg(args, 0)
	n, err := rt.Get(arr, lengthKey)
	if err != nil {
		return value.Undefined(), err
	}
	if value.LooseEquals(n, value.Int(0)) {
		return value.Undefined(), &fault.Thrown{Value: value.String("empty")}
	}
	return rt.Get(arr, value.Int(0))
}

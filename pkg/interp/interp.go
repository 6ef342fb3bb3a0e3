/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: interp.go
Description: Tree-walking interpreter for Mimic programs. Turns a Program into a Function with
the same calling convention as a black-box target, so candidates can be recorded exactly like
the function they model. All heap access goes through the Runtime.
*/

package interp

import (
	"github.com/kleascm/akaylee-mimic/pkg/fault"
	"github.com/kleascm/akaylee-mimic/pkg/ir"
	"github.com/kleascm/akaylee-mimic/pkg/value"
)

type control uint8

const (
	ctlNormal control = iota
	ctlReturn
	ctlBreak
)

type frame struct {
	rt   value.Runtime
	args []value.Value
	vars map[string]value.Value
}

// Function returns an invokable for p
// Declared variables are hoisted and start out undefined.
func Function(p *ir.Program) value.Function {
	decls := p.Variables()
	return func(rt value.Runtime, args []value.Value) (value.Value, error) {
		f := &frame{rt: rt, args: args, vars: make(map[string]value.Value, len(decls))}
		for _, d := range decls {
			f.vars[d.Var.Name] = value.Undefined()
		}
		ctl, v, err := f.exec(p.Body)
		if err != nil {
			return value.Undefined(), err
		}
		if ctl == ctlReturn {
			return v, nil
		}
		return value.Undefined(), nil
	}
}

func (f *frame) exec(s ir.Stmt) (control, value.Value, error) {
	undef := value.Undefined()
	switch s := s.(type) {
	case *ir.Seq:
		for _, c := range s.Stmts {
			ctl, v, err := f.exec(c)
			if err != nil || ctl != ctlNormal {
				return ctl, v, err
			}
		}
		return ctlNormal, undef, nil

	case *ir.Assign:
		return ctlNormal, undef, f.assign(s)

	case *ir.Return:
		v, err := f.eval(s.Value)
		return ctlReturn, v, err

	case *ir.Throw:
		v, err := f.eval(s.Value)
		if err != nil {
			return ctlNormal, undef, err
		}
		return ctlNormal, undef, &fault.Thrown{Value: v}

	case *ir.DeleteProp:
		obj, key, err := f.evalPair(s.Obj, s.Name)
		if err != nil {
			return ctlNormal, undef, err
		}
		return ctlNormal, undef, f.rt.Delete(obj, key)

	case *ir.DefineProp:
		obj, key, err := f.evalPair(s.Obj, s.Name)
		if err != nil {
			return ctlNormal, undef, err
		}
		v, err := f.eval(s.Value)
		if err != nil {
			return ctlNormal, undef, err
		}
		return ctlNormal, undef, f.rt.Define(obj, key, v)

	case *ir.If:
		cond, err := f.eval(s.Cond)
		if err != nil {
			return ctlNormal, undef, err
		}
		if cond.Truthy() {
			return f.exec(s.Then)
		}
		return f.exec(s.Else)

	case *ir.For:
		return f.loop(s)

	case *ir.FuncCall:
		return ctlNormal, undef, f.call(s)

	case *ir.Break:
		return ctlBreak, undef, nil

	default:
		panic(fault.Invariantf("unknown statement %T", s))
	}
}

func (f *frame) assign(s *ir.Assign) error {
	if s.RHS == nil {
		return nil
	}
	switch lhs := s.LHS.(type) {
	case *ir.Var:
		v, err := f.eval(s.RHS)
		if err != nil {
			return err
		}
		f.vars[lhs.Name] = v
		return nil
	case *ir.Field:
		obj, key, err := f.evalPair(lhs.Obj, lhs.Name)
		if err != nil {
			return err
		}
		v, err := f.eval(s.RHS)
		if err != nil {
			return err
		}
		return f.rt.Set(obj, key, v)
	default:
		return fault.Invariantf("invalid assignment target %s", ir.ExprString(s.LHS))
	}
}

func (f *frame) loop(s *ir.For) (control, value.Value, error) {
	undef := value.Undefined()
	start, err := f.eval(s.Start)
	if err != nil {
		return ctlNormal, undef, err
	}
	f.vars[s.Var.Name] = start
	for {
		if err := f.rt.Tick(); err != nil {
			return ctlNormal, undef, err
		}
		end, err := f.eval(s.End)
		if err != nil {
			return ctlNormal, undef, err
		}
		if !value.Less(f.vars[s.Var.Name], end) {
			return ctlNormal, undef, nil
		}
		ctl, v, err := f.exec(s.Body)
		if err != nil || ctl == ctlReturn {
			return ctl, v, err
		}
		if ctl == ctlBreak {
			return ctlNormal, undef, nil
		}
		step, err := f.eval(s.Step)
		if err != nil {
			return ctlNormal, undef, err
		}
		f.vars[s.Var.Name] = value.Add(f.vars[s.Var.Name], step)
	}
}

func (f *frame) call(s *ir.FuncCall) error {
	fn, err := f.eval(s.Target)
	if err != nil {
		return err
	}
	this := value.Undefined()
	if s.Receiver != nil {
		if this, err = f.eval(s.Receiver); err != nil {
			return err
		}
	}
	args := make([]value.Value, len(s.Args))
	for i, a := range s.Args {
		if args[i], err = f.eval(a); err != nil {
			return err
		}
	}
	res, err := f.rt.Call(fn, this, args)
	if err != nil {
		return err
	}
	f.vars[s.Result.Name] = res
	return nil
}

func (f *frame) evalPair(a, b ir.Expr) (value.Value, value.Value, error) {
	x, err := f.eval(a)
	if err != nil {
		return x, value.Undefined(), err
	}
	y, err := f.eval(b)
	return x, y, err
}

func (f *frame) eval(e ir.Expr) (value.Value, error) {
	switch e := e.(type) {
	case *ir.Const:
		return e.Value, nil
	case *ir.Var:
		v, ok := f.vars[e.Name]
		if !ok {
			return value.Undefined(), fault.ReferenceErrorf("%s is not defined", e.Name)
		}
		return v, nil
	case *ir.Alloc:
		return f.rt.Alloc(e.Array), nil
	case *ir.Argument:
		idx, err := f.eval(e.Index)
		if err != nil {
			return idx, err
		}
		n := idx.ToNumber()
		i := int(n)
		if float64(i) != n {
			return value.Undefined(), nil
		}
		return value.Arg(f.args, i), nil
	case *ir.Field:
		obj, key, err := f.evalPair(e.Obj, e.Name)
		if err != nil {
			return value.Undefined(), err
		}
		return f.rt.Get(obj, key)
	case *ir.Binary:
		a, b, err := f.evalPair(e.A, e.B)
		if err != nil {
			return value.Undefined(), err
		}
		if e.Op == ir.OpEq {
			return value.Bool(value.LooseEquals(a, b)), nil
		}
		return value.Add(a, b), nil
	case *ir.Unary:
		v, err := f.eval(e.E)
		if err != nil {
			return v, err
		}
		return value.Bool(!v.Truthy()), nil
	default:
		panic(fault.Invariantf("unknown expression %T", e))
	}
}

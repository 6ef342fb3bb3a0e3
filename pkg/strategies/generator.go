/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: generator.go
Description: Random expression generation for program mutation. Draws from argument slots,
the constant pool, variables declared before the mutation site and small compound
expressions, filtered by a requirement on the result and a depth bound.
*/

package strategies

import (
	"math/rand"

	"github.com/kleascm/akaylee-mimic/pkg/ir"
	"github.com/kleascm/akaylee-mimic/pkg/value"
)

// MutationContext carries what the mutator may draw expressions from
type MutationContext struct {
	Constants []*ir.Const // Constant pool gathered while recording
	NArgs     int         // Number of argument slots of the target
	UseAlloc  bool        // The seed builds its result in a fresh object
	MaxDepth  int         // Depth bound for generated expressions
	Rand      *rand.Rand
}

// NewMutationContext creates a context with the default depth bound
func NewMutationContext(constants []*ir.Const, nargs int, useAlloc bool, rng *rand.Rand) *MutationContext {
	return &MutationContext{
		Constants: constants,
		NArgs:     nargs,
		UseAlloc:  useAlloc,
		MaxDepth:  2,
		Rand:      rng,
	}
}

// Requirement restricts generated expressions
// Type flags combine as alternatives; an expression of statically unknown type passes them.
type Requirement uint16

const (
	ReqNumber Requirement = 1 << iota
	ReqBool
	ReqString
	ReqObject  // Must be able to hold a reference
	ReqLHS     // Must be a variable, field or argument
	ReqField   // Usable as a property name
	ReqNoConst // Must not be a literal

	reqTypes = ReqNumber | ReqBool | ReqString
)

const generateRetries = 25

// Satisfies reports whether e meets req within depth
func Satisfies(e ir.Expr, req Requirement, depth int) bool {
	if e == nil || ir.Depth(e) > depth {
		return false
	}
	_, isConst := e.(*ir.Const)
	if req&ReqNoConst != 0 && isConst {
		return false
	}
	if req&ReqLHS != 0 {
		switch e.(type) {
		case *ir.Var, *ir.Field, *ir.Argument:
		default:
			return false
		}
	}

	t := ir.ExprType(e)
	if req&ReqObject != 0 {
		if t != "" && t != "object" {
			return false
		}
		if c, ok := e.(*ir.Const); ok && c.Value.Kind() == value.KindNull {
			return false
		}
	}
	if req&ReqField != 0 && t != "" && t != "number" && t != "string" {
		return false
	}
	if req&reqTypes != 0 && t != "" {
		ok := (req&ReqNumber != 0 && t == "number") ||
			(req&ReqBool != 0 && t == "boolean") ||
			(req&ReqString != 0 && t == "string")
		if !ok {
			return false
		}
	}
	return true
}

// Generator produces expressions valid at one mutation site
type Generator struct {
	ctx  *MutationContext
	vars []*ir.Var
}

// NewGenerator creates a generator for the statement at pre-order index site
// Only variables declared strictly before site are visible.
func NewGenerator(ctx *MutationContext, defs []ir.VarDef, site int) *Generator {
	g := &Generator{ctx: ctx}
	for _, d := range defs {
		if d.DefinedAt < site {
			g.vars = append(g.vars, d.Var)
		}
	}
	return g
}

// Variables lists the variables visible at the site
func (g *Generator) Variables() []*ir.Var {
	return g.vars
}

// Expr generates an expression meeting req, or nil after the retry budget
func (g *Generator) Expr(req Requirement) ir.Expr {
	return g.expr(req, g.ctx.MaxDepth)
}

type option struct {
	weight int
	build  func(depth int) ir.Expr
}

func (g *Generator) expr(req Requirement, depth int) ir.Expr {
	options := g.options(depth)
	total := 0
	for _, o := range options {
		total += o.weight
	}
	if total == 0 {
		return nil
	}
	for i := 0; i < generateRetries; i++ {
		n := g.ctx.Rand.Intn(total)
		for _, o := range options {
			if n < o.weight {
				if e := o.build(depth); Satisfies(e, req, depth) {
					return e
				}
				break
			}
			n -= o.weight
		}
	}
	return nil
}

func (g *Generator) options(depth int) []option {
	rng := g.ctx.Rand
	compound := 0
	if depth > 0 {
		compound = 1
	}
	var opts []option

	if g.ctx.NArgs > 0 {
		opts = append(opts, option{6, func(int) ir.Expr {
			return ir.Arg(rng.Intn(g.ctx.NArgs))
		}})
		opts = append(opts, option{2 * compound, func(d int) ir.Expr {
			idx := g.expr(ReqNumber|ReqNoConst, d-1)
			if idx == nil {
				return nil
			}
			return &ir.Argument{Index: idx}
		}})
	}
	if len(g.ctx.Constants) > 0 {
		opts = append(opts, option{1, func(int) ir.Expr {
			return g.ctx.Constants[rng.Intn(len(g.ctx.Constants))]
		}})
	}
	if len(g.vars) > 0 {
		opts = append(opts, option{4, func(int) ir.Expr {
			return g.vars[rng.Intn(len(g.vars))]
		}})
	}
	if g.ctx.UseAlloc {
		opts = append(opts, option{compound, func(int) ir.Expr {
			return ir.NewField(ir.NewVar(ir.ResultName), ir.NewConst(value.String("length")))
		}})
	}
	opts = append(opts,
		option{2 * compound, func(d int) ir.Expr {
			a := g.expr(ReqNumber, d-1)
			if a == nil {
				return nil
			}
			delta := 1
			if rng.Intn(2) == 0 {
				delta = -1
			}
			return ir.NewBinary(ir.OpAdd, a, ir.NewConst(value.Int(delta)))
		}},
		option{compound, func(d int) ir.Expr {
			if len(g.vars) == 0 {
				return nil
			}
			a, b := g.vars[rng.Intn(len(g.vars))], g.vars[rng.Intn(len(g.vars))]
			return ir.NewBinary(ir.OpAdd, a, b)
		}},
		option{compound, func(d int) ir.Expr {
			a, b := g.expr(0, d-1), g.expr(0, d-1)
			if a == nil || b == nil {
				return nil
			}
			return ir.NewBinary(ir.OpEq, a, b)
		}},
		option{compound, func(d int) ir.Expr {
			a := g.expr(0, d-1)
			if a == nil {
				return nil
			}
			return ir.NewNot(a)
		}},
		option{1, func(int) ir.Expr {
			return ir.NewConst(value.Int(rng.Intn(20) - 10))
		}},
	)
	return opts
}

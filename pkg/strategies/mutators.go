/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: mutators.go
Description: Per-statement mutation strategies for the Mimic synthesis engine. Each strategy
replaces exactly one syntactic slot of one statement kind with a freshly generated expression
and returns nil when it has nothing sensible to change.
*/

package strategies

import (
	"github.com/kleascm/akaylee-mimic/pkg/ir"
)

// StmtMutator mutates one kind of statement
type StmtMutator interface {
	// Mutate returns the replacement for s, or nil if no mutation applies
	Mutate(g *Generator, s ir.Stmt) ir.Stmt
	Name() string
	Description() string
}

// AssignMutator rewrites assignments and declarations
type AssignMutator struct {
	declDropRate float64 // Chance of turning a declaration into a bare one
}

// NewAssignMutator creates a new assignment mutator
func NewAssignMutator() *AssignMutator {
	return &AssignMutator{declDropRate: 0.1}
}

// Mutate changes the value, the field name or the object of an assignment
func (m *AssignMutator) Mutate(g *Generator, s ir.Stmt) ir.Stmt {
	a, ok := s.(*ir.Assign)
	if !ok {
		return nil
	}
	rng := g.ctx.Rand

	if lhs, ok := a.LHS.(*ir.Field); ok {
		switch rng.Intn(3) {
		case 0:
			return withRHS(a, g.Expr(0))
		case 1:
			name := g.Expr(ReqField)
			if name == nil {
				return nil
			}
			return &ir.Assign{LHS: ir.NewField(lhs.Obj, name), RHS: a.RHS, Decl: a.Decl}
		default:
			obj := g.Expr(ReqObject)
			if obj == nil {
				return nil
			}
			return &ir.Assign{LHS: ir.NewField(obj, lhs.Name), RHS: a.RHS, Decl: a.Decl}
		}
	}

	v := a.LHS.(*ir.Var)
	switch a.RHS.(type) {
	case nil:
		return withRHS(a, g.Expr(0))
	case *ir.Alloc:
		return nil
	}
	if v.Name == ir.ResultName {
		return withRHS(a, g.Expr(0))
	}
	switch rhs := a.RHS.(type) {
	case *ir.Var:
		return nil
	case *ir.Field:
		if rng.Intn(2) == 0 {
			name := g.Expr(ReqField)
			if name == nil {
				return nil
			}
			return &ir.Assign{LHS: v, RHS: ir.NewField(rhs.Obj, name), Decl: a.Decl}
		}
		obj := g.Expr(ReqLHS | ReqNoConst)
		if obj == nil {
			return nil
		}
		return &ir.Assign{LHS: v, RHS: ir.NewField(obj, rhs.Name), Decl: a.Decl}
	}
	if a.Decl && rng.Float64() < m.declDropRate {
		return &ir.Assign{LHS: v, Decl: true}
	}
	return withRHS(a, g.Expr(0))
}

func withRHS(a *ir.Assign, rhs ir.Expr) ir.Stmt {
	if rhs == nil {
		return nil
	}
	return &ir.Assign{LHS: a.LHS, RHS: rhs, Decl: a.Decl}
}

// Name returns the name of this mutator
func (m *AssignMutator) Name() string {
	return "AssignMutator"
}

// Description returns a description of this mutator
func (m *AssignMutator) Description() string {
	return "Replaces the value, field name or object of an assignment"
}

// ExitMutator rewrites the value of a return or throw
type ExitMutator struct{}

// NewExitMutator creates a new exit mutator
func NewExitMutator() *ExitMutator {
	return &ExitMutator{}
}

// Mutate replaces the returned or thrown value
func (m *ExitMutator) Mutate(g *Generator, s ir.Stmt) ir.Stmt {
	e := g.Expr(0)
	if e == nil {
		return nil
	}
	switch s.(type) {
	case *ir.Return:
		return &ir.Return{Value: e}
	case *ir.Throw:
		return &ir.Throw{Value: e}
	}
	return nil
}

func (m *ExitMutator) Name() string {
	return "ExitMutator"
}

func (m *ExitMutator) Description() string {
	return "Replaces the value of a return or throw statement"
}

// DeleteMutator rewrites property deletions
type DeleteMutator struct{}

// NewDeleteMutator creates a new delete mutator
func NewDeleteMutator() *DeleteMutator {
	return &DeleteMutator{}
}

// Mutate changes the object or the property name of a deletion
func (m *DeleteMutator) Mutate(g *Generator, s ir.Stmt) ir.Stmt {
	d, ok := s.(*ir.DeleteProp)
	if !ok {
		return nil
	}
	if g.ctx.Rand.Intn(2) == 0 {
		obj := g.Expr(ReqObject)
		if obj == nil {
			return nil
		}
		return &ir.DeleteProp{Obj: obj, Name: d.Name}
	}
	name := g.Expr(ReqField)
	if name == nil {
		return nil
	}
	return &ir.DeleteProp{Obj: d.Obj, Name: name}
}

func (m *DeleteMutator) Name() string {
	return "DeleteMutator"
}

func (m *DeleteMutator) Description() string {
	return "Replaces the object or property name of a delete statement"
}

// DefineMutator rewrites property definitions
type DefineMutator struct{}

// NewDefineMutator creates a new define mutator
func NewDefineMutator() *DefineMutator {
	return &DefineMutator{}
}

// Mutate changes one of object, name and value
func (m *DefineMutator) Mutate(g *Generator, s ir.Stmt) ir.Stmt {
	d, ok := s.(*ir.DefineProp)
	if !ok {
		return nil
	}
	out := *d
	switch g.ctx.Rand.Intn(3) {
	case 0:
		out.Obj = g.Expr(ReqObject)
	case 1:
		out.Name = g.Expr(ReqField)
	default:
		out.Value = g.Expr(0)
	}
	if out.Obj == nil || out.Name == nil || out.Value == nil {
		return nil
	}
	return &out
}

func (m *DefineMutator) Name() string {
	return "DefineMutator"
}

func (m *DefineMutator) Description() string {
	return "Replaces the object, name or value of a property definition"
}

// BranchMutator rewrites the condition of an if statement
type BranchMutator struct{}

// NewBranchMutator creates a new branch mutator
func NewBranchMutator() *BranchMutator {
	return &BranchMutator{}
}

// Mutate replaces the condition, keeping both branches
func (m *BranchMutator) Mutate(g *Generator, s ir.Stmt) ir.Stmt {
	b, ok := s.(*ir.If)
	if !ok {
		return nil
	}
	cond := g.Expr(ReqNumber | ReqBool)
	if cond == nil {
		return nil
	}
	return &ir.If{Cond: cond, Then: b.Then, Else: b.Else}
}

func (m *BranchMutator) Name() string {
	return "BranchMutator"
}

func (m *BranchMutator) Description() string {
	return "Replaces the condition of an if statement"
}

// LoopMutator rewrites the end bound of a loop
type LoopMutator struct{}

// NewLoopMutator creates a new loop mutator
func NewLoopMutator() *LoopMutator {
	return &LoopMutator{}
}

// Mutate replaces the end bound, keeping start, step and body
func (m *LoopMutator) Mutate(g *Generator, s ir.Stmt) ir.Stmt {
	l, ok := s.(*ir.For)
	if !ok {
		return nil
	}
	end := g.Expr(ReqNumber)
	if end == nil {
		return nil
	}
	return &ir.For{Start: l.Start, End: end, Step: l.Step, Body: l.Body, Var: l.Var}
}

func (m *LoopMutator) Name() string {
	return "LoopMutator"
}

func (m *LoopMutator) Description() string {
	return "Replaces the end bound of a for loop"
}

// CallMutator rewrites the arguments of a function call
type CallMutator struct{}

// NewCallMutator creates a new call mutator
func NewCallMutator() *CallMutator {
	return &CallMutator{}
}

// Mutate replaces one argument, or the receiver of a call without arguments
func (m *CallMutator) Mutate(g *Generator, s ir.Stmt) ir.Stmt {
	c, ok := s.(*ir.FuncCall)
	if !ok {
		return nil
	}
	out := *c
	switch {
	case len(c.Args) > 0:
		e := g.Expr(0)
		if e == nil {
			return nil
		}
		out.Args = append([]ir.Expr(nil), c.Args...)
		out.Args[g.ctx.Rand.Intn(len(c.Args))] = e
	case c.Receiver != nil:
		if out.Receiver = g.Expr(ReqObject); out.Receiver == nil {
			return nil
		}
	default:
		return nil
	}
	return &out
}

func (m *CallMutator) Name() string {
	return "CallMutator"
}

func (m *CallMutator) Description() string {
	return "Replaces an argument or the receiver of a call"
}

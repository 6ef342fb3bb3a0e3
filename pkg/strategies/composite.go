/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: composite.go
Description: Composite mutator for the Mimic synthesis engine. Dispatches a randomly chosen
statement to the strategy for its kind and retries until the result is observably different
from the original program.
*/

package strategies

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/kleascm/akaylee-mimic/pkg/fault"
	"github.com/kleascm/akaylee-mimic/pkg/ir"
)

// ErrNoMutation is reported when no statement yields a different program
var ErrNoMutation = errors.New("no valid mutation found")

// CompositeMutator composes the per-statement strategies
type CompositeMutator struct {
	assign  StmtMutator
	exit    StmtMutator
	del     StmtMutator
	define  StmtMutator
	branch  StmtMutator
	loop    StmtMutator
	call    StmtMutator
	retries int // Attempts before giving up

	mutations int64
}

// NewCompositeMutator creates a mutator with the standard strategies
func NewCompositeMutator() *CompositeMutator {
	return &CompositeMutator{
		assign:  NewAssignMutator(),
		exit:    NewExitMutator(),
		del:     NewDeleteMutator(),
		define:  NewDefineMutator(),
		branch:  NewBranchMutator(),
		loop:    NewLoopMutator(),
		call:    NewCallMutator(),
		retries: 25,
	}
}

// For returns the strategy responsible for s, or nil for statements that are never mutated
func (c *CompositeMutator) For(s ir.Stmt) StmtMutator {
	switch s.(type) {
	case *ir.Assign:
		return c.assign
	case *ir.Return, *ir.Throw:
		return c.exit
	case *ir.DeleteProp:
		return c.del
	case *ir.DefineProp:
		return c.define
	case *ir.If:
		return c.branch
	case *ir.For:
		return c.loop
	case *ir.FuncCall:
		return c.call
	default:
		return nil
	}
}

// RandomChange returns a copy of p with one statement slot replaced
// The result is never soft-equal to p. Failing to find such a change within the retry
// budget is an invariant violation wrapping ErrNoMutation.
func (c *CompositeMutator) RandomChange(ctx *MutationContext, p *ir.Program) (*ir.Program, error) {
	stmts := p.Stmts()
	if len(stmts) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrNoMutation, fault.Invariantf("cannot mutate an empty program"))
	}
	defs := p.Variables()
	for i := 0; i < c.retries; i++ {
		site := ctx.Rand.Intn(len(stmts))
		old := stmts[site]
		m := c.For(old)
		if m == nil {
			continue
		}
		news := m.Mutate(NewGenerator(ctx, defs, site), old)
		if news == nil || SoftEquals(old, news) {
			continue
		}
		atomic.AddInt64(&c.mutations, 1)
		return p.Replace(site, news)
	}
	return nil, fmt.Errorf("%w: %w", ErrNoMutation,
		fault.Invariantf("no mutation after %d attempts on\n%s", c.retries, p))
}

// Mutable reports whether p has a statement some strategy can change
func (c *CompositeMutator) Mutable(p *ir.Program) bool {
	for _, s := range p.Stmts() {
		switch s := s.(type) {
		case *ir.Break:
		case *ir.Assign:
			if _, ok := s.LHS.(*ir.Field); ok {
				return true
			}
			switch s.RHS.(type) {
			case *ir.Alloc:
			case *ir.Var:
				if s.LHS.(*ir.Var).Name == ir.ResultName {
					return true
				}
			default:
				return true
			}
		case *ir.FuncCall:
			if len(s.Args) > 0 || s.Receiver != nil {
				return true
			}
		default:
			return true
		}
	}
	return false
}

// Mutations returns how many changes this mutator produced
func (c *CompositeMutator) Mutations() int64 {
	return atomic.LoadInt64(&c.mutations)
}

// Name returns the name of this mutator
func (c *CompositeMutator) Name() string {
	return "CompositeMutator"
}

// Description returns a description of this mutator
func (c *CompositeMutator) Description() string {
	return "Picks a random statement and applies the strategy for its kind"
}

// SoftEquals compares a statement with its mutation, looking only at the mutable slots
// A conditional compares its condition, a loop its end bound; a break is always equal.
func SoftEquals(a, b ir.Stmt) bool {
	switch x := a.(type) {
	case *ir.If:
		y, ok := b.(*ir.If)
		return ok && ir.ExprEqual(x.Cond, y.Cond)
	case *ir.For:
		y, ok := b.(*ir.For)
		return ok && ir.ExprEqual(x.End, y.End)
	case *ir.Break:
		return true
	default:
		return ir.StmtEqual(a, b)
	}
}

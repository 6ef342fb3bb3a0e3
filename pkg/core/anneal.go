/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: anneal.go
Description: The annealing loop at the heart of the search, the cleanup passes that shorten
programs, and the combination of per-category programs into one program.
*/

package core

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/kleascm/akaylee-mimic/pkg/ir"
	"github.com/kleascm/akaylee-mimic/pkg/metric"
	"github.com/kleascm/akaylee-mimic/pkg/strategies"
	"github.com/kleascm/akaylee-mimic/pkg/value"
)

// anneal mutates p for up to iterations steps and returns the best program seen
// Strict improvements are always accepted, anything else with probability
// min(1, exp(-beta * new / old)). The loop stops early at a perfect score, on an empty
// or immutable program, and when ctx is done.
func (e *Engine) anneal(ctx context.Context, phase Phase, p *ir.Program, prob problem, iterations int, opts metric.Options, mctx *strategies.MutationContext) (*ir.Program, PhaseStats, error) {
	start := time.Now()
	stats := PhaseStats{Phase: phase, Inputs: len(prob.inputs)}

	score, err := e.evaluate(p, prob, opts)
	if err != nil {
		return nil, stats, err
	}
	stats.Executions += len(prob.inputs)
	best, bestScore := p, score

	i := 0
	for ; i < iterations; i++ {
		if score == 0 || p.NumStmts() == 0 || ctx.Err() != nil || !e.mutator.Mutable(p) {
			break
		}
		candidate, err := e.mutator.RandomChange(mctx, p)
		if err != nil {
			return nil, stats, err
		}
		s, err := e.evaluate(candidate, prob, opts)
		if err != nil {
			return nil, stats, err
		}
		stats.Executions += len(prob.inputs)
		e.stats.IncrementIterations()

		switch {
		case s < score:
			e.stats.IncrementImprovements()
			for _, r := range e.reporters {
				r.OnImprovement(Improvement{Phase: phase, Iteration: i, From: score, To: s})
			}
		case mctx.Rand.Float64() >= math.Min(1, math.Exp(-e.config.Beta*s/score)):
			continue
		}
		e.stats.IncrementAccepted()
		p, score = candidate, s
		if score < bestScore {
			best, bestScore = p, score
		}
	}

	stats.Iterations = i
	stats.Score = bestScore
	stats.Elapsed = time.Since(start)
	for _, r := range e.reporters {
		r.OnPhaseComplete(stats)
	}
	return best, stats, nil
}

// cleanup shortens p, anneals it under the finalizing metric and shortens again
// Only a random sample of the inputs is used.
func (e *Engine) cleanup(ctx context.Context, p *ir.Program, whole problem, mctx *strategies.MutationContext) (*ir.Program, PhaseStats, error) {
	sample := pickN(whole, e.config.CleanupInputs, mctx.Rand)

	p, n, err := e.shorten(p, sample, mctx.Rand)
	if err != nil {
		return nil, PhaseStats{}, err
	}
	p, stats, err := e.anneal(ctx, PhaseCleanup, p, sample, e.config.CleanupIterations, metric.Options{Finalizing: true}, mctx)
	if err != nil {
		return nil, stats, err
	}
	p, m, err := e.shorten(p, sample, mctx.Rand)
	if err != nil {
		return nil, stats, err
	}
	stats.Executions += (n + m) * len(sample.inputs)
	return p, stats, nil
}

// shorten deletes random statements, keeping every deletion that does not hurt the score
// The last remaining statement is never deleted, so a program that only returns keeps its
// return. It returns the program and the number of evaluations spent.
func (e *Engine) shorten(p *ir.Program, prob problem, rng *rand.Rand) (*ir.Program, int, error) {
	score, err := e.evaluate(p, prob, metric.Options{})
	if err != nil {
		return nil, 0, err
	}
	evals := 1
	for i := 0; i < e.config.ShortenTries; i++ {
		n := p.NumStmts()
		if n <= 1 {
			break
		}
		candidate, err := p.Replace(rng.Intn(n), ir.Empty)
		if err != nil {
			return nil, evals, err
		}
		s, err := e.evaluate(candidate, prob, metric.Options{})
		if err != nil {
			return nil, evals, err
		}
		evals++
		if s <= score {
			p, score = candidate, s
		}
	}
	return p, evals, nil
}

// pickN samples up to n inputs without replacement, keeping their order
func pickN(prob problem, n int, rng *rand.Rand) problem {
	if len(prob.inputs) <= n {
		return prob
	}
	idx := rng.Perm(len(prob.inputs))[:n]
	sort.Ints(idx)
	out := problem{
		inputs: make([]*value.Input, n),
		traces: make([]*ir.Trace, n),
	}
	for i, j := range idx {
		out.inputs[i], out.traces[i] = prob.inputs[j], prob.traces[j]
	}
	return out
}

// Combine merges two programs into if (true) {a} else {b}
// Leading declarations that read the same field in both programs, up to renaming of the
// declared variables, are hoisted in front of the conditional; a variable of b that was
// unified under a different name is re-declared as an alias at the top of the else branch.
func Combine(a, b *ir.Program) *ir.Program {
	sa, sb := topLevel(a.Body), topLevel(b.Body)
	rename := make(map[string]string)

	k := 0
	for ; k < len(sa) && k < len(sb); k++ {
		x, xf, ok := fieldDecl(sa[k])
		if !ok {
			break
		}
		y, yf, ok := fieldDecl(sb[k])
		if !ok || !ir.ExprEqual(xf, renameExpr(yf, rename)) {
			break
		}
		rename[y.Name] = x.Name
	}

	var els []ir.Stmt
	names := make([]string, 0, len(rename))
	for from := range rename {
		names = append(names, from)
	}
	sort.Strings(names)
	for _, from := range names {
		if to := rename[from]; to != from {
			els = append(els, &ir.Assign{LHS: ir.NewVar(from), RHS: ir.NewVar(to), Decl: true})
		}
	}
	els = append(els, sb[k:]...)

	cond := &ir.If{
		Cond: ir.NewConst(value.Bool(true)),
		Then: ir.NewSeq(sa[k:]...),
		Else: ir.NewSeq(els...),
	}
	body := append(append([]ir.Stmt(nil), sa[:k]...), cond)
	return ir.NewProgram(ir.NewSeq(body...))
}

func topLevel(s ir.Stmt) []ir.Stmt {
	if seq, ok := s.(*ir.Seq); ok {
		return seq.Stmts
	}
	return []ir.Stmt{s}
}

// fieldDecl matches var x = o[f]
func fieldDecl(s ir.Stmt) (*ir.Var, *ir.Field, bool) {
	a, ok := s.(*ir.Assign)
	if !ok || !a.Decl || a.RHS == nil {
		return nil, nil, false
	}
	v, ok := a.LHS.(*ir.Var)
	if !ok {
		return nil, nil, false
	}
	f, ok := a.RHS.(*ir.Field)
	if !ok {
		return nil, nil, false
	}
	return v, f, true
}

func renameExpr(e ir.Expr, rename map[string]string) ir.Expr {
	switch e := e.(type) {
	case *ir.Var:
		if to, ok := rename[e.Name]; ok {
			return ir.NewVar(to)
		}
		return e
	case *ir.Field:
		return ir.NewField(renameExpr(e.Obj, rename), renameExpr(e.Name, rename))
	case *ir.Argument:
		return &ir.Argument{Index: renameExpr(e.Index, rename)}
	case *ir.Binary:
		return ir.NewBinary(e.Op, renameExpr(e.A, rename), renameExpr(e.B, rename))
	case *ir.Unary:
		return &ir.Unary{Op: e.Op, E: renameExpr(e.E, rename)}
	default:
		return e
	}
}

/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: trace.go
Description: Seeds the search by compiling a recorded trace into a straight-line program, or
into a loop skeleton when structure inference supplied a proposal.
*/

package compile

import (
	"sort"

	"github.com/kleascm/akaylee-mimic/pkg/fault"
	"github.com/kleascm/akaylee-mimic/pkg/inference"
	"github.com/kleascm/akaylee-mimic/pkg/ir"
	"github.com/kleascm/akaylee-mimic/pkg/value"
)

// LoopVar names the counter of a compiled loop
const LoopVar = "i"

// UsesAlloc reports whether compiled programs of t build their result in a fresh object
func UsesAlloc(t *ir.Trace) bool {
	v := t.Outcome.Value
	return t.Outcome.Kind == ir.NormalReturn && v != nil && v.Kind == ir.TraceAlloc
}

// CompileTrace builds a program replaying t
// With a loop proposal the events come from the proposal's source trace and the loop
// region is folded into a zero-iteration For whose bound the search must discover.
func CompileTrace(t *ir.Trace, loop *inference.Proposal) (*ir.Program, error) {
	alloc := UsesAlloc(t)
	if loop == nil && !alloc {
		stmts := eventStmts(t.Events, true)
		if end := outcomeStmt(t.Outcome); end != nil {
			stmts = append(stmts, end)
		}
		return ir.NewProgram(ir.NewSeq(stmts...)), nil
	}

	result := ir.NewVar(ir.ResultName)
	init := &ir.Assign{LHS: result, Decl: true}
	if alloc {
		init.RHS = &ir.Alloc{Array: t.Outcome.Value.Array}
	}
	stmts := []ir.Stmt{init}

	events := t.Events
	if loop != nil {
		events = loop.Source.Events
		if loop.Start+loop.Length > len(events) {
			return nil, fault.Invariantf("loop region [%d, %d) outside %d events", loop.Start, loop.Start+loop.Length, len(events))
		}
		stmts = append(stmts, eventStmts(events[:loop.Start], true)...)
		stmts = append(stmts, loopStmts(events, loop, alloc)...)
		stmts = append(stmts, eventStmts(events[loop.Start+loop.Length:], true)...)
	} else {
		stmts = append(stmts, eventStmts(events, true)...)
	}

	switch t.Outcome.Kind {
	case ir.NormalReturn:
		if alloc {
			stmts = append(stmts, snapshotStmts(result, t.Outcome.Value)...)
		} else {
			stmts = append(stmts, &ir.Assign{LHS: result, RHS: t.Outcome.Value.Expr()})
		}
		stmts = append(stmts, &ir.Return{Value: result})
	case ir.ExceptionReturn:
		stmts = append(stmts, &ir.Throw{Value: t.Outcome.Value.Expr()})
	}
	return ir.NewProgram(ir.NewSeq(stmts...)), nil
}

func outcomeStmt(o ir.Outcome) ir.Stmt {
	switch o.Kind {
	case ir.NormalReturn:
		return &ir.Return{Value: o.Value.Expr()}
	case ir.ExceptionReturn:
		return &ir.Throw{Value: o.Value.Expr()}
	default:
		return nil
	}
}

func eventStmts(events []*ir.Event, decl bool) []ir.Stmt {
	out := make([]ir.Stmt, 0, len(events))
	for _, ev := range events {
		out = append(out, eventStmt(ev, decl))
	}
	return out
}

func eventStmt(ev *ir.Event, decl bool) ir.Stmt {
	switch ev.Kind {
	case ir.EventGet:
		return &ir.Assign{LHS: ev.Variable, RHS: ir.NewField(ev.Target.Expr(), ev.Name.Expr()), Decl: decl}
	case ir.EventSet:
		return &ir.Assign{LHS: ir.NewField(ev.Target.Expr(), ev.Name.Expr()), RHS: ev.Value.Expr()}
	case ir.EventDelete:
		return &ir.DeleteProp{Obj: ev.Target.Expr(), Name: ev.Name.Expr()}
	case ir.EventApply:
		call := &ir.FuncCall{Result: ev.Variable, Target: ev.Target.Expr(), Decl: decl}
		if ev.Receiver != nil {
			call.Receiver = ev.Receiver.Expr()
		}
		for _, a := range ev.Args {
			call.Args = append(call.Args, a.Expr())
		}
		return call
	default:
		panic(fault.Invariantf("unknown event kind %d", ev.Kind))
	}
}

// loopStmts hoists the loop's declarations and builds the loop itself
func loopStmts(events []*ir.Event, p *inference.Proposal, alloc bool) []ir.Stmt {
	region := events[p.Start : p.Start+p.Length]
	var out []ir.Stmt
	for _, ev := range region {
		if ev.Variable != nil {
			out = append(out, &ir.Assign{LHS: ev.Variable, Decl: true})
		}
	}

	body := eventStmts(events[p.Start:p.Start+p.Prefix], false)
	then := block(eventStmts(events[p.ThenPos:p.ThenPos+p.ThenLen], false), alloc)
	if p.HasConditional() {
		els := block(eventStmts(events[p.ElsePos:p.ElsePos+p.ElseLen], false), alloc)
		body = append(body, &ir.If{Cond: ir.NewConst(value.Bool(true)), Then: ir.NewSeq(then...), Else: ir.NewSeq(els...)})
	} else {
		body = append(body, then...)
	}

	zero := ir.NewConst(value.Int(0))
	return append(out, &ir.For{
		Start: zero,
		End:   zero,
		Step:  ir.NewConst(value.Int(1)),
		Body:  ir.NewSeq(body...),
		Var:   ir.NewVar(LoopVar),
	})
}

// block appends the result update and the guarded early exit every iteration carries
func block(stmts []ir.Stmt, alloc bool) []ir.Stmt {
	stmts = append(stmts, resultUpdate(alloc))
	exit := ir.NewSeq(resultUpdate(alloc), &ir.Break{})
	return append(stmts, &ir.If{Cond: ir.NewConst(value.Bool(false)), Then: exit, Else: ir.NewSeq()})
}

func resultUpdate(alloc bool) ir.Stmt {
	result := ir.NewVar(ir.ResultName)
	if !alloc {
		return &ir.Assign{LHS: result, RHS: result}
	}
	zero := ir.NewConst(value.Int(0))
	store := &ir.Assign{LHS: ir.NewField(result, zero), RHS: zero}
	return &ir.If{Cond: ir.NewConst(value.Bool(false)), Then: ir.NewSeq(store), Else: ir.NewSeq()}
}

// snapshotStmts fills the result object with the primitive fields observed at return
func snapshotStmts(result *ir.Var, alloc *ir.TraceExpr) []ir.Stmt {
	keys := make([]string, 0, len(alloc.Snapshot))
	for k := range alloc.Snapshot {
		if alloc.Array && k == "length" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, aok := value.ArrayIndex(keys[i])
		b, bok := value.ArrayIndex(keys[j])
		if aok && bok {
			return a < b
		}
		if aok != bok {
			return aok
		}
		return keys[i] < keys[j]
	})

	var out []ir.Stmt
	for _, k := range keys {
		rhs := literal(alloc.Snapshot[k])
		if rhs == nil {
			continue
		}
		var name ir.Expr = ir.NewConst(value.String(k))
		if idx, ok := value.ArrayIndex(k); ok && alloc.Array {
			name = ir.NewConst(value.Int(idx))
		}
		out = append(out, &ir.Assign{LHS: ir.NewField(result, name), RHS: rhs})
	}
	return out
}

// literal parses a rendered snapshot primitive back into a constant
func literal(text string) ir.Expr {
	p, err := ir.Parse("return " + text)
	if err != nil {
		return nil
	}
	stmts := p.Stmts()
	if len(stmts) != 1 {
		return nil
	}
	ret, ok := stmts[0].(*ir.Return)
	if !ok {
		return nil
	}
	if _, ok := ret.Value.(*ir.Const); !ok {
		return nil
	}
	return ret.Value
}

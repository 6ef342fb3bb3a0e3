/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: trace.go
Description: Recorded traces for the Mimic synthesis engine: events observed at the call
boundary, the aliasing-aware TraceExpr operands, terminal outcomes and skeleton extraction.
*/

package ir

import (
	"sort"
	"strings"

	"github.com/kleascm/akaylee-mimic/pkg/fault"
)

// TraceExprKind distinguishes the TraceExpr variants
type TraceExprKind uint8

const (
	TraceGeneral TraceExprKind = iota
	TraceConstant
	TraceAlloc
)

// TraceExpr is a runtime value as observed during recording
// PreState expressions are valid against the original arguments, CurState expressions at
// the point of the event. An allocation carries a shallow snapshot instead.
type TraceExpr struct {
	Kind     TraceExprKind
	PreState []Expr
	CurState []Expr
	Snapshot map[string]string // TraceAlloc: field name to rendered primitive
	Array    bool              // TraceAlloc: whether the object is an array
}

// NewTraceExpr builds a general TraceExpr
// Mixing a constant with aliases is an invariant violation.
func NewTraceExpr(pre, cur []Expr) *TraceExpr {
	if len(pre) == 0 || len(cur) == 0 {
		panic(fault.Invariantf("trace expression needs non-empty pre and cur state"))
	}
	for _, list := range [][]Expr{pre, cur} {
		for _, e := range list {
			if _, ok := e.(*Const); ok {
				panic(fault.Invariantf("trace expression mixes a constant with aliases"))
			}
		}
	}
	return &TraceExpr{
		Kind:     TraceGeneral,
		PreState: append([]Expr(nil), pre...),
		CurState: append([]Expr(nil), cur...),
	}
}

// NewTraceConst builds a TraceExpr for a primitive
func NewTraceConst(c *Const) *TraceExpr {
	return &TraceExpr{Kind: TraceConstant, PreState: []Expr{c}, CurState: []Expr{c}}
}

// NewTraceAlloc builds a TraceExpr for an object first seen in this event
func NewTraceAlloc(array bool, snapshot map[string]string) *TraceExpr {
	return &TraceExpr{Kind: TraceAlloc, Array: array, Snapshot: snapshot}
}

// Const returns the constant of a TraceConstant
func (t *TraceExpr) Const() *Const {
	return t.CurState[0].(*Const)
}

// Expr returns the expression compiled code should use for this value
func (t *TraceExpr) Expr() Expr {
	if t.Kind == TraceAlloc {
		return &Alloc{Array: t.Array}
	}
	return t.CurState[len(t.CurState)-1]
}

// PreStrings returns the printed prestate expressions
func (t *TraceExpr) PreStrings() []string {
	out := make([]string, len(t.PreState))
	for i, e := range t.PreState {
		out[i] = ExprString(e)
	}
	return out
}

func (t *TraceExpr) String() string {
	if t == nil {
		return "global"
	}
	switch t.Kind {
	case TraceConstant:
		return ExprString(t.Const())
	case TraceAlloc:
		keys := make([]string, 0, len(t.Snapshot))
		for k := range t.Snapshot {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + t.Snapshot[k]
		}
		if t.Array {
			return "new[" + strings.Join(parts, ", ") + "]"
		}
		return "new{" + strings.Join(parts, ", ") + "}"
	default:
		return ExprString(t.Expr()) + " (" + strings.Join(t.PreStrings(), " | ") + ")"
	}
}

// EventKind tags an intercepted operation
type EventKind uint8

const (
	EventGet EventKind = iota
	EventSet
	EventApply
	EventDelete
)

// EventKinds lists every kind in metric order
var EventKinds = []EventKind{EventGet, EventSet, EventApply, EventDelete}

// Tag is the one-character skeleton token
func (k EventKind) Tag() byte {
	return "gsad"[k]
}

func (k EventKind) String() string {
	return [...]string{"get", "set", "apply", "delete"}[k]
}

// Event is one intercepted operation
type Event struct {
	Kind     EventKind
	Target   *TraceExpr
	Name     *TraceExpr   // Get, Set, Delete
	Value    *TraceExpr   // Set
	Receiver *TraceExpr   // Apply, nil for an undefined receiver
	Args     []*TraceExpr // Apply
	Variable *Var         // Get, Apply: binds the result
}

// Operands lists the operands compared by the metric
// The receiver slot of an apply is always present and may be nil.
func (e *Event) Operands() []*TraceExpr {
	switch e.Kind {
	case EventGet, EventDelete:
		return []*TraceExpr{e.Target, e.Name}
	case EventSet:
		return []*TraceExpr{e.Target, e.Name, e.Value}
	default:
		return append([]*TraceExpr{e.Target, e.Receiver}, e.Args...)
	}
}

func (e *Event) String() string {
	switch e.Kind {
	case EventGet:
		return e.Variable.Name + " = get " + e.Target.String() + " [" + e.Name.String() + "]"
	case EventSet:
		return "set " + e.Target.String() + " [" + e.Name.String() + "] = " + e.Value.String()
	case EventDelete:
		return "delete " + e.Target.String() + " [" + e.Name.String() + "]"
	default:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = a.String()
		}
		return e.Variable.Name + " = apply " + e.Target.String() + " this=" + e.Receiver.String() +
			" (" + strings.Join(args, ", ") + ")"
	}
}

// OutcomeKind classifies how a recorded call ended
type OutcomeKind uint8

const (
	NormalReturn OutcomeKind = iota
	ExceptionReturn
	BudgetExhausted
)

func (k OutcomeKind) String() string {
	return [...]string{"return", "throw", "exhausted"}[k]
}

// Outcome is the terminal state of a trace
type Outcome struct {
	Kind  OutcomeKind
	Value *TraceExpr // nil for BudgetExhausted
}

// Trace is the record of one call of a function
type Trace struct {
	Events    []*Event
	Outcome   Outcome
	Prestates []Expr
	Constants []*Const
}

// Skeleton maps every event to its tag
func (t *Trace) Skeleton() string {
	b := make([]byte, len(t.Events))
	for i, e := range t.Events {
		b[i] = e.Kind.Tag()
	}
	return string(b)
}

// EventsOf returns the events of one kind in order
func (t *Trace) EventsOf(kind EventKind) []*Event {
	var out []*Event
	for _, e := range t.Events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Exhausted reports whether the recording ran out of budget
func (t *Trace) Exhausted() bool {
	return t.Outcome.Kind == BudgetExhausted
}

func (t *Trace) String() string {
	var b strings.Builder
	for _, e := range t.Events {
		b.WriteString(e.String())
		b.WriteString("\n")
	}
	b.WriteString(t.Outcome.Kind.String())
	if t.Outcome.Value != nil {
		b.WriteString(" " + t.Outcome.Value.String())
	}
	return b.String()
}

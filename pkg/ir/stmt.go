/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: stmt.go
Description: Statement nodes of the Mimic intermediate representation together with the
structural operations the mutator and search rely on: pre-order statement indexing,
copy-on-write replacement and variable discovery.
*/

package ir

import (
	"github.com/kleascm/akaylee-mimic/pkg/fault"
)

// Stmt is an IR statement. Nodes are immutable once built.
type Stmt interface {
	stmtNode()
}

// Assign stores RHS into LHS; RHS is nil for a bare declaration
type Assign struct {
	LHS  Expr
	RHS  Expr
	Decl bool
}

// Return ends the function with a value
type Return struct {
	Value Expr
}

// Throw ends the function with an exception
type Throw struct {
	Value Expr
}

// DeleteProp removes Obj[Name]
type DeleteProp struct {
	Obj  Expr
	Name Expr
}

// DefineProp defines Obj[Name] as Value
type DefineProp struct {
	Obj   Expr
	Name  Expr
	Value Expr
}

// If branches on Cond
type If struct {
	Cond Expr
	Then Stmt
	Else Stmt
}

// For runs Body for Var from Start while Var < End, stepping by Step
type For struct {
	Start Expr
	End   Expr
	Step  Expr
	Body  Stmt
	Var   *Var
}

// Seq runs its statements in order
type Seq struct {
	Stmts []Stmt
}

// FuncCall stores Target.apply(Receiver, Args) into Result
// A nil Receiver calls with an undefined this.
type FuncCall struct {
	Result   *Var
	Target   Expr
	Args     []Expr
	Receiver Expr
	Decl     bool
}

// Break leaves the innermost loop
type Break struct{}

func (*Assign) stmtNode()     {}
func (*Return) stmtNode()     {}
func (*Throw) stmtNode()      {}
func (*DeleteProp) stmtNode() {}
func (*DefineProp) stmtNode() {}
func (*If) stmtNode()         {}
func (*For) stmtNode()        {}
func (*Seq) stmtNode()        {}
func (*FuncCall) stmtNode()   {}
func (*Break) stmtNode()      {}

// Empty is the marker passed to Replace to delete a statement
var Empty = &Seq{}

// NewSeq builds a sequence
func NewSeq(stmts ...Stmt) *Seq {
	return &Seq{Stmts: stmts}
}

// AllStmts lists statements in pre-order; sequences are transparent
func AllStmts(s Stmt) []Stmt {
	var out []Stmt
	collect(s, &out)
	return out
}

func collect(s Stmt, out *[]Stmt) {
	switch s := s.(type) {
	case *Seq:
		for _, c := range s.Stmts {
			collect(c, out)
		}
	case *If:
		*out = append(*out, s)
		collect(s.Then, out)
		collect(s.Else, out)
	case *For:
		*out = append(*out, s)
		collect(s.Body, out)
	default:
		*out = append(*out, s)
	}
}

// NumStmts counts the statements addressable by Replace
func NumStmts(s Stmt) int {
	switch s := s.(type) {
	case *Seq:
		n := 0
		for _, c := range s.Stmts {
			n += NumStmts(c)
		}
		return n
	case *If:
		return 1 + NumStmts(s.Then) + NumStmts(s.Else)
	case *For:
		return 1 + NumStmts(s.Body)
	default:
		return 1
	}
}

// Replace returns a copy of s with the statement at pre-order index i replaced by news
// Passing Empty deletes the statement. Untouched subtrees are shared.
func Replace(s Stmt, i int, news Stmt) (Stmt, error) {
	if i < 0 || i >= NumStmts(s) {
		return nil, fault.Invariantf("replacement index %d out of range [0, %d)", i, NumStmts(s))
	}
	return replace(s, i, news), nil
}

func replace(s Stmt, i int, news Stmt) Stmt {
	switch s := s.(type) {
	case *Seq:
		stmts := make([]Stmt, 0, len(s.Stmts))
		for _, c := range s.Stmts {
			n := NumStmts(c)
			if i >= 0 && i < n {
				r := replace(c, i, news)
				if r != Stmt(Empty) {
					stmts = append(stmts, r)
				}
			} else {
				stmts = append(stmts, c)
			}
			i -= n
		}
		return &Seq{Stmts: stmts}
	case *If:
		if i == 0 {
			return news
		}
		i--
		if n := NumStmts(s.Then); i < n {
			return &If{Cond: s.Cond, Then: orEmpty(replace(s.Then, i, news)), Else: s.Else}
		} else {
			return &If{Cond: s.Cond, Then: s.Then, Else: orEmpty(replace(s.Else, i-n, news))}
		}
	case *For:
		if i == 0 {
			return news
		}
		return &For{Start: s.Start, End: s.End, Step: s.Step, Body: orEmpty(replace(s.Body, i-1, news)), Var: s.Var}
	default:
		return news
	}
}

// orEmpty turns the deletion marker into a fresh empty block
func orEmpty(s Stmt) Stmt {
	if s == Stmt(Empty) {
		return &Seq{}
	}
	return s
}

// VarDef records where a variable is declared
type VarDef struct {
	Var       *Var
	DefinedAt int
}

// Variables lists declared variables with their pre-order declaration index
func Variables(s Stmt) []VarDef {
	var defs []VarDef
	for i, st := range AllStmts(s) {
		switch st := st.(type) {
		case *Assign:
			if v, ok := st.LHS.(*Var); ok && st.Decl {
				defs = append(defs, VarDef{Var: v, DefinedAt: i})
			}
		case *FuncCall:
			if st.Decl {
				defs = append(defs, VarDef{Var: st.Result, DefinedAt: i})
			}
		case *For:
			defs = append(defs, VarDef{Var: st.Var, DefinedAt: i})
		}
	}
	return defs
}

// Size counts every statement and expression node, used to penalize long programs
func Size(s Stmt) int {
	n := 0
	for _, st := range AllStmts(s) {
		n++
		for _, e := range StmtExprs(st) {
			n += exprSize(e)
		}
	}
	return n
}

func exprSize(e Expr) int {
	if e == nil {
		return 0
	}
	n := 1
	for _, c := range ExprChildren(e) {
		n += exprSize(c)
	}
	return n
}

// StmtExprs lists the expressions held directly by a statement
func StmtExprs(s Stmt) []Expr {
	switch s := s.(type) {
	case *Assign:
		if s.RHS == nil {
			return []Expr{s.LHS}
		}
		return []Expr{s.LHS, s.RHS}
	case *Return:
		return []Expr{s.Value}
	case *Throw:
		return []Expr{s.Value}
	case *DeleteProp:
		return []Expr{s.Obj, s.Name}
	case *DefineProp:
		return []Expr{s.Obj, s.Name, s.Value}
	case *If:
		return []Expr{s.Cond}
	case *For:
		return []Expr{s.Var, s.Start, s.End, s.Step}
	case *FuncCall:
		out := []Expr{s.Result, s.Target}
		if s.Receiver != nil {
			out = append(out, s.Receiver)
		}
		return append(out, s.Args...)
	default:
		return nil
	}
}

// StmtEqual compares two statements structurally
func StmtEqual(a, b Stmt) bool {
	switch x := a.(type) {
	case *Assign:
		y, ok := b.(*Assign)
		return ok && x.Decl == y.Decl && ExprEqual(x.LHS, y.LHS) && ExprEqual(x.RHS, y.RHS)
	case *Return:
		y, ok := b.(*Return)
		return ok && ExprEqual(x.Value, y.Value)
	case *Throw:
		y, ok := b.(*Throw)
		return ok && ExprEqual(x.Value, y.Value)
	case *DeleteProp:
		y, ok := b.(*DeleteProp)
		return ok && ExprEqual(x.Obj, y.Obj) && ExprEqual(x.Name, y.Name)
	case *DefineProp:
		y, ok := b.(*DefineProp)
		return ok && ExprEqual(x.Obj, y.Obj) && ExprEqual(x.Name, y.Name) && ExprEqual(x.Value, y.Value)
	case *If:
		y, ok := b.(*If)
		return ok && ExprEqual(x.Cond, y.Cond) && StmtEqual(x.Then, y.Then) && StmtEqual(x.Else, y.Else)
	case *For:
		y, ok := b.(*For)
		return ok && ExprEqual(x.Var, y.Var) && ExprEqual(x.Start, y.Start) && ExprEqual(x.End, y.End) &&
			ExprEqual(x.Step, y.Step) && StmtEqual(x.Body, y.Body)
	case *Seq:
		y, ok := b.(*Seq)
		if !ok || len(x.Stmts) != len(y.Stmts) {
			return false
		}
		for i := range x.Stmts {
			if !StmtEqual(x.Stmts[i], y.Stmts[i]) {
				return false
			}
		}
		return true
	case *FuncCall:
		y, ok := b.(*FuncCall)
		if !ok || x.Decl != y.Decl || len(x.Args) != len(y.Args) {
			return false
		}
		if !ExprEqual(x.Result, y.Result) || !ExprEqual(x.Target, y.Target) || !ExprEqual(x.Receiver, y.Receiver) {
			return false
		}
		for i := range x.Args {
			if !ExprEqual(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case *Break:
		_, ok := b.(*Break)
		return ok
	default:
		panic(fault.Invariantf("unknown statement %T", a))
	}
}

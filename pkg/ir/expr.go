/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: expr.go
Description: Expression nodes of the Mimic intermediate representation. The set of variants
is closed; every concern (equality, typing, depth, printing) is a single exhaustive type
switch in this package.
*/

package ir

import (
	"math"

	"github.com/kleascm/akaylee-mimic/pkg/fault"
	"github.com/kleascm/akaylee-mimic/pkg/value"
)

// Expr is an IR expression. Nodes are immutable once built.
type Expr interface {
	exprNode()
}

// BinaryOp is one of the supported binary operators
type BinaryOp string

const (
	OpAdd BinaryOp = "+"
	OpEq  BinaryOp = "=="
)

// UnaryOp is one of the supported unary operators
type UnaryOp string

const (
	OpNot UnaryOp = "!"
)

// ResultName is the variable compiled programs store their return value in
const ResultName = "result"

// Field reads Obj[Name]
type Field struct {
	Obj  Expr
	Name Expr
}

// Argument reads the argument at Index
type Argument struct {
	Index Expr
}

// Var references a local variable
type Var struct {
	Name string
}

// Const is a primitive literal
type Const struct {
	Value value.Value
}

// Binary applies Op to A and B
type Binary struct {
	Op BinaryOp
	A  Expr
	B  Expr
}

// Unary applies Op to E
type Unary struct {
	Op UnaryOp
	E  Expr
}

// Alloc creates a fresh empty object or array
type Alloc struct {
	Array bool
}

func (*Field) exprNode()    {}
func (*Argument) exprNode() {}
func (*Var) exprNode()      {}
func (*Const) exprNode()    {}
func (*Binary) exprNode()   {}
func (*Unary) exprNode()    {}
func (*Alloc) exprNode()    {}

// NewField builds obj[name]
func NewField(obj, name Expr) *Field {
	return &Field{Obj: obj, Name: name}
}

// Arg builds a reference to argument i
func Arg(i int) *Argument {
	return &Argument{Index: NewConst(value.Int(i))}
}

// NewVar builds a variable reference
func NewVar(name string) *Var {
	return &Var{Name: name}
}

// NewConst builds a literal; references are not literals
func NewConst(v value.Value) *Const {
	if !v.IsPrimitive() {
		panic(fault.Invariantf("constant must be primitive, got %s", v))
	}
	return &Const{Value: v}
}

// NewBinary builds a op b
func NewBinary(op BinaryOp, a, b Expr) *Binary {
	return &Binary{Op: op, A: a, B: b}
}

// NewNot builds !e
func NewNot(e Expr) *Unary {
	return &Unary{Op: OpNot, E: e}
}

// Depth is 0 for leaves and max child depth + 1 otherwise
// An argument slot is as deep as its index expression.
func Depth(e Expr) int {
	switch e := e.(type) {
	case *Const, *Var, *Alloc:
		return 0
	case *Argument:
		return Depth(e.Index)
	case *Field:
		return 1 + max(Depth(e.Obj), Depth(e.Name))
	case *Binary:
		return 1 + max(Depth(e.A), Depth(e.B))
	case *Unary:
		return 1 + Depth(e.E)
	default:
		panic(fault.Invariantf("unknown expression %T", e))
	}
}

// ExprEqual compares two expressions structurally
func ExprEqual(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *Field:
		y, ok := b.(*Field)
		return ok && ExprEqual(x.Obj, y.Obj) && ExprEqual(x.Name, y.Name)
	case *Argument:
		y, ok := b.(*Argument)
		return ok && ExprEqual(x.Index, y.Index)
	case *Var:
		y, ok := b.(*Var)
		return ok && x.Name == y.Name
	case *Const:
		y, ok := b.(*Const)
		return ok && x.Value.SameValue(y.Value)
	case *Binary:
		y, ok := b.(*Binary)
		return ok && x.Op == y.Op && ExprEqual(x.A, y.A) && ExprEqual(x.B, y.B)
	case *Unary:
		y, ok := b.(*Unary)
		return ok && x.Op == y.Op && ExprEqual(x.E, y.E)
	case *Alloc:
		y, ok := b.(*Alloc)
		return ok && x.Array == y.Array
	default:
		panic(fault.Invariantf("unknown expression %T", a))
	}
}

// IsPrestate reports whether e can be evaluated against the original arguments
func IsPrestate(e Expr) bool {
	switch e := e.(type) {
	case *Argument:
		return true
	case *Field:
		return IsPrestate(e.Obj)
	default:
		return false
	}
}

// Base strips one level of field access from a prestate expression
// Arguments are their own base.
func Base(e Expr) Expr {
	if f, ok := e.(*Field); ok {
		return f.Obj
	}
	return e
}

// FieldLevel counts the field accesses above the argument slot
func FieldLevel(e Expr) int {
	n := 0
	for {
		f, ok := e.(*Field)
		if !ok {
			return n
		}
		n++
		e = f.Obj
	}
}

// ExprType is a best-effort static type: number, boolean, string, object, undefined or ""
func ExprType(e Expr) string {
	switch e := e.(type) {
	case *Const:
		return e.Value.TypeOf()
	case *Binary:
		if e.Op == OpEq {
			return "boolean"
		}
		return "number"
	case *Unary:
		return "boolean"
	case *Alloc:
		return "object"
	default:
		return ""
	}
}

// ArgIndex returns the constant index of an argument slot
func ArgIndex(a *Argument) (int, bool) {
	c, ok := a.Index.(*Const)
	if !ok || c.Value.Kind() != value.KindNumber {
		return 0, false
	}
	n := c.Value.AsNumber()
	if n < 0 || n != math.Trunc(n) {
		return 0, false
	}
	return int(n), true
}

// ExprChildren lists the direct sub-expressions
func ExprChildren(e Expr) []Expr {
	switch e := e.(type) {
	case *Field:
		return []Expr{e.Obj, e.Name}
	case *Argument:
		return []Expr{e.Index}
	case *Binary:
		return []Expr{e.A, e.B}
	case *Unary:
		return []Expr{e.E}
	default:
		return nil
	}
}

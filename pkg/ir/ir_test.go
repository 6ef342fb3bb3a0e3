/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: ir_test.go
Description: Tests for the program IR. Covers printing and parsing round trips, statement
replacement and deletion, variable discovery and syntax errors.
*/

package ir

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/kleascm/akaylee-mimic/pkg/fault"
	"github.com/kleascm/akaylee-mimic/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var irOpts = cmp.Options{
	cmp.Comparer(func(a, b value.Value) bool { return a.SameValue(b) }),
	cmpopts.EquateEmpty(),
}

func str(s string) *Const { return NewConst(value.String(s)) }
func num(n int) *Const    { return NewConst(value.Int(n)) }

func sampleProgram() *Program {
	n0, n1, i := NewVar("n0"), NewVar("n1"), NewVar("i")
	return NewProgram(NewSeq(
		&Assign{LHS: NewVar("result"), RHS: &Alloc{Array: true}, Decl: true},
		&Assign{LHS: n0, RHS: NewField(Arg(0), str("length")), Decl: true},
		&Assign{LHS: n1, Decl: true},
		&If{
			Cond: NewBinary(OpEq, n0, num(0)),
			Then: NewSeq(&Throw{Value: str("empty")}),
			Else: NewSeq(
				&Assign{LHS: n1, RHS: NewField(Arg(0), NewBinary(OpAdd, n0, num(-1)))},
				&DeleteProp{Obj: Arg(0), Name: NewBinary(OpAdd, n0, num(-1))},
			),
		},
		&For{
			Start: num(0),
			End:   n0,
			Step:  num(1),
			Var:   i,
			Body: NewSeq(
				&Assign{LHS: NewField(NewVar("result"), i), RHS: NewNot(NewField(Arg(0), i))},
				&If{Cond: NewConst(value.Bool(false)), Then: NewSeq(&Break{}), Else: NewSeq()},
			),
		},
		&FuncCall{Result: NewVar("n2"), Target: Arg(1), Args: []Expr{n1, num(2)}, Decl: true},
		&FuncCall{Result: NewVar("n3"), Target: NewField(Arg(1), str("f")), Receiver: Arg(1), Decl: true},
		&DefineProp{Obj: Arg(0), Name: str("x"), Value: NewConst(value.Undefined())},
		&Assign{LHS: NewField(Arg(0), str("not an ident")), RHS: &Argument{Index: n0}},
		&Return{Value: NewVar("result")},
	))
}

// TestPrintParseRoundTrip tests that printed programs parse back to the same tree
func TestPrintParseRoundTrip(t *testing.T) {
	p := sampleProgram()
	src := p.String()

	parsed, err := Parse(src)
	require.NoError(t, err, src)
	if diff := cmp.Diff(p.Body, parsed.Body, irOpts); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s\nsource:\n%s", diff, src)
	}
	assert.True(t, p.Equal(parsed))
	assert.Equal(t, src, parsed.String())
}

// TestPrintForms tests the textual form of a few expressions
func TestPrintForms(t *testing.T) {
	tests := []struct {
		expr Expr
		want string
	}{
		{NewField(Arg(0), str("length")), "arg0.length"},
		{NewField(Arg(0), num(2)), "arg0[2]"},
		{NewBinary(OpAdd, NewVar("n0"), num(-1)), "n0 - 1"},
		{NewNot(NewBinary(OpEq, NewVar("a"), str("b"))), `!(a == "b")`},
		{&Argument{Index: NewBinary(OpAdd, NewVar("i"), num(1))}, "arguments[i + 1]"},
		{&Alloc{}, "{}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExprString(tt.expr))
	}
}

// TestNumStmtsAndReplace tests pre-order addressing and deletion
func TestNumStmtsAndReplace(t *testing.T) {
	a := &Assign{LHS: NewVar("a"), RHS: num(1), Decl: true}
	b := &Assign{LHS: NewVar("a"), RHS: num(2)}
	d := &Assign{LHS: NewVar("a"), RHS: num(3)}
	e := &Return{Value: NewVar("a")}
	p := NewProgram(NewSeq(a, &If{Cond: NewVar("a"), Then: NewSeq(b), Else: NewSeq(d)}, e))

	require.Equal(t, 5, p.NumStmts())
	stmts := p.Stmts()
	assert.Same(t, a, stmts[0])
	assert.Same(t, b, stmts[2])
	assert.Same(t, e, stmts[4])

	// Deleting inside a branch keeps the conditional
	q, err := p.Replace(2, Empty)
	require.NoError(t, err)
	assert.Equal(t, 4, q.NumStmts())
	assert.IsType(t, &If{}, q.Stmts()[1])

	// Deleting the conditional drops both branches
	q, err = p.Replace(1, Empty)
	require.NoError(t, err)
	assert.Equal(t, 2, q.NumStmts())
	assert.Equal(t, "var a = 1\nreturn a", q.String())

	// Replacement leaves the original untouched
	q, err = p.Replace(4, &Throw{Value: NewVar("a")})
	require.NoError(t, err)
	assert.IsType(t, &Throw{}, q.Stmts()[4])
	assert.IsType(t, &Return{}, p.Stmts()[4])

	_, err = p.Replace(5, Empty)
	require.Error(t, err)
	assert.True(t, fault.IsFatal(err))
}

// TestVariables tests declaration discovery
func TestVariables(t *testing.T) {
	defs := sampleProgram().Variables()
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Var.Name
	}
	assert.Equal(t, []string{"result", "n0", "n1", "i", "n2", "n3"}, names)
	assert.Equal(t, 0, defs[0].DefinedAt)
	assert.Less(t, defs[2].DefinedAt, defs[3].DefinedAt)
}

// TestParseErrors tests that malformed text is rejected
func TestParseErrors(t *testing.T) {
	for _, src := range []string{
		"return 1 +",
		"var = 3",
		"if (true) { return 1",
		"1 = 2",
		"return a - b",
	} {
		_, err := Parse(src)
		var syntax *SyntaxError
		assert.True(t, errors.As(err, &syntax), "expected syntax error for %q, got %v", src, err)
	}
}

// TestSizeCountsNodes tests the size measure
func TestSizeCountsNodes(t *testing.T) {
	p := NewProgram(NewSeq(&Return{Value: NewField(Arg(0), str("length"))}))
	// return + field + argument + index constant + name constant
	assert.Equal(t, 5, p.Size())
	assert.Equal(t, 0, NewProgram(NewSeq()).Size())
}

/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: metric_test.go
Description: Tests for the trace distance metric and program evaluation.
*/

package metric

import (
	"testing"

	"github.com/kleascm/akaylee-mimic/pkg/ir"
	"github.com/kleascm/akaylee-mimic/pkg/recorder"
	"github.com/kleascm/akaylee-mimic/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lengthKey = value.String("length")

func pop(rt value.Runtime, args []value.Value) (value.Value, error) {
	arr := value.Arg(args, 0)
	l, err := rt.Get(arr, lengthKey)
	if err != nil {
		return value.Undefined(), err
	}
	n := value.ToLength(l)
	if n == 0 {
		return value.Undefined(), rt.Set(arr, lengthKey, value.Int(0))
	}
	last := value.Int(n - 1)
	elem, err := rt.Get(arr, last)
	if err != nil {
		return value.Undefined(), err
	}
	if err := rt.Delete(arr, last); err != nil {
		return value.Undefined(), err
	}
	return elem, rt.Set(arr, lengthKey, last)
}

func popInputs(t *testing.T) ([]*value.Input, []*ir.Trace) {
	t.Helper()
	var inputs []*value.Input
	var refs []*ir.Trace
	for _, lit := range []string{`[["a", "b", "c"]]`, `[[1]]`, `[[]]`} {
		in, err := value.ParseInput(lit)
		require.NoError(t, err)
		ref, err := recorder.Record(pop, in, 1000)
		require.NoError(t, err)
		inputs = append(inputs, in)
		refs = append(refs, ref)
	}
	return inputs, refs
}

func mustParse(t *testing.T, src string) *ir.Program {
	t.Helper()
	p, err := ir.Parse(src)
	require.NoError(t, err, src)
	return p
}

// TestBudget tests the candidate event budget
func TestBudget(t *testing.T) {
	assert.Equal(t, 20, Budget(0))
	assert.Equal(t, 30, Budget(10))
	assert.Equal(t, 150, Budget(100))
	assert.Equal(t, 500, Budget(400))
}

// TestTraceDistanceReflexive tests that a trace is at distance zero from itself
func TestTraceDistanceReflexive(t *testing.T) {
	_, refs := popInputs(t)
	for _, ref := range refs {
		d, err := TraceDistance(ref, ref)
		require.NoError(t, err)
		assert.Zero(t, d, ref.String())
	}
}

// TestTraceDistanceWeights tests missing events, outcome kinds and exhaustion
func TestTraceDistanceWeights(t *testing.T) {
	inputs, refs := popInputs(t)

	// A candidate that only returns the right value misses every event
	ret := func(rt value.Runtime, args []value.Value) (value.Value, error) {
		return value.String("c"), nil
	}
	cand, err := recorder.Record(ret, inputs[0], 100)
	require.NoError(t, err)
	d, err := TraceDistance(refs[0], cand)
	require.NoError(t, err)
	assert.InDelta(t, 4*WeightMissing, d, 1e-9)

	throws := func(rt value.Runtime, args []value.Value) (value.Value, error) {
		return pop(rt, []value.Value{value.Undefined()})
	}
	cand, err = recorder.Record(throws, inputs[0], 100)
	require.NoError(t, err)
	d, err = TraceDistance(refs[0], cand)
	require.NoError(t, err)
	assert.InDelta(t, 4*WeightMissing+WeightErrorExit, d, 1e-9)

	exhausted := &ir.Trace{Outcome: ir.Outcome{Kind: ir.BudgetExhausted}}
	d, err = TraceDistance(refs[0], exhausted)
	require.NoError(t, err)
	assert.Equal(t, WeightExhausted, d)

	_, err = TraceDistance(exhausted, refs[0])
	assert.Error(t, err)
}

// TestExprDistance tests constant and alias comparisons
func TestExprDistance(t *testing.T) {
	one := ir.NewTraceConst(ir.NewConst(value.Int(1)))
	other := ir.NewTraceConst(ir.NewConst(value.Int(1)))
	two := ir.NewTraceConst(ir.NewConst(value.Int(2)))
	assert.Zero(t, ExprDistance(one, other))
	assert.Equal(t, Norm, ExprDistance(one, two))
	assert.Zero(t, ExprDistance(nil, nil))
	assert.Equal(t, Norm, ExprDistance(one, nil))

	arg := ir.NewTraceExpr([]ir.Expr{ir.Arg(0)}, []ir.Expr{ir.Arg(0)})
	alias := ir.NewTraceExpr([]ir.Expr{ir.NewVar("n0"), ir.Arg(0)}, []ir.Expr{ir.NewVar("n0")})
	unrelated := ir.NewTraceExpr([]ir.Expr{ir.Arg(1)}, []ir.Expr{ir.Arg(1)})
	assert.Zero(t, ExprDistance(arg, alias))
	assert.Equal(t, Norm, ExprDistance(arg, unrelated))
	assert.Equal(t, Norm, ExprDistance(arg, one))

	a := ir.NewTraceAlloc(true, map[string]string{"0": "1", "1": "2", "length": "2"})
	b := ir.NewTraceAlloc(true, map[string]string{"0": "1", "1": "3", "length": "2"})
	c := ir.NewTraceAlloc(false, map[string]string{"0": "1"})
	assert.Zero(t, ExprDistance(a, a))
	assert.InDelta(t, wrongField*Norm/3, ExprDistance(a, b), 1e-9)
	assert.Equal(t, Norm, ExprDistance(a, c))

	// Stray fields are charged in full, beyond the distance of an unrelated value
	single := ir.NewTraceAlloc(false, map[string]string{"x": "1"})
	stray := ir.NewTraceAlloc(false, map[string]string{"x": "2", "y": "1", "z": "1"})
	assert.InDelta(t, (wrongField+2)*Norm, ExprDistance(single, stray), 1e-9)
	assert.Greater(t, ExprDistance(single, stray), Norm)
}

// TestEvaluate tests that the seed scores zero and worse programs score higher
func TestEvaluate(t *testing.T) {
	inputs, refs := popInputs(t)

	exact := mustParse(t, `var n0 = arg0.length
if (n0 == 0) {
  arg0.length = 0
  return undefined
} else {
  var n1 = arg0[n0 - 1]
  delete arg0[n0 - 1]
  arg0.length = n0 - 1
  return n1
}`)
	s, err := Evaluate(exact, inputs, refs, Options{})
	require.NoError(t, err)
	assert.Zero(t, s)

	partial := mustParse(t, `var n0 = arg0.length
return undefined`)
	worse, err := Evaluate(partial, inputs, refs, Options{})
	require.NoError(t, err)
	assert.Greater(t, worse, s)

	// The finalizing metric charges for size
	fs, err := Evaluate(exact, inputs, refs, Options{Finalizing: true})
	require.NoError(t, err)
	assert.InDelta(t, WeightSize*float64(exact.Size()), fs, 1e-9)

	_, err = Evaluate(exact, inputs, refs[:1], Options{})
	assert.Error(t, err)
}

// TestEvaluateRunawayLoop tests that a non-terminating candidate is cut off by the budget
func TestEvaluateRunawayLoop(t *testing.T) {
	noop := func(rt value.Runtime, args []value.Value) (value.Value, error) {
		return value.Undefined(), nil
	}
	in, err := value.ParseInput(`[]`)
	require.NoError(t, err)
	ref, err := recorder.Record(noop, in, 100)
	require.NoError(t, err)
	inputs, refs := []*value.Input{in}, []*ir.Trace{ref}

	zero, one := ir.NewConst(value.Int(0)), ir.NewConst(value.Int(1))
	forever := ir.NewProgram(ir.NewSeq(
		&ir.For{Start: zero, End: one, Step: zero, Var: ir.NewVar("i"), Body: ir.NewSeq()},
		&ir.Return{Value: ir.NewConst(value.Undefined())},
	))
	s, err := Evaluate(forever, inputs, refs, Options{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, s, WeightExhausted)

	plain := mustParse(t, "return undefined")
	p, err := Evaluate(plain, inputs, refs, Options{})
	require.NoError(t, err)
	assert.Less(t, p, s)
}

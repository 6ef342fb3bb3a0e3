/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: recorder_test.go
Description: Tests for the trace recorder. Covers event order and aliasing, outcomes for
returns, exceptions and budget exhaustion, input isolation and batch recording.
*/

package recorder

import (
	"context"
	"testing"

	"github.com/kleascm/akaylee-mimic/pkg/fault"
	"github.com/kleascm/akaylee-mimic/pkg/ir"
	"github.com/kleascm/akaylee-mimic/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var length = value.String("length")

// pop is arr.pop() written against the runtime
func pop(rt value.Runtime, args []value.Value) (value.Value, error) {
	arr := value.Arg(args, 0)
	l, err := rt.Get(arr, length)
	if err != nil {
		return value.Undefined(), err
	}
	n := value.ToLength(l)
	if n == 0 {
		return value.Undefined(), rt.Set(arr, length, value.Int(0))
	}
	last := value.Int(n - 1)
	elem, err := rt.Get(arr, last)
	if err != nil {
		return value.Undefined(), err
	}
	if err := rt.Delete(arr, last); err != nil {
		return value.Undefined(), err
	}
	return elem, rt.Set(arr, length, last)
}

func mustInput(t *testing.T, literal string) *value.Input {
	t.Helper()
	in, err := value.ParseInput(literal)
	require.NoError(t, err)
	return in
}

// TestRecordPop tests the events and outcome of a pop
func TestRecordPop(t *testing.T) {
	in := mustInput(t, `[["a", "b", "c"]]`)
	trace, err := Record(pop, in, 100)
	require.NoError(t, err)

	assert.Equal(t, "ggds", trace.Skeleton())
	require.Len(t, trace.Events, 4)

	get := trace.Events[1]
	assert.Equal(t, []string{"arg0"}, get.Target.PreStrings())
	assert.Equal(t, "2", ir.ExprString(get.Name.Expr()))
	assert.Equal(t, "n1", get.Variable.Name)

	set := trace.Events[3]
	assert.Equal(t, ir.TraceConstant, set.Value.Kind)
	assert.True(t, set.Value.Const().Value.SameValue(value.Int(2)))

	assert.Equal(t, ir.NormalReturn, trace.Outcome.Kind)
	assert.Equal(t, ir.TraceConstant, trace.Outcome.Value.Kind)
	assert.True(t, trace.Outcome.Value.Const().Value.SameValue(value.String("c")))

	prestates := make([]string, len(trace.Prestates))
	for i, p := range trace.Prestates {
		prestates[i] = ir.ExprString(p)
	}
	assert.Equal(t, []string{"arg0", "arg0.length", "arg0[2]"}, prestates)

	// The recorder works on a clone
	assert.Equal(t, 3, in.Heap.Object(in.Args[0]).Length())
}

// TestRecordAliases tests that objects read from arguments keep their access paths
func TestRecordAliases(t *testing.T) {
	f := func(rt value.Runtime, args []value.Value) (value.Value, error) {
		inner, err := rt.Get(value.Arg(args, 0), value.String("a"))
		if err != nil {
			return value.Undefined(), err
		}
		if err := rt.Set(inner, value.String("b"), value.Int(7)); err != nil {
			return value.Undefined(), err
		}
		return inner, nil
	}
	trace, err := Record(f, mustInput(t, `[{a: {b: 1}}]`), 100)
	require.NoError(t, err)

	require.Len(t, trace.Events, 2)
	set := trace.Events[1]
	assert.Equal(t, []string{"arg0.a"}, set.Target.PreStrings())
	assert.Equal(t, "n0", ir.ExprString(set.Target.Expr()))

	assert.Equal(t, ir.TraceGeneral, trace.Outcome.Value.Kind)
	assert.Equal(t, "n0", ir.ExprString(trace.Outcome.Value.Expr()))
}

// TestRecordAllocSnapshot tests that fresh objects are described by a snapshot
func TestRecordAllocSnapshot(t *testing.T) {
	f := func(rt value.Runtime, args []value.Value) (value.Value, error) {
		out := rt.Alloc(true)
		if err := rt.Set(out, value.Int(0), value.String("x")); err != nil {
			return value.Undefined(), err
		}
		return out, nil
	}
	trace, err := Record(f, mustInput(t, `[]`), 100)
	require.NoError(t, err)

	assert.Empty(t, trace.Events)
	out := trace.Outcome.Value
	require.Equal(t, ir.TraceAlloc, out.Kind)
	assert.True(t, out.Array)
	assert.Equal(t, map[string]string{"0": `"x"`, "length": "1"}, out.Snapshot)
}

// TestRecordException tests thrown values and runtime faults
func TestRecordException(t *testing.T) {
	throws := func(rt value.Runtime, args []value.Value) (value.Value, error) {
		return value.Undefined(), &fault.Thrown{Value: value.String("boom")}
	}
	trace, err := Record(throws, mustInput(t, `[]`), 100)
	require.NoError(t, err)
	assert.Equal(t, ir.ExceptionReturn, trace.Outcome.Kind)
	assert.True(t, trace.Outcome.Value.Const().Value.SameValue(value.String("boom")))

	// Reading a field of undefined is a TypeError, not a failure of the recording
	trace, err = Record(pop, mustInput(t, `[undefined]`), 100)
	require.NoError(t, err)
	assert.Equal(t, ir.ExceptionReturn, trace.Outcome.Kind)

	invariant := func(rt value.Runtime, args []value.Value) (value.Value, error) {
		return value.Undefined(), fault.Invariantf("broken")
	}
	_, err = Record(invariant, mustInput(t, `[]`), 100)
	require.Error(t, err)
	assert.True(t, fault.IsFatal(err))
}

// TestRecordBudget tests that runaway loops and long traces are cut off
func TestRecordBudget(t *testing.T) {
	forever := func(rt value.Runtime, args []value.Value) (value.Value, error) {
		for {
			if err := rt.Tick(); err != nil {
				return value.Undefined(), err
			}
		}
	}
	trace, err := Record(forever, mustInput(t, `[]`), 10)
	require.NoError(t, err)
	assert.True(t, trace.Exhausted())
	assert.Nil(t, trace.Outcome.Value)

	reads := func(rt value.Runtime, args []value.Value) (value.Value, error) {
		for {
			if _, err := rt.Get(value.Arg(args, 0), length); err != nil {
				return value.Undefined(), err
			}
		}
	}
	trace, err = Record(reads, mustInput(t, `[[1]]`), 5)
	require.NoError(t, err)
	assert.True(t, trace.Exhausted())
	assert.LessOrEqual(t, len(trace.Events), 6)
}

// TestRecordCall tests that calls on argument functions are observed
func TestRecordCall(t *testing.T) {
	in := value.NewInput()
	calls := 0
	double := in.Heap.NewFunction("double", func(rt value.Runtime, this value.Value, args []value.Value) (value.Value, error) {
		calls++
		x := value.Arg(args, 0)
		return value.Add(x, x), nil
	})
	in.Args = []value.Value{double, value.Int(21)}

	apply := func(rt value.Runtime, args []value.Value) (value.Value, error) {
		return rt.Call(value.Arg(args, 0), value.Undefined(), []value.Value{value.Arg(args, 1)})
	}
	trace, err := Record(apply, in, 100)
	require.NoError(t, err)

	assert.Equal(t, "a", trace.Skeleton())
	ev := trace.Events[0]
	assert.Nil(t, ev.Receiver)
	require.Len(t, ev.Args, 1)
	assert.True(t, ev.Args[0].Const().Value.SameValue(value.Int(21)))
	assert.True(t, trace.Outcome.Value.Const().Value.SameValue(value.Int(42)))
	assert.Equal(t, 1, calls)
}

// TestRecordAll tests batch recording order
func TestRecordAll(t *testing.T) {
	inputs := []*value.Input{
		mustInput(t, `[[1, 2, 3]]`),
		mustInput(t, `[[]]`),
		mustInput(t, `[[5]]`),
	}
	traces, err := RecordAll(context.Background(), pop, inputs, 100, 2)
	require.NoError(t, err)
	require.Len(t, traces, 3)
	assert.Equal(t, "ggds", traces[0].Skeleton())
	assert.Equal(t, "gs", traces[1].Skeleton())
	assert.True(t, traces[2].Outcome.Value.Const().Value.SameValue(value.Int(5)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = RecordAll(ctx, pop, inputs, 100, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

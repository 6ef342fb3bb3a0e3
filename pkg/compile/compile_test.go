/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: compile_test.go
Description: Tests for program compilation and trace seeding. Re-recording a compiled trace
must reproduce the trace it came from.
*/

package compile_test

import (
	"errors"
	"testing"

	"github.com/kleascm/akaylee-mimic/pkg/compile"
	"github.com/kleascm/akaylee-mimic/pkg/fault"
	"github.com/kleascm/akaylee-mimic/pkg/inference"
	"github.com/kleascm/akaylee-mimic/pkg/ir"
	"github.com/kleascm/akaylee-mimic/pkg/metric"
	"github.com/kleascm/akaylee-mimic/pkg/recorder"
	"github.com/kleascm/akaylee-mimic/pkg/targets"
	"github.com/kleascm/akaylee-mimic/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(t *testing.T, target, literal string) (*value.Input, *ir.Trace) {
	t.Helper()
	tg, err := targets.Lookup(target)
	require.NoError(t, err)
	in, err := value.ParseInput(literal)
	require.NoError(t, err)
	trace, err := recorder.Record(tg.Func, in, 1000)
	require.NoError(t, err)
	return in, trace
}

// TestCompileTraceReplays tests that a straight-line seed reproduces its trace
func TestCompileTraceReplays(t *testing.T) {
	cases := []struct{ target, input string }{
		{"array.pop", `[["a", "b", "c"]]`},
		{"array.push", `[[1, 2], 3]`},
		{"object.swap", `[{a: 1, b: 2}]`},
		{"object.delete-field", `[{x: 1, y: 2}]`},
		{"throw.empty", `[[]]`},
		{"noop", `[]`},
	}
	for _, tc := range cases {
		t.Run(tc.target, func(t *testing.T) {
			in, ref := record(t, tc.target, tc.input)
			p, err := compile.CompileTrace(ref, nil)
			require.NoError(t, err)

			f, err := compile.Compile(p)
			require.NoError(t, err, p.String())
			got, err := recorder.Record(f, in, metric.Budget(len(ref.Events)))
			require.NoError(t, err)

			d, err := metric.TraceDistance(ref, got)
			require.NoError(t, err)
			assert.Zero(t, d, "program:\n%s\nwant %s\ngot  %s", p, ref, got)
		})
	}
}

// TestCompileTraceAlloc tests seeds for targets returning fresh objects
func TestCompileTraceAlloc(t *testing.T) {
	f := func(rt value.Runtime, args []value.Value) (value.Value, error) {
		out := rt.Alloc(false)
		v, err := rt.Get(value.Arg(args, 0), value.String("a"))
		if err != nil {
			return value.Undefined(), err
		}
		return out, rt.Set(out, value.String("copy"), v)
	}
	in, err := value.ParseInput(`[{a: 5}]`)
	require.NoError(t, err)
	ref, err := recorder.Record(f, in, 100)
	require.NoError(t, err)
	require.True(t, compile.UsesAlloc(ref))

	p, err := compile.CompileTrace(ref, nil)
	require.NoError(t, err)
	assert.Equal(t, ir.ResultName, p.Variables()[0].Var.Name)

	g, err := compile.Compile(p)
	require.NoError(t, err)
	got, err := recorder.Record(g, in, 100)
	require.NoError(t, err)
	d, err := metric.TraceDistance(ref, got)
	require.NoError(t, err)
	assert.Zero(t, d, p.String())
}

// TestCompileTraceLoop tests that a loop proposal folds its region into a For
func TestCompileTraceLoop(t *testing.T) {
	in, ref := record(t, "array.shift", `[["a", "b", "c", "d"]]`)
	require.Equal(t, "gggsgsgsds", ref.Skeleton())

	var loop *inference.Proposal
	for _, p := range inference.NewEngine("skeleton").Infer([]*ir.Trace{ref}) {
		if p.Pattern == "gg(gs)*ds" {
			loop = p
		}
	}
	require.NotNil(t, loop)

	p, err := compile.CompileTrace(ref, loop)
	require.NoError(t, err)

	fors := 0
	for _, s := range p.Stmts() {
		if l, ok := s.(*ir.For); ok {
			fors++
			assert.Equal(t, compile.LoopVar, l.Var.Name)
		}
	}
	assert.Equal(t, 1, fors)

	// The loop bound starts at zero so the seed runs without exhausting its budget
	f, err := compile.Compile(p)
	require.NoError(t, err, p.String())
	got, err := recorder.Record(f, in, metric.Budget(len(ref.Events)))
	require.NoError(t, err)
	assert.False(t, got.Exhausted())
	assert.Equal(t, "ggds", got.Skeleton())
}

// TestCompileRejectsUnprintable tests that a program whose text does not parse is a compile error
func TestCompileRejectsUnprintable(t *testing.T) {
	bad := ir.NewProgram(ir.NewSeq(&ir.Assign{LHS: ir.NewConst(value.Int(1)), RHS: ir.NewConst(value.Int(2))}))
	_, err := compile.Compile(bad)
	require.Error(t, err)
	var ce *fault.CompileError
	assert.True(t, errors.As(err, &ce))
	assert.True(t, fault.IsFatal(err))
}

/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: inputgen_test.go
Description: Tests for input generation, categorization and subsampling.
*/

package inputgen

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/kleascm/akaylee-mimic/pkg/inference"
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

func mustInputs(t *testing.T, literals ...string) []*value.Input {
	t.Helper()
	out := make([]*value.Input, len(literals))
	for i, lit := range literals {
		in, err := value.ParseInput(lit)
		require.NoError(t, err)
		out[i] = in
	}
	return out
}

// TestGenerateInputs tests that generated vectors are new and distinct
func TestGenerateInputs(t *testing.T) {
	initial := mustInputs(t, `[["a", "b", "c"]]`)
	generated, err := GenerateInputs(context.Background(), pop, initial, DefaultConfig())
	require.NoError(t, err)
	require.NotEmpty(t, generated)

	seen := make(map[string]bool)
	for _, in := range generated {
		assert.False(t, in.Equal(initial[0]), "initial input regenerated")
		assert.False(t, seen[in.String()], "duplicate input %s", in)
		seen[in.String()] = true
	}
	assert.True(t, seen["[]"], "empty array missing from %v", seen)
	assert.True(t, seen[`["a", "b"]`], "shortened array missing from %v", seen)
	assert.True(t, seen[`["a", "b", "def"]`], "perturbed element missing from %v", seen)

	capped, err := GenerateInputs(context.Background(), pop, initial, Config{Budget: 1000, Rounds: 1, MaxInputs: 2})
	require.NoError(t, err)
	assert.Len(t, capped, 2)

	none, err := GenerateInputs(context.Background(), pop, nil, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, none)
}

// TestGenerateInputsSkipsExhausted tests that inputs driving the target out of budget are dropped
func TestGenerateInputsSkipsExhausted(t *testing.T) {
	// Loops once per element, so only short arrays fit the budget
	walk := func(rt value.Runtime, args []value.Value) (value.Value, error) {
		l, err := rt.Get(value.Arg(args, 0), lengthKey)
		if err != nil {
			return value.Undefined(), err
		}
		for k := 0; k < value.ToLength(l)*10; k++ {
			if err := rt.Tick(); err != nil {
				return value.Undefined(), err
			}
		}
		return value.Undefined(), nil
	}
	initial := mustInputs(t, `[[1, 2, 3]]`)
	generated, err := GenerateInputs(context.Background(), walk, initial, Config{Budget: 15, Rounds: 1, MaxInputs: 10})
	require.NoError(t, err)
	require.Len(t, generated, 1)
	assert.Equal(t, "[]", generated[0].String())
}

// TestCategorize tests grouping by skeleton and by loop proposal
func TestCategorize(t *testing.T) {
	inputs := mustInputs(t, `[["a", "b", "c"]]`, `[[]]`, `[[1]]`, `[[]]`)
	traces, err := recorder.RecordAll(context.Background(), pop, inputs, 100, 1)
	require.NoError(t, err)

	cats := Categorize(inputs, traces, nil)
	require.Len(t, cats, 2)
	assert.Equal(t, "skeleton:ggds", cats[0].Key)
	assert.Equal(t, "skeleton:gs", cats[1].Key)
	assert.Len(t, cats[0].Inputs, 2)
	assert.Same(t, inputs[2], cats[0].Inputs[1])
	assert.Len(t, cats[1].Traces, 2)

	loop := &inference.Proposal{Pattern: "g(g|s)*", WorksFor: []int{1, 2}}
	cats = Categorize(inputs, traces, loop)
	require.Len(t, cats, 3)
	assert.Equal(t, []string{"skeleton:ggds", "loop:g(g|s)*", "skeleton:gs"},
		[]string{cats[0].Key, cats[1].Key, cats[2].Key})
	assert.Len(t, cats[1].Inputs, 2)
}

func selectionPool(n int, length func(i int) int) ([]*value.Input, []*ir.Trace) {
	inputs := make([]*value.Input, n)
	traces := make([]*ir.Trace, n)
	for i := range inputs {
		inputs[i] = value.NewInput()
		traces[i] = &ir.Trace{Events: make([]*ir.Event, length(i))}
	}
	return inputs, traces
}

func zeroScore(int) (float64, error) { return 0, nil }

// TestSelectInputs tests subsampling by trace shape
func TestSelectInputs(t *testing.T) {
	inputs, traces := selectionPool(30, func(i int) int { return i })

	small, smallTraces, err := SelectInputs(inputs[:10], traces[:10], 2, zeroScore, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Len(t, small, 10)
	assert.Len(t, smallTraces, 10)

	got, gotTraces, err := SelectInputs(inputs, traces, 1, zeroScore, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, got, 1+selectCategories)
	require.Len(t, gotTraces, len(got))
	assert.Same(t, inputs[0], got[0])
	prev := -1
	for i, in := range got {
		idx := indexOf(inputs, in)
		assert.Greater(t, idx, prev, "selection keeps pool order")
		assert.Same(t, traces[idx], gotTraces[i])
		prev = idx
	}
}

// TestSelectInputsReachesLongTraces tests that buckets are drawn across the whole pool
func TestSelectInputsReachesLongTraces(t *testing.T) {
	inputs, traces := selectionPool(30, func(i int) int { return i })

	seen := make(map[int]bool)
	longest := 0
	for seed := int64(1); seed <= 20; seed++ {
		_, got, err := SelectInputs(inputs, traces, 1, zeroScore, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		for _, tr := range got[1:] {
			seen[len(tr.Events)] = true
			longest = max(longest, len(tr.Events))
		}
	}
	assert.Greater(t, longest, selectCategories+1, "only the shortest traces were ever kept")
	assert.Greater(t, len(seen), 2*selectCategories)
}

// TestSelectInputsScoreBuckets tests that the seed score separates equal-length traces
func TestSelectInputsScoreBuckets(t *testing.T) {
	inputs, traces := selectionPool(24, func(int) int { return 3 })
	score := func(i int) (float64, error) { return float64(i % 3), nil }

	got, _, err := SelectInputs(inputs, traces, 0, score, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	require.Len(t, got, 3*selectPerCategory)
	perScore := make(map[int]int)
	for _, in := range got {
		perScore[indexOf(inputs, in)%3]++
	}
	assert.Equal(t, map[int]int{0: 2, 1: 2, 2: 2}, perScore)

	boom := errors.New("boom")
	_, _, err = SelectInputs(inputs, traces, 0, func(int) (float64, error) { return 0, boom }, rand.New(rand.NewSource(7)))
	assert.ErrorIs(t, err, boom)
}

func indexOf(inputs []*value.Input, in *value.Input) int {
	for i, x := range inputs {
		if x == in {
			return i
		}
	}
	return -1
}

// TestConstants tests the merged constant pool
func TestConstants(t *testing.T) {
	a := &ir.Trace{Constants: []*ir.Const{ir.NewConst(value.Int(1)), ir.NewConst(value.String("x"))}}
	b := &ir.Trace{Constants: []*ir.Const{ir.NewConst(value.Int(1)), ir.NewConst(value.String("1"))}}
	got := Constants([]*ir.Trace{a, b})
	require.Len(t, got, 3)
	assert.Equal(t, `"1"`, ir.ExprString(got[2]))
}

// TestUpdateBounds tests that writes past the end of an array are refused
func TestUpdateBounds(t *testing.T) {
	in := mustInputs(t, `[[1, 2], 5]`)[0]
	assert.True(t, Update(in, ir.NewField(ir.Arg(0), ir.NewConst(value.Int(1))), value.Int(9)))
	assert.False(t, Update(in, ir.NewField(ir.Arg(0), ir.NewConst(value.Int(2))), value.Int(9)))
	assert.False(t, Update(in, ir.NewField(ir.Arg(1), ir.NewConst(value.String("x"))), value.Int(9)))
	assert.True(t, Update(in, ir.Arg(1), value.Int(6)))
	assert.Equal(t, `[1, 9], 6`, in.String())
}

/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: inference_test.go
Description: Tests for skeleton based loop inference.
*/

package inference

import (
	"testing"

	"github.com/kleascm/akaylee-mimic/pkg/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skeletonTrace builds a trace whose events spell out sk
func skeletonTrace(sk string) *ir.Trace {
	kinds := map[byte]ir.EventKind{}
	for _, k := range ir.EventKinds {
		kinds[k.Tag()] = k
	}
	t := &ir.Trace{Outcome: ir.Outcome{Kind: ir.NormalReturn}}
	for i := 0; i < len(sk); i++ {
		t.Events = append(t.Events, &ir.Event{Kind: kinds[sk[i]]})
	}
	return t
}

func find(proposals []*Proposal, pattern string) *Proposal {
	for _, p := range proposals {
		if p.Pattern == pattern {
			return p
		}
	}
	return nil
}

// TestInferRepetition tests that a repeated block becomes a loop proposal
func TestInferRepetition(t *testing.T) {
	// shift on arrays of four and five elements
	traces := []*ir.Trace{skeletonTrace("gggsgsgsds"), skeletonTrace("gggsgsgsgsds")}
	proposals := NewEngine("skeleton").Infer(traces)
	require.NotEmpty(t, proposals)

	loop := find(proposals, "gg(gs)*ds")
	require.NotNil(t, loop)
	assert.Equal(t, []int{0, 1}, loop.WorksFor)
	assert.False(t, loop.HasConditional())
	assert.Equal(t, 2, loop.Start)
	assert.Equal(t, 6, loop.Length)
	assert.Equal(t, 6, loop.NumStmts())

	assert.Equal(t, 3, loop.NumIterations(traces[0]))
	assert.Equal(t, 4, loop.NumIterations(traces[1]))
	assert.Equal(t, 0, loop.NumIterations(skeletonTrace("ggds")))
	assert.Equal(t, -1, loop.NumIterations(skeletonTrace("gs")))

	assert.Equal(t, 2, loop.Shapes(traces))
	assert.Equal(t, 3, loop.Shapes(append(traces, skeletonTrace("ggds"), skeletonTrace("gs"))))

	// The best proposal explains every trace
	assert.Len(t, proposals[0].WorksFor, len(traces))
}

// TestInferConditional tests alternating blocks and their common prefix
func TestInferConditional(t *testing.T) {
	traces := []*ir.Trace{skeletonTrace("gsgdgsgd"), skeletonTrace("gdgdgs")}
	proposals := NewEngine("").Infer(traces)

	cond := find(proposals, "(g(s|d))*")
	require.NotNil(t, cond)
	assert.True(t, cond.HasConditional())
	assert.Equal(t, 1, cond.Prefix)
	assert.Equal(t, []int{0, 1}, cond.WorksFor)
	assert.Equal(t, 4, cond.NumIterations(traces[0]))
	assert.Equal(t, 3, cond.NumIterations(traces[1]))
}

// TestInferPrefixCoversBranch tests a common prefix that is a whole branch
func TestInferPrefixCoversBranch(t *testing.T) {
	traces := []*ir.Trace{skeletonTrace("gsggsggs")}
	proposals := NewEngine("skeleton").Infer(traces)

	cond := find(proposals, "(g(s|))*")
	require.NotNil(t, cond)
	assert.True(t, cond.HasConditional())
	assert.Equal(t, 1, cond.Prefix)
	assert.Equal(t, 1, cond.ThenLen)
	assert.Zero(t, cond.ElseLen)
	assert.Equal(t, 2, cond.NumStmts())
	assert.Equal(t, 5, cond.NumIterations(traces[0]))
	assert.Equal(t, 2, cond.NumIterations(skeletonTrace("gg")))

	assert.NotNil(t, find(proposals, "(gs|g)*"))
}

// TestInferNothing tests traces too short to show a loop
func TestInferNothing(t *testing.T) {
	assert.Empty(t, NewEngine("skeleton").Infer([]*ir.Trace{skeletonTrace(""), skeletonTrace("gs")}))
	assert.Nil(t, NewEngine("regex"))
}

// TestSampleSpreadsEvenly tests the bounded trace sample
func TestSampleSpreadsEvenly(t *testing.T) {
	var traces []*ir.Trace
	for i := 0; i < 20; i++ {
		traces = append(traces, skeletonTrace("g"))
	}
	got := sample(traces, 4)
	require.Len(t, got, 4)
	assert.Same(t, traces[0], got[0])
	assert.Same(t, traces[5], got[1])
	assert.Same(t, traces[15], got[3])
	assert.Len(t, sample(traces[:3], 4), 3)
}

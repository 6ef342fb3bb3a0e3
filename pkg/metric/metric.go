/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: metric.go
Description: Trace distance metric for the Mimic synthesis engine. Compares a candidate trace
against a reference trace event kind by event kind and scores programs by re-recording them
on every input.
*/

package metric

import (
	"fmt"
	"math"

	"github.com/kleascm/akaylee-mimic/pkg/compile"
	"github.com/kleascm/akaylee-mimic/pkg/fault"
	"github.com/kleascm/akaylee-mimic/pkg/ir"
	"github.com/kleascm/akaylee-mimic/pkg/recorder"
	"github.com/kleascm/akaylee-mimic/pkg/value"
)

const (
	Norm            = 100.0  // Distance between two unrelated values
	WeightPair      = 0.5    // Weight of a paired event's operand distance
	WeightMissing   = 1.0    // Cost of an event without a partner
	WeightErrorExit = 2.0    // Return where a throw was expected or vice versa
	WeightExit      = 1.0    // Weight of the returned or thrown value
	WeightExhausted = 5.0    // Candidate ran out of budget
	WeightSize      = 0.0001 // Finalizing penalty per program node
	wrongField      = 0.6
)

// Options tunes an evaluation
type Options struct {
	Finalizing bool // Penalize program size
}

// Budget is the event budget a candidate gets against a reference of base events
func Budget(base int) int {
	return base + min(100, max(20, base/2))
}

// TraceDistance scores how far cand is from ref, zero meaning indistinguishable
func TraceDistance(ref, cand *ir.Trace) (float64, error) {
	if ref.Exhausted() {
		return 0, fault.Invariantf("reference trace exhausted its budget")
	}
	if cand.Exhausted() {
		return WeightExhausted, nil
	}

	d := 0.0
	for _, kind := range ir.EventKinds {
		a, b := ref.EventsOf(kind), cand.EventsOf(kind)
		n := min(len(a), len(b))
		for i := 0; i < n; i++ {
			d += WeightPair * EventDistance(a[i], b[i]) / Norm
		}
		d += WeightMissing * math.Abs(float64(len(a)-len(b)))
	}

	if ref.Outcome.Kind != cand.Outcome.Kind {
		return d + WeightErrorExit, nil
	}
	return d + WeightExit*ExprDistance(ref.Outcome.Value, cand.Outcome.Value)/Norm, nil
}

// EventDistance averages the operand distances of two events of one kind
func EventDistance(a, b *ir.Event) float64 {
	x, y := a.Operands(), b.Operands()
	n := max(len(x), len(y))
	if n == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		if i >= len(x) || i >= len(y) {
			sum += Norm
			continue
		}
		sum += ExprDistance(x[i], y[i])
	}
	return sum / float64(n)
}

// ExprDistance is 0 when a and b denote the same entity and Norm otherwise
// Allocations are the exception: their snapshots give partial credit.
func ExprDistance(a, b *ir.TraceExpr) float64 {
	if a == nil || b == nil {
		if a == nil && b == nil {
			return 0
		}
		return Norm
	}
	if a.Kind != b.Kind {
		return Norm
	}
	switch a.Kind {
	case ir.TraceConstant:
		if a.Const().Value.SameValue(b.Const().Value) {
			return 0
		}
		return Norm
	case ir.TraceAlloc:
		return snapshotDistance(a, b)
	default:
		seen := make(map[string]bool, len(a.PreState))
		for _, s := range a.PreStrings() {
			seen[s] = true
		}
		for _, s := range b.PreStrings() {
			if seen[s] {
				return 0
			}
		}
		return Norm
	}
}

func snapshotDistance(ref, cand *ir.TraceExpr) float64 {
	if ref.Array != cand.Array {
		return Norm
	}
	wrong, missing, extra := 0, 0, 0
	for k, v := range ref.Snapshot {
		got, ok := cand.Snapshot[k]
		switch {
		case !ok:
			missing++
		case got != v:
			wrong++
		}
	}
	for k := range cand.Snapshot {
		if _, ok := ref.Snapshot[k]; !ok {
			extra++
		}
	}
	return (float64(wrong)*wrongField + float64(missing+extra)) * Norm / float64(max(1, len(ref.Snapshot)))
}

// Evaluate averages the distance of p to refs over inputs
// Candidate faults are part of the score; compile and invariant errors are returned.
func Evaluate(p *ir.Program, inputs []*value.Input, refs []*ir.Trace, opts Options) (float64, error) {
	if len(inputs) != len(refs) {
		return 0, fault.Invariantf("%d inputs but %d reference traces", len(inputs), len(refs))
	}
	f, err := compile.Compile(p)
	if err != nil {
		return 0, err
	}

	total := 0.0
	for i, in := range inputs {
		t, err := recorder.Record(f, in, Budget(len(refs[i].Events)))
		if err != nil {
			return 0, fmt.Errorf("failed to record candidate on input %d: %w", i, err)
		}
		d, err := TraceDistance(refs[i], t)
		if err != nil {
			return 0, err
		}
		total += d
	}

	score := 0.0
	if len(inputs) > 0 {
		score = total / float64(len(inputs))
	}
	if opts.Finalizing {
		score += WeightSize * float64(p.Size())
	}
	return score, nil
}

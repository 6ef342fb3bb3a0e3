/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: category.go
Description: Partitioning and subsampling of generated inputs, and the constant pool the
mutator draws literals from.
*/

package inputgen

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"

	"github.com/kleascm/akaylee-mimic/pkg/inference"
	"github.com/kleascm/akaylee-mimic/pkg/ir"
	"github.com/kleascm/akaylee-mimic/pkg/value"
)

const (
	SelectThreshold   = 20 // Pools below this size are kept whole
	selectCategories  = 10
	selectPerCategory = 2
)

// Category is a set of inputs that behave alike
type Category struct {
	Key    string
	Inputs []*value.Input
	Traces []*ir.Trace
}

// Categorize groups inputs by trace skeleton
// Inputs whose trace the loop proposal matches share one bucket regardless of skeleton.
// Categories appear in order of their first input.
func Categorize(inputs []*value.Input, traces []*ir.Trace, loop *inference.Proposal) []*Category {
	inLoop := make(map[int]bool)
	if loop != nil {
		for _, i := range loop.WorksFor {
			inLoop[i] = true
		}
	}
	index := make(map[string]*Category)
	var out []*Category
	for i, in := range inputs {
		key := "skeleton:" + traces[i].Skeleton()
		if inLoop[i] {
			key = "loop:" + loop.Pattern
		}
		c, ok := index[key]
		if !ok {
			c = &Category{Key: key}
			index[key] = c
			out = append(out, c)
		}
		c.Inputs = append(c.Inputs, in)
		c.Traces = append(c.Traces, traces[i])
	}
	return out
}

// Scorer rates how well the seed program already explains input i
type Scorer func(i int) (float64, error)

// SelectInputs subsamples a large input pool, keeping behaviorally distinct inputs
// Inputs are bucketed by trace length and by how the seed program scores on them. Up to
// ten buckets are drawn at random and up to two inputs are drawn from each. The first keep
// inputs are always retained and the survivors stay in pool order. Pools below the
// threshold are returned unchanged.
func SelectInputs(inputs []*value.Input, traces []*ir.Trace, keep int, score Scorer, rng *rand.Rand) ([]*value.Input, []*ir.Trace, error) {
	if len(inputs) < SelectThreshold {
		return inputs, traces, nil
	}
	buckets := make(map[float64][]int)
	var keys []float64
	for i := keep; i < len(inputs); i++ {
		s, err := score(i)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to score input %d: %w", i, err)
		}
		k := float64(len(traces[i].Events))*1000 + s
		if _, ok := buckets[k]; !ok {
			keys = append(keys, k)
		}
		buckets[k] = append(buckets[k], i)
	}

	chosen := make([]int, 0, keep+selectCategories*selectPerCategory)
	for i := 0; i < keep && i < len(inputs); i++ {
		chosen = append(chosen, i)
	}
	for _, k := range pickN(keys, selectCategories, rng) {
		chosen = append(chosen, pickN(buckets[k], selectPerCategory, rng)...)
	}
	sort.Ints(chosen)

	outIn := make([]*value.Input, len(chosen))
	outTr := make([]*ir.Trace, len(chosen))
	for i, idx := range chosen {
		outIn[i], outTr[i] = inputs[idx], traces[idx]
	}
	return outIn, outTr, nil
}

// pickN draws up to n elements of xs without replacement
func pickN[T any](xs []T, n int, rng *rand.Rand) []T {
	if len(xs) <= n {
		return xs
	}
	out := make([]T, n)
	for i, j := range rng.Perm(len(xs))[:n] {
		out[i] = xs[j]
	}
	return out
}

// Constants merges the constant pools of traces without duplicates
func Constants(traces []*ir.Trace) []*ir.Const {
	seen := make(map[string]bool)
	var out []*ir.Const
	for _, t := range traces {
		for _, c := range t.Constants {
			key := strconv.Itoa(int(c.Value.Kind())) + ":" + ir.ExprString(c)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, c)
		}
	}
	return out
}

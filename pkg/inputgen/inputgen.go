/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: inputgen.go
Description: Input generation for the Mimic synthesis engine. Perturbs every prestate address
the target reads with type-appropriate replacement values to build a diverse pool of argument
vectors, running a second discovery round over the addresses the new vectors expose.
*/

package inputgen

import (
	"context"
	"fmt"

	"github.com/kleascm/akaylee-mimic/pkg/ir"
	"github.com/kleascm/akaylee-mimic/pkg/recorder"
	"github.com/kleascm/akaylee-mimic/pkg/value"
)

// Config bounds input generation
type Config struct {
	Budget      int `json:"budget" yaml:"budget"`           // Event budget for recording the target
	Rounds      int `json:"rounds" yaml:"rounds"`           // Prestate discovery rounds
	MaxInputs   int `json:"max_inputs" yaml:"max_inputs"`   // Cap on generated vectors
	Parallelism int `json:"parallelism" yaml:"parallelism"` // Concurrent recordings, 0 for unbounded
}

// DefaultConfig returns the standard generation settings
func DefaultConfig() Config {
	return Config{Budget: 1000, Rounds: 2, MaxInputs: 200}
}

// GenerateInputs derives new argument vectors from the initial ones
// The result never contains an initial vector or a duplicate.
func GenerateInputs(ctx context.Context, f value.Function, initial []*value.Input, config Config) ([]*value.Input, error) {
	if len(initial) == 0 {
		return nil, nil
	}
	traces, err := recorder.RecordAll(ctx, f, initial, config.Budget, config.Parallelism)
	if err != nil {
		return nil, fmt.Errorf("failed to record initial inputs: %w", err)
	}

	var generated []*value.Input
	known := 0
	for round := 0; round < max(1, config.Rounds); round++ {
		candidates := Candidates(traces, initial[0])
		if round > 0 && len(candidates) == known {
			break
		}
		known = len(candidates)
		generated = perturbAll(initial, candidates, config.MaxInputs)

		more, err := recorder.RecordAll(ctx, f, generated, config.Budget, config.Parallelism)
		if err != nil {
			return nil, fmt.Errorf("failed to record generated inputs: %w", err)
		}
		traces = append(traces[:len(initial)], more...)
	}

	var out []*value.Input
	for i, in := range generated {
		if traces[len(initial)+i].Exhausted() {
			continue
		}
		out = append(out, in)
	}
	return out, nil
}

// perturbAll folds the candidates over the initial vectors, least specific address first
func perturbAll(initial []*value.Input, candidates []ir.Expr, limit int) []*value.Input {
	pool := append([]*value.Input(nil), initial...)
	var out []*value.Input

	contains := func(in *value.Input) bool {
		for _, p := range pool {
			if p.Equal(in) {
				return true
			}
		}
		return false
	}

	for _, e := range candidates {
		current := len(pool)
		for _, src := range pool[:current] {
			probe := src.Clone()
			v, ok := Eval(probe, e)
			if !ok {
				continue
			}
			for k := range alternatives(probe.Heap, v) {
				if limit > 0 && len(out) >= limit {
					return out
				}
				next := src.Clone()
				cur, _ := Eval(next, e)
				alt := alternatives(next.Heap, cur)[k]
				if !Update(next, e, alt) || next.Equal(src) || contains(next) {
					continue
				}
				pool = append(pool, next)
				out = append(out, next)
			}
		}
	}
	return out
}

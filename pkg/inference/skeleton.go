/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: skeleton.go
Description: Skeleton based loop inference. Scans every start offset of a bounded sample of
traces for repeated blocks, alternating then/else blocks and their common prefixes, then
ranks the resulting proposals by how many reference traces they explain.
*/

package inference

import (
	"sort"

	"github.com/kleascm/akaylee-mimic/pkg/ir"
)

// Config bounds the search for loop structure
type Config struct {
	MinIterations int `json:"min_iterations" yaml:"min_iterations"`   // Iterations a region must show
	MaxSamples    int `json:"max_samples" yaml:"max_samples"`         // Traces mined for candidates
	MaxBodyLength int `json:"max_body_length" yaml:"max_body_length"` // Longest then or else block
}

// DefaultConfig returns the standard inference bounds
func DefaultConfig() Config {
	return Config{MinIterations: 3, MaxSamples: 10, MaxBodyLength: 30}
}

// SkeletonEngine infers loops from event skeletons
type SkeletonEngine struct {
	config Config
}

// NewSkeletonEngine creates a skeleton engine
func NewSkeletonEngine(config Config) *SkeletonEngine {
	if config.MinIterations < 2 {
		config.MinIterations = 2
	}
	if config.MaxSamples <= 0 {
		config.MaxSamples = DefaultConfig().MaxSamples
	}
	if config.MaxBodyLength <= 0 {
		config.MaxBodyLength = DefaultConfig().MaxBodyLength
	}
	return &SkeletonEngine{config: config}
}

// Name returns the engine name
func (e *SkeletonEngine) Name() string {
	return "skeleton"
}

// Infer mines, deduplicates and ranks proposals
func (e *SkeletonEngine) Infer(traces []*ir.Trace) []*Proposal {
	var proposals []*Proposal
	seen := make(map[string]bool)
	for _, t := range sample(traces, e.config.MaxSamples) {
		for _, p := range e.candidates(t) {
			if seen[p.Pattern] {
				continue
			}
			seen[p.Pattern] = true
			proposals = append(proposals, p)
		}
	}

	for _, p := range proposals {
		for i, t := range traces {
			if p.Matches(t) {
				p.WorksFor = append(p.WorksFor, i)
			}
		}
	}

	sort.SliceStable(proposals, func(i, j int) bool {
		a, b := proposals[i], proposals[j]
		if len(a.WorksFor) != len(b.WorksFor) {
			return len(a.WorksFor) > len(b.WorksFor)
		}
		if a.NumStmts() != b.NumStmts() {
			return a.NumStmts() < b.NumStmts()
		}
		if a.HasConditional() != b.HasConditional() {
			return !a.HasConditional()
		}
		if a.Start != b.Start {
			return a.Start > b.Start
		}
		return a.Pattern < b.Pattern
	})
	return proposals
}

// sample picks at most n traces spread evenly over the list
func sample(traces []*ir.Trace, n int) []*ir.Trace {
	if len(traces) <= n {
		return traces
	}
	out := make([]*ir.Trace, n)
	for i := range out {
		out[i] = traces[i*len(traces)/n]
	}
	return out
}

func (e *SkeletonEngine) candidates(t *ir.Trace) []*Proposal {
	sk := t.Skeleton()
	n := len(sk)
	minIter := e.config.MinIterations
	var out []*Proposal

	for start := 0; start+minIter <= n; start++ {
		for thenLen := 1; thenLen <= e.config.MaxBodyLength && start+thenLen <= n; thenLen++ {
			then := sk[start : start+thenLen]
			reps := repeats(sk, start, then)

			if reps >= minIter {
				out = append(out, newProposal(t, start, reps*thenLen, 0, start, thenLen, 0, 0, false))
			}

			elsePos := start + reps*thenLen
			for elseLen := 1; elseLen <= e.config.MaxBodyLength && elsePos+elseLen <= n; elseLen++ {
				els := sk[elsePos : elsePos+elseLen]
				end, iters := alternate(sk, start, then, els)
				if iters < minIter || end <= elsePos {
					continue
				}
				p := newProposal(t, start, end-start, 0, start, thenLen, elsePos, elseLen, true)
				if !p.Matches(t) {
					continue
				}
				out = append(out, p)

				// The shared prefix may swallow one block whole, but not both
				for prefix := 1; prefix <= thenLen && prefix <= elseLen && then[prefix-1] == els[prefix-1]; prefix++ {
					if prefix == thenLen && prefix == elseLen {
						break
					}
					out = append(out, newProposal(t, start, end-start, prefix,
						start+prefix, thenLen-prefix, elsePos+prefix, elseLen-prefix, true))
				}
			}
		}
	}
	return out
}

// repeats counts consecutive copies of block starting at pos
func repeats(sk string, pos int, block string) int {
	n := 0
	for pos+len(block) <= len(sk) && sk[pos:pos+len(block)] == block {
		n++
		pos += len(block)
	}
	return n
}

// alternate consumes then or else blocks greedily, then first
func alternate(sk string, pos int, then, els string) (end int, iters int) {
	for {
		switch {
		case pos+len(then) <= len(sk) && sk[pos:pos+len(then)] == then:
			pos += len(then)
		case pos+len(els) <= len(sk) && sk[pos:pos+len(els)] == els:
			pos += len(els)
		default:
			return pos, iters
		}
		iters++
	}
}

/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: inference.go
Description: Main entry point for structure inference. Provides the InferenceEngine interface
and the Proposal type describing an inferred loop, optionally with a conditional inside its
body, mined from the event skeletons of reference traces.
*/

package inference

import (
	"regexp"
	"strings"

	"github.com/kleascm/akaylee-mimic/pkg/ir"
)

// InferenceEngine defines the interface for structure inference engines
type InferenceEngine interface {
	// Infer returns proposals ordered best-first
	Infer(traces []*ir.Trace) []*Proposal
	Name() string
}

// NewEngine returns the inference engine with the given name
func NewEngine(name string) InferenceEngine {
	switch name {
	case "", "skeleton":
		return NewSkeletonEngine(DefaultConfig())
	default:
		return nil
	}
}

// Proposal is an inferred loop over a region of a source trace
// The loop body is Prefix followed by either the Then or the Else block; a proposal
// without an else block is a plain repetition. Positions index the source trace events
// of the first occurrence of each block.
type Proposal struct {
	Pattern  string    // Regular expression over skeleton tags
	Source   *ir.Trace // Trace the proposal was mined from
	Start    int       // First event of the loop region
	Length   int       // Number of events the unrolled loop covers
	Prefix   int       // Length of the block shared by both branches
	ThenPos  int       // First event of the then block, after the prefix
	ThenLen  int
	ElsePos  int // First event of the else block, after the prefix
	ElseLen  int
	Branches bool // The body holds a conditional; either block may be empty after the prefix
	WorksFor []int

	pre, prefix, then, els, post string
	re                           *regexp.Regexp
}

func newProposal(source *ir.Trace, start, length, prefix, thenPos, thenLen, elsePos, elseLen int, branches bool) *Proposal {
	sk := source.Skeleton()
	p := &Proposal{
		Source:   source,
		Start:    start,
		Length:   length,
		Prefix:   prefix,
		ThenPos:  thenPos,
		ThenLen:  thenLen,
		ElsePos:  elsePos,
		ElseLen:  elseLen,
		Branches: branches,
		pre:      sk[:start],
		prefix:   sk[start : start+prefix],
		then:     sk[thenPos : thenPos+thenLen],
		post:     sk[start+length:],
	}
	if branches {
		p.els = sk[elsePos : elsePos+elseLen]
	}

	var b strings.Builder
	b.WriteString(p.pre)
	b.WriteString("(")
	b.WriteString(p.prefix)
	switch {
	case !branches:
		b.WriteString(p.then)
	case prefix > 0:
		b.WriteString("(" + p.then + "|" + p.els + ")")
	default:
		b.WriteString(p.then + "|" + p.els)
	}
	b.WriteString(")*")
	b.WriteString(p.post)
	p.Pattern = b.String()
	p.re = regexp.MustCompile("^" + p.Pattern + "$")
	return p
}

// HasConditional reports whether the loop body branches
func (p *Proposal) HasConditional() bool {
	return p.Branches
}

// NumStmts is the number of events a program following the proposal spells out
func (p *Proposal) NumStmts() int {
	return len(p.pre) + len(p.prefix) + len(p.then) + len(p.els) + len(p.post)
}

// Matches reports whether the trace skeleton fits the pattern
func (p *Proposal) Matches(t *ir.Trace) bool {
	return p.re.MatchString(t.Skeleton())
}

// NumIterations returns how many times the loop body runs in t, or -1 if t does not match
func (p *Proposal) NumIterations(t *ir.Trace) int {
	sk := t.Skeleton()
	if !p.re.MatchString(sk) {
		return -1
	}
	body := sk[len(p.pre) : len(sk)-len(p.post)]
	alts := []string{p.prefix + p.then}
	if p.Branches {
		alts = append(alts, p.prefix+p.els)
	}
	failed := make(map[int]bool)
	var walk func(pos int) int
	walk = func(pos int) int {
		if pos == len(body) {
			return 0
		}
		if failed[pos] {
			return -1
		}
		for _, alt := range alts {
			if strings.HasPrefix(body[pos:], alt) {
				if n := walk(pos + len(alt)); n >= 0 {
					return n + 1
				}
			}
		}
		failed[pos] = true
		return -1
	}
	return walk(0)
}

// Shapes counts the distinct iteration counts among the traces p matches
func (p *Proposal) Shapes(traces []*ir.Trace) int {
	seen := make(map[int]bool)
	for _, t := range traces {
		if n := p.NumIterations(t); n >= 0 {
			seen[n] = true
		}
	}
	return len(seen)
}

func (p *Proposal) String() string {
	return p.Pattern
}

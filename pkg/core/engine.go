/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: engine.go
Description: Main search engine implementation. Drives the search state machine from
recording the reference behavior through input generation, structure inference and
categorization to per-category annealing, combination, whole-input refinement and cleanup.
*/

package core

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kleascm/akaylee-mimic/pkg/compile"
	"github.com/kleascm/akaylee-mimic/pkg/inference"
	"github.com/kleascm/akaylee-mimic/pkg/inputgen"
	"github.com/kleascm/akaylee-mimic/pkg/ir"
	"github.com/kleascm/akaylee-mimic/pkg/metric"
	"github.com/kleascm/akaylee-mimic/pkg/recorder"
	"github.com/kleascm/akaylee-mimic/pkg/strategies"
	"github.com/kleascm/akaylee-mimic/pkg/value"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// minLoopShapes is the number of distinct iteration counts a loop proposal must explain
const minLoopShapes = 3

// Engine runs searches for programs that mimic a target function
type Engine struct {
	config *SearchConfig
	stats  *SearchStats
	logger *logrus.Logger

	// Core components
	mutator   *strategies.CompositeMutator
	inference inference.InferenceEngine
	reporters []Reporter

	// Seeds derived per search so categories can run concurrently
	seed int64
	mu   sync.Mutex
}

// NewEngine creates a new search engine instance
func NewEngine(config *SearchConfig) (*Engine, error) {
	if config == nil {
		config = DefaultSearchConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid search config: %w", err)
	}
	inf := inference.NewEngine(config.Inference)
	if inf == nil {
		return nil, fmt.Errorf("unknown inference engine %q", config.Inference)
	}
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine{
		config:    config,
		stats:     &SearchStats{},
		logger:    logrus.New(),
		mutator:   strategies.NewCompositeMutator(),
		inference: inf,
		seed:      seed,
	}, nil
}

// SetLogger replaces the engine logger
func (e *Engine) SetLogger(logger *logrus.Logger) {
	e.logger = logger
}

// AddReporter registers a Reporter for telemetry and live reporting.
func (e *Engine) AddReporter(reporter Reporter) {
	e.reporters = append(e.reporters, reporter)
}

// GetStats returns a snapshot of the engine counters
func (e *Engine) GetStats() SearchStats {
	return e.stats.Snapshot()
}

// newRand derives an independent random stream
func (e *Engine) newRand() *rand.Rand {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seed++
	return rand.New(rand.NewSource(e.seed))
}

func (e *Engine) enter(phase Phase) {
	for _, r := range e.reporters {
		r.OnPhase(phase)
	}
}

// problem is one set of inputs with their reference traces
type problem struct {
	inputs []*value.Input
	traces []*ir.Trace
}

// Search synthesizes a program reproducing f on initial and the inputs derived from it
// Invariant violations and compile errors abort the search; any other outcome is reported
// as the best program found and its score.
func (e *Engine) Search(ctx context.Context, f value.Function, initial []*value.Input) (*SearchResult, error) {
	start := time.Now()
	result := &SearchResult{RunID: uuid.New().String()}
	if len(initial) == 0 {
		return nil, fmt.Errorf("search needs at least one input")
	}
	log := e.logger.WithFields(logrus.Fields{"run": result.RunID})

	// Record the reference behavior
	e.enter(PhaseRecordReference)
	reference, err := recorder.RecordAll(ctx, f, initial, e.config.GoldBudget, e.config.Parallelism)
	if err != nil {
		return nil, fmt.Errorf("failed to record reference behavior: %w", err)
	}
	for i, t := range reference {
		if t.Exhausted() {
			return nil, fmt.Errorf("target exhausted the budget of %d events on input %d (%s)", e.config.GoldBudget, i, initial[i])
		}
	}
	log.WithFields(logrus.Fields{"events": len(reference[0].Events)}).Debug("Recorded reference trace")

	// Generate inputs
	e.enter(PhaseGenerateInputs)
	generated, err := inputgen.GenerateInputs(ctx, f, initial, inputgen.Config{
		Budget:      e.config.GoldBudget,
		Rounds:      e.config.InputRounds,
		MaxInputs:   e.config.MaxInputs,
		Parallelism: e.config.Parallelism,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate inputs: %w", err)
	}
	all := append(append([]*value.Input(nil), initial...), generated...)
	traces, err := recorder.RecordAll(ctx, f, all, e.config.GoldBudget, e.config.Parallelism)
	if err != nil {
		return nil, fmt.Errorf("failed to record generated inputs: %w", err)
	}
	if len(all) >= inputgen.SelectThreshold {
		// Inputs are told apart by how the straight-line seed of the first input fares on them
		seed, err := compile.CompileTrace(traces[0], nil)
		if err != nil {
			return nil, fmt.Errorf("failed to compile selection seed: %w", err)
		}
		score := func(i int) (float64, error) {
			return e.evaluate(seed, problem{inputs: all[i : i+1], traces: traces[i : i+1]}, metric.Options{})
		}
		all, traces, err = inputgen.SelectInputs(all, traces, len(initial), score, e.newRand())
		if err != nil {
			return nil, fmt.Errorf("failed to select inputs: %w", err)
		}
	}
	whole := problem{inputs: all, traces: traces}
	result.Inputs = len(all)

	// Infer loop structure
	e.enter(PhaseInferStructure)
	proposals := e.inference.Infer(traces)
	result.Proposals = len(proposals)
	loop := selectLoop(proposals, traces)
	if loop != nil {
		log.WithFields(logrus.Fields{"pattern": loop.Pattern, "matches": len(loop.WorksFor)}).Debug("Selected loop proposal")
	}

	// Categorize inputs
	e.enter(PhaseCategorize)
	categories := inputgen.Categorize(all, traces, loop)
	result.Categories = len(categories)
	constants := inputgen.Constants(traces)
	nargs := 0
	for _, in := range all {
		nargs = max(nargs, len(in.Args))
	}
	log.WithFields(logrus.Fields{
		"inputs":     len(all),
		"categories": len(categories),
		"proposals":  len(proposals),
	}).Info("Prepared search inputs")

	newContext := func(useAlloc bool) *strategies.MutationContext {
		return strategies.NewMutationContext(constants, nargs, useAlloc, e.newRand())
	}

	var program *ir.Program
	useAlloc := false
	if len(categories) > 1 {
		iterations := int(math.Ceil(0.8 * float64(e.config.Iterations) / float64(len(categories))))
		programs := make([]*ir.Program, len(categories))
		stats := make([]PhaseStats, len(categories))
		loopUsed := false

		seeds := make([]*ir.Program, len(categories))
		allocs := make([]bool, len(categories))
		for i, c := range categories {
			var l *inference.Proposal
			if loop != nil && !loopUsed && c.Key == "loop:"+loop.Pattern {
				l, loopUsed = loop, true
			}
			if seeds[i], err = compile.CompileTrace(c.Traces[0], l); err != nil {
				return nil, fmt.Errorf("failed to compile seed for category %d: %w", i, err)
			}
			allocs[i] = compile.UsesAlloc(c.Traces[0])
			useAlloc = useAlloc || allocs[i]
		}

		e.enter(PhaseCategorySearch)
		g, gctx := errgroup.WithContext(ctx)
		if e.config.Parallelism > 0 {
			g.SetLimit(e.config.Parallelism)
		}
		for i, c := range categories {
			i, c := i, c
			mctx := newContext(allocs[i])
			g.Go(func() error {
				p, ps, err := e.anneal(gctx, PhaseCategorySearch, seeds[i], problem{inputs: c.Inputs, traces: c.Traces}, iterations, metric.Options{}, mctx)
				if err != nil {
					return fmt.Errorf("category %d (%s): %w", i, c.Key, err)
				}
				programs[i], stats[i] = p, ps
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		for _, ps := range stats {
			result.add(ps)
		}

		e.enter(PhaseCombine)
		program = programs[0]
		for _, p := range programs[1:] {
			program = Combine(program, p)
		}

		e.enter(PhaseWholeInputSearch)
		p, ps, err := e.anneal(ctx, PhaseWholeInputSearch, program, whole, int(math.Ceil(0.2*float64(e.config.Iterations))), metric.Options{}, newContext(useAlloc))
		if err != nil {
			return nil, err
		}
		result.add(ps)
		program = p
	} else {
		seed, err := compile.CompileTrace(traces[0], loop)
		if err != nil {
			return nil, fmt.Errorf("failed to compile seed: %w", err)
		}
		useAlloc = compile.UsesAlloc(traces[0])
		e.enter(PhaseWholeInputSearch)
		p, ps, err := e.anneal(ctx, PhaseWholeInputSearch, seed, whole, e.config.Iterations, metric.Options{}, newContext(useAlloc))
		if err != nil {
			return nil, err
		}
		result.add(ps)
		program = p
	}

	// Cleanup on a sample of the inputs
	if e.config.CleanupIterations > 0 {
		e.enter(PhaseCleanup)
		cleaned, ps, err := e.cleanup(ctx, program, whole, newContext(useAlloc))
		if err != nil {
			return nil, err
		}
		result.add(ps)
		before, err := e.evaluate(program, whole, metric.Options{})
		if err != nil {
			return nil, err
		}
		after, err := e.evaluate(cleaned, whole, metric.Options{})
		if err != nil {
			return nil, err
		}
		if after <= before {
			program = cleaned
		} else {
			log.WithFields(logrus.Fields{"before": before, "after": after}).Debug("Discarding cleanup that lost accuracy")
		}
	}

	result.Program = program
	result.Score, err = e.evaluate(program, whole, metric.Options{})
	if err != nil {
		return nil, err
	}
	result.Elapsed = time.Since(start)
	e.enter(PhaseDone)

	log.WithFields(logrus.Fields{
		"score":      result.Score,
		"iterations": result.Iterations,
		"executions": result.Executions,
		"elapsed":    result.Elapsed,
	}).Info("Search finished")
	return result, nil
}

// selectLoop returns the best proposal whose loop runs a varying number of times
// A region repeated the same number of times in every trace it matches is better served
// by straight-line code.
func selectLoop(proposals []*inference.Proposal, traces []*ir.Trace) *inference.Proposal {
	for _, p := range proposals {
		if p.Shapes(traces) >= minLoopShapes {
			return p
		}
	}
	return nil
}

// evaluate scores p on prob and counts the executions
func (e *Engine) evaluate(p *ir.Program, prob problem, opts metric.Options) (float64, error) {
	score, err := metric.Evaluate(p, prob.inputs, prob.traces, opts)
	if err != nil {
		return 0, err
	}
	e.stats.AddExecutions(len(prob.inputs))
	return score, nil
}

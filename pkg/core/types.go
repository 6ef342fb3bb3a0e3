/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: types.go
Description: Core types for the Mimic search engine. Defines the search configuration, the
phases of the search state machine, thread-safe search statistics and the search result.
*/

package core

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kleascm/akaylee-mimic/pkg/ir"
)

// SearchConfig contains all configuration parameters for a search
// Supports both command-line flags and configuration files
type SearchConfig struct {
	// Search budget
	Iterations        int     `json:"iterations" yaml:"iterations" mapstructure:"iterations"`                         // Main annealing iterations
	CleanupIterations int     `json:"cleanup_iterations" yaml:"cleanup_iterations" mapstructure:"cleanup_iterations"` // Iterations under the finalizing metric, 0 disables cleanup
	Beta              float64 `json:"beta" yaml:"beta" mapstructure:"beta"`                                           // Steepness of the acceptance probability
	Seed              int64   `json:"seed" yaml:"seed" mapstructure:"seed"`                                           // Random seed, 0 picks one from the clock

	// Recording
	GoldBudget  int `json:"gold_budget" yaml:"gold_budget" mapstructure:"gold_budget"` // Event budget when recording the target
	Parallelism int `json:"parallelism" yaml:"parallelism" mapstructure:"parallelism"` // Concurrent recordings, 0 for unbounded

	// Inputs
	MaxInputs     int `json:"max_inputs" yaml:"max_inputs" mapstructure:"max_inputs"`             // Cap on generated inputs
	InputRounds   int `json:"input_rounds" yaml:"input_rounds" mapstructure:"input_rounds"`       // Prestate discovery rounds
	CleanupInputs int `json:"cleanup_inputs" yaml:"cleanup_inputs" mapstructure:"cleanup_inputs"` // Inputs sampled for cleanup
	ShortenTries  int `json:"shorten_tries" yaml:"shorten_tries" mapstructure:"shorten_tries"`    // Random deletions tried per shortening pass

	// Structure inference
	Inference string `json:"inference" yaml:"inference" mapstructure:"inference"` // Inference engine name
}

// DefaultSearchConfig returns the standard search settings
func DefaultSearchConfig() *SearchConfig {
	return &SearchConfig{
		Iterations:        5000,
		CleanupIterations: 700,
		Beta:              6,
		GoldBudget:        1000,
		MaxInputs:         200,
		InputRounds:       2,
		CleanupInputs:     20,
		ShortenTries:      300,
		Inference:         "skeleton",
	}
}

// Validate checks the configuration for values the search cannot run with
func (c *SearchConfig) Validate() error {
	if c.Iterations < 0 {
		return fmt.Errorf("iterations must be non-negative, got %d", c.Iterations)
	}
	if c.CleanupIterations < 0 {
		return fmt.Errorf("cleanup iterations must be non-negative, got %d", c.CleanupIterations)
	}
	if c.Beta <= 0 {
		return fmt.Errorf("beta must be positive, got %g", c.Beta)
	}
	if c.GoldBudget <= 0 {
		return fmt.Errorf("gold budget must be positive, got %d", c.GoldBudget)
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("parallelism must be non-negative, got %d", c.Parallelism)
	}
	if c.CleanupInputs <= 0 {
		return fmt.Errorf("cleanup inputs must be positive, got %d", c.CleanupInputs)
	}
	return nil
}

// Phase is a state of the search state machine
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseRecordReference  Phase = "record-reference"
	PhaseGenerateInputs   Phase = "generate-inputs"
	PhaseInferStructure   Phase = "infer-structure"
	PhaseCategorize       Phase = "categorize"
	PhaseCategorySearch   Phase = "category-search"
	PhaseCombine          Phase = "combine"
	PhaseWholeInputSearch Phase = "whole-input-search"
	PhaseCleanup          Phase = "cleanup"
	PhaseDone             Phase = "done"
)

// SearchStats tracks counters of a running search
// Uses atomic operations for thread-safe updates
type SearchStats struct {
	Iterations   int64 `json:"iterations"`   // Mutations scored
	Executions   int64 `json:"executions"`   // Candidate recordings
	Accepted     int64 `json:"accepted"`     // Mutations accepted
	Improvements int64 `json:"improvements"` // Strict improvements
}

// IncrementIterations atomically increments the iteration counter
func (s *SearchStats) IncrementIterations() {
	atomic.AddInt64(&s.Iterations, 1)
}

// AddExecutions atomically adds n candidate recordings
func (s *SearchStats) AddExecutions(n int) {
	atomic.AddInt64(&s.Executions, int64(n))
}

// IncrementAccepted atomically increments the accepted counter
func (s *SearchStats) IncrementAccepted() {
	atomic.AddInt64(&s.Accepted, 1)
}

// IncrementImprovements atomically increments the improvement counter
func (s *SearchStats) IncrementImprovements() {
	atomic.AddInt64(&s.Improvements, 1)
}

// Snapshot returns a consistent copy of the counters
func (s *SearchStats) Snapshot() SearchStats {
	return SearchStats{
		Iterations:   atomic.LoadInt64(&s.Iterations),
		Executions:   atomic.LoadInt64(&s.Executions),
		Accepted:     atomic.LoadInt64(&s.Accepted),
		Improvements: atomic.LoadInt64(&s.Improvements),
	}
}

// PhaseStats summarizes one annealing phase
type PhaseStats struct {
	Phase      Phase         `json:"phase" yaml:"phase"`
	Inputs     int           `json:"inputs" yaml:"inputs"`
	Iterations int           `json:"iterations" yaml:"iterations"`
	Executions int           `json:"executions" yaml:"executions"`
	Score      float64       `json:"score" yaml:"score"`
	Elapsed    time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Improvement is a strict score decrease inside a phase
type Improvement struct {
	Phase     Phase
	Iteration int
	From      float64
	To        float64
}

// SearchResult is the outcome of a search
type SearchResult struct {
	RunID      string        `json:"run_id"`     // Unique identifier of the run
	Program    *ir.Program   `json:"-"`          // Best program found
	Score      float64       `json:"score"`      // Score on all inputs, 0 is an exact match
	Iterations int           `json:"iterations"` // Mutations scored over all phases
	Executions int           `json:"executions"` // Candidate recordings over all phases
	Inputs     int           `json:"inputs"`     // Inputs the final score covers
	Categories int           `json:"categories"` // Input categories found
	Proposals  int           `json:"proposals"`  // Structure proposals considered
	Elapsed    time.Duration `json:"elapsed"`    // Wall time of the search
	Phases     []PhaseStats  `json:"phases"`     // Per-phase statistics
}

// add folds a phase into the result counters
func (r *SearchResult) add(ps PhaseStats) {
	r.Iterations += ps.Iterations
	r.Executions += ps.Executions
	r.Phases = append(r.Phases, ps)
}

// ExecutionsPerSecond reports the candidate recording rate
func (r *SearchResult) ExecutionsPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Executions) / r.Elapsed.Seconds()
}

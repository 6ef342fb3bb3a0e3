/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: reporter.go
Description: Reporter interface and implementations for Mimic search telemetry. Lets callers
follow phase transitions and score improvements while a search runs.
*/

package core

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Reporter defines the interface for telemetry and reporting hooks.
type Reporter interface {
	// OnPhase is called when the search enters a phase.
	OnPhase(phase Phase)
	// OnImprovement is called when an annealing phase finds a strictly better program.
	OnImprovement(imp Improvement)
	// OnPhaseComplete is called when an annealing phase finishes.
	OnPhaseComplete(stats PhaseStats)
}

// LoggerReporter logs search events through logrus.
type LoggerReporter struct {
	logger *logrus.Logger
}

// NewLoggerReporter creates a new LoggerReporter.
func NewLoggerReporter(logger *logrus.Logger) *LoggerReporter {
	return &LoggerReporter{logger: logger}
}

// OnPhase logs the phase transition.
func (r *LoggerReporter) OnPhase(phase Phase) {
	r.logger.WithFields(logrus.Fields{"phase": phase}).Info("Entering search phase")
}

// OnImprovement logs score improvements at debug level.
func (r *LoggerReporter) OnImprovement(imp Improvement) {
	r.logger.WithFields(logrus.Fields{
		"phase":     imp.Phase,
		"iteration": imp.Iteration,
		"from":      imp.From,
		"to":        imp.To,
	}).Debug("Score improved")
}

// OnPhaseComplete logs the phase summary.
func (r *LoggerReporter) OnPhaseComplete(stats PhaseStats) {
	r.logger.WithFields(logrus.Fields{
		"phase":      stats.Phase,
		"inputs":     stats.Inputs,
		"iterations": stats.Iterations,
		"score":      stats.Score,
		"elapsed":    stats.Elapsed,
	}).Info("Search phase complete")
}

// RecordingReporter keeps every event in memory, used by tests and reports.
// Category searches report concurrently, so appends are serialized.
type RecordingReporter struct {
	mu           sync.Mutex
	Phases       []Phase
	Improvements []Improvement
	Completed    []PhaseStats
}

// NewRecordingReporter creates an empty RecordingReporter.
func NewRecordingReporter() *RecordingReporter {
	return &RecordingReporter{}
}

func (r *RecordingReporter) OnPhase(phase Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Phases = append(r.Phases, phase)
}

func (r *RecordingReporter) OnImprovement(imp Improvement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Improvements = append(r.Improvements, imp)
}

func (r *RecordingReporter) OnPhaseComplete(stats PhaseStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Completed = append(r.Completed, stats)
}

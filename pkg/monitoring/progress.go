/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: progress.go
Description: Progress monitoring for long running searches. Periodically samples the engine
counters and the Go runtime, logs the execution rate and raises alerts when the heap or the
goroutine count crosses its threshold.
*/

package monitoring

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/kleascm/akaylee-mimic/pkg/core"
	"github.com/sirupsen/logrus"
)

// Sample is one observation of a running search
type Sample struct {
	Timestamp           time.Time `json:"timestamp"`
	Iterations          int64     `json:"iterations"`
	Executions          int64     `json:"executions"`
	Accepted            int64     `json:"accepted"`
	Improvements        int64     `json:"improvements"`
	ExecutionsPerSecond float64   `json:"executions_per_second"` // Since the previous sample
	HeapAlloc           uint64    `json:"heap_alloc"`
	GoRoutines          int       `json:"go_routines"`
}

// AlertThresholds defines thresholds for resource alerts
type AlertThresholds struct {
	HeapHigh       uint64 `json:"heap_high"`        // Heap usage threshold (bytes)
	GoRoutinesHigh int    `json:"go_routines_high"` // Goroutine count threshold
}

// Alert reports a resource threshold crossing
type Alert struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"` // heap_high, goroutines_high
	Message   string    `json:"message"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
}

// StatsSource reads the counters of a running search
type StatsSource func() core.SearchStats

// SearchMonitor samples a search at a fixed interval
type SearchMonitor struct {
	source      StatsSource
	interval    time.Duration
	historySize int
	thresholds  AlertThresholds

	history []Sample
	alerts  []Alert
	last    Sample

	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex

	logger *logrus.Logger
}

// NewSearchMonitor creates a monitor reading source every interval
func NewSearchMonitor(source StatsSource, interval time.Duration, logger *logrus.Logger) *SearchMonitor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &SearchMonitor{
		source:      source,
		interval:    interval,
		historySize: 1000,
		thresholds: AlertThresholds{
			HeapHigh:       1 << 30, // 1GB heap
			GoRoutinesHigh: 10000,
		},
		logger: logger,
	}
}

// SetAlertThresholds replaces the alert thresholds
func (m *SearchMonitor) SetAlertThresholds(thresholds AlertThresholds) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thresholds = thresholds
}

// Start begins sampling until ctx is done or Stop is called
func (m *SearchMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("search monitor already running")
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.running = true
	m.last = Sample{Timestamp: time.Now()}

	m.wg.Add(1)
	go m.loop(ctx)
	return nil
}

// Stop ends sampling and waits for the sampling goroutine
func (m *SearchMonitor) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return fmt.Errorf("search monitor not running")
	}
	m.running = false
	m.cancel()
	m.mu.Unlock()

	m.wg.Wait()
	return nil
}

func (m *SearchMonitor) loop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collect()
		}
	}
}

// collect takes one sample, logs it and checks the thresholds
func (m *SearchMonitor) collect() Sample {
	stats := m.source()
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	s := Sample{
		Timestamp:    time.Now(),
		Iterations:   stats.Iterations,
		Executions:   stats.Executions,
		Accepted:     stats.Accepted,
		Improvements: stats.Improvements,
		HeapAlloc:    mem.HeapAlloc,
		GoRoutines:   runtime.NumGoroutine(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if elapsed := s.Timestamp.Sub(m.last.Timestamp).Seconds(); elapsed > 0 {
		s.ExecutionsPerSecond = float64(s.Executions-m.last.Executions) / elapsed
	}
	m.last = s
	m.history = append(m.history, s)
	if len(m.history) > m.historySize {
		m.history = m.history[1:]
	}
	m.checkAlerts(s)

	m.logger.WithFields(logrus.Fields{
		"iterations":         s.Iterations,
		"executions":         s.Executions,
		"improvements":       s.Improvements,
		"executions_per_sec": s.ExecutionsPerSecond,
	}).Info("Search progress")
	return s
}

func (m *SearchMonitor) checkAlerts(s Sample) {
	if m.thresholds.HeapHigh > 0 && s.HeapAlloc > m.thresholds.HeapHigh {
		m.addAlert(Alert{
			Timestamp: s.Timestamp,
			Type:      "heap_high",
			Message:   fmt.Sprintf("High heap usage: %d bytes", s.HeapAlloc),
			Value:     float64(s.HeapAlloc),
			Threshold: float64(m.thresholds.HeapHigh),
		})
	}
	if m.thresholds.GoRoutinesHigh > 0 && s.GoRoutines > m.thresholds.GoRoutinesHigh {
		m.addAlert(Alert{
			Timestamp: s.Timestamp,
			Type:      "goroutines_high",
			Message:   fmt.Sprintf("High goroutine count: %d", s.GoRoutines),
			Value:     float64(s.GoRoutines),
			Threshold: float64(m.thresholds.GoRoutinesHigh),
		})
	}
}

func (m *SearchMonitor) addAlert(alert Alert) {
	m.alerts = append(m.alerts, alert)
	m.logger.Warnf("Resource alert: %s - %s", alert.Type, alert.Message)
}

// History returns a copy of the collected samples, oldest first
func (m *SearchMonitor) History() []Sample {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Sample(nil), m.history...)
}

// Alerts returns a copy of the raised alerts
func (m *SearchMonitor) Alerts() []Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Alert(nil), m.alerts...)
}

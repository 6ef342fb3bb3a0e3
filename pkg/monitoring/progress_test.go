/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: progress_test.go
Description: Tests for the search progress monitor.
*/

package monitoring

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kleascm/akaylee-mimic/pkg/core"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// TestCollect tests sampling, history bounds and alerts
func TestCollect(t *testing.T) {
	var executions int64
	source := func() core.SearchStats {
		return core.SearchStats{Iterations: 10, Executions: atomic.AddInt64(&executions, 100)}
	}
	m := NewSearchMonitor(source, time.Second, quietLogger())
	m.historySize = 2
	m.last = Sample{Timestamp: time.Now().Add(-time.Second)}

	s := m.collect()
	assert.EqualValues(t, 100, s.Executions)
	assert.Greater(t, s.ExecutionsPerSecond, 0.0)
	assert.Empty(t, m.Alerts())

	m.SetAlertThresholds(AlertThresholds{HeapHigh: 1, GoRoutinesHigh: 0})
	m.collect()
	m.collect()

	history := m.History()
	require.Len(t, history, 2)
	assert.EqualValues(t, 200, history[0].Executions)
	assert.EqualValues(t, 300, history[1].Executions)

	alerts := m.Alerts()
	require.Len(t, alerts, 2)
	assert.Equal(t, "heap_high", alerts[0].Type)
}

// TestStartStop tests the sampling goroutine lifecycle
func TestStartStop(t *testing.T) {
	var calls int64
	source := func() core.SearchStats {
		atomic.AddInt64(&calls, 1)
		return core.SearchStats{}
	}
	m := NewSearchMonitor(source, 5*time.Millisecond, quietLogger())

	require.NoError(t, m.Start(context.Background()))
	assert.Error(t, m.Start(context.Background()))
	assert.Eventually(t, func() bool { return atomic.LoadInt64(&calls) >= 2 }, time.Second, time.Millisecond)
	require.NoError(t, m.Stop())
	assert.Error(t, m.Stop())

	n := atomic.LoadInt64(&calls)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, atomic.LoadInt64(&calls))
}

package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_IncAndSnapshot(t *testing.T) {
	m := NewMetrics()
	m.Inc(MetricForwarded)
	m.Inc(MetricForwarded)
	m.Inc(MetricFiltered)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap[MetricForwarded])
	assert.Equal(t, int64(1), snap[MetricFiltered])
	assert.Contains(t, snap, "uptime_seconds")

	// Snapshot is a copy.
	snap[MetricForwarded] = 1000
	assert.Equal(t, int64(2), m.Get(MetricForwarded))
}

func TestMetrics_ConcurrentInc(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Inc(MetricReceived)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(100), m.Get(MetricReceived))
}

package service

import (
	"sync"
	"time"
)

// Counter names exposed on the metrics endpoint.
const (
	MetricForwarded      = "messages_forwarded"
	MetricReceived       = "messages_received"
	MetricFiltered       = "messages_filtered"
	MetricRecovered      = "topics_recovered"
	MetricFailed         = "messages_failed"
	MetricMediaTransfers = "media_transfers"
)

// Metrics is a small set of process-local counters. No external metrics
// backend; the snapshot is served as JSON from the health server.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
	started  time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{
		counters: make(map[string]int64),
		started:  time.Now(),
	}
}

func (m *Metrics) Inc(name string) {
	m.mu.Lock()
	m.counters[name]++
	m.mu.Unlock()
}

func (m *Metrics) Get(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

// Snapshot returns a copy of the counters plus uptime in seconds.
func (m *Metrics) Snapshot() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]int64, len(m.counters)+1)
	for k, v := range m.counters {
		out[k] = v
	}
	out["uptime_seconds"] = int64(time.Since(m.started).Seconds())
	return out
}

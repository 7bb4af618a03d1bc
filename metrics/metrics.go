// Package metrics keeps in-memory counters for provider attempts. The
// numbers feed the stats endpoint; nothing here is persisted or exported.
package metrics

import (
	"sync"
	"time"
)

// ProviderStats is the snapshot of one provider's counters.
type ProviderStats struct {
	Attempts     int64 `json:"attempts"`
	Successes    int64 `json:"successes"`
	Failures     int64 `json:"failures"`
	AvgLatencyMS int64 `json:"avgLatencyMs"`
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Requests  int64                    `json:"requests"`
	Providers map[string]ProviderStats `json:"providers"`
}

// Collector accumulates provider attempt counters.
//
// Thread Safety: all methods are safe for concurrent use.
type Collector struct {
	mu        sync.Mutex
	requests  int64
	providers map[string]*providerCounters
}

type providerCounters struct {
	attempts  int64
	successes int64
	failures  int64
	totalMS   int64
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{providers: make(map[string]*providerCounters)}
}

// RecordRequest counts one incoming generation request.
func (c *Collector) RecordRequest() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests++
}

// RecordAttempt counts one provider attempt and its latency.
func (c *Collector) RecordAttempt(provider string, succeeded bool, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	counters, ok := c.providers[provider]
	if !ok {
		counters = &providerCounters{}
		c.providers[provider] = counters
	}

	counters.attempts++
	if succeeded {
		counters.successes++
	} else {
		counters.failures++
	}
	counters.totalMS += elapsed.Milliseconds()
}

// Snapshot returns a copy of the current counters.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := Snapshot{
		Requests:  c.requests,
		Providers: make(map[string]ProviderStats, len(c.providers)),
	}
	for provider, counters := range c.providers {
		stats := ProviderStats{
			Attempts:  counters.attempts,
			Successes: counters.successes,
			Failures:  counters.failures,
		}
		if counters.attempts > 0 {
			stats.AvgLatencyMS = counters.totalMS / counters.attempts
		}
		snapshot.Providers[provider] = stats
	}
	return snapshot
}

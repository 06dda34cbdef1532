// Package metrics aggregates per-run counters and latency figures for the
// end-of-run summary, with optional Prometheus exposure for long scans.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ipintel/ipintel/pkg/retry"
)

// Collector accumulates scan statistics. Safe for concurrent use.
type Collector struct {
	total        atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64
	retries      atomic.Int64
	bytesRead    atomic.Int64
	requestsSent atomic.Int64

	classMu sync.Mutex
	classes map[retry.Class]int64

	latMu     sync.Mutex
	latencies []time.Duration

	started time.Time
}

// NewCollector creates a collector stamped with the run start time.
func NewCollector() *Collector {
	return &Collector{
		classes: make(map[retry.Class]int64),
		started: time.Now(),
	}
}

// RecordOutcome counts one finished target under its final classification.
func (c *Collector) RecordOutcome(class retry.Class) {
	c.total.Add(1)
	c.classMu.Lock()
	c.classes[class]++
	c.classMu.Unlock()
}

// RecordCacheHit counts a lookup served from cache.
func (c *Collector) RecordCacheHit() { c.cacheHits.Add(1) }

// RecordCacheMiss counts a lookup that went to the network.
func (c *Collector) RecordCacheMiss() { c.cacheMisses.Add(1) }

// RecordRetry counts one retry attempt.
func (c *Collector) RecordRetry() { c.retries.Add(1) }

// RecordRequest counts one HTTP request and its latency and body size.
func (c *Collector) RecordRequest(latency time.Duration, bytes int64) {
	c.requestsSent.Add(1)
	c.bytesRead.Add(bytes)
	c.latMu.Lock()
	c.latencies = append(c.latencies, latency)
	c.latMu.Unlock()
}

// Summary is an immutable snapshot of a run's statistics.
type Summary struct {
	Total        int64
	ByClass      map[retry.Class]int64
	CacheHits    int64
	CacheMisses  int64
	Retries      int64
	RequestsSent int64
	BytesRead    int64
	Elapsed      time.Duration
	LatencyP50   time.Duration
	LatencyP95   time.Duration
	LatencyP99   time.Duration
}

// CacheHitRatio returns the fraction of lookups served from cache.
func (s Summary) CacheHitRatio() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total)
}

// Snapshot builds a summary from the counters recorded so far.
func (c *Collector) Snapshot() Summary {
	s := Summary{
		Total:        c.total.Load(),
		CacheHits:    c.cacheHits.Load(),
		CacheMisses:  c.cacheMisses.Load(),
		Retries:      c.retries.Load(),
		RequestsSent: c.requestsSent.Load(),
		BytesRead:    c.bytesRead.Load(),
		Elapsed:      time.Since(c.started),
		ByClass:      make(map[retry.Class]int64),
	}

	c.classMu.Lock()
	for class, n := range c.classes {
		s.ByClass[class] = n
	}
	c.classMu.Unlock()

	c.latMu.Lock()
	lats := make([]time.Duration, len(c.latencies))
	copy(lats, c.latencies)
	c.latMu.Unlock()

	if len(lats) > 0 {
		sort.Slice(lats, func(i, j int) bool { return lats[i] < lats[j] })
		s.LatencyP50 = percentile(lats, 50)
		s.LatencyP95 = percentile(lats, 95)
		s.LatencyP99 = percentile(lats, 99)
	}
	return s
}

// percentile assumes sorted input and uses nearest-rank.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := (len(sorted)*p + 99) / 100
	if idx < 1 {
		idx = 1
	}
	if idx > len(sorted) {
		idx = len(sorted)
	}
	return sorted[idx-1]
}

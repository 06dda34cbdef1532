package metrics

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ipintel/ipintel/pkg/retry"
)

func TestCollectorCountsOutcomes(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	c.RecordOutcome(retry.Success)
	c.RecordOutcome(retry.Success)
	c.RecordOutcome(retry.NoData)
	c.RecordOutcome(retry.RateLimited)

	s := c.Snapshot()
	if s.Total != 4 {
		t.Errorf("Total = %d, want 4", s.Total)
	}
	if s.ByClass[retry.Success] != 2 {
		t.Errorf("success count = %d, want 2", s.ByClass[retry.Success])
	}
	if s.ByClass[retry.NoData] != 1 {
		t.Errorf("no-data count = %d, want 1", s.ByClass[retry.NoData])
	}
}

func TestCacheHitRatio(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	c.RecordCacheHit()
	c.RecordCacheHit()
	c.RecordCacheHit()
	c.RecordCacheMiss()

	if got := c.Snapshot().CacheHitRatio(); got != 0.75 {
		t.Errorf("CacheHitRatio() = %v, want 0.75", got)
	}
}

func TestCacheHitRatioEmpty(t *testing.T) {
	t.Parallel()

	if got := NewCollector().Snapshot().CacheHitRatio(); got != 0 {
		t.Errorf("CacheHitRatio() = %v on empty collector, want 0", got)
	}
}

func TestLatencyPercentiles(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	for i := 1; i <= 100; i++ {
		c.RecordRequest(time.Duration(i)*time.Millisecond, 10)
	}

	s := c.Snapshot()
	if s.LatencyP50 != 50*time.Millisecond {
		t.Errorf("LatencyP50 = %v, want 50ms", s.LatencyP50)
	}
	if s.LatencyP95 != 95*time.Millisecond {
		t.Errorf("LatencyP95 = %v, want 95ms", s.LatencyP95)
	}
	if s.LatencyP99 != 99*time.Millisecond {
		t.Errorf("LatencyP99 = %v, want 99ms", s.LatencyP99)
	}
	if s.BytesRead != 1000 {
		t.Errorf("BytesRead = %d, want 1000", s.BytesRead)
	}
	if s.RequestsSent != 100 {
		t.Errorf("RequestsSent = %d, want 100", s.RequestsSent)
	}
}

func TestCollectorConcurrentRecording(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.RecordOutcome(retry.Success)
				c.RecordRetry()
				c.RecordRequest(time.Millisecond, 1)
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	if s.Total != 1600 {
		t.Errorf("Total = %d, want 1600", s.Total)
	}
	if s.Retries != 1600 {
		t.Errorf("Retries = %d, want 1600", s.Retries)
	}
}

func TestPromExporterServesMetrics(t *testing.T) {
	t.Parallel()

	e := NewPromExporter()
	e.Outcome(retry.Success)
	e.Outcome(retry.NoData)
	e.CacheHit()
	e.Retry()
	e.Request(120 * time.Millisecond)

	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		`ipintel_lookups_total{class="success"} 1`,
		`ipintel_lookups_total{class="no-data"} 1`,
		`ipintel_cache_hits_total 1`,
		`ipintel_retries_total 1`,
		"ipintel_request_duration_seconds",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape output missing %q", want)
		}
	}
}

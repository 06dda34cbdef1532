package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ipintel/ipintel/pkg/cachestore"
	"github.com/ipintel/ipintel/pkg/identity"
	"github.com/ipintel/ipintel/pkg/lookup"
	"github.com/ipintel/ipintel/pkg/metrics"
	"github.com/ipintel/ipintel/pkg/ratelimit"
	"github.com/ipintel/ipintel/pkg/retry"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testExecutor(t *testing.T, srv *httptest.Server) *lookup.Executor {
	t.Helper()
	store := cachestore.Open(cachestore.Config{
		Path: filepath.Join(t.TempDir(), "cache.json"),
		TTL:  time.Hour,
	}, cachestore.WithLogger(discardLogger()))
	pool, err := identity.NewPool(identity.Config{Size: 4})
	if err != nil {
		t.Fatalf("identity.NewPool() error = %v", err)
	}
	exec, err := lookup.NewExecutor(lookup.ExecutorConfig{
		Client:  lookup.NewClient(srv.URL, 5*time.Second),
		Cache:   store,
		Pool:    pool,
		Limiter: ratelimit.New(ratelimit.Config{}),
		Retry:   retry.Config{MaxAttempts: 2, Base: time.Millisecond},
		Logger:  discardLogger(),
	})
	if err != nil {
		t.Fatalf("lookup.NewExecutor() error = %v", err)
	}
	return exec
}

func targetList(n int) []string {
	targets := make([]string, n)
	for i := range targets {
		targets[i] = fmt.Sprintf("10.0.%d.%d", i/256, i%256)
	}
	return targets
}

func TestRunProducesOneResultPerTarget(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ports":[80]}`))
	}))
	defer srv.Close()

	s, err := New(Config{Workers: 4}, testExecutor(t, srv), WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	targets := targetList(25)
	report := s.Start(context.Background(), targets).Wait()

	if len(report.Results) != len(targets) {
		t.Fatalf("got %d results for %d targets", len(report.Results), len(targets))
	}
	if report.StoppedEarly {
		t.Error("StoppedEarly = true for a run that completed")
	}
	if report.ID == uuid.Nil {
		t.Error("run ID is nil")
	}

	seen := make(map[string]bool)
	for _, res := range report.Results {
		if seen[res.IP] {
			t.Errorf("duplicate result for %s", res.IP)
		}
		seen[res.IP] = true
		if res.Class != retry.Success {
			t.Errorf("%s: Class = %v, want Success", res.IP, res.Class)
		}
	}
}

func TestDuplicateTargetsCollapseToOneResult(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	s, err := New(Config{Workers: 2}, testExecutor(t, srv), WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	report := s.Start(context.Background(), []string{"1.1.1.1", "1.1.1.1", "1.1.1.1"}).Wait()
	if len(report.Results) != 1 {
		t.Errorf("got %d results for a single distinct target, want 1", len(report.Results))
	}
}

func TestWorkerBoundRespected(t *testing.T) {
	t.Parallel()

	const workers = 3
	var inFlight, peak atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	s, err := New(Config{Workers: workers}, testExecutor(t, srv), WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s.Start(context.Background(), targetList(20)).Wait()
	if p := peak.Load(); p > workers {
		t.Errorf("peak concurrency = %d, want <= %d", p, workers)
	}
}

func TestRequestStopSkipsRemainingTargets(t *testing.T) {
	t.Parallel()

	var started sync.Once
	release := make(chan struct{})
	firstStarted := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started.Do(func() { close(firstStarted) })
		<-release
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	s, err := New(Config{Workers: 1}, testExecutor(t, srv), WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	run := s.Start(context.Background(), targetList(10))
	<-firstStarted
	run.RequestStop()
	close(release)

	report := run.Wait()
	if !report.StoppedEarly {
		t.Error("StoppedEarly = false after RequestStop")
	}
	if len(report.Results) != 10 {
		t.Fatalf("got %d results, want one per target even when stopped", len(report.Results))
	}

	var skipped int
	for _, res := range report.Results {
		if res.Skipped {
			skipped++
		}
	}
	if skipped == 0 {
		t.Error("no skipped results after an early stop")
	}
	processed := report.Processed()
	if len(processed) != len(report.Results)-skipped {
		t.Errorf("Processed() = %d results, want %d", len(processed), len(report.Results)-skipped)
	}
	if len(processed) >= 10 {
		t.Errorf("Processed() = %d results, want fewer than the 10 submitted", len(processed))
	}
}

func TestStopLetsInFlightLookupFinish(t *testing.T) {
	t.Parallel()

	var started sync.Once
	release := make(chan struct{})
	firstStarted := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started.Do(func() { close(firstStarted) })
		<-release
		w.Write([]byte(`{"ports":[80]}`))
	}))
	defer srv.Close()

	s, err := New(Config{Workers: 1}, testExecutor(t, srv), WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	targets := targetList(10)
	run := s.Start(context.Background(), targets)
	<-firstStarted
	run.RequestStop()
	close(release)

	report := run.Wait()
	byIP := make(map[string]Result, len(report.Results))
	for _, res := range report.Results {
		byIP[res.IP] = res
	}

	// The lookup on the wire when the stop arrived must complete with
	// its real answer, not be aborted into a skip.
	first := byIP[targets[0]]
	if first.Skipped {
		t.Fatalf("in-flight target %s was skipped: err = %v", targets[0], first.Err)
	}
	if first.Class != retry.Success {
		t.Errorf("in-flight target Class = %v, want Success", first.Class)
	}
	if first.Record == nil || len(first.Record.Ports) != 1 {
		t.Errorf("in-flight target lost its response body: %+v", first.Record)
	}

	var skipped int
	for _, res := range report.Results {
		if res.Skipped {
			skipped++
		}
	}
	if skipped != len(targets)-1 {
		t.Errorf("skipped = %d, want %d", skipped, len(targets)-1)
	}
}

func TestResultHandlerSeesEveryTargetOnce(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var mu sync.Mutex
	seen := make(map[string]int)
	s, err := New(Config{Workers: 4}, testExecutor(t, srv),
		WithLogger(discardLogger()),
		WithResultHandler(func(res Result) {
			mu.Lock()
			seen[res.IP]++
			mu.Unlock()
		}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	targets := targetList(12)
	s.Start(context.Background(), targets).Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != len(targets) {
		t.Fatalf("handler saw %d targets, want %d", len(seen), len(targets))
	}
	for ip, n := range seen {
		if n != 1 {
			t.Errorf("handler saw %s %d times", ip, n)
		}
	}
}

func TestPreCachedTargetsSkipNetwork(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(`{"ports":[80]}`))
	}))
	defer srv.Close()

	store := cachestore.Open(cachestore.Config{
		Path: filepath.Join(t.TempDir(), "cache.json"),
		TTL:  time.Hour,
	}, cachestore.WithLogger(discardLogger()))
	store.Put("10.0.0.1", []byte(`{"ip":"10.0.0.1","ports":[22]}`))
	store.Put("10.0.0.2", []byte(`{"ip":"10.0.0.2","ports":[443]}`))

	pool, err := identity.NewPool(identity.Config{Size: 2})
	if err != nil {
		t.Fatalf("identity.NewPool() error = %v", err)
	}
	exec, err := lookup.NewExecutor(lookup.ExecutorConfig{
		Client:  lookup.NewClient(srv.URL, 5*time.Second),
		Cache:   store,
		Pool:    pool,
		Limiter: ratelimit.New(ratelimit.Config{RequestsPerMinute: 100}),
		Retry:   retry.Config{MaxAttempts: 3, Base: time.Millisecond},
		Logger:  discardLogger(),
	})
	if err != nil {
		t.Fatalf("lookup.NewExecutor() error = %v", err)
	}

	s, err := New(Config{Workers: 3}, exec, WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	targets := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4", "10.0.0.5"}
	report := s.Start(context.Background(), targets).Wait()

	if len(report.Results) != 5 {
		t.Fatalf("got %d results, want 5", len(report.Results))
	}
	var cached, fetched int
	for _, res := range report.Results {
		if res.FromCache {
			cached++
		} else {
			fetched++
		}
	}
	if cached != 2 || fetched != 3 {
		t.Errorf("cached = %d, fetched = %d, want 2 and 3", cached, fetched)
	}
	if got := requests.Load(); got != 3 {
		t.Errorf("server saw %d requests, want 3", got)
	}
}

func TestReportCarriesStatsSummary(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	stats := metrics.NewCollector()
	s, err := New(Config{Workers: 2}, testExecutor(t, srv),
		WithLogger(discardLogger()), WithStats(stats))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	report := s.Start(context.Background(), targetList(5)).Wait()
	if report.Summary.Total != 5 {
		t.Errorf("Summary.Total = %d, want 5", report.Summary.Total)
	}
	if report.Summary.ByClass[retry.Success] != 5 {
		t.Errorf("success count = %d, want 5", report.Summary.ByClass[retry.Success])
	}
}

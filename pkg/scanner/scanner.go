// Package scanner fans a target list out over a bounded worker pool and
// aggregates per-target outcomes as they complete.
//
// Every submitted target yields exactly one result. A cooperative stop
// does not lose targets: unprocessed ones are reported as skipped and the
// report carries a stopped-early marker.
package scanner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ipintel/ipintel/pkg/defaults"
	"github.com/ipintel/ipintel/pkg/lookup"
	"github.com/ipintel/ipintel/pkg/metrics"
	"github.com/ipintel/ipintel/pkg/retry"
)

// ErrScanStopped marks targets left unprocessed by a cooperative stop.
var ErrScanStopped = errors.New("scan stopped before target was processed")

// Result is one target's final outcome within a run.
type Result struct {
	lookup.Outcome

	// Skipped is set when the run stopped before this target was tried.
	Skipped bool
}

// Report is the aggregate of one finished run.
type Report struct {
	ID           uuid.UUID
	Results      []Result
	StoppedEarly bool
	Elapsed      time.Duration
	Summary      metrics.Summary
}

// Processed returns only the results of targets the run actually tried,
// leaving out entries synthesized as skipped by an early stop. A stopped
// run's processed set is shorter than the submitted target list.
func (rep Report) Processed() []Result {
	out := make([]Result, 0, len(rep.Results))
	for _, res := range rep.Results {
		if !res.Skipped {
			out = append(out, res)
		}
	}
	return out
}

// Config holds scanner settings.
type Config struct {
	// Workers bounds lookup concurrency.
	Workers int
}

// DefaultConfig returns the stock worker count.
func DefaultConfig() Config {
	return Config{Workers: defaults.Workers}
}

// Scanner dispatches scan runs. One scanner may execute several runs
// sequentially; each run gets its own handle.
type Scanner struct {
	cfg      Config
	exec     *lookup.Executor
	stats    *metrics.Collector
	onResult func(Result)
	logger   *slog.Logger
}

// Option configures the Scanner.
type Option func(*Scanner)

// WithLogger sets the run logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStats attaches a collector whose summary lands in the report.
func WithStats(c *metrics.Collector) Option {
	return func(s *Scanner) { s.stats = c }
}

// WithResultHandler registers a callback invoked once per target in
// completion order, from the aggregator goroutine.
func WithResultHandler(fn func(Result)) Option {
	return func(s *Scanner) { s.onResult = fn }
}

// New creates a scanner around a lookup executor.
func New(cfg Config, exec *lookup.Executor, opts ...Option) (*Scanner, error) {
	if exec == nil {
		return nil, errors.New("scanner: executor is required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.Workers > defaults.WorkersMax {
		cfg.Workers = defaults.WorkersMax
	}
	s := &Scanner{
		cfg:    cfg,
		exec:   exec,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run is a handle to one in-flight scan.
type Run struct {
	ID uuid.UUID

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	started  time.Time

	mu      sync.Mutex
	results []Result
	stopped bool
	summary metrics.Summary
}

// RequestStop asks the run to wind down. In-flight lookups finish; no
// new targets are started and queued ones are reported as skipped. Safe
// to call more than once.
func (r *Run) RequestStop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.stopped = true
		r.mu.Unlock()
		close(r.stop)
	})
}

// stopping reports whether a cooperative stop has been requested.
func (r *Run) stopping() bool {
	select {
	case <-r.stop:
		return true
	default:
		return false
	}
}

// Done is closed when the run has finished aggregating.
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the run finishes and returns its report.
func (r *Run) Wait() Report {
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return Report{
		ID:           r.ID,
		Results:      r.results,
		StoppedEarly: r.stopped,
		Elapsed:      time.Since(r.started),
		Summary:      r.summary,
	}
}

// Start launches a run over the target list and returns its handle
// immediately. Targets are assumed deduplicated by the input layer;
// duplicate completions are dropped defensively.
func (s *Scanner) Start(ctx context.Context, targets []string) *Run {
	run := &Run{
		ID:      uuid.New(),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		started: time.Now(),
	}

	logger := s.logger.With(slog.String("run_id", run.ID.String()))
	logger.Info("scan started",
		slog.Int("targets", len(targets)),
		slog.Int("workers", s.cfg.Workers))

	tasks := make(chan string)
	results := make(chan Result)

	workers := s.cfg.Workers
	if workers > len(targets) {
		workers = len(targets)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for target := range tasks {
				results <- s.process(ctx, run, target)
			}
		}()
	}

	go func() {
		defer close(tasks)
		for _, target := range targets {
			tasks <- target
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	go s.collect(run, logger, results, len(targets))
	return run
}

// process runs one target, converting a stop or cancellation into a
// skip. The stop check happens before Lookup only: a stop never cancels
// the lookup context, so a request already on the wire finishes and its
// answer is kept.
func (s *Scanner) process(ctx context.Context, run *Run, target string) Result {
	if run.stopping() || ctx.Err() != nil {
		return Result{
			Outcome: lookup.Outcome{IP: target, Class: retry.Unclassified, Err: ErrScanStopped},
			Skipped: true,
		}
	}
	out := s.exec.Lookup(ctx, target)
	if errors.Is(out.Err, context.Canceled) {
		return Result{
			Outcome: lookup.Outcome{IP: target, Class: retry.Unclassified, Err: ErrScanStopped},
			Skipped: true,
		}
	}
	return Result{Outcome: out}
}

// collect aggregates results in completion order, enforcing one result
// per target.
func (s *Scanner) collect(run *Run, logger *slog.Logger, results <-chan Result, total int) {
	defer close(run.done)

	seen := make(map[string]bool, total)
	for res := range results {
		if seen[res.IP] {
			logger.Warn("dropping duplicate result", slog.String("ip", res.IP))
			continue
		}
		seen[res.IP] = true

		if s.stats != nil && !res.Skipped {
			s.stats.RecordOutcome(res.Class)
		}
		if s.onResult != nil {
			s.onResult(res)
		}

		run.mu.Lock()
		run.results = append(run.results, res)
		run.mu.Unlock()
	}

	run.mu.Lock()
	if s.stats != nil {
		run.summary = s.stats.Snapshot()
	}
	stopped := run.stopped
	n := len(run.results)
	run.mu.Unlock()

	logger.Info("scan finished",
		slog.Int("results", n),
		slog.Bool("stopped_early", stopped))
}

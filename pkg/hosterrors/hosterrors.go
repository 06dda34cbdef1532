// Package hosterrors tracks consecutive failures against the intelligence
// service and trips a breaker when the service looks unreachable, so a
// large target list fails fast instead of grinding through timeouts.
package hosterrors

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ipintel/ipintel/pkg/defaults"
	"github.com/ipintel/ipintel/pkg/duration"
)

// Config holds breaker thresholds.
type Config struct {
	// Threshold is the consecutive network failure count that trips the
	// breaker (0 disables it).
	Threshold int

	// Expiry is how long a tripped breaker stays open before allowing
	// another probe through.
	Expiry time.Duration
}

// DefaultConfig returns the stock breaker: trips after 5 consecutive
// network failures, reopens after 2 minutes.
func DefaultConfig() Config {
	return Config{
		Threshold: defaults.OutageThreshold,
		Expiry:    duration.OutageExpiry,
	}
}

// Tracker watches consecutive network failures to one upstream service.
// Safe for concurrent use.
type Tracker struct {
	cfg    Config
	logger *slog.Logger

	mu          sync.Mutex
	consecutive int
	trippedAt   time.Time
	tripped     bool
	permanent   bool

	now func() time.Time
}

// Option configures the Tracker.
type Option func(*Tracker)

// WithLogger sets the logger used for breaker state changes.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates a tracker.
func New(cfg Config, opts ...Option) *Tracker {
	t := &Tracker{
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RecordFailure counts one network-level failure. Returns true when this
// failure tripped the breaker.
func (t *Tracker) RecordFailure() bool {
	if t.cfg.Threshold <= 0 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.consecutive++
	if t.tripped || t.consecutive < t.cfg.Threshold {
		return false
	}
	t.tripped = true
	t.trippedAt = t.now()
	t.logger.Warn("service appears unreachable, failing fast",
		slog.Int("consecutive_failures", t.consecutive),
		slog.Duration("retry_after", t.cfg.Expiry))
	return true
}

// MarkPermanent trips the breaker for the rest of the run. Used when the
// service hostname itself does not resolve; no probe can help there.
func (t *Tracker) MarkPermanent() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.permanent {
		return
	}
	t.permanent = true
	t.tripped = true
	t.trippedAt = t.now()
	t.logger.Error("service host does not resolve, failing all remaining targets")
}

// RecordSuccess resets the failure streak and closes the breaker.
func (t *Tracker) RecordSuccess() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.permanent {
		return
	}
	if t.tripped {
		t.logger.Info("service recovered, resuming normal operation")
	}
	t.consecutive = 0
	t.tripped = false
}

// Open reports whether the breaker is currently open. An open breaker
// half-closes after Expiry so one probe can test the service.
func (t *Tracker) Open() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.tripped {
		return false
	}
	if t.permanent {
		return true
	}
	if t.now().Sub(t.trippedAt) >= t.cfg.Expiry {
		// Half-open: let the next request probe, keep the trip state so
		// a failure reopens immediately.
		t.trippedAt = t.now()
		t.consecutive = t.cfg.Threshold - 1
		return false
	}
	return true
}

// Consecutive returns the current failure streak.
func (t *Tracker) Consecutive() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.consecutive
}

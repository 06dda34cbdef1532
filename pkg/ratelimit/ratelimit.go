// Package ratelimit enforces a requests-per-minute ceiling against the
// intelligence API using a sliding window of request timestamps, modeled
// after katana, ffuf, and httpx rate limiting systems.
//
// Many workers may be in flight at once; the governor serializes only the
// rate of outbound requests, not their order. Waiting happens outside the
// window lock so a sleeping worker never blocks the others.
//
// Two optional layers sit under the window: a per-second token bucket
// (golang.org/x/time/rate) that smooths bursts, and a random inter-request
// delay that keeps traffic from looking metronomic. A 429-driven penalty
// adds adaptive slowdown on top.
package ratelimit

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ipintel/ipintel/pkg/defaults"
	"github.com/ipintel/ipintel/pkg/duration"
)

// Config holds rate limiting configuration.
type Config struct {
	// RequestsPerMinute is the sliding-window ceiling (0 = unlimited).
	RequestsPerMinute int

	// RequestsPerSecond adds a smoothing token bucket (0 = disabled).
	RequestsPerSecond int

	// DelayMin and DelayMax bound the random per-request delay applied
	// after a slot is granted. Both zero disables the delay.
	DelayMin time.Duration
	DelayMax time.Duration

	// AdaptiveSlowdown enables the consecutive-429 penalty.
	AdaptiveSlowdown bool
}

// DefaultConfig returns the stock governor: 30 requests per minute with
// adaptive slowdown, no smoothing bucket, no random delay.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: defaults.RequestsPerMinute,
		AdaptiveSlowdown:  true,
	}
}

// Governor grants request slots under the configured ceiling.
// Safe for concurrent use; lifetime is scoped to one scan run.
type Governor struct {
	cfg    Config
	bucket *rate.Limiter

	mu         sync.Mutex
	timestamps []time.Time

	penaltyMu      sync.Mutex
	consecutive429 int
	last429        time.Time

	// Injectable clock and sleep for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a governor for one scan run.
func New(cfg Config) *Governor {
	g := &Governor{
		cfg:   cfg,
		now:   time.Now,
		sleep: sleepCtx,
	}
	if cfg.RequestsPerSecond > 0 {
		g.bucket = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return g
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Wait blocks until issuing one more request stays under the ceiling,
// records the grant timestamp, and returns. Returns early with ctx.Err()
// on cancellation.
func (g *Governor) Wait(ctx context.Context) error {
	if g.bucket != nil {
		if err := g.bucket.Wait(ctx); err != nil {
			return err
		}
	}

	if g.cfg.RequestsPerMinute > 0 {
		if err := g.awaitWindowSlot(ctx); err != nil {
			return err
		}
	}

	if d := g.randomDelay(); d > 0 {
		if err := g.sleep(ctx, d); err != nil {
			return err
		}
	}

	if p := g.penalty(); p > 0 {
		if err := g.sleep(ctx, p); err != nil {
			return err
		}
	}

	return nil
}

// awaitWindowSlot is the sliding-window critical section. The loop
// re-checks after every sleep because concurrent callers may have taken
// slots while this one was waiting.
func (g *Governor) awaitWindowSlot(ctx context.Context) error {
	for {
		g.mu.Lock()
		now := g.now()
		g.prune(now)

		if len(g.timestamps) < g.cfg.RequestsPerMinute {
			g.timestamps = append(g.timestamps, now)
			g.mu.Unlock()
			return nil
		}

		wait := duration.RateWindow - now.Sub(g.timestamps[0])
		g.mu.Unlock()

		if wait < 0 {
			wait = 0
		}
		if err := g.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// prune drops timestamps older than the trailing window. Caller holds mu.
func (g *Governor) prune(now time.Time) {
	cutoff := now.Add(-duration.RateWindow)
	kept := g.timestamps[:0]
	for _, t := range g.timestamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	g.timestamps = kept
}

func (g *Governor) randomDelay() time.Duration {
	if g.cfg.DelayMax <= 0 || g.cfg.DelayMax < g.cfg.DelayMin {
		return 0
	}
	span := g.cfg.DelayMax - g.cfg.DelayMin
	if span == 0 {
		return g.cfg.DelayMin
	}
	return g.cfg.DelayMin + time.Duration(rand.Int64N(int64(span)))
}

// OnRateLimited records a 429 from the service. Each consecutive 429
// deepens the adaptive penalty applied to subsequent waits.
func (g *Governor) OnRateLimited() {
	if !g.cfg.AdaptiveSlowdown {
		return
	}
	g.penaltyMu.Lock()
	g.consecutive429++
	g.last429 = g.now()
	g.penaltyMu.Unlock()
}

// OnSuccess lets the penalty recover once the service has been quiet for
// a full decay interval.
func (g *Governor) OnSuccess() {
	if !g.cfg.AdaptiveSlowdown {
		return
	}
	g.penaltyMu.Lock()
	if g.consecutive429 > 0 && g.now().Sub(g.last429) > duration.PenaltyDecay {
		g.consecutive429--
	}
	g.penaltyMu.Unlock()
}

func (g *Governor) penalty() time.Duration {
	if !g.cfg.AdaptiveSlowdown {
		return 0
	}
	g.penaltyMu.Lock()
	defer g.penaltyMu.Unlock()
	if g.consecutive429 == 0 {
		return 0
	}
	p := time.Duration(g.consecutive429) * duration.PenaltyStep
	if p > duration.PenaltyCap {
		p = duration.PenaltyCap
	}
	return p
}

// Stats reports the governor's current state for end-of-run summaries.
type Stats struct {
	WindowRequests int
	Consecutive429 int
}

// Stats returns a snapshot of the window occupancy and penalty depth.
func (g *Governor) Stats() Stats {
	g.mu.Lock()
	n := len(g.timestamps)
	g.mu.Unlock()

	g.penaltyMu.Lock()
	c := g.consecutive429
	g.penaltyMu.Unlock()

	return Stats{WindowRequests: n, Consecutive429: c}
}

package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/go-json-experiment/json/jsontext"

	"github.com/ipintel/ipintel/pkg/cachestore"
	"github.com/ipintel/ipintel/pkg/hosterrors"
	"github.com/ipintel/ipintel/pkg/identity"
	"github.com/ipintel/ipintel/pkg/jsonutil"
	"github.com/ipintel/ipintel/pkg/metrics"
	"github.com/ipintel/ipintel/pkg/ratelimit"
	"github.com/ipintel/ipintel/pkg/retry"
)

var (
	// ErrAttemptsExhausted means every retry attempt failed.
	ErrAttemptsExhausted = errors.New("retry attempts exhausted")

	// ErrServiceUnavailable means the outage breaker is open.
	ErrServiceUnavailable = errors.New("service unavailable")
)

// Outcome is the final result of one target's lookup.
type Outcome struct {
	IP        string
	Class     retry.Class
	Record    *Record
	FromCache bool
	Attempts  int
	Latency   time.Duration
	Err       error
}

// Executor runs the full per-target pipeline. One executor is shared by
// all scan workers.
type Executor struct {
	client  *Client
	cache   *cachestore.Store
	pool    *identity.Pool
	limiter *ratelimit.Governor
	outage  *hosterrors.Tracker
	stats   *metrics.Collector
	prom    *metrics.PromExporter
	retry   retry.Config
	sleeper retry.Sleeper
	logger  *slog.Logger
}

// ExecutorConfig wires the executor's collaborators. Cache, Pool and
// Limiter are required; Outage, Stats and Prom are optional.
type ExecutorConfig struct {
	Client  *Client
	Cache   *cachestore.Store
	Pool    *identity.Pool
	Limiter *ratelimit.Governor
	Outage  *hosterrors.Tracker
	Stats   *metrics.Collector
	Prom    *metrics.PromExporter
	Retry   retry.Config
	Sleeper retry.Sleeper
	Logger  *slog.Logger
}

// NewExecutor builds an executor from its collaborators.
func NewExecutor(cfg ExecutorConfig) (*Executor, error) {
	if cfg.Client == nil {
		return nil, errors.New("lookup: client is required")
	}
	if cfg.Cache == nil || cfg.Pool == nil || cfg.Limiter == nil {
		return nil, errors.New("lookup: cache, pool and limiter are required")
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = retry.DefaultConfig()
	}
	if cfg.Sleeper == nil {
		cfg.Sleeper = retry.RealSleeper()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Executor{
		client:  cfg.Client,
		cache:   cfg.Cache,
		pool:    cfg.Pool,
		limiter: cfg.Limiter,
		outage:  cfg.Outage,
		stats:   cfg.Stats,
		prom:    cfg.Prom,
		retry:   cfg.Retry,
		sleeper: cfg.Sleeper,
		logger:  cfg.Logger,
	}, nil
}

// cachedNoData is the sentinel payload cached for 404 answers so the
// no-data outcome is replayed from cache like any other.
var cachedNoData = jsontext.Value("null")

// Lookup resolves one address, consulting the cache first. It always
// returns an Outcome; Err is set only for terminal failures.
func (e *Executor) Lookup(ctx context.Context, ip string) Outcome {
	if entry, ok := e.cache.Get(ip); ok {
		e.recordCacheHit()
		out := Outcome{IP: ip, FromCache: true}
		if string(entry.Payload) == "null" {
			out.Class = retry.NoData
			e.recordOutcome(out.Class)
			return out
		}
		var rec Record
		if err := jsonutil.Unmarshal(entry.Payload, &rec); err != nil {
			// Treat an undecodable cached body as a miss and refetch.
			e.logger.Warn("discarding undecodable cache entry",
				slog.String("ip", ip), slog.String("error", err.Error()))
		} else {
			out.Class = retry.Success
			out.Record = &rec
			e.recordOutcome(out.Class)
			return out
		}
	}
	e.recordCacheMiss()
	out := e.fetchWithRetry(ctx, ip)
	// A canceled lookup surfaces as a skip upstream, not an outcome.
	if !errors.Is(out.Err, context.Canceled) {
		e.recordOutcome(out.Class)
	}
	return out
}

func (e *Executor) fetchWithRetry(ctx context.Context, ip string) Outcome {
	out := Outcome{IP: ip, Class: retry.Unclassified}

	for attempt := 0; attempt < e.retry.MaxAttempts; attempt++ {
		out.Attempts = attempt + 1

		if err := ctx.Err(); err != nil {
			out.Err = err
			return out
		}
		if e.outage != nil && e.outage.Open() {
			out.Class = retry.NetworkTransient
			out.Err = ErrServiceUnavailable
			return out
		}
		if err := e.limiter.Wait(ctx); err != nil {
			out.Err = err
			return out
		}

		id := e.pool.Acquire()
		if e.prom != nil {
			e.prom.LookupStarted()
		}
		start := time.Now()
		rec, status, err := e.client.Fetch(ctx, id, ip)
		latency := time.Since(start)
		if e.prom != nil {
			e.prom.LookupFinished()
		}
		e.pool.Release(id)
		e.recordRequest(latency)

		class := retry.Classify(status, err)
		out.Class = class
		out.Latency = latency

		switch class {
		case retry.Success:
			e.onNetworkOK()
			e.cachePut(ip, rec)
			out.Record = rec
			return out

		case retry.NoData:
			e.onNetworkOK()
			e.cache.Put(ip, cachedNoData)
			return out

		case retry.Unclassified:
			if err == nil {
				err = fmt.Errorf("unexpected status %d", status)
			}
			// A DNS failure here is for the service host, not the
			// target: every remaining lookup would fail the same way.
			var dnsErr *net.DNSError
			if e.outage != nil && errors.As(err, &dnsErr) {
				e.outage.MarkPermanent()
			}
			out.Err = err
			e.logger.Warn("lookup failed with unrecognized outcome",
				slog.String("ip", ip),
				slog.Int("status", status),
				slog.String("error", err.Error()))
			return out

		case retry.RateLimited:
			e.limiter.OnRateLimited()

		case retry.NetworkTransient, retry.ServerError:
			if e.outage != nil && class == retry.NetworkTransient {
				e.outage.RecordFailure()
			}
		}

		// Retryable path. Leave the last failure unslept; the loop exit
		// reports exhaustion.
		if attempt == e.retry.MaxAttempts-1 {
			if err == nil {
				err = fmt.Errorf("status %d", status)
			}
			out.Err = fmt.Errorf("%w after %d attempts (%s): %v",
				ErrAttemptsExhausted, out.Attempts, class, err)
			return out
		}

		e.recordRetry()
		delay := e.retry.Backoff(attempt)
		e.logger.Debug("retrying lookup",
			slog.String("ip", ip),
			slog.String("class", class.String()),
			slog.Int("attempt", out.Attempts),
			slog.Duration("backoff", delay))
		if err := e.sleeper.Sleep(ctx, delay); err != nil {
			out.Err = err
			return out
		}
	}

	out.Err = ErrAttemptsExhausted
	return out
}

func (e *Executor) cachePut(ip string, rec *Record) {
	payload, err := jsonutil.Marshal(rec)
	if err != nil {
		e.logger.Warn("could not serialize record for cache",
			slog.String("ip", ip), slog.String("error", err.Error()))
		return
	}
	e.cache.Put(ip, payload)
}

func (e *Executor) onNetworkOK() {
	e.limiter.OnSuccess()
	if e.outage != nil {
		e.outage.RecordSuccess()
	}
}

func (e *Executor) recordOutcome(class retry.Class) {
	if e.prom != nil {
		e.prom.Outcome(class)
	}
}

func (e *Executor) recordCacheHit() {
	if e.stats != nil {
		e.stats.RecordCacheHit()
	}
	if e.prom != nil {
		e.prom.CacheHit()
	}
}

func (e *Executor) recordCacheMiss() {
	if e.stats != nil {
		e.stats.RecordCacheMiss()
	}
	if e.prom != nil {
		e.prom.CacheMiss()
	}
}

func (e *Executor) recordRetry() {
	if e.stats != nil {
		e.stats.RecordRetry()
	}
	if e.prom != nil {
		e.prom.Retry()
	}
}

func (e *Executor) recordRequest(latency time.Duration) {
	if e.stats != nil {
		e.stats.RecordRequest(latency, 0)
	}
	if e.prom != nil {
		e.prom.Request(latency)
	}
}

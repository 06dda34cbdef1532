// Package duration provides canonical time constants for the entire codebase.
//
// Usage:
//
//	ctx, cancel := context.WithTimeout(ctx, duration.ContextShort)
//	cfg.Timeout = duration.HTTPLookup
//
// Do not scatter hardcoded time.Duration literals; reference the
// appropriate constant from this package instead.
package duration

import "time"

// HTTP client timeouts.
const (
	// HTTPLookup is the per-request timeout for intelligence API lookups (15s)
	HTTPLookup = 15 * time.Second

	// DialTimeout bounds TCP connection establishment (10s)
	DialTimeout = 10 * time.Second

	// TLSHandshakeTimeout bounds the TLS handshake (10s)
	TLSHandshakeTimeout = 10 * time.Second
)

// Rate limiting and retry.
const (
	// RateWindow is the trailing window the request-per-minute governor
	// tracks timestamps over (60s)
	RateWindow = time.Minute

	// BackoffBase is the base unit for exponential retry backoff (5s)
	BackoffBase = 5 * time.Second

	// BackoffJitter is the maximum random jitter added to each backoff (5s)
	BackoffJitter = 5 * time.Second

	// PenaltyStep is the extra delay added per consecutive rate-limit
	// response during adaptive slowdown (3s)
	PenaltyStep = 3 * time.Second

	// PenaltyCap bounds the adaptive slowdown penalty (60s)
	PenaltyCap = time.Minute

	// PenaltyDecay is how long after the last rate-limit response the
	// penalty counter starts to recover (60s)
	PenaltyDecay = time.Minute
)

// Cache.
const (
	// CacheTTL is the default lifetime of a persisted lookup result (24h)
	CacheTTL = 24 * time.Hour

	// CacheFlushInterval debounces cache file rewrites during a run (5s)
	CacheFlushInterval = 5 * time.Second
)

// Context/operation timeouts.
const (
	// ContextShort is for quick operations (30s)
	ContextShort = 30 * time.Second

	// OutageExpiry is how long the service-outage breaker stays tripped
	// before allowing another probe (2min)
	OutageExpiry = 2 * time.Minute
)

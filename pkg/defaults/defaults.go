// Package defaults provides canonical default values for the entire codebase.
//
// Usage:
//
//	cfg.Workers = defaults.Workers
//	cfg.RequestsPerMinute = defaults.RequestsPerMinute
//
// Do not hardcode runtime defaults at call sites; reference the
// appropriate constant from this package instead.
package defaults

// Version is the current ipintel version. Overridable at build time via
// -ldflags "-X github.com/ipintel/ipintel/pkg/defaults.Version=x.y.z".
var Version = "1.2.0"

// Concurrency.
const (
	// Workers is the default number of concurrent scan workers (10)
	Workers = 10

	// WorkersMax is the hard ceiling on scan workers (100)
	WorkersMax = 100
)

// Rate limiting.
const (
	// RequestsPerMinute is the default RPM ceiling against the
	// intelligence API (30)
	RequestsPerMinute = 30

	// RequestsPerMinuteMax is the validation ceiling (6000)
	RequestsPerMinuteMax = 6000
)

// Retry.
const (
	// MaxAttempts is the default attempt budget per target (5)
	MaxAttempts = 5

	// MaxAttemptsCeiling is the validation ceiling (20)
	MaxAttemptsCeiling = 20
)

// Identity pool.
const (
	// Identities is the default identity pool size (10)
	Identities = 10

	// IdentitiesMax is the validation ceiling (256)
	IdentitiesMax = 256
)

// Cache.
const (
	// CacheFile is the default persisted cache path
	CacheFile = "ipintel_cache.json"

	// CacheTTLHours is the default entry lifetime in hours (24)
	CacheTTLHours = 24
)

// Lookup service.
const (
	// LookupBaseURL is the InternetDB endpoint queried per target
	LookupBaseURL = "https://internetdb.shodan.io"
)

// Outage breaker.
const (
	// OutageThreshold is the consecutive network-failure count that trips
	// the service-outage breaker (5)
	OutageThreshold = 5
)

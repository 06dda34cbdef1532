// Package config holds the resolved run configuration: built-in defaults,
// overlaid by an optional YAML profile, overlaid by command-line flags.
// Validation fails fast before any network activity.
package config

import (
	"fmt"
	"time"

	"github.com/ipintel/ipintel/pkg/defaults"
	"github.com/ipintel/ipintel/pkg/duration"
	"github.com/ipintel/ipintel/pkg/identity"
)

// Options is the full run configuration after merging all sources.
type Options struct {
	// Targets.
	Targets    []string
	TargetFile string
	Resolve    bool

	// Concurrency and pacing.
	Workers           int
	RequestsPerMinute int
	RequestsPerSecond int
	DelayMin          time.Duration
	DelayMax          time.Duration

	// Identities and transport.
	Identities int
	Proxies    []string
	Timeout    time.Duration
	BaseURL    string

	// Retry schedule.
	MaxAttempts int

	// Cache.
	CachePath string
	CacheTTL  time.Duration
	NoCache   bool

	// Outage breaker.
	OutageThreshold int

	// Output.
	JSONLPath   string
	CSVPath     string
	MetricsAddr string
	Verbose     bool
	NoColor     bool
}

// Default returns the stock configuration.
func Default() Options {
	return Options{
		Workers:           defaults.Workers,
		RequestsPerMinute: defaults.RequestsPerMinute,
		Identities:        defaults.Identities,
		Timeout:           duration.HTTPLookup,
		BaseURL:           defaults.LookupBaseURL,
		MaxAttempts:       defaults.MaxAttempts,
		CachePath:         defaults.CacheFile,
		CacheTTL:          duration.CacheTTL,
		OutageThreshold:   defaults.OutageThreshold,
	}
}

// Validate checks the merged configuration, returning the first problem.
func (o *Options) Validate() error {
	if o.Workers < 1 || o.Workers > defaults.WorkersMax {
		return fmt.Errorf("workers must be between 1 and %d, got %d", defaults.WorkersMax, o.Workers)
	}
	if o.RequestsPerMinute < 0 || o.RequestsPerMinute > defaults.RequestsPerMinuteMax {
		return fmt.Errorf("rate limit must be between 0 and %d requests/minute, got %d",
			defaults.RequestsPerMinuteMax, o.RequestsPerMinute)
	}
	if o.RequestsPerSecond < 0 {
		return fmt.Errorf("requests/second must not be negative, got %d", o.RequestsPerSecond)
	}
	if o.MaxAttempts < 1 || o.MaxAttempts > defaults.MaxAttemptsCeiling {
		return fmt.Errorf("max attempts must be between 1 and %d, got %d",
			defaults.MaxAttemptsCeiling, o.MaxAttempts)
	}
	if o.Identities < 1 || o.Identities > defaults.IdentitiesMax {
		return fmt.Errorf("identity pool size must be between 1 and %d, got %d",
			defaults.IdentitiesMax, o.Identities)
	}
	if o.DelayMin < 0 || o.DelayMax < 0 {
		return fmt.Errorf("delay bounds must not be negative")
	}
	if o.DelayMax > 0 && o.DelayMin > o.DelayMax {
		return fmt.Errorf("delay-min %v exceeds delay-max %v", o.DelayMin, o.DelayMax)
	}
	if o.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", o.Timeout)
	}
	if !o.NoCache {
		if o.CachePath == "" {
			return fmt.Errorf("cache path is empty; use -no-cache to disable caching")
		}
		if o.CacheTTL <= 0 {
			return fmt.Errorf("cache TTL must be positive, got %v", o.CacheTTL)
		}
	}
	if o.OutageThreshold < 0 {
		return fmt.Errorf("outage threshold must not be negative, got %d", o.OutageThreshold)
	}
	for _, p := range o.Proxies {
		if _, err := identity.ParseProxyURL(p); err != nil {
			return fmt.Errorf("proxy %q: %w", p, err)
		}
	}
	return nil
}

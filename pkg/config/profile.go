package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes YAML duration strings like "30s" or "2m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Profile is a YAML configuration overlay. Only fields present in the
// file override the running options, so a profile can be sparse.
type Profile struct {
	Workers           *int      `yaml:"workers"`
	RequestsPerMinute *int      `yaml:"requests_per_minute"`
	RequestsPerSecond *int      `yaml:"requests_per_second"`
	DelayMin          *Duration `yaml:"delay_min"`
	DelayMax          *Duration `yaml:"delay_max"`
	Identities        *int      `yaml:"identities"`
	Proxies           []string  `yaml:"proxies"`
	Timeout           *Duration `yaml:"timeout"`
	BaseURL           *string   `yaml:"base_url"`
	MaxAttempts       *int      `yaml:"max_attempts"`
	CachePath         *string   `yaml:"cache_path"`
	CacheTTL          *Duration `yaml:"cache_ttl"`
	NoCache           *bool     `yaml:"no_cache"`
	OutageThreshold   *int      `yaml:"outage_threshold"`
	JSONLPath         *string   `yaml:"jsonl"`
	CSVPath           *string   `yaml:"csv"`
	MetricsAddr       *string   `yaml:"metrics_addr"`
}

// LoadProfile reads and parses a YAML profile.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return &p, nil
}

// Apply overlays the profile's set fields onto opts.
func (p *Profile) Apply(opts *Options) {
	if p.Workers != nil {
		opts.Workers = *p.Workers
	}
	if p.RequestsPerMinute != nil {
		opts.RequestsPerMinute = *p.RequestsPerMinute
	}
	if p.RequestsPerSecond != nil {
		opts.RequestsPerSecond = *p.RequestsPerSecond
	}
	if p.DelayMin != nil {
		opts.DelayMin = time.Duration(*p.DelayMin)
	}
	if p.DelayMax != nil {
		opts.DelayMax = time.Duration(*p.DelayMax)
	}
	if p.Identities != nil {
		opts.Identities = *p.Identities
	}
	if len(p.Proxies) > 0 {
		opts.Proxies = p.Proxies
	}
	if p.Timeout != nil {
		opts.Timeout = time.Duration(*p.Timeout)
	}
	if p.BaseURL != nil {
		opts.BaseURL = *p.BaseURL
	}
	if p.MaxAttempts != nil {
		opts.MaxAttempts = *p.MaxAttempts
	}
	if p.CachePath != nil {
		opts.CachePath = *p.CachePath
	}
	if p.CacheTTL != nil {
		opts.CacheTTL = time.Duration(*p.CacheTTL)
	}
	if p.NoCache != nil {
		opts.NoCache = *p.NoCache
	}
	if p.OutageThreshold != nil {
		opts.OutageThreshold = *p.OutageThreshold
	}
	if p.JSONLPath != nil {
		opts.JSONLPath = *p.JSONLPath
	}
	if p.CSVPath != nil {
		opts.CSVPath = *p.CSVPath
	}
	if p.MetricsAddr != nil {
		opts.MetricsAddr = *p.MetricsAddr
	}
}

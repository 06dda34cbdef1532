// Package cachestore provides a file-backed TTL cache for intelligence
// lookup results. Entries persist across runs; a stale or absent entry is
// reported as a miss, and a later Put overwrites it. Expired entries are
// never evicted eagerly.
//
// Concurrency model: the in-memory index is guarded by an RWMutex so
// readers do not block each other; file persistence is serialized by the
// same writer lock. Writes go to a temp file and are renamed into place so
// a crash never leaves a half-written cache behind.
package cachestore

import (
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-json-experiment/json/jsontext"

	"github.com/ipintel/ipintel/pkg/duration"
	"github.com/ipintel/ipintel/pkg/jsonutil"
)

// Entry is one persisted lookup result.
type Entry struct {
	Payload   jsontext.Value `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

// Config controls cache behavior.
type Config struct {
	// Path is the cache file location. Empty disables persistence; the
	// cache then lives only for the current run.
	Path string

	// TTL is the entry lifetime. An entry older than TTL is a miss.
	TTL time.Duration

	// FlushInterval debounces file rewrites triggered by Put.
	// Zero means flush on every Put.
	FlushInterval time.Duration
}

// DefaultConfig returns sensible defaults: 24h TTL, 5s flush debounce.
func DefaultConfig() Config {
	return Config{
		Path:          "ipintel_cache.json",
		TTL:           duration.CacheTTL,
		FlushInterval: duration.CacheFlushInterval,
	}
}

// Store is a file-backed TTL cache. Safe for concurrent use.
type Store struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]Entry
	dirty   bool

	lastFlush time.Time

	hits   atomic.Int64
	misses atomic.Int64

	// now is swappable so TTL arithmetic can be tested against a fake clock.
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open loads the cache file at cfg.Path. A missing file yields an empty
// cache. A corrupt or unreadable file is reported once through the logger
// and likewise yields an empty cache; the scan proceeds uncached rather
// than aborting.
func Open(cfg Config, opts ...Option) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = duration.CacheTTL
	}
	s := &Store{
		cfg:     cfg,
		logger:  slog.Default(),
		entries: make(map[string]Entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.Path == "" {
		return s
	}

	data, err := os.ReadFile(cfg.Path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Fresh cache
	case err != nil:
		s.logger.Warn("cache file unreadable, starting empty",
			slog.String("path", cfg.Path),
			slog.String("error", err.Error()))
	default:
		if err := jsonutil.Unmarshal(data, &s.entries); err != nil {
			s.logger.Warn("cache file corrupt, starting empty",
				slog.String("path", cfg.Path),
				slog.String("error", err.Error()))
			s.entries = make(map[string]Entry)
		}
	}

	return s
}

// Get returns the entry for key if present and fresh. A stale entry is
// logically absent: it stays on disk until overwritten but is reported as
// a miss so the caller performs a fresh lookup.
func (s *Store) Get(key string) (Entry, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || s.now().Sub(e.Timestamp) >= s.cfg.TTL {
		s.misses.Add(1)
		return Entry{}, false
	}
	s.hits.Add(1)
	return e, true
}

// Put stores payload under key with the current timestamp, overwriting any
// previous entry, and schedules persistence.
func (s *Store) Put(key string, payload jsontext.Value) {
	s.mu.Lock()
	s.entries[key] = Entry{Payload: payload, Timestamp: s.now()}
	s.dirty = true
	flushDue := s.cfg.FlushInterval == 0 || s.now().Sub(s.lastFlush) >= s.cfg.FlushInterval
	s.mu.Unlock()

	if flushDue {
		if err := s.Flush(); err != nil {
			s.logger.Warn("cache flush failed", slog.String("error", err.Error()))
		}
	}
}

// Flush writes the full cache map to disk if anything changed since the
// last flush. The write is atomic: temp file then rename.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty || s.cfg.Path == "" {
		return nil
	}

	data, err := jsonutil.MarshalIndent(s.entries, "  ")
	if err != nil {
		return err
	}

	tmp := s.cfg.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.cfg.Path); err != nil {
		return err
	}

	s.dirty = false
	s.lastFlush = s.now()
	return nil
}

// Close flushes any pending writes. Call at the end of a run.
func (s *Store) Close() error {
	return s.Flush()
}

// Len returns the number of entries in the in-memory index, including
// stale ones that have not been overwritten yet.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats returns cache hit/miss counts for end-of-run reporting.
func (s *Store) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ipintel/ipintel/pkg/retry"
)

// PromExporter mirrors collector events into a Prometheus registry for
// long-running scans that want live scrape visibility.
type PromExporter struct {
	registry *prometheus.Registry

	outcomes  *prometheus.CounterVec
	cacheHits prometheus.Counter
	cacheMiss prometheus.Counter
	retries   prometheus.Counter
	inFlight  prometheus.Gauge
	latency   prometheus.Histogram
}

// NewPromExporter builds an exporter with its own registry.
func NewPromExporter() *PromExporter {
	e := &PromExporter{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ipintel",
			Name:      "lookups_total",
			Help:      "Finished lookups by final classification.",
		}, []string{"class"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ipintel",
			Name:      "cache_hits_total",
			Help:      "Lookups served from the local cache.",
		}),
		cacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ipintel",
			Name:      "cache_misses_total",
			Help:      "Lookups that went to the network.",
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ipintel",
			Name:      "retries_total",
			Help:      "Retry attempts across all targets.",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ipintel",
			Name:      "lookups_in_flight",
			Help:      "Lookups currently on the wire.",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ipintel",
			Name:      "request_duration_seconds",
			Help:      "Upstream request latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	e.registry.MustRegister(e.outcomes, e.cacheHits, e.cacheMiss, e.retries, e.inFlight, e.latency)
	return e
}

// Handler returns the scrape endpoint handler.
func (e *PromExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Outcome records one finished target.
func (e *PromExporter) Outcome(class retry.Class) {
	e.outcomes.WithLabelValues(class.String()).Inc()
}

// CacheHit records a cache-served lookup.
func (e *PromExporter) CacheHit() { e.cacheHits.Inc() }

// CacheMiss records a network lookup.
func (e *PromExporter) CacheMiss() { e.cacheMiss.Inc() }

// Retry records one retry attempt.
func (e *PromExporter) Retry() { e.retries.Inc() }

// Request records one upstream request latency.
func (e *PromExporter) Request(latency time.Duration) {
	e.latency.Observe(latency.Seconds())
}

// LookupStarted marks one lookup on the wire.
func (e *PromExporter) LookupStarted() { e.inFlight.Inc() }

// LookupFinished marks one lookup off the wire.
func (e *PromExporter) LookupFinished() { e.inFlight.Dec() }

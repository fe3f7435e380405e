// Package metrics provides Prometheus metrics collection for themebake.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "themebake"

// Lookup results.
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultBlank = "blank"
)

// Collector holds all Prometheus metrics for themebake.
// All recording methods are safe on a nil *Collector.
type Collector struct {
	// Lookup metrics
	Lookups         *prometheus.CounterVec
	ComposeDuration prometheus.Histogram

	// Invalidation metrics
	CacheClears            prometheus.Counter
	InvalidationsPublished prometheus.Counter
	PublishErrors          prometheus.Counter
	ResolveTruncated       *prometheus.CounterVec
	PeerMessages           prometheus.Counter

	// HTTP metrics
	RequestDuration *prometheus.HistogramVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
}

// New creates a collector registered with the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		Lookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lookups_total",
				Help:      "Field lookups by cache result",
			},
			[]string{"result"},
		),
		ComposeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "compose_duration_seconds",
				Help:      "Time spent resolving and composing a field on cache miss",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
		CacheClears: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_clears_total",
				Help:      "Total number of bake cache clears",
			},
		),
		InvalidationsPublished: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invalidations_published_total",
				Help:      "Total number of file-change records published",
			},
		),
		PublishErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "publish_errors_total",
				Help:      "Total number of failed invalidation publishes",
			},
		),
		ResolveTruncated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolve_truncated_total",
				Help:      "Graph resolutions stopped by the round cap",
			},
			[]string{"direction"},
		),
		PeerMessages: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "peer_messages_total",
				Help:      "Invalidation messages received from peers",
			},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "status"},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
	}
}

// Lookup records a field lookup outcome.
func (c *Collector) Lookup(result string) {
	if c == nil {
		return
	}
	c.Lookups.WithLabelValues(result).Inc()
}

// Compose records the time taken to build a value on miss.
func (c *Collector) Compose(d time.Duration) {
	if c == nil {
		return
	}
	c.ComposeDuration.Observe(d.Seconds())
}

// CacheCleared counts a bake cache clear.
func (c *Collector) CacheCleared() {
	if c == nil {
		return
	}
	c.CacheClears.Inc()
}

// Published counts n published file-change records.
func (c *Collector) Published(n int) {
	if c == nil {
		return
	}
	c.InvalidationsPublished.Add(float64(n))
}

// PublishFailed counts a failed publish.
func (c *Collector) PublishFailed() {
	if c == nil {
		return
	}
	c.PublishErrors.Inc()
}

// Truncated counts a resolution stopped by the round cap.
func (c *Collector) Truncated(direction string) {
	if c == nil {
		return
	}
	c.ResolveTruncated.WithLabelValues(direction).Inc()
}

// PeerMessage counts a message received from a peer.
func (c *Collector) PeerMessage() {
	if c == nil {
		return
	}
	c.PeerMessages.Inc()
}

// Request records an HTTP request.
func (c *Collector) Request(method, status string, d time.Duration) {
	if c == nil {
		return
	}
	c.RequestDuration.WithLabelValues(method, status).Observe(d.Seconds())
}

// ConfigReloaded records a config reload attempt.
func (c *Collector) ConfigReloaded(err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.ConfigReloadErrors.Inc()
		return
	}
	c.ConfigReloads.Inc()
}

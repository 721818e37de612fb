// Package prometheus exports cache metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	col, err := fcprom.NewCollector(reg, fcprom.WithConstLabels(prometheus.Labels{"cache": "grib"}))
//	c, err := filecache.New(cfg, filecache.WithMetricsCollector(col))
package prometheus

import (
	"time"

	"github.com/hupe1980/filecache"
	prom "github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "filecache"
	subsystem = "cache"
)

var _ filecache.MetricsCollector = (*Collector)(nil)

// Collector implements filecache.MetricsCollector with Prometheus metrics.
type Collector struct {
	acquires        *prom.CounterVec
	acquireDuration *prom.HistogramVec
	releases        *prom.CounterVec
	evictionPasses  prom.Counter
	evicted         prom.Counter
	closeFailures   prom.Counter
	evictDuration   prom.Histogram
	size            prom.Gauge
}

type options struct {
	constLabels prom.Labels
	buckets     []float64
}

// Option configures a Collector.
type Option func(*options)

// WithConstLabels attaches labels to every metric, e.g. to tell caches apart.
func WithConstLabels(labels prom.Labels) Option {
	return func(o *options) { o.constLabels = labels }
}

// WithBuckets overrides the latency histogram buckets (seconds).
func WithBuckets(buckets []float64) Option {
	return func(o *options) { o.buckets = buckets }
}

// NewCollector creates the cache metrics and registers them with reg.
// A nil reg registers with prometheus.DefaultRegisterer.
func NewCollector(reg prom.Registerer, optFns ...Option) (*Collector, error) {
	o := options{buckets: prom.DefBuckets}
	for _, fn := range optFns {
		fn(&o)
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}

	c := &Collector{
		acquires: prom.NewCounterVec(prom.CounterOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "acquires_total",
			Help:        "Total number of acquires by result (hit, miss, error).",
			ConstLabels: o.constLabels,
		}, []string{"result"}),
		acquireDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "acquire_duration_seconds",
			Help:        "Acquire latency by result.",
			ConstLabels: o.constLabels,
			Buckets:     o.buckets,
		}, []string{"result"}),
		releases: prom.NewCounterVec(prom.CounterOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "releases_total",
			Help:        "Total number of releases by result (ok, error).",
			ConstLabels: o.constLabels,
		}, []string{"result"}),
		evictionPasses: prom.NewCounter(prom.CounterOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "eviction_passes_total",
			Help:        "Total number of eviction and clear passes.",
			ConstLabels: o.constLabels,
		}),
		evicted: prom.NewCounter(prom.CounterOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "evictions_total",
			Help:        "Total number of resources removed from the cache.",
			ConstLabels: o.constLabels,
		}),
		closeFailures: prom.NewCounter(prom.CounterOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "close_failures_total",
			Help:        "Total number of resource closes that returned an error.",
			ConstLabels: o.constLabels,
		}),
		evictDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "eviction_duration_seconds",
			Help:        "Duration of eviction and clear passes.",
			ConstLabels: o.constLabels,
			Buckets:     o.buckets,
		}),
		size: prom.NewGauge(prom.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "size",
			Help:        "Current number of cached resources.",
			ConstLabels: o.constLabels,
		}),
	}

	for _, col := range []prom.Collector{
		c.acquires,
		c.acquireDuration,
		c.releases,
		c.evictionPasses,
		c.evicted,
		c.closeFailures,
		c.evictDuration,
		c.size,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RecordAcquire implements filecache.MetricsCollector.
func (c *Collector) RecordAcquire(hit bool, duration time.Duration, err error) {
	result := "miss"
	switch {
	case err != nil:
		result = "error"
	case hit:
		result = "hit"
	}
	c.acquires.WithLabelValues(result).Inc()
	c.acquireDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// RecordRelease implements filecache.MetricsCollector.
func (c *Collector) RecordRelease(err error) {
	if err != nil {
		c.releases.WithLabelValues("error").Inc()
		return
	}
	c.releases.WithLabelValues("ok").Inc()
}

// RecordEviction implements filecache.MetricsCollector.
func (c *Collector) RecordEviction(evicted, failed int, duration time.Duration) {
	c.evictionPasses.Inc()
	c.evicted.Add(float64(evicted))
	c.closeFailures.Add(float64(failed))
	c.evictDuration.Observe(duration.Seconds())
}

// RecordSize implements filecache.MetricsCollector.
func (c *Collector) RecordSize(n int) {
	c.size.Set(float64(n))
}

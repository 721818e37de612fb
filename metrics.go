package filecache

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// metrics/prometheus package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordAcquire is called after each acquire.
	// hit is true when an idle resource was reused, err is nil if successful.
	RecordAcquire(hit bool, duration time.Duration, err error)

	// RecordRelease is called after each release.
	RecordRelease(err error)

	// RecordEviction is called after each eviction or clear pass.
	// evicted is the number of resources removed, failed the number whose
	// close returned an error.
	RecordEviction(evicted, failed int, duration time.Duration)

	// RecordSize is called whenever the number of cached resources changes.
	RecordSize(n int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAcquire(bool, time.Duration, error) {}
func (NoopMetricsCollector) RecordRelease(error)                      {}
func (NoopMetricsCollector) RecordEviction(int, int, time.Duration)   {}
func (NoopMetricsCollector) RecordSize(int)                           {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AcquireCount      atomic.Int64
	AcquireHits       atomic.Int64
	AcquireErrors     atomic.Int64
	AcquireTotalNanos atomic.Int64
	ReleaseCount      atomic.Int64
	ReleaseErrors     atomic.Int64
	EvictionPasses    atomic.Int64
	Evicted           atomic.Int64
	CloseFailures     atomic.Int64
	Size              atomic.Int64
}

// RecordAcquire implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAcquire(hit bool, duration time.Duration, err error) {
	b.AcquireCount.Add(1)
	b.AcquireTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AcquireErrors.Add(1)
		return
	}
	if hit {
		b.AcquireHits.Add(1)
	}
}

// RecordRelease implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRelease(err error) {
	b.ReleaseCount.Add(1)
	if err != nil {
		b.ReleaseErrors.Add(1)
	}
}

// RecordEviction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEviction(evicted, failed int, duration time.Duration) {
	b.EvictionPasses.Add(1)
	b.Evicted.Add(int64(evicted))
	b.CloseFailures.Add(int64(failed))
}

// RecordSize implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSize(n int) {
	b.Size.Store(int64(n))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AcquireCount:    b.AcquireCount.Load(),
		AcquireHits:     b.AcquireHits.Load(),
		AcquireErrors:   b.AcquireErrors.Load(),
		AcquireAvgNanos: b.getAvgAcquireNanos(),
		ReleaseCount:    b.ReleaseCount.Load(),
		ReleaseErrors:   b.ReleaseErrors.Load(),
		EvictionPasses:  b.EvictionPasses.Load(),
		Evicted:         b.Evicted.Load(),
		CloseFailures:   b.CloseFailures.Load(),
		Size:            b.Size.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgAcquireNanos() int64 {
	count := b.AcquireCount.Load()
	if count == 0 {
		return 0
	}
	return b.AcquireTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AcquireCount    int64
	AcquireHits     int64
	AcquireErrors   int64
	AcquireAvgNanos int64
	ReleaseCount    int64
	ReleaseErrors   int64
	EvictionPasses  int64
	Evicted         int64
	CloseFailures   int64
	Size            int64
}

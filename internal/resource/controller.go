package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxConcurrentCloses is the maximum number of resource closes in flight.
	// If 0, defaults to 1.
	MaxConcurrentCloses int64

	// OpenRatePerSec is the maximum number of factory opens per second.
	// If 0, unlimited.
	OpenRatePerSec float64

	// OpenBurst is the token bucket size for opens.
	// If 0, defaults to max(1, OpenRatePerSec).
	OpenBurst int
}

// Controller bounds close concurrency and open rate.
type Controller struct {
	cfg Config

	closeSem *semaphore.Weighted

	openLimiter *rate.Limiter // nil if unlimited

	open atomic.Int64
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentCloses <= 0 {
		cfg.MaxConcurrentCloses = 1
	}

	c := &Controller{
		cfg:      cfg,
		closeSem: semaphore.NewWeighted(cfg.MaxConcurrentCloses),
	}

	if cfg.OpenRatePerSec > 0 {
		burst := cfg.OpenBurst
		if burst <= 0 {
			burst = int(cfg.OpenRatePerSec)
			if burst < 1 {
				burst = 1
			}
		}
		c.openLimiter = rate.NewLimiter(rate.Limit(cfg.OpenRatePerSec), burst)
	}

	return c
}

// MaxConcurrentCloses returns the configured close concurrency.
func (c *Controller) MaxConcurrentCloses() int {
	if c == nil {
		return 1
	}
	return int(c.cfg.MaxConcurrentCloses)
}

// AcquireClose reserves a close slot.
// Blocks if all slots are busy.
func (c *Controller) AcquireClose(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.closeSem.Acquire(ctx, 1)
}

// ReleaseClose releases a close slot.
func (c *Controller) ReleaseClose() {
	if c == nil {
		return
	}
	c.closeSem.Release(1)
}

// WaitOpen blocks until the open rate allows another factory open.
func (c *Controller) WaitOpen(ctx context.Context) error {
	if c == nil || c.openLimiter == nil {
		return nil
	}
	return c.openLimiter.Wait(ctx)
}

// TrackOpen records a handle opened by the cache.
func (c *Controller) TrackOpen() {
	if c == nil {
		return
	}
	c.open.Add(1)
}

// TrackClose records a handle closed by the cache.
func (c *Controller) TrackClose() {
	if c == nil {
		return
	}
	c.open.Add(-1)
}

// OpenHandles returns the number of handles opened and not yet closed.
func (c *Controller) OpenHandles() int64 {
	if c == nil {
		return 0
	}
	return c.open.Load()
}

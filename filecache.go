package filecache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/filecache/internal/directory"
	"github.com/hupe1980/filecache/internal/resource"
	"github.com/hupe1980/filecache/internal/scheduler"
)

type slot = directory.Slot[any, Resource]

// Cache keeps expensive-to-open resources alive across short-lived requests.
//
// Acquire lends a resource exclusively to one caller until Release returns
// it to the pool. Idle resources are evicted least-recently-used first, in
// the background once SoftLimit is exceeded and synchronously once HardLimit
// is exceeded. A Cache owns one background goroutine; call Shutdown (or
// Close) when done with it.
type Cache struct {
	cfg     Config
	dir     *directory.Directory[any, Resource]
	sched   *scheduler.Scheduler
	rc      *resource.Controller
	logger  *Logger
	metrics MetricsCollector
	now     func() time.Time

	// evictMu serializes eviction passes; they scan every bucket.
	evictMu sync.Mutex

	disabled         atomic.Bool
	cleanupScheduled atomic.Bool

	hits        atomic.Int64
	misses      atomic.Int64
	cleanups    atomic.Int64
	evictions   atomic.Int64
	closeErrors atomic.Int64
}

// New creates a cache with the given limits.
func New(cfg Config, optFns ...Option) (*Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		now:              time.Now,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.now == nil {
		o.now = time.Now
	}

	c := &Cache{
		cfg:     cfg,
		dir:     directory.New[any, Resource](),
		logger:  o.logger,
		metrics: o.metricsCollector,
		now:     o.now,
		rc: resource.NewController(resource.Config{
			MaxConcurrentCloses: int64(cfg.MaxConcurrentCloses),
			OpenRatePerSec:      cfg.OpenRateLimit,
		}),
	}
	c.sched = scheduler.New(cfg.Period, func() {
		c.runEviction(context.Background(), cfg.SoftLimit)
	})

	return c, nil
}

// Config returns the limits the cache was created with.
func (c *Cache) Config() Config {
	return c.cfg
}

// Acquire returns a resource for key, reusing an idle one when possible and
// opening a new one with factory otherwise. A nil key defaults to location.
//
// The caller owns the resource exclusively until it calls Release. While
// the cache is disabled the resource is not registered and the caller must
// Close it directly; use Lease to not have to care.
//
// Acquire only fails when the factory fails (*ErrOpen), when ctx is done
// once the factory returns (ErrCanceled), or on misuse (ErrInvalidKey,
// ErrNotComparable, ErrDuplicateResource).
func (c *Cache) Acquire(ctx context.Context, factory Factory, key any, location string, params any) (Resource, error) {
	r, _, err := c.acquire(ctx, factory, key, location, params)
	return r, err
}

// acquire reports whether the returned resource is registered with the cache.
func (c *Cache) acquire(ctx context.Context, factory Factory, key any, location string, params any) (Resource, bool, error) {
	start := time.Now()
	if key == nil {
		key = location
	}
	if !isComparable(key) {
		return nil, false, fmt.Errorf("%w: %T", ErrInvalidKey, key)
	}

	if c.disabled.Load() {
		r, err := c.open(ctx, factory, key, location, params)
		c.metrics.RecordAcquire(false, time.Since(start), err)
		c.logger.LogAcquire(ctx, key, location, false, err)
		return r, false, err
	}

	if s, ok := c.dir.Lease(key); ok {
		c.hits.Add(1)
		r := s.Resource()
		if err := r.Sync(); err != nil {
			c.logger.LogSyncFailure(ctx, r.Location(), err)
		}
		c.metrics.RecordAcquire(true, time.Since(start), nil)
		c.logger.LogAcquire(ctx, key, location, true, nil)
		return r, true, nil
	}

	c.misses.Add(1)
	r, err := c.open(ctx, factory, key, location, params)
	if err != nil {
		c.metrics.RecordAcquire(false, time.Since(start), err)
		c.logger.LogAcquire(ctx, key, location, false, err)
		return nil, false, err
	}

	if !c.dir.Insert(directory.NewSlot[any, Resource](key, r, c.now())) {
		err = fmt.Errorf("%w: %s", ErrDuplicateResource, r.Location())
		c.metrics.RecordAcquire(false, time.Since(start), err)
		return nil, false, err
	}
	c.rc.TrackOpen()
	c.metrics.RecordSize(c.dir.Len())

	c.enforceLimits(context.WithoutCancel(ctx))

	c.metrics.RecordAcquire(false, time.Since(start), nil)
	c.logger.LogAcquire(ctx, key, location, false, nil)
	return r, true, nil
}

// open calls the factory without holding any cache lock.
func (c *Cache) open(ctx context.Context, factory Factory, key any, location string, params any) (Resource, error) {
	if err := c.rc.WaitOpen(ctx); err != nil {
		return nil, canceledError(location, err)
	}

	r, err := factory.Open(ctx, location, params)
	if err != nil {
		return nil, &ErrOpen{Key: key, Location: location, cause: err}
	}
	if r == nil {
		return nil, &ErrOpen{Key: key, Location: location, cause: errors.New("factory returned nil resource")}
	}

	if err := ctx.Err(); err != nil {
		c.closeQuietly(ctx, r)
		return nil, canceledError(location, err)
	}
	if !isComparable(r) {
		c.closeQuietly(ctx, r)
		return nil, fmt.Errorf("%w: %T", ErrNotComparable, r)
	}
	return r, nil
}

func (c *Cache) closeQuietly(ctx context.Context, r Resource) {
	if err := r.Close(); err != nil {
		c.logger.LogCloseFailure(ctx, r.Location(), err)
	}
}

// enforceLimits runs right after a registration.
func (c *Cache) enforceLimits(ctx context.Context) {
	n := c.dir.Len()
	switch {
	case c.cfg.HardLimit > 0 && n > c.cfg.HardLimit:
		// Keep the soft path from scheduling a duplicate pass meanwhile.
		c.cleanupScheduled.Store(true)
		c.runEviction(ctx, c.cfg.HardLimit)
	case n > c.cfg.SoftLimit:
		if !c.cleanupScheduled.CompareAndSwap(false, true) {
			return
		}
		scheduled := c.sched.Schedule(c.cfg.ScheduleDelay, func() {
			c.runEviction(context.Background(), c.cfg.SoftLimit)
		})
		if !scheduled {
			c.cleanupScheduled.Store(false)
		}
	}
}

// Release returns a resource obtained from Acquire to the pool.
//
// Releasing a resource the cache does not hold returns ErrNotManaged.
// Releasing a resource that is registered but not on loan is logged and
// otherwise treated as a normal release. While the cache is disabled the
// resource is unregistered if needed and closed.
func (c *Cache) Release(r Resource) error {
	ctx := context.Background()
	if !isComparable(r) {
		c.metrics.RecordRelease(ErrNotManaged)
		return ErrNotManaged
	}

	if c.disabled.Load() {
		if _, ok := c.dir.RemoveResource(r); ok {
			c.rc.TrackClose()
			c.metrics.RecordSize(c.dir.Len())
		}
		err := r.Close()
		c.metrics.RecordRelease(err)
		return err
	}

	s, ok := c.dir.Lookup(r)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrNotManaged, r.Location())
		c.metrics.RecordRelease(err)
		return err
	}

	if prev := s.Return(c.now()); prev != directory.Leased {
		c.logger.LogReleaseAnomaly(ctx, r.Location(), prev.String())
	}
	c.metrics.RecordRelease(nil)
	return nil
}

// Disable turns the cache into a pass-through and closes everything it holds.
func (c *Cache) Disable() {
	c.disabled.Store(true)
	c.ClearCache(true)
}

// Enable resumes caching with the existing configuration.
func (c *Cache) Enable() {
	c.disabled.Store(false)
}

// Disabled reports whether the cache is disabled.
func (c *Cache) Disabled() bool {
	return c.disabled.Load()
}

// Shutdown stops the background scheduler. It is safe to call more than
// once. Cached resources stay open; use Close to also close them.
func (c *Cache) Shutdown() {
	c.sched.Shutdown()
}

// Close shuts the scheduler down and closes every cached resource, including
// resources still on loan. It returns the joined close failures.
func (c *Cache) Close() error {
	c.Shutdown()
	return c.clear(context.Background(), true)
}

package filecache

import (
	"context"
	"sync/atomic"
)

// Lease ties a resource to the cache it came from. Closing the lease hands
// the resource back, so code holding a Lease never needs to know whether the
// cache was enabled when the resource was acquired.
//
//	l, err := c.Lease(ctx, factory, nil, "data/run-42.nc", nil)
//	if err != nil {
//	    return err
//	}
//	defer l.Close()
//
//	ds := l.Resource().(*Dataset)
type Lease struct {
	cache      *Cache
	resource   Resource
	registered bool
	closed     atomic.Bool
}

// Lease acquires a resource like Acquire and wraps it in a Lease.
func (c *Cache) Lease(ctx context.Context, factory Factory, key any, location string, params any) (*Lease, error) {
	r, registered, err := c.acquire(ctx, factory, key, location, params)
	if err != nil {
		return nil, err
	}
	return &Lease{
		cache:      c,
		resource:   r,
		registered: registered,
	}, nil
}

// Resource returns the leased resource. It must not be used after Close.
func (l *Lease) Resource() Resource {
	return l.resource
}

// Close releases the resource back to the cache, or closes it if it was
// never registered. Only the first call has an effect.
func (l *Lease) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	if l.registered {
		return l.cache.Release(l.resource)
	}
	return l.resource.Close()
}

package filecache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/filecache/internal/directory"
	"golang.org/x/sync/errgroup"
)

// runEviction brings the cache towards targetMax by closing idle resources,
// oldest first, but never below MinElements. Passes are serialized.
func (c *Cache) runEviction(ctx context.Context, targetMax int) {
	defer c.cleanupScheduled.Store(false)

	if c.disabled.Load() {
		return
	}

	c.evictMu.Lock()
	defer c.evictMu.Unlock()

	start := time.Now()
	current := c.dir.Len()
	if current <= c.cfg.MinElements {
		return
	}

	claimed := c.claimOldest(current - c.cfg.MinElements)
	if len(claimed) < current-targetMax {
		c.logger.LogEvictionShortfall(ctx, targetMax, current, len(claimed))
	}

	evicted, failed, _ := c.evict(ctx, claimed)
	c.cleanups.Add(1)

	d := time.Since(start)
	c.metrics.RecordEviction(evicted, failed, d)
	c.logger.LogEviction(ctx, targetMax, current, evicted, failed, d)
}

// claimOldest claims up to need free slots, least recently used first.
func (c *Cache) claimOldest(need int) []*slot {
	if need <= 0 {
		return nil
	}

	free := c.dir.FreeSlots()
	sort.SliceStable(free, func(i, j int) bool {
		return free[i].LastAccessed().Before(free[j].LastAccessed())
	})

	claimed := make([]*slot, 0, min(need, len(free)))
	for _, s := range free {
		if len(claimed) >= need {
			break
		}
		// Lost the race to an Acquire; the slot is on loan now.
		if s.TryClaim() {
			claimed = append(claimed, s)
		}
	}
	return claimed
}

// evict unregisters claimed slots and closes their resources.
func (c *Cache) evict(ctx context.Context, claimed []*slot) (evicted, failed int, err error) {
	removed := c.dir.Remove(claimed)
	failed, err = c.closeSlots(ctx, removed)
	c.evictions.Add(int64(len(removed)))
	c.metrics.RecordSize(c.dir.Len())
	return len(removed), failed, err
}

// closeSlots closes the resources of unregistered slots. Every close runs
// regardless of the others failing.
func (c *Cache) closeSlots(ctx context.Context, slots []*slot) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(c.rc.MaxConcurrentCloses())

	for _, s := range slots {
		g.Go(func() error {
			if err := c.rc.AcquireClose(ctx); err == nil {
				defer c.rc.ReleaseClose()
			}

			r := s.Resource()
			err := r.Close()
			c.rc.TrackClose()
			if err != nil {
				c.closeErrors.Add(1)
				c.logger.LogCloseFailure(ctx, r.Location(), err)

				mu.Lock()
				errs = append(errs, fmt.Errorf("close %s: %w", r.Location(), err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return len(errs), errors.Join(errs...)
}

// ClearCache closes cached resources.
//
// With force, the whole cache is detached and every resource is closed,
// including resources still on loan (a warning is logged for each). Without
// force, only idle resources are closed.
func (c *Cache) ClearCache(force bool) {
	_ = c.clear(context.Background(), force)
}

func (c *Cache) clear(ctx context.Context, force bool) error {
	start := time.Now()

	var (
		closed, failed int
		err            error
	)
	if force {
		slots := c.dir.Detach()
		for _, s := range slots {
			if !s.TryClaim() && s.State() == directory.Leased {
				c.logger.LogForcedClose(ctx, s.Resource().Location())
			}
		}
		c.metrics.RecordSize(0)
		closed = len(slots)
		failed, err = c.closeSlots(ctx, slots)
		c.evictions.Add(int64(closed))
	} else {
		c.evictMu.Lock()
		closed, failed, err = c.evict(ctx, c.claimOldest(c.dir.Len()))
		c.evictMu.Unlock()
	}

	c.cleanups.Add(1)
	c.metrics.RecordEviction(closed, failed, time.Since(start))
	c.logger.LogClear(ctx, force, closed, failed)
	return err
}

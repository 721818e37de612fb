// Package resource governs the I/O the handle cache performs on behalf of
// its callers.
//
// The Controller bounds two things:
//
//   - Closes: how many resource closes may run at once across all eviction
//     and clear passes (weighted semaphore).
//   - Opens: how fast factories may open new resources on cache misses
//     (token bucket).
//
// It also keeps a running count of handles the cache has opened and not yet
// closed, which is what a leak check compares against zero.
//
//	rc := resource.NewController(resource.Config{
//	    MaxConcurrentCloses: 4,
//	    OpenRatePerSec:      50,
//	})
//
//	if err := rc.WaitOpen(ctx); err != nil {
//	    return err
//	}
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
package resource

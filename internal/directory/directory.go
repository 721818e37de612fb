package directory

import (
	"sync"
	"sync/atomic"
)

type bucket[K comparable, R comparable] struct {
	key   K
	slots []*Slot[K, R]
}

// Directory indexes slots by cache key and by resource identity.
// Every slot reachable through byKey has exactly one entry in byResource and
// the reverse; both are only mutated together under mu.
type Directory[K comparable, R comparable] struct {
	mu         sync.RWMutex
	byKey      map[K]*bucket[K, R]
	byResource map[R]*Slot[K, R]

	// count mirrors len(byResource); written under mu, read lock-free.
	count atomic.Int64
}

// New creates an empty directory.
func New[K comparable, R comparable]() *Directory[K, R] {
	return &Directory[K, R]{
		byKey:      make(map[K]*bucket[K, R]),
		byResource: make(map[R]*Slot[K, R]),
	}
}

// Len returns the number of registered slots.
func (d *Directory[K, R]) Len() int {
	return int(d.count.Load())
}

// Buckets returns the number of keys with at least one slot.
func (d *Directory[K, R]) Buckets() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byKey)
}

// Lease leases the first free slot registered under key.
func (d *Directory[K, R]) Lease(key K) (*Slot[K, R], bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	b, ok := d.byKey[key]
	if !ok {
		return nil, false
	}
	for _, s := range b.slots {
		if s.TryLease() {
			return s, true
		}
	}
	return nil, false
}

// Insert registers s under its key, creating the bucket on first use.
// It returns false and leaves the directory unchanged when the resource is
// already registered.
func (d *Directory[K, R]) Insert(s *Slot[K, R]) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, dup := d.byResource[s.resource]; dup {
		return false
	}

	b, ok := d.byKey[s.key]
	if !ok {
		b = &bucket[K, R]{key: s.key}
		d.byKey[s.key] = b
	}
	b.slots = append(b.slots, s)
	d.byResource[s.resource] = s
	d.count.Add(1)
	return true
}

// Lookup returns the slot holding r.
func (d *Directory[K, R]) Lookup(r R) (*Slot[K, R], bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.byResource[r]
	return s, ok
}

// FreeSlots returns every slot that is currently free.
// The result is a snapshot; callers must still claim each slot.
func (d *Directory[K, R]) FreeSlots() []*Slot[K, R] {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*Slot[K, R], 0, len(d.byResource))
	for _, b := range d.byKey {
		for _, s := range b.slots {
			if s.State() == Free {
				out = append(out, s)
			}
		}
	}
	return out
}

// Remove unregisters the given slots and prunes buckets left empty.
// Slots that are no longer registered are skipped. It returns the slots that
// were actually removed.
func (d *Directory[K, R]) Remove(slots []*Slot[K, R]) []*Slot[K, R] {
	if len(slots) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	removed := make([]*Slot[K, R], 0, len(slots))
	for _, s := range slots {
		if d.removeLocked(s) {
			removed = append(removed, s)
		}
	}
	return removed
}

// RemoveResource unregisters the slot holding r, whatever its state.
func (d *Directory[K, R]) RemoveResource(r R) (*Slot[K, R], bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.byResource[r]
	if !ok {
		return nil, false
	}
	d.removeLocked(s)
	return s, true
}

func (d *Directory[K, R]) removeLocked(s *Slot[K, R]) bool {
	if cur, ok := d.byResource[s.resource]; !ok || cur != s {
		return false
	}
	delete(d.byResource, s.resource)
	d.count.Add(-1)

	b, ok := d.byKey[s.key]
	if !ok {
		return true
	}
	for i, bs := range b.slots {
		if bs == s {
			last := len(b.slots) - 1
			b.slots[i] = b.slots[last]
			b.slots[last] = nil
			b.slots = b.slots[:last]
			break
		}
	}
	if len(b.slots) == 0 {
		delete(d.byKey, s.key)
	}
	return true
}

// Detach swaps in empty maps and returns every slot that was registered.
func (d *Directory[K, R]) Detach() []*Slot[K, R] {
	d.mu.Lock()
	old := d.byResource
	d.byKey = make(map[K]*bucket[K, R])
	d.byResource = make(map[R]*Slot[K, R])
	d.count.Store(0)
	d.mu.Unlock()

	out := make([]*Slot[K, R], 0, len(old))
	for _, s := range old {
		out = append(out, s)
	}
	return out
}

// Slots returns a snapshot of all registered slots grouped by bucket.
func (d *Directory[K, R]) Slots() []*Slot[K, R] {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*Slot[K, R], 0, len(d.byResource))
	for _, b := range d.byKey {
		out = append(out, b.slots...)
	}
	return out
}

// Consistent reports whether both indexes and the count agree.
func (d *Directory[K, R]) Consistent() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n := 0
	for k, b := range d.byKey {
		if len(b.slots) == 0 || b.key != k {
			return false
		}
		for _, s := range b.slots {
			if d.byResource[s.resource] != s {
				return false
			}
			n++
		}
	}
	return n == len(d.byResource) && int64(n) == d.count.Load()
}

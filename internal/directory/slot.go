package directory

import (
	"sync/atomic"
	"time"
)

// State is the loan/eviction state of a slot.
type State int32

const (
	// Free slots sit idle in the pool and may be leased or claimed.
	Free State = iota
	// Leased slots are on loan to exactly one caller.
	Leased
	// Evicting slots were claimed by the evictor and are being removed.
	Evicting
)

func (s State) String() string {
	switch s {
	case Free:
		return "free"
	case Leased:
		return "leased"
	case Evicting:
		return "evicting"
	default:
		return "unknown"
	}
}

// Slot wraps one open resource together with its state and access statistics.
type Slot[K comparable, R comparable] struct {
	key      K
	resource R
	created  time.Time

	state        atomic.Int32
	lastAccessed atomic.Int64 // unix nanos
	accessCount  atomic.Int64
}

// NewSlot creates a slot that is already leased to the caller that opened it.
func NewSlot[K comparable, R comparable](key K, r R, now time.Time) *Slot[K, R] {
	s := &Slot[K, R]{
		key:      key,
		resource: r,
		created:  now,
	}
	s.state.Store(int32(Leased))
	s.lastAccessed.Store(now.UnixNano())
	return s
}

// Key returns the cache key the slot is registered under.
func (s *Slot[K, R]) Key() K { return s.key }

// Resource returns the wrapped resource.
func (s *Slot[K, R]) Resource() R { return s.resource }

// State returns the current state.
func (s *Slot[K, R]) State() State { return State(s.state.Load()) }

// LastAccessed returns the time of the last release (or creation).
func (s *Slot[K, R]) LastAccessed() time.Time {
	return time.Unix(0, s.lastAccessed.Load())
}

// AccessCount returns how many times the slot has been released.
func (s *Slot[K, R]) AccessCount() int64 { return s.accessCount.Load() }

// Created returns the time the resource was opened.
func (s *Slot[K, R]) Created() time.Time { return s.created }

// TryLease moves a free slot to Leased.
func (s *Slot[K, R]) TryLease() bool {
	return s.state.CompareAndSwap(int32(Free), int32(Leased))
}

// TryClaim moves a free slot to Evicting.
func (s *Slot[K, R]) TryClaim() bool {
	return s.state.CompareAndSwap(int32(Free), int32(Evicting))
}

// Return hands a leased slot back to the pool and records the access.
// It reports the state observed before the call; anything other than Leased
// means the caller released a resource that was not on loan. A free slot
// still gets its access recorded, an evicting slot is left untouched.
func (s *Slot[K, R]) Return(now time.Time) State {
	for {
		prev := State(s.state.Load())
		switch prev {
		case Leased:
			s.touch(now)
			if s.state.CompareAndSwap(int32(Leased), int32(Free)) {
				return Leased
			}
		case Free:
			s.touch(now)
			return Free
		default:
			return prev
		}
	}
}

func (s *Slot[K, R]) touch(now time.Time) {
	s.lastAccessed.Store(now.UnixNano())
	s.accessCount.Add(1)
}

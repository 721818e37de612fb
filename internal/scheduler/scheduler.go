// Package scheduler runs the cache's background maintenance.
//
// A Scheduler owns one worker goroutine. The worker runs a periodic task on
// a fixed interval and at most one outstanding one-shot task, so all
// background work of a cache is serialized on a single goroutine.
package scheduler

import (
	"sync"
	"time"
)

// Scheduler runs a periodic task and single delayed tasks on one goroutine.
type Scheduler struct {
	mu      sync.Mutex
	pending *time.Timer
	closed  bool

	ticker   *time.Ticker
	periodic func()
	fire     chan func()
	stop     chan struct{}
	done     chan struct{}
}

// New starts a scheduler. If period > 0 and periodic is not nil, periodic
// runs every period until Shutdown.
func New(period time.Duration, periodic func()) *Scheduler {
	s := &Scheduler{
		periodic: periodic,
		fire:     make(chan func()),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	if period > 0 && periodic != nil {
		s.ticker = time.NewTicker(period)
	}

	go s.loop()
	return s
}

func (s *Scheduler) loop() {
	defer close(s.done)

	var tick <-chan time.Time
	if s.ticker != nil {
		tick = s.ticker.C
	}

	for {
		select {
		case <-s.stop:
			return
		case <-tick:
			s.periodic()
		case fn := <-s.fire:
			fn()
		}
	}
}

// Schedule runs fn once after delay. It returns false without scheduling
// when another one-shot task is still pending or the scheduler is shut down.
func (s *Scheduler) Schedule(delay time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.pending != nil {
		return false
	}

	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.pending != t {
			// Canceled by Shutdown.
			s.mu.Unlock()
			return
		}
		s.pending = nil
		s.mu.Unlock()

		select {
		case s.fire <- fn:
		case <-s.stop:
		}
	})
	s.pending = t
	return true
}

// Pending reports whether a one-shot task is waiting to run.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Shutdown stops the periodic task, cancels any pending one-shot task and
// waits for the worker to exit. It is safe to call more than once.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stop)
	s.mu.Unlock()

	<-s.done
}

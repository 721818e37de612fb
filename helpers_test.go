package filecache

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeResource records how the cache treats it.
type fakeResource struct {
	id       int
	location string
	factory  *fakeFactory
	closeErr error
	syncErr  error

	closes atomic.Int32
	syncs  atomic.Int32
	onLoan atomic.Bool
}

func (r *fakeResource) Close() error {
	if r.onLoan.Load() && r.factory != nil {
		r.factory.closedOnLoan.Add(1)
	}
	r.closes.Add(1)
	return r.closeErr
}

func (r *fakeResource) Sync() error {
	r.syncs.Add(1)
	return r.syncErr
}

func (r *fakeResource) Location() string { return r.location }

// fakeFactory opens fakeResources and keeps every one it handed out.
type fakeFactory struct {
	mu       sync.Mutex
	opened   []*fakeResource
	err      error
	closeErr map[string]error
	syncErr  error
	onOpen   func(ctx context.Context)

	closedOnLoan atomic.Int32
}

func (f *fakeFactory) Open(ctx context.Context, location string, _ any) (Resource, error) {
	if f.onOpen != nil {
		f.onOpen(ctx)
	}
	if f.err != nil {
		return nil, f.err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	r := &fakeResource{
		id:       len(f.opened),
		location: location,
		factory:  f,
		closeErr: f.closeErr[location],
		syncErr:  f.syncErr,
	}
	f.opened = append(f.opened, r)
	return r, nil
}

func (f *fakeFactory) opens() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.opened)
}

func (f *fakeFactory) all() []*fakeResource {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeResource(nil), f.opened...)
}

// uncomparableResource cannot be used as a map key.
type uncomparableResource struct {
	tags   []string
	closes *atomic.Int32
}

func (r uncomparableResource) Close() error {
	r.closes.Add(1)
	return nil
}
func (r uncomparableResource) Sync() error      { return nil }
func (r uncomparableResource) Location() string { return "uncomparable" }

// syncBuffer is a bytes.Buffer safe for concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func captureLogger() (*Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return NewLogger(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// stepClock returns a strictly increasing time on every call.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestCache(t *testing.T, cfg Config, optFns ...Option) *Cache {
	t.Helper()
	c, err := New(cfg, optFns...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// acquireRelease acquires key and hands it straight back.
func acquireRelease(t *testing.T, c *Cache, f Factory, key string) Resource {
	t.Helper()
	r, err := c.Acquire(context.Background(), f, key, key, nil)
	require.NoError(t, err)
	require.NoError(t, c.Release(r))
	return r
}

func cachedKeys(c *Cache) []any {
	var keys []any
	for _, e := range c.Entries() {
		keys = append(keys, e.Key)
	}
	return keys
}

// quietConfig never evicts on its own unless a limit is crossed.
func quietConfig(minElements, soft, hard int) Config {
	return Config{
		MinElements:   minElements,
		SoftLimit:     soft,
		HardLimit:     hard,
		ScheduleDelay: time.Hour,
	}
}

package filecache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicMetricsCollector(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	f := &fakeFactory{}
	c := newTestCache(t, quietConfig(0, 5, 0), WithMetricsCollector(metrics))
	ctx := context.Background()

	acquireRelease(t, c, f, "A")
	acquireRelease(t, c, f, "A")
	acquireRelease(t, c, f, "B")

	_, err := c.Acquire(ctx, &fakeFactory{err: errors.New("boom")}, "C", "C", nil)
	require.Error(t, err)
	assert.ErrorIs(t, c.Release(&fakeResource{}), ErrNotManaged)

	stats := metrics.GetStats()
	assert.Equal(t, int64(4), stats.AcquireCount)
	assert.Equal(t, int64(1), stats.AcquireHits)
	assert.Equal(t, int64(1), stats.AcquireErrors)
	assert.Equal(t, int64(4), stats.ReleaseCount)
	assert.Equal(t, int64(1), stats.ReleaseErrors)
	assert.Equal(t, int64(2), stats.Size)

	c.ClearCache(false)
	stats = metrics.GetStats()
	assert.Equal(t, int64(1), stats.EvictionPasses)
	assert.Equal(t, int64(2), stats.Evicted)
	assert.Equal(t, int64(0), stats.Size)
}

func TestNoopMetricsCollector(t *testing.T) {
	c := newTestCache(t, quietConfig(0, 5, 0), WithMetricsCollector(nil))
	acquireRelease(t, c, &fakeFactory{}, "A")
	assert.Equal(t, 1, c.Stats().Count)
}

package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Closes(t *testing.T) {
	c := NewController(Config{MaxConcurrentCloses: 2})
	assert.Equal(t, 2, c.MaxConcurrentCloses())

	// Acquire 2
	require.NoError(t, c.AcquireClose(t.Context()))
	require.NoError(t, c.AcquireClose(t.Context()))

	// A third close waits until one is released.
	acquired := make(chan struct{})
	go func() {
		if c.AcquireClose(context.Background()) == nil {
			close(acquired)
		}
	}()
	select {
	case <-acquired:
		t.Fatal("third close acquired while two were held")
	case <-time.After(20 * time.Millisecond):
	}

	c.ReleaseClose()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("third close never acquired")
	}
	c.ReleaseClose()
	c.ReleaseClose()
}

func TestController_AcquireCloseCanceled(t *testing.T) {
	c := NewController(Config{MaxConcurrentCloses: 1})
	require.NoError(t, c.AcquireClose(t.Context()))
	defer c.ReleaseClose()

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireClose(ctx), context.DeadlineExceeded)
}

func TestController_DefaultCloseLimit(t *testing.T) {
	c := NewController(Config{})
	assert.Equal(t, 1, c.MaxConcurrentCloses())
}

func TestController_OpenRate(t *testing.T) {
	c := NewController(Config{OpenRatePerSec: 10, OpenBurst: 1})

	require.NoError(t, c.WaitOpen(t.Context()))

	// The bucket is empty; the next token is ~100ms away.
	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, c.WaitOpen(ctx))
}

func TestController_UnlimitedOpens(t *testing.T) {
	c := NewController(Config{})
	for i := 0; i < 1000; i++ {
		require.NoError(t, c.WaitOpen(t.Context()))
	}
}

func TestController_TrackHandles(t *testing.T) {
	c := NewController(Config{})
	c.TrackOpen()
	c.TrackOpen()
	c.TrackClose()
	assert.Equal(t, int64(1), c.OpenHandles())
}

func TestController_Nil(t *testing.T) {
	var c *Controller
	require.NoError(t, c.AcquireClose(t.Context()))
	c.ReleaseClose()
	require.NoError(t, c.WaitOpen(t.Context()))
	c.TrackOpen()
	assert.Equal(t, int64(0), c.OpenHandles())
	assert.Equal(t, 1, c.MaxConcurrentCloses())
}

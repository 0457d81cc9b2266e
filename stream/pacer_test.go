package stream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacer_SpacesDeliveries(t *testing.T) {
	t.Parallel()

	p := NewPacer(100, 1) // 10ms apart
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 4; i++ {
		require.NoError(t, p.Wait(ctx))
	}
	// First unit is free (burst 1), the remaining three are paced.
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
}

func TestPacer_WaitHonorsCancellation(t *testing.T) {
	t.Parallel()

	p := NewPacer(0.5, 1) // one unit every two seconds
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, p.Wait(ctx)) // burst
	cancel()
	assert.Error(t, p.Wait(ctx))
}

func TestPacer_AllowAndDefaults(t *testing.T) {
	t.Parallel()

	p := NewPacer(-1, 0) // falls back to 10/sec, burst 1
	assert.True(t, p.Allow())
	assert.False(t, p.Allow())
}

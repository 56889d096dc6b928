package common

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterIgnoresInvalidRestrictions(t *testing.T) {
	rl := NewRateLimiter([]Restriction{
		{Requests: 0, Duration: time.Second},
		{Requests: 1, Duration: 0},
		{Requests: 3, Duration: time.Minute},
	})
	assert.Len(t, rl.restrictions, 1)
	assert.Equal(t, time.Minute, rl.duration)
}

func TestRateLimiterAllowsWithinLimit(t *testing.T) {
	rl := NewRateLimiter([]Restriction{{Requests: 3, Duration: time.Hour}})
	for range 3 {
		require.NoError(t, rl.Wait(context.Background()))
	}
	assert.Len(t, rl.history, 3)
}

func TestRateLimiterBlocksUntilContextDone(t *testing.T) {
	rl := NewRateLimiter([]Restriction{{Requests: 1, Duration: time.Hour}})
	require.NoError(t, rl.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := rl.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	// A refused request is not recorded
	assert.Len(t, rl.history, 1)
}

func TestRateLimiterWaitsForWindow(t *testing.T) {
	rl := NewRateLimiter([]Restriction{{Requests: 1, Duration: 30 * time.Millisecond}})
	start := time.Now()
	require.NoError(t, rl.Wait(context.Background()))
	require.NoError(t, rl.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestRateLimiterTrimsHistory(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter([]Restriction{{Requests: 10, Duration: time.Minute}})
	rl.now = func() time.Time { return now }
	rl.history = []time.Time{now.Add(-2 * time.Minute), now.Add(-time.Minute), now.Add(-time.Second)}

	require.NoError(t, rl.Wait(context.Background()))
	assert.Equal(t, []time.Time{now.Add(-time.Second), now}, rl.history)
}

func TestRateLimiterConcurrentWaiters(t *testing.T) {
	rl := NewRateLimiter([]Restriction{{Requests: 100, Duration: time.Hour}})
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, rl.Wait(context.Background()))
		}()
	}
	wg.Wait()
	assert.Len(t, rl.history, 50)
}

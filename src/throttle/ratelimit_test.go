package throttle

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tolerance absorbs float rounding in the token bucket math.
const tolerance = time.Millisecond

func TestRateLimiterFirstGrantIsImmediate(t *testing.T) {
	l := NewRateLimiter(time.Second)
	start := time.Now()
	_, err := l.Wait(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestRateLimiterSpacesSequentialGrants(t *testing.T) {
	const delay = 50 * time.Millisecond
	l := NewRateLimiter(delay)

	var grants []time.Time
	for i := 0; i < 4; i++ {
		g, err := l.Wait(context.Background())
		require.NoError(t, err)
		grants = append(grants, g)
	}
	for i := 1; i < len(grants); i++ {
		assert.GreaterOrEqual(t, grants[i].Sub(grants[i-1]), delay-tolerance)
	}
}

func TestRateLimiterSpacesConcurrentGrants(t *testing.T) {
	const delay = 20 * time.Millisecond
	l := NewRateLimiter(delay)

	var mu sync.Mutex
	var grants []time.Time
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, err := l.Wait(context.Background())
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			grants = append(grants, g)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(grants, func(i, j int) bool { return grants[i].Before(grants[j]) })
	for i := 1; i < len(grants); i++ {
		assert.GreaterOrEqual(t, grants[i].Sub(grants[i-1]), delay-tolerance)
	}
}

func TestRateLimiterNoWaitAfterIdle(t *testing.T) {
	const delay = 20 * time.Millisecond
	l := NewRateLimiter(delay)
	_, err := l.Wait(context.Background())
	require.NoError(t, err)

	time.Sleep(2 * delay)
	start := time.Now()
	_, err = l.Wait(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), delay)
}

func TestRateLimiterDisabled(t *testing.T) {
	l := NewRateLimiter(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		_, err := l.Wait(context.Background())
		require.NoError(t, err)
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, time.Duration(0), l.Delay())
}

func TestRateLimiterGrantsAreMonotonic(t *testing.T) {
	l := NewRateLimiter(5 * time.Millisecond)
	var prev time.Time
	for i := 0; i < 5; i++ {
		grant, err := l.Wait(context.Background())
		require.NoError(t, err)
		assert.False(t, grant.Before(prev))
		prev = grant
	}
}

func TestRateLimiterCancelledWait(t *testing.T) {
	l := NewRateLimiter(time.Hour)
	_, err := l.Wait(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

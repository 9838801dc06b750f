package throttle

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateAcquireWithinCapacity(t *testing.T) {
	g := NewGate(2)

	s1, err := g.Acquire(context.Background())
	require.NoError(t, err)
	s2, err := g.Acquire(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, g.Held())
	assert.Equal(t, 0, g.Waiting())
	assert.Less(t, s1.ID(), s2.ID())

	s1.Release()
	s2.Release()
	assert.Equal(t, 0, g.Held())
}

func TestGateZeroCapacityIsOne(t *testing.T) {
	g := NewGate(0)
	assert.Equal(t, 1, g.Max())
}

func TestGateNeverExceedsMax(t *testing.T) {
	const max = 3
	g := NewGate(max)

	var inFlight, worst int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := g.Acquire(context.Background())
			if err != nil {
				t.Error(err)
				return
			}
			defer s.Release()

			n := atomic.AddInt32(&inFlight, 1)
			for {
				w := atomic.LoadInt32(&worst)
				if n <= w || atomic.CompareAndSwapInt32(&worst, w, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, int(worst), max)
	assert.LessOrEqual(t, g.Peak(), max)
	assert.Equal(t, 0, g.Held())
	assert.Equal(t, 0, g.Waiting())
}

func TestGateServesWaitersInArrivalOrder(t *testing.T) {
	g := NewGate(1)
	first, err := g.Acquire(context.Background())
	require.NoError(t, err)

	const n = 8
	order := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := g.Acquire(context.Background())
			if err != nil {
				t.Error(err)
				return
			}
			order <- i
			s.Release()
		}(i)
		// Enqueue one at a time so arrival order is known.
		require.Eventually(t, func() bool { return g.Waiting() == i+1 }, time.Second, time.Millisecond)
	}

	first.Release()
	wg.Wait()
	close(order)

	var got []int
	for i := range order {
		got = append(got, i)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, got)
}

func TestGateReleaseHandsOffWithoutGap(t *testing.T) {
	g := NewGate(1)
	s, err := g.Acquire(context.Background())
	require.NoError(t, err)

	got := make(chan *Slot, 1)
	go func() {
		next, err := g.Acquire(context.Background())
		if err != nil {
			t.Error(err)
		}
		got <- next
	}()
	require.Eventually(t, func() bool { return g.Waiting() == 1 }, time.Second, time.Millisecond)

	s.Release()
	// The slot went straight to the waiter; it never appeared free.
	assert.Equal(t, 1, g.Held())

	next := <-got
	next.Release()
	assert.Equal(t, 0, g.Held())
}

func TestSlotReleaseIsIdempotent(t *testing.T) {
	g := NewGate(2)
	s1, err := g.Acquire(context.Background())
	require.NoError(t, err)
	s2, err := g.Acquire(context.Background())
	require.NoError(t, err)

	s1.Release()
	s1.Release()
	assert.Equal(t, 1, g.Held())

	s2.Release()
	assert.Equal(t, 0, g.Held())

	var nilSlot *Slot
	assert.NotPanics(t, func() { nilSlot.Release() })
}

func TestGateCancelledWaiterLeavesQueue(t *testing.T) {
	g := NewGate(1)
	s, err := g.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := g.Acquire(ctx)
		errc <- err
	}()
	require.Eventually(t, func() bool { return g.Waiting() == 1 }, time.Second, time.Millisecond)

	cancel()
	err = <-errc
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, g.Waiting())

	s.Release()
	assert.Equal(t, 0, g.Held())
}

func TestGateDoesNotJumpQueue(t *testing.T) {
	g := NewGate(1)
	s, err := g.Acquire(context.Background())
	require.NoError(t, err)

	waiter := make(chan *Slot, 1)
	go func() {
		w, _ := g.Acquire(context.Background())
		waiter <- w
	}()
	require.Eventually(t, func() bool { return g.Waiting() == 1 }, time.Second, time.Millisecond)

	// A newcomer must not get the slot ahead of the queued waiter.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	s.Release()
	w := <-waiter
	require.NotNil(t, w)
	w.Release()
	assert.Equal(t, 0, g.Held())
}

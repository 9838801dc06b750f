// Package throttle governs outbound calls to the generation service: a FIFO
// concurrency gate bounding in-flight calls and a rate limiter spacing their
// grants.
package throttle

import (
	"container/list"
	"context"
	"fmt"
	"sync"
)

// Gate bounds the number of concurrently held slots. Callers that cannot get
// a slot immediately are queued and served strictly in arrival order.
type Gate struct {
	mu      sync.Mutex
	max     int
	held    int
	peak    int
	waiters list.List // of chan *Slot
	seq     uint64
}

// Slot is the permit to have one outbound call in flight.
type Slot struct {
	gate *Gate
	id   uint64
	once sync.Once
}

// NewGate creates a gate that allows at most max slots to be held at once.
// Values below 1 are treated as 1.
func NewGate(max int) *Gate {
	if max < 1 {
		max = 1
	}
	return &Gate{max: max}
}

// Acquire blocks until a slot is available and returns it. The caller owns
// the slot and must call Release exactly once.
//
// A queued caller is only withdrawn when ctx is done; with a context that is
// never cancelled the request stays queued until a slot is handed to it.
func (g *Gate) Acquire(ctx context.Context) (*Slot, error) {
	g.mu.Lock()
	if g.held < g.max && g.waiters.Len() == 0 {
		g.held++
		if g.held > g.peak {
			g.peak = g.held
		}
		s := g.newSlotLocked()
		g.mu.Unlock()
		return s, nil
	}

	ready := make(chan *Slot, 1)
	elem := g.waiters.PushBack(ready)
	g.mu.Unlock()

	select {
	case s := <-ready:
		return s, nil
	case <-ctx.Done():
		g.mu.Lock()
		select {
		case s := <-ready:
			// Granted while we were giving up; pass it on.
			g.mu.Unlock()
			s.Release()
		default:
			g.waiters.Remove(elem)
			g.mu.Unlock()
		}
		return nil, fmt.Errorf("waiting for request slot: %w", ctx.Err())
	}
}

// Release returns the slot to its gate. If callers are queued the slot is
// handed to the oldest one without the held count dropping in between.
// Calling Release more than once is a no-op.
func (s *Slot) Release() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.gate.release()
	})
}

// ID identifies the slot grant; ids increase in grant order.
func (s *Slot) ID() uint64 {
	return s.id
}

func (g *Gate) release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if front := g.waiters.Front(); front != nil {
		g.waiters.Remove(front)
		next := g.newSlotLocked()
		front.Value.(chan *Slot) <- next
		return
	}
	g.held--
}

func (g *Gate) newSlotLocked() *Slot {
	g.seq++
	return &Slot{gate: g, id: g.seq}
}

// Held returns the number of slots currently held.
func (g *Gate) Held() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.held
}

// Waiting returns the number of queued callers.
func (g *Gate) Waiting() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.waiters.Len()
}

// Peak returns the highest number of slots held at once.
func (g *Gate) Peak() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.peak
}

// Max returns the configured capacity.
func (g *Gate) Max() int {
	return g.max
}

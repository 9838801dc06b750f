package throttle

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a minimum spacing between consecutive grants. The
// spacing is measured from grant time, independent of how long the guarded
// call takes.
type RateLimiter struct {
	delay time.Duration
	lim   *rate.Limiter
}

// NewRateLimiter returns a limiter granting at most one call per delay.
// A delay <= 0 disables spacing.
func NewRateLimiter(delay time.Duration) *RateLimiter {
	l := &RateLimiter{delay: delay}
	if delay > 0 {
		l.lim = rate.NewLimiter(rate.Every(delay), 1)
	} else {
		l.lim = rate.NewLimiter(rate.Inf, 1)
	}
	return l
}

// Wait suspends the caller until it may issue its call and returns the grant
// time. Callers are granted in the order they reach the reservation.
func (l *RateLimiter) Wait(ctx context.Context) (time.Time, error) {
	now := time.Now()
	r := l.lim.ReserveN(now, 1)
	if !r.OK() {
		return time.Time{}, fmt.Errorf("rate limiter cannot grant a request")
	}
	grant := now
	if d := r.DelayFrom(now); d > 0 {
		grant = now.Add(d)
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			r.Cancel()
			return time.Time{}, fmt.Errorf("waiting for rate limit: %w", ctx.Err())
		}
	}
	return grant, nil
}

// Delay returns the configured spacing.
func (l *RateLimiter) Delay() time.Duration {
	return l.delay
}

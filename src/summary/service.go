// Package summary orchestrates summary generation: every request takes a
// concurrency slot, waits out the rate gate, calls the generation client and
// gives the slot back on every exit path.
package summary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/elee1766/aisummary/src/throttle"
)

// Generator performs one outbound generation call.
type Generator interface {
	Generate(ctx context.Context, content string) (string, error)
}

// State is the position of a request in its lifecycle.
type State int

const (
	StateQueued State = iota
	StateSlotHeld
	StateRateGated
	StateInFlight
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateSlotHeld:
		return "slot_held"
	case StateRateGated:
		return "rate_gated"
	case StateInFlight:
		return "in_flight"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Observer receives every state transition of every request.
type Observer func(State)

// Options configures a Service.
type Options struct {
	Logger   *slog.Logger
	Observer Observer
}

// Service guards a Generator with a concurrency gate and a rate limiter.
type Service struct {
	gen      Generator
	gate     *throttle.Gate
	limiter  *throttle.RateLimiter
	logger   *slog.Logger
	observer Observer
}

// NewService creates a Service. A nil gate admits one request at a time and a
// nil limiter disables spacing.
func NewService(gen Generator, gate *throttle.Gate, limiter *throttle.RateLimiter, opts Options) *Service {
	if gate == nil {
		gate = throttle.NewGate(1)
	}
	if limiter == nil {
		limiter = throttle.NewRateLimiter(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		gen:      gen,
		gate:     gate,
		limiter:  limiter,
		logger:   logger.With("component", "summary_service"),
		observer: opts.Observer,
	}
}

// GenerateSummary returns the trimmed model output for raw. Generator errors
// are returned unchanged; it is up to the caller to log and skip.
func (s *Service) GenerateSummary(ctx context.Context, raw string) (summary string, err error) {
	s.transition(StateQueued)
	defer func() {
		if err != nil {
			s.transition(StateFailed)
		} else {
			s.transition(StateSucceeded)
		}
	}()

	slot, err := s.gate.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer slot.Release()
	s.transition(StateSlotHeld)

	logger := s.logger.With("slot", slot.ID())

	grant, err := s.limiter.Wait(ctx)
	if err != nil {
		return "", err
	}
	s.transition(StateRateGated)
	logger.Debug("request granted",
		"grant", grant.Format(time.RFC3339Nano),
		"delay", s.limiter.Delay(),
		"held", s.gate.Held(),
		"waiting", s.gate.Waiting())

	s.transition(StateInFlight)
	start := time.Now()
	out, err := s.gen.Generate(ctx, raw)
	if err != nil {
		logger.Debug("generation failed", "error", err, "duration", time.Since(start))
		return "", err
	}
	logger.Debug("generation finished", "duration", time.Since(start))
	return out, nil
}

// Summarize generates a summary and applies Normalize and Validate to it.
func (s *Service) Summarize(ctx context.Context, raw string) ([]string, error) {
	out, err := s.GenerateSummary(ctx, raw)
	if err != nil {
		return nil, err
	}
	items := Normalize(out)
	if err := Validate(items); err != nil {
		return nil, err
	}
	return items, nil
}

// Gate returns the service's concurrency gate.
func (s *Service) Gate() *throttle.Gate {
	return s.gate
}

func (s *Service) transition(st State) {
	if s.observer != nil {
		s.observer(st)
	}
}

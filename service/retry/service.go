package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/elC0mpa/cloud-steward/model"
)

func NewService(cfg Config, opts ...Option) *service {
	if err := cfg.Validate(); err != nil {
		cfg = DefaultConfig()
	}

	s := &service{
		cfg:    cfg,
		sleep:  sleepContext,
		jitter: rand.Float64,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Config() Config {
	return s.cfg
}

// Run executes op until it succeeds, shouldRetry rejects the error, the
// attempts are exhausted or ctx is done. A nil shouldRetry means model.IsRetryable.
func (s *service) Run(ctx context.Context, op func(ctx context.Context) error, shouldRetry ShouldRetryFunc) error {
	_, err := Do(ctx, s, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, shouldRetry)
	return err
}

// Do is the generic form of Run that also returns the operation's value
func Do[T any](ctx context.Context, r Retrier, op func(ctx context.Context) (T, error), shouldRetry ShouldRetryFunc) (T, error) {
	var zero T
	if shouldRetry == nil {
		shouldRetry = model.IsRetryable
	}

	maxAttempts := r.Config().MaxAttempts
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return zero, lastErr
			}
			return zero, err
		}

		value, err := op(ctx)
		if err == nil {
			return value, nil
		}
		lastErr = err

		if !shouldRetry(err) {
			return zero, err
		}

		if attempt == maxAttempts {
			break
		}

		if err := r.wait(ctx, attempt); err != nil {
			return zero, lastErr
		}
	}

	if maxAttempts > 1 {
		return zero, fmt.Errorf("giving up after %d attempts: %w", maxAttempts, lastErr)
	}
	return zero, lastErr
}

// Backoff returns the deterministic part of the wait that follows attempt
func (c Config) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(c.BaseDelay) * math.Pow(c.Multiplier, float64(attempt-1))
	if delay > float64(c.MaxDelay) || math.IsInf(delay, 1) {
		return c.MaxDelay
	}
	return time.Duration(delay)
}

func (s *service) wait(ctx context.Context, attempt int) error {
	delay := s.cfg.Backoff(attempt)
	if s.cfg.JitterCeiling > 0 {
		delay += time.Duration(s.jitter() * float64(s.cfg.JitterCeiling))
	}
	return s.sleep(ctx, delay)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

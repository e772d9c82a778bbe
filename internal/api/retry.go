package api

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryConfig configures caller-side retries of transient failures.
// The client itself never retries; commands opt in through Retry.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// NoRetry performs a single attempt.
var NoRetry = RetryConfig{MaxAttempts: 1}

// Retry calls fn until it succeeds, returns a non-transient error, or the
// attempts are exhausted. Only *NetworkError and *ServiceUnavailableError
// are retried, with exponential backoff and jitter.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := max(cfg.MaxAttempts, 1)
	for attempt := range attempts {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if !shouldRetry(err) {
			return zero, err
		}

		// Last attempt: no sleep.
		if attempt == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoff(cfg, attempt, err)):
		}
	}

	return zero, lastErr
}

func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return IsTransient(err)
}

// backoff computes the wait before the next attempt.
func backoff(cfg RetryConfig, attempt int, err error) time.Duration {
	var unavail *ServiceUnavailableError
	if errors.As(err, &unavail) && unavail.RetryAfter > 0 {
		if cfg.MaxWait > 0 && unavail.RetryAfter > cfg.MaxWait {
			return cfg.MaxWait
		}
		return unavail.RetryAfter
	}

	mult := cfg.Multiplier
	if mult <= 0 {
		mult = 2
	}
	wait := float64(cfg.InitialWait) * math.Pow(mult, float64(attempt))
	if cfg.MaxWait > 0 && wait > float64(cfg.MaxWait) {
		wait = float64(cfg.MaxWait)
	}

	// ±20% jitter.
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}

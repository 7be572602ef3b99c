package client

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// RetryPolicy holds the configuration for retry logic.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration

	// BackoffFactor multiplies the delay after each retry.
	BackoffFactor float64

	// WaitTime, when positive, replaces exponential backoff with a fixed delay.
	WaitTime time.Duration
}

// DefaultRetryPolicy returns the default retry configuration.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Second,
		BackoffFactor:  2,
	}
}

// Delay returns the wait before retry n (1-based): WaitTime when set,
// otherwise InitialBackoff * BackoffFactor^(n-1).
func (p RetryPolicy) Delay(n int) time.Duration {
	if p.WaitTime > 0 {
		return p.WaitTime
	}
	d := float64(p.InitialBackoff)
	for i := 1; i < n; i++ {
		d *= p.BackoffFactor
	}
	return time.Duration(d)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// sleepContext is the default Sleeper.
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

// attemptFunc performs one attempt. A nil error ends the loop successfully;
// otherwise the returned class decides whether the loop continues.
type attemptFunc func(attempt int) (ErrorClass, error)

// retryWithBackoff executes fn until it succeeds, fails with a
// non-retryable class, or MaxAttempts is reached. Retry state lives only in
// this call.
func retryWithBackoff(ctx context.Context, policy RetryPolicy, sleep Sleeper, logger zerolog.Logger, fn attemptFunc) error {
	var lastErr error
	var lastClass ErrorClass

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		class, err := fn(attempt)
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr, lastClass = err, class

		if !shouldRetry(class) {
			return err
		}

		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		}

		if attempt >= policy.MaxAttempts {
			break
		}

		delay := policy.Delay(attempt)
		httpRetriesTotal.WithLabelValues(string(class)).Inc()
		httpRetryBackoffSeconds.WithLabelValues(string(class)).Observe(delay.Seconds())

		logger.Warn().
			Err(err).
			Str("error_class", string(class)).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("Retrying request after backoff")

		if err := sleep(ctx, delay); err != nil {
			logger.Warn().
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %v", ErrContextCancelled, err)
		}
	}

	httpRetryExhaustedTotal.WithLabelValues(string(lastClass)).Inc()
	logger.Error().
		Err(lastErr).
		Int("attempts", policy.MaxAttempts).
		Msg("Request failed after retries")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, policy.MaxAttempts, lastErr)
}

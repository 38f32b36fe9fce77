package resilience

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/pressvec/pressvec-cli/internal/core/domain"
	"github.com/pressvec/pressvec-cli/internal/logger"
)

// Default retry tuning.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 500 * time.Millisecond
	DefaultMaxDelay    = 8 * time.Second
)

// Retry executes fallible operations with exponential backoff and
// jitter. Only errors classified retryable by domain.IsRetryable are
// retried; everything else surfaces immediately. Callers must only
// wrap idempotent operations (embedding requests and upserts are).
type Retry struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// NewRetry creates a policy with the default tuning.
func NewRetry() Retry {
	return Retry{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

// Do invokes op until it succeeds, fails permanently, or the attempt
// budget is exhausted. Between attempts it sleeps
// min(BaseDelay*2^attempt, MaxDelay) with 25% jitter, honouring ctx.
func (r Retry) Do(ctx context.Context, op func() error) error {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = op()
		if lastErr == nil {
			if attempt > 0 {
				logger.Debug("Operation succeeded on attempt %d", attempt+1)
			}
			return nil
		}

		if !domain.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == attempts-1 {
			break
		}

		delay := r.backoff(attempt)
		logger.Debug("Attempt %d/%d failed, retrying in %s: %v",
			attempt+1, attempts, delay, lastErr)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// backoff computes the sleep before the next attempt: exponential from
// BaseDelay, capped at MaxDelay, with a +/-25% jitter so concurrent
// retries spread out.
func (r Retry) backoff(attempt int) time.Duration {
	base := r.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	maxDelay := r.MaxDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}

	delay := base << uint(attempt)
	if delay > maxDelay || delay <= 0 {
		delay = maxDelay
	}

	jitter := 0.75 + rand.Float64()*0.5
	return time.Duration(float64(delay) * jitter)
}

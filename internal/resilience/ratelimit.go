package resilience

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter bounds the outbound request rate to one downstream API using
// a token bucket: bursts up to the capacity, a sustained rate of
// perSecond beyond that. Each downstream dependency gets its own
// instance with dependency-appropriate numbers.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter creates a limiter allowing perSecond sustained requests
// with bursts up to capacity.
func NewLimiter(perSecond float64, capacity int) *Limiter {
	if capacity < 1 {
		capacity = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(perSecond), capacity),
	}
}

// Acquire blocks until one token is available or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// AcquireN blocks until n tokens are available or ctx is done.
func (l *Limiter) AcquireN(ctx context.Context, n int) error {
	return l.limiter.WaitN(ctx, n)
}

// Allow reports whether a request can proceed immediately, consuming a
// token if so.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Tokens returns the number of tokens currently available.
func (l *Limiter) Tokens() float64 {
	return l.limiter.Tokens()
}

// Package ratelimiter throttles repeated background work such as snapshot
// persistence.
package ratelimiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter provides rate limiting using the token bucket algorithm.
//
// This implementation wraps golang.org/x/time/rate. The autosaver uses it to
// bound how often the filesystem snapshot is written: a burst of changes
// can be saved immediately, after which saves happen at most once per
// interval.
//
// Thread safety:
// All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter that refills one token every interval and holds
// at most burst tokens.
//
// Special cases:
//   - interval <= 0: No rate limiting (unlimited)
//   - burst < 1: treated as 1, otherwise Wait could never succeed
//
// Example:
//
//	// At most one save every 2s, allowing 3 back-to-back saves
//	limiter := New(2*time.Second, 3)
func New(interval time.Duration, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}

	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Allow reports whether an event may happen now, consuming a token if so.
//
// This is the fast path - it returns immediately without waiting.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or the context is cancelled.
//
// Returns:
//   - nil if a token was acquired
//   - context error if the context was cancelled before a token was available
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// SetInterval changes the refill interval. interval <= 0 removes the limit.
func (r *RateLimiter) SetInterval(interval time.Duration) {
	if interval <= 0 {
		r.limiter.SetLimit(rate.Inf)
		return
	}
	r.limiter.SetLimit(rate.Every(interval))
}

// SetBurst updates the burst size. Values below 1 are treated as 1.
func (r *RateLimiter) SetBurst(burst int) {
	if burst < 1 {
		burst = 1
	}
	r.limiter.SetBurst(burst)
}

// Tokens returns the current number of available tokens.
//
// This is primarily useful for monitoring and debugging.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}

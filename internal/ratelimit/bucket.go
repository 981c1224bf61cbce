// Package ratelimit throttles callers with a token bucket.
package ratelimit

import (
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultMaxRequests is the bucket capacity used when none is configured.
	DefaultMaxRequests = 5
	// DefaultRefillPeriod is the time needed to refill an empty bucket.
	DefaultRefillPeriod = 60 * time.Second
)

// TokenBucket admits at most MaxRequests calls per RefillPeriod, refilling gradually.
// A non-positive capacity disables throttling.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket constructs a full TokenBucket. A non-positive refill period uses DefaultRefillPeriod.
func NewTokenBucket(maxRequests int, refillPeriod time.Duration) *TokenBucket {
	if maxRequests <= 0 {
		return &TokenBucket{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if refillPeriod <= 0 {
		refillPeriod = DefaultRefillPeriod
	}
	return &TokenBucket{limiter: rate.NewLimiter(rate.Every(refillPeriod/time.Duration(maxRequests)), maxRequests)}
}

// Allow consumes one token if available.
func (bucket *TokenBucket) Allow() bool {
	return bucket.AllowAt(time.Now())
}

// AllowAt consumes one token at the provided instant.
func (bucket *TokenBucket) AllowAt(now time.Time) bool {
	if bucket == nil || bucket.limiter == nil {
		return true
	}
	return bucket.limiter.AllowN(now, 1)
}

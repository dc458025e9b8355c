package util

import (
	"sync"
	"time"
)

// RateLimiter implements a token-bucket rate limiter that replenishes tokens
// at a fixed per-minute rate. The bucket holds up to one minute's worth of
// tokens so a quiet period allows a burst of the configured size.
type RateLimiter struct {
	rate     float64 // tokens per second
	burst    float64 // bucket capacity
	tokens   float64
	lastTime time.Time
	mu       sync.Mutex
}

// NewRateLimiter creates a RateLimiter that allows perMinute operations per
// minute. A non-positive perMinute disables limiting: Allow always succeeds.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		return &RateLimiter{}
	}
	return &RateLimiter{
		rate:     float64(perMinute) / 60.0,
		burst:    float64(perMinute),
		tokens:   float64(perMinute), // start full
		lastTime: time.Now(),
	}
}

// Allow reports whether one more operation may proceed now. It never blocks;
// callers reject the request when it returns false.
func (rl *RateLimiter) Allow() bool {
	if rl.rate == 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastTime).Seconds()
	rl.tokens += elapsed * rl.rate
	if rl.tokens > rl.burst {
		rl.tokens = rl.burst
	}
	rl.lastTime = now

	if rl.tokens >= 1 {
		rl.tokens -= 1
		return true
	}
	return false
}

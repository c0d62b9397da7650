package ghclient

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket whose limits can be retuned while requests
// are waiting on it.
type RateLimiter struct {
	limiter *rate.Limiter
	mu      sync.RWMutex
}

// NewRateLimiter allows rps requests per second with the given burst.
// A non-positive rps disables pacing.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a request may proceed or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return rl.limiter.Wait(ctx)
}

// UpdateLimits replaces the current rate and burst.
func (rl *RateLimiter) UpdateLimits(rps float64, burst int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if burst < 1 {
		burst = 1
	}
	rl.limiter.SetLimit(rate.Limit(rps))
	rl.limiter.SetBurst(burst)
}

// Limit returns the current requests-per-second limit.
func (rl *RateLimiter) Limit() float64 {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return float64(rl.limiter.Limit())
}

// adaptToHeaders slows the limiter down when GitHub reports the remaining
// quota cannot sustain the configured rate until the window resets. It
// never raises the rate above ceiling. A ceiling of zero or less means
// pacing is disabled and stays disabled.
func (rl *RateLimiter) adaptToHeaders(h http.Header, ceiling float64) {
	if ceiling <= 0 {
		return
	}
	remaining, err1 := strconv.ParseInt(h.Get("X-RateLimit-Remaining"), 10, 64)
	reset, err2 := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64)
	if err1 != nil || err2 != nil || reset <= 0 || remaining < 0 {
		return
	}
	until := time.Until(time.Unix(reset, 0))
	if until <= 0 {
		return
	}
	// 90% of what the quota allows.
	rps := float64(remaining) / until.Seconds() * 0.9
	if rps > ceiling {
		rps = ceiling
	}
	if rps <= 0 {
		rps = 1 / until.Seconds()
	}
	burst := int(remaining / 10)
	if burst < 1 {
		burst = 1
	}
	rl.UpdateLimits(rps, burst)
}

package checker

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a per-minute token bucket with an optional minimum spacing
// between requests. A zero budget means unlimited.
type RateLimiter struct {
	mu          sync.Mutex
	tokens      int
	maxTokens   int
	refillRate  int
	lastRefill  time.Time
	minInterval time.Duration
	lastRequest time.Time
	now         func() time.Time
}

func NewRateLimiter(maxTokensPerMinute int, minInterval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		maxTokens:   maxTokensPerMinute,
		refillRate:  maxTokensPerMinute,
		minInterval: minInterval,
		now:         time.Now,
	}
	rl.lastRefill = rl.now()
	if maxTokensPerMinute > 0 {
		rl.tokens = maxTokensPerMinute
	}
	return rl
}

func (rl *RateLimiter) Allow() bool {
	return rl.AllowN(1)
}

// AllowN takes n tokens at once or none at all.
func (rl *RateLimiter) AllowN(n int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	_, ok := rl.reserve(rl.now(), n)
	return ok
}

// Wait blocks until a request may proceed or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		delay, ok := rl.reserve(rl.now(), 1)
		rl.mu.Unlock()
		if ok {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reserve consumes n tokens when they are available. Otherwise it reports how
// long to wait before trying again. Callers hold rl.mu.
func (rl *RateLimiter) reserve(now time.Time, n int) (time.Duration, bool) {
	if rl.minInterval > 0 && !rl.lastRequest.IsZero() {
		if gap := now.Sub(rl.lastRequest); gap < rl.minInterval {
			return rl.minInterval - gap, false
		}
	}

	if rl.maxTokens <= 0 {
		rl.lastRequest = now
		return 0, true
	}

	rl.refillTokens(now)
	if rl.tokens < n {
		wait := rl.lastRefill.Add(time.Minute).Sub(now)
		if perToken := time.Minute / time.Duration(rl.refillRate); perToken < wait {
			wait = perToken
		}
		if wait <= 0 {
			wait = time.Millisecond
		}
		return wait, false
	}

	rl.tokens -= n
	rl.lastRequest = now
	return 0, true
}

func (rl *RateLimiter) refillTokens(now time.Time) {
	elapsed := now.Sub(rl.lastRefill)
	if elapsed >= time.Minute {
		rl.tokens = rl.maxTokens
		rl.lastRefill = now
		return
	}

	tokensToAdd := rl.calculateTokensToAdd(elapsed)
	if tokensToAdd > 0 {
		rl.tokens += tokensToAdd
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		rl.lastRefill = now
	}
}

func (rl *RateLimiter) calculateTokensToAdd(elapsed time.Duration) int {
	return int(float64(rl.refillRate) * elapsed.Seconds() / 60.0)
}

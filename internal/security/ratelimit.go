package security

import (
	"sync"
	"time"
)

// RateLimitResult reports the outcome of one admission check.
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	// RetryAfter is the whole-second backoff hint for rejected calls, always
	// at least 1 when Allowed is false.
	RetryAfter int
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

// RateLimiter admits requests per client identifier using a fixed window.
// It deliberately makes no burst/sustained distinction; the window either
// has budget left or it does not.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
	window  time.Duration
	max     int
	now     func() time.Time
}

// NewRateLimiter builds a limiter admitting max requests per identifier per
// window. Non-positive arguments fall back to 30 requests per 60s.
func NewRateLimiter(window time.Duration, max int) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 30
	}
	return &RateLimiter{
		windows: make(map[string]*rateWindow),
		window:  window,
		max:     max,
		now:     time.Now,
	}
}

// Check performs an atomic check-and-increment for identifier. The first
// observation, or any call after the window elapsed, reinitializes the
// counter to 1 and admits.
func (rl *RateLimiter) Check(identifier string) RateLimitResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[identifier]
	if !ok || now.After(w.resetAt) {
		w = &rateWindow{count: 1, resetAt: now.Add(rl.window)}
		rl.windows[identifier] = w
		return RateLimitResult{Allowed: true, Remaining: rl.max - 1, ResetAt: w.resetAt}
	}

	w.count++
	if w.count <= rl.max {
		return RateLimitResult{Allowed: true, Remaining: rl.max - w.count, ResetAt: w.resetAt}
	}

	retry := int((w.resetAt.Sub(now) + time.Second - time.Nanosecond) / time.Second)
	if retry < 1 {
		retry = 1
	}
	return RateLimitResult{Allowed: false, Remaining: 0, ResetAt: w.resetAt, RetryAfter: retry}
}

// Limit exposes the configured per-window budget.
func (rl *RateLimiter) Limit() int {
	return rl.max
}

// Sweep drops windows whose reset time has passed. Stale windows are also
// replaced lazily by Check, so sweeping only bounds memory for identifiers
// that never return.
func (rl *RateLimiter) Sweep(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	removed := 0
	for id, w := range rl.windows {
		if now.After(w.resetAt) {
			delete(rl.windows, id)
			removed++
		}
	}
	return removed
}

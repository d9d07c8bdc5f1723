package app

import (
	"sync"
	"time"
)

// AttemptLimiter counts failures per key in a sliding window.
type AttemptLimiter struct {
	mu       sync.Mutex
	history  map[string][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

// NewAttemptLimiter returns a limiter; a non-positive limit disables it.
func NewAttemptLimiter(limit int, interval time.Duration, now func() time.Time) *AttemptLimiter {
	if now == nil {
		now = time.Now
	}
	return &AttemptLimiter{
		history:  make(map[string][]time.Time),
		limit:    limit,
		interval: interval,
		now:      now,
	}
}

// Blocked reports whether key has used up its failures in the current window.
func (rl *AttemptLimiter) Blocked(key string) bool {
	if rl == nil || rl.limit <= 0 {
		return false
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.fresh(key)) >= rl.limit
}

// Fail records a failed attempt for key.
func (rl *AttemptLimiter) Fail(key string) {
	if rl == nil || rl.limit <= 0 {
		return
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.history[key] = append(rl.fresh(key), rl.now())
}

// Reset forgets key after a success.
func (rl *AttemptLimiter) Reset(key string) {
	if rl == nil {
		return
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.history, key)
}

func (rl *AttemptLimiter) fresh(key string) []time.Time {
	windowStart := rl.now().Add(-rl.interval)
	attempts := rl.history[key]
	fresh := attempts[:0]
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}
	if len(fresh) == 0 {
		delete(rl.history, key)
		return nil
	}
	rl.history[key] = fresh
	return fresh
}

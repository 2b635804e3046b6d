package middleware

import (
	"sync"
	"time"
)

// RateLimiter is a fixed-window in-memory per-user limiter. The tool layer
// uses it to keep one chatty user from flooding the matching pool with
// intent churn. In-process only, like the scheduler's single-flight guard.
type RateLimiter struct {
	limits map[uint]*window
	mu     sync.Mutex

	maxRequests int
	windowSize  time.Duration
}

type window struct {
	requests  int
	resetTime time.Time
}

func NewRateLimiter(maxRequests int, windowSize time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limits:      make(map[uint]*window),
		maxRequests: maxRequests,
		windowSize:  windowSize,
	}

	go rl.cleanup()

	return rl
}

// Allow records one request for the user and reports whether it fits in
// the current window.
func (rl *RateLimiter) Allow(userID uint) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	w, exists := rl.limits[userID]
	if !exists || now.After(w.resetTime) {
		rl.limits[userID] = &window{
			requests:  1,
			resetTime: now.Add(rl.windowSize),
		}
		return true
	}

	if w.requests >= rl.maxRequests {
		return false
	}

	w.requests++
	return true
}

// Remaining returns how many requests the user has left in the window.
func (rl *RateLimiter) Remaining(userID uint) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, exists := rl.limits[userID]
	if !exists || time.Now().After(w.resetTime) {
		return rl.maxRequests
	}

	remaining := rl.maxRequests - w.requests
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset clears all windows (useful for tests).
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.limits = make(map[uint]*window)
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for userID, w := range rl.limits {
			if now.After(w.resetTime) {
				delete(rl.limits, userID)
			}
		}
		rl.mu.Unlock()
	}
}

package middleware

import (
	"testing"
	"time"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow(1) {
			t.Fatalf("Allow() = false on request %d, want true", i+1)
		}
	}

	if rl.Allow(1) {
		t.Error("Allow() = true past the limit, want false")
	}

	// A different user has their own window
	if !rl.Allow(2) {
		t.Error("Allow() = false for a fresh user, want true")
	}
}

func TestRateLimiter_WindowReset(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)

	if !rl.Allow(1) {
		t.Fatal("Allow() = false on first request")
	}
	if rl.Allow(1) {
		t.Fatal("Allow() = true past the limit")
	}

	time.Sleep(30 * time.Millisecond)

	if !rl.Allow(1) {
		t.Error("Allow() = false after window reset, want true")
	}
}

func TestRateLimiter_Remaining(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)

	if got := rl.Remaining(1); got != 5 {
		t.Errorf("Remaining() = %d before any request, want 5", got)
	}

	rl.Allow(1)
	rl.Allow(1)

	if got := rl.Remaining(1); got != 3 {
		t.Errorf("Remaining() = %d, want 3", got)
	}

	rl.Reset()

	if got := rl.Remaining(1); got != 5 {
		t.Errorf("Remaining() = %d after Reset, want 5", got)
	}
}

package http

import (
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := newRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.allow() || !rl.allow() {
		t.Fatal("first two frames rejected")
	}
	if rl.allow() {
		t.Fatal("third frame admitted inside the window")
	}

	now = now.Add(time.Minute)
	if !rl.allow() {
		t.Fatal("frame rejected after the window reset")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := newRateLimiter(0, time.Minute)
	for i := 0; i < 1000; i++ {
		if !rl.allow() {
			t.Fatal("disabled limiter rejected a frame")
		}
	}
	var nilLimiter *rateLimiter
	if !nilLimiter.allow() {
		t.Fatal("nil limiter rejected a frame")
	}
}

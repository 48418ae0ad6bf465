package redis

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestNewRejectsBadURL(t *testing.T) {
	if _, err := New(context.Background(), "not-a-url"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestPrefixed(t *testing.T) {
	if got := prefixed("chat:join"); got != "wirechat:chat:join" {
		t.Fatalf("prefixed = %q", got)
	}
}

// Runs only when WIRECHAT_TEST_REDIS_URL points at a disposable Redis.
func TestKVRoundTripLive(t *testing.T) {
	url := os.Getenv("WIRECHAT_TEST_REDIS_URL")
	if url == "" {
		t.Skip("WIRECHAT_TEST_REDIS_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := New(ctx, url)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	key := "test:" + t.Name()
	defer s.Delete(ctx, key)

	if _, ok, err := s.Get(ctx, key); err != nil || ok {
		t.Fatalf("Get before Set: ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, key, `{"room":"r1"}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := s.Get(ctx, key)
	if err != nil || !ok || got != `{"room":"r1"}` {
		t.Fatalf("Get: value=%q ok=%v err=%v", got, ok, err)
	}
}

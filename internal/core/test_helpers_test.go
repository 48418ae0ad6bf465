package core

import (
	"testing"
	"time"
)

// mustEvent skips events of other kinds until one of kind arrives.
func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("expected %s event not received", kind)
			return nil
		}
	}
}

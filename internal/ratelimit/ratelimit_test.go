package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllow(t *testing.T) {
	t.Run("allows up to the limit", func(t *testing.T) {
		l := New(Config{RequestsPerMinute: 3})

		for i := 0; i < 3; i++ {
			if !l.Allow("key") {
				t.Fatalf("request %d should be allowed", i+1)
			}
		}
		if l.Allow("key") {
			t.Error("request over the limit should be denied")
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		l := New(Config{RequestsPerMinute: 1})

		if !l.Allow("a") {
			t.Error("first request for a should be allowed")
		}
		if !l.Allow("b") {
			t.Error("first request for b should be allowed")
		}
		if l.Allow("a") {
			t.Error("second request for a should be denied")
		}
	})

	t.Run("zero config falls back to default", func(t *testing.T) {
		l := New(Config{})
		if !l.Allow("key") {
			t.Error("first request should be allowed")
		}
	})
}

func TestRemaining(t *testing.T) {
	l := New(Config{RequestsPerMinute: 2})

	if got := l.Remaining("key"); got != 2 {
		t.Errorf("remaining = %d, want 2", got)
	}
	l.Allow("key")
	if got := l.Remaining("key"); got != 1 {
		t.Errorf("remaining = %d, want 1", got)
	}
	l.Allow("key")
	if got := l.Remaining("key"); got != 0 {
		t.Errorf("remaining = %d, want 0", got)
	}
}

func TestWait(t *testing.T) {
	t.Run("returns immediately under the limit", func(t *testing.T) {
		l := New(Config{RequestsPerMinute: 5})

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		if err := l.Wait(ctx, "key"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("cancelled context aborts the wait", func(t *testing.T) {
		l := New(Config{RequestsPerMinute: 1})
		l.Allow("key")

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		if err := l.Wait(ctx, "key"); err != context.DeadlineExceeded {
			t.Errorf("got %v, want context.DeadlineExceeded", err)
		}
	})
}

func TestResetTime(t *testing.T) {
	l := New(Config{RequestsPerMinute: 1})

	before := time.Now()
	l.Allow("key")

	reset := l.ResetTime("key")
	if reset.Before(before) {
		t.Errorf("reset %v is before the request", reset)
	}
	if reset.After(before.Add(2 * time.Minute)) {
		t.Errorf("reset %v is too far out", reset)
	}
}

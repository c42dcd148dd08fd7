package client

import (
	"testing"
	"time"
)

func TestExponentialBackoff_Next(t *testing.T) {
	b := &ExponentialBackoff{
		Base:   100 * time.Millisecond,
		Max:    1 * time.Second,
		Factor: 2.0,
		Jitter: 0.0, // deterministic
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, 1 * time.Second}, // capped at Max
		{5, 1 * time.Second},
	}

	for _, tt := range tests {
		got := b.Next(tt.attempt)
		if got != tt.expected {
			t.Errorf("Next(%d) = %v; want %v", tt.attempt, got, tt.expected)
		}
	}
}

func TestExponentialBackoff_Jitter(t *testing.T) {
	b := &ExponentialBackoff{
		Base:   100 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2.0,
		Jitter: 0.1,
	}

	for i := 0; i < 100; i++ {
		got := b.Next(0)
		min := 90 * time.Millisecond
		max := 110 * time.Millisecond
		if got < min || got > max {
			t.Fatalf("Next(0) = %v; want within [%v, %v]", got, min, max)
		}
	}
}

func TestExponentialBackoff_NegativeAttempt(t *testing.T) {
	b := DefaultBackoff()
	if got := b.Next(-1); got != b.Base {
		t.Errorf("Next(-1) = %v; want base %v", got, b.Base)
	}
}

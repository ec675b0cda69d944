package timer

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestRemainingSeconds(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		duration int64
		now      time.Time
		expected int64
	}{
		{name: "just started", duration: 1800, now: start, expected: 1800},
		{name: "25 minutes in", duration: 1800, now: start.Add(1500 * time.Second), expected: 300},
		{name: "exactly expired", duration: 60, now: start.Add(60 * time.Second), expected: 0},
		{name: "long past expiry", duration: 5, now: start.Add(10 * time.Second), expected: 0},
		{name: "sub-second elapsed floors", duration: 60, now: start.Add(900 * time.Millisecond), expected: 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RemainingSeconds(start, tt.duration, tt.now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Fatalf("RemainingSeconds = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestRemainingSecondsMonotonic(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	prev := int64(math.MaxInt64)
	for i := 0; i <= 120; i++ {
		now := start.Add(time.Duration(i) * time.Second)
		got, err := RemainingSeconds(start, 90, now)
		if err != nil {
			t.Fatalf("unexpected error at +%ds: %v", i, err)
		}
		if got > prev {
			t.Fatalf("remaining increased from %d to %d at +%ds", prev, got, i)
		}
		prev = got
	}
	if prev != 0 {
		t.Fatalf("remaining never reached zero, got %d", prev)
	}
}

func TestProgressPercent(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	got, err := ProgressPercent(start, 1800, start.Add(1500*time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-83.333) > 0.01 {
		t.Fatalf("ProgressPercent = %f, want ~83.333", got)
	}

	// Never exceeds 100 no matter how far past expiry.
	got, err = ProgressPercent(start, 60, start.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 100 {
		t.Fatalf("ProgressPercent past expiry = %f, want 100", got)
	}
}

func TestClockRejectsInvalidDuration(t *testing.T) {
	start := time.Now()

	for _, duration := range []int64{0, -10} {
		if _, err := RemainingSeconds(start, duration, start); !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("RemainingSeconds(duration=%d) err = %v, want ErrInvalidDuration", duration, err)
		}
		if _, err := ProgressPercent(start, duration, start); !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("ProgressPercent(duration=%d) err = %v, want ErrInvalidDuration", duration, err)
		}
	}
}

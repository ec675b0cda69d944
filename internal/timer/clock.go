package timer

import (
	"errors"
	"time"
)

// ErrInvalidDuration reports a timer configured without a positive duration.
var ErrInvalidDuration = errors.New("timer duration must be positive")

// RemainingSeconds returns the whole seconds left on a countdown that began
// at startedAt, floored at zero once the duration has elapsed.
func RemainingSeconds(startedAt time.Time, durationSeconds int64, now time.Time) (int64, error) {
	if durationSeconds <= 0 {
		return 0, ErrInvalidDuration
	}

	elapsed := int64(now.Sub(startedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}

	remaining := durationSeconds - elapsed
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// ProgressPercent returns how far the countdown has advanced, clamped to
// [0,100] no matter how far past expiry the clock has moved.
func ProgressPercent(startedAt time.Time, durationSeconds int64, now time.Time) (float64, error) {
	if durationSeconds <= 0 {
		return 0, ErrInvalidDuration
	}

	elapsed := now.Sub(startedAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	percent := 100 * elapsed / float64(durationSeconds)
	if percent > 100 {
		return 100, nil
	}
	return percent, nil
}

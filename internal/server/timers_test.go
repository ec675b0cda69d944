package server

import (
	"errors"
	"testing"
	"time"

	"lifetrack/internal/models"
	"lifetrack/internal/storage"
	"lifetrack/internal/timer"
)

func TestCompletableNow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	started := now.Add(-25 * time.Minute)
	duration := int64(1800)
	done := now.Add(-time.Minute)

	tests := []struct {
		name string
		task models.Task
		want error
	}{
		{
			name: "never started",
			task: models.Task{TimerDurationSeconds: &duration},
			want: storage.ErrValidation,
		},
		{
			name: "time left on the clock",
			task: models.Task{TimerDurationSeconds: &duration, TimerStartedAt: &started},
			want: timer.ErrStillRunning,
		},
		{
			name: "countdown elapsed",
			task: models.Task{TimerDurationSeconds: i64(60), TimerStartedAt: &started},
			want: nil,
		},
		{
			name: "already completed",
			task: models.Task{TimerDurationSeconds: &duration, TimerStartedAt: &started, TimerCompletedAt: &done},
			want: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := completableNow(tc.task, now)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("completableNow() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("completableNow() = %v, want %v", err, tc.want)
			}
		})
	}
}

func i64(v int64) *int64 {
	return &v
}

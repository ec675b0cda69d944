package timer

import (
	"context"
	"time"
)

// Subject is the timer's view of the entity a countdown is attached to. The
// remote record is the source of truth for every field here; the timer never
// mutates a Subject except by adopting the result of a Mutator call.
type Subject struct {
	ID              string
	DurationSeconds *int64
	StartedAt       *time.Time
	CompletedAt     *time.Time
	UrgentAfter     bool
	UpdatedAt       time.Time
}

// Status is the single derived state of a subject's timer.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusRunning    Status = "running"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
)

// Mutator persists timer transitions on the remote subject record. Both calls
// may fail transiently; callers must not assume a transition happened until
// the updated subject comes back.
type Mutator interface {
	// StartTimer stamps a new countdown beginning at startAt and clears any
	// previous completion.
	StartTimer(ctx context.Context, subjectID string, durationSeconds int64, startAt time.Time) (Subject, error)

	// CompleteTimer marks the countdown finished. Completing an
	// already-completed subject succeeds without changing the original
	// completion time.
	CompleteTimer(ctx context.Context, subjectID string) (Subject, error)
}

package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"lifetrack/internal/models"
	"lifetrack/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedBoard(t *testing.T, s *Store) models.Board {
	t.Helper()
	board, err := s.CreateBoard(context.Background(), "inbox", "todo", "")
	if err != nil {
		t.Fatalf("create board: %v", err)
	}
	return board
}

func seedTask(t *testing.T, s *Store, boardID int64, title string, duration *int64, urgent bool) models.Task {
	t.Helper()
	task, err := s.CreateTask(context.Background(), models.Task{
		BoardID:              boardID,
		Title:                title,
		TimerDurationSeconds: duration,
		IsUrgentAfterTimer:   urgent,
	})
	if err != nil {
		t.Fatalf("create task %q: %v", title, err)
	}
	return task
}

func i64(v int64) *int64 {
	return &v
}

func TestStartTimerStampsCountdown(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task := seedTask(t, s, seedBoard(t, s).ID, "deep work", i64(1800), false)

	startAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	updated, err := s.StartTimer(ctx, task.ID, 1800, startAt)
	if err != nil {
		t.Fatalf("start timer: %v", err)
	}
	if updated.TimerStartedAt == nil || !updated.TimerStartedAt.Equal(startAt) {
		t.Fatalf("started_at = %v, want %v", updated.TimerStartedAt, startAt)
	}
	if updated.TimerCompletedAt != nil {
		t.Fatalf("expected no completion right after start")
	}

	// Restarting is the same write with a fresh start time and a wiped
	// completion.
	if _, err := s.CompleteTimer(ctx, task.ID); err != nil {
		t.Fatalf("complete timer: %v", err)
	}
	restartAt := startAt.Add(time.Hour)
	updated, err = s.StartTimer(ctx, task.ID, 1800, restartAt)
	if err != nil {
		t.Fatalf("restart timer: %v", err)
	}
	if updated.TimerStartedAt == nil || !updated.TimerStartedAt.Equal(restartAt) {
		t.Fatalf("started_at after restart = %v, want %v", updated.TimerStartedAt, restartAt)
	}
	if updated.TimerCompletedAt != nil {
		t.Fatalf("restart must clear the previous completion")
	}
}

func TestStartTimerRejectsBadInput(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task := seedTask(t, s, seedBoard(t, s).ID, "deep work", i64(1800), false)

	if _, err := s.StartTimer(ctx, task.ID, 0, time.Time{}); !errors.Is(err, storage.ErrValidation) {
		t.Fatalf("zero duration err = %v, want ErrValidation", err)
	}
	if _, err := s.StartTimer(ctx, task.ID+999, 60, time.Time{}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing task err = %v, want ErrNotFound", err)
	}
}

func TestCompleteTimerFirstWriteWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task := seedTask(t, s, seedBoard(t, s).ID, "deep work", i64(5), false)

	if _, err := s.CompleteTimer(ctx, task.ID); !errors.Is(err, storage.ErrValidation) {
		t.Fatalf("complete before start err = %v, want ErrValidation", err)
	}

	if _, err := s.StartTimer(ctx, task.ID, 5, time.Now().Add(-10*time.Second)); err != nil {
		t.Fatalf("start timer: %v", err)
	}

	first, err := s.CompleteTimer(ctx, task.ID)
	if err != nil {
		t.Fatalf("first complete: %v", err)
	}
	if first.TimerCompletedAt == nil {
		t.Fatalf("expected a completion timestamp")
	}

	time.Sleep(50 * time.Millisecond)
	second, err := s.CompleteTimer(ctx, task.ID)
	if err != nil {
		t.Fatalf("second complete: %v", err)
	}
	if second.TimerCompletedAt == nil || !second.TimerCompletedAt.Equal(*first.TimerCompletedAt) {
		t.Fatalf("completed_at moved from %v to %v on repeat", first.TimerCompletedAt, second.TimerCompletedAt)
	}
}

func TestCompleteTimerBumpsUrgentTaskOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	board := seedBoard(t, s)

	other := seedTask(t, s, board.ID, "errands", nil, false)
	urgent := seedTask(t, s, board.ID, "laundry", i64(5), true)
	if urgent.Position <= other.Position {
		t.Fatalf("precondition: urgent task must start below the other, got %d vs %d", urgent.Position, other.Position)
	}

	if _, err := s.StartTimer(ctx, urgent.ID, 5, time.Now().Add(-10*time.Second)); err != nil {
		t.Fatalf("start timer: %v", err)
	}

	bumped, err := s.CompleteTimer(ctx, urgent.ID)
	if err != nil {
		t.Fatalf("complete timer: %v", err)
	}
	if bumped.Position >= other.Position {
		t.Fatalf("urgent task position = %d, want above %d", bumped.Position, other.Position)
	}

	// A repeated completion must not keep climbing.
	again, err := s.CompleteTimer(ctx, urgent.ID)
	if err != nil {
		t.Fatalf("repeat complete: %v", err)
	}
	if again.Position != bumped.Position {
		t.Fatalf("position moved from %d to %d on repeat", bumped.Position, again.Position)
	}
}

func TestClearTimerResetsFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task := seedTask(t, s, seedBoard(t, s).ID, "laundry", i64(5), true)

	if _, err := s.StartTimer(ctx, task.ID, 5, time.Now().Add(-10*time.Second)); err != nil {
		t.Fatalf("start timer: %v", err)
	}
	if _, err := s.CompleteTimer(ctx, task.ID); err != nil {
		t.Fatalf("complete timer: %v", err)
	}

	cleared, err := s.ClearTimer(ctx, task.ID, true)
	if err != nil {
		t.Fatalf("clear timer: %v", err)
	}
	if cleared.TimerDurationSeconds != nil || cleared.TimerStartedAt != nil || cleared.TimerCompletedAt != nil {
		t.Fatalf("expected all timer fields reset, got %+v", cleared)
	}
	if cleared.IsUrgentAfterTimer {
		t.Fatalf("expected urgency flag cleared")
	}

	if _, err := s.ClearTimer(ctx, task.ID+999, false); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing task err = %v, want ErrNotFound", err)
	}
}

func TestUpdateTaskLocksDurationWhileRunning(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task := seedTask(t, s, seedBoard(t, s).ID, "deep work", i64(1800), false)

	if _, err := s.StartTimer(ctx, task.ID, 1800, time.Time{}); err != nil {
		t.Fatalf("start timer: %v", err)
	}
	if _, err := s.UpdateTask(ctx, task.ID, map[string]any{"timer_duration_seconds": int64(60)}); !errors.Is(err, storage.ErrValidation) {
		t.Fatalf("duration change while running err = %v, want ErrValidation", err)
	}

	// Other fields stay editable mid-countdown.
	updated, err := s.UpdateTask(ctx, task.ID, map[string]any{"title": "deeper work"})
	if err != nil {
		t.Fatalf("update title: %v", err)
	}
	if updated.Title != "deeper work" {
		t.Fatalf("title = %q, want %q", updated.Title, "deeper work")
	}
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"lifetrack/internal/models"
	"lifetrack/internal/storage"
)

const taskColumns = `id, board_id, title, description, status, position,
    timer_duration_seconds, timer_started_at, timer_completed_at, is_urgent_after_timer,
    created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (models.Task, error) {
	var t models.Task
	var duration sql.NullInt64
	var startedAt, completedAt sql.NullTime

	err := row.Scan(&t.ID, &t.BoardID, &t.Title, &t.Description, &t.Status, &t.Position,
		&duration, &startedAt, &completedAt, &t.IsUrgentAfterTimer, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return models.Task{}, err
	}

	if duration.Valid {
		t.TimerDurationSeconds = &duration.Int64
	}
	if startedAt.Valid {
		t.TimerStartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		t.TimerCompletedAt = &completedAt.Time
	}
	return t, nil
}

// ListTasks returns tasks for the given board ordered by status and position.
func (s *Store) ListTasks(ctx context.Context, boardID int64) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE board_id = ? ORDER BY status, position, id`, boardID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CreateTask inserts a new task for a board.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	if strings.TrimSpace(t.Title) == "" {
		return models.Task{}, fmt.Errorf("%w: task title must not be empty", storage.ErrValidation)
	}
	if _, ok := models.ValidTaskStatuses[t.Status]; !ok {
		t.Status = "todo"
	}
	if t.TimerDurationSeconds != nil && *t.TimerDurationSeconds <= 0 {
		return models.Task{}, fmt.Errorf("%w: timer duration must be positive", storage.ErrValidation)
	}

	pos, err := s.nextPosition(ctx, t.BoardID, t.Status)
	if err != nil {
		return models.Task{}, err
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO tasks(board_id, title, description, status, position, timer_duration_seconds, is_urgent_after_timer)
        VALUES(?, ?, ?, ?, ?, ?, ?)`,
		t.BoardID, strings.TrimSpace(t.Title), strings.TrimSpace(t.Description), t.Status, pos, nullableInt(t.TimerDurationSeconds), t.IsUrgentAfterTimer)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Task{}, fmt.Errorf("task id: %w", err)
	}
	return s.GetTask(ctx, id)
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(ctx context.Context, id int64) (models.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("%w: task %d", storage.ErrNotFound, id)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// UpdateTask updates task fields and moves the task between columns when
// needed. Timer configuration is only editable while no countdown is active.
func (s *Store) UpdateTask(ctx context.Context, id int64, changes map[string]any) (models.Task, error) {
	current, err := s.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}

	title := current.Title
	description := current.Description
	status := current.Status
	position := current.Position
	duration := current.TimerDurationSeconds
	urgent := current.IsUrgentAfterTimer

	if v, ok := changes["title"].(string); ok && strings.TrimSpace(v) != "" {
		title = strings.TrimSpace(v)
	}
	if v, ok := changes["description"].(string); ok {
		description = strings.TrimSpace(v)
	}
	if v, ok := changes["status"].(string); ok {
		if _, valid := models.ValidTaskStatuses[v]; valid {
			status = v
		}
	}

	timerIdle := current.TimerStartedAt == nil
	if v, ok := changes["timer_duration_seconds"]; ok {
		if !timerIdle {
			return models.Task{}, fmt.Errorf("%w: timer duration is locked while a countdown is active", storage.ErrValidation)
		}
		switch d := v.(type) {
		case nil:
			duration = nil
		case int64:
			if d <= 0 {
				return models.Task{}, fmt.Errorf("%w: timer duration must be positive", storage.ErrValidation)
			}
			duration = &d
		default:
			return models.Task{}, fmt.Errorf("%w: timer duration must be an integer", storage.ErrValidation)
		}
	}
	if v, ok := changes["is_urgent_after_timer"].(bool); ok {
		urgent = v
	}

	if status != current.Status {
		pos, err := s.nextPosition(ctx, current.BoardID, status)
		if err != nil {
			return models.Task{}, err
		}
		position = pos
	}

	_, err = s.db.ExecContext(ctx, `UPDATE tasks SET title = ?, description = ?, status = ?, position = ?,
        timer_duration_seconds = ?, is_urgent_after_timer = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, description, status, position, nullableInt(duration), urgent, id)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	return s.GetTask(ctx, id)
}

// DeleteTask removes a task by id.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: task %d", storage.ErrNotFound, id)
	}
	return nil
}

// StartTimer stamps a countdown on the task. Restarting is the same write: a
// new started_at and a cleared completion.
func (s *Store) StartTimer(ctx context.Context, id int64, durationSeconds int64, startAt time.Time) (models.Task, error) {
	if durationSeconds <= 0 {
		return models.Task{}, fmt.Errorf("%w: timer duration must be positive", storage.ErrValidation)
	}
	if startAt.IsZero() {
		startAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET timer_duration_seconds = ?, timer_started_at = ?,
        timer_completed_at = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		durationSeconds, startAt.UTC(), id)
	if err != nil {
		return models.Task{}, fmt.Errorf("start timer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Task{}, err
	}
	if affected == 0 {
		return models.Task{}, fmt.Errorf("%w: task %d", storage.ErrNotFound, id)
	}
	return s.GetTask(ctx, id)
}

// CompleteTimer records the countdown's completion once; completing an
// already-completed task keeps the original timestamp. When the task is
// flagged urgent-after-timer the first completion bumps it to the top of its
// column.
func (s *Store) CompleteTimer(ctx context.Context, id int64) (models.Task, error) {
	current, err := s.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if current.TimerStartedAt == nil {
		return models.Task{}, fmt.Errorf("%w: timer was never started", storage.ErrValidation)
	}

	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET timer_completed_at = ?, updated_at = CURRENT_TIMESTAMP
        WHERE id = ? AND timer_completed_at IS NULL`, time.Now().UTC(), id)
	if err != nil {
		return models.Task{}, fmt.Errorf("complete timer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Task{}, err
	}

	if affected > 0 && current.IsUrgentAfterTimer {
		_, err = s.db.ExecContext(ctx, `UPDATE tasks SET position = (
            SELECT COALESCE(MIN(position), 1) - 1 FROM tasks WHERE board_id = ? AND status = ?
        ), updated_at = CURRENT_TIMESTAMP WHERE id = ?`, current.BoardID, current.Status, id)
		if err != nil {
			return models.Task{}, fmt.Errorf("escalate task: %w", err)
		}
	}
	return s.GetTask(ctx, id)
}

// ClearTimer nulls all timer fields, returning the task to the no-timer
// state once the completed countdown has been acknowledged.
func (s *Store) ClearTimer(ctx context.Context, id int64, clearUrgent bool) (models.Task, error) {
	query := `UPDATE tasks SET timer_duration_seconds = NULL, timer_started_at = NULL,
        timer_completed_at = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if clearUrgent {
		query = `UPDATE tasks SET timer_duration_seconds = NULL, timer_started_at = NULL,
            timer_completed_at = NULL, is_urgent_after_timer = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	}

	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return models.Task{}, fmt.Errorf("clear timer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Task{}, err
	}
	if affected == 0 {
		return models.Task{}, fmt.Errorf("%w: task %d", storage.ErrNotFound, id)
	}
	return s.GetTask(ctx, id)
}

func (s *Store) nextPosition(ctx context.Context, boardID int64, status string) (int64, error) {
	var position sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(position) FROM tasks WHERE board_id = ? AND status = ?`, boardID, status).Scan(&position)
	if err != nil {
		return 0, fmt.Errorf("select position: %w", err)
	}
	if position.Valid {
		return position.Int64 + 1, nil
	}
	return 0, nil
}

func nullableInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

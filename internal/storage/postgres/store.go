package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	_ "github.com/lib/pq"

	"lifetrack/internal/models"
	"lifetrack/internal/storage"
)

// Store is the PostgreSQL-backed repository, for deployments that outgrow
// the single sqlite file.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to PostgreSQL and runs the required migrations.
func Open(dsn string, logger *slog.Logger) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty postgres dsn")
	}

	if logger == nil {
		logger = slog.Default()
	}

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	s := &Store{db: conn, logger: logger}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS boards (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		template TEXT NOT NULL DEFAULT 'todo',
		color TEXT NOT NULL DEFAULT '#2563eb',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id BIGSERIAL PRIMARY KEY,
		board_id BIGINT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'todo',
		position BIGINT NOT NULL DEFAULT 0,
		timer_duration_seconds BIGINT,
		timer_started_at TIMESTAMPTZ,
		timer_completed_at TIMESTAMPTZ,
		is_urgent_after_timer BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS media_items (
		id BIGSERIAL PRIMARY KEY,
		kind TEXT NOT NULL,
		title TEXT NOT NULL,
		creator TEXT NOT NULL DEFAULT '',
		release_year BIGINT NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'backlog',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS reviews (
		id BIGSERIAL PRIMARY KEY,
		media_id BIGINT NOT NULL REFERENCES media_items(id) ON DELETE CASCADE,
		rating BIGINT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS recommendations (
		id BIGSERIAL PRIMARY KEY,
		media_id BIGINT NOT NULL REFERENCES media_items(id) ON DELETE CASCADE,
		from_friend TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		token TEXT NOT NULL UNIQUE,
		accepted BOOLEAN,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_board ON tasks(board_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_board_status ON tasks(board_id, status);
	CREATE INDEX IF NOT EXISTS idx_media_kind ON media_items(kind);
	CREATE INDEX IF NOT EXISTS idx_reviews_media ON reviews(media_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// ListBoards retrieves all boards ordered by creation date.
func (s *Store) ListBoards(ctx context.Context) ([]models.Board, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, template, color, created_at, updated_at FROM boards ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	defer rows.Close()

	var boards []models.Board
	for rows.Next() {
		var b models.Board
		if err := rows.Scan(&b.ID, &b.Name, &b.Template, &b.Color, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan board: %w", err)
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

// CreateBoard persists a new board with the requested template.
func (s *Store) CreateBoard(ctx context.Context, name, template, color string) (models.Board, error) {
	if strings.TrimSpace(name) == "" {
		return models.Board{}, fmt.Errorf("%w: board name must not be empty", storage.ErrValidation)
	}
	if _, ok := models.ValidBoardTemplates[template]; !ok {
		template = "todo"
	}
	if color == "" {
		color = randomPaletteColor()
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `INSERT INTO boards(name, template, color) VALUES($1, $2, $3) RETURNING id`,
		strings.TrimSpace(name), template, color).Scan(&id)
	if err != nil {
		return models.Board{}, fmt.Errorf("insert board: %w", err)
	}
	return s.GetBoard(ctx, id)
}

// GetBoard fetches a single board by id.
func (s *Store) GetBoard(ctx context.Context, id int64) (models.Board, error) {
	var b models.Board
	err := s.db.QueryRowContext(ctx, `SELECT id, name, template, color, created_at, updated_at FROM boards WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.Template, &b.Color, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Board{}, fmt.Errorf("%w: board %d", storage.ErrNotFound, id)
	}
	if err != nil {
		return models.Board{}, fmt.Errorf("get board: %w", err)
	}
	return b, nil
}

// UpdateBoard renames a board and optionally changes its color.
func (s *Store) UpdateBoard(ctx context.Context, id int64, name, color string) (models.Board, error) {
	if strings.TrimSpace(name) == "" {
		return models.Board{}, fmt.Errorf("%w: board name must not be empty", storage.ErrValidation)
	}
	if color == "" {
		color = randomPaletteColor()
	}

	res, err := s.db.ExecContext(ctx, `UPDATE boards SET name = $1, color = $2, updated_at = NOW() WHERE id = $3`,
		strings.TrimSpace(name), color, id)
	if err != nil {
		return models.Board{}, fmt.Errorf("update board: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Board{}, err
	}
	if affected == 0 {
		return models.Board{}, fmt.Errorf("%w: board %d", storage.ErrNotFound, id)
	}
	return s.GetBoard(ctx, id)
}

// DeleteBoard removes a board along with its tasks.
func (s *Store) DeleteBoard(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM boards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: board %d", storage.ErrNotFound, id)
	}
	return nil
}

func randomPaletteColor() string {
	palette := []string{
		"#2563eb", // blue-600
		"#7c3aed", // violet-600
		"#dc2626", // red-600
		"#059669", // green-600
		"#ea580c", // orange-600
		"#d97706", // amber-600
		"#0ea5e9", // sky-500
	}
	return palette[rand.Intn(len(palette))]
}

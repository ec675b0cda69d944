package storage

import (
	"context"
	"errors"
	"time"

	"lifetrack/internal/models"
)

var (
	// ErrNotFound reports that the addressed record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation reports input the store refuses to persist.
	ErrValidation = errors.New("invalid input")
)

// Repository is the persistence surface shared by the SQLite and Postgres
// drivers. All timestamps are authoritative here; the timer subsystem reads
// through and writes behind this interface.
type Repository interface {
	// Boards
	ListBoards(ctx context.Context) ([]models.Board, error)
	CreateBoard(ctx context.Context, name, template, color string) (models.Board, error)
	GetBoard(ctx context.Context, id int64) (models.Board, error)
	UpdateBoard(ctx context.Context, id int64, name, color string) (models.Board, error)
	DeleteBoard(ctx context.Context, id int64) error

	// Tasks
	ListTasks(ctx context.Context, boardID int64) ([]models.Task, error)
	CreateTask(ctx context.Context, task models.Task) (models.Task, error)
	GetTask(ctx context.Context, id int64) (models.Task, error)
	UpdateTask(ctx context.Context, id int64, changes map[string]any) (models.Task, error)
	DeleteTask(ctx context.Context, id int64) error

	// Timer mutations. StartTimer stamps a countdown (clearing any previous
	// completion), CompleteTimer is first-write-wins on the completion
	// timestamp, ClearTimer returns the task to the no-timer state.
	StartTimer(ctx context.Context, id int64, durationSeconds int64, startAt time.Time) (models.Task, error)
	CompleteTimer(ctx context.Context, id int64) (models.Task, error)
	ClearTimer(ctx context.Context, id int64, clearUrgent bool) (models.Task, error)

	// Media catalog
	ListMedia(ctx context.Context, kind, status string) ([]models.MediaItem, error)
	CreateMedia(ctx context.Context, item models.MediaItem) (models.MediaItem, error)
	GetMedia(ctx context.Context, id int64) (models.MediaItem, error)
	UpdateMedia(ctx context.Context, id int64, changes map[string]any) (models.MediaItem, error)
	DeleteMedia(ctx context.Context, id int64) error

	// Reviews
	ListReviews(ctx context.Context, mediaID int64) ([]models.Review, error)
	CreateReview(ctx context.Context, review models.Review) (models.Review, error)
	UpdateReview(ctx context.Context, id int64, rating *int64, body *string) (models.Review, error)
	DeleteReview(ctx context.Context, id int64) error

	// Recommendations
	ListRecommendations(ctx context.Context) ([]models.Recommendation, error)
	CreateRecommendation(ctx context.Context, rec models.Recommendation) (models.Recommendation, error)
	ResolveRecommendation(ctx context.Context, token string, accepted bool) (models.Recommendation, error)

	Close() error
}

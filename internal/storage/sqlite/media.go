package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"lifetrack/internal/models"
	"lifetrack/internal/storage"
)

// ListMedia returns catalog items, optionally filtered by kind and status.
func (s *Store) ListMedia(ctx context.Context, kind, status string) ([]models.MediaItem, error) {
	query := `SELECT id, kind, title, creator, release_year, status, created_at, updated_at FROM media_items`
	var clauses []string
	var args []any
	if kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, kind)
	}
	if status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, status)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	var items []models.MediaItem
	for rows.Next() {
		var m models.MediaItem
		if err := rows.Scan(&m.ID, &m.Kind, &m.Title, &m.Creator, &m.ReleaseYear, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// CreateMedia adds an item to the catalog.
func (s *Store) CreateMedia(ctx context.Context, item models.MediaItem) (models.MediaItem, error) {
	if strings.TrimSpace(item.Title) == "" {
		return models.MediaItem{}, fmt.Errorf("%w: media title must not be empty", storage.ErrValidation)
	}
	if _, ok := models.ValidMediaKinds[item.Kind]; !ok {
		return models.MediaItem{}, fmt.Errorf("%w: unknown media kind %q", storage.ErrValidation, item.Kind)
	}
	if _, ok := models.ValidMediaStatuses[item.Status]; !ok {
		item.Status = "backlog"
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO media_items(kind, title, creator, release_year, status) VALUES(?, ?, ?, ?, ?)`,
		item.Kind, strings.TrimSpace(item.Title), strings.TrimSpace(item.Creator), item.ReleaseYear, item.Status)
	if err != nil {
		return models.MediaItem{}, fmt.Errorf("insert media: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.MediaItem{}, fmt.Errorf("media id: %w", err)
	}
	return s.GetMedia(ctx, id)
}

// GetMedia fetches a single catalog item by id.
func (s *Store) GetMedia(ctx context.Context, id int64) (models.MediaItem, error) {
	var m models.MediaItem
	err := s.db.QueryRowContext(ctx, `SELECT id, kind, title, creator, release_year, status, created_at, updated_at FROM media_items WHERE id = ?`, id).
		Scan(&m.ID, &m.Kind, &m.Title, &m.Creator, &m.ReleaseYear, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MediaItem{}, fmt.Errorf("%w: media %d", storage.ErrNotFound, id)
	}
	if err != nil {
		return models.MediaItem{}, fmt.Errorf("get media: %w", err)
	}
	return m, nil
}

// UpdateMedia updates catalog item fields.
func (s *Store) UpdateMedia(ctx context.Context, id int64, changes map[string]any) (models.MediaItem, error) {
	current, err := s.GetMedia(ctx, id)
	if err != nil {
		return models.MediaItem{}, err
	}

	title := current.Title
	creator := current.Creator
	year := current.ReleaseYear
	status := current.Status

	if v, ok := changes["title"].(string); ok && strings.TrimSpace(v) != "" {
		title = strings.TrimSpace(v)
	}
	if v, ok := changes["creator"].(string); ok {
		creator = strings.TrimSpace(v)
	}
	if v, ok := changes["release_year"].(int64); ok {
		year = v
	}
	if v, ok := changes["status"].(string); ok {
		if _, valid := models.ValidMediaStatuses[v]; valid {
			status = v
		}
	}

	_, err = s.db.ExecContext(ctx, `UPDATE media_items SET title = ?, creator = ?, release_year = ?, status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, creator, year, status, id)
	if err != nil {
		return models.MediaItem{}, fmt.Errorf("update media: %w", err)
	}
	return s.GetMedia(ctx, id)
}

// DeleteMedia removes a catalog item with its reviews and recommendations.
func (s *Store) DeleteMedia(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM media_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: media %d", storage.ErrNotFound, id)
	}
	return nil
}

// ListReviews returns reviews for a catalog item, newest first.
func (s *Store) ListReviews(ctx context.Context, mediaID int64) ([]models.Review, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, media_id, rating, body, created_at, updated_at FROM reviews WHERE media_id = ? ORDER BY created_at DESC`, mediaID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.MediaID, &r.Rating, &r.Body, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// CreateReview stores a rating for a catalog item.
func (s *Store) CreateReview(ctx context.Context, review models.Review) (models.Review, error) {
	if review.Rating < 1 || review.Rating > 5 {
		return models.Review{}, fmt.Errorf("%w: rating must be between 1 and 5", storage.ErrValidation)
	}
	if _, err := s.GetMedia(ctx, review.MediaID); err != nil {
		return models.Review{}, err
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO reviews(media_id, rating, body) VALUES(?, ?, ?)`,
		review.MediaID, review.Rating, strings.TrimSpace(review.Body))
	if err != nil {
		return models.Review{}, fmt.Errorf("insert review: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Review{}, fmt.Errorf("review id: %w", err)
	}
	return s.getReview(ctx, id)
}

// UpdateReview changes a review's rating or body.
func (s *Store) UpdateReview(ctx context.Context, id int64, rating *int64, body *string) (models.Review, error) {
	current, err := s.getReview(ctx, id)
	if err != nil {
		return models.Review{}, err
	}

	if rating != nil {
		if *rating < 1 || *rating > 5 {
			return models.Review{}, fmt.Errorf("%w: rating must be between 1 and 5", storage.ErrValidation)
		}
		current.Rating = *rating
	}
	if body != nil {
		current.Body = strings.TrimSpace(*body)
	}

	_, err = s.db.ExecContext(ctx, `UPDATE reviews SET rating = ?, body = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		current.Rating, current.Body, id)
	if err != nil {
		return models.Review{}, fmt.Errorf("update review: %w", err)
	}
	return s.getReview(ctx, id)
}

// DeleteReview removes a review by id.
func (s *Store) DeleteReview(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: review %d", storage.ErrNotFound, id)
	}
	return nil
}

func (s *Store) getReview(ctx context.Context, id int64) (models.Review, error) {
	var r models.Review
	err := s.db.QueryRowContext(ctx, `SELECT id, media_id, rating, body, created_at, updated_at FROM reviews WHERE id = ?`, id).
		Scan(&r.ID, &r.MediaID, &r.Rating, &r.Body, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Review{}, fmt.Errorf("%w: review %d", storage.ErrNotFound, id)
	}
	if err != nil {
		return models.Review{}, fmt.Errorf("get review: %w", err)
	}
	return r, nil
}

// ListRecommendations returns all recommendations, newest first.
func (s *Store) ListRecommendations(ctx context.Context) ([]models.Recommendation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, media_id, from_friend, note, token, accepted, created_at FROM recommendations ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	defer rows.Close()

	var recs []models.Recommendation
	for rows.Next() {
		r, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// CreateRecommendation records a friend's tip and mints its share token.
func (s *Store) CreateRecommendation(ctx context.Context, rec models.Recommendation) (models.Recommendation, error) {
	if strings.TrimSpace(rec.FromFriend) == "" {
		return models.Recommendation{}, fmt.Errorf("%w: recommendation needs a sender", storage.ErrValidation)
	}
	if _, err := s.GetMedia(ctx, rec.MediaID); err != nil {
		return models.Recommendation{}, err
	}

	token := uuid.New().String()
	res, err := s.db.ExecContext(ctx, `INSERT INTO recommendations(media_id, from_friend, note, token) VALUES(?, ?, ?, ?)`,
		rec.MediaID, strings.TrimSpace(rec.FromFriend), strings.TrimSpace(rec.Note), token)
	if err != nil {
		return models.Recommendation{}, fmt.Errorf("insert recommendation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Recommendation{}, fmt.Errorf("recommendation id: %w", err)
	}

	r, err := scanRecommendation(s.db.QueryRowContext(ctx, `SELECT id, media_id, from_friend, note, token, accepted, created_at FROM recommendations WHERE id = ?`, id))
	if err != nil {
		return models.Recommendation{}, fmt.Errorf("get recommendation: %w", err)
	}
	return r, nil
}

// ResolveRecommendation accepts or declines a recommendation by its token.
func (s *Store) ResolveRecommendation(ctx context.Context, token string, accepted bool) (models.Recommendation, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE recommendations SET accepted = ? WHERE token = ?`, accepted, token)
	if err != nil {
		return models.Recommendation{}, fmt.Errorf("resolve recommendation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Recommendation{}, err
	}
	if affected == 0 {
		return models.Recommendation{}, fmt.Errorf("%w: recommendation token", storage.ErrNotFound)
	}

	r, err := scanRecommendation(s.db.QueryRowContext(ctx, `SELECT id, media_id, from_friend, note, token, accepted, created_at FROM recommendations WHERE token = ?`, token))
	if err != nil {
		return models.Recommendation{}, fmt.Errorf("get recommendation: %w", err)
	}
	return r, nil
}

func scanRecommendation(row interface{ Scan(...any) error }) (models.Recommendation, error) {
	var r models.Recommendation
	var accepted sql.NullBool
	if err := row.Scan(&r.ID, &r.MediaID, &r.FromFriend, &r.Note, &r.Token, &accepted, &r.CreatedAt); err != nil {
		return models.Recommendation{}, err
	}
	if accepted.Valid {
		r.Accepted = &accepted.Bool
	}
	return r, nil
}

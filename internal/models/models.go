package models

import "time"

// Board groups tasks under one of the specialized templates.
type Board struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Template  string    `json:"template"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Task represents a single card on a board. The timer fields stay null until
// a countdown is configured; timer_started_at and timer_completed_at are
// written only through the timer mutations.
type Task struct {
	ID                   int64      `json:"id"`
	BoardID              int64      `json:"board_id"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	Status               string     `json:"status"`
	Position             int64      `json:"position"`
	TimerDurationSeconds *int64     `json:"timer_duration_seconds"`
	TimerStartedAt       *time.Time `json:"timer_started_at"`
	TimerCompletedAt     *time.Time `json:"timer_completed_at"`
	IsUrgentAfterTimer   bool       `json:"is_urgent_after_timer"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// MediaItem is one catalogued book, movie, album or game.
type MediaItem struct {
	ID          int64     `json:"id"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Creator     string    `json:"creator"`
	ReleaseYear int64     `json:"release_year"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Review holds a rating and free-form notes for a media item.
type Review struct {
	ID        int64     `json:"id"`
	MediaID   int64     `json:"media_id"`
	Rating    int64     `json:"rating"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Recommendation is a media tip from a friend, addressed by an opaque token
// so it can be accepted or declined from a shared link.
type Recommendation struct {
	ID         int64     `json:"id"`
	MediaID    int64     `json:"media_id"`
	FromFriend string    `json:"from_friend"`
	Note       string    `json:"note"`
	Token      string    `json:"token"`
	Accepted   *bool     `json:"accepted"`
	CreatedAt  time.Time `json:"created_at"`
}

// ValidTaskStatuses enumerates the statuses supported by the board columns.
var ValidTaskStatuses = map[string]struct{}{
	"todo":        {},
	"in_progress": {},
	"done":        {},
}

// ValidBoardTemplates enumerates the specialized board layouts.
var ValidBoardTemplates = map[string]struct{}{
	"todo":             {},
	"kanban":           {},
	"job_applications": {},
	"recipe":           {},
	"grocery":          {},
}

// ValidMediaKinds enumerates the catalog sections.
var ValidMediaKinds = map[string]struct{}{
	"book":  {},
	"movie": {},
	"music": {},
	"game":  {},
}

// ValidMediaStatuses enumerates consumption states for catalog items.
var ValidMediaStatuses = map[string]struct{}{
	"backlog":     {},
	"in_progress": {},
	"finished":    {},
	"abandoned":   {},
}

package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lifetrack/internal/storage"
	"lifetrack/internal/timer"
)

// Server provides HTTP handlers for the lifestyle tracker backend.
type Server struct {
	engine    *gin.Engine
	store     storage.Repository
	timers    *timer.Manager
	logger    *slog.Logger
	staticDir string

	// clearOnComplete makes a completed countdown reset its timer fields
	// immediately instead of waiting for an explicit clear.
	clearOnComplete bool
}

// New constructs the HTTP server with routes and middleware configured.
func New(store storage.Repository, timers *timer.Manager, logger *slog.Logger, staticDir string, clearOnComplete bool) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api"))

	srv := &Server{
		engine:          router,
		store:           store,
		timers:          timers,
		logger:          logger,
		staticDir:       staticDir,
		clearOnComplete: clearOnComplete,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		boards := api.Group("/boards")
		{
			boards.GET("", s.handleListBoards)
			boards.POST("", s.handleCreateBoard)
			boards.PUT(":id", s.handleUpdateBoard)
			boards.DELETE(":id", s.handleDeleteBoard)
			boards.GET(":id/tasks", s.handleListTasks)
			boards.POST(":id/tasks", s.handleCreateTask)
		}

		tasks := api.Group("/tasks")
		{
			tasks.PUT(":id", s.handleUpdateTask)
			tasks.DELETE(":id", s.handleDeleteTask)
			tasks.GET(":id/timer", s.handleTimerSnapshot)
			tasks.POST(":id/timer/start", s.handleTimerStart)
			tasks.POST(":id/timer/restart", s.handleTimerRestart)
			tasks.POST(":id/timer/complete", s.handleTimerComplete)
			tasks.POST(":id/timer/clear", s.handleTimerClear)
			tasks.POST(":id/timer/sessions", s.handleTimerWatch)
		}

		sessions := api.Group("/timer-sessions")
		{
			sessions.GET(":sid", s.handleSessionSnapshot)
			sessions.POST(":sid/start", s.handleSessionStart)
			sessions.POST(":sid/pause", s.handleSessionPause)
			sessions.POST(":sid/resume", s.handleSessionResume)
			sessions.POST(":sid/restart", s.handleSessionRestart)
			sessions.POST(":sid/visibility", s.handleSessionVisibility)
			sessions.DELETE(":sid", s.handleSessionClose)
			sessions.GET(":sid/events", s.handleSessionEvents)
		}

		media := api.Group("/media")
		{
			media.GET("", s.handleListMedia)
			media.POST("", s.handleCreateMedia)
			media.PUT(":id", s.handleUpdateMedia)
			media.DELETE(":id", s.handleDeleteMedia)
			media.GET(":id/reviews", s.handleListReviews)
			media.POST(":id/reviews", s.handleCreateReview)
		}

		api.PUT("/reviews/:id", s.handleUpdateReview)
		api.DELETE("/reviews/:id", s.handleDeleteReview)

		recs := api.Group("/recommendations")
		{
			recs.GET("", s.handleListRecommendations)
			recs.POST("", s.handleCreateRecommendation)
			recs.POST(":token/resolve", s.handleResolveRecommendation)
		}
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID converts a path parameter to int64 with error handling.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return 0, false
	}
	return id, true
}

// respondError logs the error and returns a JSON payload with the status
// implied by the error class.
func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, timer.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrValidation), errors.Is(err, timer.ErrInvalidDuration):
		status = http.StatusBadRequest
	case errors.Is(err, timer.ErrAlreadyStarted), errors.Is(err, timer.ErrNotRunning),
		errors.Is(err, timer.ErrNotPaused), errors.Is(err, timer.ErrNotStarted),
		errors.Is(err, timer.ErrStillRunning):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}

func getString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"lifetrack/internal/models"
	"lifetrack/internal/storage"
	"lifetrack/internal/timer"
)

// TimerMutator adapts the repository to the timer package's remote port,
// translating between string subject ids and task row ids.
type TimerMutator struct {
	Store storage.Repository
}

func (m TimerMutator) StartTimer(ctx context.Context, subjectID string, durationSeconds int64, startAt time.Time) (timer.Subject, error) {
	id, err := strconv.ParseInt(subjectID, 10, 64)
	if err != nil {
		return timer.Subject{}, fmt.Errorf("%w: bad subject id %q", storage.ErrValidation, subjectID)
	}
	task, err := m.Store.StartTimer(ctx, id, durationSeconds, startAt)
	if err != nil {
		return timer.Subject{}, err
	}
	return subjectFromTask(task), nil
}

func (m TimerMutator) CompleteTimer(ctx context.Context, subjectID string) (timer.Subject, error) {
	id, err := strconv.ParseInt(subjectID, 10, 64)
	if err != nil {
		return timer.Subject{}, fmt.Errorf("%w: bad subject id %q", storage.ErrValidation, subjectID)
	}
	task, err := m.Store.CompleteTimer(ctx, id)
	if err != nil {
		return timer.Subject{}, err
	}
	return subjectFromTask(task), nil
}

func subjectFromTask(t models.Task) timer.Subject {
	return timer.Subject{
		ID:              strconv.FormatInt(t.ID, 10),
		DurationSeconds: t.TimerDurationSeconds,
		StartedAt:       t.TimerStartedAt,
		CompletedAt:     t.TimerCompletedAt,
		UrgentAfter:     t.IsUrgentAfterTimer,
		UpdatedAt:       t.UpdatedAt,
	}
}

// handleTimerSnapshot derives the current timer frame straight from the task
// record, for list views that do not hold a session.
func (s *Server) handleTimerSnapshot(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	task, err := s.store.GetTask(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"timer": s.timers.Peek(subjectFromTask(task))})
}

// handleTimerStart stamps a countdown on the task using its configured
// duration.
func (s *Server) handleTimerStart(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	task, err := s.store.GetTask(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if task.TimerDurationSeconds == nil {
		s.respondError(c, fmt.Errorf("%w: task has no timer duration configured", storage.ErrValidation))
		return
	}

	updated, err := s.store.StartTimer(c.Request.Context(), id, *task.TimerDurationSeconds, time.Time{})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": updated, "timer": s.timers.Peek(subjectFromTask(updated))})
}

// handleTimerRestart is the same write as start; the route exists so clients
// can gate it on the running/completed states.
func (s *Server) handleTimerRestart(c *gin.Context) {
	s.handleTimerStart(c)
}

// completableNow reports whether the task's countdown can be marked finished:
// it must have been started, and either already carry a completion or have no
// time left on the clock.
func completableNow(task models.Task, now time.Time) error {
	if task.TimerStartedAt == nil {
		return fmt.Errorf("%w: timer was never started", storage.ErrValidation)
	}
	if task.TimerCompletedAt != nil || task.TimerDurationSeconds == nil {
		return nil
	}
	remaining, err := timer.RemainingSeconds(*task.TimerStartedAt, *task.TimerDurationSeconds, now)
	if err != nil {
		return err
	}
	if remaining > 0 {
		return timer.ErrStillRunning
	}
	return nil
}

// handleTimerComplete marks the countdown finished. Safe to repeat. With
// clear-on-complete configured the timer fields reset in the same request,
// so the client never has to acknowledge the finished state separately.
func (s *Server) handleTimerComplete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	task, err := s.store.GetTask(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := completableNow(task, time.Now()); err != nil {
		s.respondError(c, err)
		return
	}

	task, err = s.store.CompleteTimer(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if s.clearOnComplete {
		task, err = s.store.ClearTimer(c.Request.Context(), id, false)
		if err != nil {
			s.respondError(c, err)
			return
		}
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task, "timer": s.timers.Peek(subjectFromTask(task))})
}

// handleTimerClear acknowledges a finished countdown and returns the task to
// the no-timer state.
func (s *Server) handleTimerClear(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		ClearUrgent bool `json:"clear_urgent"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	task, err := s.store.ClearTimer(c.Request.Context(), id, req.ClearUrgent)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleTimerWatch opens a timer session for one widget instance and returns
// its id plus the first frame.
func (s *Server) handleTimerWatch(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	task, err := s.store.GetTask(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	session := s.timers.Open(subjectFromTask(task))
	respondSuccess(c, http.StatusCreated, gin.H{
		"session_id": session.ID(),
		"timer":      session.Snapshot(),
	})
}

// session resolves a session and refreshes it from the authoritative task
// record, so a restart made elsewhere is observed before the operation runs.
func (s *Server) session(c *gin.Context) (*timer.Session, bool) {
	sid := c.Param("sid")
	session, ok := s.timers.Get(sid)
	if !ok {
		s.respondError(c, timer.ErrSessionNotFound)
		return nil, false
	}

	subjectID, err := strconv.ParseInt(session.Snapshot().SubjectID, 10, 64)
	if err == nil {
		if task, err := s.store.GetTask(c.Request.Context(), subjectID); err == nil {
			session.Refresh(subjectFromTask(task))
		}
	}
	return session, true
}

func (s *Server) handleSessionSnapshot(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"timer": session.Snapshot()})
}

func (s *Server) handleSessionStart(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	snap, err := session.Start(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"timer": snap})
}

func (s *Server) handleSessionPause(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	snap, err := session.Pause()
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"timer": snap})
}

func (s *Server) handleSessionResume(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	snap, err := session.Resume(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"timer": snap})
}

func (s *Server) handleSessionRestart(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	snap, err := session.Restart(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"timer": snap})
}

func (s *Server) handleSessionVisibility(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	var req struct {
		Visible bool `json:"visible"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"timer": session.SetVisible(req.Visible)})
}

func (s *Server) handleSessionClose(c *gin.Context) {
	if err := s.timers.Close(c.Param("sid")); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "closed"})
}

// handleSessionEvents streams tick snapshots over server-sent events until
// the client disconnects or the session closes. Heartbeat comments keep the
// connection warm and count as activity, so a paused or hidden session with
// an attached stream is not evicted.
func (s *Server) handleSessionEvents(c *gin.Context) {
	session, ok := s.timers.Get(c.Param("sid"))
	if !ok {
		s.respondError(c, timer.ErrSessionNotFound)
		return
	}
	events := session.Events()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case snap, ok := <-events:
			if !ok {
				return
			}

			data, _ := json.Marshal(snap)
			c.Writer.Write([]byte("data: "))
			c.Writer.Write(data)
			c.Writer.Write([]byte("\n\n"))
			flusher.Flush()

		case <-heartbeat.C:
			session.Touch()
			c.Writer.Write([]byte(": keep-alive\n\n"))
			flusher.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}

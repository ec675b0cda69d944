package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lifetrack/internal/models"
)

type taskRequest struct {
	Title                *string `json:"title"`
	Description          *string `json:"description"`
	Status               *string `json:"status"`
	TimerDurationSeconds *int64  `json:"timer_duration_seconds"`
	IsUrgentAfterTimer   *bool   `json:"is_urgent_after_timer"`
}

// handleListTasks fetches tasks for a board.
func (s *Server) handleListTasks(c *gin.Context) {
	boardID, ok := parseID(c, "id")
	if !ok {
		return
	}

	tasks, err := s.store.ListTasks(c.Request.Context(), boardID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": tasks})
}

// handleCreateTask inserts a new task into a board column.
func (s *Server) handleCreateTask(c *gin.Context) {
	boardID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Title == nil || *req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	task := models.Task{
		BoardID:              boardID,
		Title:                *req.Title,
		Description:          getString(req.Description),
		Status:               getString(req.Status),
		TimerDurationSeconds: req.TimerDurationSeconds,
	}
	if req.IsUrgentAfterTimer != nil {
		task.IsUrgentAfterTimer = *req.IsUrgentAfterTimer
	}

	created, err := s.store.CreateTask(c.Request.Context(), task)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": created})
}

// handleUpdateTask updates task fields such as status or timer settings.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]any{}
	if req.Title != nil && *req.Title != "" {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.TimerDurationSeconds != nil {
		updates["timer_duration_seconds"] = *req.TimerDurationSeconds
	}
	if req.IsUrgentAfterTimer != nil {
		updates["is_urgent_after_timer"] = *req.IsUrgentAfterTimer
	}

	task, err := s.store.UpdateTask(c.Request.Context(), id, updates)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleDeleteTask removes a task completely.
func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteTask(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

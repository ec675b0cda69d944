package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lifetrack/internal/models"
)

type mediaRequest struct {
	Kind        *string `json:"kind"`
	Title       *string `json:"title"`
	Creator     *string `json:"creator"`
	ReleaseYear *int64  `json:"release_year"`
	Status      *string `json:"status"`
}

// handleListMedia returns catalog items, filterable by kind and status.
func (s *Server) handleListMedia(c *gin.Context) {
	items, err := s.store.ListMedia(c.Request.Context(), c.Query("kind"), c.Query("status"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"media": items})
}

// handleCreateMedia adds a book, movie, album or game to the catalog.
func (s *Server) handleCreateMedia(c *gin.Context) {
	var req mediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Title == nil || *req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	item := models.MediaItem{
		Kind:    getString(req.Kind),
		Title:   *req.Title,
		Creator: getString(req.Creator),
		Status:  getString(req.Status),
	}
	if req.ReleaseYear != nil {
		item.ReleaseYear = *req.ReleaseYear
	}

	created, err := s.store.CreateMedia(c.Request.Context(), item)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"media": created})
}

// handleUpdateMedia updates catalog item fields.
func (s *Server) handleUpdateMedia(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req mediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]any{}
	if req.Title != nil && *req.Title != "" {
		updates["title"] = *req.Title
	}
	if req.Creator != nil {
		updates["creator"] = *req.Creator
	}
	if req.ReleaseYear != nil {
		updates["release_year"] = *req.ReleaseYear
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}

	item, err := s.store.UpdateMedia(c.Request.Context(), id, updates)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"media": item})
}

// handleDeleteMedia removes a catalog item.
func (s *Server) handleDeleteMedia(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteMedia(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

type reviewRequest struct {
	Rating *int64  `json:"rating"`
	Body   *string `json:"body"`
}

// handleListReviews fetches reviews for a catalog item.
func (s *Server) handleListReviews(c *gin.Context) {
	mediaID, ok := parseID(c, "id")
	if !ok {
		return
	}

	reviews, err := s.store.ListReviews(c.Request.Context(), mediaID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"reviews": reviews})
}

// handleCreateReview stores a rating for a catalog item.
func (s *Server) handleCreateReview(c *gin.Context) {
	mediaID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Rating == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating is required"})
		return
	}

	review, err := s.store.CreateReview(c.Request.Context(), models.Review{
		MediaID: mediaID,
		Rating:  *req.Rating,
		Body:    getString(req.Body),
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"review": review})
}

// handleUpdateReview changes a review's rating or body.
func (s *Server) handleUpdateReview(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := s.store.UpdateReview(c.Request.Context(), id, req.Rating, req.Body)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"review": review})
}

// handleDeleteReview removes a review.
func (s *Server) handleDeleteReview(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteReview(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

type recommendationRequest struct {
	MediaID    int64  `json:"media_id"`
	FromFriend string `json:"from_friend"`
	Note       string `json:"note"`
}

// handleListRecommendations returns all recommendations, newest first.
func (s *Server) handleListRecommendations(c *gin.Context) {
	recs, err := s.store.ListRecommendations(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"recommendations": recs})
}

// handleCreateRecommendation records a friend's tip and mints a share token.
func (s *Server) handleCreateRecommendation(c *gin.Context) {
	var req recommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := s.store.CreateRecommendation(c.Request.Context(), models.Recommendation{
		MediaID:    req.MediaID,
		FromFriend: req.FromFriend,
		Note:       req.Note,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"recommendation": rec})
}

// handleResolveRecommendation accepts or declines a recommendation by token.
func (s *Server) handleResolveRecommendation(c *gin.Context) {
	var req struct {
		Accepted bool `json:"accepted"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := s.store.ResolveRecommendation(c.Request.Context(), c.Param("token"), req.Accepted)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"recommendation": rec})
}

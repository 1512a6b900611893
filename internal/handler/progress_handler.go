package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prepmed/prepmed-backend/internal/engine"
	"github.com/prepmed/prepmed-backend/internal/middleware"
	"github.com/prepmed/prepmed-backend/internal/response"
	"github.com/prepmed/prepmed-backend/internal/service"
)

// ProgressHandler serves the progress dashboard.
type ProgressHandler struct {
	progress *service.ProgressService
	registry *engine.Registry
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(progress *service.ProgressService, registry *engine.Registry) *ProgressHandler {
	return &ProgressHandler{progress: progress, registry: registry}
}

// Overview godoc
// GET /api/v1/student/progress
// Returns the rolling week of aggregates, lifetime totals, and the daily
// goal standing. Aggregates come from persisted results only; the payload
// additionally carries the id of a still-running session so the dashboard
// can offer a resume shortcut.
func (h *ProgressHandler) Overview(c *gin.Context) {
	claims := middleware.GetClaims(c)

	overview, err := h.progress.Overview(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	body := gin.H{"progress": overview}
	if m, ok := h.registry.ForUser(claims.UserID); ok && !m.Status().Terminal() {
		body["active_session_id"] = m.ID()
	}
	response.Success(c, http.StatusOK, body)
}

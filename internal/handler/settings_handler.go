package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prepmed/prepmed-backend/internal/middleware"
	"github.com/prepmed/prepmed-backend/internal/response"
	"github.com/prepmed/prepmed-backend/internal/service"
)

// SettingsHandler serves account preferences. Always reachable, lapsed
// subscription or not.
type SettingsHandler struct {
	sounds   *service.SoundService
	sessions *service.SessionService
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(sounds *service.SoundService, sessions *service.SessionService) *SettingsHandler {
	return &SettingsHandler{sounds: sounds, sessions: sessions}
}

// GetSound godoc
// GET /api/v1/student/settings/sound
// Returns the caller's persisted mute preference. Never-set reads as
// unmuted.
func (h *SettingsHandler) GetSound(c *gin.Context) {
	claims := middleware.GetClaims(c)

	muted, _, err := h.sounds.GetMuted(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"muted": muted})
}

// ToggleSound godoc
// POST /api/v1/student/settings/sound/toggle
// Flips and persists the mute preference. When a live session exists the
// toggle goes through its feedback manager so the open stream hears the
// change too.
func (h *SettingsHandler) ToggleSound(c *gin.Context) {
	claims := middleware.GetClaims(c)
	ctx := c.Request.Context()

	if m, ok := h.sessions.Registry().ForUser(claims.UserID); ok {
		muted := m.Sound().ToggleMute(ctx)
		response.Success(c, http.StatusOK, gin.H{"muted": muted})
		return
	}

	muted, _, err := h.sounds.GetMuted(ctx, claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if err := h.sounds.SetMuted(ctx, claims.UserID, !muted); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"muted": !muted})
}

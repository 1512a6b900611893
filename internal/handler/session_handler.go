package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prepmed/prepmed-backend/internal/engine"
	"github.com/prepmed/prepmed-backend/internal/middleware"
	"github.com/prepmed/prepmed-backend/internal/model"
	"github.com/prepmed/prepmed-backend/internal/response"
	"github.com/prepmed/prepmed-backend/internal/service"
	"github.com/prepmed/prepmed-backend/internal/validator"
)

// SessionHandler handles the REST surface of assessment sessions. The
// interactive command stream lives on the WebSocket handler; REST covers
// lifecycle, recovery, and results.
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Create godoc
// POST /api/v1/student/sessions
// Starts a new assessment session for the caller.
func (h *SessionHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	m, err := h.sessions.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTimeLimitRequired),
			errors.Is(err, service.ErrTimeLimitForbidden):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"time_limit_seconds": err.Error()})
		case errors.Is(err, service.ErrNoMatchingQuestions):
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrNoMatchingQuestions)
		case errors.Is(err, engine.ErrSessionConflict):
			response.Fail(c, http.StatusConflict, response.ErrSessionConflict)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": m.Snapshot()})
}

// Current godoc
// GET /api/v1/student/sessions/current
// Returns the caller's live session snapshot, for reattaching after a
// page reload.
func (h *SessionHandler) Current(c *gin.Context) {
	claims := middleware.GetClaims(c)

	m, ok := h.sessions.Registry().ForUser(claims.UserID)
	if !ok {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": m.Snapshot()})
}

// Get godoc
// GET /api/v1/student/sessions/:session_id
// Returns the client-safe snapshot of a live session.
func (h *SessionHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	m, err := h.sessions.Machine(sessionID, claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": m.Snapshot()})
}

// Pause godoc
// POST /api/v1/student/sessions/:session_id/pause
func (h *SessionHandler) Pause(c *gin.Context) {
	h.transition(c, func(m *engine.Machine) error { return m.Pause() })
}

// Resume godoc
// POST /api/v1/student/sessions/:session_id/resume
func (h *SessionHandler) Resume(c *gin.Context) {
	h.transition(c, func(m *engine.Machine) error { return m.Resume() })
}

// Complete godoc
// POST /api/v1/student/sessions/:session_id/complete
// Finishes the session and returns the result summary. A persistence
// hand-off failure still returns the summary, flagged for retry.
func (h *SessionHandler) Complete(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	res, err := h.sessions.Complete(c.Request.Context(), sessionID, claims.UserID)
	h.finishResponse(c, res, err)
}

// Abandon godoc
// POST /api/v1/student/sessions/:session_id/abandon
// Finishes the session on navigation-away. The result is persisted so
// partial work still counts toward progress.
func (h *SessionHandler) Abandon(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	res, err := h.sessions.Abandon(c.Request.Context(), sessionID, claims.UserID)
	h.finishResponse(c, res, err)
}

// RetryPersist godoc
// POST /api/v1/student/sessions/:session_id/retry-persist
// Re-queues a result whose hand-off failed.
func (h *SessionHandler) RetryPersist(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	if err := h.sessions.RetryPersist(c.Request.Context(), sessionID, claims.UserID); err != nil {
		h.failFromEngine(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"persist_state": service.ResultStateQueued})
}

// Result godoc
// GET /api/v1/student/sessions/:session_id/result
// Returns the finished session's summary and its persistence state.
func (h *SessionHandler) Result(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	res, state, err := h.sessions.Result(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		h.failFromEngine(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"result":        res,
		"persist_state": state,
	})
}

// ResultStatus godoc
// GET /api/v1/student/sessions/:session_id/result/status
// Reports where the result is on its way to durable storage, for the
// client's save indicator.
func (h *SessionHandler) ResultStatus(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	state, err := h.sessions.ResultState(c.Request.Context(), sessionID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"persist_state": state})
}

// History godoc
// GET /api/v1/student/sessions/history
// Lists the caller's finished sessions, newest first, paginated.
func (h *SessionHandler) History(c *gin.Context) {
	claims := middleware.GetClaims(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "50"))
	if page < 1 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 50
	}

	results, total, err := h.sessions.History(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if results == nil {
		results = []model.SessionResult{}
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results},
		response.NewPagination(page, perPage, total))
}

// ── helpers ──────────────────────────────────────────────────────────

func (h *SessionHandler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

func (h *SessionHandler) transition(c *gin.Context, fn func(*engine.Machine) error) {
	claims := middleware.GetClaims(c)
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	m, err := h.sessions.Machine(sessionID, claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return
	}
	if err := fn(m); err != nil {
		h.failFromEngine(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": m.Status()})
}

func (h *SessionHandler) finishResponse(c *gin.Context, res *model.SessionResult, err error) {
	if err != nil {
		if errors.Is(err, engine.ErrPersistenceFailure) {
			// The summary is final even though the hand-off failed.
			response.Success(c, http.StatusOK, gin.H{
				"result":        res,
				"persist_state": service.ResultStateFailed,
			})
			return
		}
		h.failFromEngine(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"result":        res,
		"persist_state": service.ResultStateQueued,
	})
}

func (h *SessionHandler) failFromEngine(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
	case errors.Is(err, engine.ErrInvalidTransition):
		response.Fail(c, http.StatusConflict, response.ErrInvalidTransition)
	case errors.Is(err, engine.ErrSessionPaused):
		response.Fail(c, http.StatusConflict, response.ErrSessionPaused)
	case errors.Is(err, engine.ErrAnswerLocked):
		response.Fail(c, http.StatusConflict, response.ErrAnswerLocked)
	case errors.Is(err, engine.ErrPersistenceFailure):
		response.Fail(c, http.StatusBadGateway, response.ErrPersistenceFailure)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

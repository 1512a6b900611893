package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prepmed/prepmed-backend/internal/middleware"
	"github.com/prepmed/prepmed-backend/internal/model"
	"github.com/prepmed/prepmed-backend/internal/response"
	"github.com/prepmed/prepmed-backend/internal/service"
	"github.com/prepmed/prepmed-backend/internal/validator"
)

// SubscriptionHandler serves subscription records. These routes stay
// reachable for lapsed users so they can always get back to a working
// account.
type SubscriptionHandler struct {
	subscriptions *service.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptions *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

// List godoc
// GET /api/v1/student/subscriptions
// Returns the caller's subscription records and the effective one.
func (h *SubscriptionHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)

	records, err := h.subscriptions.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if records == nil {
		records = []model.Subscription{}
	}

	effective, err := h.subscriptions.Effective(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"subscriptions": records,
		"effective":     effective,
	})
}

// Grant godoc
// POST /api/v1/admin/users/:user_id/subscriptions
// Seeds a subscription record for a user. Admin-only; real records come
// from the billing system.
func (h *SubscriptionHandler) Grant(c *gin.Context) {
	userID, ok := intParam(c, "user_id")
	if !ok {
		return
	}

	var req model.GrantSubscriptionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sub, err := h.subscriptions.Grant(c.Request.Context(), userID, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"subscription": sub})
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prepmed/prepmed-backend/internal/engine"
	"github.com/prepmed/prepmed-backend/internal/response"
	"github.com/prepmed/prepmed-backend/internal/service"
)

// RequireSubscription gates session-bearing routes on an active
// subscription. Denials carry the subscribe route in a header so the
// client knows where to send the user; an indeterminate state (records
// unavailable) is a retryable rejection, never a redirect.
func RequireSubscription(subscriptions *service.SubscriptionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		decision := subscriptions.Evaluate(c.Request.Context(), claims.UserID, c.Request.URL.Path)
		switch decision {
		case engine.DecisionAllow:
			c.Next()
		case engine.DecisionIndeterminate:
			c.Header("Retry-After", "1")
			response.AbortFail(c, http.StatusServiceUnavailable, response.ErrSubscriptionIndeterminate)
		default:
			c.Header("X-Subscribe-Route", engine.SubscribeRoute)
			response.AbortFail(c, http.StatusForbidden, response.ErrSubscriptionRequired)
		}
	}
}

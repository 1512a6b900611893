package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prepmed/prepmed-backend/internal/config"
	"github.com/prepmed/prepmed-backend/internal/handler"
	"github.com/prepmed/prepmed-backend/internal/middleware"
	"github.com/prepmed/prepmed-backend/internal/response"
	"github.com/prepmed/prepmed-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth         *handler.AuthHandler
	Session      *handler.SessionHandler
	Stream       *handler.StreamHandler
	Progress     *handler.ProgressHandler
	Subscription *handler.SubscriptionHandler
	Settings     *handler.SettingsHandler
	Question     *handler.QuestionHandler
	Health       *handler.HealthHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	subscriptionService *service.SubscriptionService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-Subscribe-Route"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", handlers.Health.Health)

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireAnyJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireAnyJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	// Subscription gating is path-prefix based: the gate allows the
	// subscription and settings families through so a lapsed user can
	// always reach the means to resubscribe.
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceLogin(authService),
		middleware.RequireSubscription(subscriptionService),
	)
	{
		// Session lifecycle
		studentAPI.POST("/sessions", handlers.Session.Create)
		studentAPI.GET("/sessions/current", handlers.Session.Current)
		studentAPI.GET("/sessions/history", handlers.Session.History)
		studentAPI.GET("/sessions/:session_id", handlers.Session.Get)
		studentAPI.POST("/sessions/:session_id/pause", handlers.Session.Pause)
		studentAPI.POST("/sessions/:session_id/resume", handlers.Session.Resume)
		studentAPI.POST("/sessions/:session_id/complete", handlers.Session.Complete)
		studentAPI.POST("/sessions/:session_id/abandon", handlers.Session.Abandon)
		studentAPI.POST("/sessions/:session_id/retry-persist", handlers.Session.RetryPersist)
		studentAPI.GET("/sessions/:session_id/result", handlers.Session.Result)
		studentAPI.GET("/sessions/:session_id/result/status", handlers.Session.ResultStatus)

		// Progress dashboard
		studentAPI.GET("/progress", handlers.Progress.Overview)

		// Topic browsing for session filters
		studentAPI.GET("/topics", handlers.Question.ListTopics)

		// Always-allowed families (the gate passes these through)
		studentAPI.GET("/subscriptions", handlers.Subscription.List)
		studentAPI.GET("/settings/sound", handlers.Settings.GetSound)
		studentAPI.POST("/settings/sound/toggle", handlers.Settings.ToggleSound)
	}

	// ─── 3. WebSocket Group (Student WS Auth + Subscription) ──────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequireStudentWSAuth(authService),
		middleware.RequireSubscription(subscriptionService),
	)
	{
		ws.GET("/student/sessions/:session_id/stream", handlers.Stream.SessionStream)
	}

	// ─── 4. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		// Topic management
		adminAPI.GET("/topics", handlers.Question.ListTopics)
		adminAPI.POST("/topics", handlers.Question.CreateTopic)
		adminAPI.DELETE("/topics/:topic_id", handlers.Question.DeleteTopic)

		// Question management
		adminAPI.GET("/topics/:topic_id/questions", handlers.Question.ListByTopic)
		adminAPI.POST("/topics/:topic_id/questions", handlers.Question.Create)
		adminAPI.GET("/questions/:question_id", handlers.Question.Get)
		adminAPI.PUT("/questions/:question_id", handlers.Question.Update)
		adminAPI.DELETE("/questions/:question_id", handlers.Question.Delete)

		// Subscription grants (dev/billing backfill)
		adminAPI.POST("/users/:user_id/subscriptions", handlers.Subscription.Grant)

		// Operational stats
		adminAPI.GET("/stats", handlers.Health.Stats)
	}

	return router
}

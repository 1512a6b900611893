package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepmed/prepmed-backend/internal/config"
	"github.com/prepmed/prepmed-backend/internal/engine"
	"github.com/prepmed/prepmed-backend/internal/response"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports process and dependency health.
type HealthHandler struct {
	pool      *pgxpool.Pool
	rdb       *redis.Client
	registry  *engine.Registry
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(pool *pgxpool.Pool, rdb *redis.Client, registry *engine.Registry) *HealthHandler {
	return &HealthHandler{
		pool:      pool,
		rdb:       rdb,
		registry:  registry,
		startTime: time.Now(),
	}
}

// Health godoc
// GET /health
// Liveness plus dependency reachability and live-session count.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	dbOK := h.pool.Ping(ctx) == nil
	redisOK := h.rdb.Ping(ctx).Err() == nil

	status := http.StatusOK
	overall := "ok"
	if !dbOK || !redisOK {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	var queueDepth int64
	if redisOK {
		queueDepth, _ = h.rdb.LLen(ctx, config.WorkerKey.PersistResultsQueue).Result()
	}

	c.JSON(status, gin.H{
		"status":        overall,
		"database":      dbOK,
		"redis":         redisOK,
		"live_sessions": h.registry.Len(),
		"result_queue":  queueDepth,
		"uptime":        time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Stats godoc
// GET /api/v1/admin/stats
// Operational counters for the admin panel.
func (h *HealthHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	queueDepth, err := h.rdb.LLen(ctx, config.WorkerKey.PersistResultsQueue).Result()
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"live_sessions":      h.registry.Len(),
		"result_queue_depth": queueDepth,
		"uptime":             time.Since(h.startTime).Round(time.Second).String(),
	})
}

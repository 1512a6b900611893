package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/prepmed/prepmed-backend/internal/config"
	"github.com/prepmed/prepmed-backend/internal/database"
	"github.com/prepmed/prepmed-backend/internal/engine"
	"github.com/prepmed/prepmed-backend/internal/handler"
	"github.com/prepmed/prepmed-backend/internal/logger"
	"github.com/prepmed/prepmed-backend/internal/repository"
	"github.com/prepmed/prepmed-backend/internal/router"
	"github.com/prepmed/prepmed-backend/internal/service"
	"github.com/prepmed/prepmed-backend/internal/validator"
	"github.com/prepmed/prepmed-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting PrepMed Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	subscriptionRepo := repository.NewSubscriptionRepository(pool)
	progressRepo := repository.NewProgressRepository(pool)

	// ─── Live Session Engine ───────────────────────────────────────────
	registry := engine.NewRegistry()
	dispatcher := engine.NewDispatcher()

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	userService := service.NewUserService(userRepo, authService)
	soundService := service.NewSoundService(cfg, rdb)
	sessionService := service.NewSessionService(cfg, registry, questionRepo, resultRepo, rdb, soundService, log)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, log)
	progressService := service.NewProgressService(cfg, progressRepo)
	questionService := service.NewQuestionService(questionRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:         handler.NewAuthHandler(authService, userService),
		Session:      handler.NewSessionHandler(sessionService),
		Stream:       handler.NewStreamHandler(sessionService, soundService, dispatcher, log, cfg.AllowedOrigins),
		Progress:     handler.NewProgressHandler(progressService, registry),
		Subscription: handler.NewSubscriptionHandler(subscriptionService),
		Settings:     handler.NewSettingsHandler(soundService, sessionService),
		Question:     handler.NewQuestionHandler(questionService),
		Health:       handler.NewHealthHandler(pool, rdb, registry),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	resultWorker := worker.NewResultWorker(pool, rdb, log)
	reaperWorker := worker.NewReaperWorker(registry, cfg.SessionIdleTimeout, log)

	go resultWorker.Start(workerCtx)
	go reaperWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, subscriptionService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Abandon live sessions so their results reach the queue before
	// the worker drains.
	for _, m := range registry.Snapshot() {
		if !m.Status().Terminal() {
			if _, err := m.Abandon(context.Background()); err != nil {
				log.Error().Err(err).Str("session_id", m.ID().String()).Msg("Shutdown abandon failed")
			}
		}
	}

	// 3. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

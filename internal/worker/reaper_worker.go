package worker

import (
	"context"
	"errors"
	"time"

	"github.com/prepmed/prepmed-backend/internal/engine"
	"github.com/prepmed/prepmed-backend/internal/logger"
	"github.com/rs/zerolog"
)

const ReaperSweepInterval = 1 * time.Minute

// ReaperWorker reconciles sessions whose clients vanished without an
// explicit finish. A machine idle past the configured timeout is abandoned
// on the user's behalf; terminal machines whose result hand-off succeeded
// are released from the registry.
type ReaperWorker struct {
	registry    *engine.Registry
	idleTimeout time.Duration
	log         zerolog.Logger
}

// NewReaperWorker creates a new ReaperWorker.
func NewReaperWorker(registry *engine.Registry, idleTimeout time.Duration, log zerolog.Logger) *ReaperWorker {
	return &ReaperWorker{
		registry:    registry,
		idleTimeout: idleTimeout,
		log:         logger.Component(log, "reaper_worker"),
	}
}

func (w *ReaperWorker) Start(ctx context.Context) {
	w.log.Info().Dur("idle_timeout", w.idleTimeout).Msg("ReaperWorker started")

	ticker := time.NewTicker(ReaperSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ReaperWorker) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-w.idleTimeout)

	for _, m := range w.registry.Snapshot() {
		if m.Status().Terminal() {
			// Lingers only while a failed hand-off awaits retry.
			if !m.PersistPending() {
				w.registry.Remove(m.ID())
			}
			continue
		}
		if m.LastSeen().After(cutoff) {
			continue
		}

		w.log.Info().
			Str("session_id", m.ID().String()).
			Int("user_id", m.UserID()).
			Time("last_seen", m.LastSeen()).
			Msg("Abandoning idle session")

		if _, err := m.Abandon(ctx); err != nil && !errors.Is(err, engine.ErrPersistenceFailure) {
			w.log.Error().Err(err).Str("session_id", m.ID().String()).Msg("idle abandon failed")
			continue
		}
		if !m.PersistPending() {
			w.registry.Remove(m.ID())
		}
	}
}

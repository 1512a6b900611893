package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepmed/prepmed-backend/internal/config"
	"github.com/prepmed/prepmed-backend/internal/logger"
	"github.com/prepmed/prepmed-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second

	// ResultAckTTL bounds how long confirmation keys linger. By then the
	// durable row answers any status query directly.
	ResultAckTTL = 24 * time.Hour
)

// ResultWorker drains finished-session results from the Redis queue and
// writes them to Postgres in batches. Inserts are idempotent per session,
// so a requeued or duplicated payload cannot double-count progress.
type ResultWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewResultWorker creates a new ResultWorker.
func NewResultWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		pool: pool,
		rdb:  rdb,
		log:  logger.Component(log, "result_worker"),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]*model.SessionResult, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var res model.SessionResult
			if err := json.Unmarshal([]byte(item[1]), &res); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &res)
		}
	}
}

// ----------------------------------------------------------------
// Batch insert wrapper
// ----------------------------------------------------------------

func (w *ResultWorker) flushSafe(ctx context.Context, batch []*model.SessionResult) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkInsertResults(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk result insert failed, using fallback")

		for _, res := range batch {
			if err := w.persistSingle(ctx, res); err != nil {
				w.log.Error().Err(err).Msg("persistSingle failed, requeueing")
				raw, _ := json.Marshal(res)
				w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
				continue
			}
			w.ackOne(ctx, res)
		}
		return
	}

	// After a successful batch → confirm every session's result in Redis.
	w.bulkAck(ctx, batch)
}

// ----------------------------------------------------------------
// BULK PostgreSQL INSERT using UNNEST + alias
// ----------------------------------------------------------------

func (w *ResultWorker) bulkInsertResults(ctx context.Context, batch []*model.SessionResult) error {
	n := len(batch)

	ids := make([]uuid.UUID, 0, n)
	sessionIDs := make([]uuid.UUID, 0, n)
	userIDs := make([]int, 0, n)
	kinds := make([]string, 0, n)
	counts := make([]int, 0, n)
	corrects := make([]int, 0, n)
	incorrects := make([]int, 0, n)
	unanswereds := make([]int, 0, n)
	unseens := make([]int, 0, n)
	elapsed := make([]int, 0, n)
	startedAts := make([]time.Time, 0, n)
	endedAts := make([]time.Time, 0, n)
	reasons := make([]string, 0, n)

	for _, res := range batch {
		ids = append(ids, res.ID)
		sessionIDs = append(sessionIDs, res.SessionID)
		userIDs = append(userIDs, res.UserID)
		kinds = append(kinds, string(res.Kind))
		counts = append(counts, res.QuestionCount)
		corrects = append(corrects, res.Tally.Correct)
		incorrects = append(incorrects, res.Tally.Incorrect)
		unanswereds = append(unanswereds, res.Tally.Unanswered)
		unseens = append(unseens, res.Tally.Unseen)
		elapsed = append(elapsed, res.ElapsedSeconds)
		startedAts = append(startedAts, res.StartedAt)
		endedAts = append(endedAts, res.EndedAt)
		reasons = append(reasons, string(res.EndReason))
	}

	query := `
		INSERT INTO session_results (
			id, session_id, user_id, kind, question_count,
			correct, incorrect, unanswered, unseen,
			elapsed_seconds, started_at, ended_at, end_reason
		)
		SELECT
			u.id, u.session_id, u.user_id, u.kind, u.question_count,
			u.correct, u.incorrect, u.unanswered, u.unseen,
			u.elapsed_seconds, u.started_at, u.ended_at, u.end_reason
		FROM UNNEST(
			$1::uuid[],
			$2::uuid[],
			$3::int[],
			$4::text[],
			$5::int[],
			$6::int[],
			$7::int[],
			$8::int[],
			$9::int[],
			$10::int[],
			$11::timestamptz[],
			$12::timestamptz[],
			$13::text[]
		) AS u (
			id, session_id, user_id, kind, question_count,
			correct, incorrect, unanswered, unseen,
			elapsed_seconds, started_at, ended_at, end_reason
		)
		ON CONFLICT (session_id) DO NOTHING
	`

	_, err := w.pool.Exec(ctx, query,
		ids, sessionIDs, userIDs, kinds, counts,
		corrects, incorrects, unanswereds, unseens,
		elapsed, startedAts, endedAts, reasons,
	)
	return err
}

// ----------------------------------------------------------------
// BULK Redis SET for result confirmations
// ----------------------------------------------------------------

func (w *ResultWorker) bulkAck(ctx context.Context, batch []*model.SessionResult) {
	pipe := w.rdb.Pipeline()

	for _, res := range batch {
		key := config.CacheKey.SessionResultAckKey(res.SessionID.String())
		pipe.Set(ctx, key, "1", ResultAckTTL)
	}

	_, _ = pipe.Exec(ctx)
}

func (w *ResultWorker) ackOne(ctx context.Context, res *model.SessionResult) {
	key := config.CacheKey.SessionResultAckKey(res.SessionID.String())
	_ = w.rdb.Set(ctx, key, "1", ResultAckTTL).Err()
}

// ----------------------------------------------------------------
// FALLBACK single insert
// ----------------------------------------------------------------

func (w *ResultWorker) persistSingle(ctx context.Context, res *model.SessionResult) error {
	_, err := w.pool.Exec(ctx,
		`INSERT INTO session_results (
			id, session_id, user_id, kind, question_count,
			correct, incorrect, unanswered, unseen,
			elapsed_seconds, started_at, ended_at, end_reason
		 )
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (session_id) DO NOTHING`,
		res.ID, res.SessionID, res.UserID, res.Kind, res.QuestionCount,
		res.Tally.Correct, res.Tally.Incorrect, res.Tally.Unanswered, res.Tally.Unseen,
		res.ElapsedSeconds, res.StartedAt, res.EndedAt, res.EndReason,
	)
	return err
}

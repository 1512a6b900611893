package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ProgressRepository handles progress dashboard data access. All numbers
// come from persisted session results; live sessions never contribute.
type ProgressRepository struct {
	pool *pgxpool.Pool
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(pool *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{pool: pool}
}

// DailyBucket aggregates one calendar day of a user's finished sessions.
type DailyBucket struct {
	Day        time.Time `json:"day"`
	Sessions   int       `json:"sessions"`
	Correct    int       `json:"correct"`
	Incorrect  int       `json:"incorrect"`
	Unanswered int       `json:"unanswered"`
}

// GetDailyBuckets retrieves per-day answer aggregates for sessions ended
// on or after since. Days without activity are absent; the service fills
// the gaps.
func (r *ProgressRepository) GetDailyBuckets(ctx context.Context, userID int, since time.Time) ([]DailyBucket, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT date_trunc('day', ended_at) AS day,
		        COUNT(*),
		        COALESCE(SUM(correct), 0),
		        COALESCE(SUM(incorrect), 0),
		        COALESCE(SUM(unanswered), 0)
		 FROM session_results
		 WHERE user_id = $1 AND ended_at >= $2
		 GROUP BY day
		 ORDER BY day`, userID, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buckets []DailyBucket
	for rows.Next() {
		var b DailyBucket
		if err := rows.Scan(&b.Day, &b.Sessions, &b.Correct, &b.Incorrect, &b.Unanswered); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// GetTotals retrieves a user's lifetime answer totals and session count.
func (r *ProgressRepository) GetTotals(ctx context.Context, userID int) (sessions, correct, incorrect, unanswered int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(correct), 0),
		        COALESCE(SUM(incorrect), 0),
		        COALESCE(SUM(unanswered), 0)
		 FROM session_results WHERE user_id = $1`, userID,
	).Scan(&sessions, &correct, &incorrect, &unanswered)
	return
}

// GetAnsweredSince counts questions the user answered (revealed with a
// selection) in sessions ended on or after since. Used for the daily goal.
func (r *ProgressRepository) GetAnsweredSince(ctx context.Context, userID int, since time.Time) (int, error) {
	var answered int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(correct + incorrect), 0)
		 FROM session_results
		 WHERE user_id = $1 AND ended_at >= $2`, userID, since,
	).Scan(&answered)
	return answered, err
}

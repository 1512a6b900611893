package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepmed/prepmed-backend/internal/model"
)

// ResultRepository handles finished-session result data access. Writes go
// through the persistence worker; this repository only reads.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// GetBySession retrieves the result for a given session.
func (r *ResultRepository) GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.SessionResult, error) {
	res := &model.SessionResult{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, session_id, user_id, kind, question_count,
		        correct, incorrect, unanswered, unseen,
		        elapsed_seconds, started_at, ended_at, end_reason
		 FROM session_results WHERE session_id = $1`, sessionID,
	).Scan(
		&res.ID, &res.SessionID, &res.UserID, &res.Kind, &res.QuestionCount,
		&res.Tally.Correct, &res.Tally.Incorrect, &res.Tally.Unanswered, &res.Tally.Unseen,
		&res.ElapsedSeconds, &res.StartedAt, &res.EndedAt, &res.EndReason,
	)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListByUser retrieves one page of a user's results, newest first.
func (r *ResultRepository) ListByUser(ctx context.Context, userID, limit, offset int) ([]model.SessionResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, user_id, kind, question_count,
		        correct, incorrect, unanswered, unseen,
		        elapsed_seconds, started_at, ended_at, end_reason
		 FROM session_results WHERE user_id = $1
		 ORDER BY ended_at DESC
		 LIMIT $2 OFFSET $3`, userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.SessionResult
	for rows.Next() {
		var res model.SessionResult
		if err := rows.Scan(
			&res.ID, &res.SessionID, &res.UserID, &res.Kind, &res.QuestionCount,
			&res.Tally.Correct, &res.Tally.Incorrect, &res.Tally.Unanswered, &res.Tally.Unseen,
			&res.ElapsedSeconds, &res.StartedAt, &res.EndedAt, &res.EndReason,
		); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// CountByUser returns the total number of finished sessions a user has.
func (r *ResultRepository) CountByUser(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM session_results WHERE user_id = $1`, userID,
	).Scan(&count)
	return count, err
}

package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepmed/prepmed-backend/internal/model"
)

// SubscriptionRepository handles subscription record data access.
type SubscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository(pool *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

// ListByUser retrieves all of a user's subscription records, expired
// included. The gate decides which record is effective.
func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID int) ([]model.Subscription, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, plan, created_at, expires_at
		 FROM subscriptions WHERE user_id = $1
		 ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		var s model.Subscription
		if err := rows.Scan(&s.ID, &s.UserID, &s.Plan, &s.CreatedAt, &s.ExpiresAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// Insert records a new subscription grant.
func (r *SubscriptionRepository) Insert(ctx context.Context, userID int, plan string, expiresAt time.Time) (*model.Subscription, error) {
	s := &model.Subscription{UserID: userID, Plan: plan, ExpiresAt: expiresAt}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO subscriptions (user_id, plan, expires_at)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		userID, plan, expiresAt,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

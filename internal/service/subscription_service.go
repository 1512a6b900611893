package service

import (
	"context"
	"time"

	"github.com/prepmed/prepmed-backend/internal/engine"
	"github.com/prepmed/prepmed-backend/internal/logger"
	"github.com/prepmed/prepmed-backend/internal/model"
	"github.com/prepmed/prepmed-backend/internal/repository"
	"github.com/rs/zerolog"
)

// SubscriptionService reads billing records and evaluates session access.
type SubscriptionService struct {
	repo *repository.SubscriptionRepository
	gate *engine.Gate
	log  zerolog.Logger
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(repo *repository.SubscriptionRepository, log zerolog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo: repo,
		gate: engine.NewGate(nil),
		log:  logger.Component(log, "subscription_service"),
	}
}

// Evaluate loads the user's records and runs the access gate for a route.
// A load failure is reported to the gate as an indeterminate state rather
// than propagated, so callers always get a decision.
func (s *SubscriptionService) Evaluate(ctx context.Context, userID int, route string) engine.Decision {
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Int("user_id", userID).Msg("subscription lookup failed")
		return s.gate.Evaluate(route, nil, false)
	}
	return s.gate.Evaluate(route, records, true)
}

// ListByUser returns all of a user's subscription records.
func (s *SubscriptionService) ListByUser(ctx context.Context, userID int) ([]model.Subscription, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Effective returns the record currently gating access, or nil.
func (s *SubscriptionService) Effective(ctx context.Context, userID int) (*model.Subscription, error) {
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return model.EffectiveSubscription(records, time.Now()), nil
}

// Grant seeds a subscription record. Development convenience; production
// records arrive from the billing system.
func (s *SubscriptionService) Grant(ctx context.Context, userID int, req *model.GrantSubscriptionRequest) (*model.Subscription, error) {
	expires := time.Now().AddDate(0, 0, req.Days)
	return s.repo.Insert(ctx, userID, req.Plan, expires)
}

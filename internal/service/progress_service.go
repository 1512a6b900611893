package service

import (
	"context"
	"time"

	"github.com/prepmed/prepmed-backend/internal/config"
	"github.com/prepmed/prepmed-backend/internal/repository"
)

// ProgressDay is one dashboard day, zero-filled when no sessions ended on
// it.
type ProgressDay struct {
	Date       string   `json:"date"`
	Sessions   int      `json:"sessions"`
	Correct    int      `json:"correct"`
	Incorrect  int      `json:"incorrect"`
	Unanswered int      `json:"unanswered"`
	Accuracy   *float64 `json:"accuracy,omitempty"`
}

// ProgressOverview is the dashboard payload.
type ProgressOverview struct {
	Week            []ProgressDay `json:"week"`
	TotalSessions   int           `json:"total_sessions"`
	TotalCorrect    int           `json:"total_correct"`
	TotalIncorrect  int           `json:"total_incorrect"`
	TotalUnanswered int           `json:"total_unanswered"`
	OverallAccuracy *float64      `json:"overall_accuracy,omitempty"`
	DailyGoal       int           `json:"daily_goal"`
	AnsweredToday   int           `json:"answered_today"`
	RemainingToday  int           `json:"remaining_today"`
}

// ProgressService aggregates persisted session results for the dashboard.
// Live sessions never contribute; numbers change only when a result row
// lands.
type ProgressService struct {
	cfg  *config.Config
	repo *repository.ProgressRepository
}

// NewProgressService creates a new ProgressService.
func NewProgressService(cfg *config.Config, repo *repository.ProgressRepository) *ProgressService {
	return &ProgressService{cfg: cfg, repo: repo}
}

// Overview builds the rolling seven-day dashboard for a user. Days without
// finished sessions appear as zero rows so the client renders a full week.
func (s *ProgressService) Overview(ctx context.Context, userID int) (*ProgressOverview, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := today.AddDate(0, 0, -6)

	buckets, err := s.repo.GetDailyBuckets(ctx, userID, weekStart)
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]repository.DailyBucket, len(buckets))
	for _, b := range buckets {
		byDay[b.Day.Format("2006-01-02")] = b
	}

	week := make([]ProgressDay, 0, 7)
	for i := 0; i < 7; i++ {
		date := weekStart.AddDate(0, 0, i).Format("2006-01-02")
		day := ProgressDay{Date: date}
		if b, ok := byDay[date]; ok {
			day.Sessions = b.Sessions
			day.Correct = b.Correct
			day.Incorrect = b.Incorrect
			day.Unanswered = b.Unanswered
			day.Accuracy = accuracy(b.Correct, b.Incorrect)
		}
		week = append(week, day)
	}

	sessions, correct, incorrect, unanswered, err := s.repo.GetTotals(ctx, userID)
	if err != nil {
		return nil, err
	}
	answeredToday, err := s.repo.GetAnsweredSince(ctx, userID, today)
	if err != nil {
		return nil, err
	}

	remaining := s.cfg.DailyQuestionGoal - answeredToday
	if remaining < 0 {
		remaining = 0
	}

	return &ProgressOverview{
		Week:            week,
		TotalSessions:   sessions,
		TotalCorrect:    correct,
		TotalIncorrect:  incorrect,
		TotalUnanswered: unanswered,
		OverallAccuracy: accuracy(correct, incorrect),
		DailyGoal:       s.cfg.DailyQuestionGoal,
		AnsweredToday:   answeredToday,
		RemainingToday:  remaining,
	}, nil
}

// accuracy returns correct/(correct+incorrect), nil when nothing was
// answered. Unanswered and unseen questions do not dilute the ratio.
func accuracy(correct, incorrect int) *float64 {
	total := correct + incorrect
	if total == 0 {
		return nil
	}
	a := float64(correct) / float64(total)
	return &a
}

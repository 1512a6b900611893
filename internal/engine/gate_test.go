package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prepmed/prepmed-backend/internal/model"
)

func TestGate_Evaluate(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	gate := NewGate(func() time.Time { return now })

	active := model.Subscription{
		ID:        uuid.New(),
		UserID:    1,
		Plan:      "monthly",
		CreatedAt: now.AddDate(0, -1, 0),
		ExpiresAt: now.AddDate(0, 0, 10),
	}
	expired := model.Subscription{
		ID:        uuid.New(),
		UserID:    1,
		Plan:      "monthly",
		CreatedAt: now.AddDate(0, -2, 0),
		ExpiresAt: now.AddDate(0, 0, -1),
	}

	tests := []struct {
		name    string
		route   string
		records []model.Subscription
		loaded  bool
		want    Decision
	}{
		{
			name:    "expired plus active allows session create",
			route:   "/api/v1/student/sessions",
			records: []model.Subscription{expired, active},
			loaded:  true,
			want:    DecisionAllow,
		},
		{
			name:    "all expired denies",
			route:   "/api/v1/student/sessions",
			records: []model.Subscription{expired},
			loaded:  true,
			want:    DecisionDeny,
		},
		{
			name:    "no records denies",
			route:   "/api/v1/student/sessions",
			records: nil,
			loaded:  true,
			want:    DecisionDeny,
		},
		{
			name:   "not yet loaded is indeterminate",
			route:  "/ws/v1/student/sessions/abc/stream",
			loaded: false,
			want:   DecisionIndeterminate,
		},
		{
			name:   "subscription pages always allowed even unsubscribed",
			route:  "/api/v1/student/subscriptions",
			loaded: true,
			want:   DecisionAllow,
		},
		{
			name:   "settings pages always allowed while loading",
			route:  "/api/v1/student/settings/sound",
			loaded: false,
			want:   DecisionAllow,
		},
		{
			name:   "unprotected route allowed without subscription",
			route:  "/api/v1/student/progress",
			loaded: true,
			want:   DecisionAllow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gate.Evaluate(tt.route, tt.records, tt.loaded); got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.route, got, tt.want)
			}
		})
	}
}

func TestEffectiveSubscription(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

	far := model.Subscription{CreatedAt: now.AddDate(0, -1, 0), ExpiresAt: now.AddDate(0, 0, 10)}
	near := model.Subscription{CreatedAt: now.AddDate(0, -1, 5), ExpiresAt: now.AddDate(0, 0, 2)}
	gone := model.Subscription{CreatedAt: now.AddDate(0, -3, 0), ExpiresAt: now.AddDate(0, 0, -1)}
	tieOld := model.Subscription{CreatedAt: now.AddDate(0, 0, -9), ExpiresAt: now.AddDate(0, 0, 5)}
	tieNew := model.Subscription{CreatedAt: now.AddDate(0, 0, -1), ExpiresAt: now.AddDate(0, 0, 5)}

	tests := []struct {
		name    string
		records []model.Subscription
		want    *model.Subscription
	}{
		{"latest expiry wins", []model.Subscription{near, far, gone}, &far},
		{"expired ignored", []model.Subscription{gone}, nil},
		{"empty", nil, nil},
		{"tie broken by creation", []model.Subscription{tieOld, tieNew}, &tieNew},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := model.EffectiveSubscription(tt.records, now)
			if tt.want == nil {
				if got != nil {
					t.Errorf("got %+v, want nil", got)
				}
				return
			}
			if got == nil || !got.ExpiresAt.Equal(tt.want.ExpiresAt) || !got.CreatedAt.Equal(tt.want.CreatedAt) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

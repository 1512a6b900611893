package model

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is a billing record, read-only from this service's
// perspective. A user may hold several records from renewals and plan
// changes.
type Subscription struct {
	ID        uuid.UUID `json:"id"`
	UserID    int       `json:"user_id"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Active reports whether the record is unexpired at the given instant.
func (s *Subscription) Active(now time.Time) bool {
	return s.ExpiresAt.After(now)
}

// EffectiveSubscription picks the record that gates access: among all
// unexpired records, the one with the latest expiry, ties broken by most
// recent creation. Returns nil when the user holds no active record.
func EffectiveSubscription(records []Subscription, now time.Time) *Subscription {
	var best *Subscription
	for i := range records {
		r := &records[i]
		if !r.Active(now) {
			continue
		}
		if best == nil ||
			r.ExpiresAt.After(best.ExpiresAt) ||
			(r.ExpiresAt.Equal(best.ExpiresAt) && r.CreatedAt.After(best.CreatedAt)) {
			best = r
		}
	}
	return best
}

// GrantSubscriptionRequest is the payload for the development-only grant
// endpoint that seeds subscription records.
type GrantSubscriptionRequest struct {
	Plan string `json:"plan" binding:"required,oneof=monthly quarterly annual"`
	Days int    `json:"days" binding:"required,min=1,max=730"`
}

package engine

import (
	"strings"
	"time"

	"github.com/prepmed/prepmed-backend/internal/model"
)

// Decision is the subscription gate's answer. Indeterminate means the
// subscription data has not loaded yet: the caller must wait, never
// redirect speculatively.
type Decision string

const (
	DecisionAllow         Decision = "ALLOW"
	DecisionDeny          Decision = "DENY"
	DecisionIndeterminate Decision = "INDETERMINATE"
)

// SubscribeRoute is where callers should send a denied user. The gate
// itself never navigates; it only answers the query.
const SubscribeRoute = "/student/subscriptions"

// Route families. Session-protected routes require an effective active
// subscription; the always-allowed families keep a lapsed user able to
// reach the means to resubscribe and their account settings.
var (
	sessionProtectedPrefixes = []string{
		"/api/v1/student/sessions",
		"/ws/v1/student/sessions",
	}
	alwaysAllowedPrefixes = []string{
		"/api/v1/student/subscriptions",
		"/api/v1/student/settings",
	}
)

// Gate evaluates whether the current user may enter or remain inside a
// session-bearing area. Pure: no side effects, no navigation.
type Gate struct {
	now func() time.Time
}

// NewGate creates a gate. now may be nil for the wall clock.
func NewGate(now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{now: now}
}

// Evaluate answers whether the route may be entered given the user's
// subscription records. loaded=false yields Indeterminate for protected
// routes because no decision can be made yet.
func (g *Gate) Evaluate(route string, records []model.Subscription, loaded bool) Decision {
	if hasPrefix(route, alwaysAllowedPrefixes) {
		return DecisionAllow
	}
	if !hasPrefix(route, sessionProtectedPrefixes) {
		return DecisionAllow
	}
	if !loaded {
		return DecisionIndeterminate
	}
	if model.EffectiveSubscription(records, g.now()) != nil {
		return DecisionAllow
	}
	return DecisionDeny
}

func hasPrefix(route string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(route, p) {
			return true
		}
	}
	return false
}

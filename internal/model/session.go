package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionKind determines the timer mode of an assessment session.
type SessionKind string

const (
	KindPractice  SessionKind = "PRACTICE"
	KindExam      SessionKind = "EXAM"
	KindResidency SessionKind = "RESIDENCY"
)

// Timed reports whether sessions of this kind run against a countdown.
// PRACTICE sessions track elapsed time only and never expire.
func (k SessionKind) Timed() bool {
	return k == KindExam || k == KindResidency
}

// Valid reports whether k is a known session kind.
func (k SessionKind) Valid() bool {
	return k == KindPractice || k == KindExam || k == KindResidency
}

// SessionStatus enumerates assessment session states.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "ACTIVE"
	SessionStatusPaused    SessionStatus = "PAUSED"
	SessionStatusCompleted SessionStatus = "COMPLETED"
	SessionStatusAbandoned SessionStatus = "ABANDONED"
)

// Terminal reports whether the status is final.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusAbandoned
}

// PausedInterval is one pause/resume span. End is nil while the pause is
// still open.
type PausedInterval struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
}

// AnswerRecord holds a student's answer state for one question.
// SelectedOptionIDs carries set semantics: order is meaningless and an
// empty slice means "viewed but unanswered". Once RevealedAt is set the
// record is locked and IsCorrect is derived from the selection.
type AnswerRecord struct {
	SelectedOptionIDs []string   `json:"selected_option_ids"`
	RevealedAt        *time.Time `json:"revealed_at,omitempty"`
	IsCorrect         *bool      `json:"is_correct,omitempty"`
}

// Revealed reports whether the answer has been revealed and is locked.
func (r *AnswerRecord) Revealed() bool {
	return r != nil && r.RevealedAt != nil
}

// Session is one assessment attempt. Questions carry the rendered
// presentation order and never reorder after creation. Answers is sparse:
// an index absent from the map means the question was never viewed.
type Session struct {
	ID               uuid.UUID             `json:"id"`
	UserID           int                   `json:"user_id"`
	Kind             SessionKind           `json:"kind"`
	Questions        []Question            `json:"questions"`
	CurrentIndex     int                   `json:"current_index"`
	Answers          map[int]*AnswerRecord `json:"answers"`
	Status           SessionStatus         `json:"status"`
	StartedAt        time.Time             `json:"started_at"`
	PausedIntervals  []PausedInterval      `json:"paused_intervals"`
	CompletedAt      *time.Time            `json:"completed_at,omitempty"`
	TimeLimitSeconds *int                  `json:"time_limit_seconds,omitempty"`
}

// CreateSessionRequest is the payload for starting a new session.
// TimeLimitSeconds is required for timed kinds and must be absent for
// PRACTICE; the service enforces the cross-field rule.
type CreateSessionRequest struct {
	Kind             SessionKind `json:"kind" binding:"required,oneof=PRACTICE EXAM RESIDENCY"`
	TopicIDs         []string    `json:"topic_ids" binding:"omitempty,dive,uuid"`
	QuestionCount    int         `json:"question_count" binding:"required,min=1,max=200"`
	TimeLimitSeconds *int        `json:"time_limit_seconds" binding:"omitempty,min=30,max=28800"`
}

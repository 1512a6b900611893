package model

import (
	"time"

	"github.com/google/uuid"
)

// EndReason records how a session reached its terminal state. The summary
// view distinguishes a countdown expiry from a user-initiated finish.
type EndReason string

const (
	EndReasonUserFinished EndReason = "USER_FINISHED"
	EndReasonTimeExpired  EndReason = "TIME_EXPIRED"
	EndReasonAbandoned    EndReason = "ABANDONED"
)

// Tally is the derived per-session score breakdown. It is always
// recomputed from answer records, never incrementally maintained.
// Unanswered counts questions revealed with an empty selection; questions
// viewed but never revealed count as unseen because only revealed answers
// score.
type Tally struct {
	Correct    int `json:"correct"`
	Incorrect  int `json:"incorrect"`
	Unanswered int `json:"unanswered"`
	Unseen     int `json:"unseen"`
}

// SessionResult is the persisted record of a finished session, consumed
// by the progress dashboard.
type SessionResult struct {
	ID             uuid.UUID   `json:"id"`
	SessionID      uuid.UUID   `json:"session_id"`
	UserID         int         `json:"user_id"`
	Kind           SessionKind `json:"kind"`
	QuestionCount  int         `json:"question_count"`
	Tally          Tally       `json:"tally"`
	ElapsedSeconds int         `json:"elapsed_seconds"`
	StartedAt      time.Time   `json:"started_at"`
	EndedAt        time.Time   `json:"ended_at"`
	EndReason      EndReason   `json:"end_reason"`
}

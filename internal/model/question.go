package model

import (
	"time"

	"github.com/google/uuid"
)

// Option is a single answer choice. The order of options in a question's
// slice is the rendered order shown to the student; letter shortcuts map
// against this order.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question represents a single assessment question.
type Question struct {
	ID               uuid.UUID `json:"id"`
	TopicID          uuid.UUID `json:"topic_id"`
	Prompt           string    `json:"prompt"`
	Options          []Option  `json:"options"`
	CorrectOptionIDs []string  `json:"correct_option_ids,omitempty"`
	MultiSelect      bool      `json:"multi_select"`
	Explanation      string    `json:"explanation,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// OptionAt returns the option at the given rendered position, or false if
// the position is out of range.
func (q *Question) OptionAt(pos int) (Option, bool) {
	if pos < 0 || pos >= len(q.Options) {
		return Option{}, false
	}
	return q.Options[pos], true
}

// Topic groups questions for session filtering (e.g. cardiology, pharmacology).
type Topic struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateTopicRequest is the payload for creating a topic.
type CreateTopicRequest struct {
	Name string `json:"name" binding:"required,min=2,max=120"`
}

// OptionInput is one answer choice in a question payload.
type OptionInput struct {
	ID   string `json:"id" binding:"required,optionid"`
	Text string `json:"text" binding:"required,min=1,max=1000"`
}

// CreateQuestionRequest is the payload for adding a question to a topic.
type CreateQuestionRequest struct {
	Prompt           string        `json:"prompt" binding:"required,min=1,max=4000"`
	Options          []OptionInput `json:"options" binding:"required,min=2,max=12,dive"`
	CorrectOptionIDs []string      `json:"correct_option_ids" binding:"required,min=1,dive,optionid"`
	MultiSelect      bool          `json:"multi_select"`
	Explanation      string        `json:"explanation" binding:"max=8000"`
}

// UpdateQuestionRequest is the payload for updating an existing question.
type UpdateQuestionRequest struct {
	Prompt           string        `json:"prompt" binding:"omitempty,min=1,max=4000"`
	Options          []OptionInput `json:"options" binding:"omitempty,min=2,max=12,dive"`
	CorrectOptionIDs []string      `json:"correct_option_ids" binding:"omitempty,min=1,dive,optionid"`
	MultiSelect      *bool         `json:"multi_select" binding:"omitempty"`
	Explanation      *string       `json:"explanation" binding:"omitempty,max=8000"`
}

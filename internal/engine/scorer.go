package engine

import (
	"time"

	"github.com/prepmed/prepmed-backend/internal/model"
)

// Scorer records and classifies answer state per question. It mutates the
// session's sparse answers map in place; correctness is derived from the
// selection at reveal time and never mutated independently.
type Scorer struct {
	questions []model.Question
	answers   map[int]*model.AnswerRecord
	now       func() time.Time
}

// NewScorer wraps the given question order and answers map. The map is
// shared with the session so the machine's snapshots see scorer updates.
func NewScorer(questions []model.Question, answers map[int]*model.AnswerRecord, now func() time.Time) *Scorer {
	if now == nil {
		now = time.Now
	}
	return &Scorer{questions: questions, answers: answers, now: now}
}

// View marks the question as seen, creating an empty "viewed but
// unanswered" record if none exists.
func (s *Scorer) View(index int) {
	if index < 0 || index >= len(s.questions) {
		return
	}
	if _, ok := s.answers[index]; !ok {
		s.answers[index] = &model.AnswerRecord{SelectedOptionIDs: []string{}}
	}
}

// Record returns the answer record for the index, or nil if unseen.
func (s *Scorer) Record(index int) *model.AnswerRecord {
	return s.answers[index]
}

// Select replaces the full selection for the question. Incremental toggle
// semantics belong to the caller. Returns ErrAnswerLocked once revealed.
func (s *Scorer) Select(index int, optionIDs []string) error {
	if index < 0 || index >= len(s.questions) {
		return ErrInvalidTransition
	}
	rec := s.answers[index]
	if rec.Revealed() {
		return ErrAnswerLocked
	}
	if rec == nil {
		rec = &model.AnswerRecord{}
		s.answers[index] = rec
	}
	rec.SelectedOptionIDs = dedupe(optionIDs)
	return nil
}

// Clear resets the selection to empty. Permitted only before reveal.
func (s *Scorer) Clear(index int) error {
	if index < 0 || index >= len(s.questions) {
		return ErrInvalidTransition
	}
	rec := s.answers[index]
	if rec.Revealed() {
		return ErrAnswerLocked
	}
	if rec == nil {
		rec = &model.AnswerRecord{}
		s.answers[index] = rec
	}
	rec.SelectedOptionIDs = []string{}
	return nil
}

// Reveal locks the answer and computes correctness. Idempotent: a second
// call returns the existing record without touching RevealedAt.
func (s *Scorer) Reveal(index int) (*model.AnswerRecord, error) {
	if index < 0 || index >= len(s.questions) {
		return nil, ErrInvalidTransition
	}
	rec := s.answers[index]
	if rec == nil {
		rec = &model.AnswerRecord{SelectedOptionIDs: []string{}}
		s.answers[index] = rec
	}
	if rec.Revealed() {
		return rec, nil
	}
	at := s.now()
	rec.RevealedAt = &at
	correct := sameSet(rec.SelectedOptionIDs, s.questions[index].CorrectOptionIDs)
	rec.IsCorrect = &correct
	return rec, nil
}

// Tally recomputes the score breakdown from the answers map. It never
// keeps a running counter, so it cannot drift from the records.
func (s *Scorer) Tally() model.Tally {
	var t model.Tally
	for i := range s.questions {
		rec := s.answers[i]
		switch {
		case !rec.Revealed():
			t.Unseen++
		case len(rec.SelectedOptionIDs) == 0:
			t.Unanswered++
		case rec.IsCorrect != nil && *rec.IsCorrect:
			t.Correct++
		default:
			t.Incorrect++
		}
	}
	return t
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// sameSet compares two option-ID sets for exact equality. This covers
// both contracts: single-element equality for single-select and exact-set
// equality for multi-select. An empty selection never matches.
func sameSet(a, b []string) bool {
	if len(a) == 0 || len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

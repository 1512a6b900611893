package engine

import (
	"reflect"
	"testing"

	"github.com/prepmed/prepmed-backend/internal/model"
)

func newTestScorer(n int) (*Scorer, map[int]*model.AnswerRecord) {
	clock := newFakeClock()
	answers := make(map[int]*model.AnswerRecord)
	return NewScorer(testQuestions(n), answers, clock.Now), answers
}

func TestScorer_SelectReplacesFully(t *testing.T) {
	s, _ := newTestScorer(1)
	s.View(0)

	s.Select(0, []string{"a"})
	s.Select(0, []string{"b", "c"})
	s.Select(0, []string{"c"})

	got := s.Record(0).SelectedOptionIDs
	if !reflect.DeepEqual(got, []string{"c"}) {
		t.Errorf("selection = %v, want [c] (last select wins)", got)
	}

	// Repeating the last call changes nothing further.
	s.Select(0, []string{"c"})
	if got := s.Record(0).SelectedOptionIDs; !reflect.DeepEqual(got, []string{"c"}) {
		t.Errorf("selection after repeat = %v, want [c]", got)
	}
}

func TestScorer_ClearResetsToEmpty(t *testing.T) {
	s, _ := newTestScorer(1)
	s.View(0)
	s.Select(0, []string{"a", "b"})

	if err := s.Clear(0); err != nil {
		t.Fatalf("Clear() = %v", err)
	}
	if got := s.Record(0).SelectedOptionIDs; len(got) != 0 {
		t.Errorf("selection after clear = %v, want empty", got)
	}
}

func TestScorer_RevealLocksAnswer(t *testing.T) {
	s, _ := newTestScorer(1)
	s.View(0)
	s.Select(0, []string{"b"})

	rec, err := s.Reveal(0)
	if err != nil {
		t.Fatalf("Reveal() = %v", err)
	}
	if rec.IsCorrect == nil || !*rec.IsCorrect {
		t.Error("IsCorrect = false, want true for correct option b")
	}

	if err := s.Select(0, []string{"a"}); err != ErrAnswerLocked {
		t.Errorf("Select after reveal = %v, want ErrAnswerLocked", err)
	}
	if err := s.Clear(0); err != ErrAnswerLocked {
		t.Errorf("Clear after reveal = %v, want ErrAnswerLocked", err)
	}
}

func TestScorer_RevealIdempotent(t *testing.T) {
	s, _ := newTestScorer(1)
	s.View(0)
	s.Select(0, []string{"a"})

	first, err := s.Reveal(0)
	if err != nil {
		t.Fatalf("first Reveal() = %v", err)
	}
	revealedAt := *first.RevealedAt

	second, err := s.Reveal(0)
	if err != nil {
		t.Fatalf("second Reveal() = %v", err)
	}
	if !second.RevealedAt.Equal(revealedAt) {
		t.Error("second reveal moved RevealedAt")
	}
	if *first.IsCorrect != *second.IsCorrect {
		t.Error("reveal is not deterministic")
	}
}

func TestScorer_MultiSelectExactSetEquality(t *testing.T) {
	clock := newFakeClock()
	q := model.Question{
		Options: []model.Option{
			{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"},
		},
		CorrectOptionIDs: []string{"a", "c"},
		MultiSelect:      true,
	}

	tests := []struct {
		name     string
		selected []string
		want     bool
	}{
		{"exact match", []string{"a", "c"}, true},
		{"order irrelevant", []string{"c", "a"}, true},
		{"subset", []string{"a"}, false},
		{"superset", []string{"a", "c", "d"}, false},
		{"disjoint", []string{"b", "d"}, false},
		{"empty", []string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers := make(map[int]*model.AnswerRecord)
			s := NewScorer([]model.Question{q}, answers, clock.Now)
			s.View(0)
			s.Select(0, tt.selected)
			rec, err := s.Reveal(0)
			if err != nil {
				t.Fatalf("Reveal() = %v", err)
			}
			if *rec.IsCorrect != tt.want {
				t.Errorf("IsCorrect = %v, want %v", *rec.IsCorrect, tt.want)
			}
		})
	}
}

func TestScorer_TallyRecomputesFromRecords(t *testing.T) {
	s, _ := newTestScorer(5)

	// q0 correct, q1 incorrect, q2 revealed unanswered, q3 viewed only,
	// q4 untouched.
	s.View(0)
	s.Select(0, []string{"b"})
	s.Reveal(0)

	s.View(1)
	s.Select(1, []string{"a"})
	s.Reveal(1)

	s.View(2)
	s.Reveal(2)

	s.View(3)

	want := model.Tally{Correct: 1, Incorrect: 1, Unanswered: 1, Unseen: 2}
	if got := s.Tally(); got != want {
		t.Errorf("Tally() = %+v, want %+v", got, want)
	}

	// Tally twice: derived, never drifting.
	if got := s.Tally(); got != want {
		t.Errorf("second Tally() = %+v, want %+v", got, want)
	}
}

func TestScorer_OutOfRangeIndex(t *testing.T) {
	s, _ := newTestScorer(2)
	if err := s.Select(5, []string{"a"}); err != ErrInvalidTransition {
		t.Errorf("Select(5) = %v, want ErrInvalidTransition", err)
	}
	if _, err := s.Reveal(-1); err != ErrInvalidTransition {
		t.Errorf("Reveal(-1) = %v, want ErrInvalidTransition", err)
	}
}

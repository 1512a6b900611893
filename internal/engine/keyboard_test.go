package engine

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/prepmed/prepmed-backend/internal/model"
)

func newBoundMachine(t *testing.T) (*Dispatcher, *Machine) {
	t.Helper()
	clock := newFakeClock()
	sess := testSession(model.KindPractice, 3, 0, clock.Now())
	m := testMachine(clock, sess, nil)
	d := NewDispatcher()
	d.Bind(m)
	return d, m
}

func TestDispatcher_LetterThenEnterScenario(t *testing.T) {
	d, m := newBoundMachine(t)

	// Single-choice question with options a/b/c; correct is b.
	if err := d.Dispatch(m.ID(), KeyEvent{Key: "B"}); err != nil {
		t.Fatalf("Dispatch(B) = %v", err)
	}
	if err := d.Dispatch(m.ID(), KeyEvent{Key: "Enter"}); err != nil {
		t.Fatalf("Dispatch(Enter) = %v", err)
	}

	rec := m.Snapshot().Answers[0]
	if !reflect.DeepEqual(rec.SelectedOptionIDs, []string{"b"}) {
		t.Errorf("selection = %v, want [b]", rec.SelectedOptionIDs)
	}
	if rec.RevealedAt == nil {
		t.Error("RevealedAt not set after Enter")
	}
	if rec.IsCorrect == nil || !*rec.IsCorrect {
		t.Error("IsCorrect = false, want true: pressed letter maps to correct option")
	}
}

func TestDispatcher_SingleSelectLetterToggles(t *testing.T) {
	d, m := newBoundMachine(t)

	d.Dispatch(m.ID(), KeyEvent{Key: "a"})
	d.Dispatch(m.ID(), KeyEvent{Key: "c"})
	if _, sel := m.CurrentQuestion(); !reflect.DeepEqual(sel, []string{"c"}) {
		t.Errorf("selection = %v, want [c] (single-select replaces)", sel)
	}

	d.Dispatch(m.ID(), KeyEvent{Key: "c"})
	if _, sel := m.CurrentQuestion(); len(sel) != 0 {
		t.Errorf("selection = %v, want empty (same letter deselects)", sel)
	}
}

func TestDispatcher_MultiSelectLetterToggles(t *testing.T) {
	clock := newFakeClock()
	sess := testSession(model.KindPractice, 1, 0, clock.Now())
	sess.Questions[0].MultiSelect = true
	sess.Questions[0].CorrectOptionIDs = []string{"a", "b"}
	m := testMachine(clock, sess, nil)
	d := NewDispatcher()
	d.Bind(m)

	d.Dispatch(m.ID(), KeyEvent{Key: "a"})
	d.Dispatch(m.ID(), KeyEvent{Key: "b"})
	if _, sel := m.CurrentQuestion(); !reflect.DeepEqual(sel, []string{"a", "b"}) {
		t.Errorf("selection = %v, want [a b]", sel)
	}

	d.Dispatch(m.ID(), KeyEvent{Key: "a"})
	if _, sel := m.CurrentQuestion(); !reflect.DeepEqual(sel, []string{"b"}) {
		t.Errorf("selection = %v, want [b] after toggling a off", sel)
	}
}

func TestDispatcher_LetterBeyondOptionsIgnored(t *testing.T) {
	d, m := newBoundMachine(t)

	// Three options: "z" has no ordinal counterpart.
	if err := d.Dispatch(m.ID(), KeyEvent{Key: "z"}); err != nil {
		t.Errorf("Dispatch(z) = %v, want nil no-op", err)
	}
	if _, sel := m.CurrentQuestion(); len(sel) != 0 {
		t.Errorf("selection = %v, want empty", sel)
	}
}

func TestDispatcher_ArrowsClampAtBounds(t *testing.T) {
	d, m := newBoundMachine(t)

	if err := d.Dispatch(m.ID(), KeyEvent{Key: "ArrowLeft"}); err != nil {
		t.Errorf("ArrowLeft at index 0 = %v, want nil no-op", err)
	}
	if got := m.Snapshot().CurrentIndex; got != 0 {
		t.Errorf("CurrentIndex = %d, want 0", got)
	}

	for i := 0; i < 5; i++ {
		d.Dispatch(m.ID(), KeyEvent{Key: "ArrowRight"})
	}
	if got := m.Snapshot().CurrentIndex; got != 2 {
		t.Errorf("CurrentIndex = %d, want clamp at 2", got)
	}
}

func TestDispatcher_PauseToggle(t *testing.T) {
	d, m := newBoundMachine(t)

	d.Dispatch(m.ID(), KeyEvent{Key: "p"})
	if got := m.Status(); got != model.SessionStatusPaused {
		t.Fatalf("status = %v, want PAUSED", got)
	}

	// Scorer commands are rejected while paused.
	if err := d.Dispatch(m.ID(), KeyEvent{Key: "Enter"}); err != ErrSessionPaused {
		t.Errorf("Enter while paused = %v, want ErrSessionPaused", err)
	}

	d.Dispatch(m.ID(), KeyEvent{Key: "P"})
	if got := m.Status(); got != model.SessionStatusActive {
		t.Errorf("status = %v, want ACTIVE after resume", got)
	}
}

func TestDispatcher_BackspaceAfterRevealIsNoop(t *testing.T) {
	d, m := newBoundMachine(t)

	d.Dispatch(m.ID(), KeyEvent{Key: "a"})
	d.Dispatch(m.ID(), KeyEvent{Key: "Enter"})

	if err := d.Dispatch(m.ID(), KeyEvent{Key: "Backspace"}); err != nil {
		t.Errorf("Backspace after reveal = %v, want nil no-op", err)
	}
	rec := m.Snapshot().Answers[0]
	if !reflect.DeepEqual(rec.SelectedOptionIDs, []string{"a"}) {
		t.Errorf("selection = %v, want [a] untouched", rec.SelectedOptionIDs)
	}
}

func TestDispatcher_EditableOriginIgnored(t *testing.T) {
	d, m := newBoundMachine(t)

	d.Dispatch(m.ID(), KeyEvent{Key: "b", FromEditable: true})
	d.Dispatch(m.ID(), KeyEvent{Key: "Enter", FromEditable: true})

	rec := m.Snapshot().Answers[0]
	if len(rec.SelectedOptionIDs) != 0 || rec.RevealedAt != nil {
		t.Error("events from text inputs must never be intercepted")
	}
}

func TestDispatcher_EscapeSignalsExitIntent(t *testing.T) {
	d, m := newBoundMachine(t)

	var events []EventType
	m.Attach(func(evt Event) { events = append(events, evt.Type) })

	d.Dispatch(m.ID(), KeyEvent{Key: "Escape"})

	found := false
	for _, e := range events {
		if e == EventExitPrompt {
			found = true
		}
	}
	if !found {
		t.Error("Escape did not emit exit prompt intent")
	}
	if got := m.Status(); got != model.SessionStatusActive {
		t.Errorf("status = %v, Escape must not mutate state", got)
	}
}

func TestDispatcher_UnknownKeyIgnored(t *testing.T) {
	d, m := newBoundMachine(t)
	if err := d.Dispatch(m.ID(), KeyEvent{Key: "F5"}); err != nil {
		t.Errorf("Dispatch(F5) = %v, want nil", err)
	}
}

func TestDispatcher_UnboundSessionRejected(t *testing.T) {
	d, m := newBoundMachine(t)
	d.Unbind(m.ID())

	if d.Bound(m.ID()) {
		t.Error("Bound() = true after Unbind")
	}
	if err := d.Dispatch(m.ID(), KeyEvent{Key: "Enter"}); err != ErrSessionNotFound {
		t.Errorf("Dispatch after unbind = %v, want ErrSessionNotFound", err)
	}
	if err := d.Dispatch(uuid.New(), KeyEvent{Key: "Enter"}); err != ErrSessionNotFound {
		t.Errorf("Dispatch unknown id = %v, want ErrSessionNotFound", err)
	}
}

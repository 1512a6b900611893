package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prepmed/prepmed-backend/internal/model"
)

func TestMachine_CompleteIdempotent(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	sink := &fakeSink{}
	m := testMachine(clock, testSession(model.KindPractice, 2, 0, clock.Now()), sink)

	clock.Advance(30 * time.Second)

	first, err := m.Complete(ctx)
	if err != nil {
		t.Fatalf("Complete() = %v", err)
	}
	second, err := m.Complete(ctx)
	if err != nil {
		t.Fatalf("second Complete() = %v", err)
	}

	if first != second {
		t.Error("second Complete() returned a different result")
	}
	if sink.count() != 1 {
		t.Errorf("persisted %d results, want exactly 1", sink.count())
	}
	if first.EndReason != model.EndReasonUserFinished {
		t.Errorf("EndReason = %v, want USER_FINISHED", first.EndReason)
	}
	if first.ElapsedSeconds != 30 {
		t.Errorf("ElapsedSeconds = %d, want 30", first.ElapsedSeconds)
	}
}

func TestMachine_ElapsedExcludesPauses(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	sink := &fakeSink{}
	m := testMachine(clock, testSession(model.KindPractice, 1, 0, clock.Now()), sink)

	clock.Advance(10 * time.Second)
	if err := m.Pause(); err != nil {
		t.Fatalf("Pause() = %v", err)
	}
	clock.Advance(5 * time.Second)
	if err := m.Resume(); err != nil {
		t.Fatalf("Resume() = %v", err)
	}
	clock.Advance(10 * time.Second)

	res, err := m.Complete(ctx)
	if err != nil {
		t.Fatalf("Complete() = %v", err)
	}
	if res.ElapsedSeconds != 20 {
		t.Errorf("ElapsedSeconds = %d, want 20 (25 wall minus 5 paused)", res.ElapsedSeconds)
	}
}

func TestMachine_PausedRejectsScorerCommands(t *testing.T) {
	clock := newFakeClock()
	m := testMachine(clock, testSession(model.KindPractice, 2, 0, clock.Now()), nil)

	if err := m.Pause(); err != nil {
		t.Fatalf("Pause() = %v", err)
	}

	// Arrival order is strict: pause followed by select deterministically
	// rejects the select.
	if err := m.Select([]string{"a"}); err != ErrSessionPaused {
		t.Errorf("Select while paused = %v, want ErrSessionPaused", err)
	}
	if err := m.Navigate(1); err != ErrSessionPaused {
		t.Errorf("Navigate while paused = %v, want ErrSessionPaused", err)
	}
	if err := m.Clear(); err != ErrSessionPaused {
		t.Errorf("Clear while paused = %v, want ErrSessionPaused", err)
	}
	if _, err := m.Reveal(); err != ErrSessionPaused {
		t.Errorf("Reveal while paused = %v, want ErrSessionPaused", err)
	}
}

func TestMachine_InvalidPauseTransitions(t *testing.T) {
	clock := newFakeClock()
	m := testMachine(clock, testSession(model.KindPractice, 1, 0, clock.Now()), nil)

	if err := m.Resume(); err != ErrInvalidTransition {
		t.Errorf("Resume while active = %v, want ErrInvalidTransition", err)
	}
	m.Pause()
	if err := m.Pause(); err != ErrInvalidTransition {
		t.Errorf("double Pause = %v, want ErrInvalidTransition", err)
	}

	m.Complete(context.Background())
	if err := m.Pause(); err != ErrInvalidTransition {
		t.Errorf("Pause after complete = %v, want ErrInvalidTransition", err)
	}
	if err := m.Navigate(1); err != ErrInvalidTransition {
		t.Errorf("Navigate after complete = %v, want ErrInvalidTransition", err)
	}
}

func TestMachine_CompleteFromPaused(t *testing.T) {
	clock := newFakeClock()
	m := testMachine(clock, testSession(model.KindPractice, 1, 0, clock.Now()), nil)

	m.Pause()
	if _, err := m.Complete(context.Background()); err != nil {
		t.Errorf("Complete from paused = %v, want nil", err)
	}
	if got := m.Status(); got != model.SessionStatusCompleted {
		t.Errorf("status = %v, want COMPLETED", got)
	}
}

func TestMachine_AbandonPersistsResult(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	sink := &fakeSink{}
	m := testMachine(clock, testSession(model.KindExam, 2, 600, clock.Now()), sink)

	clock.Advance(45 * time.Second)
	res, err := m.Abandon(ctx)
	if err != nil {
		t.Fatalf("Abandon() = %v", err)
	}
	if res.EndReason != model.EndReasonAbandoned {
		t.Errorf("EndReason = %v, want ABANDONED", res.EndReason)
	}
	if got := m.Status(); got != model.SessionStatusAbandoned {
		t.Errorf("status = %v, want ABANDONED", got)
	}
	if sink.count() != 1 {
		t.Errorf("persisted %d results, want 1 (abandon keeps stats consistent)", sink.count())
	}
	if res.ElapsedSeconds != 45 {
		t.Errorf("ElapsedSeconds = %d, want 45", res.ElapsedSeconds)
	}
}

func TestMachine_TimedSessionAutoCompletes(t *testing.T) {
	old := timerTickInterval
	timerTickInterval = 2 * time.Millisecond
	defer func() { timerTickInterval = old }()

	clock := newFakeClock()
	sink := &fakeSink{}
	m := testMachine(clock, testSession(model.KindExam, 2, 60, clock.Now()), sink)

	done := make(chan struct{})
	m.Attach(func(evt Event) {
		if evt.Type == EventResult {
			close(done)
		}
	})
	defer m.Detach()

	clock.Advance(60 * time.Second)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("session never auto-completed at the limit")
	}

	if got := m.Status(); got != model.SessionStatusCompleted {
		t.Errorf("status = %v, want COMPLETED", got)
	}
	res := sink.last()
	if res == nil {
		t.Fatal("no result persisted")
	}
	if res.EndReason != model.EndReasonTimeExpired {
		t.Errorf("EndReason = %v, want TIME_EXPIRED", res.EndReason)
	}
	if sink.count() != 1 {
		t.Errorf("persisted %d results, want 1", sink.count())
	}
}

func TestMachine_DetachWaitsForDeliveryInFlight(t *testing.T) {
	clock := newFakeClock()
	m := testMachine(clock, testSession(model.KindPractice, 1, 0, clock.Now()), nil)

	entered := make(chan struct{})
	var finished atomic.Bool
	m.Attach(func(evt Event) {
		if evt.Type != EventStatus {
			return
		}
		close(entered)
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
	})

	go m.Pause()
	<-entered

	// Callers tear down the handler's write targets right after Detach,
	// so it must not return while a delivery is still running.
	m.Detach()
	if !finished.Load() {
		t.Error("Detach returned with a delivery still in flight")
	}
}

func TestMachine_DiscardPersistsNothing(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	sink := &fakeSink{}
	m := testMachine(clock, testSession(model.KindPractice, 1, 0, clock.Now()), sink)

	clock.Advance(5 * time.Second)
	m.Discard()

	if got := m.Status(); got != model.SessionStatusAbandoned {
		t.Errorf("status = %v, want ABANDONED", got)
	}
	if sink.count() != 0 {
		t.Errorf("persisted %d results, want 0 (discarded sessions never happened)", sink.count())
	}
	if _, err := m.Complete(ctx); err != ErrInvalidTransition {
		t.Errorf("Complete after Discard = %v, want ErrInvalidTransition", err)
	}
	if sink.count() != 0 {
		t.Errorf("persisted %d results after Complete attempt, want 0", sink.count())
	}
}

func TestMachine_NavigateMarksViewed(t *testing.T) {
	clock := newFakeClock()
	m := testMachine(clock, testSession(model.KindPractice, 3, 0, clock.Now()), nil)

	if err := m.Navigate(1); err != nil {
		t.Fatalf("Navigate(1) = %v", err)
	}
	snap := m.Snapshot()
	if snap.CurrentIndex != 1 {
		t.Errorf("CurrentIndex = %d, want 1", snap.CurrentIndex)
	}
	if _, ok := snap.Answers[1]; !ok {
		t.Error("navigation did not mark question 1 viewed")
	}
	if _, ok := snap.Answers[2]; ok {
		t.Error("question 2 marked viewed without navigation")
	}
}

func TestMachine_RevealEmitsCue(t *testing.T) {
	clock := newFakeClock()
	m := testMachine(clock, testSession(model.KindPractice, 1, 0, clock.Now()), nil)

	var cues []Cue
	m.Attach(func(evt Event) {
		if evt.Type == EventCue {
			cues = append(cues, evt.Cue)
		}
	})
	defer m.Detach()

	m.Select([]string{"b"})
	out, err := m.Reveal()
	if err != nil {
		t.Fatalf("Reveal() = %v", err)
	}
	if !out.IsCorrect {
		t.Fatal("IsCorrect = false, want true")
	}
	if len(cues) != 1 || cues[0] != CueCorrect {
		t.Errorf("cues = %v, want [correct]", cues)
	}

	// Second reveal is idempotent and silent.
	m.Reveal()
	if len(cues) != 1 {
		t.Errorf("cues after repeat reveal = %v, want exactly one", cues)
	}
}

func TestMachine_PersistFailureRetained(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	sink := &fakeSink{fail: true}
	m := testMachine(clock, testSession(model.KindPractice, 1, 0, clock.Now()), sink)

	res, err := m.Complete(ctx)
	if err != ErrPersistenceFailure {
		t.Fatalf("Complete() = %v, want ErrPersistenceFailure", err)
	}
	if res == nil {
		t.Fatal("result dropped on persistence failure")
	}
	if !m.PersistPending() {
		t.Error("PersistPending() = false, want true")
	}

	sink.mu.Lock()
	sink.fail = false
	sink.mu.Unlock()

	if err := m.RetryPersist(ctx); err != nil {
		t.Fatalf("RetryPersist() = %v", err)
	}
	if m.PersistPending() {
		t.Error("PersistPending() = true after successful retry")
	}
	if sink.count() != 1 {
		t.Errorf("persisted %d results, want 1", sink.count())
	}
}

func TestMachine_SnapshotHidesUnrevealedAnswers(t *testing.T) {
	clock := newFakeClock()
	m := testMachine(clock, testSession(model.KindPractice, 2, 0, clock.Now()), nil)

	m.Select([]string{"a"})
	m.Reveal()

	snap := m.Snapshot()
	if len(snap.Questions[0].CorrectOptionIDs) == 0 {
		t.Error("revealed question lost its correct options")
	}
	if snap.Questions[1].CorrectOptionIDs != nil {
		t.Error("unrevealed question leaks correct options")
	}
}

func TestRegistry_SingleLiveSessionPerUser(t *testing.T) {
	clock := newFakeClock()
	r := NewRegistry()

	m1 := testMachine(clock, testSession(model.KindPractice, 1, 0, clock.Now()), nil)
	if err := r.Add(m1); err != nil {
		t.Fatalf("Add() = %v", err)
	}

	m2 := testMachine(clock, testSession(model.KindPractice, 1, 0, clock.Now()), nil)
	if err := r.Add(m2); err != ErrSessionConflict {
		t.Errorf("Add() second machine = %v, want ErrSessionConflict", err)
	}

	if got, ok := r.ForUser(m1.UserID()); !ok || got != m1 {
		t.Error("ForUser() did not return the live machine")
	}

	r.Remove(m1.ID())
	if _, ok := r.Get(m1.ID()); ok {
		t.Error("machine still present after Remove")
	}
	if err := r.Add(m2); err != nil {
		t.Errorf("Add() after removal = %v, want nil", err)
	}
}

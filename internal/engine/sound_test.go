package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type recordingPlayer struct {
	cues []Cue
	err  error
}

func (p *recordingPlayer) Play(cue Cue) error {
	p.cues = append(p.cues, cue)
	return p.err
}

func TestSoundFeedback_DefaultUnmuted(t *testing.T) {
	s := NewSoundFeedback(1, newMemMuteStore(), nil)
	if s.Muted(context.Background()) {
		t.Error("Muted() = true with no stored value, want false")
	}
}

func TestSoundFeedback_ToggleMutePersistsAndNotifies(t *testing.T) {
	ctx := context.Background()
	store := newMemMuteStore()
	s := NewSoundFeedback(1, store, nil)

	var notified []bool
	s.Subscribe(func(muted bool) { notified = append(notified, muted) })

	if got := s.ToggleMute(ctx); !got {
		t.Error("first toggle = false, want true")
	}
	if got := s.ToggleMute(ctx); got {
		t.Error("second toggle = true, want false")
	}

	if len(notified) != 2 || !notified[0] || notified[1] {
		t.Errorf("notifications = %v, want [true false]", notified)
	}

	muted, ok, _ := store.GetMuted(ctx, 1)
	if !ok || muted {
		t.Errorf("stored = (%v, %v), want (false, true)", muted, ok)
	}

	// A fresh manager for the same user reads the persisted value.
	s2 := NewSoundFeedback(1, store, nil)
	if s2.Muted(ctx) {
		t.Error("fresh manager Muted() = true, want persisted false")
	}
}

func TestSoundFeedback_NestedToggleFlipsWithoutRecursion(t *testing.T) {
	ctx := context.Background()
	s := NewSoundFeedback(1, newMemMuteStore(), nil)

	nested := false
	var notified []bool
	s.Subscribe(func(muted bool) {
		notified = append(notified, muted)
		if !nested {
			nested = true
			// Toggling from inside a handler must flip the flag and
			// queue its own delivery instead of recursing.
			if got := s.ToggleMute(ctx); got {
				t.Error("nested toggle = true, want false")
			}
		}
	})

	if got := s.ToggleMute(ctx); !got {
		t.Error("outer toggle = false, want true")
	}
	if s.Muted(ctx) {
		t.Error("nested toggle was swallowed, flag still muted")
	}
	if len(notified) != 2 || !notified[0] || notified[1] {
		t.Errorf("notifications = %v, want [true false]", notified)
	}
}

func TestSoundFeedback_ConcurrentTogglesAllApply(t *testing.T) {
	ctx := context.Background()
	store := newMemMuteStore()
	s := NewSoundFeedback(1, store, nil)

	var mu sync.Mutex
	delivered := 0
	s.Subscribe(func(bool) {
		mu.Lock()
		delivered++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ToggleMute(ctx)
		}()
	}
	wg.Wait()

	// Two flips cancel out regardless of interleaving.
	if s.Muted(ctx) {
		t.Error("Muted() = true after two toggles, want false")
	}
	muted, ok, _ := store.GetMuted(ctx, 1)
	if !ok || muted {
		t.Errorf("stored = (%v, %v), want (false, true)", muted, ok)
	}
	mu.Lock()
	got := delivered
	mu.Unlock()
	if got != 2 {
		t.Errorf("deliveries = %d, want 2", got)
	}
}

func TestSoundFeedback_MutedCueIsNoop(t *testing.T) {
	ctx := context.Background()
	player := &recordingPlayer{}
	s := NewSoundFeedback(1, newMemMuteStore(), player)

	s.ToggleMute(ctx) // mute
	s.EmitCue(ctx, CueCorrect)
	if len(player.cues) != 0 {
		t.Errorf("muted cue played %v, want none", player.cues)
	}

	s.ToggleMute(ctx) // unmute
	s.EmitCue(ctx, CueIncorrect)
	if len(player.cues) != 1 || player.cues[0] != CueIncorrect {
		t.Errorf("cues = %v, want [incorrect]", player.cues)
	}
}

func TestSoundFeedback_PlayerFailureSwallowed(t *testing.T) {
	player := &recordingPlayer{err: errors.New("audio backend unavailable")}
	s := NewSoundFeedback(1, newMemMuteStore(), player)

	// Must not panic or propagate; cue playback is cosmetic.
	s.EmitCue(context.Background(), CueReveal)
	if len(player.cues) != 1 {
		t.Errorf("play attempts = %d, want 1", len(player.cues))
	}
}

func TestSoundFeedback_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	s := NewSoundFeedback(1, newMemMuteStore(), nil)

	calls := 0
	remove := s.Subscribe(func(bool) { calls++ })
	s.ToggleMute(ctx)
	remove()
	s.ToggleMute(ctx)

	if calls != 1 {
		t.Errorf("handler ran %d times after removal, want 1", calls)
	}
}

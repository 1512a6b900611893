package engine

import (
	"context"
	"sync"
)

// Cue names the audio feedback events the engine can emit.
type Cue string

const (
	CueCorrect   Cue = "correct"
	CueIncorrect Cue = "incorrect"
	CueReveal    Cue = "reveal"
)

// MuteStore persists a user's mute preference. The second return of Get
// distinguishes "never set" (default unmuted) from a stored value.
type MuteStore interface {
	GetMuted(ctx context.Context, userID int) (muted bool, ok bool, err error)
	SetMuted(ctx context.Context, userID int, muted bool) error
}

// CuePlayer delivers a cue to whatever playback surface is attached.
// Playback is cosmetic: errors are swallowed by the SoundFeedback layer
// and never reach session logic.
type CuePlayer interface {
	Play(cue Cue) error
}

// CuePlayerFunc adapts a function to the CuePlayer interface.
type CuePlayerFunc func(cue Cue) error

// Play implements CuePlayer.
func (f CuePlayerFunc) Play(cue Cue) error { return f(cue) }

// SoundFeedback drives audio cues for one user's session. The mute flag
// is read from the store once at first use and written on every toggle;
// consumers subscribe to change notifications rather than polling.
type SoundFeedback struct {
	mu        sync.Mutex
	userID    int
	store     MuteStore
	player    CuePlayer
	muted     bool
	loaded    bool
	notifying bool   // a delivery loop is draining pending
	pending   []bool // flipped values awaiting subscriber delivery
	subs      map[int]func(bool)
	nextSub   int
}

// NewSoundFeedback creates the feedback manager. store and player may be
// nil, in which case the flag is volatile and cues are dropped.
func NewSoundFeedback(userID int, store MuteStore, player CuePlayer) *SoundFeedback {
	return &SoundFeedback{
		userID: userID,
		store:  store,
		player: player,
		subs:   make(map[int]func(bool)),
	}
}

// Muted reports the current flag, lazily loading the persisted value on
// first use. A missing or unreadable value means unmuted.
func (s *SoundFeedback) Muted(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)
	return s.muted
}

// ToggleMute flips and persists the flag, then notifies subscribers with
// the new value. Every call flips the flag, including calls that arrive
// while notifications are in flight: those queue behind the running
// delivery, which hands values to subscribers in flip order without
// recursing.
func (s *SoundFeedback) ToggleMute(ctx context.Context) bool {
	s.mu.Lock()
	s.loadLocked(ctx)
	s.muted = !s.muted
	muted := s.muted
	if s.store != nil {
		// Persistence of a cosmetic preference is best effort.
		_ = s.store.SetMuted(ctx, s.userID, muted)
	}
	s.pending = append(s.pending, muted)
	if s.notifying {
		// The running delivery loop will pick this value up.
		s.mu.Unlock()
		return muted
	}
	s.notifying = true
	s.mu.Unlock()

	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.notifying = false
			s.mu.Unlock()
			return muted
		}
		value := s.pending[0]
		s.pending = s.pending[1:]
		subs := make([]func(bool), 0, len(s.subs))
		for _, fn := range s.subs {
			subs = append(subs, fn)
		}
		s.mu.Unlock()

		for _, fn := range subs {
			fn(value)
		}
	}
}

// Subscribe registers a change listener and returns its remover.
func (s *SoundFeedback) Subscribe(fn func(muted bool)) (remove func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// EmitCue plays a cue unless muted. Player failures are swallowed: audio
// must never block or fail a session operation.
func (s *SoundFeedback) EmitCue(ctx context.Context, cue Cue) {
	s.mu.Lock()
	s.loadLocked(ctx)
	muted := s.muted
	player := s.player
	s.mu.Unlock()

	if muted || player == nil {
		return
	}
	_ = player.Play(cue)
}

func (s *SoundFeedback) loadLocked(ctx context.Context) {
	if s.loaded {
		return
	}
	s.loaded = true
	if s.store == nil {
		return
	}
	muted, ok, err := s.store.GetMuted(ctx, s.userID)
	if err != nil || !ok {
		return
	}
	s.muted = muted
}

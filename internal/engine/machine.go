package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prepmed/prepmed-backend/internal/logger"
	"github.com/prepmed/prepmed-backend/internal/model"
	"github.com/rs/zerolog"
)

// EventType enumerates machine notifications pushed to an attached client.
type EventType string

const (
	EventTick       EventType = "tick"
	EventExpired    EventType = "expired"
	EventCue        EventType = "cue"
	EventExitPrompt EventType = "exit_prompt"
	EventRevealed   EventType = "revealed"
	EventStatus     EventType = "status"
	EventResult     EventType = "result"
	EventMute       EventType = "mute_changed"
)

// Event is one machine notification. Only the field matching Type is set.
type Event struct {
	Type   EventType
	Tick   *Tick
	Cue    Cue
	Reveal *RevealOutcome
	Status model.SessionStatus
	Result *model.SessionResult
	Muted  bool
}

// RevealOutcome is the per-question payload of a reveal, including the
// material withheld from the client until the answer locks.
type RevealOutcome struct {
	Index            int      `json:"index"`
	IsCorrect        bool     `json:"is_correct"`
	CorrectOptionIDs []string `json:"correct_option_ids"`
	Explanation      string   `json:"explanation"`
}

// ResultSink is the persistence collaborator. Persist is fire-and-forget
// from the machine's perspective; confirmation is tracked out of band.
type ResultSink interface {
	Persist(ctx context.Context, res *model.SessionResult) error
}

// Machine drives one assessment session. It is the sole mutator of
// session state and the only surface external callers may invoke.
// Commands are serialized by a mutex in strict arrival order, so a Pause
// immediately followed by a Select deterministically rejects the Select.
type Machine struct {
	mu      sync.Mutex
	session *model.Session
	timer   *Timer
	scorer  *Scorer
	sound   *SoundFeedback
	sink    ResultSink
	log     zerolog.Logger
	now     func() time.Time

	result         *model.SessionResult
	persistPending bool

	notifyMu sync.Mutex
	notify   func(Event)
	lastSeen time.Time
}

// MachineOption customizes a machine, mainly for tests.
type MachineOption func(*Machine)

// WithMachineClock overrides the machine and timer clock.
func WithMachineClock(now func() time.Time) MachineOption {
	return func(m *Machine) { m.now = now }
}

// timerOpts is threaded into the internal timer.
var timerTickInterval = time.Second

// NewMachine wires a machine around an ACTIVE session handed over by the
// creation collaborator, starts its timer, and marks the first question
// viewed. The mute store may be nil (volatile mute flag).
func NewMachine(sess *model.Session, store MuteStore, sink ResultSink, log zerolog.Logger, opts ...MachineOption) *Machine {
	m := &Machine{
		session: sess,
		sink:    sink,
		log:     logger.Component(log, "session_machine").With().Str("session_id", sess.ID.String()).Logger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.lastSeen = m.now()

	var limit time.Duration
	if sess.Kind.Timed() && sess.TimeLimitSeconds != nil {
		limit = time.Duration(*sess.TimeLimitSeconds) * time.Second
	}
	m.timer = NewTimer(limit, m.onTick, m.onExpire,
		WithClock(m.now), WithTickInterval(timerTickInterval))

	if sess.Answers == nil {
		sess.Answers = make(map[int]*model.AnswerRecord)
	}
	m.scorer = NewScorer(sess.Questions, sess.Answers, m.now)
	m.scorer.View(sess.CurrentIndex)

	m.sound = NewSoundFeedback(sess.UserID, store, CuePlayerFunc(func(cue Cue) error {
		m.emit(Event{Type: EventCue, Cue: cue})
		return nil
	}))
	m.sound.Subscribe(func(muted bool) {
		m.emit(Event{Type: EventMute, Muted: muted})
	})

	// Session arrives ACTIVE; the timer starts with it.
	if err := m.timer.Start(); err != nil {
		m.log.Error().Err(err).Msg("timer start rejected")
	}
	return m
}

// ID returns the session identifier.
func (m *Machine) ID() uuid.UUID { return m.session.ID }

// UserID returns the owning user.
func (m *Machine) UserID() int { return m.session.UserID }

// Status returns the current session status.
func (m *Machine) Status() model.SessionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Status
}

// Sound exposes the session's sound feedback manager.
func (m *Machine) Sound() *SoundFeedback { return m.sound }

// Attach registers the single client notification callback. The callback
// must not block and must not call back into Attach/Detach/Touch:
// deliveries hold the notification mutex so Detach can quiesce them.
func (m *Machine) Attach(notify func(Event)) {
	m.notifyMu.Lock()
	m.notify = notify
	m.notifyMu.Unlock()
	m.Touch()
}

// Detach removes the notification callback, waiting out any delivery in
// flight: once Detach returns no callback runs, so the caller may tear
// down whatever the callback writes to. It deliberately does not abandon
// the session: navigation-away handling is the caller's explicit
// responsibility, and silent disconnects are reconciled by the reaper.
func (m *Machine) Detach() {
	m.notifyMu.Lock()
	m.notify = nil
	m.notifyMu.Unlock()
}

// Touch records client liveness for idle reconciliation.
func (m *Machine) Touch() {
	m.notifyMu.Lock()
	m.lastSeen = m.now()
	m.notifyMu.Unlock()
}

// LastSeen returns the most recent client activity timestamp.
func (m *Machine) LastSeen() time.Time {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	return m.lastSeen
}

// Navigate moves the cursor by delta, clamped to the question range.
// Out-of-range requests are no-ops, not errors. Valid only while ACTIVE.
func (m *Machine) Navigate(delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireActiveLocked(); err != nil {
		return err
	}
	next := m.session.CurrentIndex + delta
	if next < 0 {
		next = 0
	}
	if max := len(m.session.Questions) - 1; next > max {
		next = max
	}
	m.session.CurrentIndex = next
	m.scorer.View(next)
	return nil
}

// Select replaces the current question's selection. Valid only while
// ACTIVE and before reveal.
func (m *Machine) Select(optionIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireActiveLocked(); err != nil {
		return err
	}
	return m.scorer.Select(m.session.CurrentIndex, optionIDs)
}

// Clear empties the current question's selection pre-reveal.
func (m *Machine) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireActiveLocked(); err != nil {
		return err
	}
	return m.scorer.Clear(m.session.CurrentIndex)
}

// Reveal locks the current answer, computes correctness, and emits the
// matching sound cue. Idempotent per question.
func (m *Machine) Reveal() (*RevealOutcome, error) {
	m.mu.Lock()
	if err := m.requireActiveLocked(); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	idx := m.session.CurrentIndex
	already := m.scorer.Record(idx).Revealed()
	rec, err := m.scorer.Reveal(idx)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	q := m.session.Questions[idx]
	out := &RevealOutcome{
		Index:            idx,
		IsCorrect:        rec.IsCorrect != nil && *rec.IsCorrect,
		CorrectOptionIDs: q.CorrectOptionIDs,
		Explanation:      q.Explanation,
	}
	m.mu.Unlock()

	if !already {
		cue := CueIncorrect
		if out.IsCorrect {
			cue = CueCorrect
		}
		m.sound.EmitCue(context.Background(), cue)
		m.emit(Event{Type: EventRevealed, Reveal: out})
	}
	return out, nil
}

// Pause freezes the session. Valid only from ACTIVE.
func (m *Machine) Pause() error {
	m.mu.Lock()
	if m.session.Status != model.SessionStatusActive {
		m.mu.Unlock()
		return ErrInvalidTransition
	}
	if err := m.timer.Pause(); err != nil {
		m.mu.Unlock()
		return err
	}
	m.session.Status = model.SessionStatusPaused
	m.mu.Unlock()
	m.emit(Event{Type: EventStatus, Status: model.SessionStatusPaused})
	return nil
}

// Resume unfreezes the session. Valid only from PAUSED.
func (m *Machine) Resume() error {
	m.mu.Lock()
	if m.session.Status != model.SessionStatusPaused {
		m.mu.Unlock()
		return ErrInvalidTransition
	}
	if err := m.timer.Resume(); err != nil {
		m.mu.Unlock()
		return err
	}
	m.session.Status = model.SessionStatusActive
	m.mu.Unlock()
	m.emit(Event{Type: EventStatus, Status: model.SessionStatusActive})
	return nil
}

// TogglePause pauses an active session or resumes a paused one. This is
// the keyboard shortcut semantics; terminal states reject it.
func (m *Machine) TogglePause() error {
	if m.Status() == model.SessionStatusPaused {
		return m.Resume()
	}
	return m.Pause()
}

// RequestExit signals the client to show its exit confirmation. UI-level
// intent only; no state mutation.
func (m *Machine) RequestExit() {
	m.emit(Event{Type: EventExitPrompt})
}

// Complete finishes the session on user request. Idempotent: completing
// an already finished session returns the existing result without
// re-persisting.
func (m *Machine) Complete(ctx context.Context) (*model.SessionResult, error) {
	return m.finish(ctx, model.SessionStatusCompleted, model.EndReasonUserFinished)
}

// Abandon finishes the session when the user navigates away without an
// explicit finish. A result is still persisted so progress statistics
// stay consistent with the time spent.
func (m *Machine) Abandon(ctx context.Context) (*model.SessionResult, error) {
	return m.finish(ctx, model.SessionStatusAbandoned, model.EndReasonAbandoned)
}

// Discard tears down a machine that never entered service, stopping its
// timer without persisting a result or emitting events. This is for
// creation paths that lose a registration race: the session never
// happened, so nothing may land in the stats.
func (m *Machine) Discard() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.Status.Terminal() {
		return
	}
	if err := m.timer.Stop(); err != nil {
		m.log.Error().Err(err).Msg("timer stop rejected")
	}
	m.session.Status = model.SessionStatusAbandoned
}

// RetryPersist re-sends a finalized result whose first hand-off failed.
// No-op when nothing is pending.
func (m *Machine) RetryPersist(ctx context.Context) error {
	m.mu.Lock()
	res, pending := m.result, m.persistPending
	m.mu.Unlock()
	if !pending || res == nil {
		return nil
	}
	if err := m.sink.Persist(ctx, res); err != nil {
		m.log.Error().Err(err).Msg("result persistence retry failed")
		return ErrPersistenceFailure
	}
	m.mu.Lock()
	m.persistPending = false
	m.mu.Unlock()
	return nil
}

// PersistPending reports whether the finalized result still awaits a
// successful hand-off to the persistence collaborator.
func (m *Machine) PersistPending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.persistPending
}

func (m *Machine) finish(ctx context.Context, status model.SessionStatus, reason model.EndReason) (*model.SessionResult, error) {
	m.mu.Lock()
	if m.result != nil {
		res := m.result
		m.mu.Unlock()
		return res, nil
	}
	if m.session.Status.Terminal() {
		m.mu.Unlock()
		return nil, ErrInvalidTransition
	}

	elapsed := m.timer.Elapsed()
	if err := m.timer.Stop(); err != nil {
		m.log.Error().Err(err).Msg("timer stop rejected")
	}
	now := m.now()
	m.session.PausedIntervals = m.timer.Intervals()
	m.session.CompletedAt = &now
	m.session.Status = status

	res := &model.SessionResult{
		ID:             uuid.New(),
		SessionID:      m.session.ID,
		UserID:         m.session.UserID,
		Kind:           m.session.Kind,
		QuestionCount:  len(m.session.Questions),
		Tally:          m.scorer.Tally(),
		ElapsedSeconds: int(elapsed / time.Second),
		StartedAt:      m.session.StartedAt,
		EndedAt:        now,
		EndReason:      reason,
	}
	m.result = res

	persistErr := m.sink.Persist(ctx, res)
	if persistErr != nil {
		m.persistPending = true
	}
	m.mu.Unlock()

	m.emit(Event{Type: EventStatus, Status: status})
	m.emit(Event{Type: EventResult, Result: res})

	if persistErr != nil {
		m.log.Error().Err(persistErr).Msg("result persistence failed, retained for retry")
		return res, ErrPersistenceFailure
	}
	return res, nil
}

// Snapshot returns the client-safe session view: correct options and
// explanations are stripped for questions not yet revealed.
func (m *Machine) Snapshot() *model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *m.session
	cp.Questions = make([]model.Question, len(m.session.Questions))
	for i, q := range m.session.Questions {
		if !m.session.Answers[i].Revealed() {
			q.CorrectOptionIDs = nil
			q.Explanation = ""
		}
		cp.Questions[i] = q
	}
	cp.Answers = make(map[int]*model.AnswerRecord, len(m.session.Answers))
	for i, rec := range m.session.Answers {
		c := *rec
		cp.Answers[i] = &c
	}
	cp.PausedIntervals = m.timer.Intervals()
	return &cp
}

// CurrentQuestion returns the question under the cursor and its current
// selection, for callers that own toggle semantics.
func (m *Machine) CurrentQuestion() (model.Question, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.session.Questions[m.session.CurrentIndex]
	var selected []string
	if rec := m.session.Answers[m.session.CurrentIndex]; rec != nil {
		selected = append(selected, rec.SelectedOptionIDs...)
	}
	return q, selected
}

// Elapsed returns running time excluding paused spans, frozen at the
// finish instant once the session terminates.
func (m *Machine) Elapsed() time.Duration { return m.timer.Elapsed() }

func (m *Machine) requireActiveLocked() error {
	switch m.session.Status {
	case model.SessionStatusActive:
		return nil
	case model.SessionStatusPaused:
		return ErrSessionPaused
	default:
		return ErrInvalidTransition
	}
}

// emit delivers the event while holding notifyMu, so Detach returning
// guarantees no delivery is still running.
func (m *Machine) emit(evt Event) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	if m.notify != nil {
		m.notify(evt)
	}
}

func (m *Machine) onTick(tk Tick) {
	m.emit(Event{Type: EventTick, Tick: &tk})
}

// onExpire reacts to the timer's terminal signal: the session completes
// exactly as if Complete had been called, tagged as a countdown expiry.
func (m *Machine) onExpire() {
	m.emit(Event{Type: EventExpired})
	if _, err := m.finish(context.Background(), model.SessionStatusCompleted, model.EndReasonTimeExpired); err != nil {
		m.log.Error().Err(err).Msg("auto-complete on expiry failed")
	}
}

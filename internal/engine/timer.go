package engine

import (
	"sync"
	"time"

	"github.com/prepmed/prepmed-backend/internal/model"
)

// TimerState enumerates the timer's lifecycle states.
type TimerState string

const (
	TimerStopped TimerState = "STOPPED"
	TimerRunning TimerState = "RUNNING"
	TimerPaused  TimerState = "PAUSED"
)

// Tick carries one timer emission. RemainingSeconds is -1 for unbounded
// (practice) timers.
type Tick struct {
	ElapsedSeconds   int `json:"elapsed_seconds"`
	RemainingSeconds int `json:"remaining_seconds"`
}

// Timer owns the single authoritative clock of a session: countdown for
// timed kinds, elapsed for practice. Transitions follow
// STOPPED → RUNNING ⇄ PAUSED → STOPPED(terminal); any other call returns
// ErrInvalidTransition without mutating state. Each Pause/Resume pair
// appends and closes one paused interval, and elapsed time always
// excludes paused spans.
type Timer struct {
	mu        sync.Mutex
	state     TimerState
	done      bool // terminal STOPPED; Start is no longer valid
	startedAt time.Time
	stoppedAt time.Time
	intervals []model.PausedInterval
	limit     time.Duration // 0 = unbounded
	expired   bool

	interval time.Duration
	now      func() time.Time
	onTick   func(Tick)
	onExpire func()
	cancel   chan struct{}
}

// TimerOption customizes a Timer, mainly for tests.
type TimerOption func(*Timer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) TimerOption {
	return func(t *Timer) { t.now = now }
}

// WithTickInterval overrides the tick granularity. The default is one
// second, the coarsest granularity the engine contract allows.
func WithTickInterval(d time.Duration) TimerOption {
	return func(t *Timer) { t.interval = d }
}

// NewTimer creates a stopped timer. limit of 0 means unbounded. onTick and
// onExpire may be nil; onExpire fires at most once, the first tick at
// which remaining time reaches zero.
func NewTimer(limit time.Duration, onTick func(Tick), onExpire func(), opts ...TimerOption) *Timer {
	t := &Timer{
		state:    TimerStopped,
		limit:    limit,
		interval: time.Second,
		now:      time.Now,
		onTick:   onTick,
		onExpire: onExpire,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// State returns the current timer state.
func (t *Timer) State() TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Start begins the clock. Valid only from the initial STOPPED state.
func (t *Timer) Start() error {
	t.mu.Lock()
	if t.state != TimerStopped || t.done {
		t.mu.Unlock()
		return ErrInvalidTransition
	}
	t.state = TimerRunning
	t.startedAt = t.now()
	t.cancel = make(chan struct{})
	cancel := t.cancel
	t.mu.Unlock()

	go t.loop(cancel)
	return nil
}

// Pause freezes the clock. Valid only from RUNNING.
func (t *Timer) Pause() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TimerRunning {
		return ErrInvalidTransition
	}
	t.state = TimerPaused
	t.intervals = append(t.intervals, model.PausedInterval{Start: t.now()})
	return nil
}

// Resume restarts the clock. Valid only from PAUSED.
func (t *Timer) Resume() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TimerPaused {
		return ErrInvalidTransition
	}
	end := t.now()
	t.intervals[len(t.intervals)-1].End = &end
	t.state = TimerRunning
	return nil
}

// Stop terminates the timer. Valid from RUNNING or PAUSED; terminal.
func (t *Timer) Stop() error {
	t.mu.Lock()
	if t.state != TimerRunning && t.state != TimerPaused {
		t.mu.Unlock()
		return ErrInvalidTransition
	}
	end := t.now()
	if t.state == TimerPaused {
		// Close the open interval so elapsed time stays frozen.
		t.intervals[len(t.intervals)-1].End = &end
	}
	t.state = TimerStopped
	t.done = true
	t.stoppedAt = end
	cancel := t.cancel
	t.cancel = nil
	t.mu.Unlock()

	if cancel != nil {
		close(cancel)
	}
	return nil
}

// Elapsed returns running time excluding all paused spans, frozen at the
// stop instant once the timer terminates. Always >= 0.
func (t *Timer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsedLocked()
}

// Intervals returns a copy of the recorded pause spans.
func (t *Timer) Intervals() []model.PausedInterval {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.PausedInterval, len(t.intervals))
	copy(out, t.intervals)
	return out
}

func (t *Timer) elapsedLocked() time.Duration {
	if t.startedAt.IsZero() {
		return 0
	}
	now := t.now()
	if !t.stoppedAt.IsZero() {
		now = t.stoppedAt
	}
	var paused time.Duration
	for _, iv := range t.intervals {
		end := now
		if iv.End != nil {
			end = *iv.End
		}
		paused += end.Sub(iv.Start)
	}
	elapsed := now.Sub(t.startedAt) - paused
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed
}

func (t *Timer) loop(cancel chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			t.tick()
		}
	}
}

// tick computes elapsed time and fires callbacks outside the lock so an
// onExpire handler may call Stop without deadlocking.
func (t *Timer) tick() {
	t.mu.Lock()
	if t.state != TimerRunning {
		t.mu.Unlock()
		return
	}
	elapsed := t.elapsedLocked()
	tk := Tick{ElapsedSeconds: int(elapsed / time.Second), RemainingSeconds: -1}
	var expire bool
	if t.limit > 0 {
		remaining := t.limit - elapsed
		if remaining < 0 {
			remaining = 0
		}
		tk.RemainingSeconds = int(remaining / time.Second)
		if remaining == 0 && !t.expired {
			t.expired = true
			expire = true
		}
	}
	onTick, onExpire := t.onTick, t.onExpire
	t.mu.Unlock()

	if onTick != nil {
		onTick(tk)
	}
	if expire && onExpire != nil {
		onExpire()
	}
}

package engine

import (
	"sync"
	"testing"
	"time"
)

func TestTimer_ElapsedExcludesPausedTime(t *testing.T) {
	clock := newFakeClock()
	tm := NewTimer(0, nil, nil, WithClock(clock.Now))

	if err := tm.Start(); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	defer tm.Stop()

	clock.Advance(10 * time.Second)
	if err := tm.Pause(); err != nil {
		t.Fatalf("Pause() = %v", err)
	}
	clock.Advance(5 * time.Second)
	if err := tm.Resume(); err != nil {
		t.Fatalf("Resume() = %v", err)
	}
	clock.Advance(10 * time.Second)

	// start t=0, pause t=10, resume t=15, now t=25: elapsed = 20, not 25.
	if got := tm.Elapsed(); got != 20*time.Second {
		t.Errorf("Elapsed() = %v, want 20s", got)
	}

	if err := tm.Stop(); err != nil {
		t.Fatalf("Stop() = %v", err)
	}
	if got := tm.Elapsed(); got != 20*time.Second {
		t.Errorf("Elapsed() after stop = %v, want 20s", got)
	}
}

func TestTimer_ElapsedFrozenWhilePaused(t *testing.T) {
	clock := newFakeClock()
	tm := NewTimer(0, nil, nil, WithClock(clock.Now))
	tm.Start()
	defer tm.Stop()

	clock.Advance(7 * time.Second)
	tm.Pause()
	clock.Advance(1 * time.Hour)

	if got := tm.Elapsed(); got != 7*time.Second {
		t.Errorf("Elapsed() while paused = %v, want 7s", got)
	}
}

func TestTimer_ElapsedFrozenAfterStop(t *testing.T) {
	clock := newFakeClock()
	tm := NewTimer(0, nil, nil, WithClock(clock.Now))
	tm.Start()

	clock.Advance(30 * time.Second)
	if err := tm.Stop(); err != nil {
		t.Fatalf("Stop() = %v", err)
	}

	// Stop is terminal; the clock moving on must not grow the reading.
	clock.Advance(1 * time.Hour)
	if got := tm.Elapsed(); got != 30*time.Second {
		t.Errorf("Elapsed() after stop = %v, want 30s", got)
	}
}

func TestTimer_InvalidTransitions(t *testing.T) {
	clock := newFakeClock()

	tests := []struct {
		name string
		run  func(tm *Timer) error
	}{
		{"pause before start", func(tm *Timer) error { return tm.Pause() }},
		{"resume before start", func(tm *Timer) error { return tm.Resume() }},
		{"stop before start", func(tm *Timer) error { return tm.Stop() }},
		{"double start", func(tm *Timer) error { tm.Start(); defer tm.Stop(); return tm.Start() }},
		{"resume while running", func(tm *Timer) error { tm.Start(); defer tm.Stop(); return tm.Resume() }},
		{"pause while paused", func(tm *Timer) error { tm.Start(); defer tm.Stop(); tm.Pause(); return tm.Pause() }},
		{"start after stop", func(tm *Timer) error { tm.Start(); tm.Stop(); return tm.Start() }},
		{"stop after stop", func(tm *Timer) error { tm.Start(); tm.Stop(); return tm.Stop() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := NewTimer(0, nil, nil, WithClock(clock.Now))
			if err := tt.run(tm); err != ErrInvalidTransition {
				t.Errorf("got %v, want ErrInvalidTransition", err)
			}
		})
	}
}

func TestTimer_PauseResumeRecordsIntervals(t *testing.T) {
	clock := newFakeClock()
	tm := NewTimer(0, nil, nil, WithClock(clock.Now))
	tm.Start()
	defer tm.Stop()

	clock.Advance(3 * time.Second)
	tm.Pause()
	clock.Advance(2 * time.Second)
	tm.Resume()
	clock.Advance(1 * time.Second)
	tm.Pause()

	ivs := tm.Intervals()
	if len(ivs) != 2 {
		t.Fatalf("len(Intervals()) = %d, want 2", len(ivs))
	}
	if ivs[0].End == nil {
		t.Error("first interval should be closed")
	}
	if ivs[1].End != nil {
		t.Error("second interval should still be open")
	}
	if got := ivs[0].End.Sub(ivs[0].Start); got != 2*time.Second {
		t.Errorf("first pause span = %v, want 2s", got)
	}
}

func TestTimer_ExpiresExactlyOnce(t *testing.T) {
	clock := newFakeClock()

	var mu sync.Mutex
	var ticks []Tick
	expirations := 0
	done := make(chan struct{})

	tm := NewTimer(60*time.Second,
		func(tk Tick) {
			mu.Lock()
			ticks = append(ticks, tk)
			mu.Unlock()
		},
		func() {
			mu.Lock()
			expirations++
			mu.Unlock()
			close(done)
		},
		WithClock(clock.Now), WithTickInterval(2*time.Millisecond))

	tm.Start()
	clock.Advance(61 * time.Second)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expiry signal never fired")
	}

	// Let a few more real ticks pass; expiry must not repeat.
	time.Sleep(10 * time.Millisecond)
	tm.Stop()

	mu.Lock()
	defer mu.Unlock()
	if expirations != 1 {
		t.Errorf("expirations = %d, want 1", expirations)
	}
	last := ticks[len(ticks)-1]
	if last.RemainingSeconds != 0 {
		t.Errorf("final RemainingSeconds = %d, want 0", last.RemainingSeconds)
	}
}

func TestTimer_UnboundedTickHasNoRemaining(t *testing.T) {
	clock := newFakeClock()
	got := make(chan Tick, 1)

	tm := NewTimer(0, func(tk Tick) {
		select {
		case got <- tk:
		default:
		}
	}, nil, WithClock(clock.Now), WithTickInterval(2*time.Millisecond))

	tm.Start()
	defer tm.Stop()
	clock.Advance(42 * time.Second)

	select {
	case tk := <-got:
		if tk.RemainingSeconds != -1 {
			t.Errorf("RemainingSeconds = %d, want -1", tk.RemainingSeconds)
		}
		if tk.ElapsedSeconds != 42 {
			t.Errorf("ElapsedSeconds = %d, want 42", tk.ElapsedSeconds)
		}
	case <-time.After(time.Second):
		t.Fatal("no tick received")
	}
}

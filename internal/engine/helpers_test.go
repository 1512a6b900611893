package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prepmed/prepmed-backend/internal/model"
	"github.com/rs/zerolog"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeSink records persisted results and can be told to fail.
type fakeSink struct {
	mu      sync.Mutex
	results []*model.SessionResult
	fail    bool
}

func (s *fakeSink) Persist(_ context.Context, res *model.SessionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return context.DeadlineExceeded
	}
	s.results = append(s.results, res)
	return nil
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

func (s *fakeSink) last() *model.SessionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.results) == 0 {
		return nil
	}
	return s.results[len(s.results)-1]
}

// memMuteStore is an in-memory MuteStore.
type memMuteStore struct {
	mu    sync.Mutex
	flags map[int]bool
}

func newMemMuteStore() *memMuteStore {
	return &memMuteStore{flags: make(map[int]bool)}
}

func (s *memMuteStore) GetMuted(_ context.Context, userID int) (bool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	muted, ok := s.flags[userID]
	return muted, ok, nil
}

func (s *memMuteStore) SetMuted(_ context.Context, userID int, muted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[userID] = muted
	return nil
}

func testQuestions(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			ID:     uuid.New(),
			Prompt: "q",
			Options: []model.Option{
				{ID: "a", Text: "first"},
				{ID: "b", Text: "second"},
				{ID: "c", Text: "third"},
			},
			CorrectOptionIDs: []string{"b"},
		}
	}
	return qs
}

func testSession(kind model.SessionKind, n int, limitSeconds int, startedAt time.Time) *model.Session {
	sess := &model.Session{
		ID:        uuid.New(),
		UserID:    7,
		Kind:      kind,
		Questions: testQuestions(n),
		Answers:   make(map[int]*model.AnswerRecord),
		Status:    model.SessionStatusActive,
		StartedAt: startedAt,
	}
	if limitSeconds > 0 {
		sess.TimeLimitSeconds = &limitSeconds
	}
	return sess
}

func testMachine(clock *fakeClock, sess *model.Session, sink ResultSink) *Machine {
	if sink == nil {
		sink = &fakeSink{}
	}
	return NewMachine(sess, newMemMuteStore(), sink, zerolog.Nop(), WithMachineClock(clock.Now))
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prepmed/prepmed-backend/internal/config"
	"github.com/prepmed/prepmed-backend/internal/engine"
	"github.com/prepmed/prepmed-backend/internal/logger"
	"github.com/prepmed/prepmed-backend/internal/model"
	"github.com/prepmed/prepmed-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Creation-time validation errors.
var (
	ErrTimeLimitRequired   = errors.New("timed session kinds require a time limit")
	ErrTimeLimitForbidden  = errors.New("practice sessions do not take a time limit")
	ErrNoMatchingQuestions = errors.New("no questions match the requested filters")
)

// ResultPersistState describes where a finished session's result is on its
// way to durable storage.
type ResultPersistState string

const (
	ResultStateConfirmed ResultPersistState = "CONFIRMED"
	ResultStateQueued    ResultPersistState = "QUEUED"
	ResultStateFailed    ResultPersistState = "FAILED"
)

// SessionService creates live sessions, routes commands to their machines,
// and tracks result persistence.
type SessionService struct {
	cfg       *config.Config
	registry  *engine.Registry
	questions *repository.QuestionRepository
	results   *repository.ResultRepository
	rdb       *redis.Client
	muteStore engine.MuteStore
	sink      engine.ResultSink
	log       zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	cfg *config.Config,
	registry *engine.Registry,
	questions *repository.QuestionRepository,
	results *repository.ResultRepository,
	rdb *redis.Client,
	muteStore engine.MuteStore,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		cfg:       cfg,
		registry:  registry,
		questions: questions,
		results:   results,
		rdb:       rdb,
		muteStore: muteStore,
		sink:      &queueSink{rdb: rdb},
		log:       logger.Component(log, "session_service"),
	}
}

// queueSink hands finished results to the persistence worker through Redis.
type queueSink struct {
	rdb *redis.Client
}

func (s *queueSink) Persist(ctx context.Context, res *model.SessionResult) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return s.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw).Err()
}

// Create validates the request, draws questions, and registers a live
// machine for the user. A user may hold one live session at a time.
func (s *SessionService) Create(ctx context.Context, userID int, req *model.CreateSessionRequest) (*engine.Machine, error) {
	if req.Kind.Timed() && req.TimeLimitSeconds == nil {
		return nil, ErrTimeLimitRequired
	}
	if !req.Kind.Timed() && req.TimeLimitSeconds != nil {
		return nil, ErrTimeLimitForbidden
	}
	if _, ok := s.registry.ForUser(userID); ok {
		return nil, engine.ErrSessionConflict
	}

	topicIDs := make([]uuid.UUID, 0, len(req.TopicIDs))
	for _, raw := range req.TopicIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse topic id: %w", err)
		}
		topicIDs = append(topicIDs, id)
	}

	questions, err := s.questions.PickRandom(ctx, topicIDs, req.QuestionCount)
	if err != nil {
		return nil, fmt.Errorf("pick questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoMatchingQuestions
	}

	sess := &model.Session{
		ID:               uuid.New(),
		UserID:           userID,
		Kind:             req.Kind,
		Questions:        questions,
		Answers:          make(map[int]*model.AnswerRecord),
		Status:           model.SessionStatusActive,
		StartedAt:        time.Now(),
		TimeLimitSeconds: req.TimeLimitSeconds,
	}

	machine := engine.NewMachine(sess, s.muteStore, s.sink, s.log)
	if err := s.registry.Add(machine); err != nil {
		// Lost a concurrent registration race. The machine never entered
		// service, so it is torn down without a persisted result.
		machine.Discard()
		return nil, err
	}

	s.log.Info().
		Str("session_id", sess.ID.String()).
		Int("user_id", userID).
		Str("kind", string(sess.Kind)).
		Int("questions", len(questions)).
		Msg("Session created")
	return machine, nil
}

// Registry exposes the live-session registry for handlers and workers.
func (s *SessionService) Registry() *engine.Registry { return s.registry }

// Machine looks up a live session and verifies ownership. Sessions owned
// by other users are reported as not found.
func (s *SessionService) Machine(sessionID uuid.UUID, userID int) (*engine.Machine, error) {
	m, ok := s.registry.Get(sessionID)
	if !ok || m.UserID() != userID {
		return nil, engine.ErrSessionNotFound
	}
	return m, nil
}

// Complete finishes a session on user request and releases it from the
// registry once the result is handed off. On hand-off failure the machine
// stays registered so the retry endpoint can reach it.
func (s *SessionService) Complete(ctx context.Context, sessionID uuid.UUID, userID int) (*model.SessionResult, error) {
	m, err := s.Machine(sessionID, userID)
	if err != nil {
		return nil, err
	}
	res, err := m.Complete(ctx)
	if err == nil {
		s.registry.Remove(sessionID)
	}
	return res, err
}

// Abandon finishes a session when the user walks away from it.
func (s *SessionService) Abandon(ctx context.Context, sessionID uuid.UUID, userID int) (*model.SessionResult, error) {
	m, err := s.Machine(sessionID, userID)
	if err != nil {
		return nil, err
	}
	res, err := m.Abandon(ctx)
	if err == nil {
		s.registry.Remove(sessionID)
	}
	return res, err
}

// RetryPersist re-queues a result whose hand-off failed, releasing the
// machine once the queue accepts it.
func (s *SessionService) RetryPersist(ctx context.Context, sessionID uuid.UUID, userID int) error {
	m, err := s.Machine(sessionID, userID)
	if err != nil {
		return err
	}
	if err := m.RetryPersist(ctx); err != nil {
		return err
	}
	if m.Status().Terminal() && !m.PersistPending() {
		s.registry.Remove(sessionID)
	}
	return nil
}

// Result retrieves a finished session's result. It serves from the durable
// row when the worker has confirmed it, falling back to the live machine's
// in-memory copy while the row is still in flight.
func (s *SessionService) Result(ctx context.Context, sessionID uuid.UUID, userID int) (*model.SessionResult, ResultPersistState, error) {
	res, err := s.results.GetBySession(ctx, sessionID)
	if err == nil {
		if res.UserID != userID {
			return nil, "", engine.ErrSessionNotFound
		}
		return res, ResultStateConfirmed, nil
	}
	if !repository.IsNotFound(err) {
		return nil, "", err
	}

	m, merr := s.Machine(sessionID, userID)
	if merr != nil {
		return nil, "", engine.ErrSessionNotFound
	}
	snap := m.Snapshot()
	if !snap.Status.Terminal() {
		return nil, "", engine.ErrInvalidTransition
	}
	state := ResultStateQueued
	if m.PersistPending() {
		state = ResultStateFailed
	}
	live, err := m.Complete(ctx) // terminal machines return the cached result
	if err != nil {
		return nil, "", err
	}
	return live, state, nil
}

// ResultState reports the persistence state of a finished session without
// returning the result body.
func (s *SessionService) ResultState(ctx context.Context, sessionID uuid.UUID) (ResultPersistState, error) {
	acked, err := s.rdb.Exists(ctx, config.CacheKey.SessionResultAckKey(sessionID.String())).Result()
	if err != nil {
		return "", err
	}
	if acked > 0 {
		return ResultStateConfirmed, nil
	}
	if m, ok := s.registry.Get(sessionID); ok && m.PersistPending() {
		return ResultStateFailed, nil
	}
	return ResultStateQueued, nil
}

// History lists one page of a user's finished session results, newest
// first, along with the total count for pagination.
func (s *SessionService) History(ctx context.Context, userID, page, perPage int) ([]model.SessionResult, int, error) {
	total, err := s.results.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	results, err := s.results.ListByUser(ctx, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

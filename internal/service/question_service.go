package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/prepmed/prepmed-backend/internal/model"
	"github.com/prepmed/prepmed-backend/internal/repository"
)

// Question content validation errors.
var (
	ErrUnknownCorrectOption = errors.New("correct option ids must reference declared options")
	ErrDuplicateOptionID    = errors.New("option ids must be unique within a question")
	ErrSingleSelectMultiKey = errors.New("single-select questions take exactly one correct option")
)

// QuestionService handles question bank business logic.
type QuestionService struct {
	repo *repository.QuestionRepository
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(repo *repository.QuestionRepository) *QuestionService {
	return &QuestionService{repo: repo}
}

// CreateTopic adds a topic.
func (s *QuestionService) CreateTopic(ctx context.Context, req *model.CreateTopicRequest) (*model.Topic, error) {
	t := &model.Topic{Name: req.Name}
	if err := s.repo.CreateTopic(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ListTopics returns all topics with question counts.
func (s *QuestionService) ListTopics(ctx context.Context) ([]model.Topic, error) {
	return s.repo.ListTopics(ctx)
}

// DeleteTopic removes a topic and its questions.
func (s *QuestionService) DeleteTopic(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteTopic(ctx, id)
}

// Create validates and inserts a question into a topic.
func (s *QuestionService) Create(ctx context.Context, topicID uuid.UUID, req *model.CreateQuestionRequest) (*model.Question, error) {
	options := make([]model.Option, len(req.Options))
	for i, o := range req.Options {
		options[i] = model.Option{ID: o.ID, Text: o.Text}
	}
	if err := validateAnswerKey(options, req.CorrectOptionIDs, req.MultiSelect); err != nil {
		return nil, err
	}

	q := &model.Question{
		TopicID:          topicID,
		Prompt:           req.Prompt,
		Options:          options,
		CorrectOptionIDs: req.CorrectOptionIDs,
		MultiSelect:      req.MultiSelect,
		Explanation:      req.Explanation,
	}
	if err := s.repo.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// GetByID retrieves a question with its answer key.
func (s *QuestionService) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByTopic returns all questions in a topic.
func (s *QuestionService) ListByTopic(ctx context.Context, topicID uuid.UUID) ([]model.Question, error) {
	return s.repo.ListByTopic(ctx, topicID)
}

// Update applies the non-empty fields of the request to a question.
func (s *QuestionService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateQuestionRequest) (*model.Question, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Prompt != "" {
		q.Prompt = req.Prompt
	}
	if len(req.Options) > 0 {
		options := make([]model.Option, len(req.Options))
		for i, o := range req.Options {
			options[i] = model.Option{ID: o.ID, Text: o.Text}
		}
		q.Options = options
	}
	if len(req.CorrectOptionIDs) > 0 {
		q.CorrectOptionIDs = req.CorrectOptionIDs
	}
	if req.MultiSelect != nil {
		q.MultiSelect = *req.MultiSelect
	}
	if req.Explanation != nil {
		q.Explanation = *req.Explanation
	}

	if err := validateAnswerKey(q.Options, q.CorrectOptionIDs, q.MultiSelect); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Delete removes a question.
func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// validateAnswerKey enforces the structural rules tying the answer key to
// the declared options.
func validateAnswerKey(options []model.Option, correctIDs []string, multiSelect bool) error {
	seen := make(map[string]bool, len(options))
	for _, o := range options {
		if seen[o.ID] {
			return ErrDuplicateOptionID
		}
		seen[o.ID] = true
	}
	for _, id := range correctIDs {
		if !seen[id] {
			return ErrUnknownCorrectOption
		}
	}
	if !multiSelect && len(correctIDs) != 1 {
		return ErrSingleSelectMultiKey
	}
	return nil
}

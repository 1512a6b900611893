package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepmed/prepmed-backend/internal/model"
)

// QuestionRepository handles topic and question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// CreateTopic inserts a new topic.
func (r *QuestionRepository) CreateTopic(ctx context.Context, t *model.Topic) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO topics (name) VALUES ($1)
		 RETURNING id, created_at`,
		t.Name,
	).Scan(&t.ID, &t.CreatedAt)
}

// ListTopics retrieves all topics with their question counts.
func (r *QuestionRepository) ListTopics(ctx context.Context) ([]model.Topic, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT t.id, t.name, COUNT(q.id), t.created_at
		 FROM topics t
		 LEFT JOIN questions q ON q.topic_id = t.id
		 GROUP BY t.id
		 ORDER BY t.name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var topics []model.Topic
	for rows.Next() {
		var t model.Topic
		if err := rows.Scan(&t.ID, &t.Name, &t.QuestionCount, &t.CreatedAt); err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

// DeleteTopic removes a topic and its questions.
func (r *QuestionRepository) DeleteTopic(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM topics WHERE id = $1`, id)
	return err
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (topic_id, prompt, options, correct_option_ids, multi_select, explanation)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		q.TopicID, q.Prompt, q.Options, q.CorrectOptionIDs, q.MultiSelect, q.Explanation,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// GetByID retrieves a question by id.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, topic_id, prompt, options, correct_option_ids, multi_select, explanation, created_at, updated_at
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.TopicID, &q.Prompt, &q.Options, &q.CorrectOptionIDs, &q.MultiSelect, &q.Explanation, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// ListByTopic retrieves all questions in a topic, newest first.
func (r *QuestionRepository) ListByTopic(ctx context.Context, topicID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, topic_id, prompt, options, correct_option_ids, multi_select, explanation, created_at, updated_at
		 FROM questions WHERE topic_id = $1
		 ORDER BY created_at DESC`, topicID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestions(rows)
}

// PickRandom draws up to count random questions, optionally restricted to
// the given topics. An empty topicIDs slice draws from the whole bank.
func (r *QuestionRepository) PickRandom(ctx context.Context, topicIDs []uuid.UUID, count int) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, topic_id, prompt, options, correct_option_ids, multi_select, explanation, created_at, updated_at
		 FROM questions
		 WHERE cardinality($1::uuid[]) = 0 OR topic_id = ANY($1)
		 ORDER BY random()
		 LIMIT $2`, topicIDs, count,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestions(rows)
}

// Update overwrites a question's content fields.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`UPDATE questions
		 SET prompt = $2, options = $3, correct_option_ids = $4, multi_select = $5, explanation = $6, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		q.ID, q.Prompt, q.Options, q.CorrectOptionIDs, q.MultiSelect, q.Explanation,
	).Scan(&q.UpdatedAt)
}

// Delete removes a question.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	return err
}

func scanQuestions(rows pgx.Rows) ([]model.Question, error) {
	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.TopicID, &q.Prompt, &q.Options, &q.CorrectOptionIDs, &q.MultiSelect, &q.Explanation, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

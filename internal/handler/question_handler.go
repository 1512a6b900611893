package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prepmed/prepmed-backend/internal/model"
	"github.com/prepmed/prepmed-backend/internal/repository"
	"github.com/prepmed/prepmed-backend/internal/response"
	"github.com/prepmed/prepmed-backend/internal/service"
	"github.com/prepmed/prepmed-backend/internal/validator"
)

// QuestionHandler handles question bank management. Mutations are
// admin-only; topic listing is shared with students for session filters.
type QuestionHandler struct {
	questions *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questions *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questions: questions}
}

// ListTopics godoc
// GET /api/v1/student/topics | GET /api/v1/admin/topics
func (h *QuestionHandler) ListTopics(c *gin.Context) {
	topics, err := h.questions.ListTopics(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if topics == nil {
		topics = []model.Topic{}
	}
	response.Success(c, http.StatusOK, gin.H{"topics": topics})
}

// CreateTopic godoc
// POST /api/v1/admin/topics
func (h *QuestionHandler) CreateTopic(c *gin.Context) {
	var req model.CreateTopicRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	topic, err := h.questions.CreateTopic(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"topic": topic})
}

// DeleteTopic godoc
// DELETE /api/v1/admin/topics/:topic_id
func (h *QuestionHandler) DeleteTopic(c *gin.Context) {
	topicID, ok := uuidParam(c, "topic_id")
	if !ok {
		return
	}

	if err := h.questions.DeleteTopic(c.Request.Context(), topicID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ListByTopic godoc
// GET /api/v1/admin/topics/:topic_id/questions
func (h *QuestionHandler) ListByTopic(c *gin.Context) {
	topicID, ok := uuidParam(c, "topic_id")
	if !ok {
		return
	}

	questions, err := h.questions.ListByTopic(c.Request.Context(), topicID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// Create godoc
// POST /api/v1/admin/topics/:topic_id/questions
func (h *QuestionHandler) Create(c *gin.Context) {
	topicID, ok := uuidParam(c, "topic_id")
	if !ok {
		return
	}

	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.questions.Create(c.Request.Context(), topicID, &req)
	if err != nil {
		h.failFromContent(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"question": q})
}

// Get godoc
// GET /api/v1/admin/questions/:question_id
func (h *QuestionHandler) Get(c *gin.Context) {
	questionID, ok := uuidParam(c, "question_id")
	if !ok {
		return
	}

	q, err := h.questions.GetByID(c.Request.Context(), questionID)
	if err != nil {
		if repository.IsNotFound(err) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": q})
}

// Update godoc
// PUT /api/v1/admin/questions/:question_id
func (h *QuestionHandler) Update(c *gin.Context) {
	questionID, ok := uuidParam(c, "question_id")
	if !ok {
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.questions.Update(c.Request.Context(), questionID, &req)
	if err != nil {
		if repository.IsNotFound(err) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		h.failFromContent(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": q})
}

// Delete godoc
// DELETE /api/v1/admin/questions/:question_id
func (h *QuestionHandler) Delete(c *gin.Context) {
	questionID, ok := uuidParam(c, "question_id")
	if !ok {
		return
	}

	if err := h.questions.Delete(c.Request.Context(), questionID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

func (h *QuestionHandler) failFromContent(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownCorrectOption),
		errors.Is(err, service.ErrDuplicateOptionID),
		errors.Is(err, service.ErrSingleSelectMultiKey):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"correct_option_ids": err.Error()})
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

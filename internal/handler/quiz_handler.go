package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/skillhub-api/internal/dto"
	"github.com/noah-isme/skillhub-api/internal/models"
	"github.com/noah-isme/skillhub-api/pkg/response"
)

type quizService interface {
	ListByCourse(ctx context.Context, viewer *models.JWTClaims, courseID string) ([]models.Quiz, error)
	Get(ctx context.Context, viewer *models.JWTClaims, id string) (*models.QuizDetail, error)
	Create(ctx context.Context, actor *models.JWTClaims, courseID string, req dto.QuizRequest) (*models.Quiz, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.QuizRequest) (*models.Quiz, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
	CreateQuestion(ctx context.Context, actor *models.JWTClaims, quizID string, req dto.QuestionRequest) (*models.Question, error)
	UpdateQuestion(ctx context.Context, actor *models.JWTClaims, id string, req dto.QuestionRequest) (*models.Question, error)
	DeleteQuestion(ctx context.Context, actor *models.JWTClaims, id string) error
	Attempts(ctx context.Context, viewer *models.JWTClaims, id string) (*models.QuizAttempts, error)
	Submit(ctx context.Context, actor *models.JWTClaims, id string, req dto.QuizSubmitRequest) (*models.QuizResult, error)
}

// QuizHandler serves quiz authoring, questions and attempts.
type QuizHandler struct {
	service quizService
}

// NewQuizHandler constructs a QuizHandler.
func NewQuizHandler(svc quizService) *QuizHandler {
	return &QuizHandler{service: svc}
}

// ListByCourse godoc
// @Summary Quizzes of a course
// @Tags Quizzes
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/quizzes [get]
func (h *QuizHandler) ListByCourse(c *gin.Context) {
	items, err := h.service.ListByCourse(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Quiz with questions
// @Description Correct answers are only included for the course owner and admins
// @Tags Quizzes
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /quizzes/{id} [get]
func (h *QuizHandler) Get(c *gin.Context) {
	quiz, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quiz, nil)
}

// Create godoc
// @Summary Add a quiz to a draft course
// @Tags Instructor
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.QuizRequest true "Quiz"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /instructor/courses/{id}/quizzes [post]
func (h *QuizHandler) Create(c *gin.Context) {
	var req dto.QuizRequest
	if !bindJSON(c, &req) {
		return
	}
	quiz, err := h.service.Create(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, quiz)
}

// Update godoc
// @Summary Update a quiz
// @Tags Instructor
// @Accept json
// @Produce json
// @Param id path string true "Quiz ID"
// @Param payload body dto.QuizRequest true "Quiz"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /instructor/quizzes/{id} [put]
func (h *QuizHandler) Update(c *gin.Context) {
	var req dto.QuizRequest
	if !bindJSON(c, &req) {
		return
	}
	quiz, err := h.service.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quiz, nil)
}

// Delete godoc
// @Summary Delete a quiz
// @Tags Instructor
// @Param id path string true "Quiz ID"
// @Success 204
// @Security BearerAuth
// @Router /instructor/quizzes/{id} [delete]
func (h *QuizHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateQuestion godoc
// @Summary Add a question
// @Tags Instructor
// @Accept json
// @Produce json
// @Param id path string true "Quiz ID"
// @Param payload body dto.QuestionRequest true "Question"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /instructor/quizzes/{id}/questions [post]
func (h *QuizHandler) CreateQuestion(c *gin.Context) {
	var req dto.QuestionRequest
	if !bindJSON(c, &req) {
		return
	}
	question, err := h.service.CreateQuestion(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, question)
}

// UpdateQuestion godoc
// @Summary Update a question
// @Tags Instructor
// @Accept json
// @Produce json
// @Param id path string true "Question ID"
// @Param payload body dto.QuestionRequest true "Question"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /instructor/questions/{id} [put]
func (h *QuizHandler) UpdateQuestion(c *gin.Context) {
	var req dto.QuestionRequest
	if !bindJSON(c, &req) {
		return
	}
	question, err := h.service.UpdateQuestion(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, question, nil)
}

// DeleteQuestion godoc
// @Summary Delete a question
// @Tags Instructor
// @Param id path string true "Question ID"
// @Success 204
// @Security BearerAuth
// @Router /instructor/questions/{id} [delete]
func (h *QuizHandler) DeleteQuestion(c *gin.Context) {
	if err := h.service.DeleteQuestion(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Attempts godoc
// @Summary Attempt history and remaining attempts
// @Tags Quizzes
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /quizzes/{id}/attempts [get]
func (h *QuizHandler) Attempts(c *gin.Context) {
	attempts, err := h.service.Attempts(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, attempts, nil)
}

// Submit godoc
// @Summary Submit quiz answers
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param id path string true "Quiz ID"
// @Param payload body dto.QuizSubmitRequest true "Answers keyed by question ID"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /quizzes/{id}/submit [post]
func (h *QuizHandler) Submit(c *gin.Context) {
	var req dto.QuizSubmitRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.Submit(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

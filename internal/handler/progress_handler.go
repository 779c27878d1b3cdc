package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/skillhub-api/internal/dto"
	"github.com/noah-isme/skillhub-api/internal/service"
	"github.com/noah-isme/skillhub-api/pkg/response"
)

// ProgressHandler serves lesson completion, course progress and lesson activity.
type ProgressHandler struct {
	service *service.ProgressService
}

// NewProgressHandler constructs a ProgressHandler.
func NewProgressHandler(svc *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{service: svc}
}

// CompleteLesson godoc
// @Summary Mark a lesson complete
// @Description Idempotent. Recomputes course progress.
// @Tags Progress
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /progress/lessons/{lessonId}/complete [post]
func (h *ProgressHandler) CompleteLesson(c *gin.Context) {
	res, err := h.service.CompleteLesson(c.Request.Context(), claimsFromContext(c), c.Param("lessonId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// CourseProgress godoc
// @Summary Progress in a course
// @Tags Progress
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/progress [get]
func (h *ProgressHandler) CourseProgress(c *gin.Context) {
	res, err := h.service.CourseProgress(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// RecordActivity godoc
// @Summary Record time spent on a lesson
// @Tags Progress
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param lessonId path string true "Lesson ID"
// @Param payload body dto.LessonActivityRequest true "Activity"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id}/activity/{lessonId} [post]
func (h *ProgressHandler) RecordActivity(c *gin.Context) {
	var req dto.LessonActivityRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.RecordActivity(c.Request.Context(), claimsFromContext(c), c.Param("id"), c.Param("lessonId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// ListActivity godoc
// @Summary Lesson activity for an enrollment
// @Tags Progress
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id}/activity [get]
func (h *ProgressHandler) ListActivity(c *gin.Context) {
	items, err := h.service.ListActivity(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

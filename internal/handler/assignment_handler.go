package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/skillhub-api/internal/dto"
	"github.com/noah-isme/skillhub-api/internal/models"
	"github.com/noah-isme/skillhub-api/internal/service"
	"github.com/noah-isme/skillhub-api/pkg/response"
)

type assignmentService interface {
	ListByCourse(ctx context.Context, viewer *models.JWTClaims, courseID string) ([]models.Assignment, error)
	Get(ctx context.Context, viewer *models.JWTClaims, id string) (*models.Assignment, error)
	Create(ctx context.Context, actor *models.JWTClaims, courseID string, req dto.AssignmentRequest) (*models.Assignment, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.AssignmentRequest) (*models.Assignment, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
	Submit(ctx context.Context, actor *models.JWTClaims, id string, file service.Upload) (*models.Submission, bool, error)
	MySubmission(ctx context.Context, actor *models.JWTClaims, id string) (*dto.MySubmissionResponse, error)
	ListSubmissions(ctx context.Context, actor *models.JWTClaims, id string) ([]models.Submission, error)
	Grade(ctx context.Context, actor *models.JWTClaims, submissionID string, req dto.GradeRequest, meta service.RequestMeta) (*models.Submission, error)
	DownloadURL(ctx context.Context, actor *models.JWTClaims, submissionID string) (*dto.DownloadLink, error)
}

// AssignmentHandler serves assignments, submissions and grading.
type AssignmentHandler struct {
	service assignmentService
}

// NewAssignmentHandler constructs an AssignmentHandler.
func NewAssignmentHandler(svc assignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: svc}
}

// ListByCourse godoc
// @Summary Assignments of a course
// @Description Enrolled students also get has_submitted per assignment
// @Tags Assignments
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/assignments [get]
func (h *AssignmentHandler) ListByCourse(c *gin.Context) {
	items, err := h.service.ListByCourse(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Assignment detail
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /assignments/{id} [get]
func (h *AssignmentHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Add an assignment to a draft course
// @Tags Instructor
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.AssignmentRequest true "Assignment"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /instructor/courses/{id}/assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req dto.AssignmentRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.service.Create(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update an assignment
// @Tags Instructor
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body dto.AssignmentRequest true "Assignment"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /instructor/assignments/{id} [put]
func (h *AssignmentHandler) Update(c *gin.Context) {
	var req dto.AssignmentRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.service.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete an assignment
// @Tags Instructor
// @Param id path string true "Assignment ID"
// @Success 204
// @Security BearerAuth
// @Router /instructor/assignments/{id} [delete]
func (h *AssignmentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Submit godoc
// @Summary Submit or replace an assignment file
// @Tags Assignments
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Assignment ID"
// @Param file formData file true "pdf, doc, docx, txt or zip"
// @Success 201 {object} response.Envelope "first submission"
// @Success 200 {object} response.Envelope "resubmission"
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /assignments/{id}/submit [post]
func (h *AssignmentHandler) Submit(c *gin.Context) {
	file, closeFile, err := formFile(c, "file")
	defer closeFile()
	if err != nil {
		response.Error(c, err)
		return
	}
	sub, created, err := h.service.Submit(c.Request.Context(), claimsFromContext(c), c.Param("id"), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.JSON(c, status, sub, nil)
}

// MySubmission godoc
// @Summary The caller's submission for an assignment
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /assignments/{id}/submission [get]
func (h *AssignmentHandler) MySubmission(c *gin.Context) {
	res, err := h.service.MySubmission(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// ListSubmissions godoc
// @Summary Submissions for an assignment
// @Tags Instructor
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /instructor/assignments/{id}/submissions [get]
func (h *AssignmentHandler) ListSubmissions(c *gin.Context) {
	items, err := h.service.ListSubmissions(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Grade godoc
// @Summary Grade a submission
// @Tags Instructor
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body dto.GradeRequest true "Grade"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /instructor/submissions/{id}/grade [post]
func (h *AssignmentHandler) Grade(c *gin.Context) {
	var req dto.GradeRequest
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.service.Grade(c.Request.Context(), claimsFromContext(c), c.Param("id"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}

// Download godoc
// @Summary Signed download link for a submission file
// @Tags Assignments
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions/{id}/download [get]
func (h *AssignmentHandler) Download(c *gin.Context) {
	link, err := h.service.DownloadURL(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

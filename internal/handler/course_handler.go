package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/skillhub-api/internal/dto"
	"github.com/noah-isme/skillhub-api/internal/models"
	"github.com/noah-isme/skillhub-api/internal/service"
	"github.com/noah-isme/skillhub-api/pkg/response"
)

type courseService interface {
	Catalog(ctx context.Context, q dto.CatalogQuery) ([]models.CourseView, *models.Pagination, error)
	ListInstructorCourses(ctx context.Context, actor *models.JWTClaims, status models.CourseStatus, page, pageSize int) ([]models.CourseView, *models.Pagination, error)
	ListPending(ctx context.Context, page, pageSize int) ([]models.CourseView, *models.Pagination, error)
	Get(ctx context.Context, viewer *models.JWTClaims, id string) (*models.CourseView, error)
	Create(ctx context.Context, actor *models.JWTClaims, req dto.CourseRequest) (*models.CourseView, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.CourseRequest) (*models.CourseView, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
	UploadThumbnail(ctx context.Context, actor *models.JWTClaims, id string, file service.Upload) (*models.CourseView, error)
	SubmitForReview(ctx context.Context, actor *models.JWTClaims, id string, meta service.RequestMeta) (*models.CourseView, error)
	Review(ctx context.Context, actor *models.JWTClaims, id string, req dto.ReviewCourseRequest, meta service.RequestMeta) (*models.CourseView, error)
}

// CourseHandler serves the public catalog, instructor authoring and admin review.
type CourseHandler struct {
	service courseService
}

// NewCourseHandler constructs a CourseHandler.
func NewCourseHandler(svc courseService) *CourseHandler {
	return &CourseHandler{service: svc}
}

// Catalog godoc
// @Summary Browse approved courses
// @Tags Courses
// @Produce json
// @Param category query []string false "Category IDs, repeatable or comma separated"
// @Param is_free query bool false "Only free or only paid courses"
// @Param search query string false "Matches title and description"
// @Param ordering query string false "created_at, -created_at, price, -price, title or -title"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size, max 100"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) Catalog(c *gin.Context) {
	q := dto.CatalogQuery{
		Categories: queryList(c, "category"),
		IsFree:     queryBool(c, "is_free"),
		Search:     strings.TrimSpace(c.Query("search")),
		Ordering:   c.Query("ordering"),
	}
	q.Page, q.PageSize = pageParams(c)

	items, pagination, err := h.service.Catalog(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Course detail
// @Description Admins see every course, instructors also see their own drafts
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// InstructorList godoc
// @Summary List my courses
// @Tags Instructor
// @Produce json
// @Param status query string false "DRAFT, PENDING, APPROVED or REJECTED"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /instructor/courses [get]
func (h *CourseHandler) InstructorList(c *gin.Context) {
	page, size := pageParams(c)
	status := models.CourseStatus(strings.ToUpper(c.Query("status")))
	items, pagination, err := h.service.ListInstructorCourses(c.Request.Context(), claimsFromContext(c), status, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Create godoc
// @Summary Create a draft course
// @Tags Instructor
// @Accept json
// @Produce json
// @Param payload body dto.CourseRequest true "Course"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /instructor/courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req dto.CourseRequest
	if !bindJSON(c, &req) {
		return
	}
	course, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update godoc
// @Summary Update a draft course
// @Tags Instructor
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.CourseRequest true "Course"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /instructor/courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	var req dto.CourseRequest
	if !bindJSON(c, &req) {
		return
	}
	course, err := h.service.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Delete godoc
// @Summary Delete a draft course
// @Tags Instructor
// @Param id path string true "Course ID"
// @Success 204
// @Security BearerAuth
// @Router /instructor/courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UploadThumbnail godoc
// @Summary Upload a course thumbnail
// @Tags Instructor
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Course ID"
// @Param thumbnail formData file true "jpg, jpeg, png or webp"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /instructor/courses/{id}/thumbnail [post]
func (h *CourseHandler) UploadThumbnail(c *gin.Context) {
	file, closeFile, err := formFile(c, "thumbnail")
	defer closeFile()
	if err != nil {
		response.Error(c, err)
		return
	}
	course, err := h.service.UploadThumbnail(c.Request.Context(), claimsFromContext(c), c.Param("id"), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// SubmitForReview godoc
// @Summary Submit a draft for admin review
// @Tags Instructor
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /instructor/courses/{id}/submit [post]
func (h *CourseHandler) SubmitForReview(c *gin.Context) {
	course, err := h.service.SubmitForReview(c.Request.Context(), claimsFromContext(c), c.Param("id"), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Pending godoc
// @Summary Courses awaiting review
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/courses/pending [get]
func (h *CourseHandler) Pending(c *gin.Context) {
	page, size := pageParams(c)
	items, pagination, err := h.service.ListPending(c.Request.Context(), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Review godoc
// @Summary Approve or reject a pending course
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.ReviewCourseRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/courses/{id}/review [post]
func (h *CourseHandler) Review(c *gin.Context) {
	var req dto.ReviewCourseRequest
	if !bindJSON(c, &req) {
		return
	}
	req.Status = models.CourseStatus(strings.ToUpper(string(req.Status)))
	course, err := h.service.Review(c.Request.Context(), claimsFromContext(c), c.Param("id"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

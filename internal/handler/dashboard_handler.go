package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/skillhub-api/internal/middleware"
	"github.com/noah-isme/skillhub-api/internal/models"
	appErrors "github.com/noah-isme/skillhub-api/pkg/errors"
	"github.com/noah-isme/skillhub-api/pkg/response"
)

type dashboardService interface {
	Admin(ctx context.Context) (*models.AdminDashboard, bool, error)
	Instructor(ctx context.Context, instructorID string) (*models.InstructorDashboard, bool, error)
	Student(ctx context.Context, studentID string) (*models.StudentDashboard, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Admin godoc
// @Summary Platform-wide statistics
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/dashboard [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	summary, hit, err := h.service.Admin(c.Request.Context())
	h.respond(c, summary, hit, err)
}

// Instructor godoc
// @Summary Statistics for the caller's courses
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /instructor/dashboard [get]
func (h *DashboardHandler) Instructor(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	summary, hit, err := h.service.Instructor(c.Request.Context(), claims.UserID)
	h.respond(c, summary, hit, err)
}

// Student godoc
// @Summary Learning summary for the caller
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /student/dashboard [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	summary, hit, err := h.service.Student(c.Request.Context(), claims.UserID)
	h.respond(c, summary, hit, err)
}

func (h *DashboardHandler) respond(c *gin.Context, data interface{}, hit bool, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, data, nil, middleware.ResponseMeta(c))
}

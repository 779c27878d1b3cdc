package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/skillhub-api/internal/dto"
	"github.com/noah-isme/skillhub-api/internal/service"
	"github.com/noah-isme/skillhub-api/pkg/response"
)

// LessonHandler serves lessons and their videos.
type LessonHandler struct {
	service *service.LessonService
}

// NewLessonHandler constructs a LessonHandler.
func NewLessonHandler(svc *service.LessonService) *LessonHandler {
	return &LessonHandler{service: svc}
}

// ListByCourse godoc
// @Summary Lessons of a course
// @Tags Lessons
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/lessons [get]
func (h *LessonHandler) ListByCourse(c *gin.Context) {
	items, err := h.service.ListByCourse(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Lesson detail
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id} [get]
func (h *LessonHandler) Get(c *gin.Context) {
	lesson, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// Create godoc
// @Summary Add a lesson to a draft course
// @Tags Instructor
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.LessonRequest true "Lesson"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /instructor/courses/{id}/lessons [post]
func (h *LessonHandler) Create(c *gin.Context) {
	var req dto.LessonRequest
	if !bindJSON(c, &req) {
		return
	}
	lesson, err := h.service.Create(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// Update godoc
// @Summary Update a lesson
// @Tags Instructor
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body dto.LessonRequest true "Lesson"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /instructor/lessons/{id} [put]
func (h *LessonHandler) Update(c *gin.Context) {
	var req dto.LessonRequest
	if !bindJSON(c, &req) {
		return
	}
	lesson, err := h.service.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// Delete godoc
// @Summary Delete a lesson
// @Tags Instructor
// @Param id path string true "Lesson ID"
// @Success 204
// @Security BearerAuth
// @Router /instructor/lessons/{id} [delete]
func (h *LessonHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UploadVideo godoc
// @Summary Upload the lesson video file
// @Tags Instructor
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Lesson ID"
// @Param video formData file true "mp4, mov, avi or mkv"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /instructor/lessons/{id}/video [post]
func (h *LessonHandler) UploadVideo(c *gin.Context) {
	file, closeFile, err := formFile(c, "video")
	defer closeFile()
	if err != nil {
		response.Error(c, err)
		return
	}
	lesson, err := h.service.UploadVideo(c.Request.Context(), claimsFromContext(c), c.Param("id"), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// ListVideos godoc
// @Summary Videos attached to a lesson
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id}/videos [get]
func (h *LessonHandler) ListVideos(c *gin.Context) {
	items, err := h.service.ListVideos(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// AddVideo godoc
// @Summary Attach a hosted video to a lesson
// @Tags Instructor
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body dto.VideoRequest true "Video"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /instructor/lessons/{id}/videos [post]
func (h *LessonHandler) AddVideo(c *gin.Context) {
	var req dto.VideoRequest
	if !bindJSON(c, &req) {
		return
	}
	video, err := h.service.AddVideo(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, video)
}

// DeleteVideo godoc
// @Summary Remove a video
// @Tags Instructor
// @Param id path string true "Video ID"
// @Success 204
// @Security BearerAuth
// @Router /instructor/videos/{id} [delete]
func (h *LessonHandler) DeleteVideo(c *gin.Context) {
	if err := h.service.DeleteVideo(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

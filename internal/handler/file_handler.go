package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/skillhub-api/internal/service"
	"github.com/noah-isme/skillhub-api/pkg/response"
)

type fileResolver interface {
	Resolve(ctx context.Context, token string) (*service.DownloadFile, error)
}

// FileHandler streams files addressed by a signed token.
type FileHandler struct {
	files fileResolver
}

// NewFileHandler constructs a FileHandler.
func NewFileHandler(files fileResolver) *FileHandler {
	return &FileHandler{files: files}
}

// Download godoc
// @Summary Download a file by signed token
// @Tags Files
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{token} [get]
func (h *FileHandler) Download(c *gin.Context) {
	file, err := h.files.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.FileAttachment(file.Path, file.Name)
}

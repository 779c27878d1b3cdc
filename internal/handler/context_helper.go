package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/skillhub-api/internal/middleware"
	"github.com/noah-isme/skillhub-api/internal/models"
	"github.com/noah-isme/skillhub-api/internal/service"
	appErrors "github.com/noah-isme/skillhub-api/pkg/errors"
	"github.com/noah-isme/skillhub-api/pkg/middleware/requestid"
	"github.com/noah-isme/skillhub-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// requireClaims writes a 401 and returns nil when the caller is anonymous.
func requireClaims(c *gin.Context) *models.JWTClaims {
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "authentication credentials were not provided"))
	}
	return claims
}

func requestMeta(c *gin.Context) service.RequestMeta {
	return service.RequestMeta{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent"), RequestID: requestid.Value(c)}
}

// bindJSON decodes the body into dest, writing a 400 on malformed input.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid JSON payload"))
		return false
	}
	return true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, size
}

// formFile opens a multipart upload. The returned closer must be called.
func formFile(c *gin.Context, field string) (service.Upload, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		return service.Upload{}, func() {}, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "file is required"),
			map[string]string{field: "this field is required"},
		)
	}
	file, err := header.Open()
	if err != nil {
		return service.Upload{}, func() {}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable upload")
	}
	return service.Upload{Name: header.Filename, Size: header.Size, Reader: file}, func() { _ = file.Close() }, nil
}

// queryList reads a repeatable query parameter that may also hold comma separated values.
func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func queryBool(c *gin.Context, key string) *bool {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

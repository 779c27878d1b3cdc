package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/skillhub-api/internal/service"
	"github.com/noah-isme/skillhub-api/pkg/middleware/requestid"
)

func TestRequestMetaIncludesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var meta service.RequestMeta
	r := gin.New()
	r.Use(requestid.Middleware())
	r.GET("/x", func(c *gin.Context) {
		meta = requestMeta(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(requestid.Header, "trace-1")
	req.Header.Set("User-Agent", "skillhub-web")
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "trace-1", meta.RequestID)
	assert.Equal(t, "skillhub-web", meta.UserAgent)
}

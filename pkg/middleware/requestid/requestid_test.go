package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, inbound string) (*httptest.ResponseRecorder, string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var fromGin, fromCtx string
	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) {
		fromGin = Value(c)
		fromCtx = FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if inbound != "" {
		req.Header.Set(Header, inbound)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec, fromGin, fromCtx
}

func TestMiddlewareKeepsWellFormedInboundID(t *testing.T) {
	rec, fromGin, fromCtx := serve(t, "web-7f3a.2")

	assert.Equal(t, "web-7f3a.2", rec.Header().Get(Header))
	assert.Equal(t, "web-7f3a.2", fromGin)
	assert.Equal(t, "web-7f3a.2", fromCtx)
}

func TestMiddlewareReplacesMissingOrUnsafeID(t *testing.T) {
	for _, inbound := range []string{"", "bad id\nforged=1", strings.Repeat("a", maxLen+1)} {
		rec, fromGin, fromCtx := serve(t, inbound)

		got := rec.Header().Get(Header)
		_, err := uuid.Parse(got)
		require.NoError(t, err, "inbound %q", inbound)
		assert.Equal(t, got, fromGin)
		assert.Equal(t, got, fromCtx)
	}
}

func TestFromContextWithoutMiddleware(t *testing.T) {
	assert.Empty(t, FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}

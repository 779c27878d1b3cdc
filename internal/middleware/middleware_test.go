package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/skillhub-api/internal/models"
	appErrors "github.com/noah-isme/skillhub-api/pkg/errors"
)

type stubValidator map[string]*models.JWTClaims

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		role := ""
		if claims := Claims(c); claims != nil {
			role = string(claims.Role)
		}
		c.String(http.StatusOK, role)
	})
	r.GET("/", handlers...)
	return r
}

func do(r *gin.Engine, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWT(t *testing.T) {
	validator := stubValidator{"good": {UserID: "u1", Role: models.RoleStudent}}
	r := newRouter(JWT(validator))

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer bad").Code)

	w := do(r, "Bearer good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "STUDENT", w.Body.String())
}

func TestOptionalJWT(t *testing.T) {
	validator := stubValidator{"good": {UserID: "u1", Role: models.RoleAdmin}}
	r := newRouter(OptionalJWT(validator))

	w := do(r, "Bearer bad")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, "ADMIN", do(r, "Bearer good").Body.String())
}

func TestRequireRoles(t *testing.T) {
	validator := stubValidator{
		"student":    {UserID: "u1", Role: models.RoleStudent},
		"instructor": {UserID: "u2", Role: models.RoleInstructor},
	}
	r := newRouter(JWT(validator), RequireRoles(models.RoleInstructor, models.RoleAdmin))

	assert.Equal(t, http.StatusForbidden, do(r, "Bearer student").Code)
	assert.Equal(t, http.StatusOK, do(r, "Bearer instructor").Code)

	bare := newRouter(RequireRoles(models.RoleAdmin))
	assert.Equal(t, http.StatusUnauthorized, do(bare, "").Code)
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, ResponseMeta(c))

	WithResponseMeta()(c)
	SetCacheHit(c, true)
	meta := ResponseMeta(c)
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
}

package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/skillhub-api/internal/dto"
	"github.com/noah-isme/skillhub-api/internal/models"
	"github.com/noah-isme/skillhub-api/internal/service"
	appErrors "github.com/noah-isme/skillhub-api/pkg/errors"
)

type fakeAuthSrv struct {
	registered dto.RegisterRequest
	loginErr   error
	meCalls    []string
}

func (f *fakeAuthSrv) Register(_ context.Context, req dto.RegisterRequest) (*models.AuthResponse, error) {
	f.registered = req
	return &models.AuthResponse{AccessToken: "a", RefreshToken: "r", User: &models.UserInfo{Email: req.Email}}, nil
}

func (f *fakeAuthSrv) Login(context.Context, dto.LoginRequest) (*models.AuthResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.AuthResponse{AccessToken: "a"}, nil
}

func (f *fakeAuthSrv) Refresh(context.Context, dto.RefreshTokenRequest) (*models.AuthResponse, error) {
	return &models.AuthResponse{AccessToken: "a2"}, nil
}

func (f *fakeAuthSrv) Logout(context.Context, string, dto.LogoutRequest, service.RequestMeta) error {
	return nil
}

func (f *fakeAuthSrv) Me(_ context.Context, id string) (*models.UserInfo, error) {
	f.meCalls = append(f.meCalls, id)
	return &models.UserInfo{ID: id}, nil
}

func (f *fakeAuthSrv) UpdateMe(_ context.Context, id string, _ dto.UpdateProfileRequest) (*models.UserInfo, error) {
	return &models.UserInfo{ID: id}, nil
}

func (f *fakeAuthSrv) RequestPasswordReset(context.Context, dto.PasswordResetRequest) (string, error) {
	return "if the account exists a reset link was sent", nil
}

func (f *fakeAuthSrv) ConfirmPasswordReset(context.Context, dto.PasswordResetConfirmRequest, service.RequestMeta) error {
	return nil
}

func (f *fakeAuthSrv) ChangePassword(context.Context, string, dto.ChangePasswordRequest, service.RequestMeta) error {
	return nil
}

func TestAuthHandlerRegisterCapturesClient(t *testing.T) {
	srv := &fakeAuthSrv{}
	handler := NewAuthHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/auth/register", jsonBody(t, map[string]string{
		"email": "ana@example.com", "password": "s3cretpass", "password_confirm": "s3cretpass",
		"first_name": "Ana", "last_name": "Lee", "role": "STUDENT",
	}))
	c.Request.Header.Set("User-Agent", "test-agent")

	handler.Register(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "ana@example.com", srv.registered.Email)
	assert.Equal(t, "test-agent", srv.registered.UserAgent)
	assert.NotEmpty(t, srv.registered.IP)
}

func TestAuthHandlerRejectsMalformedJSON(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthSrv{})

	c, rec := newTestContext(http.MethodPost, "/auth/login", strings.NewReader("{"))
	handler.Login(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	if assert.NotNil(t, env.Error) {
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	}
}

func TestAuthHandlerLoginFailure(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthSrv{loginErr: appErrors.ErrInvalidCredentials})

	c, rec := newTestContext(http.MethodPost, "/auth/login", jsonBody(t, map[string]string{"email": "a@b.co", "password": "x"}))
	handler.Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerMeRequiresClaims(t *testing.T) {
	srv := &fakeAuthSrv{}
	handler := NewAuthHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/auth/me", nil)
	handler.Me(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, srv.meCalls)

	c, rec = newTestContext(http.MethodGet, "/auth/me", nil)
	withClaims(c, "user-1", models.RoleStudent)
	handler.Me(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"user-1"}, srv.meCalls)
}

func TestAuthHandlerPasswordResetAlwaysAnswersWithMessage(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthSrv{})

	c, rec := newTestContext(http.MethodPost, "/auth/password/reset", jsonBody(t, map[string]string{"email": "nobody@example.com"}))
	handler.RequestPasswordReset(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Contains(t, env.Data["message"], "reset link")
}

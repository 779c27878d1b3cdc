package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/skillhub-api/internal/dto"
	"github.com/noah-isme/skillhub-api/internal/models"
	appErrors "github.com/noah-isme/skillhub-api/pkg/errors"
)

type mockAuthRepo struct {
	users         map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	resetTokens   map[string]time.Time
	auditLogs     []*models.AuditLog
	revokedUsers  []string
	findErr       error
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{
		users:         map[string]*models.User{},
		refreshTokens: map[string]*models.RefreshToken{},
		resetTokens:   map[string]time.Time{},
	}
}

func (m *mockAuthRepo) addUser(t *testing.T, id, email, password string, active bool) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{ID: id, Email: email, PasswordHash: string(hash), FirstName: "Test", LastName: "User", Role: models.RoleStudent, IsActive: active}
	m.users[id] = u
	return u
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	for _, u := range m.users {
		if u.ResetToken != nil && *u.ResetToken == token && m.resetTokens[token].After(now) {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "new-user"
	}
	user.CreatedAt = time.Now()
	m.users[user.ID] = user
	return nil
}

func (m *mockAuthRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.users[id].LastLogin = &ts
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	m.users[id].PasswordHash = passwordHash
	m.users[id].ResetToken = nil
	return nil
}

func (m *mockAuthRepo) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	m.users[id].ResetToken = &token
	m.resetTokens[token] = expiresAt
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedUsers = append(m.revokedUsers, userID)
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if rt, ok := m.refreshTokens[token]; ok {
		return rt, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) (bool, error) {
	for _, rt := range m.refreshTokens {
		if rt.ID == id {
			if rt.Revoked {
				return false, nil
			}
			rt.Revoked = true
			rt.RevokedAt = &revokedAt
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

type recordingNotifier struct {
	welcomed []string
	resets   map[string]string
}

func (n *recordingNotifier) Welcome(ctx context.Context, user models.User) {
	n.welcomed = append(n.welcomed, user.Email)
}

func (n *recordingNotifier) PasswordReset(ctx context.Context, user models.User, token string) {
	if n.resets == nil {
		n.resets = map[string]string{}
	}
	n.resets[user.Email] = token
}

func newTestAuthService(repo *mockAuthRepo, notifier *recordingNotifier) *AuthService {
	return NewAuthService(repo, notifier, nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "skillhub",
	})
}

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, code, appErr.Code)
}

func TestAuthRegisterDefaultsToStudent(t *testing.T) {
	repo := newMockAuthRepo()
	notifier := &recordingNotifier{}
	svc := newTestAuthService(repo, notifier)

	resp, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email: "new@example.com", Password: "password123", PasswordConfirm: "password123", FirstName: "New", LastName: "Learner",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, models.RoleStudent, resp.User.Role)
	assert.Equal(t, []string{"new@example.com"}, notifier.welcomed)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionRegister, repo.auditLogs[0].Action)
}

func TestAuthRegisterRejectsAdminRoleAndDuplicates(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(t, "u1", "taken@example.com", "password123", true)
	svc := newTestAuthService(repo, nil)

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email: "x@example.com", Password: "password123", PasswordConfirm: "password123", FirstName: "A", LastName: "B", Role: models.RoleAdmin,
	})
	assertAppError(t, err, appErrors.ErrValidation.Code)

	_, err = svc.Register(context.Background(), dto.RegisterRequest{
		Email: "taken@example.com", Password: "password123", PasswordConfirm: "password123", FirstName: "A", LastName: "B",
	})
	assertAppError(t, err, appErrors.ErrConflict.Code)

	_, err = svc.Register(context.Background(), dto.RegisterRequest{
		Email: "y@example.com", Password: "password123", PasswordConfirm: "different1", FirstName: "A", LastName: "B",
	})
	assertAppError(t, err, appErrors.ErrValidation.Code)
}

func TestAuthLogin(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(t, "u1", "user@example.com", "password123", true)
	repo.addUser(t, "u2", "off@example.com", "password123", false)
	svc := newTestAuthService(repo, nil)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Email: "user@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotNil(t, repo.users["u1"].LastLogin)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "user@example.com", Password: "wrong-password"})
	assertAppError(t, err, appErrors.ErrInvalidCredentials.Code)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assertAppError(t, err, appErrors.ErrInvalidCredentials.Code)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "off@example.com", Password: "password123"})
	assertAppError(t, err, appErrors.ErrInactiveAccount.Code)
}

func TestAuthRefreshRotates(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(t, "u1", "user@example.com", "password123", true)
	svc := newTestAuthService(repo, nil)

	login, err := svc.Login(context.Background(), dto.LoginRequest{Email: "user@example.com", Password: "password123"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), dto.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.True(t, repo.refreshTokens[login.RefreshToken].Revoked)

	_, err = svc.Refresh(context.Background(), dto.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	assertAppError(t, err, appErrors.ErrUnauthorized.Code)
}

func TestAuthLogoutChecksOwnership(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(t, "u1", "user@example.com", "password123", true)
	svc := newTestAuthService(repo, nil)

	login, err := svc.Login(context.Background(), dto.LoginRequest{Email: "user@example.com", Password: "password123"})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), "someone-else", dto.LogoutRequest{RefreshToken: login.RefreshToken}, RequestMeta{})
	assertAppError(t, err, appErrors.ErrForbidden.Code)

	require.NoError(t, svc.Logout(context.Background(), "u1", dto.LogoutRequest{RefreshToken: login.RefreshToken}, RequestMeta{}))
	assert.True(t, repo.refreshTokens[login.RefreshToken].Revoked)
}

func TestAuthPasswordResetUnknownEmailIsGeneric(t *testing.T) {
	repo := newMockAuthRepo()
	notifier := &recordingNotifier{}
	svc := newTestAuthService(repo, notifier)

	msg, err := svc.RequestPasswordReset(context.Background(), dto.PasswordResetRequest{Email: "ghost@example.com"})
	require.NoError(t, err)
	assert.Equal(t, PasswordResetMessage, msg)
	assert.Empty(t, notifier.resets)
}

func TestAuthPasswordResetFlow(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(t, "u1", "user@example.com", "password123", true)
	notifier := &recordingNotifier{}
	svc := newTestAuthService(repo, notifier)

	msg, err := svc.RequestPasswordReset(context.Background(), dto.PasswordResetRequest{Email: "user@example.com"})
	require.NoError(t, err)
	assert.Equal(t, PasswordResetMessage, msg)
	token := notifier.resets["user@example.com"]
	require.NotEmpty(t, token)
	stored := repo.users["u1"].ResetToken
	require.NotNil(t, stored)
	assert.NotEqual(t, token, *stored)
	assert.Equal(t, hashResetToken(token), *stored)
	assert.Len(t, *stored, 64)
	assert.WithinDuration(t, time.Now().Add(time.Hour), repo.resetTokens[*stored], time.Minute)

	err = svc.ConfirmPasswordReset(context.Background(), dto.PasswordResetConfirmRequest{Token: "bogus", NewPassword: "newpassword1", NewPasswordConfirm: "newpassword1"}, RequestMeta{})
	assertAppError(t, err, appErrors.ErrValidation.Code)

	digest := *stored
	err = svc.ConfirmPasswordReset(context.Background(), dto.PasswordResetConfirmRequest{Token: digest, NewPassword: "newpassword1", NewPasswordConfirm: "newpassword1"}, RequestMeta{})
	assertAppError(t, err, appErrors.ErrValidation.Code)

	require.NoError(t, svc.ConfirmPasswordReset(context.Background(), dto.PasswordResetConfirmRequest{Token: token, NewPassword: "newpassword1", NewPasswordConfirm: "newpassword1"}, RequestMeta{}))
	assert.Nil(t, repo.users["u1"].ResetToken)
	assert.Equal(t, []string{"u1"}, repo.revokedUsers)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "user@example.com", Password: "newpassword1"})
	assert.NoError(t, err)
}

func TestAuthPasswordResetExpiredToken(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(t, "u1", "user@example.com", "password123", true)
	notifier := &recordingNotifier{}
	svc := newTestAuthService(repo, notifier)

	_, err := svc.RequestPasswordReset(context.Background(), dto.PasswordResetRequest{Email: "user@example.com"})
	require.NoError(t, err)
	token := notifier.resets["user@example.com"]

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	err = svc.ConfirmPasswordReset(context.Background(), dto.PasswordResetConfirmRequest{Token: token, NewPassword: "newpassword1", NewPasswordConfirm: "newpassword1"}, RequestMeta{})
	assertAppError(t, err, appErrors.ErrValidation.Code)
}

func TestAuthChangePasswordWrongCurrent(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(t, "u1", "user@example.com", "password123", true)
	svc := newTestAuthService(repo, nil)

	err := svc.ChangePassword(context.Background(), "u1", dto.ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "newpassword1", NewPasswordConfirm: "newpassword1"}, RequestMeta{})
	assertAppError(t, err, appErrors.ErrValidation.Code)

	require.NoError(t, svc.ChangePassword(context.Background(), "u1", dto.ChangePasswordRequest{CurrentPassword: "password123", NewPassword: "newpassword1", NewPasswordConfirm: "newpassword1"}, RequestMeta{}))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users["u1"].PasswordHash), []byte("newpassword1")))
}

func TestAuthUpdateMe(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(t, "u1", "user@example.com", "password123", true)
	svc := newTestAuthService(repo, nil)

	info, err := svc.UpdateMe(context.Background(), "u1", dto.UpdateProfileRequest{FirstName: " Ada ", LastName: "Lovelace"})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", info.FullName)

	_, err = svc.Me(context.Background(), "missing")
	assertAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(t, "u1", "user@example.com", "password123", true)
	svc := newTestAuthService(repo, nil)
	login, err := svc.Login(context.Background(), dto.LoginRequest{Email: "user@example.com", Password: "password123"})
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, nil, AuthConfig{AccessTokenSecret: "other", AccessTokenExpiry: time.Minute})
	_, err = other.ValidateToken(login.AccessToken)
	assertAppError(t, err, appErrors.ErrUnauthorized.Code)
}

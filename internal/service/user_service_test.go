package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillhub-api/internal/models"
	appErrors "github.com/noah-isme/skillhub-api/pkg/errors"
)

type mockUserRepo struct {
	users   map[string]*models.User
	revoked []string
	audits  []*models.AuditLog
	filter  models.UserFilter
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	m.filter = filter
	var out []models.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) SetActive(ctx context.Context, id string, active bool) error {
	m.users[id].IsActive = active
	return nil
}

func (m *mockUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revoked = append(m.revoked, userID)
	return nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.audits = append(m.audits, log)
	return nil
}

func TestUserServiceDeactivateRevokesTokens(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"u1": {ID: "u1", Email: "s@example.com", IsActive: true, Role: models.RoleStudent}}}
	svc := NewUserService(repo, nil, nil)
	admin := &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}

	info, err := svc.SetActive(context.Background(), admin, "u1", false, RequestMeta{IP: "127.0.0.1"})
	require.NoError(t, err)
	assert.False(t, info.IsActive)
	assert.Equal(t, []string{"u1"}, repo.revoked)
	require.Len(t, repo.audits, 1)
	assert.JSONEq(t, `{"is_active":false}`, string(repo.audits[0].NewValues))
	assert.Equal(t, "127.0.0.1", repo.audits[0].IPAddress)
}

func TestUserServiceAuditCarriesRequestID(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"u1": {ID: "u1", Email: "s@example.com", IsActive: false, Role: models.RoleStudent}}}
	svc := NewUserService(repo, nil, nil)
	admin := &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}

	_, err := svc.SetActive(context.Background(), admin, "u1", true, RequestMeta{IP: "10.0.0.9", RequestID: "req-42"})
	require.NoError(t, err)
	require.Len(t, repo.audits, 1)
	assert.Equal(t, "req-42", repo.audits[0].RequestID)
}

func TestUserServiceSelfDeactivationRejected(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"admin": {ID: "admin", IsActive: true, Role: models.RoleAdmin}}}
	svc := NewUserService(repo, nil, nil)

	_, err := svc.SetActive(context.Background(), &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}, "admin", false, RequestMeta{})
	assertAppError(t, err, appErrors.ErrValidation.Code)
}

func TestUserServiceListAndGet(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"u1": {ID: "u1", Email: "s@example.com", Role: models.RoleStudent}}}
	svc := NewUserService(repo, nil, nil)

	items, page, err := svc.List(context.Background(), models.UserFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, page.TotalPages)

	bad := models.UserRole("ROOT")
	_, _, err = svc.List(context.Background(), models.UserFilter{Role: &bad})
	assertAppError(t, err, appErrors.ErrValidation.Code)

	_, err = svc.Get(context.Background(), "missing")
	assertAppError(t, err, appErrors.ErrNotFound.Code)
}

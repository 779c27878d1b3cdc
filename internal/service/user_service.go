package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/skillhub-api/internal/models"
	appErrors "github.com/noah-isme/skillhub-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	SetActive(ctx context.Context, id string, active bool) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// UserService handles admin account management.
type UserService struct {
	repo   userRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, cache *CacheService, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, cache: cache, logger: logger}
}

// List returns users with pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.UserInfo, *models.Pagination, error) {
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internal(err, "failed to list users")
	}
	out := make([]models.UserInfo, 0, len(users))
	for _, u := range users {
		out = append(out, u.Info())
	}
	return out, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a single user.
func (s *UserService) Get(ctx context.Context, id string) (*models.UserInfo, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user not found", "failed to load user")
	}
	info := user.Info()
	return &info, nil
}

// SetActive activates or deactivates an account. Deactivation revokes every refresh token.
func (s *UserService) SetActive(ctx context.Context, actor *models.JWTClaims, id string, active bool, meta RequestMeta) (*models.UserInfo, error) {
	if actor != nil && actor.UserID == id && !active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "admins cannot deactivate themselves")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user not found", "failed to load user")
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, notFoundOr(err, "user not found", "failed to update user")
	}
	if !active {
		if err := s.repo.RevokeUserRefreshTokens(ctx, id); err != nil {
			s.logger.Warn("failed to revoke tokens for deactivated user", zap.String("user_id", id), zap.Error(err))
		}
	}
	previous := user.IsActive
	user.IsActive = active

	var actorID *string
	if actor != nil {
		actorID = &actor.UserID
	}
	emitAudit(ctx, s.repo, s.logger, &models.AuditLog{
		UserID:     actorID,
		Action:     models.AuditActionUserStatus,
		Resource:   "user",
		ResourceID: &id,
		OldValues:  []byte(fmt.Sprintf(`{"is_active":%t}`, previous)),
		NewValues:  []byte(fmt.Sprintf(`{"is_active":%t}`, active)),
	}, meta)
	s.cache.InvalidateKeys(ctx, dashboardAdminKey)

	info := user.Info()
	return &info, nil
}

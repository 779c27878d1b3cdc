package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/skillhub-api/internal/dto"
	"github.com/noah-isme/skillhub-api/internal/models"
	"github.com/noah-isme/skillhub-api/internal/repository"
	appErrors "github.com/noah-isme/skillhub-api/pkg/errors"
)

const categoriesCacheKey = "catalog:categories"

type categoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id string) (*models.Category, error)
	Create(ctx context.Context, item *models.Category) error
	Update(ctx context.Context, item *models.Category) error
	Delete(ctx context.Context, id string) error
}

// CategoryService manages catalog categories. The public list is served through the cache.
type CategoryService struct {
	repo      categoryRepository
	cache     *CacheService
	cacheTTL  time.Duration
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(repo categoryRepository, cache *CacheService, cacheTTL time.Duration, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CategoryService{repo: repo, cache: cache, cacheTTL: cacheTTL, audit: audit, validator: validate, logger: logger}
}

// List returns every category. The bool reports a cache hit.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, bool, error) {
	items, hit, err := Remember(ctx, s.cache, categoriesCacheKey, s.cacheTTL, func(ctx context.Context) ([]models.Category, error) {
		items, err := s.repo.List(ctx)
		if items == nil {
			items = []models.Category{}
		}
		return items, err
	})
	if err != nil {
		return nil, false, internal(err, "failed to list categories")
	}
	return items, hit, nil
}

// Create adds a category.
func (s *CategoryService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CategoryRequest, meta RequestMeta) (*models.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid category payload")
	}
	item := &models.Category{Name: strings.TrimSpace(req.Name), Description: req.Description}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, mapCategoryWriteError(err, "failed to create category")
	}
	s.afterWrite(ctx, actor, item.ID, meta)
	return item, nil
}

// Update renames a category.
func (s *CategoryService) Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.CategoryRequest, meta RequestMeta) (*models.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid category payload")
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "category not found", "failed to load category")
	}
	item.Name = strings.TrimSpace(req.Name)
	item.Description = req.Description
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, mapCategoryWriteError(err, "failed to update category")
	}
	s.afterWrite(ctx, actor, item.ID, meta)
	return item, nil
}

// Delete removes a category.
func (s *CategoryService) Delete(ctx context.Context, actor *models.JWTClaims, id string, meta RequestMeta) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, "category not found", "failed to delete category")
	}
	s.afterWrite(ctx, actor, id, meta)
	return nil
}

func (s *CategoryService) afterWrite(ctx context.Context, actor *models.JWTClaims, id string, meta RequestMeta) {
	s.cache.InvalidateKeys(ctx, categoriesCacheKey)
	var actorID *string
	if actor != nil {
		actorID = &actor.UserID
	}
	emitAudit(ctx, s.audit, s.logger, &models.AuditLog{
		UserID:     actorID,
		Action:     models.AuditActionCategoryWrite,
		Resource:   "category",
		ResourceID: &id,
	}, meta)
}

func mapCategoryWriteError(err error, message string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return appErrors.Clone(appErrors.ErrConflict, "category name already exists")
	}
	return notFoundOr(err, "category not found", message)
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/skillhub-api/internal/dto"
	"github.com/noah-isme/skillhub-api/internal/models"
	appErrors "github.com/noah-isme/skillhub-api/pkg/errors"
	"github.com/noah-isme/skillhub-api/pkg/storage"
)

// ThumbnailExtensions are the accepted course thumbnail formats.
var ThumbnailExtensions = []string{"jpg", "jpeg", "png", "webp"}

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, item *models.Course) error
	Update(ctx context.Context, item *models.Course) error
	SetThumbnail(ctx context.Context, id, url string) error
	TransitionStatus(ctx context.Context, id string, from, to models.CourseStatus, comment string) error
	Delete(ctx context.Context, id string) error
}

type categoryChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type fileStorage interface {
	SaveStream(rel string, r io.Reader) (string, error)
	Delete(rel string) error
}

type courseNotifier interface {
	CourseReviewed(ctx context.Context, course models.Course)
}

// Upload is a file received from a multipart form.
type Upload struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// CourseServiceConfig carries upload limits and the public media prefix.
type CourseServiceConfig struct {
	MaxFileSize int64
	MediaURL    string
}

// CourseService implements the course authoring and review workflow.
type CourseService struct {
	repo       courseRepository
	categories categoryChecker
	storage    fileStorage
	notifier   courseNotifier
	cache      *CacheService
	audit      auditLogger
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        CourseServiceConfig
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo courseRepository, categories categoryChecker, store fileStorage, notifier courseNotifier, cache *CacheService, audit auditLogger, validate *validator.Validate, logger *zap.Logger, cfg CourseServiceConfig) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024
	}
	if cfg.MediaURL == "" {
		cfg.MediaURL = "/media"
	}
	return &CourseService{repo: repo, categories: categories, storage: store, notifier: notifier, cache: cache, audit: audit, validator: validate, logger: logger, cfg: cfg}
}

// Catalog lists approved courses for the public catalog.
func (s *CourseService) Catalog(ctx context.Context, q dto.CatalogQuery) ([]models.CourseView, *models.Pagination, error) {
	filter := models.CourseFilter{
		Statuses:    []models.CourseStatus{models.CourseStatusApproved},
		CategoryIDs: q.Categories,
		IsFree:      q.IsFree,
		Search:      q.Search,
		Ordering:    q.Ordering,
		Page:        q.Page,
		PageSize:    q.PageSize,
	}
	return s.list(ctx, filter)
}

// ListInstructorCourses lists the instructor's own courses, optionally by status.
func (s *CourseService) ListInstructorCourses(ctx context.Context, actor *models.JWTClaims, status models.CourseStatus, page, pageSize int) ([]models.CourseView, *models.Pagination, error) {
	filter := models.CourseFilter{InstructorID: actor.UserID, Ordering: "-created_at", Page: page, PageSize: pageSize}
	if status != "" {
		if !status.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown course status")
		}
		filter.Statuses = []models.CourseStatus{status}
	}
	return s.list(ctx, filter)
}

// ListPending lists courses awaiting review, oldest first.
func (s *CourseService) ListPending(ctx context.Context, page, pageSize int) ([]models.CourseView, *models.Pagination, error) {
	return s.list(ctx, models.CourseFilter{Statuses: []models.CourseStatus{models.CourseStatusPending}, Ordering: "created_at", Page: page, PageSize: pageSize})
}

func (s *CourseService) list(ctx context.Context, filter models.CourseFilter) ([]models.CourseView, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internal(err, "failed to list courses")
	}
	views := make([]models.CourseView, 0, len(items))
	for _, c := range items {
		views = append(views, c.View())
	}
	return views, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a course the viewer may see.
func (s *CourseService) Get(ctx context.Context, viewer *models.JWTClaims, id string) (*models.CourseView, error) {
	course, err := loadVisibleCourse(ctx, s.repo, id, viewer)
	if err != nil {
		return nil, err
	}
	view := course.View()
	return &view, nil
}

// Create starts a new draft course owned by the caller.
func (s *CourseService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CourseRequest) (*models.CourseView, error) {
	if err := s.validateCourse(ctx, req); err != nil {
		return nil, err
	}
	course := &models.Course{
		InstructorID: actor.UserID,
		Status:       models.CourseStatusDraft,
	}
	applyCourseRequest(course, req)
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, internal(err, "failed to create course")
	}
	s.cache.InvalidateKeys(ctx, dashboardAdminKey, dashboardInstructorKey(actor.UserID))
	return s.reload(ctx, course.ID)
}

// Update edits a draft course.
func (s *CourseService) Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.CourseRequest) (*models.CourseView, error) {
	course, err := loadDraftCourse(ctx, s.repo, id, actor)
	if err != nil {
		return nil, err
	}
	if err := s.validateCourse(ctx, req); err != nil {
		return nil, err
	}
	applyCourseRequest(course, req)
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, notFoundOr(err, "course not found", "failed to update course")
	}
	return s.reload(ctx, course.ID)
}

// Delete removes a draft course.
func (s *CourseService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	course, err := loadDraftCourse(ctx, s.repo, id, actor)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, course.ID); err != nil {
		return notFoundOr(err, "course not found", "failed to delete course")
	}
	s.cache.InvalidateKeys(ctx, dashboardAdminKey, dashboardInstructorKey(actor.UserID))
	return nil
}

// UploadThumbnail stores a thumbnail image for a draft course.
func (s *CourseService) UploadThumbnail(ctx context.Context, actor *models.JWTClaims, id string, file Upload) (*models.CourseView, error) {
	course, err := loadDraftCourse(ctx, s.repo, id, actor)
	if err != nil {
		return nil, err
	}
	rel, err := s.saveUpload(file, "thumbnails", course.ID, ThumbnailExtensions, s.cfg.MaxFileSize)
	if err != nil {
		return nil, err
	}
	url := s.cfg.MediaURL + "/" + rel
	if err := s.repo.SetThumbnail(ctx, course.ID, url); err != nil {
		_ = s.storage.Delete(rel)
		return nil, notFoundOr(err, "course not found", "failed to store thumbnail")
	}
	if old := strings.TrimPrefix(course.ThumbnailURL, s.cfg.MediaURL+"/"); old != "" && old != course.ThumbnailURL {
		if err := s.storage.Delete(old); err != nil {
			s.logger.Warn("failed to remove previous thumbnail", zap.String("path", old), zap.Error(err))
		}
	}
	return s.reload(ctx, course.ID)
}

// SubmitForReview moves a complete draft to PENDING.
func (s *CourseService) SubmitForReview(ctx context.Context, actor *models.JWTClaims, id string, meta RequestMeta) (*models.CourseView, error) {
	course, err := loadDraftCourse(ctx, s.repo, id, actor)
	if err != nil {
		return nil, err
	}
	missing := map[string]string{}
	if strings.TrimSpace(course.Title) == "" {
		missing["title"] = "title is required"
	}
	if strings.TrimSpace(course.Description) == "" {
		missing["description"] = "description is required"
	}
	if course.CategoryID == nil {
		missing["category"] = "category is required"
	}
	if course.ThumbnailURL == "" {
		missing["thumbnail"] = "thumbnail is required"
	}
	if len(missing) > 0 {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "course is incomplete"), missing)
	}
	if err := s.repo.TransitionStatus(ctx, course.ID, models.CourseStatusDraft, models.CourseStatusPending, ""); err != nil {
		return nil, notFoundOr(err, "course not found", "failed to submit course")
	}
	emitAudit(ctx, s.audit, s.logger, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionCourseSubmit,
		Resource:   "course",
		ResourceID: &course.ID,
	}, meta)
	s.cache.InvalidateKeys(ctx, dashboardAdminKey, dashboardInstructorKey(actor.UserID))
	return s.reload(ctx, course.ID)
}

// Review approves or rejects a pending course and notifies the instructor.
func (s *CourseService) Review(ctx context.Context, actor *models.JWTClaims, id string, req dto.ReviewCourseRequest, meta RequestMeta) (*models.CourseView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid review payload")
	}
	comment := strings.TrimSpace(req.AdminComment)
	if req.Status == models.CourseStatusRejected && comment == "" {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "admin_comment is required when rejecting"), map[string]string{"admin_comment": "required"})
	}
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "course not found", "failed to load course")
	}
	if course.Status != models.CourseStatusPending {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only pending courses can be reviewed")
	}
	if err := s.repo.TransitionStatus(ctx, course.ID, models.CourseStatusPending, req.Status, comment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "only pending courses can be reviewed")
		}
		return nil, internal(err, "failed to review course")
	}
	emitAudit(ctx, s.audit, s.logger, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionCourseReview,
		Resource:   "course",
		ResourceID: &course.ID,
		OldValues:  []byte(fmt.Sprintf(`{"status":%q}`, course.Status)),
		NewValues:  []byte(fmt.Sprintf(`{"status":%q}`, req.Status)),
	}, meta)
	s.cache.InvalidateKeys(ctx, dashboardAdminKey, dashboardInstructorKey(course.InstructorID), categoriesCacheKey)

	updated, err := s.repo.FindByID(ctx, course.ID)
	if err != nil {
		return nil, notFoundOr(err, "course not found", "failed to load course")
	}
	if s.notifier != nil {
		s.notifier.CourseReviewed(ctx, *updated)
	}
	view := updated.View()
	return &view, nil
}

func (s *CourseService) validateCourse(ctx context.Context, req dto.CourseRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return invalid(err, "invalid course payload")
	}
	if int64(*req.Price) < 0 {
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "price must not be negative"), map[string]string{"price": "must be >= 0"})
	}
	if req.CategoryID != nil {
		ok, err := s.categories.Exists(ctx, *req.CategoryID)
		if err != nil {
			return internal(err, "failed to check category")
		}
		if !ok {
			return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "unknown category"), map[string]string{"category": "not found"})
		}
	}
	return nil
}

func (s *CourseService) reload(ctx context.Context, id string) (*models.CourseView, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "course not found", "failed to load course")
	}
	view := course.View()
	return &view, nil
}

func (s *CourseService) saveUpload(file Upload, folder, owner string, allowed []string, maxSize int64) (string, error) {
	return saveUpload(s.storage, file, folder, owner, allowed, maxSize)
}

func applyCourseRequest(course *models.Course, req dto.CourseRequest) {
	course.Title = strings.TrimSpace(req.Title)
	course.Description = req.Description
	course.Syllabus = req.Syllabus
	course.CategoryID = req.CategoryID
	course.Price = *req.Price
}

// saveUpload validates size and extension and streams the file into storage.
func saveUpload(store fileStorage, file Upload, folder, owner string, allowed []string, maxSize int64) (string, error) {
	if file.Reader == nil || file.Name == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if !storage.AllowedExtension(file.Name, allowed) {
		return "", appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "unsupported file type"),
			map[string]string{"file": "allowed: " + strings.Join(allowed, ", ")},
		)
	}
	if maxSize > 0 && file.Size > maxSize {
		return "", appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "file too large"),
			map[string]string{"file": fmt.Sprintf("maximum %d bytes", maxSize)},
		)
	}
	rel := storage.ObjectName(folder, owner, path.Base(file.Name))
	reader := file.Reader
	if maxSize > 0 {
		reader = io.LimitReader(file.Reader, maxSize+1)
	}
	saved, err := store.SaveStream(rel, reader)
	if err != nil {
		return "", internal(err, "failed to store file")
	}
	return saved, nil
}

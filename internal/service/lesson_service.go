package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/skillhub-api/internal/dto"
	"github.com/noah-isme/skillhub-api/internal/models"
	"github.com/noah-isme/skillhub-api/internal/repository"
	appErrors "github.com/noah-isme/skillhub-api/pkg/errors"
	"github.com/noah-isme/skillhub-api/pkg/oembed"
)

// VideoExtensions are the accepted lesson video upload formats.
var VideoExtensions = []string{"mp4", "mov", "avi", "mkv"}

type lessonRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Lesson, error)
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	Create(ctx context.Context, item *models.Lesson) error
	Update(ctx context.Context, item *models.Lesson) error
	Delete(ctx context.Context, id string) error
	ListVideos(ctx context.Context, lessonID string) ([]models.Video, error)
	FindVideo(ctx context.Context, id string) (*models.Video, error)
	CreateVideo(ctx context.Context, item *models.Video) error
	DeleteVideo(ctx context.Context, id string) error
}

type videoMetadataLookup interface {
	Supports(provider string) bool
	Lookup(ctx context.Context, provider, videoURL string) (*oembed.Result, error)
}

// LessonServiceConfig carries upload limits for lesson media.
type LessonServiceConfig struct {
	MaxVideoSize int64
	MediaURL     string
}

// LessonService manages lessons and their attached videos.
type LessonService struct {
	lessons   lessonRepository
	courses   courseReader
	storage   fileStorage
	oembed    videoMetadataLookup
	validator *validator.Validate
	logger    *zap.Logger
	cfg       LessonServiceConfig
}

// NewLessonService constructs a LessonService. A nil oembed lookup disables thumbnail discovery.
func NewLessonService(lessons lessonRepository, courses courseReader, store fileStorage, lookup videoMetadataLookup, validate *validator.Validate, logger *zap.Logger, cfg LessonServiceConfig) *LessonService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.MaxVideoSize <= 0 {
		cfg.MaxVideoSize = 500 * 1024 * 1024
	}
	if cfg.MediaURL == "" {
		cfg.MediaURL = "/media"
	}
	return &LessonService{lessons: lessons, courses: courses, storage: store, oembed: lookup, validator: validate, logger: logger, cfg: cfg}
}

// ListByCourse returns the ordered lessons of a course visible to the viewer.
func (s *LessonService) ListByCourse(ctx context.Context, viewer *models.JWTClaims, courseID string) ([]models.Lesson, error) {
	if _, err := loadVisibleCourse(ctx, s.courses, courseID, viewer); err != nil {
		return nil, err
	}
	items, err := s.lessons.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, internal(err, "failed to list lessons")
	}
	if items == nil {
		items = []models.Lesson{}
	}
	return items, nil
}

// Get returns a lesson when its course is visible to the viewer.
func (s *LessonService) Get(ctx context.Context, viewer *models.JWTClaims, id string) (*models.Lesson, error) {
	lesson, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "lesson not found", "failed to load lesson")
	}
	if _, err := loadVisibleCourse(ctx, s.courses, lesson.CourseID, viewer); err != nil {
		if appErrors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, err
	}
	return lesson, nil
}

// Create adds a lesson to a draft course.
func (s *LessonService) Create(ctx context.Context, actor *models.JWTClaims, courseID string, req dto.LessonRequest) (*models.Lesson, error) {
	course, err := loadDraftCourse(ctx, s.courses, courseID, actor)
	if err != nil {
		return nil, err
	}
	lesson := &models.Lesson{CourseID: course.ID}
	if err := s.apply(lesson, req); err != nil {
		return nil, err
	}
	if err := s.lessons.Create(ctx, lesson); err != nil {
		return nil, mapLessonWriteError(err, "failed to create lesson")
	}
	return lesson, nil
}

// Update edits a lesson of a draft course.
func (s *LessonService) Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.LessonRequest) (*models.Lesson, error) {
	lesson, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(lesson, req); err != nil {
		return nil, err
	}
	if err := s.lessons.Update(ctx, lesson); err != nil {
		return nil, mapLessonWriteError(err, "failed to update lesson")
	}
	return lesson, nil
}

// Delete removes a lesson of a draft course.
func (s *LessonService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	lesson, err := s.editable(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.lessons.Delete(ctx, lesson.ID); err != nil {
		return notFoundOr(err, "lesson not found", "failed to delete lesson")
	}
	return nil
}

// UploadVideo stores a video file and points the lesson at it.
func (s *LessonService) UploadVideo(ctx context.Context, actor *models.JWTClaims, id string, file Upload) (*models.Lesson, error) {
	lesson, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	rel, err := saveUpload(s.storage, file, "videos", lesson.ID, VideoExtensions, s.cfg.MaxVideoSize)
	if err != nil {
		return nil, err
	}
	lesson.MediaType = models.MediaTypeVideo
	lesson.VideoURL = s.cfg.MediaURL + "/" + rel
	if err := s.lessons.Update(ctx, lesson); err != nil {
		_ = s.storage.Delete(rel)
		return nil, mapLessonWriteError(err, "failed to update lesson")
	}
	return lesson, nil
}

// ListVideos returns the videos of a visible lesson.
func (s *LessonService) ListVideos(ctx context.Context, viewer *models.JWTClaims, lessonID string) ([]models.Video, error) {
	lesson, err := s.Get(ctx, viewer, lessonID)
	if err != nil {
		return nil, err
	}
	items, err := s.lessons.ListVideos(ctx, lesson.ID)
	if err != nil {
		return nil, internal(err, "failed to list videos")
	}
	if items == nil {
		items = []models.Video{}
	}
	return items, nil
}

// AddVideo attaches a hosted or uploaded video to an owned lesson.
func (s *LessonService) AddVideo(ctx context.Context, actor *models.JWTClaims, lessonID string, req dto.VideoRequest) (*models.Video, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid video payload")
	}
	lesson, err := s.owned(ctx, actor, lessonID)
	if err != nil {
		return nil, err
	}
	provider, ok := req.VideoType.Provider()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown video type")
	}
	video := &models.Video{
		LessonID:        lesson.ID,
		VideoURL:        strings.TrimSpace(req.VideoURL),
		VideoType:       req.VideoType,
		Duration:        req.Duration,
		ThumbnailURL:    strings.TrimSpace(req.ThumbnailURL),
		StorageProvider: provider,
	}
	if video.ThumbnailURL == "" {
		s.fillThumbnail(ctx, video)
	}
	if err := s.lessons.CreateVideo(ctx, video); err != nil {
		return nil, internal(err, "failed to create video")
	}
	return video, nil
}

// DeleteVideo removes a video from an owned lesson.
func (s *LessonService) DeleteVideo(ctx context.Context, actor *models.JWTClaims, id string) error {
	video, err := s.lessons.FindVideo(ctx, id)
	if err != nil {
		return notFoundOr(err, "video not found", "failed to load video")
	}
	if _, err := s.owned(ctx, actor, video.LessonID); err != nil {
		return err
	}
	if err := s.lessons.DeleteVideo(ctx, video.ID); err != nil {
		return notFoundOr(err, "video not found", "failed to delete video")
	}
	return nil
}

func (s *LessonService) fillThumbnail(ctx context.Context, video *models.Video) {
	if s.oembed == nil || !s.oembed.Supports(string(video.VideoType)) {
		return
	}
	meta, err := s.oembed.Lookup(ctx, string(video.VideoType), video.VideoURL)
	if err != nil {
		s.logger.Debug("oembed lookup failed", zap.String("url", video.VideoURL), zap.Error(err))
		return
	}
	video.ThumbnailURL = meta.ThumbnailURL
	if video.Duration == 0 {
		video.Duration = meta.Duration
	}
}

// owned loads a lesson whose course belongs to the actor.
func (s *LessonService) owned(ctx context.Context, actor *models.JWTClaims, id string) (*models.Lesson, error) {
	lesson, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "lesson not found", "failed to load lesson")
	}
	if _, err := loadOwnedCourse(ctx, s.courses, lesson.CourseID, actor); err != nil {
		return nil, err
	}
	return lesson, nil
}

// editable loads an owned lesson whose course is still a draft.
func (s *LessonService) editable(ctx context.Context, actor *models.JWTClaims, id string) (*models.Lesson, error) {
	lesson, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "lesson not found", "failed to load lesson")
	}
	if _, err := loadDraftCourse(ctx, s.courses, lesson.CourseID, actor); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *LessonService) apply(lesson *models.Lesson, req dto.LessonRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return invalid(err, "invalid lesson payload")
	}
	switch {
	case req.MediaType == models.MediaTypeVideo && strings.TrimSpace(req.VideoURL) == "":
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "video lessons require video_url"), map[string]string{"video_url": "required"})
	case req.MediaType == models.MediaTypeExternal && strings.TrimSpace(req.ExternalLink) == "":
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "external lessons require external_link"), map[string]string{"external_link": "required"})
	}
	lesson.Title = strings.TrimSpace(req.Title)
	lesson.Description = req.Description
	lesson.Order = *req.Order
	lesson.Duration = req.Duration
	lesson.MediaType = req.MediaType
	if lesson.MediaType == "" {
		lesson.MediaType = models.MediaTypeVideo
	}
	lesson.VideoURL = strings.TrimSpace(req.VideoURL)
	lesson.ExternalLink = strings.TrimSpace(req.ExternalLink)
	return nil
}

func mapLessonWriteError(err error, failure string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrConflict, "a lesson with this order already exists"), map[string]string{"order": "must be unique within the course"})
	}
	return notFoundOr(err, "lesson not found", failure)
}

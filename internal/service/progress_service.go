package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/skillhub-api/internal/dto"
	"github.com/noah-isme/skillhub-api/internal/models"
	appErrors "github.com/noah-isme/skillhub-api/pkg/errors"
)

type enrollmentStore interface {
	FindByStudentAndCourse(ctx context.Context, exec sqlx.ExtContext, studentID, courseID string) (*models.Enrollment, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Enrollment, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	FindDetailByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.EnrollmentDetail, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	ListRoster(ctx context.Context, courseID string) ([]models.RosterEntry, error)
	Create(ctx context.Context, exec sqlx.ExtContext, item *models.Enrollment) error
	UpdateProgress(ctx context.Context, exec sqlx.ExtContext, id string, progress float64, completed bool) error
	Touch(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type progressStore interface {
	Counts(ctx context.Context, exec sqlx.ExtContext, enrollmentID, courseID string) (models.ProgressCounts, error)
	FindLessonProgress(ctx context.Context, exec sqlx.ExtContext, enrollmentID, lessonID string) (*models.Progress, error)
	Create(ctx context.Context, exec sqlx.ExtContext, item *models.Progress) error
	MarkCompleted(ctx context.Context, exec sqlx.ExtContext, id string, at time.Time) error
	CountQuizAttempts(ctx context.Context, exec sqlx.ExtContext, enrollmentID, quizID string) (int, error)
	AttemptedQuizIDs(ctx context.Context, enrollmentID, courseID string) (map[string]bool, error)
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Progress, error)
	UpsertActivity(ctx context.Context, item *models.LessonActivity) error
	ListActivity(ctx context.Context, enrollmentID string) ([]models.LessonActivity, error)
}

type lessonFinder interface {
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
}

// ProgressService records lesson completion and keeps enrollment progress in sync.
type ProgressService struct {
	db          txProvider
	enrollments enrollmentStore
	progress    progressStore
	lessons     lessonFinder
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewProgressService constructs a ProgressService.
func NewProgressService(db txProvider, enrollments enrollmentStore, progress progressStore, lessons lessonFinder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ProgressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProgressService{db: db, enrollments: enrollments, progress: progress, lessons: lessons, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// ComputeProgress applies the progress formula. ok is false when the course has nothing to complete.
func ComputeProgress(c models.ProgressCounts) (progress float64, completed bool, ok bool) {
	total := c.TotalLessons + c.TotalQuizzes
	if total == 0 {
		return 0, false, false
	}
	done := c.CompletedLessons + c.PassedQuizzes
	progress = round2(100 * float64(done) / float64(total))
	if progress > 100 {
		progress = 100
	}
	return progress, progress >= 100, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// recompute refreshes the enrollment aggregate within exec.
func (s *ProgressService) recompute(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error {
	counts, err := s.progress.Counts(ctx, exec, enrollment.ID, enrollment.CourseID)
	if err != nil {
		return internal(err, "failed to count progress")
	}
	progress, completed, ok := ComputeProgress(counts)
	if !ok {
		return nil
	}
	if err := s.enrollments.UpdateProgress(ctx, exec, enrollment.ID, progress, completed); err != nil {
		return internal(err, "failed to update enrollment progress")
	}
	enrollment.Progress = progress
	enrollment.Completed = completed
	return nil
}

// requireEnrollment returns the caller's enrollment in a course or ErrNotEnrolled.
func (s *ProgressService) requireEnrollment(ctx context.Context, actor *models.JWTClaims, courseID string) (*models.Enrollment, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	enrollment, err := s.enrollments.FindByStudentAndCourse(ctx, nil, actor.UserID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotEnrolled, "you are not enrolled in this course")
		}
		return nil, internal(err, "failed to load enrollment")
	}
	return enrollment, nil
}

// CompleteLesson marks a lesson complete for the caller and recomputes progress.
func (s *ProgressService) CompleteLesson(ctx context.Context, actor *models.JWTClaims, lessonID string) (*models.LessonCompletion, error) {
	lesson, err := s.lessons.FindByID(ctx, lessonID)
	if err != nil {
		return nil, notFoundOr(err, "lesson not found", "failed to load lesson")
	}
	enrollment, err := s.requireEnrollment(ctx, actor, lesson.CourseID)
	if err != nil {
		return nil, err
	}
	return s.completeLesson(ctx, enrollment, lesson.ID)
}

func (s *ProgressService) completeLesson(ctx context.Context, enrollment *models.Enrollment, lessonID string) (*models.LessonCompletion, error) {
	var record *models.Progress
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		locked, err := s.enrollments.LockByID(ctx, tx, enrollment.ID)
		if err != nil {
			return notFoundOr(err, "enrollment not found", "failed to lock enrollment")
		}
		now := s.now().UTC()
		record, err = s.progress.FindLessonProgress(ctx, tx, locked.ID, lessonID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			record = &models.Progress{
				EnrollmentID:   locked.ID,
				LessonID:       strPtr(lessonID),
				Completed:      true,
				CompletionDate: &now,
			}
			if err := s.progress.Create(ctx, tx, record); err != nil {
				return internal(err, "failed to record progress")
			}
		case err != nil:
			return internal(err, "failed to load progress")
		default:
			if err := s.progress.MarkCompleted(ctx, tx, record.ID, now); err != nil {
				return internal(err, "failed to record progress")
			}
			record.Completed = true
			if record.CompletionDate == nil {
				record.CompletionDate = &now
			}
		}
		if err := s.recompute(ctx, tx, locked); err != nil {
			return err
		}
		*enrollment = *locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateKeys(ctx, dashboardStudentKey(enrollment.StudentID))
	return &models.LessonCompletion{
		Progress:           *record,
		EnrollmentProgress: enrollment.Progress,
		CourseCompleted:    enrollment.Completed,
	}, nil
}

// CourseProgress returns the caller's progress records for a course.
func (s *ProgressService) CourseProgress(ctx context.Context, actor *models.JWTClaims, courseID string) (*models.CourseProgress, error) {
	enrollment, err := s.requireEnrollment(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}
	records, err := s.progress.ListByEnrollment(ctx, enrollment.ID)
	if err != nil {
		return nil, internal(err, "failed to list progress")
	}
	if records == nil {
		records = []models.Progress{}
	}
	if err := s.enrollments.Touch(ctx, nil, enrollment.ID); err != nil {
		s.logger.Debug("failed to touch enrollment", zap.String("enrollment_id", enrollment.ID), zap.Error(err))
	}
	return &models.CourseProgress{
		EnrollmentID:       enrollment.ID,
		ProgressPercentage: enrollment.Progress,
		Completed:          enrollment.Completed,
		Records:            records,
	}, nil
}

// RecordActivity stores viewing telemetry and completes the lesson when asked to.
func (s *ProgressService) RecordActivity(ctx context.Context, actor *models.JWTClaims, enrollmentID, lessonID string, req dto.LessonActivityRequest) (*models.LessonActivity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid activity payload")
	}
	detail, err := s.ownEnrollment(ctx, actor, enrollmentID)
	if err != nil {
		return nil, err
	}
	lesson, err := s.lessons.FindByID(ctx, lessonID)
	if err != nil {
		return nil, notFoundOr(err, "lesson not found", "failed to load lesson")
	}
	if lesson.CourseID != detail.CourseID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found in this course")
	}
	activity := &models.LessonActivity{
		EnrollmentID: detail.ID,
		LessonID:     lesson.ID,
		TimeSpent:    req.TimeSpent,
		LastPosition: req.LastPosition,
		Completed:    req.Completed,
	}
	if err := s.progress.UpsertActivity(ctx, activity); err != nil {
		return nil, internal(err, "failed to record activity")
	}
	if req.Completed {
		enrollment := detail.Enrollment
		if _, err := s.completeLesson(ctx, &enrollment, lesson.ID); err != nil {
			return nil, err
		}
	} else {
		s.cache.InvalidateKeys(ctx, dashboardStudentKey(detail.StudentID))
	}
	return activity, nil
}

// ListActivity returns the telemetry rows of the caller's enrollment.
func (s *ProgressService) ListActivity(ctx context.Context, actor *models.JWTClaims, enrollmentID string) ([]models.LessonActivity, error) {
	detail, err := s.ownEnrollment(ctx, actor, enrollmentID)
	if err != nil {
		return nil, err
	}
	items, err := s.progress.ListActivity(ctx, detail.ID)
	if err != nil {
		return nil, internal(err, "failed to list activity")
	}
	if items == nil {
		items = []models.LessonActivity{}
	}
	return items, nil
}

func (s *ProgressService) ownEnrollment(ctx context.Context, actor *models.JWTClaims, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.enrollments.FindDetailByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "enrollment not found", "failed to load enrollment")
	}
	if actor == nil || detail.StudentID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "this enrollment belongs to another student")
	}
	return detail, nil
}

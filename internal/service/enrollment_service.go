package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/skillhub-api/internal/models"
	"github.com/noah-isme/skillhub-api/internal/repository"
	appErrors "github.com/noah-isme/skillhub-api/pkg/errors"
)

// EnrollmentService handles free enrollment, enrollment lookups and instructor rosters.
type EnrollmentService struct {
	repo    enrollmentStore
	courses courseReader
	exports *ExportService
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentStore, courses courseReader, exports *ExportService, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, courses: courses, exports: exports, cache: cache, metrics: metrics, logger: logger}
}

// Enroll enrolls the caller in an approved free course.
func (s *EnrollmentService) Enroll(ctx context.Context, actor *models.JWTClaims, courseID string) (*models.EnrollmentDetail, error) {
	course, err := loadPurchasableCourse(ctx, s.courses, courseID)
	if err != nil {
		return nil, err
	}
	if !course.IsFree() {
		return nil, appErrors.Clone(appErrors.ErrPaymentRequired, "")
	}
	item := &models.Enrollment{StudentID: actor.UserID, CourseID: course.ID}
	if err := s.repo.Create(ctx, nil, item); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
		}
		return nil, internal(err, "failed to enroll")
	}
	s.metrics.IncEnrollment(EnrollmentSourceFree)
	invalidateEnrollmentDashboards(ctx, s.cache, actor.UserID, course.InstructorID)

	detail, err := s.repo.FindDetailByID(ctx, item.ID)
	if err != nil {
		return nil, notFoundOr(err, "enrollment not found", "failed to load enrollment")
	}
	return detail, nil
}

// ListMine returns the caller's enrollments with course summaries.
func (s *EnrollmentService) ListMine(ctx context.Context, actor *models.JWTClaims) ([]models.EnrollmentDetail, error) {
	items, err := s.repo.ListByStudent(ctx, actor.UserID)
	if err != nil {
		return nil, internal(err, "failed to list enrollments")
	}
	if items == nil {
		items = []models.EnrollmentDetail{}
	}
	return items, nil
}

// Get returns one of the caller's enrollments.
func (s *EnrollmentService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "enrollment not found", "failed to load enrollment")
	}
	if detail.StudentID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "this enrollment belongs to another student")
	}
	return detail, nil
}

// Check reports whether the caller is enrolled in a course.
func (s *EnrollmentService) Check(ctx context.Context, actor *models.JWTClaims, courseID string) (*models.EnrollmentCheck, error) {
	detail, err := s.repo.FindDetailByStudentAndCourse(ctx, actor.UserID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.EnrollmentCheck{IsEnrolled: false}, nil
		}
		return nil, internal(err, "failed to check enrollment")
	}
	return &models.EnrollmentCheck{IsEnrolled: true, Enrollment: detail}, nil
}

// Roster lists the students of a course for its owner or an admin.
func (s *EnrollmentService) Roster(ctx context.Context, actor *models.JWTClaims, courseID string) ([]models.RosterEntry, error) {
	course, err := loadManagedCourse(ctx, s.courses, courseID, actor)
	if err != nil {
		return nil, err
	}
	return s.roster(ctx, course.ID)
}

// ExportRoster renders the roster as csv or pdf and returns a signed download.
func (s *EnrollmentService) ExportRoster(ctx context.Context, actor *models.JWTClaims, courseID, format string) (*models.RosterExport, error) {
	course, err := loadManagedCourse(ctx, s.courses, courseID, actor)
	if err != nil {
		return nil, err
	}
	entries, err := s.roster(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	res, err := s.exports.Roster(course, entries, format)
	if err != nil {
		return nil, err
	}
	s.logger.Info("roster exported", zap.String("course_id", course.ID), zap.String("format", res.Format), zap.Int("rows", res.Rows))
	return res, nil
}

func (s *EnrollmentService) roster(ctx context.Context, courseID string) ([]models.RosterEntry, error) {
	items, err := s.repo.ListRoster(ctx, courseID)
	if err != nil {
		return nil, internal(err, "failed to list enrollments")
	}
	if items == nil {
		items = []models.RosterEntry{}
	}
	return items, nil
}

// loadPurchasableCourse returns an approved course. Anything else is reported as missing.
func loadPurchasableCourse(ctx context.Context, courses courseReader, id string) (*models.Course, error) {
	course, err := courses.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "course not found", "failed to load course")
	}
	if course.Status != models.CourseStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return course, nil
}

func invalidateEnrollmentDashboards(ctx context.Context, cache *CacheService, studentID, instructorID string) {
	cache.InvalidateKeys(ctx, dashboardAdminKey, dashboardInstructorKey(instructorID), dashboardStudentKey(studentID))
}

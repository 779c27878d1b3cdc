package service

import (
	"context"
	"database/sql"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/skillhub-api/internal/dto"
	"github.com/noah-isme/skillhub-api/internal/models"
	appErrors "github.com/noah-isme/skillhub-api/pkg/errors"
)

// SubmissionExtensions are the accepted assignment file formats.
var SubmissionExtensions = []string{"pdf", "doc", "docx", "txt", "zip"}

const defaultMaxScore = 100

type assignmentRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Assignment, error)
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	SubmittedAssignmentIDs(ctx context.Context, courseID, studentID string) (map[string]bool, error)
	Create(ctx context.Context, item *models.Assignment) error
	Update(ctx context.Context, item *models.Assignment) error
	Delete(ctx context.Context, id string) error
	FindSubmission(ctx context.Context, assignmentID, studentID string) (*models.Submission, error)
	FindSubmissionByID(ctx context.Context, id string) (*models.Submission, error)
	ListSubmissions(ctx context.Context, assignmentID string) ([]models.Submission, error)
	UpsertSubmission(ctx context.Context, item *models.Submission) (bool, error)
	GradeSubmission(ctx context.Context, id string, grade int, feedback string, gradedAt time.Time) error
}

type gradeNotifier interface {
	SubmissionGraded(ctx context.Context, sub models.Submission, maxScore int)
}

// AssignmentService manages assignments, student submissions and grading.
type AssignmentService struct {
	assignments assignmentRepository
	courses     courseReader
	enrollments enrollmentStore
	storage     fileStorage
	files       *FileService
	notifier    gradeNotifier
	audit       auditLogger
	validator   *validator.Validate
	logger      *zap.Logger
	maxFileSize int64
	now         func() time.Time
}

// AssignmentServiceParams groups constructor dependencies.
type AssignmentServiceParams struct {
	Assignments assignmentRepository
	Courses     courseReader
	Enrollments enrollmentStore
	Storage     fileStorage
	Files       *FileService
	Notifier    gradeNotifier
	Audit       auditLogger
	Validator   *validator.Validate
	Logger      *zap.Logger
	MaxFileSize int64
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(p AssignmentServiceParams) *AssignmentService {
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Validator == nil {
		p.Validator = validator.New()
	}
	if p.MaxFileSize <= 0 {
		p.MaxFileSize = 10 * 1024 * 1024
	}
	return &AssignmentService{
		assignments: p.Assignments,
		courses:     p.Courses,
		enrollments: p.Enrollments,
		storage:     p.Storage,
		files:       p.Files,
		notifier:    p.Notifier,
		audit:       p.Audit,
		validator:   p.Validator,
		logger:      p.Logger,
		maxFileSize: p.MaxFileSize,
		now:         time.Now,
	}
}

// ListByCourse returns a course's assignments to its owner, admins and enrolled students.
func (s *AssignmentService) ListByCourse(ctx context.Context, viewer *models.JWTClaims, courseID string) ([]models.Assignment, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, notFoundOr(err, "course not found", "failed to load course")
	}
	manager := isOwnerOrAdmin(course, viewer)
	if !manager {
		if err := s.requireEnrolled(ctx, viewer, course.ID); err != nil {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "you must be enrolled to view assignments")
		}
	}
	items, err := s.assignments.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, internal(err, "failed to list assignments")
	}
	if items == nil {
		items = []models.Assignment{}
	}
	if manager {
		return items, nil
	}
	submitted, err := s.assignments.SubmittedAssignmentIDs(ctx, course.ID, viewer.UserID)
	if err != nil {
		return nil, internal(err, "failed to load submissions")
	}
	for i := range items {
		done := submitted[items[i].ID]
		items[i].HasSubmitted = &done
	}
	return items, nil
}

// Get returns one assignment under the same access rules as ListByCourse.
func (s *AssignmentService) Get(ctx context.Context, viewer *models.JWTClaims, id string) (*models.Assignment, error) {
	item, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "assignment not found", "failed to load assignment")
	}
	course, err := s.courses.FindByID(ctx, item.CourseID)
	if err != nil {
		return nil, notFoundOr(err, "course not found", "failed to load course")
	}
	if isOwnerOrAdmin(course, viewer) {
		return item, nil
	}
	if err := s.requireEnrolled(ctx, viewer, course.ID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you must be enrolled to view this assignment")
	}
	_, err = s.assignments.FindSubmission(ctx, item.ID, viewer.UserID)
	switch {
	case err == nil:
		submitted := true
		item.HasSubmitted = &submitted
	case errors.Is(err, sql.ErrNoRows):
		submitted := false
		item.HasSubmitted = &submitted
	default:
		return nil, internal(err, "failed to load submission")
	}
	return item, nil
}

// Create adds an assignment to an owned course.
func (s *AssignmentService) Create(ctx context.Context, actor *models.JWTClaims, courseID string, req dto.AssignmentRequest) (*models.Assignment, error) {
	course, err := loadOwnedCourse(ctx, s.courses, courseID, actor)
	if err != nil {
		return nil, err
	}
	item := &models.Assignment{CourseID: course.ID}
	if err := s.apply(item, req); err != nil {
		return nil, err
	}
	if err := s.assignments.Create(ctx, item); err != nil {
		return nil, internal(err, "failed to create assignment")
	}
	return item, nil
}

// Update edits an owned assignment.
func (s *AssignmentService) Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.AssignmentRequest) (*models.Assignment, error) {
	item, _, err := s.owned(ctx, actor, id, loadOwnedCourse)
	if err != nil {
		return nil, err
	}
	if err := s.apply(item, req); err != nil {
		return nil, err
	}
	if err := s.assignments.Update(ctx, item); err != nil {
		return nil, notFoundOr(err, "assignment not found", "failed to update assignment")
	}
	return item, nil
}

// Delete removes an owned assignment.
func (s *AssignmentService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	item, _, err := s.owned(ctx, actor, id, loadOwnedCourse)
	if err != nil {
		return err
	}
	if err := s.assignments.Delete(ctx, item.ID); err != nil {
		return notFoundOr(err, "assignment not found", "failed to delete assignment")
	}
	return nil
}

// Submit stores the caller's file. It reports whether a new submission was created.
func (s *AssignmentService) Submit(ctx context.Context, actor *models.JWTClaims, id string, file Upload) (*models.Submission, bool, error) {
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		return nil, false, notFoundOr(err, "assignment not found", "failed to load assignment")
	}
	if err := s.requireEnrolled(ctx, actor, assignment.CourseID); err != nil {
		return nil, false, err
	}
	var previous string
	if existing, err := s.assignments.FindSubmission(ctx, assignment.ID, actor.UserID); err == nil {
		previous = existing.FilePath
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, internal(err, "failed to load submission")
	}

	rel, err := saveUpload(s.storage, file, "submissions", assignment.ID, SubmissionExtensions, s.maxFileSize)
	if err != nil {
		return nil, false, err
	}
	now := s.now().UTC()
	status := models.SubmissionPending
	if now.After(assignment.Deadline) {
		status = models.SubmissionLate
	}
	sub := &models.Submission{
		AssignmentID:   assignment.ID,
		StudentID:      actor.UserID,
		FilePath:       rel,
		SubmissionDate: now,
		Status:         status,
	}
	created, err := s.assignments.UpsertSubmission(ctx, sub)
	if err != nil {
		_ = s.storage.Delete(rel)
		return nil, false, internal(err, "failed to store submission")
	}
	if previous != "" && previous != rel {
		if err := s.storage.Delete(previous); err != nil {
			s.logger.Warn("failed to remove replaced submission", zap.String("path", previous), zap.Error(err))
		}
	}
	sub.FileName = storageName(rel)
	return sub, created, nil
}

// MySubmission returns the caller's submission if one exists.
func (s *AssignmentService) MySubmission(ctx context.Context, actor *models.JWTClaims, id string) (*dto.MySubmissionResponse, error) {
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "assignment not found", "failed to load assignment")
	}
	sub, err := s.assignments.FindSubmission(ctx, assignment.ID, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &dto.MySubmissionResponse{Submitted: false}, nil
		}
		return nil, internal(err, "failed to load submission")
	}
	sub.FileName = storageName(sub.FilePath)
	return &dto.MySubmissionResponse{Submitted: true, Submission: sub}, nil
}

// ListSubmissions returns every submission of an assignment to its owner or an admin.
func (s *AssignmentService) ListSubmissions(ctx context.Context, actor *models.JWTClaims, id string) ([]models.Submission, error) {
	assignment, _, err := s.owned(ctx, actor, id, loadManagedCourse)
	if err != nil {
		return nil, err
	}
	items, err := s.assignments.ListSubmissions(ctx, assignment.ID)
	if err != nil {
		return nil, internal(err, "failed to list submissions")
	}
	if items == nil {
		items = []models.Submission{}
	}
	for i := range items {
		items[i].FileName = storageName(items[i].FilePath)
	}
	return items, nil
}

// Grade records a grade within 0..max_score and notifies the student.
func (s *AssignmentService) Grade(ctx context.Context, actor *models.JWTClaims, submissionID string, req dto.GradeRequest, meta RequestMeta) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid grade payload")
	}
	sub, err := s.assignments.FindSubmissionByID(ctx, submissionID)
	if err != nil {
		return nil, notFoundOr(err, "submission not found", "failed to load submission")
	}
	assignment, _, err := s.owned(ctx, actor, sub.AssignmentID, loadManagedCourse)
	if err != nil {
		return nil, err
	}
	if *req.Grade > assignment.MaxScore {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "grade exceeds max_score"), map[string]string{"grade": "must be between 0 and max_score"})
	}
	now := s.now().UTC()
	if err := s.assignments.GradeSubmission(ctx, sub.ID, *req.Grade, req.Feedback, now); err != nil {
		return nil, notFoundOr(err, "submission not found", "failed to grade submission")
	}
	sub.Grade = req.Grade
	sub.Feedback = req.Feedback
	sub.Status = models.SubmissionGraded
	sub.GradedAt = &now
	sub.FileName = storageName(sub.FilePath)

	emitAudit(ctx, s.audit, s.logger, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionGrade,
		Resource:   "submission",
		ResourceID: &sub.ID,
	}, meta)
	if s.notifier != nil {
		s.notifier.SubmissionGraded(ctx, *sub, assignment.MaxScore)
	}
	return sub, nil
}

// DownloadURL signs the submission file for its student, the course owner or an admin.
func (s *AssignmentService) DownloadURL(ctx context.Context, actor *models.JWTClaims, submissionID string) (*dto.DownloadLink, error) {
	sub, err := s.assignments.FindSubmissionByID(ctx, submissionID)
	if err != nil {
		return nil, notFoundOr(err, "submission not found", "failed to load submission")
	}
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if sub.StudentID != actor.UserID {
		course, err := s.courses.FindByID(ctx, sub.CourseID)
		if err != nil {
			return nil, notFoundOr(err, "course not found", "failed to load course")
		}
		if !isOwnerOrAdmin(course, actor) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "you may not download this submission")
		}
	}
	return s.files.Link(ScopeUploads, sub.FilePath)
}

func (s *AssignmentService) requireEnrolled(ctx context.Context, viewer *models.JWTClaims, courseID string) error {
	if viewer == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if _, err := s.enrollments.FindByStudentAndCourse(ctx, nil, viewer.UserID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotEnrolled, "you are not enrolled in this course")
		}
		return internal(err, "failed to load enrollment")
	}
	return nil
}

type courseLoader func(ctx context.Context, courses courseReader, id string, viewer *models.JWTClaims) (*models.Course, error)

func (s *AssignmentService) owned(ctx context.Context, actor *models.JWTClaims, id string, load courseLoader) (*models.Assignment, *models.Course, error) {
	item, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		return nil, nil, notFoundOr(err, "assignment not found", "failed to load assignment")
	}
	course, err := load(ctx, s.courses, item.CourseID, actor)
	if err != nil {
		return nil, nil, err
	}
	return item, course, nil
}

func (s *AssignmentService) apply(item *models.Assignment, req dto.AssignmentRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return invalid(err, "invalid assignment payload")
	}
	item.Title = strings.TrimSpace(req.Title)
	item.Description = req.Description
	item.Instructions = req.Instructions
	item.Deadline = req.Deadline.UTC()
	item.MaxScore = req.MaxScore
	if item.MaxScore == 0 {
		item.MaxScore = defaultMaxScore
	}
	return nil
}

func storageName(rel string) string {
	if rel == "" {
		return ""
	}
	return path.Base(rel)
}

package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/skillhub-api/internal/dto"
	"github.com/noah-isme/skillhub-api/internal/models"
	"github.com/noah-isme/skillhub-api/internal/repository"
	appErrors "github.com/noah-isme/skillhub-api/pkg/errors"
)

type paymentRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, item *models.Payment) error
	ListByStudent(ctx context.Context, studentID string) ([]models.Payment, error)
	FindByID(ctx context.Context, id string) (*models.Payment, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type paymentNotifier interface {
	PaymentConfirmed(ctx context.Context, student models.User, payment models.Payment)
}

// PaymentService simulates a checkout that records a payment and enrolls the student atomically.
type PaymentService struct {
	db          txProvider
	payments    paymentRepository
	enrollments enrollmentStore
	courses     courseReader
	users       userFinder
	exports     *ExportService
	notifier    paymentNotifier
	cache       *CacheService
	metrics     *MetricsService
	audit       auditLogger
	validator   *validator.Validate
	logger      *zap.Logger
}

// PaymentServiceParams groups constructor dependencies.
type PaymentServiceParams struct {
	DB          txProvider
	Payments    paymentRepository
	Enrollments enrollmentStore
	Courses     courseReader
	Users       userFinder
	Exports     *ExportService
	Notifier    paymentNotifier
	Cache       *CacheService
	Metrics     *MetricsService
	Audit       auditLogger
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(p PaymentServiceParams) *PaymentService {
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Validator == nil {
		p.Validator = validator.New()
	}
	return &PaymentService{
		db:          p.DB,
		payments:    p.Payments,
		enrollments: p.Enrollments,
		courses:     p.Courses,
		users:       p.Users,
		exports:     p.Exports,
		notifier:    p.Notifier,
		cache:       p.Cache,
		metrics:     p.Metrics,
		audit:       p.Audit,
		validator:   p.Validator,
		logger:      p.Logger,
	}
}

// Pay charges the exact course price and enrolls the caller in one transaction.
func (s *PaymentService) Pay(ctx context.Context, actor *models.JWTClaims, req dto.PaymentRequest, meta RequestMeta) (*models.PaymentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid payment payload")
	}
	course, err := loadPurchasableCourse(ctx, s.courses, req.CourseID)
	if err != nil {
		return nil, err
	}
	if _, err := s.enrollments.FindByStudentAndCourse(ctx, nil, actor.UserID, course.ID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, internal(err, "failed to check enrollment")
	}
	if *req.Amount != course.Price {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrAmountMismatch, ""), map[string]string{"amount": "expected " + course.Price.String()})
	}

	payment := &models.Payment{
		StudentID:     actor.UserID,
		CourseID:      course.ID,
		Amount:        course.Price,
		PaymentMethod: req.PaymentMethod,
		TransactionID: "TXN-" + uuid.NewString(),
		Status:        models.PaymentCompleted,
		CourseTitle:   course.Title,
	}
	enrollment := &models.Enrollment{StudentID: actor.UserID, CourseID: course.ID}
	err = withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.payments.Create(ctx, tx, payment); err != nil {
			return internal(err, "failed to record payment")
		}
		if err := s.enrollments.Create(ctx, tx, enrollment); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
			}
			return internal(err, "failed to enroll")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncPayment(string(payment.PaymentMethod))
	s.metrics.IncEnrollment(EnrollmentSourcePayment)
	invalidateEnrollmentDashboards(ctx, s.cache, actor.UserID, course.InstructorID)
	emitAudit(ctx, s.audit, s.logger, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionPayment,
		Resource:   "payment",
		ResourceID: &payment.ID,
		NewValues:  []byte(`{"amount":"` + payment.Amount.String() + `","transaction_id":"` + payment.TransactionID + `"}`),
	}, meta)
	s.notify(ctx, actor.UserID, *payment)

	return &models.PaymentResult{Payment: *payment, Enrollment: *enrollment}, nil
}

// ListMine returns the caller's payments.
func (s *PaymentService) ListMine(ctx context.Context, actor *models.JWTClaims) ([]models.Payment, error) {
	items, err := s.payments.ListByStudent(ctx, actor.UserID)
	if err != nil {
		return nil, internal(err, "failed to list payments")
	}
	if items == nil {
		items = []models.Payment{}
	}
	return items, nil
}

// Receipt renders a PDF receipt for one of the caller's payments.
func (s *PaymentService) Receipt(ctx context.Context, actor *models.JWTClaims, id string) ([]byte, string, error) {
	payment, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, "", notFoundOr(err, "payment not found", "failed to load payment")
	}
	if payment.StudentID != actor.UserID {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "this payment belongs to another student")
	}
	student, err := s.users.FindByID(ctx, payment.StudentID)
	if err != nil {
		return nil, "", notFoundOr(err, "user not found", "failed to load user")
	}
	return s.exports.Receipt(*payment, student.Info())
}

func (s *PaymentService) notify(ctx context.Context, studentID string, payment models.Payment) {
	if s.notifier == nil || s.users == nil {
		return
	}
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		s.logger.Warn("payment confirmation skipped", zap.String("payment_id", payment.ID), zap.Error(err))
		return
	}
	s.notifier.PaymentConfirmed(ctx, *student, payment)
}

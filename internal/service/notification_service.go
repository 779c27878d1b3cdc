package service

import (
	"context"
	"fmt"
	"html"
	netmail "net/mail"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/skillhub-api/internal/models"
	"github.com/noah-isme/skillhub-api/pkg/jobs"
	"github.com/noah-isme/skillhub-api/pkg/mail"
)

// JobSendMail is the job type carrying a mail.Message payload.
const JobSendMail = "mail.send"

type jobEnqueuer interface {
	TryEnqueue(job jobs.Job) error
}

// NotificationService renders transactional emails and hands them to the background queue.
type NotificationService struct {
	queue       jobEnqueuer
	mailer      mail.Mailer
	metrics     *MetricsService
	frontendURL string
	logger      *zap.Logger
}

// NewNotificationService constructs the service. A nil queue sends inline.
func NewNotificationService(queue jobEnqueuer, mailer mail.Mailer, metrics *MetricsService, frontendURL string, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		queue:       queue,
		mailer:      mailer,
		metrics:     metrics,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

// Register binds the mail job handler on mux.
func (s *NotificationService) Register(mux *jobs.Mux) {
	mux.Handle(JobSendMail, s.Deliver)
}

// Deliver sends the message carried by job.
func (s *NotificationService) Deliver(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(mail.Message)
	if !ok {
		return fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload)
	}
	if s.mailer == nil {
		return fmt.Errorf("mailer not configured")
	}
	err := s.mailer.Send(ctx, msg)
	s.metrics.IncMail(msg.Category, err == nil)
	return err
}

// Welcome greets a newly registered user.
func (s *NotificationService) Welcome(ctx context.Context, user models.User) {
	s.enqueue(ctx, mail.Message{
		To:       []netmail.Address{recipient(user)},
		Subject:  "Welcome to SkillHub",
		Text:     fmt.Sprintf("Hi %s,\n\nYour %s account is ready. Sign in at %s to get started.\n", user.FullName(), strings.ToLower(string(user.Role)), s.frontendURL),
		Category: "welcome",
	})
}

// PasswordReset sends the reset link for token.
func (s *NotificationService) PasswordReset(ctx context.Context, user models.User, token string) {
	link := s.frontendURL + "/reset-password?token=" + token
	s.enqueue(ctx, mail.Message{
		To:       []netmail.Address{recipient(user)},
		Subject:  "Reset your password",
		Text:     fmt.Sprintf("Hi %s,\n\nUse the link below to choose a new password. It expires in one hour.\n\n%s\n\nIf you did not ask for this, ignore this email.\n", user.FullName(), link),
		HTML:     fmt.Sprintf(`<p>Hi %s,</p><p><a href="%s">Choose a new password</a>. The link expires in one hour.</p>`, html.EscapeString(user.FullName()), link),
		Category: "password_reset",
	})
}

// CourseReviewed tells the instructor the outcome of a review.
func (s *NotificationService) CourseReviewed(ctx context.Context, course models.Course) {
	body := fmt.Sprintf("Hi %s,\n\nYour course %q was %s.\n", course.InstructorName, course.Title, strings.ToLower(string(course.Status)))
	if course.AdminComment != "" {
		body += "\nReviewer comment:\n" + course.AdminComment + "\n"
	}
	s.enqueue(ctx, mail.Message{
		To:       []netmail.Address{{Name: course.InstructorName, Address: course.InstructorEmail}},
		Subject:  fmt.Sprintf("Course %s: %s", strings.ToLower(string(course.Status)), course.Title),
		Text:     body,
		Category: "course_review",
	})
}

// PaymentConfirmed sends the purchase receipt summary.
func (s *NotificationService) PaymentConfirmed(ctx context.Context, student models.User, payment models.Payment) {
	s.enqueue(ctx, mail.Message{
		To:      []netmail.Address{recipient(student)},
		Subject: "Payment received: " + payment.CourseTitle,
		Text: fmt.Sprintf("Hi %s,\n\nWe received your payment of %s for %q.\nTransaction: %s\n\nYou are now enrolled.\n",
			student.FullName(), payment.Amount.String(), payment.CourseTitle, payment.TransactionID),
		Category: "payment",
	})
}

// SubmissionGraded tells a student their grade.
func (s *NotificationService) SubmissionGraded(ctx context.Context, sub models.Submission, maxScore int) {
	grade := 0
	if sub.Grade != nil {
		grade = *sub.Grade
	}
	body := fmt.Sprintf("Hi %s,\n\nYour submission for %q was graded: %d/%d.\n", sub.StudentName, sub.AssignmentTitle, grade, maxScore)
	if sub.Feedback != "" {
		body += "\nFeedback:\n" + sub.Feedback + "\n"
	}
	s.enqueue(ctx, mail.Message{
		To:       []netmail.Address{{Name: sub.StudentName, Address: sub.StudentEmail}},
		Subject:  "Assignment graded: " + sub.AssignmentTitle,
		Text:     body,
		Category: "grade",
	})
}

func (s *NotificationService) enqueue(ctx context.Context, msg mail.Message) {
	if s == nil {
		return
	}
	if err := msg.Validate(); err != nil {
		s.logger.Warn("skipping invalid notification", zap.String("category", msg.Category), zap.Error(err))
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: JobSendMail, Payload: msg}
	if s.queue == nil {
		if err := s.Deliver(ctx, job); err != nil {
			s.logger.Warn("notification delivery failed", zap.String("category", msg.Category), zap.Error(err))
		}
		return
	}
	if err := s.queue.TryEnqueue(job); err != nil {
		s.logger.Warn("notification not queued", zap.String("category", msg.Category), zap.Error(err))
	}
}

func recipient(user models.User) netmail.Address {
	return netmail.Address{Name: user.FullName(), Address: user.Email}
}

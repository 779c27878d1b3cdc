package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillhub-api/internal/models"
	"github.com/noah-isme/skillhub-api/pkg/jobs"
	"github.com/noah-isme/skillhub-api/pkg/mail"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *captureMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

type captureQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *captureQueue) TryEnqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func TestNotificationServicePasswordResetEnqueuesLink(t *testing.T) {
	queue := &captureQueue{}
	svc := NewNotificationService(queue, &captureMailer{}, nil, "https://skillhub.test/", nil)

	svc.PasswordReset(context.Background(), models.User{Email: "ana@example.com", FirstName: "Ana"}, "tok123")

	require.Len(t, queue.jobs, 1)
	job := queue.jobs[0]
	assert.Equal(t, JobSendMail, job.Type)
	msg, ok := job.Payload.(mail.Message)
	require.True(t, ok)
	assert.Equal(t, "password_reset", msg.Category)
	assert.Equal(t, "ana@example.com", msg.To[0].Address)
	assert.Contains(t, msg.Text, "https://skillhub.test/reset-password?token=tok123")
}

func TestNotificationServiceSendsInlineWithoutQueue(t *testing.T) {
	mailer := &captureMailer{}
	svc := NewNotificationService(nil, mailer, nil, "https://skillhub.test", nil)

	svc.Welcome(context.Background(), models.User{Email: "sam@example.com", Role: models.RoleStudent})

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "welcome", mailer.sent[0].Category)
	assert.Contains(t, mailer.sent[0].Text, "student account")
}

func TestNotificationServiceSkipsInvalidRecipient(t *testing.T) {
	queue := &captureQueue{}
	svc := NewNotificationService(queue, &captureMailer{}, nil, "", nil)

	svc.CourseReviewed(context.Background(), models.Course{Title: "Go", Status: models.CourseStatusApproved})

	assert.Empty(t, queue.jobs)
}

func TestNotificationServiceSwallowsQueueErrors(t *testing.T) {
	queue := &captureQueue{err: jobs.ErrQueueFull}
	svc := NewNotificationService(queue, &captureMailer{}, nil, "", nil)

	assert.NotPanics(t, func() {
		svc.Welcome(context.Background(), models.User{Email: "sam@example.com"})
	})
}

func TestNotificationServiceDeliver(t *testing.T) {
	mailer := &captureMailer{err: errors.New("smtp down")}
	svc := NewNotificationService(nil, mailer, NewMetricsService(), "", nil)

	err := svc.Deliver(context.Background(), jobs.Job{ID: "1", Payload: "not a message"})
	require.Error(t, err)
	assert.Empty(t, mailer.sent)

	msg := mail.Message{Subject: "s", Text: "t", Category: "grade"}
	err = svc.Deliver(context.Background(), jobs.Job{ID: "2", Payload: msg})
	assert.EqualError(t, err, "smtp down")
	assert.Len(t, mailer.sent, 1)
}

func TestNotificationServiceSubmissionGradedThroughMux(t *testing.T) {
	mailer := &captureMailer{}
	svc := NewNotificationService(nil, mailer, nil, "", nil)
	mux := jobs.NewMux()
	svc.Register(mux)

	grade := 9
	sub := models.Submission{StudentName: "Ana", StudentEmail: "ana@example.com", AssignmentTitle: "Essay", Grade: &grade, Feedback: "Solid"}
	svc.SubmissionGraded(context.Background(), sub, 10)
	require.Len(t, mailer.sent, 1)

	require.NoError(t, mux.Dispatch(context.Background(), jobs.Job{ID: "3", Type: JobSendMail, Payload: mailer.sent[0]}))
	require.Len(t, mailer.sent, 2)
	assert.Contains(t, mailer.sent[1].Text, "9/10")
	assert.Contains(t, mailer.sent[1].Text, "Solid")
}

package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillhub-api/internal/dto"
	"github.com/noah-isme/skillhub-api/internal/models"
	appErrors "github.com/noah-isme/skillhub-api/pkg/errors"
)

const paidCourseID = "6f1c7e2a-3b4d-4e5f-8a9b-0c1d2e3f4a5b"

type fakePayments struct {
	items map[string]*models.Payment
	seq   int
}

func (f *fakePayments) Create(ctx context.Context, exec sqlx.ExtContext, item *models.Payment) error {
	f.seq++
	item.ID = fmt.Sprintf("pay-%d", f.seq)
	cp := *item
	f.items[item.ID] = &cp
	return nil
}

func (f *fakePayments) ListByStudent(ctx context.Context, studentID string) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range f.items {
		if p.StudentID == studentID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePayments) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	if p, ok := f.items[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type paymentFixture struct {
	svc         *PaymentService
	payments    *fakePayments
	enrollments *fakeEnrollments
	users       *mockAuthRepo
	notifier    *recordingCourseNotifier
}

func newPaymentFixture(t *testing.T, db txProvider) paymentFixture {
	t.Helper()
	course := approvedCourse(paidCourseID, "inst-1", 4999)
	payments := &fakePayments{items: map[string]*models.Payment{}}
	enrollments := newFakeEnrollments()
	users := newMockAuthRepo()
	users.addUser(t, "stu-1", "stu@example.com", "secret123", true)
	notifier := &recordingCourseNotifier{}
	exports, _ := newTestExportService(t)
	svc := NewPaymentService(PaymentServiceParams{
		DB:          db,
		Payments:    payments,
		Enrollments: enrollments,
		Courses:     newFakeCourses(course),
		Users:       users,
		Exports:     exports,
		Notifier:    notifier,
		Audit:       users,
	})
	return paymentFixture{svc: svc, payments: payments, enrollments: enrollments, users: users, notifier: notifier}
}

func money(v models.Money) *models.Money { return &v }

func TestPaymentEnrollsInOneTransaction(t *testing.T) {
	db, mock := newSQLMockTx(t)
	fx := newPaymentFixture(t, db)
	student := claims("stu-1", models.RoleStudent)

	mock.ExpectBegin()
	mock.ExpectCommit()
	res, err := fx.svc.Pay(context.Background(), student, dto.PaymentRequest{CourseID: paidCourseID, Amount: money(4999), PaymentMethod: models.PaymentMockWallet}, RequestMeta{})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, models.PaymentCompleted, res.Payment.Status)
	assert.True(t, strings.HasPrefix(res.Payment.TransactionID, "TXN-"))
	assert.Equal(t, paidCourseID, res.Enrollment.CourseID)
	assert.Len(t, fx.enrollments.items, 1)
	require.Len(t, fx.notifier.payments, 1)
	require.Len(t, fx.users.auditLogs, 1)
	assert.Equal(t, models.AuditActionPayment, fx.users.auditLogs[0].Action)

	_, err = fx.svc.Pay(context.Background(), student, dto.PaymentRequest{CourseID: paidCourseID, Amount: money(4999), PaymentMethod: models.PaymentMockWallet}, RequestMeta{})
	assertAppError(t, err, appErrors.ErrAlreadyEnrolled.Code)

	receipt, name, err := fx.svc.Receipt(context.Background(), student, res.Payment.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, receipt)
	assert.Equal(t, "receipt_"+res.Payment.TransactionID+".pdf", name)

	_, _, err = fx.svc.Receipt(context.Background(), claims("stu-2", models.RoleStudent), res.Payment.ID)
	assertAppError(t, err, appErrors.ErrForbidden.Code)
}

func TestPaymentRejectsAmountMismatch(t *testing.T) {
	db, mock := newSQLMockTx(t)
	fx := newPaymentFixture(t, db)

	_, err := fx.svc.Pay(context.Background(), claims("stu-1", models.RoleStudent), dto.PaymentRequest{CourseID: paidCourseID, Amount: money(4998), PaymentMethod: models.PaymentCreditCard}, RequestMeta{})
	assertAppError(t, err, appErrors.ErrAmountMismatch.Code)
	assert.Empty(t, fx.payments.items)
	assert.Empty(t, fx.enrollments.items)
	require.NoError(t, mock.ExpectationsWereMet())

	_, err = fx.svc.Pay(context.Background(), claims("stu-1", models.RoleStudent), dto.PaymentRequest{CourseID: paidCourseID, Amount: money(4999), PaymentMethod: "BITCOIN"}, RequestMeta{})
	assertAppError(t, err, appErrors.ErrValidation.Code)
}

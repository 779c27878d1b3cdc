package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/skillhub-api/internal/models"
)

const paymentSelect = `
SELECT p.id, p.student_id, p.course_id, p.amount, p.payment_method, p.transaction_id, p.status, p.payment_date,
	co.title AS course_title
FROM payments p
JOIN courses co ON co.id = p.course_id`

// PaymentRepository persists purchase records.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs a PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a payment.
func (r *PaymentRepository) Create(ctx context.Context, exec sqlx.ExtContext, item *models.Payment) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.PaymentDate.IsZero() {
		item.PaymentDate = time.Now().UTC()
	}
	const query = `INSERT INTO payments (id, student_id, course_id, amount, payment_method, transaction_id, status, payment_date)
VALUES (:id, :student_id, :course_id, :amount, :payment_method, :transaction_id, :status, :payment_date)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, item); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// ListByStudent returns a student's payments, newest first.
func (r *PaymentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Payment, error) {
	var items []models.Payment
	if err := r.db.SelectContext(ctx, &items, paymentSelect+` WHERE p.student_id = $1 ORDER BY p.payment_date DESC`, studentID); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return items, nil
}

// FindByID returns one payment.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	var item models.Payment
	if err := r.db.GetContext(ctx, &item, paymentSelect+` WHERE p.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return &item, nil
}

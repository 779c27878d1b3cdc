package models

import "time"

// PaymentMethod is the simulated instrument used to pay.
type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentDebitCard  PaymentMethod = "DEBIT_CARD"
	PaymentMockWallet PaymentMethod = "MOCK_WALLET"
)

// PaymentStatus is the settlement state.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Payment is an immutable purchase record.
type Payment struct {
	ID            string        `db:"id" json:"id"`
	StudentID     string        `db:"student_id" json:"student"`
	CourseID      string        `db:"course_id" json:"course"`
	Amount        Money         `db:"amount" json:"amount"`
	PaymentMethod PaymentMethod `db:"payment_method" json:"payment_method"`
	TransactionID string        `db:"transaction_id" json:"transaction_id"`
	Status        PaymentStatus `db:"status" json:"status"`
	PaymentDate   time.Time     `db:"payment_date" json:"payment_date"`

	CourseTitle string `db:"course_title" json:"course_title,omitempty"`
}

// PaymentResult is returned by a successful checkout.
type PaymentResult struct {
	Payment    Payment    `json:"payment"`
	Enrollment Enrollment `json:"enrollment"`
}

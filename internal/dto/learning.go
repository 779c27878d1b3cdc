package dto

import "github.com/noah-isme/skillhub-api/internal/models"

// QuizSubmitRequest maps question ids to a chosen option letter.
type QuizSubmitRequest struct {
	Answers map[string]string `json:"answers" validate:"required"`
}

// GradeRequest grades a submission.
type GradeRequest struct {
	Grade    *int   `json:"grade" validate:"required,gte=0"`
	Feedback string `json:"feedback" validate:"max=10000"`
}

// LessonActivityRequest records viewing telemetry.
type LessonActivityRequest struct {
	TimeSpent    int  `json:"time_spent" validate:"gte=0"`
	LastPosition int  `json:"last_position" validate:"gte=0"`
	Completed    bool `json:"completed"`
}

// PaymentRequest buys a course with the mock gateway.
type PaymentRequest struct {
	CourseID      string               `json:"course" validate:"required,uuid"`
	Amount        *models.Money        `json:"amount" validate:"required"`
	PaymentMethod models.PaymentMethod `json:"payment_method" validate:"required,oneof=CREDIT_CARD DEBIT_CARD MOCK_WALLET"`
}

// MySubmissionResponse answers whether the caller has submitted.
type MySubmissionResponse struct {
	Submitted  bool               `json:"submitted"`
	Submission *models.Submission `json:"submission"`
}

// DownloadLink is a signed, time limited URL.
type DownloadLink struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
}

package models

import "time"

// Quiz is a multiple choice assessment with an attempt limit.
type Quiz struct {
	ID           string    `db:"id" json:"id"`
	CourseID     string    `db:"course_id" json:"course"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	Duration     int       `db:"duration" json:"duration"`
	PassingScore int       `db:"passing_score" json:"passing_score"`
	MaxAttempts  int       `db:"max_attempts" json:"max_attempts"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	QuestionCount int   `db:"question_count" json:"question_count"`
	TotalPoints   int   `db:"total_points" json:"total_points"`
	HasCompleted  *bool `db:"-" json:"has_completed,omitempty"`
}

// Question is a four option question. CorrectAnswer is one of A-D.
type Question struct {
	ID            string `db:"id" json:"id"`
	QuizID        string `db:"quiz_id" json:"quiz"`
	QuestionText  string `db:"question_text" json:"question_text"`
	OptionA       string `db:"option_a" json:"option_a"`
	OptionB       string `db:"option_b" json:"option_b"`
	OptionC       string `db:"option_c" json:"option_c"`
	OptionD       string `db:"option_d" json:"option_d"`
	CorrectAnswer string `db:"correct_answer" json:"correct_answer,omitempty"`
	Points        int    `db:"points" json:"points"`
	Order         int    `db:"order" json:"order"`
}

// Redacted returns a copy without the correct answer.
func (q Question) Redacted() Question {
	q.CorrectAnswer = ""
	return q
}

// QuizDetail is a quiz with its ordered questions.
type QuizDetail struct {
	Quiz
	Questions []Question `json:"questions"`
}

// QuestionResult is the per question outcome of a scored attempt.
type QuestionResult struct {
	QuestionID    string `json:"question_id"`
	QuestionText  string `json:"question_text"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
	Points        int    `json:"points"`
}

// QuizResult is returned after an attempt is scored.
type QuizResult struct {
	Score             int              `json:"score"`
	TotalPoints       int              `json:"total_points"`
	Percentage        float64          `json:"percentage"`
	CorrectCount      int              `json:"correct_count"`
	TotalQuestions    int              `json:"total_questions"`
	Passed            bool             `json:"passed"`
	PassingScore      int              `json:"passing_score"`
	AttemptsUsed      int              `json:"attempts_used"`
	AttemptsRemaining int              `json:"attempts_remaining"`
	Results           []QuestionResult `json:"results"`
	CourseProgress    float64          `json:"course_progress"`
}

// QuizAttempts summarises attempt usage for a viewer.
type QuizAttempts struct {
	Attempts    int `json:"attempts"`
	MaxAttempts int `json:"max_attempts"`
	Remaining   int `json:"remaining"`
}

package models

import "time"

// Assignment is graded coursework with a deadline.
type Assignment struct {
	ID           string    `db:"id" json:"id"`
	CourseID     string    `db:"course_id" json:"course"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	Instructions string    `db:"instructions" json:"instructions"`
	Deadline     time.Time `db:"deadline" json:"deadline"`
	MaxScore     int       `db:"max_score" json:"max_score"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	SubmissionCount int   `db:"submission_count" json:"submission_count"`
	HasSubmitted    *bool `db:"-" json:"has_submitted,omitempty"`
}

// SubmissionStatus tracks grading state.
type SubmissionStatus string

const (
	SubmissionPending SubmissionStatus = "PENDING"
	SubmissionGraded  SubmissionStatus = "GRADED"
	SubmissionLate    SubmissionStatus = "LATE"
)

// Submission is one student's file for an assignment. Resubmission replaces it.
type Submission struct {
	ID             string           `db:"id" json:"id"`
	AssignmentID   string           `db:"assignment_id" json:"assignment"`
	StudentID      string           `db:"student_id" json:"student"`
	FilePath       string           `db:"file_path" json:"-"`
	SubmissionDate time.Time        `db:"submission_date" json:"submission_date"`
	Grade          *int             `db:"grade" json:"grade"`
	Feedback       string           `db:"feedback" json:"feedback"`
	Status         SubmissionStatus `db:"status" json:"status"`
	GradedAt       *time.Time       `db:"graded_at" json:"graded_at"`

	StudentName     string `db:"student_name" json:"student_name,omitempty"`
	StudentEmail    string `db:"student_email" json:"student_email,omitempty"`
	AssignmentTitle string `db:"assignment_title" json:"assignment_title,omitempty"`
	CourseID        string `db:"course_id" json:"course_id,omitempty"`
	FileName        string `db:"-" json:"file_name,omitempty"`
}

package models

import "time"

// Enrollment links a student to a course and carries the aggregate progress.
type Enrollment struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student"`
	CourseID       string    `db:"course_id" json:"course"`
	Progress       float64   `db:"progress" json:"progress"`
	Completed      bool      `db:"completed" json:"completed"`
	EnrolledAt     time.Time `db:"enrolled_at" json:"enrolled_at"`
	LastAccessedAt time.Time `db:"last_accessed_at" json:"last_accessed"`
}

// EnrollmentDetail adds course and student summary fields.
type EnrollmentDetail struct {
	Enrollment
	CourseTitle     string `db:"course_title" json:"course_title"`
	CourseThumbnail string `db:"course_thumbnail" json:"course_thumbnail"`
	InstructorName  string `db:"instructor_name" json:"instructor_name"`
	StudentName     string `db:"student_name" json:"student_name"`
	StudentEmail    string `db:"student_email" json:"student_email"`
}

// EnrollmentCheck answers whether the viewer is enrolled in a course.
type EnrollmentCheck struct {
	IsEnrolled bool              `json:"is_enrolled"`
	Enrollment *EnrollmentDetail `json:"enrollment"`
}

// Progress is completion evidence for a lesson, or one scored quiz attempt.
type Progress struct {
	ID             string     `db:"id" json:"id"`
	EnrollmentID   string     `db:"enrollment_id" json:"enrollment"`
	LessonID       *string    `db:"lesson_id" json:"lesson"`
	QuizID         *string    `db:"quiz_id" json:"quiz"`
	Completed      bool       `db:"completed" json:"completed"`
	CompletionDate *time.Time `db:"completion_date" json:"completion_date"`
	QuizScore      *float64   `db:"quiz_score" json:"quiz_score"`
	QuizAttempts   int        `db:"quiz_attempts" json:"quiz_attempts"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// ProgressCounts feeds the progress formula.
type ProgressCounts struct {
	TotalLessons     int `db:"total_lessons"`
	TotalQuizzes     int `db:"total_quizzes"`
	CompletedLessons int `db:"completed_lessons"`
	PassedQuizzes    int `db:"passed_quizzes"`
}

// CourseProgress is the per course progress view for a student.
type CourseProgress struct {
	EnrollmentID       string     `json:"enrollment_id"`
	ProgressPercentage float64    `json:"progress_percentage"`
	Completed          bool       `json:"completed"`
	Records            []Progress `json:"records"`
}

// LessonCompletion is returned when a lesson is marked complete.
type LessonCompletion struct {
	Progress           Progress `json:"progress"`
	EnrollmentProgress float64  `json:"enrollment_progress"`
	CourseCompleted    bool     `json:"course_completed"`
}

// LessonActivity is viewing telemetry for one lesson within an enrollment.
type LessonActivity struct {
	ID           string    `db:"id" json:"id"`
	EnrollmentID string    `db:"enrollment_id" json:"enrollment"`
	LessonID     string    `db:"lesson_id" json:"lesson"`
	TimeSpent    int       `db:"time_spent" json:"time_spent"`
	LastPosition int       `db:"last_position" json:"last_position"`
	Completed    bool      `db:"completed" json:"completed"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// RosterEntry is one student row in an instructor's enrollment listing.
type RosterEntry struct {
	EnrollmentID   string    `db:"enrollment_id" json:"enrollment_id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	StudentName    string    `db:"student_name" json:"student_name"`
	StudentEmail   string    `db:"student_email" json:"student_email"`
	Progress       float64   `db:"progress" json:"progress"`
	Completed      bool      `db:"completed" json:"completed"`
	EnrolledAt     time.Time `db:"enrolled_at" json:"enrolled_at"`
	LastAccessedAt time.Time `db:"last_accessed_at" json:"last_accessed"`
}

// RosterExport points at a rendered roster file.
type RosterExport struct {
	Format      string    `json:"format"`
	FileName    string    `json:"file_name"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
	Rows        int       `json:"rows"`
}

package models

import "time"

// CourseStatus tracks the approval workflow.
type CourseStatus string

const (
	CourseStatusDraft    CourseStatus = "DRAFT"
	CourseStatusPending  CourseStatus = "PENDING"
	CourseStatusApproved CourseStatus = "APPROVED"
	CourseStatusRejected CourseStatus = "REJECTED"
)

// Valid reports whether s is a known status.
func (s CourseStatus) Valid() bool {
	switch s {
	case CourseStatusDraft, CourseStatusPending, CourseStatusApproved, CourseStatusRejected:
		return true
	}
	return false
}

// Course is a course row plus the computed catalog fields.
type Course struct {
	ID           string       `db:"id" json:"id"`
	InstructorID string       `db:"instructor_id" json:"instructor_id"`
	CategoryID   *string      `db:"category_id" json:"category_id"`
	Title        string       `db:"title" json:"title"`
	Description  string       `db:"description" json:"description"`
	Syllabus     string       `db:"syllabus" json:"syllabus"`
	Price        Money        `db:"price" json:"price"`
	ThumbnailURL string       `db:"thumbnail_url" json:"thumbnail"`
	Status       CourseStatus `db:"status" json:"status"`
	AdminComment string       `db:"admin_comment" json:"admin_comment"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`

	InstructorName  string `db:"instructor_name" json:"instructor_name"`
	InstructorEmail string `db:"instructor_email" json:"-"`
	CategoryName    string `db:"category_name" json:"category_name"`
	LessonCount     int    `db:"lesson_count" json:"lesson_count"`
	TotalDuration   int    `db:"total_duration" json:"total_duration"`
	EnrollmentCount int    `db:"enrollment_count" json:"enrollment_count"`
}

// IsFree reports a zero price.
func (c Course) IsFree() bool { return c.Price.IsZero() }

// OwnedBy reports whether userID is the course instructor.
func (c Course) OwnedBy(userID string) bool { return c.InstructorID == userID }

// CourseView adds is_free to the JSON representation.
type CourseView struct {
	Course
	IsFree bool `json:"is_free"`
}

// View returns the API projection.
func (c Course) View() CourseView { return CourseView{Course: c, IsFree: c.IsFree()} }

// CourseFilter narrows catalog and instructor listings.
type CourseFilter struct {
	Statuses     []CourseStatus
	InstructorID string
	CategoryIDs  []string
	IsFree       *bool
	Search       string
	Ordering     string
	Page         int
	PageSize     int
}

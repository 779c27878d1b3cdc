package models

// AdminDashboard aggregates platform wide counts.
type AdminDashboard struct {
	TotalCourses     int   `db:"total_courses" json:"total_courses"`
	PendingCourses   int   `db:"pending_courses" json:"pending_courses"`
	ApprovedCourses  int   `db:"approved_courses" json:"approved_courses"`
	RejectedCourses  int   `db:"rejected_courses" json:"rejected_courses"`
	TotalInstructors int   `db:"total_instructors" json:"total_instructors"`
	TotalStudents    int   `db:"total_students" json:"total_students"`
	TotalEnrollments int   `db:"total_enrollments" json:"total_enrollments"`
	TotalRevenue     Money `db:"total_revenue" json:"total_revenue"`
}

// InstructorDashboard aggregates counts over one instructor's courses.
type InstructorDashboard struct {
	TotalCourses    int `db:"total_courses" json:"total_courses"`
	DraftCourses    int `db:"draft_courses" json:"draft_courses"`
	PendingCourses  int `db:"pending_courses" json:"pending_courses"`
	ApprovedCourses int `db:"approved_courses" json:"approved_courses"`
	RejectedCourses int `db:"rejected_courses" json:"rejected_courses"`
	TotalStudents   int `db:"total_students" json:"total_students"`
}

// StudentDashboard summarises a student's learning.
type StudentDashboard struct {
	TotalEnrolled    int     `db:"total_enrolled" json:"total_enrolled"`
	CompletedCourses int     `db:"completed_courses" json:"completed_courses"`
	InProgress       int     `db:"in_progress" json:"in_progress"`
	TotalSeconds     int64   `db:"total_seconds" json:"-"`
	TotalHoursSpent  float64 `db:"-" json:"total_hours_spent"`
}

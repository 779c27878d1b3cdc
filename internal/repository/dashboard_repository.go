package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/skillhub-api/internal/models"
)

// DashboardRepository runs the aggregate queries behind the role dashboards.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs a DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Admin returns platform wide counts.
func (r *DashboardRepository) Admin(ctx context.Context) (*models.AdminDashboard, error) {
	const query = `
SELECT
	(SELECT COUNT(*) FROM courses) AS total_courses,
	(SELECT COUNT(*) FROM courses WHERE status = 'PENDING') AS pending_courses,
	(SELECT COUNT(*) FROM courses WHERE status = 'APPROVED') AS approved_courses,
	(SELECT COUNT(*) FROM courses WHERE status = 'REJECTED') AS rejected_courses,
	(SELECT COUNT(DISTINCT instructor_id) FROM courses) AS total_instructors,
	(SELECT COUNT(*) FROM users WHERE role = 'STUDENT') AS total_students,
	(SELECT COUNT(*) FROM enrollments) AS total_enrollments,
	(SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = 'COMPLETED') AS total_revenue`
	var out models.AdminDashboard
	if err := r.db.GetContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("admin dashboard: %w", err)
	}
	return &out, nil
}

// Instructor returns counts across one instructor's courses.
func (r *DashboardRepository) Instructor(ctx context.Context, instructorID string) (*models.InstructorDashboard, error) {
	const query = `
SELECT
	COUNT(*) AS total_courses,
	COUNT(*) FILTER (WHERE status = 'DRAFT') AS draft_courses,
	COUNT(*) FILTER (WHERE status = 'PENDING') AS pending_courses,
	COUNT(*) FILTER (WHERE status = 'APPROVED') AS approved_courses,
	COUNT(*) FILTER (WHERE status = 'REJECTED') AS rejected_courses,
	(SELECT COUNT(*) FROM enrollments e JOIN courses c ON c.id = e.course_id WHERE c.instructor_id = $1) AS total_students
FROM courses
WHERE instructor_id = $1`
	var out models.InstructorDashboard
	if err := r.db.GetContext(ctx, &out, query, instructorID); err != nil {
		return nil, fmt.Errorf("instructor dashboard: %w", err)
	}
	return &out, nil
}

// Student returns a student's learning summary. TotalHoursSpent is left for the caller.
func (r *DashboardRepository) Student(ctx context.Context, studentID string) (*models.StudentDashboard, error) {
	const query = `
SELECT
	COUNT(*) AS total_enrolled,
	COUNT(*) FILTER (WHERE completed) AS completed_courses,
	COUNT(*) FILTER (WHERE NOT completed) AS in_progress,
	(SELECT COALESCE(SUM(la.time_spent), 0) FROM lesson_activity la JOIN enrollments e2 ON e2.id = la.enrollment_id WHERE e2.student_id = $1) AS total_seconds
FROM enrollments
WHERE student_id = $1`
	var out models.StudentDashboard
	if err := r.db.GetContext(ctx, &out, query, studentID); err != nil {
		return nil, fmt.Errorf("student dashboard: %w", err)
	}
	return &out, nil
}

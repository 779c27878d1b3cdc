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

const enrollmentColumns = `id, student_id, course_id, progress, completed, enrolled_at, last_accessed_at`

const enrollmentDetailSelect = `
SELECT e.id, e.student_id, e.course_id, e.progress, e.completed, e.enrolled_at, e.last_accessed_at,
	co.title AS course_title,
	co.thumbnail_url AS course_thumbnail,
	TRIM(iu.first_name || ' ' || iu.last_name) AS instructor_name,
	TRIM(su.first_name || ' ' || su.last_name) AS student_name,
	su.email AS student_email
FROM enrollments e
JOIN courses co ON co.id = e.course_id
JOIN users iu ON iu.id = co.instructor_id
JOIN users su ON su.id = e.student_id`

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func (r *EnrollmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByStudentAndCourse returns the enrollment linking a student and a course.
func (r *EnrollmentRepository) FindByStudentAndCourse(ctx context.Context, exec sqlx.ExtContext, studentID, courseID string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE student_id = $1 AND course_id = $2`
	var item models.Enrollment
	if err := sqlx.GetContext(ctx, r.exec(exec), &item, query, studentID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &item, nil
}

// LockByID reads an enrollment with a row lock. exec must be a transaction.
func (r *EnrollmentRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1 FOR UPDATE`
	var item models.Enrollment
	if err := sqlx.GetContext(ctx, exec, &item, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("lock enrollment: %w", err)
	}
	return &item, nil
}

// FindDetailByID returns one enrollment with course and student summary fields.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	var item models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &item, enrollmentDetailSelect+` WHERE e.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment detail: %w", err)
	}
	return &item, nil
}

// FindDetailByStudentAndCourse returns the viewer's enrollment detail for a course.
func (r *EnrollmentRepository) FindDetailByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.EnrollmentDetail, error) {
	var item models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &item, enrollmentDetailSelect+` WHERE e.student_id = $1 AND e.course_id = $2`, studentID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment detail: %w", err)
	}
	return &item, nil
}

// ListByStudent returns a student's enrollments, most recently accessed first.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	var items []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &items, enrollmentDetailSelect+` WHERE e.student_id = $1 ORDER BY e.last_accessed_at DESC`, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return items, nil
}

// ListRoster returns the students enrolled in a course.
func (r *EnrollmentRepository) ListRoster(ctx context.Context, courseID string) ([]models.RosterEntry, error) {
	const query = `
SELECT e.id AS enrollment_id, e.student_id,
	TRIM(u.first_name || ' ' || u.last_name) AS student_name,
	u.email AS student_email,
	e.progress, e.completed, e.enrolled_at, e.last_accessed_at
FROM enrollments e
JOIN users u ON u.id = e.student_id
WHERE e.course_id = $1
ORDER BY e.enrolled_at ASC`
	var items []models.RosterEntry
	if err := r.db.SelectContext(ctx, &items, query, courseID); err != nil {
		return nil, fmt.Errorf("list course roster: %w", err)
	}
	return items, nil
}

// Create inserts an enrollment. A second enrollment for the same pair yields ErrDuplicate.
func (r *EnrollmentRepository) Create(ctx context.Context, exec sqlx.ExtContext, item *models.Enrollment) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.EnrolledAt.IsZero() {
		item.EnrolledAt = now
	}
	item.LastAccessedAt = now
	const query = `INSERT INTO enrollments (id, student_id, course_id, progress, completed, enrolled_at, last_accessed_at)
VALUES (:id, :student_id, :course_id, :progress, :completed, :enrolled_at, :last_accessed_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, item); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// UpdateProgress stores the recomputed percentage and completion flag.
func (r *EnrollmentRepository) UpdateProgress(ctx context.Context, exec sqlx.ExtContext, id string, progress float64, completed bool) error {
	const query = `UPDATE enrollments SET progress = $2, completed = $3, last_accessed_at = $4 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, progress, completed, time.Now().UTC()); err != nil {
		return fmt.Errorf("update enrollment progress: %w", err)
	}
	return nil
}

// Touch bumps last_accessed_at.
func (r *EnrollmentRepository) Touch(ctx context.Context, exec sqlx.ExtContext, id string) error {
	if _, err := r.exec(exec).ExecContext(ctx, `UPDATE enrollments SET last_accessed_at = $2 WHERE id = $1`, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("touch enrollment: %w", err)
	}
	return nil
}

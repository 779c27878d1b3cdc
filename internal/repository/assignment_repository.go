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

const assignmentSelect = `
SELECT a.id, a.course_id, a.title, a.description, a.instructions, a.deadline, a.max_score, a.created_at, a.updated_at,
	(SELECT COUNT(*) FROM submissions s WHERE s.assignment_id = a.id) AS submission_count
FROM assignments a`

const submissionSelect = `
SELECT s.id, s.assignment_id, s.student_id, s.file_path, s.submission_date, s.grade, s.feedback, s.status, s.graded_at,
	TRIM(u.first_name || ' ' || u.last_name) AS student_name,
	u.email AS student_email,
	a.title AS assignment_title,
	a.course_id
FROM submissions s
JOIN users u ON u.id = s.student_id
JOIN assignments a ON a.id = s.assignment_id`

// AssignmentRepository persists assignments and student submissions.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListByCourse returns the course's assignments ordered by deadline.
func (r *AssignmentRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Assignment, error) {
	var items []models.Assignment
	if err := r.db.SelectContext(ctx, &items, assignmentSelect+` WHERE a.course_id = $1 ORDER BY a.deadline ASC`, courseID); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return items, nil
}

// FindByID returns one assignment with its submission count.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	var item models.Assignment
	if err := r.db.GetContext(ctx, &item, assignmentSelect+` WHERE a.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find assignment: %w", err)
	}
	return &item, nil
}

// SubmittedAssignmentIDs returns which of the course's assignments the student has submitted.
func (r *AssignmentRepository) SubmittedAssignmentIDs(ctx context.Context, courseID, studentID string) (map[string]bool, error) {
	const query = `SELECT s.assignment_id FROM submissions s JOIN assignments a ON a.id = s.assignment_id WHERE a.course_id = $1 AND s.student_id = $2`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, courseID, studentID); err != nil {
		return nil, fmt.Errorf("list submitted assignments: %w", err)
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// Create inserts an assignment.
func (r *AssignmentRepository) Create(ctx context.Context, item *models.Assignment) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now
	const query = `INSERT INTO assignments (id, course_id, title, description, instructions, deadline, max_score, created_at, updated_at)
VALUES (:id, :course_id, :title, :description, :instructions, :deadline, :max_score, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Update writes the editable assignment fields.
func (r *AssignmentRepository) Update(ctx context.Context, item *models.Assignment) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assignments SET title = :title, description = :description, instructions = :instructions, deadline = :deadline, max_score = :max_score, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return expectAffected(res)
}

// Delete removes an assignment and its submissions.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return expectAffected(res)
}

// FindSubmission returns the student's submission for an assignment.
func (r *AssignmentRepository) FindSubmission(ctx context.Context, assignmentID, studentID string) (*models.Submission, error) {
	var item models.Submission
	if err := r.db.GetContext(ctx, &item, submissionSelect+` WHERE s.assignment_id = $1 AND s.student_id = $2`, assignmentID, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return &item, nil
}

// FindSubmissionByID returns one submission.
func (r *AssignmentRepository) FindSubmissionByID(ctx context.Context, id string) (*models.Submission, error) {
	var item models.Submission
	if err := r.db.GetContext(ctx, &item, submissionSelect+` WHERE s.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return &item, nil
}

// ListSubmissions returns every submission for an assignment, newest first.
func (r *AssignmentRepository) ListSubmissions(ctx context.Context, assignmentID string) ([]models.Submission, error) {
	var items []models.Submission
	if err := r.db.SelectContext(ctx, &items, submissionSelect+` WHERE s.assignment_id = $1 ORDER BY s.submission_date DESC`, assignmentID); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return items, nil
}

// UpsertSubmission stores a submission. A resubmission replaces the file and clears grading.
// It reports whether a new row was created.
func (r *AssignmentRepository) UpsertSubmission(ctx context.Context, item *models.Submission) (bool, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	const query = `INSERT INTO submissions (id, assignment_id, student_id, file_path, submission_date, status)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (assignment_id, student_id) DO UPDATE SET
	file_path = EXCLUDED.file_path,
	submission_date = EXCLUDED.submission_date,
	status = EXCLUDED.status,
	grade = NULL,
	feedback = '',
	graded_at = NULL
RETURNING id, (xmax = 0) AS inserted`
	var row struct {
		ID       string `db:"id"`
		Inserted bool   `db:"inserted"`
	}
	if err := r.db.GetContext(ctx, &row, query, item.ID, item.AssignmentID, item.StudentID, item.FilePath, item.SubmissionDate, item.Status); err != nil {
		return false, fmt.Errorf("upsert submission: %w", err)
	}
	item.ID = row.ID
	item.Grade = nil
	item.Feedback = ""
	item.GradedAt = nil
	return row.Inserted, nil
}

// GradeSubmission records a grade and feedback.
func (r *AssignmentRepository) GradeSubmission(ctx context.Context, id string, grade int, feedback string, gradedAt time.Time) error {
	const query = `UPDATE submissions SET grade = $2, feedback = $3, status = $4, graded_at = $5 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, grade, feedback, models.SubmissionGraded, gradedAt)
	if err != nil {
		return fmt.Errorf("grade submission: %w", err)
	}
	return expectAffected(res)
}

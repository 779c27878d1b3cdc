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

const progressColumns = `id, enrollment_id, lesson_id, quiz_id, completed, completion_date, quiz_score, quiz_attempts, created_at`

// ProgressRepository persists completion evidence and lesson activity.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository constructs a ProgressRepository.
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

func (r *ProgressRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Counts gathers the inputs of the progress formula for an enrollment.
func (r *ProgressRepository) Counts(ctx context.Context, exec sqlx.ExtContext, enrollmentID, courseID string) (models.ProgressCounts, error) {
	const query = `
SELECT
	(SELECT COUNT(*) FROM lessons WHERE course_id = $2) AS total_lessons,
	(SELECT COUNT(*) FROM quizzes WHERE course_id = $2) AS total_quizzes,
	(SELECT COUNT(*) FROM progress p JOIN lessons l ON l.id = p.lesson_id
		WHERE p.enrollment_id = $1 AND p.completed AND l.course_id = $2) AS completed_lessons,
	(SELECT COUNT(DISTINCT p.quiz_id) FROM progress p JOIN quizzes q ON q.id = p.quiz_id
		WHERE p.enrollment_id = $1 AND q.course_id = $2 AND p.quiz_score >= q.passing_score) AS passed_quizzes`
	var counts models.ProgressCounts
	if err := sqlx.GetContext(ctx, r.exec(exec), &counts, query, enrollmentID, courseID); err != nil {
		return models.ProgressCounts{}, fmt.Errorf("count progress: %w", err)
	}
	return counts, nil
}

// FindLessonProgress returns the lesson progress row for an enrollment.
func (r *ProgressRepository) FindLessonProgress(ctx context.Context, exec sqlx.ExtContext, enrollmentID, lessonID string) (*models.Progress, error) {
	query := `SELECT ` + progressColumns + ` FROM progress WHERE enrollment_id = $1 AND lesson_id = $2`
	var item models.Progress
	if err := sqlx.GetContext(ctx, r.exec(exec), &item, query, enrollmentID, lessonID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find lesson progress: %w", err)
	}
	return &item, nil
}

// Create inserts a progress row.
func (r *ProgressRepository) Create(ctx context.Context, exec sqlx.ExtContext, item *models.Progress) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO progress (id, enrollment_id, lesson_id, quiz_id, completed, completion_date, quiz_score, quiz_attempts, created_at)
VALUES (:id, :enrollment_id, :lesson_id, :quiz_id, :completed, :completion_date, :quiz_score, :quiz_attempts, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, item); err != nil {
		return fmt.Errorf("create progress: %w", err)
	}
	return nil
}

// MarkCompleted flags a progress row complete. completion_date keeps its first value.
func (r *ProgressRepository) MarkCompleted(ctx context.Context, exec sqlx.ExtContext, id string, at time.Time) error {
	const query = `UPDATE progress SET completed = TRUE, completion_date = COALESCE(completion_date, $2) WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("mark progress completed: %w", err)
	}
	return nil
}

// CountQuizAttempts returns how many scored attempts exist for a quiz within an enrollment.
func (r *ProgressRepository) CountQuizAttempts(ctx context.Context, exec sqlx.ExtContext, enrollmentID, quizID string) (int, error) {
	var count int
	const query = `SELECT COUNT(*) FROM progress WHERE enrollment_id = $1 AND quiz_id = $2`
	if err := sqlx.GetContext(ctx, r.exec(exec), &count, query, enrollmentID, quizID); err != nil {
		return 0, fmt.Errorf("count quiz attempts: %w", err)
	}
	return count, nil
}

// AttemptedQuizIDs returns the quizzes of a course the enrollment has at least one attempt for.
func (r *ProgressRepository) AttemptedQuizIDs(ctx context.Context, enrollmentID, courseID string) (map[string]bool, error) {
	const query = `SELECT DISTINCT p.quiz_id FROM progress p JOIN quizzes q ON q.id = p.quiz_id WHERE p.enrollment_id = $1 AND q.course_id = $2 AND p.completed`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, enrollmentID, courseID); err != nil {
		return nil, fmt.Errorf("list attempted quizzes: %w", err)
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// ListByEnrollment returns every progress row for an enrollment.
func (r *ProgressRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Progress, error) {
	query := `SELECT ` + progressColumns + ` FROM progress WHERE enrollment_id = $1 ORDER BY created_at ASC`
	var items []models.Progress
	if err := r.db.SelectContext(ctx, &items, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return items, nil
}

// UpsertActivity creates or overwrites the activity row for a lesson within an enrollment.
func (r *ProgressRepository) UpsertActivity(ctx context.Context, item *models.LessonActivity) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO lesson_activity (id, enrollment_id, lesson_id, time_spent, last_position, completed, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (enrollment_id, lesson_id) DO UPDATE SET
	time_spent = EXCLUDED.time_spent,
	last_position = EXCLUDED.last_position,
	completed = lesson_activity.completed OR EXCLUDED.completed,
	updated_at = EXCLUDED.updated_at
RETURNING id, completed`
	var row struct {
		ID        string `db:"id"`
		Completed bool   `db:"completed"`
	}
	if err := r.db.GetContext(ctx, &row, query, item.ID, item.EnrollmentID, item.LessonID, item.TimeSpent, item.LastPosition, item.Completed, item.UpdatedAt); err != nil {
		return fmt.Errorf("upsert lesson activity: %w", err)
	}
	item.ID = row.ID
	item.Completed = row.Completed
	return nil
}

// ListActivity returns the activity rows of an enrollment.
func (r *ProgressRepository) ListActivity(ctx context.Context, enrollmentID string) ([]models.LessonActivity, error) {
	const query = `SELECT id, enrollment_id, lesson_id, time_spent, last_position, completed, updated_at FROM lesson_activity WHERE enrollment_id = $1 ORDER BY updated_at DESC`
	var items []models.LessonActivity
	if err := r.db.SelectContext(ctx, &items, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list lesson activity: %w", err)
	}
	return items, nil
}

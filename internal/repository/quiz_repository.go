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

const quizSelect = `
SELECT q.id, q.course_id, q.title, q.description, q.duration, q.passing_score, q.max_attempts, q.created_at, q.updated_at,
	(SELECT COUNT(*) FROM questions qs WHERE qs.quiz_id = q.id) AS question_count,
	(SELECT COALESCE(SUM(qs.points), 0) FROM questions qs WHERE qs.quiz_id = q.id) AS total_points
FROM quizzes q`

const questionColumns = `id, quiz_id, question_text, option_a, option_b, option_c, option_d, correct_answer, points, "order"`

// QuizRepository persists quizzes and their questions.
type QuizRepository struct {
	db *sqlx.DB
}

// NewQuizRepository constructs a QuizRepository.
func NewQuizRepository(db *sqlx.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

// ListByCourse returns the course's quizzes with question totals.
func (r *QuizRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Quiz, error) {
	var items []models.Quiz
	if err := r.db.SelectContext(ctx, &items, quizSelect+` WHERE q.course_id = $1 ORDER BY q.created_at ASC`, courseID); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return items, nil
}

// FindByID returns one quiz with question totals.
func (r *QuizRepository) FindByID(ctx context.Context, id string) (*models.Quiz, error) {
	var item models.Quiz
	if err := r.db.GetContext(ctx, &item, quizSelect+` WHERE q.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find quiz: %w", err)
	}
	return &item, nil
}

// Create inserts a quiz.
func (r *QuizRepository) Create(ctx context.Context, item *models.Quiz) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now
	const query = `INSERT INTO quizzes (id, course_id, title, description, duration, passing_score, max_attempts, created_at, updated_at)
VALUES (:id, :course_id, :title, :description, :duration, :passing_score, :max_attempts, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}
	return nil
}

// Update writes the editable quiz fields.
func (r *QuizRepository) Update(ctx context.Context, item *models.Quiz) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE quizzes SET title = :title, description = :description, duration = :duration, passing_score = :passing_score, max_attempts = :max_attempts, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a quiz and its questions.
func (r *QuizRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	return expectAffected(res)
}

// ListQuestions returns a quiz's questions in order.
func (r *QuizRepository) ListQuestions(ctx context.Context, quizID string) ([]models.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE quiz_id = $1 ORDER BY "order" ASC`
	var items []models.Question
	if err := r.db.SelectContext(ctx, &items, query, quizID); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return items, nil
}

// FindQuestion returns one question.
func (r *QuizRepository) FindQuestion(ctx context.Context, id string) (*models.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`
	var item models.Question
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find question: %w", err)
	}
	return &item, nil
}

// CreateQuestion inserts a question. A taken (quiz, order) pair yields ErrDuplicate.
func (r *QuizRepository) CreateQuestion(ctx context.Context, item *models.Question) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	const query = `INSERT INTO questions (id, quiz_id, question_text, option_a, option_b, option_c, option_d, correct_answer, points, "order")
VALUES (:id, :quiz_id, :question_text, :option_a, :option_b, :option_c, :option_d, :correct_answer, :points, :order)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}

// UpdateQuestion writes every question field.
func (r *QuizRepository) UpdateQuestion(ctx context.Context, item *models.Question) error {
	const query = `UPDATE questions SET question_text = :question_text, option_a = :option_a, option_b = :option_b, option_c = :option_c,
	option_d = :option_d, correct_answer = :correct_answer, points = :points, "order" = :order WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update question: %w", err)
	}
	return expectAffected(res)
}

// DeleteQuestion removes a question.
func (r *QuizRepository) DeleteQuestion(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return expectAffected(res)
}

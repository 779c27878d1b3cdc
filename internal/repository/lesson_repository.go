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

const lessonColumns = `id, course_id, title, description, "order", duration, media_type, video_url, external_link, created_at, updated_at`

// LessonRepository persists lessons and their attached videos.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs a LessonRepository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// ListByCourse returns the course's lessons in order.
func (r *LessonRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE course_id = $1 ORDER BY "order" ASC`
	var items []models.Lesson
	if err := r.db.SelectContext(ctx, &items, query, courseID); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return items, nil
}

// FindByID returns one lesson.
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1`
	var item models.Lesson
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find lesson: %w", err)
	}
	return &item, nil
}

// Create inserts a lesson. A taken (course, order) pair yields ErrDuplicate.
func (r *LessonRepository) Create(ctx context.Context, item *models.Lesson) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now
	const query = `INSERT INTO lessons (id, course_id, title, description, "order", duration, media_type, video_url, external_link, created_at, updated_at)
VALUES (:id, :course_id, :title, :description, :order, :duration, :media_type, :video_url, :external_link, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create lesson: %w", err)
	}
	return nil
}

// Update writes every editable lesson field.
func (r *LessonRepository) Update(ctx context.Context, item *models.Lesson) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lessons SET title = :title, description = :description, "order" = :order, duration = :duration,
	media_type = :media_type, video_url = :video_url, external_link = :external_link, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update lesson: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a lesson.
func (r *LessonRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	return expectAffected(res)
}

const videoColumns = `id, lesson_id, video_url, video_type, duration, thumbnail_url, storage_provider, created_at, updated_at`

// ListVideos returns the videos attached to a lesson.
func (r *LessonRepository) ListVideos(ctx context.Context, lessonID string) ([]models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE lesson_id = $1 ORDER BY created_at ASC`
	var items []models.Video
	if err := r.db.SelectContext(ctx, &items, query, lessonID); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return items, nil
}

// FindVideo returns one video.
func (r *LessonRepository) FindVideo(ctx context.Context, id string) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`
	var item models.Video
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find video: %w", err)
	}
	return &item, nil
}

// CreateVideo inserts a video row.
func (r *LessonRepository) CreateVideo(ctx context.Context, item *models.Video) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now
	const query = `INSERT INTO videos (id, lesson_id, video_url, video_type, duration, thumbnail_url, storage_provider, created_at, updated_at)
VALUES (:id, :lesson_id, :video_url, :video_type, :duration, :thumbnail_url, :storage_provider, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create video: %w", err)
	}
	return nil
}

// DeleteVideo removes a video row.
func (r *LessonRepository) DeleteVideo(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	return expectAffected(res)
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/skillhub-api/internal/models"
)

const courseSelect = `
SELECT co.id, co.instructor_id, co.category_id, co.title, co.description, co.syllabus, co.price,
	co.thumbnail_url, co.status, co.admin_comment, co.created_at, co.updated_at,
	TRIM(u.first_name || ' ' || u.last_name) AS instructor_name,
	u.email AS instructor_email,
	COALESCE(cat.name, '') AS category_name,
	(SELECT COUNT(*) FROM lessons l WHERE l.course_id = co.id) AS lesson_count,
	(SELECT COALESCE(SUM(l.duration), 0) FROM lessons l WHERE l.course_id = co.id) AS total_duration,
	(SELECT COUNT(*) FROM enrollments e WHERE e.course_id = co.id) AS enrollment_count
FROM courses co
JOIN users u ON u.id = co.instructor_id
LEFT JOIN categories cat ON cat.id = co.category_id`

var courseOrdering = map[string]string{
	"created_at":  "co.created_at ASC",
	"-created_at": "co.created_at DESC",
	"price":       "co.price ASC",
	"-price":      "co.price DESC",
	"title":       "co.title ASC",
	"-title":      "co.title DESC",
}

// CourseRepository persists courses and serves catalog queries.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses matching filter with the total count.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	var conds conditions
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		conds.add("co.status = ANY(?)", pq.Array(statuses))
	}
	if filter.InstructorID != "" {
		conds.add("co.instructor_id = ?", filter.InstructorID)
	}
	if len(filter.CategoryIDs) > 0 {
		conds.add("co.category_id = ANY(?)", pq.Array(filter.CategoryIDs))
	}
	if filter.IsFree != nil {
		if *filter.IsFree {
			conds.add("co.price = 0")
		} else {
			conds.add("co.price > 0")
		}
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + search + "%"
		conds.add("(co.title ILIKE ? OR co.description ILIKE ?)", pattern, pattern)
	}

	orderBy, ok := courseOrdering[filter.Ordering]
	if !ok {
		orderBy = courseOrdering["-created_at"]
	}
	limit, offset := limitOffset(filter.Page, filter.PageSize)

	query := fmt.Sprintf("%s%s ORDER BY %s, co.id LIMIT %d OFFSET %d", courseSelect, conds.where(), orderBy, limit, offset)
	var items []models.Course
	if err := r.db.SelectContext(ctx, &items, query, conds.args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM courses co"+conds.where(), conds.args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return items, total, nil
}

// FindByID returns a course with computed fields.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	var item models.Course
	if err := r.db.GetContext(ctx, &item, courseSelect+` WHERE co.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &item, nil
}

// Create inserts a course.
func (r *CourseRepository) Create(ctx context.Context, item *models.Course) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now
	if item.Status == "" {
		item.Status = models.CourseStatusDraft
	}
	const query = `INSERT INTO courses (id, instructor_id, category_id, title, description, syllabus, price, thumbnail_url, status, admin_comment, created_at, updated_at)
VALUES (:id, :instructor_id, :category_id, :title, :description, :syllabus, :price, :thumbnail_url, :status, :admin_comment, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update writes the editable course fields.
func (r *CourseRepository) Update(ctx context.Context, item *models.Course) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET category_id = :category_id, title = :title, description = :description, syllabus = :syllabus, price = :price, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return expectAffected(res)
}

// SetThumbnail stores the thumbnail location.
func (r *CourseRepository) SetThumbnail(ctx context.Context, id, url string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE courses SET thumbnail_url = $2, updated_at = $3 WHERE id = $1`, id, url, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set course thumbnail: %w", err)
	}
	return expectAffected(res)
}

// TransitionStatus moves a course from one status to another. It reports sql.ErrNoRows when
// the course is no longer in the expected status.
func (r *CourseRepository) TransitionStatus(ctx context.Context, id string, from, to models.CourseStatus, comment string) error {
	const query = `UPDATE courses SET status = $3, admin_comment = $4, updated_at = $5 WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, id, from, to, comment, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("transition course status: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a course and its content.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return expectAffected(res)
}

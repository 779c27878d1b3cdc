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

const categorySelect = `
SELECT c.id, c.name, c.description, c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM courses co WHERE co.category_id = c.id AND co.status = 'APPROVED') AS course_count
FROM categories c`

// CategoryRepository manages catalog categories.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository constructs a CategoryRepository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns every category ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var items []models.Category
	if err := r.db.SelectContext(ctx, &items, categorySelect+` ORDER BY c.name ASC`); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return items, nil
}

// FindByID returns a category with its approved course count.
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*models.Category, error) {
	var item models.Category
	if err := r.db.GetContext(ctx, &item, categorySelect+` WHERE c.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	return &item, nil
}

// Exists reports whether the category id is known.
func (r *CategoryRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("category exists: %w", err)
	}
	return exists, nil
}

// Create inserts a category. A duplicate name yields ErrDuplicate.
func (r *CategoryRepository) Create(ctx context.Context, item *models.Category) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now
	const query = `INSERT INTO categories (id, name, description, created_at, updated_at) VALUES (:id, :name, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// Update replaces name and description.
func (r *CategoryRepository) Update(ctx context.Context, item *models.Category) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE categories SET name = :name, description = :description, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update category: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a category. Courses keep existing with a null category.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return expectAffected(res)
}

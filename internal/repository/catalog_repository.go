package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gigscape/backend/internal/models"
	"github.com/gigscape/backend/internal/repository/common"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrSkillNotFound    = errors.New("skill not found")
)

// CatalogRepository manages the category and skill reference data.
type CatalogRepository struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListCategories returns all categories sorted by name.
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.SelectContext(ctx, &categories, `SELECT * FROM categories ORDER BY name`)
	return categories, err
}

// GetCategory returns a category by id.
func (r *CatalogRepository) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return common.GetByID[models.Category](ctx, r.db, "categories", id, ErrCategoryNotFound)
}

// CreateCategory inserts a category; duplicate names conflict.
func (r *CatalogRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO categories (name, description) VALUES ($1, $2)
		RETURNING id, created_at
	`, category.Name, category.Description).Scan(&category.ID, &category.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("catalog repository: create category %w", err)
	}
	return nil
}

// DeleteCategory removes a category.
func (r *CatalogRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// ListSkills returns all skills, optionally for one category.
func (r *CatalogRepository) ListSkills(ctx context.Context, categoryID *uuid.UUID) ([]models.Skill, error) {
	var skills []models.Skill
	if categoryID != nil {
		err := r.db.SelectContext(ctx, &skills, `SELECT * FROM skills WHERE category_id = $1 ORDER BY name`, *categoryID)
		return skills, err
	}
	err := r.db.SelectContext(ctx, &skills, `SELECT * FROM skills ORDER BY name`)
	return skills, err
}

// CreateSkill inserts a skill; duplicate names conflict.
func (r *CatalogRepository) CreateSkill(ctx context.Context, skill *models.Skill) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO skills (name, category_id) VALUES ($1, $2)
		RETURNING id, created_at
	`, skill.Name, skill.CategoryID).Scan(&skill.ID, &skill.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("catalog repository: create skill %w", err)
	}
	return nil
}

// DeleteSkill removes a skill.
func (r *CatalogRepository) DeleteSkill(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM skills WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrSkillNotFound
	}
	return nil
}

// isUniqueViolation reports a Postgres unique constraint error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/gigscape/backend/internal/models"
	"github.com/gigscape/backend/internal/pkg/apperror"
	"github.com/gigscape/backend/internal/repository/common"
	"github.com/gigscape/backend/internal/validation"
)

// CatalogRepository is the storage surface for categories and skills.
type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	ListSkills(ctx context.Context, categoryID *uuid.UUID) ([]models.Skill, error)
	CreateSkill(ctx context.Context, skill *models.Skill) error
	DeleteSkill(ctx context.Context, id uuid.UUID) error
}

// CatalogService manages the category and skill reference data. Writes are
// admin only, enforced at the router.
type CatalogService struct {
	repo CatalogRepository
}

func NewCatalogService(repo CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string, description *string) (*models.Category, error) {
	if err := validation.ValidateLength("name", name, 2, 100); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	category := &models.Category{Name: name, Description: description}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, apperror.New(apperror.ErrCodeConflict, "category already exists")
		}
		return nil, err
	}
	return category, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteCategory(ctx, id)
}

func (s *CatalogService) ListSkills(ctx context.Context, categoryID *uuid.UUID) ([]models.Skill, error) {
	return s.repo.ListSkills(ctx, categoryID)
}

func (s *CatalogService) CreateSkill(ctx context.Context, name string, categoryID *uuid.UUID) (*models.Skill, error) {
	if err := validation.ValidateLength("name", name, 1, 100); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	skill := &models.Skill{Name: name, CategoryID: categoryID}
	if err := s.repo.CreateSkill(ctx, skill); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, apperror.New(apperror.ErrCodeConflict, "skill already exists")
		}
		return nil, err
	}
	return skill, nil
}

func (s *CatalogService) DeleteSkill(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteSkill(ctx, id)
}

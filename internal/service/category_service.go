package service

import (
	"context"
	"errors"
	"strings"

	"commsdesk/internal/model"
	"commsdesk/internal/repository"
	"commsdesk/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoryRequest carries category create/update fields.
type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// CategoryService manages the content category reference data.
type CategoryService interface {
	Create(ctx context.Context, req CategoryRequest) (*model.Category, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	Update(ctx context.Context, id uuid.UUID, req CategoryRequest) (*model.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryService struct {
	categories repository.CategoryRepository
	contents   repository.ContentRepository
}

func NewCategoryService(categories repository.CategoryRepository, contents repository.ContentRepository) CategoryService {
	return &categoryService{categories: categories, contents: contents}
}

func (s *categoryService) Create(ctx context.Context, req CategoryRequest) (*model.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.New(apperr.Validation, "Category name is required")
	}

	if _, err := s.categories.GetByName(ctx, name); err == nil {
		return nil, apperr.New(apperr.Conflict, "Category name already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.Store, "failed to check category name", err)
	}

	category := &model.Category{
		Name:        name,
		Description: req.Description,
		Icon:        req.Icon,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, apperr.Wrap(apperr.Store, "failed to create category", err)
	}
	return category, nil
}

func (s *categoryService) Get(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Category not found")
		}
		return nil, apperr.Wrap(apperr.Store, "failed to load category", err)
	}
	return category, nil
}

func (s *categoryService) List(ctx context.Context) ([]model.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Store, "failed to list categories", err)
	}
	return categories, nil
}

func (s *categoryService) Update(ctx context.Context, id uuid.UUID, req CategoryRequest) (*model.Category, error) {
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name != "" && name != category.Name {
		if _, err := s.categories.GetByName(ctx, name); err == nil {
			return nil, apperr.New(apperr.Conflict, "Category name already exists")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(apperr.Store, "failed to check category name", err)
		}
		category.Name = name
	}
	category.Description = req.Description
	category.Icon = req.Icon

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, apperr.Wrap(apperr.Store, "failed to update category", err)
	}
	return category, nil
}

// Delete refuses to remove a category that still classifies content.
func (s *categoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	catID := id
	_, total, err := s.contents.List(ctx, repository.ContentFilter{CategoryID: &catID, Limit: 1})
	if err != nil {
		return apperr.Wrap(apperr.Store, "failed to check category usage", err)
	}
	if total > 0 {
		return apperr.New(apperr.Conflict, "Category is still in use by existing content")
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		return apperr.Wrap(apperr.Store, "failed to delete category", err)
	}
	return nil
}

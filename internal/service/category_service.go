package service

import (
	"context"
	"fmt"
	"strings"

	"sm-portal/internal/domain"
	"sm-portal/internal/repository"
)

// CategoryInput carries category fields. A nil SortOrder means "not supplied".
type CategoryInput struct {
	Name      string
	SortOrder *int
}

type CategoryService interface {
	ListCategories(ctx context.Context) ([]domain.ReferenceCategory, error)
	CreateCategory(ctx context.Context, in CategoryInput) (*domain.ReferenceCategory, error)
	UpdateCategory(ctx context.Context, id int64, in CategoryInput) (*domain.ReferenceCategory, error)
	DeleteCategory(ctx context.Context, id int64) error
}

type categoryService struct {
	categories repository.ReferenceCategoryRepository
}

func NewCategoryService(categories repository.ReferenceCategoryRepository) CategoryService {
	return &categoryService{categories: categories}
}

func (s *categoryService) ListCategories(ctx context.Context) ([]domain.ReferenceCategory, error) {
	return s.categories.List(ctx)
}

func (s *categoryService) CreateCategory(ctx context.Context, in CategoryInput) (*domain.ReferenceCategory, error) {
	if err := requireFields(field{"category name", in.Name}); err != nil {
		return nil, err
	}
	category := &domain.ReferenceCategory{Name: strings.TrimSpace(in.Name)}
	if in.SortOrder != nil {
		category.SortOrder = *in.SortOrder
	}
	if _, err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (*domain.ReferenceCategory, error) {
	if err := requireFields(field{"category name", in.Name}); err != nil {
		return nil, err
	}
	category, err := s.categories.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("category %d", id))
	}
	category.Name = strings.TrimSpace(in.Name)
	if in.SortOrder != nil {
		category.SortOrder = *in.SortOrder
	}
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, notFound(err, fmt.Sprintf("category %d", id))
	}
	return category, nil
}

// DeleteCategory removes the category; its references become uncategorised.
func (s *categoryService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		return notFound(err, fmt.Sprintf("category %d", id))
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stockroom/internal/domain"
	"stockroom/internal/pkg/clock"
	"stockroom/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrEmptyCategoryName = errors.New("category name is required")
)

// CategoryService supplies the category list shown by product forms and runs
// the add-category workflow
type CategoryService interface {
	List(ctx context.Context) ([]*domain.Category, error)
	Names(ctx context.Context) ([]string, error)
	Add(ctx context.Context, name, description string) (*domain.Category, error)
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	clock        clock.Clock
}

// NewCategoryService creates a new instance of CategoryService
func NewCategoryService(categoryRepo repository.CategoryRepository, clk clock.Clock) CategoryService {
	return &categoryService{categoryRepo: categoryRepo, clock: clk}
}

// List returns every category ordered by name
func (s *categoryService) List(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Names returns category names in list order
func (s *categoryService) Names(ctx context.Context) ([]string, error) {
	categories, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	return names, nil
}

// Add creates a category. Names are trimmed and must be unique.
func (s *categoryService) Add(ctx context.Context, name, description string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyCategoryName
	}

	category := &domain.Category{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   s.clock.Now().UTC(),
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return category, nil
}

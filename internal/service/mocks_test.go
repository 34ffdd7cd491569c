package service

import (
	"context"

	"stockroom/internal/domain"
	"stockroom/internal/repository"

	"github.com/google/uuid"
)

// Mock repositories for testing
type mockCategoryRepository struct {
	categories map[string]*domain.Category
	err        error
}

func newMockCategoryRepository(names ...string) *mockCategoryRepository {
	m := &mockCategoryRepository{categories: make(map[string]*domain.Category)}
	for _, name := range names {
		m.categories[name] = &domain.Category{ID: uuid.New(), Name: name}
	}
	return m
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	if m.err != nil {
		return m.err
	}
	if _, exists := m.categories[category.Name]; exists {
		return repository.ErrCategoryAlreadyExists
	}
	m.categories[category.Name] = category
	return nil
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Category
	for _, c := range m.categories {
		out = append(out, c)
	}
	// keep the repository contract: ordered by name
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Name > out[j].Name; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	for _, c := range m.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

func (m *mockCategoryRepository) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.categories[name]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return c, nil
}

type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *mockProductRepository) List(ctx context.Context, categoryID *uuid.UUID, page, pageSize int) ([]*domain.Product, int, error) {
	var out []*domain.Product
	for _, p := range m.products {
		if categoryID == nil || p.CategoryID == *categoryID {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"stockroom/internal/domain"
	"stockroom/internal/form"
	"stockroom/internal/pkg/clock"
	"stockroom/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownCategory = errors.New("category does not exist")
	ErrInvalidNumber   = errors.New("value is not a number")
	ErrNegativeNumber  = errors.New("value must not be negative")
	ErrInvalidLocation = errors.New("unknown storage location")
	ErrNameTooLong     = errors.New("product name is too long")
	ErrValueTooLarge   = errors.New("value is too large")
)

// MaxProductNameLength matches products.name VARCHAR(255), in characters
const MaxProductNameLength = 255

// Stored quantities are DECIMAL(10, 2) for price and DECIMAL(12, 3) for units
// and reorder level. Values are rounded to scale first, then must stay below
// the limit.
var (
	priceLimit    = decimal.New(1, 8)
	quantityLimit = decimal.New(1, 9)
)

const (
	priceScale    = 2
	quantityScale = 3
)

// defaultReorderLevel applies when a payload leaves reorder_level empty
var defaultReorderLevel = decimal.NewFromInt(5)

// FieldError ties a rejected payload value to its form field
type FieldError struct {
	Field form.Field
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ProductService persists products submitted through the product form
type ProductService interface {
	Create(ctx context.Context, payload form.Payload) (*domain.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, categoryID *uuid.UUID, page, pageSize int) ([]*domain.Product, int, error)
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	clock        clock.Clock
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	clk clock.Clock,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		clock:        clk,
	}
}

// Create converts a submitted payload into a product and stores it
func (s *productService) Create(ctx context.Context, payload form.Payload) (*domain.Product, error) {
	if utf8.RuneCountInString(payload.ProductName) > MaxProductNameLength {
		return nil, &FieldError{Field: form.FieldProductName, Err: ErrNameTooLong}
	}

	category, err := s.categoryRepo.FindByName(ctx, payload.Category)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, &FieldError{Field: form.FieldCategory, Err: ErrUnknownCategory}
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}

	price, err := parseQuantity(form.FieldPrice, payload.Price, priceScale, priceLimit)
	if err != nil {
		return nil, err
	}
	units, err := parseQuantity(form.FieldUnits, payload.Units, quantityScale, quantityLimit)
	if err != nil {
		return nil, err
	}

	reorderLevel := defaultReorderLevel
	if payload.ReorderLevel != "" {
		if reorderLevel, err = parseQuantity(form.FieldReorderLevel, payload.ReorderLevel, quantityScale, quantityLimit); err != nil {
			return nil, err
		}
	}

	if !payload.Location.Valid() {
		return nil, &FieldError{Field: form.FieldLocation, Err: ErrInvalidLocation}
	}

	var expiry *time.Time
	if payload.ExpiryDate != "" {
		day, err := time.Parse(form.DateLayout, payload.ExpiryDate)
		if err != nil {
			return nil, &FieldError{Field: form.FieldExpiryDate, Err: form.ErrInvalidDate}
		}
		expiry = &day
	}

	now := s.clock.Now().UTC()
	product := &domain.Product{
		ID:           uuid.New(),
		Name:         payload.ProductName,
		CategoryID:   category.ID,
		Category:     category.Name,
		ExpiryDate:   expiry,
		Price:        price,
		Units:        units,
		ReorderLevel: reorderLevel,
		Location:     payload.Location,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// Get returns a stored product
func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// List returns a page of products
func (s *productService) List(ctx context.Context, categoryID *uuid.UUID, page, pageSize int) ([]*domain.Product, int, error) {
	return s.productRepo.List(ctx, categoryID, page, pageSize)
}

// parseQuantity parses a non-negative decimal rounded to scale places that
// fits below limit
func parseQuantity(field form.Field, value string, scale int32, limit decimal.Decimal) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, &FieldError{Field: field, Err: ErrInvalidNumber}
	}
	if d.IsNegative() {
		return decimal.Decimal{}, &FieldError{Field: field, Err: ErrNegativeNumber}
	}
	d = d.Round(scale)
	if d.GreaterThanOrEqual(limit) {
		return decimal.Decimal{}, &FieldError{Field: field, Err: ErrValueTooLarge}
	}
	return d, nil
}

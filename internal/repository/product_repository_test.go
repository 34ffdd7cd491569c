package repository

import (
	"context"
	"testing"
	"time"

	"stockroom/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func createTestCategory(t *testing.T, repo CategoryRepository) *domain.Category {
	t.Helper()
	category := &domain.Category{
		ID:          uuid.New(),
		Name:        "Category " + uuid.NewString(),
		Description: "test category",
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := repo.Create(context.Background(), category); err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}
	return category
}

func TestCategoryRepository(t *testing.T) {
	db := requireDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	category := createTestCategory(t, repo)

	byName, err := repo.FindByName(ctx, category.Name)
	if err != nil {
		t.Fatalf("FindByName failed: %v", err)
	}
	if byName.ID != category.ID {
		t.Errorf("FindByName returned %s, want %s", byName.ID, category.ID)
	}

	duplicate := *category
	duplicate.ID = uuid.New()
	if err := repo.Create(ctx, &duplicate); err != ErrCategoryAlreadyExists {
		t.Errorf("duplicate name: got %v, want ErrCategoryAlreadyExists", err)
	}

	if _, err := repo.FindByName(ctx, "missing "+uuid.NewString()); err != ErrCategoryNotFound {
		t.Errorf("missing name: got %v, want ErrCategoryNotFound", err)
	}
	if _, err := repo.FindByID(ctx, uuid.New()); err != ErrCategoryNotFound {
		t.Errorf("missing id: got %v, want ErrCategoryNotFound", err)
	}

	categories, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	for i := 1; i < len(categories); i++ {
		if categories[i-1].Name > categories[i].Name {
			t.Errorf("categories not ordered by name: %q before %q", categories[i-1].Name, categories[i].Name)
		}
	}
}

func TestProperty_ProductCreationPreservesAttributes(t *testing.T) {
	db := requireDB(t)
	productRepo := NewProductRepository(db)
	category := createTestCategory(t, NewCategoryRepository(db))

	properties := gopter.NewProperties(nil)

	properties.Property("creating and retrieving a product preserves all attributes", prop.ForAll(
		func(name string, cents int64, units int64, reorder int64, warehouse bool, expiryOffset int) bool {
			ctx := context.Background()
			now := time.Now().UTC().Truncate(time.Microsecond)

			product := &domain.Product{
				ID:           uuid.New(),
				Name:         name,
				CategoryID:   category.ID,
				Price:        decimal.New(cents, -2),
				Units:        decimal.NewFromInt(units),
				ReorderLevel: decimal.NewFromInt(reorder),
				Location:     domain.LocationLocal,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if warehouse {
				product.Location = domain.LocationWarehouse
			}
			if expiryOffset > 0 {
				expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, expiryOffset)
				product.ExpiryDate = &expiry
			}

			if err := productRepo.Create(ctx, product); err != nil {
				t.Logf("FAIL: Failed to create product: %v", err)
				return false
			}

			retrieved, err := productRepo.FindByID(ctx, product.ID)
			if err != nil {
				t.Logf("FAIL: Failed to retrieve product: %v", err)
				return false
			}

			if retrieved.Name != product.Name || retrieved.Category != category.Name {
				t.Logf("FAIL: name/category mismatch: %+v", retrieved)
				return false
			}
			if !retrieved.Price.Equal(product.Price) || !retrieved.Units.Equal(product.Units) ||
				!retrieved.ReorderLevel.Equal(product.ReorderLevel) {
				t.Logf("FAIL: numeric mismatch: %s %s %s", retrieved.Price, retrieved.Units, retrieved.ReorderLevel)
				return false
			}
			if retrieved.Location != product.Location {
				t.Logf("FAIL: location mismatch: %s", retrieved.Location)
				return false
			}
			if (product.ExpiryDate == nil) != (retrieved.ExpiryDate == nil) {
				t.Logf("FAIL: expiry presence mismatch")
				return false
			}
			if product.ExpiryDate != nil &&
				retrieved.ExpiryDate.Format("2006-01-02") != product.ExpiryDate.Format("2006-01-02") {
				t.Logf("FAIL: expiry mismatch: %s", retrieved.ExpiryDate)
				return false
			}

			return true
		},
		gen.RegexMatch(`[A-Za-z0-9 ]{2,50}`),
		gen.Int64Range(0, 99999999),
		gen.Int64Range(0, 100000),
		gen.Int64Range(0, 1000),
		gen.Bool(),
		gen.IntRange(0, 3650),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProductRepositoryListFiltersByCategory(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	categoryRepo := NewCategoryRepository(db)
	productRepo := NewProductRepository(db)

	category := createTestCategory(t, categoryRepo)
	for i := 0; i < 3; i++ {
		now := time.Now().UTC()
		err := productRepo.Create(ctx, &domain.Product{
			ID:           uuid.New(),
			Name:         "Listed",
			CategoryID:   category.ID,
			Price:        decimal.NewFromInt(1),
			Units:        decimal.NewFromInt(int64(i)),
			ReorderLevel: decimal.NewFromInt(5),
			Location:     domain.LocationLocal,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	page, total, err := productRepo.List(ctx, &category.ID, 1, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(page) != 2 {
		t.Errorf("page size = %d, want 2", len(page))
	}

	if _, err := productRepo.FindByID(ctx, uuid.New()); err != ErrProductNotFound {
		t.Errorf("missing product: got %v, want ErrProductNotFound", err)
	}
}

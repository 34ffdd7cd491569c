package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"stockroom/internal/domain"
	"stockroom/internal/pkg/clock"
	"stockroom/internal/repository"
	"stockroom/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memCategories is an in-memory CategoryRepository
type memCategories struct {
	mu     sync.Mutex
	byName map[string]*domain.Category
}

func newMemCategories(names ...string) *memCategories {
	m := &memCategories{byName: make(map[string]*domain.Category)}
	for _, name := range names {
		m.byName[name] = &domain.Category{ID: uuid.New(), Name: name}
	}
	return m
}

func (m *memCategories) Create(ctx context.Context, c *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[c.Name]; ok {
		return repository.ErrCategoryAlreadyExists
	}
	m.byName[c.Name] = c
	return nil
}

func (m *memCategories) List(ctx context.Context) ([]*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Category, 0, len(m.byName))
	for _, c := range m.byName {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memCategories) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byName {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

func (m *memCategories) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.byName[name]; ok {
		return c, nil
	}
	return nil, repository.ErrCategoryNotFound
}

func (m *memCategories) remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byName, name)
}

// memProducts is an in-memory ProductRepository
type memProducts struct {
	mu       sync.Mutex
	products []*domain.Product
	// delay slows Create down so that concurrent requests overlap
	delay time.Duration
}

func (m *memProducts) Create(ctx context.Context, p *domain.Product) error {
	time.Sleep(m.delay)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = append(m.products, p)
	return nil
}

func (m *memProducts) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *memProducts) List(ctx context.Context, categoryID *uuid.UUID, page, pageSize int) ([]*domain.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*domain.Product
	for i := len(m.products) - 1; i >= 0; i-- {
		p := m.products[i]
		if categoryID == nil || p.CategoryID == *categoryID {
			matched = append(matched, p)
		}
	}
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return []*domain.Product{}, len(matched), nil
	}
	end := min(start+pageSize, len(matched))
	return matched[start:end], len(matched), nil
}

func (m *memProducts) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.products)
}

type fixture struct {
	router     http.Handler
	redis      *miniredis.Miniredis
	drafts     repository.DraftStore
	categories *memCategories
	products   *memProducts
	clock      *clock.MockClock
}

var fixtureNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	fx := &fixture{
		redis:      mr,
		drafts:     repository.NewRedisDraftStore(client, 30*time.Minute, "product_form"),
		categories: newMemCategories("Bakery", "Dairy", "Produce"),
		products:   &memProducts{},
		clock:      clock.NewMockClock(fixtureNow),
	}

	categoryService := service.NewCategoryService(fx.categories, fx.clock)
	productService := service.NewProductService(fx.products, fx.categories, fx.clock)
	logger := zap.NewNop()

	passthrough := func(next http.Handler) http.Handler { return next }

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		NewFormHandler(fx.drafts, categoryService, productService, fx.clock, time.UTC, logger).RegisterRoutes(r, passthrough)
		NewCategoryHandler(categoryService, logger).RegisterRoutes(r)
		NewProductHandler(productService, logger).RegisterRoutes(r)
	})
	fx.router = r

	return fx
}

func (fx *fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	fx.router.ServeHTTP(rr, req)
	return rr
}

// open mounts a new form and returns its id
func (fx *fixture) open(t *testing.T) string {
	t.Helper()
	rr := fx.do(t, http.MethodPost, "/api/product-forms", nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp FormResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.ID
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			ValidationErrors []struct {
				Field   string `json:"field"`
				Message string `json:"message"`
			} `json:"validation_errors"`
		} `json:"details"`
	} `json:"error"`
}

func (e errorEnvelope) fields() map[string]string {
	out := make(map[string]string)
	for _, v := range e.Error.Details.ValidationErrors {
		out[v.Field] = v.Message
	}
	return out
}

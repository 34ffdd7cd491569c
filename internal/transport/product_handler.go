package transport

import (
	"errors"
	"net/http"
	"strconv"

	"stockroom/internal/middleware"
	"stockroom/internal/repository"
	"stockroom/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ListProductsQuery holds the product list query parameters
type ListProductsQuery struct {
	Page       int    `query:"page" validate:"gte=1"`
	PageSize   int    `query:"page_size" validate:"gte=1,lte=100"`
	CategoryID string `query:"category_id" validate:"omitempty,uuid"`
}

// ProductListResponse is one page of products
type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// ProductHandler serves products created through product forms
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers the product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{productID}", h.Get)
	})
}

// List returns a page of products, newest first
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query := ListProductsQuery{
		Page:       queryInt(r, "page", 1),
		PageSize:   queryInt(r, "page_size", 20),
		CategoryID: r.URL.Query().Get("category_id"),
	}
	if err := middleware.ValidateRequest(&query); err != nil {
		middleware.RespondWithValidationErrors(w, http.StatusBadRequest, middleware.FormatValidationErrors(err))
		return
	}

	var categoryID *uuid.UUID
	if query.CategoryID != "" {
		id := uuid.MustParse(query.CategoryID)
		categoryID = &id
	}

	products, total, err := h.productService.List(r.Context(), categoryID, query.Page, query.PageSize)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	resp := ProductListResponse{
		Products: make([]ProductResponse, 0, len(products)),
		Total:    total,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	for _, p := range products {
		resp.Products = append(resp.Products, newProductResponse(p))
	}

	middleware.RespondWithJSON(w, http.StatusOK, resp)
}

// Get returns one product
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to get product", zap.String("product_id", id.String()), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newProductResponse(product))
}

// queryInt reads an integer query parameter. Malformed values become 0 so
// that validation reports them.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

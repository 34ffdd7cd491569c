package transport

import (
	"errors"
	"net/http"

	"stockroom/internal/domain"
	"stockroom/internal/middleware"
	"stockroom/internal/repository"
	"stockroom/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateCategoryRequest represents the add-category payload
type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// CategoryListResponse lists categories in the order forms show them
type CategoryListResponse struct {
	Categories []*domain.Category `json:"categories"`
}

// CategoryHandler handles HTTP requests for categories
type CategoryHandler struct {
	categoryService service.CategoryService
	logger          *zap.Logger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService service.CategoryService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		logger:          logger,
	}
}

// RegisterRoutes registers the category routes
func (h *CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
	})
}

// List returns every category
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryService.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, CategoryListResponse{Categories: categories})
}

// Create runs the add-category workflow
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Category validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, http.StatusBadRequest, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := h.categoryService.Add(r.Context(), req.Name, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCategoryAlreadyExists):
			middleware.RespondWithError(w, http.StatusConflict, "category with this name already exists")
		case errors.Is(err, service.ErrEmptyCategoryName):
			middleware.RespondWithValidationErrors(w, http.StatusBadRequest, []middleware.ValidationError{
				{Field: "name", Message: "This field is required"},
			})
		default:
			h.logger.Error("Failed to create category", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create category")
		}
		return
	}

	h.logger.Info("Category created", zap.String("category_id", category.ID.String()), zap.String("name", category.Name))
	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

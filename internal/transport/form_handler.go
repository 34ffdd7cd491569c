package transport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"stockroom/internal/domain"
	"stockroom/internal/form"
	"stockroom/internal/middleware"
	"stockroom/internal/pkg/clock"
	"stockroom/internal/repository"
	"stockroom/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FormResponse is the state of an open product form
type FormResponse struct {
	ID             string     `json:"id"`
	State          string     `json:"state"`
	Draft          form.Draft `json:"draft"`
	Categories     []string   `json:"categories"`
	SelectableFrom string     `json:"selectable_from"`
}

// SelectDateRequest picks an expiry date in the form's date picker
type SelectDateRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

// WorkflowLink points the client at a collaborator endpoint
type WorkflowLink struct {
	Method string `json:"method"`
	Href   string `json:"href"`
}

// AddCategoryResponse answers a request to open the add-category workflow
type AddCategoryResponse struct {
	FormID   string       `json:"form_id"`
	Workflow WorkflowLink `json:"workflow"`
	ReturnTo WorkflowLink `json:"return_to"`
}

// FormHandler hosts product forms over HTTP. Each request rehydrates the form
// from the draft store and wires its callbacks to the collaborators.
type FormHandler struct {
	drafts     repository.DraftStore
	categories service.CategoryService
	products   service.ProductService
	clock      clock.Clock
	location   *time.Location
	logger     *zap.Logger
}

// NewFormHandler creates a new FormHandler
func NewFormHandler(
	drafts repository.DraftStore,
	categories service.CategoryService,
	products service.ProductService,
	clk clock.Clock,
	location *time.Location,
	logger *zap.Logger,
) *FormHandler {
	return &FormHandler{
		drafts:     drafts,
		categories: categories,
		products:   products,
		clock:      clk,
		location:   location,
		logger:     logger,
	}
}

// RegisterRoutes registers the product form routes. submitLimiter wraps the
// submit route only.
func (h *FormHandler) RegisterRoutes(r chi.Router, submitLimiter func(http.Handler) http.Handler) {
	r.Route("/product-forms", func(r chi.Router) {
		r.Post("/", h.Mount)
		r.Route("/{formID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Patch("/", h.UpdateFields)
			r.Put("/expiry-date", h.SelectDate)
			r.Delete("/expiry-date", h.ClearDate)
			r.With(submitLimiter).Post("/submit", h.Submit)
			r.Post("/cancel", h.Cancel)
			r.Post("/add-category", h.RequestAddCategory)
		})
	})
}

func (h *FormHandler) options() []form.Option {
	return []form.Option{form.WithClock(h.clock), form.WithLocation(h.location)}
}

func (h *FormHandler) response(id uuid.UUID, f *form.Form) FormResponse {
	return FormResponse{
		ID:             id.String(),
		State:          f.State().String(),
		Draft:          f.Draft(),
		Categories:     f.Categories(),
		SelectableFrom: f.Today().Format(form.DateLayout),
	}
}

// Mount opens a new form with a default draft
func (h *FormHandler) Mount(w http.ResponseWriter, r *http.Request) {
	names, err := h.categories.Names(r.Context())
	if err != nil {
		h.logger.Error("Failed to load categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to open product form")
		return
	}

	id := uuid.New()
	f := form.New(names, form.Callbacks{}, h.options()...)

	if err := h.drafts.Save(r.Context(), id, f.Draft()); err != nil {
		h.logger.Error("Failed to save draft", zap.String("form_id", id.String()), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to open product form")
		return
	}

	h.logger.Info("Product form opened", zap.String("form_id", id.String()))
	w.Header().Set("Location", "/api/product-forms/"+id.String())
	middleware.RespondWithJSON(w, http.StatusCreated, h.response(id, f))
}

type draftFetcher func(ctx context.Context, id uuid.UUID) (form.Draft, error)

// load rehydrates the form named in the URL. It writes the error response
// itself and returns ok=false when the form cannot be used.
func (h *FormHandler) load(w http.ResponseWriter, r *http.Request, cb form.Callbacks) (uuid.UUID, *form.Form, bool) {
	return h.fetch(w, r, cb, h.drafts.Load)
}

func (h *FormHandler) fetch(w http.ResponseWriter, r *http.Request, cb form.Callbacks, get draftFetcher) (uuid.UUID, *form.Form, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "formID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid form ID")
		return uuid.Nil, nil, false
	}

	draft, err := get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrDraftNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product form not found")
			return uuid.Nil, nil, false
		}
		h.logger.Error("Failed to load draft", zap.String("form_id", id.String()), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load product form")
		return uuid.Nil, nil, false
	}

	names, err := h.categories.Names(r.Context())
	if err != nil {
		h.logger.Error("Failed to load categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load product form")
		return uuid.Nil, nil, false
	}

	return id, form.Restore(draft, names, cb, h.options()...), true
}

func (h *FormHandler) save(w http.ResponseWriter, ctx context.Context, id uuid.UUID, f *form.Form) bool {
	if err := h.drafts.Save(ctx, id, f.Draft()); err != nil {
		h.logger.Error("Failed to save draft", zap.String("form_id", id.String()), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to save product form")
		return false
	}
	return true
}

// Get returns the current draft
func (h *FormHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, f, ok := h.load(w, r, form.Callbacks{})
	if !ok {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, h.response(id, f))
}

// UpdateFields applies {"field": "value"} changes in field display order
func (h *FormHandler) UpdateFields(w http.ResponseWriter, r *http.Request) {
	var changes map[string]string
	if err := middleware.DecodeJSON(r, &changes); err != nil {
		h.logger.Debug("Field update decode failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var unknown []middleware.ValidationError
	parsed := make(map[form.Field]string, len(changes))
	for name, value := range changes {
		field, ok := form.ParseField(name)
		if !ok {
			unknown = append(unknown, middleware.ValidationError{Field: name, Message: "Unknown field"})
			continue
		}
		parsed[field] = value
	}
	if len(unknown) > 0 {
		middleware.RespondWithValidationErrors(w, http.StatusBadRequest, unknown)
		return
	}

	id, f, ok := h.load(w, r, form.Callbacks{})
	if !ok {
		return
	}

	for _, field := range form.Fields {
		value, changed := parsed[field]
		if !changed {
			continue
		}
		if err := f.Set(field, value); err != nil {
			h.logger.Debug("Field change rejected", zap.String("form_id", id.String()), zap.String("field", string(field)), zap.Error(err))
			respondWithFieldError(w, field, err)
			return
		}
	}

	if !h.save(w, r.Context(), id, f) {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, h.response(id, f))
}

// SelectDate picks the expiry date; days before today are refused
func (h *FormHandler) SelectDate(w http.ResponseWriter, r *http.Request) {
	var req SelectDateRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, http.StatusBadRequest, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	day, err := time.Parse(form.DateLayout, req.Date)
	if err != nil {
		respondWithFieldError(w, form.FieldExpiryDate, form.ErrInvalidDate)
		return
	}

	id, f, ok := h.load(w, r, form.Callbacks{})
	if !ok {
		return
	}

	if err := f.SelectDate(day); err != nil {
		h.logger.Debug("Date not selectable", zap.String("form_id", id.String()), zap.Error(err))
		respondWithFieldError(w, form.FieldExpiryDate, err)
		return
	}

	if !h.save(w, r.Context(), id, f) {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, h.response(id, f))
}

// ClearDate removes the expiry date
func (h *FormHandler) ClearDate(w http.ResponseWriter, r *http.Request) {
	id, f, ok := h.load(w, r, form.Callbacks{})
	if !ok {
		return
	}

	if err := f.ClearDate(); err != nil {
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
		return
	}

	if !h.save(w, r.Context(), id, f) {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, h.response(id, f))
}

// Submit validates the draft and hands it to the product service. The draft
// is claimed from the store first so that concurrent submits of one form
// create at most one product; a refused draft is put back for correction.
func (h *FormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var (
		created    *domain.Product
		persistErr error
	)
	cb := form.Callbacks{
		OnSubmit: func(p form.Payload) {
			created, persistErr = h.products.Create(r.Context(), p)
		},
	}

	var (
		claimedID uuid.UUID
		claimed   *form.Draft
	)
	take := func(ctx context.Context, id uuid.UUID) (form.Draft, error) {
		d, err := h.drafts.Take(ctx, id)
		if err == nil {
			claimedID, claimed = id, &d
		}
		return d, err
	}

	id, f, ok := h.fetch(w, r, cb, take)
	if !ok {
		if claimed != nil {
			h.putBack(r.Context(), claimedID, *claimed)
		}
		return
	}
	draft := f.Draft()

	if err := f.Submit(); err != nil {
		h.putBack(r.Context(), id, draft)
		var errs form.Errors
		if errors.As(err, &errs) {
			h.logger.Debug("Product form rejected", zap.String("form_id", id.String()), zap.Strings("fields", fieldNames(errs)))
			middleware.RespondWithValidationErrors(w, http.StatusBadRequest, formValidationErrors(errs))
			return
		}
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
		return
	}

	if persistErr != nil {
		h.putBack(r.Context(), id, draft)
		var fieldErr *service.FieldError
		if errors.As(persistErr, &fieldErr) {
			h.logger.Debug("Product payload refused", zap.String("form_id", id.String()), zap.Error(persistErr))
			respondWithFieldError(w, fieldErr.Field, fieldErr.Err)
			return
		}
		h.logger.Error("Failed to create product", zap.String("form_id", id.String()), zap.Error(persistErr))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	h.logger.Info("Product created from form",
		zap.String("form_id", id.String()),
		zap.String("product_id", created.ID.String()),
	)
	w.Header().Set("Location", "/api/products/"+created.ID.String())
	middleware.RespondWithJSON(w, http.StatusCreated, newProductResponse(created))
}

// putBack returns a claimed draft to the store after a failed submit
func (h *FormHandler) putBack(ctx context.Context, id uuid.UUID, draft form.Draft) {
	if err := h.drafts.Save(ctx, id, draft); err != nil {
		h.logger.Error("Failed to restore draft after refused submit", zap.String("form_id", id.String()), zap.Error(err))
	}
}

// Cancel discards the draft without validating it
func (h *FormHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var discardErr error
	var id uuid.UUID
	cb := form.Callbacks{
		OnCancel: func() {
			discardErr = h.drafts.Delete(r.Context(), id)
		},
	}

	id, f, ok := h.load(w, r, cb)
	if !ok {
		return
	}

	if err := f.Cancel(); err != nil {
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
		return
	}

	if discardErr != nil && !errors.Is(discardErr, repository.ErrDraftNotFound) {
		h.logger.Error("Failed to discard cancelled draft", zap.String("form_id", id.String()), zap.Error(discardErr))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to cancel product form")
		return
	}

	h.logger.Info("Product form cancelled", zap.String("form_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// RequestAddCategory points the client at the add-category workflow
func (h *FormHandler) RequestAddCategory(w http.ResponseWriter, r *http.Request) {
	var resp *AddCategoryResponse
	var id uuid.UUID
	cb := form.Callbacks{
		OnAddCategory: func() {
			resp = &AddCategoryResponse{
				FormID:   id.String(),
				Workflow: WorkflowLink{Method: http.MethodPost, Href: "/api/categories"},
				ReturnTo: WorkflowLink{Method: http.MethodGet, Href: "/api/product-forms/" + id.String()},
			}
		},
	}

	id, f, ok := h.load(w, r, cb)
	if !ok {
		return
	}

	if err := f.RequestAddCategory(); err != nil || resp == nil {
		middleware.RespondWithError(w, http.StatusConflict, "product form is closed")
		return
	}

	h.logger.Debug("Add-category workflow requested", zap.String("form_id", id.String()))
	middleware.RespondWithJSON(w, http.StatusOK, resp)
}

func fieldNames(errs form.Errors) []string {
	fields := errs.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return names
}

package transport

import (
	"errors"
	"net/http"
	"time"

	"stockroom/internal/domain"
	"stockroom/internal/form"
	"stockroom/internal/middleware"
	"stockroom/internal/service"
)

// ProductResponse is the wire form of a stored product
type ProductResponse struct {
	ID           string          `json:"id"`
	ProductName  string          `json:"product_name"`
	CategoryID   string          `json:"category_id"`
	Category     string          `json:"category"`
	ExpiryDate   string          `json:"expiry_date"`
	Price        string          `json:"price"`
	Units        string          `json:"units"`
	ReorderLevel string          `json:"reorder_level"`
	Location     domain.Location `json:"location"`
	NeedsReorder bool            `json:"needs_reorder"`
	CreatedAt    string          `json:"created_at"`
}

func newProductResponse(p *domain.Product) ProductResponse {
	expiry := ""
	if p.ExpiryDate != nil {
		expiry = p.ExpiryDate.Format(form.DateLayout)
	}
	return ProductResponse{
		ID:           p.ID.String(),
		ProductName:  p.Name,
		CategoryID:   p.CategoryID.String(),
		Category:     p.Category,
		ExpiryDate:   expiry,
		Price:        p.Price.StringFixed(2),
		Units:        p.Units.String(),
		ReorderLevel: p.ReorderLevel.String(),
		Location:     p.Location,
		NeedsReorder: p.NeedsReorder(),
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
	}
}

// formValidationErrors lists form errors in field display order
func formValidationErrors(errs form.Errors) []middleware.ValidationError {
	out := make([]middleware.ValidationError, 0, len(errs))
	for _, field := range errs.Fields() {
		out = append(out, middleware.ValidationError{Field: string(field), Message: errs[field]})
	}
	return out
}

// fieldErrorMessages are shown when a collaborator refuses a field value
var fieldErrorMessages = map[error]string{
	service.ErrUnknownCategory: "Category no longer exists.",
	service.ErrInvalidNumber:   "Enter a number.",
	service.ErrNegativeNumber:  "Value cannot be negative.",
	service.ErrInvalidLocation: form.MsgLocationInvalid,
	service.ErrNameTooLong:     "Product name must be at most 255 characters.",
	service.ErrValueTooLarge:   "Value is too large.",
	form.ErrInvalidDate:        form.MsgExpiryInvalid,
	form.ErrDateUnavailable:    form.MsgExpiryInPast,
}

func fieldErrorMessage(err error) string {
	for sentinel, msg := range fieldErrorMessages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return "Invalid value"
}

func respondWithFieldError(w http.ResponseWriter, field form.Field, err error) {
	middleware.RespondWithValidationErrors(w, http.StatusUnprocessableEntity, []middleware.ValidationError{
		{Field: string(field), Message: fieldErrorMessage(err)},
	})
}

package form

import (
	"time"

	"stockroom/internal/domain"
)

// DateLayout is the ISO 8601 calendar-date layout used for expiry dates
const DateLayout = "2006-01-02"

// DefaultReorderLevel is the reorder threshold a new draft starts with
const DefaultReorderLevel = "5"

// Field identifies one input of the product form
type Field string

const (
	FieldProductName  Field = "product_name"
	FieldCategory     Field = "category"
	FieldExpiryDate   Field = "expiry_date"
	FieldPrice        Field = "price"
	FieldUnits        Field = "units"
	FieldReorderLevel Field = "reorder_level"
	FieldLocation     Field = "location"
)

// Fields lists every form field in display order
var Fields = []Field{
	FieldProductName,
	FieldCategory,
	FieldExpiryDate,
	FieldPrice,
	FieldUnits,
	FieldReorderLevel,
	FieldLocation,
}

// ParseField maps a wire name to a Field
func ParseField(name string) (Field, bool) {
	for _, f := range Fields {
		if string(f) == name {
			return f, true
		}
	}
	return "", false
}

// Draft is the in-progress product record held by the form
type Draft struct {
	ProductName  string          `json:"product_name"`
	Category     string          `json:"category"`
	ExpiryDate   string          `json:"expiry_date"`
	Price        string          `json:"price"`
	Units        string          `json:"units"`
	ReorderLevel string          `json:"reorder_level"`
	Location     domain.Location `json:"location"`
}

// NewDraft returns an empty draft with defaults applied
func NewDraft() Draft {
	return Draft{
		ReorderLevel: DefaultReorderLevel,
		Location:     domain.DefaultLocation,
	}
}

// Payload is the normalized record handed to the submit callback. ExpiryDate
// is either a YYYY-MM-DD date or empty.
type Payload struct {
	ProductName  string          `json:"product_name"`
	Category     string          `json:"category"`
	ExpiryDate   string          `json:"expiry_date"`
	Price        string          `json:"price"`
	Units        string          `json:"units"`
	ReorderLevel string          `json:"reorder_level"`
	Location     domain.Location `json:"location"`
}

// normalize builds the payload from a draft that already passed validation
func normalize(d Draft) Payload {
	expiry := ""
	if day, ok := parseDate(d.ExpiryDate); ok {
		expiry = day.Format(DateLayout)
	}

	location := d.Location
	if location == "" {
		location = domain.DefaultLocation
	}

	return Payload{
		ProductName:  d.ProductName,
		Category:     d.Category,
		ExpiryDate:   expiry,
		Price:        d.Price,
		Units:        d.Units,
		ReorderLevel: d.ReorderLevel,
		Location:     location,
	}
}

// calendarDay drops the clock part of t, keeping its own year, month and day
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

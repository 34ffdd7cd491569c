package form

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"stockroom/internal/domain"
)

// Validation messages shown next to the offending field
const (
	MsgProductNameTooShort = "Product name must be at least 2 characters."
	MsgCategoryRequired    = "Category is required."
	MsgCategoryUnknown     = "Select a category from the list."
	MsgPriceRequired       = "Price is required."
	MsgUnitsRequired       = "Units is required."
	MsgExpiryInvalid       = "Expiry date must be a valid date."
	MsgExpiryInPast        = "Expiry date cannot be in the past."
	MsgLocationInvalid     = "Location must be local or warehouse."
)

// MinProductNameLength is the shortest accepted product name, in characters
const MinProductNameLength = 2

// Errors maps each failing field to its message. A nil or empty Errors means
// the draft is valid.
type Errors map[Field]string

// Error lists the failing fields in display order
func (e Errors) Error() string {
	var b strings.Builder
	b.WriteString("invalid product draft:")
	for _, f := range e.Fields() {
		b.WriteString(" ")
		b.WriteString(string(f))
		b.WriteString(": ")
		b.WriteString(e[f])
	}
	return b.String()
}

// Fields returns the failing fields in display order
func (e Errors) Fields() []Field {
	fields := make([]Field, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool {
		return fieldIndex(fields[i]) < fieldIndex(fields[j])
	})
	return fields
}

func fieldIndex(f Field) int {
	for i, known := range Fields {
		if known == f {
			return i
		}
	}
	return len(Fields)
}

// Validate checks d against the form rules. categories is the set the
// category must come from and today is the first selectable expiry day.
func Validate(d Draft, categories []string, today time.Time) Errors {
	errs := Errors{}

	if utf8.RuneCountInString(d.ProductName) < MinProductNameLength {
		errs[FieldProductName] = MsgProductNameTooShort
	}

	switch {
	case d.Category == "":
		errs[FieldCategory] = MsgCategoryRequired
	case !contains(categories, d.Category):
		errs[FieldCategory] = MsgCategoryUnknown
	}

	if d.ExpiryDate != "" {
		day, ok := parseDate(d.ExpiryDate)
		switch {
		case !ok:
			errs[FieldExpiryDate] = MsgExpiryInvalid
		case day.Before(calendarDay(today)):
			errs[FieldExpiryDate] = MsgExpiryInPast
		}
	}

	if d.Price == "" {
		errs[FieldPrice] = MsgPriceRequired
	}

	if d.Units == "" {
		errs[FieldUnits] = MsgUnitsRequired
	}

	if d.Location != "" && !d.Location.Valid() {
		errs[FieldLocation] = MsgLocationInvalid
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

// uniqueCategories drops blanks and repeats, keeping first-seen order
func uniqueCategories(categories []string) []string {
	seen := make(map[string]struct{}, len(categories))
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// resolveLocation maps user input onto a location, falling back to the
// default for an empty value
func resolveLocation(value string) domain.Location {
	if value == "" {
		return domain.DefaultLocation
	}
	return domain.Location(value)
}

// Package form holds the product-entry form: a draft, the handlers that edit
// it field by field, the date picker over its expiry date and the submit and
// cancel outcomes handed back to the caller.
package form

import (
	"errors"
	"fmt"
	"time"

	"stockroom/internal/pkg/clock"
)

var (
	ErrClosed          = errors.New("form is already submitted or cancelled")
	ErrUnknownField    = errors.New("unknown form field")
	ErrInvalidDate     = errors.New("date must use the YYYY-MM-DD format")
	ErrDateUnavailable = errors.New("date is before today and cannot be selected")
)

// State is the lifecycle position of a form
type State int

const (
	StateEditing State = iota
	StateSubmitted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateSubmitted:
		return "submitted"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Callbacks are the outcomes the form reports to its owner. Nil callbacks are
// skipped.
type Callbacks struct {
	OnSubmit      func(Payload)
	OnCancel      func()
	OnAddCategory func()
}

// Option configures a Form
type Option func(*Form)

// WithClock sets the time source used to decide which dates are in the past
func WithClock(c clock.Clock) Option {
	return func(f *Form) {
		f.clock = c
	}
}

// WithLocation sets the time zone whose calendar defines "today"
func WithLocation(loc *time.Location) Option {
	return func(f *Form) {
		if loc != nil {
			f.loc = loc
		}
	}
}

// Form is a single product-entry form. It is owned by one caller and is not
// safe for concurrent use.
type Form struct {
	draft      Draft
	categories []string
	callbacks  Callbacks
	clock      clock.Clock
	loc        *time.Location
	state      State
	handlers   map[Field]func(string) error
}

// New mounts a form over a fresh draft
func New(categories []string, cb Callbacks, opts ...Option) *Form {
	return Restore(NewDraft(), categories, cb, opts...)
}

// Restore mounts an editing form over an existing draft
func Restore(d Draft, categories []string, cb Callbacks, opts ...Option) *Form {
	f := &Form{
		draft:      d,
		categories: uniqueCategories(categories),
		callbacks:  cb,
		clock:      clock.NewRealClock(),
		loc:        time.UTC,
		state:      StateEditing,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.handlers = map[Field]func(string) error{
		FieldProductName:  func(v string) error { f.draft.ProductName = v; return nil },
		FieldCategory:     func(v string) error { f.draft.Category = v; return nil },
		FieldExpiryDate:   f.setExpiryDate,
		FieldPrice:        func(v string) error { f.draft.Price = v; return nil },
		FieldUnits:        func(v string) error { f.draft.Units = v; return nil },
		FieldReorderLevel: func(v string) error { f.draft.ReorderLevel = v; return nil },
		FieldLocation:     func(v string) error { f.draft.Location = resolveLocation(v); return nil },
	}

	return f
}

// Draft returns a copy of the current draft
func (f *Form) Draft() Draft {
	return f.draft
}

// State returns the lifecycle state
func (f *Form) State() State {
	return f.state
}

// Categories returns the categories the user may pick from
func (f *Form) Categories() []string {
	out := make([]string, len(f.categories))
	copy(out, f.categories)
	return out
}

// SetCategories replaces the available categories, e.g. after the owner added one
func (f *Form) SetCategories(categories []string) {
	f.categories = uniqueCategories(categories)
}

// Set applies a change to one field
func (f *Form) Set(field Field, value string) error {
	if f.state != StateEditing {
		return ErrClosed
	}
	handler, ok := f.handlers[field]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return handler(value)
}

func (f *Form) setExpiryDate(value string) error {
	if value == "" {
		f.draft.ExpiryDate = ""
		return nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return f.selectDay(t)
}

// Today returns the current calendar day in the form's time zone
func (f *Form) Today() time.Time {
	return clock.Day(f.clock.Now(), f.loc)
}

// IsSelectable reports whether the picker allows choosing the day of t
func (f *Form) IsSelectable(t time.Time) bool {
	return !calendarDay(t).Before(f.Today())
}

// SelectDate picks the expiry date. Only the calendar day of t is kept.
func (f *Form) SelectDate(t time.Time) error {
	if f.state != StateEditing {
		return ErrClosed
	}
	return f.selectDay(t)
}

func (f *Form) selectDay(t time.Time) error {
	if !f.IsSelectable(t) {
		return fmt.Errorf("%w: %s", ErrDateUnavailable, calendarDay(t).Format(DateLayout))
	}
	f.draft.ExpiryDate = calendarDay(t).Format(DateLayout)
	return nil
}

// ClearDate removes the expiry date
func (f *Form) ClearDate() error {
	if f.state != StateEditing {
		return ErrClosed
	}
	f.draft.ExpiryDate = ""
	return nil
}

// SelectedDate is the picker's current selection, derived from the draft
func (f *Form) SelectedDate() (time.Time, bool) {
	return parseDate(f.draft.ExpiryDate)
}

// Validate checks the current draft without submitting it
func (f *Form) Validate() Errors {
	return Validate(f.draft, f.categories, f.Today())
}

// Submit validates the draft and, when it passes, hands the normalized payload
// to OnSubmit exactly once. A failing draft returns Errors and stays editable.
func (f *Form) Submit() error {
	if f.state != StateEditing {
		return ErrClosed
	}
	if errs := f.Validate(); len(errs) > 0 {
		return errs
	}

	payload := normalize(f.draft)
	f.state = StateSubmitted
	if f.callbacks.OnSubmit != nil {
		f.callbacks.OnSubmit(payload)
	}
	return nil
}

// Cancel closes the form without validating or submitting
func (f *Form) Cancel() error {
	if f.state != StateEditing {
		return ErrClosed
	}
	f.state = StateCancelled
	if f.callbacks.OnCancel != nil {
		f.callbacks.OnCancel()
	}
	return nil
}

// RequestAddCategory asks the owner to open its add-category workflow. The
// draft is left as it is.
func (f *Form) RequestAddCategory() error {
	if f.state != StateEditing {
		return ErrClosed
	}
	if f.callbacks.OnAddCategory != nil {
		f.callbacks.OnAddCategory()
	}
	return nil
}

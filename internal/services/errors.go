package services

import (
	"errors"
	"fmt"

	"expensetracker/internal/core"
)

var (
	ErrMissingID    = errors.New("expense id is required")
	ErrInvalidRange = errors.New("range start is after its end")
)

// ValidationError reports user input that was rejected before reaching the store.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(err error) *ValidationError {
	return &ValidationError{Field: fieldOf(err), Err: err}
}

func fieldOf(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyTitle), errors.Is(err, core.ErrTitleTooLong):
		return "title"
	case errors.Is(err, core.ErrInvalidAmount):
		return "amount"
	case errors.Is(err, core.ErrEmptyCategory), errors.Is(err, core.ErrUnknownCategory):
		return "category"
	case errors.Is(err, core.ErrZeroDate):
		return "date"
	case errors.Is(err, core.ErrDescriptionTooLong):
		return "description"
	case errors.Is(err, ErrMissingID):
		return "id"
	case errors.Is(err, ErrInvalidRange):
		return "from"
	default:
		return "expense"
	}
}

package services

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by services. Controllers map them onto HTTP
// statuses; nothing below the controller layer knows about HTTP.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrForbidden        = errors.New("operation not permitted")
	ErrAlreadySold      = errors.New("listing already sold")
	ErrInvalidLogin     = errors.New("invalid email or password")
	ErrEmailTaken       = errors.New("email already registered")
	ErrWrongPassword    = errors.New("current password is incorrect")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError carries per-field messages for input that fails domain
// rules after binding. It maps onto a 422 response.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

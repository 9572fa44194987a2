package entity

import (
	"errors"
	"fmt"
)

// Domain sentinel errors. Callers match them with errors.Is.
var (
	// ErrNotFound means the requested document or record does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput marks input rejected before it reached storage.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownSource marks a source key outside the configured catalog.
	ErrUnknownSource = errors.New("unknown source key")

	// ErrValidationFailed marks an entity that failed its own checks.
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError names the field that failed and why.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

package products

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the catalog services. Callers classify with errors.Is.
var (
	// ErrNotFound indicates no active product matched a lookup.
	ErrNotFound = errors.New("catalog: product not found")

	// ErrValidation indicates a product or import record failed validation.
	ErrValidation = errors.New("catalog: validation failed")

	// ErrStorage indicates the storage collaborator failed.
	ErrStorage = errors.New("catalog: storage failure")

	// ErrInvalidArgument indicates malformed input that could not be clamped.
	ErrInvalidArgument = errors.New("catalog: invalid argument")
)

// Kind names used in logs and metrics.
const (
	KindNotFound        = "not_found"
	KindValidation      = "validation"
	KindStorage         = "storage"
	KindInvalidArgument = "invalid_argument"
	KindUnknown         = "unknown"
)

// Kind maps err to its kind name. A nil error has no kind.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrStorage):
		return KindStorage
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	}
	return KindUnknown
}

// ValidationError describes which field of a product was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("catalog: invalid %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

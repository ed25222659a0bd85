package catalog

import (
	"github.com/nlstn/go-catalog/internal/products"
)

// Sentinel errors returned by the Service. Use errors.Is to classify them.
var (
	// ErrNotFound indicates no active product matched a lookup.
	ErrNotFound = products.ErrNotFound

	// ErrValidation indicates a product or import record failed validation.
	// The error can be unwrapped into a *ValidationError naming the field.
	ErrValidation = products.ErrValidation

	// ErrStorage indicates the database failed. The driver error is wrapped.
	ErrStorage = products.ErrStorage

	// ErrInvalidArgument indicates input that could not be clamped to a default.
	ErrInvalidArgument = products.ErrInvalidArgument
)

// ValidationError names the product field that failed validation.
type ValidationError = products.ValidationError

// ErrorKind returns a short name for the kind of err: "not_found",
// "validation", "storage", "invalid_argument" or "unknown". It returns the
// empty string for a nil error.
func ErrorKind(err error) string {
	return products.Kind(err)
}

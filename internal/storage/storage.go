// Package storage defines the product storage contract and its GORM and
// in-memory implementations.
package storage

import (
	"context"
	"errors"

	"github.com/nlstn/go-catalog/internal/query"
)

var (
	// ErrDuplicateKey is returned when inserting a record whose id already exists.
	ErrDuplicateKey = errors.New("storage: duplicate key")
	// ErrUnknownField is returned for field names that are not product columns.
	ErrUnknownField = errors.New("storage: unknown field")
	// ErrFieldType is returned when a value does not fit the column type.
	ErrFieldType = errors.New("storage: invalid field value")
)

// SelectQuery describes a windowed, filtered and sorted projection.
type SelectQuery struct {
	// Fields to load; empty loads every column.
	Fields  []string
	Filter  *query.Filter
	OrderBy []query.OrderByItem
	// Skip rows before the window starts.
	Skip int
	// Take at most this many rows; zero means no limit.
	Take int
}

// Group is one row of a grouped count: the group key values, in the order
// the group fields were requested, and the number of matching rows.
type Group struct {
	Keys  []string
	Count int64
}

// Store is the storage collaborator. Every method is a single logical
// statement: on error nothing has been applied. An empty filter selects
// all rows.
type Store interface {
	Select(ctx context.Context, q SelectQuery) ([]Record, error)
	Count(ctx context.Context, filter *query.Filter) (int64, error)
	// GroupCount groups matching rows by the given fields and returns the
	// groups ordered by their keys.
	GroupCount(ctx context.Context, groupFields []string, filter *query.Filter) ([]Group, error)
	Insert(ctx context.Context, rec *Record) error
	// Update assigns values (column name to value) on matching rows and
	// returns the number of rows affected.
	Update(ctx context.Context, values map[string]interface{}, filter *query.Filter) (int64, error)
	Delete(ctx context.Context, filter *query.Filter) (int64, error)
}

func validateFields(fields []string) error {
	for _, f := range fields {
		if !IsField(f) {
			return &FieldError{Field: f}
		}
	}
	return nil
}

// FieldError reports a field name that is not a product column.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return "storage: unknown field " + e.Field
}

// Unwrap lets errors.Is match ErrUnknownField.
func (e *FieldError) Unwrap() error {
	return ErrUnknownField
}

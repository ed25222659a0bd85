package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/nlstn/go-catalog/internal/observability"
	"github.com/nlstn/go-catalog/internal/query"
	"github.com/nlstn/go-catalog/internal/slug"
	"github.com/nlstn/go-catalog/internal/storage"
)

// GetOptions selects a single active product. Unset fields do not filter.
type GetOptions struct {
	ID       string
	Link     string
	Category string
}

// WriteService normalizes and persists products and notifies the refresh
// scheduler after each successful mutation.
type WriteService struct {
	store storage.Store
	settings
}

// NewWriteService creates a WriteService writing to store.
func NewWriteService(store storage.Store, opts ...Option) *WriteService {
	return &WriteService{store: store, settings: newSettings(opts)}
}

// Save inserts p when it has no id and updates the stored product otherwise.
// Derived fields are recomputed on p before it is written. Updating an id
// that does not exist fails with ErrNotFound.
func (s *WriteService) Save(ctx context.Context, p *Product) (*Product, error) {
	if p.ID == "" {
		return s.Create(ctx, p)
	}

	ctx, span := s.obs.Tracer().StartWrite(ctx, observability.OpSave, p.ID)
	defer span.End()
	logger := observability.LoggerWithTrace(ctx, s.logger)

	normalize(p)
	if err := validate(p); err != nil {
		return nil, s.fail(ctx, logger, span, observability.OpSave, err)
	}

	n, err := s.store.Update(ctx, updateValues(toRecord(p)), query.NewFilter().Equals(storage.FieldID, p.ID))
	if err != nil {
		return nil, s.fail(ctx, logger, span, observability.OpSave, storageError("update", err))
	}
	if n == 0 {
		return nil, s.fail(ctx, logger, span, observability.OpSave, fmt.Errorf("%w: %s", ErrNotFound, p.ID))
	}

	s.scheduler.Schedule()
	logger.Debug("product updated", "id", p.ID)
	return p, nil
}

// Create inserts p as a new product. A missing id is generated; a supplied
// id is kept, which lets imports restore products under their original ids.
func (s *WriteService) Create(ctx context.Context, p *Product) (*Product, error) {
	ctx, span := s.obs.Tracer().StartWrite(ctx, observability.OpSave, p.ID)
	defer span.End()
	logger := observability.LoggerWithTrace(ctx, s.logger)

	normalize(p)
	if err := validate(p); err != nil {
		return nil, s.fail(ctx, logger, span, observability.OpSave, err)
	}

	if p.ID == "" {
		p.ID = s.newID()
	}
	p.CreatedAt = s.now().UTC()
	p.Removed = false

	if err := s.store.Insert(ctx, toRecord(p)); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			err = &ValidationError{Field: storage.FieldID, Message: fmt.Sprintf("%q already exists", p.ID)}
			return nil, s.fail(ctx, logger, span, observability.OpSave, err)
		}
		return nil, s.fail(ctx, logger, span, observability.OpSave, storageError("insert", err))
	}

	span.SetAttributes(observability.ProductIDAttr(p.ID))
	s.scheduler.Schedule()
	logger.Debug("product created", "id", p.ID)
	return p, nil
}

// Get returns the newest active product matching opts.
func (s *WriteService) Get(ctx context.Context, opts GetOptions) (*Product, error) {
	ctx, span := s.obs.Tracer().StartGet(ctx, opts.ID)
	defer span.End()
	logger := observability.LoggerWithTrace(ctx, s.logger)

	f := activeFilter()
	if opts.ID != "" {
		f.Equals(storage.FieldID, opts.ID)
	}
	if opts.Link != "" {
		f.Equals(storage.FieldLink, opts.Link)
	}
	if opts.Category != "" {
		f.Equals(storage.FieldCategoryLink, opts.Category)
	}

	records, err := s.store.Select(ctx, storage.SelectQuery{
		Filter:  f,
		OrderBy: []query.OrderByItem{{Property: storage.FieldCreatedAt, Descending: true}},
		Take:    1,
	})
	if err != nil {
		return nil, s.fail(ctx, logger, span, observability.OpGet, storageError("select", err))
	}
	if len(records) == 0 {
		return nil, s.fail(ctx, logger, span, observability.OpGet, ErrNotFound)
	}
	return fromRecord(&records[0]), nil
}

// Remove soft-deletes the product with the given id.
func (s *WriteService) Remove(ctx context.Context, id string) error {
	ctx, span := s.obs.Tracer().StartWrite(ctx, observability.OpRemove, id)
	defer span.End()
	logger := observability.LoggerWithTrace(ctx, s.logger)

	if id == "" {
		return s.fail(ctx, logger, span, observability.OpRemove, fmt.Errorf("%w: empty id", ErrInvalidArgument))
	}

	n, err := s.store.Update(ctx,
		map[string]interface{}{storage.FieldRemoved: true},
		query.NewFilter().Equals(storage.FieldID, id))
	if err != nil {
		return s.fail(ctx, logger, span, observability.OpRemove, storageError("update", err))
	}
	if n == 0 {
		return s.fail(ctx, logger, span, observability.OpRemove, fmt.Errorf("%w: %s", ErrNotFound, id))
	}

	s.scheduler.Schedule()
	logger.Info("product removed", "id", id)
	return nil
}

// Clear deletes every product, removed or not, and returns how many rows went.
func (s *WriteService) Clear(ctx context.Context) (int64, error) {
	ctx, span := s.obs.Tracer().StartWrite(ctx, observability.OpClear, "")
	defer span.End()
	logger := observability.LoggerWithTrace(ctx, s.logger)

	n, err := s.store.Delete(ctx, query.NewFilter())
	if err != nil {
		return 0, s.fail(ctx, logger, span, observability.OpClear, storageError("delete", err))
	}

	s.scheduler.Schedule()
	logger.Warn("product table cleared", "rows", n)
	return n, nil
}

// ReplaceCategory moves every product filed exactly under oldPath to newPath
// and returns the number of products moved. Products in subcategories of
// oldPath keep their category.
func (s *WriteService) ReplaceCategory(ctx context.Context, oldPath, newPath string) (int64, error) {
	ctx, span := s.obs.Tracer().StartWrite(ctx, observability.OpReplaceCategory, "")
	defer span.End()
	logger := observability.LoggerWithTrace(ctx, s.logger)

	from := slug.Decompose(oldPath)
	to := slug.Decompose(newPath)
	if from.Display == "" {
		return 0, s.fail(ctx, logger, span, observability.OpReplaceCategory,
			fmt.Errorf("%w: empty source category", ErrInvalidArgument))
	}
	if to.Link == "" {
		return 0, s.fail(ctx, logger, span, observability.OpReplaceCategory,
			&ValidationError{Field: storage.FieldCategory, Message: "replacement is empty"})
	}

	n, err := s.store.Update(ctx, map[string]interface{}{
		storage.FieldCategory:     to.Display,
		storage.FieldCategoryLink: to.Link,
	}, query.NewFilter().Equals(storage.FieldCategory, from.Display))
	if err != nil {
		return 0, s.fail(ctx, logger, span, observability.OpReplaceCategory, storageError("update", err))
	}

	s.scheduler.Schedule()
	logger.Info("category replaced", "from", from.Display, "to", to.Display, "rows", n)
	return n, nil
}

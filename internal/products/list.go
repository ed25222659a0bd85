package products

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nlstn/go-catalog/internal/observability"
	"github.com/nlstn/go-catalog/internal/query"
	"github.com/nlstn/go-catalog/internal/slug"
	"github.com/nlstn/go-catalog/internal/storage"
	"go.opentelemetry.io/otel/trace"
)

// ListOptions selects a page of active products.
type ListOptions struct {
	// Search is free text matched against the name and reference.
	Search string
	// Category is a category link path; descendants are included.
	Category string
	// Manufacturer is a manufacturer slug.
	Manufacturer string
	// IDs restricts the listing to these identifiers when non-empty.
	IDs []string
	// Skip excludes a single identifier.
	Skip string
	// Page is 1-based; values below 1 select the first page.
	Page int
	// Max is the page size; values below 1 use the default.
	Max int
	// Homepage lists top products first.
	Homepage bool
}

// ListResult is one page of a listing.
type ListResult struct {
	Items []Item `json:"items"`
	Count int64  `json:"count"`
	Page  int    `json:"page"`
	Pages int    `json:"pages"`
}

// QueryService answers listing requests.
type QueryService struct {
	store storage.Store
	settings
}

// NewQueryService creates a QueryService reading from store.
func NewQueryService(store storage.Store, opts ...Option) *QueryService {
	return &QueryService{store: store, settings: newSettings(opts)}
}

// activeFilter is the base every read starts from.
func activeFilter() *query.Filter {
	return query.NewFilter().Equals(storage.FieldRemoved, false)
}

// CategoryFilter adds a match for the category link and all of its descendants.
func CategoryFilter(f *query.Filter, categoryLink string) *query.Filter {
	return f.Group(func(g *query.Filter) {
		g.Equals(storage.FieldCategoryLink, categoryLink)
		g.PrefixMatch(storage.FieldCategoryLink, categoryLink+slug.PathSeparator)
	})
}

// Filter builds the listing filter for opts.
func (opts ListOptions) Filter() *query.Filter {
	f := activeFilter()
	if opts.Category != "" {
		CategoryFilter(f, opts.Category)
	}
	if opts.Manufacturer != "" {
		f.Equals(storage.FieldManufacturerLink, opts.Manufacturer)
	}
	if opts.Search != "" {
		f.ContainsToken(storage.FieldSearch, opts.Search)
	}
	if len(opts.IDs) > 0 {
		f.In(storage.FieldID, opts.IDs)
	}
	if opts.Skip != "" {
		f.NotEquals(storage.FieldID, opts.Skip)
	}
	return f
}

func (opts ListOptions) orderBy() []query.OrderByItem {
	newest := query.OrderByItem{Property: storage.FieldCreatedAt, Descending: true}
	if opts.Homepage {
		return []query.OrderByItem{{Property: storage.FieldTop, Descending: true}, newest}
	}
	return []query.OrderByItem{newest}
}

// List returns one page of active products matching opts. On a storage
// failure no page is returned.
func (s *QueryService) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	size := opts.Max
	if size < 1 {
		size = s.pageSize
	}

	start := time.Now()
	ctx, span := s.obs.Tracer().StartList(ctx, observability.ListAttributes{
		Category:     opts.Category,
		Manufacturer: opts.Manufacturer,
		Search:       opts.Search,
		Page:         page,
		PageSize:     size,
		Homepage:     opts.Homepage,
	})
	defer span.End()
	logger := observability.LoggerWithTrace(ctx, s.logger)

	if opts.Category != "" && s.known != nil && !s.known(opts.Category) {
		logger.Debug("listing category missing from index", "category", opts.Category)
	}

	filter := opts.Filter()
	records, err := s.store.Select(ctx, storage.SelectQuery{
		Fields:  itemFields,
		Filter:  filter,
		OrderBy: opts.orderBy(),
		Skip:    (page - 1) * size,
		Take:    size,
	})
	if err != nil {
		return nil, s.fail(ctx, logger, span, observability.OpList, storageError("select", err))
	}
	count, err := s.store.Count(ctx, filter.Clone())
	if err != nil {
		return nil, s.fail(ctx, logger, span, observability.OpList, storageError("count", err))
	}

	result := &ListResult{
		Items: make([]Item, len(records)),
		Count: count,
		Page:  page,
		Pages: int((count + int64(size) - 1) / int64(size)),
	}
	if result.Pages < 1 {
		result.Pages = 1
	}
	for i := range records {
		result.Items[i] = itemFromRecord(&records[i])
	}

	span.SetAttributes(
		observability.ResultCountAttr(len(result.Items)),
		observability.TotalCountAttr(count),
	)
	s.obs.Metrics().RecordList(ctx, time.Since(start))
	s.obs.Metrics().RecordResultCount(ctx, int64(len(result.Items)))
	return result, nil
}

func (s *settings) fail(ctx context.Context, logger *slog.Logger, span trace.Span, op string, err error) error {
	s.obs.Tracer().RecordError(span, err)
	s.obs.Metrics().RecordError(ctx, op, Kind(err))
	if errors.Is(err, ErrNotFound) {
		logger.Debug("product not found", observability.LogFieldOperation, op)
	} else {
		logger.Error("catalog operation failed", observability.LogFieldOperation, op, observability.LogFieldError, err)
	}
	return err
}

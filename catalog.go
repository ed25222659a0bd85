// Package catalog provides the query and aggregation core of a product
// catalog: filtered, paginated product listings, normalized writes, bulk
// imports, and a category/manufacturer navigation index that is rebuilt in
// the background after every change.
package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nlstn/go-catalog/internal/importer"
	"github.com/nlstn/go-catalog/internal/observability"
	"github.com/nlstn/go-catalog/internal/products"
	"github.com/nlstn/go-catalog/internal/refresh"
	"github.com/nlstn/go-catalog/internal/storage"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// ObservabilityConfig configures tracing and metrics for a Service.
type ObservabilityConfig struct {
	// TracerProvider enables tracing when set.
	TracerProvider trace.TracerProvider
	// MeterProvider enables metrics when set.
	MeterProvider metric.MeterProvider
	// ServiceName identifies the service in traces and metrics.
	ServiceName string
	// ServiceVersion is the version reported with telemetry.
	ServiceVersion string
	// EnableDetailedDBTracing adds a span for every database statement.
	EnableDetailedDBTracing bool
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	logger        *slog.Logger
	observability *ObservabilityConfig
	pageSize      int
	refreshDelay  time.Duration
	refreshCron   string
	now           func() time.Time
	newID         func() string
}

// WithLogger sets the logger used by the service and its background refresh.
func WithLogger(logger *slog.Logger) Option {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// WithObservability enables OpenTelemetry tracing and metrics.
func WithObservability(cfg ObservabilityConfig) Option {
	return func(o *serviceOptions) {
		o.observability = &cfg
	}
}

// WithPageSize sets the listing page size used when a request gives none.
func WithPageSize(n int) Option {
	return func(o *serviceOptions) {
		o.pageSize = n
	}
}

// WithRefreshDelay sets how long index refreshes wait to coalesce writes.
func WithRefreshDelay(d time.Duration) Option {
	return func(o *serviceOptions) {
		o.refreshDelay = d
	}
}

// WithPeriodicRefresh additionally rebuilds the index on a cron schedule,
// e.g. "@every 10m".
func WithPeriodicRefresh(spec string) Option {
	return func(o *serviceOptions) {
		o.refreshCron = spec
	}
}

// Service is the catalog entry point. It is safe for concurrent use.
type Service struct {
	db        *gorm.DB
	closeDB   bool
	reads     *products.QueryService
	writes    *products.WriteService
	refresher *refresh.Coordinator
	importer  *importer.Importer
	logger    *slog.Logger
	obs       *observability.Config

	closeOnce sync.Once
}

// NewService creates a catalog backed by db. The products table is created
// or migrated, and a first index refresh is scheduled.
func NewService(db *gorm.DB, opts ...Option) (*Service, error) {
	store := storage.NewGormStore(db)
	if err := store.Migrate(); err != nil {
		return nil, fmt.Errorf("catalog: migrate products: %w", err)
	}
	return newService(store, db, opts)
}

// NewInMemoryService creates a catalog that keeps products in process memory.
func NewInMemoryService(opts ...Option) (*Service, error) {
	return newService(storage.NewMemoryStore(), nil, opts)
}

// NewServiceFromConfig opens the configured database and creates a catalog.
// Options given here override the configuration. The database is closed by
// Service.Close.
func NewServiceFromConfig(cfg *Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.NewLogger(os.Stderr)
	base := []Option{
		WithLogger(logger),
		WithPageSize(cfg.Listing.PageSize),
		WithRefreshDelay(cfg.Refresh.Delay),
		WithPeriodicRefresh(cfg.Refresh.Cron),
	}
	if cfg.Database.DetailedTracing {
		base = append(base, func(o *serviceOptions) {
			if o.observability == nil {
				o.observability = &ObservabilityConfig{}
			}
			o.observability.EnableDetailedDBTracing = true
		})
	}
	base = append(base, opts...)
	base = append(base, func(o *serviceOptions) {
		if o.observability != nil {
			if o.observability.ServiceName == "" {
				o.observability.ServiceName = cfg.Observability.ServiceName
			}
			if o.observability.ServiceVersion == "" {
				o.observability.ServiceVersion = cfg.Observability.ServiceVersion
			}
		}
	})

	store, db, err := storage.New(cfg.Database.Driver, cfg.Database.DSN, logger)
	if err != nil {
		return nil, err
	}
	s, err := newService(store, db, base)
	if err != nil {
		_ = closeDB(db) //nolint:errcheck // the construction error is more useful
		return nil, err
	}
	s.closeDB = true
	return s, nil
}

func newService(store storage.Store, db *gorm.DB, opts []Option) (*Service, error) {
	o := serviceOptions{
		logger:       slog.Default(),
		pageSize:     DefaultPageSize,
		refreshDelay: refresh.DefaultDelay,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	obs, err := buildObservability(o.observability)
	if err != nil {
		return nil, err
	}
	if db != nil {
		if err := observability.RegisterGORMCallbacks(db, obs); err != nil {
			return nil, fmt.Errorf("catalog: register database tracing: %w", err)
		}
	}

	s := &Service{db: db, logger: o.logger, obs: obs}
	s.refresher = refresh.New(store,
		refresh.WithDelay(o.refreshDelay),
		refresh.WithLogger(o.logger),
		refresh.WithObservability(obs),
	)

	common := []products.Option{
		products.WithLogger(o.logger),
		products.WithObservability(obs),
		products.WithScheduler(s.refresher),
		products.WithPageSize(o.pageSize),
		products.WithClock(o.now),
		products.WithIDGenerator(o.newID),
	}
	s.reads = products.NewQueryService(store, append(common,
		products.WithCategoryLookup(func(link string) bool {
			return s.refresher.Snapshot().HasCategory(link)
		}))...)
	s.writes = products.NewWriteService(store, common...)
	s.importer = importer.New(s.writes,
		importer.WithScheduler(s.refresher),
		importer.WithLogger(o.logger),
		importer.WithObservability(obs),
	)

	if o.refreshCron != "" {
		if err := s.refresher.StartPeriodic(o.refreshCron); err != nil {
			s.refresher.Close()
			return nil, fmt.Errorf("catalog: %w", err)
		}
	}

	// build the navigation index for whatever is already stored
	s.refresher.Schedule()
	return s, nil
}

func buildObservability(cfg *ObservabilityConfig) (*observability.Config, error) {
	if cfg == nil {
		return nil, nil
	}
	opts := []observability.Option{}
	if cfg.TracerProvider != nil {
		opts = append(opts, observability.WithTracerProvider(cfg.TracerProvider))
	}
	if cfg.MeterProvider != nil {
		opts = append(opts, observability.WithMeterProvider(cfg.MeterProvider))
	}
	if cfg.ServiceName != "" {
		opts = append(opts, observability.WithServiceName(cfg.ServiceName))
	}
	if cfg.ServiceVersion != "" {
		opts = append(opts, observability.WithServiceVersion(cfg.ServiceVersion))
	}
	if cfg.EnableDetailedDBTracing {
		opts = append(opts, observability.WithDetailedDBTracing())
	}

	obs := observability.NewConfig(opts...)
	if err := obs.Initialize(); err != nil {
		return nil, fmt.Errorf("catalog: initialize observability: %w", err)
	}
	return obs, nil
}

// SetLogger sets a custom logger for the service.
// If not called, slog.Default() is used.
func (s *Service) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	s.logger = logger
	s.reads.SetLogger(logger)
	s.writes.SetLogger(logger)
	s.refresher.SetLogger(logger)
	s.importer.SetLogger(logger)
}

// Observability returns the active observability configuration, or nil when
// none was configured.
func (s *Service) Observability() *observability.Config {
	return s.obs
}

// List returns one page of active products. On failure no page is returned.
func (s *Service) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	return s.reads.List(ctx, opts)
}

// Get returns the newest active product matching opts, or ErrNotFound.
func (s *Service) Get(ctx context.Context, opts GetOptions) (*Product, error) {
	return s.writes.Get(ctx, opts)
}

// Save creates p when it has no id and updates it otherwise. Derived fields
// (link, search key, category and manufacturer links) are recomputed.
func (s *Service) Save(ctx context.Context, p *Product) (*Product, error) {
	return s.writes.Save(ctx, p)
}

// Remove soft-deletes a product. It stays in storage until Clear.
func (s *Service) Remove(ctx context.Context, id string) error {
	return s.writes.Remove(ctx, id)
}

// Clear permanently deletes every product and returns the number deleted.
func (s *Service) Clear(ctx context.Context) (int64, error) {
	return s.writes.Clear(ctx)
}

// ReplaceCategory moves the products filed exactly under oldPath to newPath.
// Products in subcategories of oldPath are not moved.
func (s *Service) ReplaceCategory(ctx context.Context, oldPath, newPath string) (int64, error) {
	return s.writes.ReplaceCategory(ctx, oldPath, newPath)
}

// Refresh schedules a debounced rebuild of the navigation index.
func (s *Service) Refresh() {
	s.refresher.Schedule()
}

// RebuildNow rebuilds the navigation index synchronously.
func (s *Service) RebuildNow(ctx context.Context) error {
	return s.refresher.RebuildNow(ctx)
}

// Snapshot returns the published navigation index.
func (s *Service) Snapshot() *Snapshot {
	return s.refresher.Snapshot()
}

// Categories returns the published category tree, ordered by level.
func (s *Service) Categories() []CategoryNode {
	return s.refresher.Snapshot().Categories
}

// Manufacturers returns the published manufacturer list, ordered by name.
func (s *Service) Manufacturers() []ManufacturerNode {
	return s.refresher.Snapshot().Manufacturers
}

// ImportCSV imports a ';'-separated feed with a header row.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	return s.importer.ImportCSV(ctx, r)
}

// ImportXML imports a stream of <product> elements.
func (s *Service) ImportXML(ctx context.Context, r io.Reader) (ImportResult, error) {
	return s.importer.ImportXML(ctx, r)
}

// ImportFile imports a .csv or .xml file, chosen by extension.
func (s *Service) ImportFile(ctx context.Context, path string) (ImportResult, error) {
	var run func(context.Context, io.Reader) (ImportResult, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		run = s.ImportCSV
	case ".xml":
		run = s.ImportXML
	default:
		return ImportResult{}, fmt.Errorf("%w: unsupported import file %q", ErrInvalidArgument, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return ImportResult{}, err
	}
	defer f.Close()
	return run(ctx, f)
}

// Close stops background refreshes, waiting for one in flight, and closes
// the database when the service opened it. It is safe to call multiple times.
func (s *Service) Close() error {
	if s == nil {
		return nil
	}
	var err error
	s.closeOnce.Do(func() {
		s.refresher.Close()
		if s.closeDB {
			err = closeDB(s.db)
		}
	})
	return err
}

func closeDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

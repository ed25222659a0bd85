package products

import (
	"log/slog"
	"time"

	"github.com/nlstn/go-catalog/internal/observability"
)

// DefaultPageSize is used when a listing does not ask for a positive page size.
const DefaultPageSize = 20

// Scheduler requests an asynchronous rebuild of the derived index.
type Scheduler interface {
	Schedule()
}

type noopScheduler struct{}

func (noopScheduler) Schedule() {}

// Option configures a QueryService or WriteService.
type Option func(*settings)

type settings struct {
	logger    *slog.Logger
	obs       *observability.Config
	pageSize  int
	now       func() time.Time
	newID     func() string
	scheduler Scheduler
	known     func(categoryLink string) bool
}

func newSettings(opts []Option) settings {
	s := settings{
		logger:    slog.Default(),
		pageSize:  DefaultPageSize,
		now:       time.Now,
		newID:     NewID,
		scheduler: noopScheduler{},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObservability enables tracing and metrics.
func WithObservability(cfg *observability.Config) Option {
	return func(s *settings) {
		s.obs = cfg
	}
}

// WithPageSize sets the default page size for listings.
func WithPageSize(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithClock overrides the clock used for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the identifier generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *settings) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithScheduler sets the index refresh scheduler notified after writes.
func WithScheduler(sched Scheduler) Option {
	return func(s *settings) {
		if sched != nil {
			s.scheduler = sched
		}
	}
}

// WithCategoryLookup sets a lookup against the published category index.
// Listings for unknown categories are logged but still executed.
func WithCategoryLookup(known func(categoryLink string) bool) Option {
	return func(s *settings) {
		s.known = known
	}
}

// SetLogger replaces the logger. Call it before the service is shared.
func (s *settings) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	s.logger = logger
}

// SetObservability replaces the tracing and metrics configuration.
func (s *settings) SetObservability(cfg *observability.Config) {
	s.obs = cfg
}

// Package refresh rebuilds the published navigation index from storage.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nlstn/go-catalog/internal/index"
	"github.com/nlstn/go-catalog/internal/observability"
	"github.com/nlstn/go-catalog/internal/query"
	"github.com/nlstn/go-catalog/internal/storage"
	"github.com/robfig/cron/v3"
)

// DefaultDelay is how long scheduled refreshes wait for more triggers.
const DefaultDelay = time.Second

// DefaultTimeout bounds a scheduled rebuild.
const DefaultTimeout = 30 * time.Second

// ErrClosed is returned by StartPeriodic after Close.
var ErrClosed = errors.New("refresh: coordinator closed")

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Coordinator owns the published index. Scheduled rebuilds are debounced;
// direct and scheduled rebuilds never overlap.
type Coordinator struct {
	store     storage.Store
	published index.Published
	debouncer *Debouncer

	// logger and obs may be swapped while a scheduled rebuild runs
	logger  atomic.Pointer[slog.Logger]
	obs     atomic.Pointer[observability.Config]
	now     func() time.Time
	delay   time.Duration
	timeout time.Duration

	buildMu sync.Mutex

	mu     sync.Mutex
	sched  *cron.Cron
	closed bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDelay sets the debounce delay.
func WithDelay(d time.Duration) Option {
	return func(c *Coordinator) {
		c.delay = d
	}
}

// WithTimeout bounds each scheduled rebuild.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger.Store(logger)
		}
	}
}

// WithObservability enables tracing and metrics for rebuilds.
func WithObservability(cfg *observability.Config) Option {
	return func(c *Coordinator) {
		c.obs.Store(cfg)
	}
}

// WithClock overrides the clock stamped on snapshots.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Coordinator reading from store. Nothing is built until
// Schedule or RebuildNow is called.
func New(store storage.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:   store,
		now:     time.Now,
		delay:   DefaultDelay,
		timeout: DefaultTimeout,
	}
	c.logger.Store(slog.Default())
	for _, opt := range opts {
		opt(c)
	}
	c.debouncer = NewDebouncer(c.delay, c.scheduled)
	return c
}

// Schedule requests a debounced rebuild and returns immediately.
func (c *Coordinator) Schedule() {
	c.debouncer.Trigger()
}

func (c *Coordinator) scheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	// failures are logged by RebuildNow and never reach the writer
	_ = c.RebuildNow(ctx) //nolint:errcheck
}

// Snapshot returns the currently published index.
func (c *Coordinator) Snapshot() *index.Snapshot {
	return c.published.Load()
}

// RebuildNow recomputes the index from storage and publishes it. On failure
// the previous snapshot stays published.
func (c *Coordinator) RebuildNow(ctx context.Context) error {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	obs := c.obs.Load()
	start := time.Now()
	ctx, span := obs.Tracer().StartRefresh(ctx)
	defer span.End()
	logger := observability.LoggerWithTrace(ctx, c.logger.Load())

	snapshot, err := c.build(ctx)
	obs.Metrics().RecordRefresh(ctx, time.Since(start), err != nil)
	if err != nil {
		err = fmt.Errorf("refresh: %w", err)
		obs.Tracer().RecordError(span, err)
		logger.Error("index rebuild failed",
			observability.LogFieldError, err,
			observability.LogFieldDuration, time.Since(start).Milliseconds())
		return err
	}

	c.published.Store(snapshot)
	span.SetAttributes(
		observability.IndexCategoriesAttr(len(snapshot.Categories)),
		observability.IndexManufacturersAttr(len(snapshot.Manufacturers)),
	)
	logger.Info("index rebuilt",
		"categories", len(snapshot.Categories),
		"manufacturers", len(snapshot.Manufacturers),
		"etag", snapshot.ETag,
		observability.LogFieldDuration, time.Since(start).Milliseconds())
	return nil
}

func (c *Coordinator) build(ctx context.Context) (*index.Snapshot, error) {
	active := query.NewFilter().Equals(storage.FieldRemoved, false)

	categoryGroups, err := c.store.GroupCount(ctx,
		[]string{storage.FieldCategoryLink, storage.FieldCategory},
		active.Clone().NotEquals(storage.FieldCategoryLink, ""))
	if err != nil {
		return nil, fmt.Errorf("group categories: %w", err)
	}

	manufacturerGroups, err := c.store.GroupCount(ctx,
		[]string{storage.FieldManufacturerLink, storage.FieldManufacturer},
		active.Clone().NotEquals(storage.FieldManufacturerLink, ""))
	if err != nil {
		return nil, fmt.Errorf("group manufacturers: %w", err)
	}

	counts := make([]index.CategoryCount, len(categoryGroups))
	for i, g := range categoryGroups {
		counts[i] = index.CategoryCount{Link: g.Keys[0], Display: g.Keys[1], Count: g.Count}
	}
	makers := make([]index.ManufacturerNode, len(manufacturerGroups))
	for i, g := range manufacturerGroups {
		makers[i] = index.ManufacturerNode{Link: g.Keys[0], Name: g.Keys[1], Count: g.Count}
	}

	return index.NewSnapshot(index.Build(counts), index.Manufacturers(makers), c.now().UTC()), nil
}

// StartPeriodic schedules a refresh on the given cron spec, e.g. "@every 5m"
// or "0 */15 * * * *". Calling it again replaces the previous schedule.
func (c *Coordinator) StartPeriodic(spec string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	sched := cron.New(cron.WithParser(cronParser))
	if _, err := sched.AddFunc(spec, c.Schedule); err != nil {
		return fmt.Errorf("refresh: invalid schedule %q: %w", spec, err)
	}
	if c.sched != nil {
		<-c.sched.Stop().Done()
	}
	c.sched = sched
	sched.Start()
	c.logger.Load().Info("periodic index refresh enabled", "schedule", spec)
	return nil
}

// Close stops periodic refreshes, drops pending ones and waits for a
// rebuild in flight.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	sched := c.sched
	c.sched = nil
	c.mu.Unlock()

	if sched != nil {
		<-sched.Stop().Done()
	}
	c.debouncer.Close()
}

// SetLogger replaces the logger.
func (c *Coordinator) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	c.logger.Store(logger)
}

// SetObservability replaces the tracing and metrics configuration.
func (c *Coordinator) SetObservability(cfg *observability.Config) {
	c.obs.Store(cfg)
}

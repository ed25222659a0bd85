package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the catalog metric instruments.
type Metrics struct {
	listDuration    metric.Float64Histogram
	resultCount     metric.Int64Histogram
	dbQueryDuration metric.Float64Histogram
	refreshCount    metric.Int64Counter
	refreshDuration metric.Float64Histogram
	importRecords   metric.Int64Counter
	errorCount      metric.Int64Counter
}

const (
	metricListDuration    = "catalog.list.duration"
	metricResultCount     = "catalog.result.count"
	metricDBQueryDuration = "catalog.db.query.duration"
	metricRefreshCount    = "catalog.refresh.count"
	metricRefreshDuration = "catalog.refresh.duration"
	metricImportRecords   = "catalog.import.records"
	metricErrorCount      = "catalog.error.count"
)

// NewMetrics creates a new Metrics instance with the given MeterProvider.
func NewMetrics(mp metric.MeterProvider) *Metrics {
	return newMetrics(mp.Meter(MeterName))
}

func newMetrics(meter metric.Meter) *Metrics {
	m := &Metrics{}

	// Instrument creation only fails on invalid parameters; fall back to a
	// bare instrument so a partially configured meter still records.
	var err error

	m.listDuration, err = meter.Float64Histogram(
		metricListDuration,
		metric.WithDescription("Duration of product listings in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.listDuration, _ = meter.Float64Histogram(metricListDuration)
	}

	m.resultCount, err = meter.Int64Histogram(
		metricResultCount,
		metric.WithDescription("Number of products returned per listing page"),
		metric.WithUnit("{product}"),
	)
	if err != nil {
		m.resultCount, _ = meter.Int64Histogram(metricResultCount)
	}

	m.dbQueryDuration, err = meter.Float64Histogram(
		metricDBQueryDuration,
		metric.WithDescription("Duration of database queries in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.dbQueryDuration, _ = meter.Float64Histogram(metricDBQueryDuration)
	}

	m.refreshCount, err = meter.Int64Counter(
		metricRefreshCount,
		metric.WithDescription("Number of index rebuilds"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		m.refreshCount, _ = meter.Int64Counter(metricRefreshCount)
	}

	m.refreshDuration, err = meter.Float64Histogram(
		metricRefreshDuration,
		metric.WithDescription("Duration of index rebuilds in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.refreshDuration, _ = meter.Float64Histogram(metricRefreshDuration)
	}

	m.importRecords, err = meter.Int64Counter(
		metricImportRecords,
		metric.WithDescription("Number of records processed by bulk imports"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		m.importRecords, _ = meter.Int64Counter(metricImportRecords)
	}

	m.errorCount, err = meter.Int64Counter(
		metricErrorCount,
		metric.WithDescription("Total number of catalog errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.errorCount, _ = meter.Int64Counter(metricErrorCount)
	}

	return m
}

// RecordList records the latency of a listing.
func (m *Metrics) RecordList(ctx context.Context, duration time.Duration) {
	m.listDuration.Record(ctx, float64(duration.Milliseconds()))
}

// RecordResultCount records the number of products on a returned page.
func (m *Metrics) RecordResultCount(ctx context.Context, count int64) {
	m.resultCount.Record(ctx, count)
}

// RecordDBQuery records metrics for a database query.
func (m *Metrics) RecordDBQuery(ctx context.Context, operation string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("db.operation", operation))
	m.dbQueryDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordRefresh records a finished index rebuild.
func (m *Metrics) RecordRefresh(ctx context.Context, duration time.Duration, failed bool) {
	attrs := metric.WithAttributes(attribute.Bool("catalog.refresh.failed", failed))
	m.refreshCount.Add(ctx, 1, attrs)
	m.refreshDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordImport records the outcome of a bulk import.
func (m *Metrics) RecordImport(ctx context.Context, format string, saved, skipped int) {
	m.importRecords.Add(ctx, int64(saved), metric.WithAttributes(
		ImportFormatAttr(format), attribute.String("catalog.import.outcome", "saved")))
	m.importRecords.Add(ctx, int64(skipped), metric.WithAttributes(
		ImportFormatAttr(format), attribute.String("catalog.import.outcome", "skipped")))
}

// RecordError records an error occurrence.
func (m *Metrics) RecordError(ctx context.Context, operation, kind string) {
	m.errorCount.Add(ctx, 1, metric.WithAttributes(
		OperationAttr(operation),
		ErrorKindAttr(kind),
	))
}

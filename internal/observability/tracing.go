package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps an OpenTelemetry tracer with catalog-specific span creation methods.
type Tracer struct {
	tracer      trace.Tracer
	serviceName string
}

// NewTracer creates a new Tracer using the given TracerProvider.
func NewTracer(tp trace.TracerProvider, serviceName string) *Tracer {
	return &Tracer{
		tracer:      tp.Tracer(TracerName),
		serviceName: serviceName,
	}
}

// StartSpan starts a new span with the given name and attributes.
func (t *Tracer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// ListAttributes describes a listing request on its span.
type ListAttributes struct {
	Category     string
	Manufacturer string
	Search       string
	Page         int
	PageSize     int
	Homepage     bool
}

// StartList starts a span for a product listing.
func (t *Tracer) StartList(ctx context.Context, a ListAttributes) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		OperationAttr(OpList),
		attribute.Int(AttrQueryPage, a.Page),
		attribute.Int(AttrQueryPageSize, a.PageSize),
	}
	if a.Category != "" {
		attrs = append(attrs, attribute.String(AttrQueryCategory, a.Category))
	}
	if a.Manufacturer != "" {
		attrs = append(attrs, attribute.String(AttrQueryManufacturer, a.Manufacturer))
	}
	if a.Search != "" {
		attrs = append(attrs, attribute.String(AttrQuerySearch, a.Search))
	}
	if a.Homepage {
		attrs = append(attrs, attribute.Bool(AttrQueryHomepage, true))
	}
	return t.tracer.Start(ctx, "catalog.list", trace.WithAttributes(attrs...))
}

// StartGet starts a span for a single product lookup.
func (t *Tracer) StartGet(ctx context.Context, id string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{OperationAttr(OpGet)}
	if id != "" {
		attrs = append(attrs, ProductIDAttr(id))
	}
	return t.tracer.Start(ctx, "catalog.get", trace.WithAttributes(attrs...))
}

// StartWrite starts a span for a mutating operation such as save or remove.
func (t *Tracer) StartWrite(ctx context.Context, op, id string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{OperationAttr(op)}
	if id != "" {
		attrs = append(attrs, ProductIDAttr(id))
	}
	return t.tracer.Start(ctx, "catalog."+op, trace.WithAttributes(attrs...))
}

// StartRefresh starts a span for an index rebuild.
func (t *Tracer) StartRefresh(ctx context.Context) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "catalog.refresh", trace.WithAttributes(OperationAttr(OpRefresh)))
}

// StartImport starts a span for a bulk import.
func (t *Tracer) StartImport(ctx context.Context, format string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "catalog.import", trace.WithAttributes(
		OperationAttr(OpImport),
		ImportFormatAttr(format),
	))
}

// StartDBQuery starts a span for a database query.
func (t *Tracer) StartDBQuery(ctx context.Context, operation string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "db.query", trace.WithAttributes(
		attribute.String("db.operation", operation),
	))
}

// RecordError records an error on the span.
func (t *Tracer) RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// LoggerWithTrace returns a logger enriched with trace context.
func LoggerWithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return logger
	}
	return logger.With(
		slog.String(LogFieldTraceID, span.SpanContext().TraceID().String()),
		slog.String(LogFieldSpanID, span.SpanContext().SpanID().String()),
	)
}

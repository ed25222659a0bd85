// Package observability provides OpenTelemetry-based instrumentation for the catalog.
//
// It covers tracing of listing, write, refresh and import operations, metrics
// for query latency and index rebuilds, and optional per-statement database spans.
//
// All observability features are opt-in. When not configured, no-op implementations
// are used.
package observability

import "go.opentelemetry.io/otel/attribute"

// Instrumentation identity constants
const (
	// TracerName is the instrumentation name for tracing.
	TracerName = "github.com/nlstn/go-catalog"
	// MeterName is the instrumentation name for metrics.
	MeterName = "github.com/nlstn/go-catalog"
)

// Catalog attribute keys.
const (
	AttrOperation = "catalog.operation"
	AttrProductID = "catalog.product.id"

	// Listing attributes
	AttrQueryCategory     = "catalog.query.category"
	AttrQueryManufacturer = "catalog.query.manufacturer"
	AttrQuerySearch       = "catalog.query.search"
	AttrQueryPage         = "catalog.query.page"
	AttrQueryPageSize     = "catalog.query.page_size"
	AttrQueryHomepage     = "catalog.query.homepage"

	// Result attributes
	AttrResultCount = "catalog.result.count"
	AttrTotalCount  = "catalog.result.total"

	// Index attributes
	AttrIndexCategories    = "catalog.index.categories"
	AttrIndexManufacturers = "catalog.index.manufacturers"

	// Import attributes
	AttrImportFormat  = "catalog.import.format"
	AttrImportSaved   = "catalog.import.saved"
	AttrImportSkipped = "catalog.import.skipped"

	// Error attributes
	AttrErrorKind = "catalog.error.kind"
)

// Operation names for the catalog.operation attribute.
const (
	OpList            = "list"
	OpGet             = "get"
	OpSave            = "save"
	OpRemove          = "remove"
	OpClear           = "clear"
	OpReplaceCategory = "replace_category"
	OpRefresh         = "refresh"
	OpImport          = "import"
)

// Log field keys for structured logging with trace context.
const (
	LogFieldOperation = "operation"
	LogFieldTraceID   = "trace_id"
	LogFieldSpanID    = "span_id"
	LogFieldDuration  = "duration_ms"
	LogFieldError     = "error"
)

// OperationAttr creates an attribute for the operation type.
func OperationAttr(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// ProductIDAttr creates an attribute for a product identifier.
func ProductIDAttr(id string) attribute.KeyValue {
	return attribute.String(AttrProductID, id)
}

// ResultCountAttr creates an attribute for the number of returned items.
func ResultCountAttr(count int) attribute.KeyValue {
	return attribute.Int(AttrResultCount, count)
}

// TotalCountAttr creates an attribute for the number of matching rows.
func TotalCountAttr(count int64) attribute.KeyValue {
	return attribute.Int64(AttrTotalCount, count)
}

// ImportFormatAttr creates an attribute for the import source format.
func ImportFormatAttr(format string) attribute.KeyValue {
	return attribute.String(AttrImportFormat, format)
}

// ErrorKindAttr creates an attribute for the error kind.
func ErrorKindAttr(kind string) attribute.KeyValue {
	return attribute.String(AttrErrorKind, kind)
}

// IndexCategoriesAttr creates an attribute for the number of category nodes.
func IndexCategoriesAttr(n int) attribute.KeyValue {
	return attribute.Int(AttrIndexCategories, n)
}

// IndexManufacturersAttr creates an attribute for the number of manufacturers.
func IndexManufacturersAttr(n int) attribute.KeyValue {
	return attribute.Int(AttrIndexManufacturers, n)
}

// ImportSavedAttr creates an attribute for the number of imported products.
func ImportSavedAttr(n int) attribute.KeyValue {
	return attribute.Int(AttrImportSaved, n)
}

// ImportSkippedAttr creates an attribute for the number of skipped records.
func ImportSkippedAttr(n int) attribute.KeyValue {
	return attribute.Int(AttrImportSkipped, n)
}

package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	gormSpanKey      = "catalog:gorm:span"
	gormStartTimeKey = "catalog:gorm:start"
	gormCallbackName = "catalog"
)

// RegisterGORMCallbacks registers GORM callbacks that wrap every statement in
// a span and record its latency. It is a no-op unless detailed DB tracing is
// enabled and a tracer provider is configured.
func RegisterGORMCallbacks(db *gorm.DB, cfg *Config) error {
	if cfg == nil || cfg.TracerProvider == nil || !cfg.EnableDetailedDBTracing {
		return nil
	}

	tracer := cfg.Tracer()
	metrics := cfg.Metrics()
	cb := db.Callback()

	if err := cb.Query().Before("gorm:query").Register(gormCallbackName+":before_query", before(tracer, "db.query")); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register(gormCallbackName+":after_query", after(tracer, metrics, "SELECT")); err != nil {
		return err
	}

	if err := cb.Create().Before("gorm:create").Register(gormCallbackName+":before_create", before(tracer, "db.create")); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register(gormCallbackName+":after_create", after(tracer, metrics, "INSERT")); err != nil {
		return err
	}

	if err := cb.Update().Before("gorm:update").Register(gormCallbackName+":before_update", before(tracer, "db.update")); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register(gormCallbackName+":after_update", after(tracer, metrics, "UPDATE")); err != nil {
		return err
	}

	if err := cb.Delete().Before("gorm:delete").Register(gormCallbackName+":before_delete", before(tracer, "db.delete")); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register(gormCallbackName+":after_delete", after(tracer, metrics, "DELETE")); err != nil {
		return err
	}

	// group counts go through Rows()
	if err := cb.Row().Before("gorm:row").Register(gormCallbackName+":before_row", before(tracer, "db.row")); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register(gormCallbackName+":after_row", after(tracer, metrics, "ROW")); err != nil {
		return err
	}

	return nil
}

func before(tracer *Tracer, spanName string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		ctx, span := tracer.StartSpan(ctx, spanName, attribute.String("db.system", db.Dialector.Name()))
		db.Statement.Context = ctx
		db.InstanceSet(gormSpanKey, span)
		db.InstanceSet(gormStartTimeKey, time.Now())
	}
}

func after(tracer *Tracer, metrics *Metrics, operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		spanVal, ok := db.InstanceGet(gormSpanKey)
		if !ok {
			return
		}
		span, ok := spanVal.(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		if table := db.Statement.Table; table != "" {
			span.SetAttributes(attribute.String("db.sql.table", table))
		}
		span.SetAttributes(attribute.Int64("db.rows_affected", db.RowsAffected))
		tracer.RecordError(span, db.Error)

		if startVal, ok := db.InstanceGet(gormStartTimeKey); ok {
			if start, ok := startVal.(time.Time); ok {
				metrics.RecordDBQuery(db.Statement.Context, operation, time.Since(start))
			}
		}
	}
}

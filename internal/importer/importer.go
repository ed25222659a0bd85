package importer

import (
	"context"
	"encoding/csv"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/gocarina/gocsv"
	"github.com/nlstn/go-catalog/internal/observability"
	"github.com/nlstn/go-catalog/internal/products"
)

// Feed formats.
const (
	FormatCSV = "csv"
	FormatXML = "xml"
)

// Separator is the column separator of CSV feeds.
const Separator = ';'

// productElement is the XML element holding one product.
const productElement = "product"

// Saver persists imported products.
type Saver interface {
	Save(ctx context.Context, p *products.Product) (*products.Product, error)
	Create(ctx context.Context, p *products.Product) (*products.Product, error)
}

// Result summarizes an import.
type Result struct {
	Saved   int `json:"saved"`
	Skipped int `json:"skipped"`
}

// OK reports whether at least one product was saved.
func (r Result) OK() bool {
	return r.Saved > 0
}

// Importer feeds decoded records one at a time into a Saver. Records that
// fail validation are logged and skipped; a storage failure stops the import.
type Importer struct {
	saver     Saver
	scheduler products.Scheduler
	logger    *slog.Logger
	obs       *observability.Config
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(i *Importer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithScheduler requests an index refresh after an import saved anything.
func WithScheduler(s products.Scheduler) Option {
	return func(i *Importer) {
		i.scheduler = s
	}
}

// WithObservability enables tracing and metrics for imports.
func WithObservability(cfg *observability.Config) Option {
	return func(i *Importer) {
		i.obs = cfg
	}
}

// New creates an Importer writing through saver.
func New(saver Saver, opts ...Option) *Importer {
	i := &Importer{saver: saver, logger: slog.Default()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ImportCSV reads a ';'-separated feed whose first row names the columns.
func (i *Importer) ImportCSV(ctx context.Context, r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.Comma = Separator
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []*record
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil && !errors.Is(err, gocsv.ErrEmptyCSVFile) {
		return Result{}, fmt.Errorf("importer: csv: %w", err)
	}

	return i.run(ctx, FormatCSV, func(yield func(int, *record) error) error {
		for n, rec := range rows {
			// data starts on the line after the header
			if err := yield(n+2, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// ImportXML streams <product> elements from r. Content outside product
// elements is ignored.
func (i *Importer) ImportXML(ctx context.Context, r io.Reader) (Result, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false

	return i.run(ctx, FormatXML, func(yield func(int, *record) error) error {
		n := 0
		for {
			tok, err := decoder.Token()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("importer: xml: %w", err)
			}
			start, ok := tok.(xml.StartElement)
			if !ok || start.Name.Local != productElement {
				continue
			}

			n++
			var rec record
			if err := decoder.DecodeElement(&rec, &start); err != nil {
				return fmt.Errorf("importer: xml product %d: %w", n, err)
			}
			if err := yield(n, &rec); err != nil {
				return err
			}
		}
	})
}

func (i *Importer) run(ctx context.Context, format string, each func(func(int, *record) error) error) (Result, error) {
	ctx, span := i.obs.Tracer().StartImport(ctx, format)
	defer span.End()
	logger := observability.LoggerWithTrace(ctx, i.logger).With("format", format)

	var res Result
	err := each(func(position int, rec *record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := i.save(ctx, rec)
		switch {
		case err == nil:
			res.Saved++
			return nil
		case errors.Is(err, products.ErrValidation):
			res.Skipped++
			logger.Warn("skipping invalid record", "record", position, observability.LogFieldError, err)
			return nil
		default:
			return fmt.Errorf("importer: record %d: %w", position, err)
		}
	})

	span.SetAttributes(
		observability.ImportSavedAttr(res.Saved),
		observability.ImportSkippedAttr(res.Skipped),
	)
	i.obs.Metrics().RecordImport(ctx, format, res.Saved, res.Skipped)
	if res.OK() && i.scheduler != nil {
		i.scheduler.Schedule()
	}

	if err != nil {
		i.obs.Tracer().RecordError(span, err)
		i.obs.Metrics().RecordError(ctx, observability.OpImport, products.Kind(err))
		logger.Error("import aborted", "saved", res.Saved, "skipped", res.Skipped, observability.LogFieldError, err)
		return res, err
	}
	logger.Info("import finished", "saved", res.Saved, "skipped", res.Skipped)
	return res, nil
}

func (i *Importer) save(ctx context.Context, rec *record) error {
	p, err := rec.product()
	if err != nil {
		return err
	}
	if p.ID == "" {
		_, err = i.saver.Create(ctx, p)
		return err
	}

	_, err = i.saver.Save(ctx, p)
	if errors.Is(err, products.ErrNotFound) {
		// unknown ids are restored under the id the feed carries
		_, err = i.saver.Create(ctx, p)
	}
	return err
}

// SetLogger replaces the logger. Call it before the importer is shared.
func (i *Importer) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	i.logger = logger
}

// SetObservability replaces the tracing and metrics configuration.
func (i *Importer) SetObservability(cfg *observability.Config) {
	i.obs = cfg
}

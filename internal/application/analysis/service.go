package analysis

import (
	"context"
	"errors"
	"io"

	"github.com/catalogrecon/backend/internal/domain/catalog"
	"github.com/catalogrecon/backend/internal/domain/shared"
	csvimport "github.com/catalogrecon/backend/internal/infrastructure/import"
	"github.com/catalogrecon/backend/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// NamedReader is an unparsed input file
type NamedReader struct {
	Name      string
	Reader    io.Reader
	Overrides map[catalog.StandardField]string
}

// FileSet is the raw input of one analysis
type FileSet struct {
	Main            []NamedReader
	Cost            *NamedReader
	Stock           *NamedReader
	ShippingPerUnit float64
	MiscPerUnit     float64
	Progress        ProgressFunc
}

// Service reads input files and runs the pipeline over them. A file that
// cannot be parsed is reported and skipped; the analysis only fails when
// no catalog file is readable.
type Service struct {
	pipeline    *Pipeline
	maxFileSize int64
	logger      *zap.Logger
}

// NewService creates a new analysis service. maxFileSize <= 0 disables
// the per-file size limit.
func NewService(pipeline *Pipeline, maxFileSize int64, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{pipeline: pipeline, maxFileSize: maxFileSize, logger: log}
}

// Pipeline returns the underlying pipeline
func (s *Service) Pipeline() *Pipeline {
	return s.pipeline
}

func (s *Service) readTable(ctx context.Context, f NamedReader) (*SourceTable, *csvimport.FileError) {
	var opts []csvimport.ReadOption
	if s.maxFileSize > 0 {
		opts = append(opts, csvimport.WithMaxBytes(s.maxFileSize))
	}

	table, err := csvimport.ReadTable(f.Name, f.Reader, opts...)
	if err != nil {
		var fe *csvimport.FileError
		if !errors.As(err, &fe) {
			fe = csvimport.NewFileError(f.Name, err)
		}
		s.pipeline.metrics.ObserveFileError(fe.Code())
		logger.FromContext(ctx).Warn("Skipping unreadable file",
			zap.String("file", f.Name),
			zap.String("code", fe.Code()),
			zap.Error(fe.Err),
		)
		return nil, fe
	}
	return &SourceTable{Table: table, Overrides: f.Overrides}, nil
}

// AnalyzeFiles parses every file and runs one analysis
func (s *Service) AnalyzeFiles(ctx context.Context, files FileSet) (res *Result, err error) {
	ctx = logger.Ensure(ctx, s.logger)
	ctx, span := tracer().Start(ctx, "analysis.analyze_files", trace.WithAttributes(
		attribute.Int("files.main", len(files.Main)),
		attribute.Bool("files.cost", files.Cost != nil),
		attribute.Bool("files.stock", files.Stock != nil),
	))
	defer func() {
		if res != nil {
			span.SetAttributes(
				attribute.String("analysis.id", res.ID.String()),
				attribute.Int("analysis.records", len(res.Records)),
				attribute.Int("analysis.file_errors", len(res.FileErrors)),
			)
		}
		finishSpan(span, err)
	}()

	var fileErrors []*csvimport.FileError
	in := Input{
		ShippingPerUnit: files.ShippingPerUnit,
		MiscPerUnit:     files.MiscPerUnit,
		Progress:        files.Progress,
	}

	for _, f := range files.Main {
		src, fe := s.readTable(ctx, f)
		if fe != nil {
			fileErrors = append(fileErrors, fe)
			continue
		}
		in.Main = append(in.Main, *src)
	}
	if len(in.Main) == 0 {
		errs := []error{shared.ErrNoMainTables}
		for _, fe := range fileErrors {
			errs = append(errs, fe)
		}
		return nil, errors.Join(errs...)
	}

	if files.Cost != nil {
		src, fe := s.readTable(ctx, *files.Cost)
		if fe != nil {
			fileErrors = append(fileErrors, fe)
		}
		in.Cost = src
	}
	if files.Stock != nil {
		src, fe := s.readTable(ctx, *files.Stock)
		if fe != nil {
			fileErrors = append(fileErrors, fe)
		}
		in.Stock = src
	}

	res, err = s.pipeline.Run(ctx, in)
	if err != nil {
		return nil, err
	}
	res.FileErrors = fileErrors
	return res, nil
}

// DetectColumns parses a file and reports how its columns map for role
func (s *Service) DetectColumns(ctx context.Context, role string, f NamedReader) (TableMapping, error) {
	ctx, span := tracer().Start(ctx, "analysis.detect_columns", trace.WithAttributes(
		attribute.String("file", f.Name),
		attribute.String("role", role),
	))
	src, fe := s.readTable(ctx, f)
	if fe != nil {
		finishSpan(span, fe)
		return TableMapping{}, fe
	}
	defer span.End()
	_, tm := s.pipeline.mapTable(role, *src)
	return tm, nil
}

// BuildOrder proposes a purchase order for the records of a finished run
func (s *Service) BuildOrder(ctx context.Context, records []*catalog.ProductRecord, budget decimal.Decimal) (*catalog.Order, error) {
	ctx = logger.Ensure(ctx, s.logger)
	ctx, span := tracer().Start(ctx, "analysis.build_order", trace.WithAttributes(
		attribute.String("budget", budget.String()),
		attribute.Int("records", len(records)),
	))
	order, err := s.pipeline.BuildOrder(ctx, records, budget)
	if order != nil {
		span.SetAttributes(attribute.Int64("order.units", order.TotalUnits))
	}
	finishSpan(span, err)
	return order, err
}

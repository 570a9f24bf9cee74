package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/catalogrecon/backend/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type queryStartKey struct{}

// DBTracing registers otelgorm on a result store database and marks slow
// or failed statements on their spans.
type DBTracing struct {
	enabled   bool
	fullSQL   bool
	slowAfter time.Duration
	dbSystem  string
	logger    *zap.Logger
}

// NewDBTracing reads the db_* telemetry settings. Database tracing runs
// only when tracing itself is enabled.
func NewDBTracing(cfg config.TelemetryConfig, driver string, logger *zap.Logger) *DBTracing {
	system := "sqlite"
	if driver == config.DriverPostgres {
		system = "postgresql"
	}
	return &DBTracing{
		enabled:   cfg.Enabled && cfg.DBTraceEnabled,
		fullSQL:   cfg.DBLogFullSQL,
		slowAfter: cfg.DBSlowQueryThresh,
		dbSystem:  system,
		logger:    logger,
	}
}

// Register installs the plugin and the timing callbacks on db.
func (t *DBTracing) Register(db *gorm.DB) error {
	if !t.enabled {
		t.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(t.dbSystem)}
	if !t.fullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	cb := db.Callback()
	hooks := []struct {
		name   string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, h := range hooks {
		if err := h.before("otel_timing:before_"+h.name, markQueryStart); err != nil {
			return err
		}
		if err := h.after("otel_slow_query:"+h.name, t.afterQuery); err != nil {
			return err
		}
	}

	t.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", t.fullSQL),
		zap.Duration("slow_query_threshold", t.slowAfter),
		zap.String("db_system", t.dbSystem),
	)
	return nil
}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (t *DBTracing) afterQuery(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > t.slowAfter {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", t.slowAfter.Milliseconds()),
		))
		t.logger.Warn("Slow query detected",
			zap.Duration("duration", elapsed),
			zap.String("table", db.Statement.Table),
		)
	}
}

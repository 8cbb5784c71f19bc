package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // include query variables in spans, development only
	SlowQueryThresh time.Duration // default: 200ms
	DBSystem        string        // default: "postgresql"
}

// DBMetricsConfig holds configuration for database metrics.
type DBMetricsConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration // default: 200ms
	PoolStatsInterval  time.Duration // default: 15s
}

type queryStartKey struct{}

// callbackRegisterer is the positioned callback handle GORM returns from Before and After.
type callbackRegisterer interface {
	Register(name string, fn func(*gorm.DB)) error
}

// gormOperation is one GORM callback processor and the SQL verb it issues.
type gormOperation struct {
	name string
	verb string
	at   func(db *gorm.DB, after bool) callbackRegisterer
}

// gormOperations lists the processors instrumented by the plugins below. An
// empty verb means the statement text decides.
var gormOperations = []gormOperation{
	{"create", "INSERT", func(db *gorm.DB, after bool) callbackRegisterer {
		if after {
			return db.Callback().Create().After("gorm:create")
		}
		return db.Callback().Create().Before("gorm:create")
	}},
	{"query", "SELECT", func(db *gorm.DB, after bool) callbackRegisterer {
		if after {
			return db.Callback().Query().After("gorm:query")
		}
		return db.Callback().Query().Before("gorm:query")
	}},
	{"update", "UPDATE", func(db *gorm.DB, after bool) callbackRegisterer {
		if after {
			return db.Callback().Update().After("gorm:update")
		}
		return db.Callback().Update().Before("gorm:update")
	}},
	{"delete", "DELETE", func(db *gorm.DB, after bool) callbackRegisterer {
		if after {
			return db.Callback().Delete().After("gorm:delete")
		}
		return db.Callback().Delete().Before("gorm:delete")
	}},
	{"row", "", func(db *gorm.DB, after bool) callbackRegisterer {
		if after {
			return db.Callback().Row().After("gorm:row")
		}
		return db.Callback().Row().Before("gorm:row")
	}},
	{"raw", "", func(db *gorm.DB, after bool) callbackRegisterer {
		if after {
			return db.Callback().Raw().After("gorm:raw")
		}
		return db.Callback().Raw().Before("gorm:raw")
	}},
}

// registerAround registers before and after callbacks named prefix:before_op
// and prefix:after_op on every instrumented processor.
func registerAround(db *gorm.DB, prefix string, before func(*gorm.DB), after func(*gorm.DB, gormOperation)) error {
	for _, op := range gormOperations {
		op := op
		if err := op.at(db, false).Register(prefix+":before_"+op.name, before); err != nil {
			return err
		}
		if err := op.at(db, true).Register(prefix+":after_"+op.name, func(tx *gorm.DB) {
			after(tx, op)
		}); err != nil {
			return err
		}
	}
	return nil
}

func markQueryStart(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	db.Statement.Context = context.WithValue(ctx, queryStartKey{}, time.Now())
}

func queryElapsed(db *gorm.DB) (time.Duration, bool) {
	if db.Statement.Context == nil {
		return 0, false
	}
	start, ok := db.Statement.Context.Value(queryStartKey{}).(time.Time)
	if !ok {
		return 0, false
	}
	return time.Since(start), true
}

// DBTracingPlugin wraps the otelgorm plugin with slow query detection.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThresh == 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = "postgresql"
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// Register installs otelgorm and the slow query callbacks on db.
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := registerAround(db, "otel_timing", markQueryStart, func(tx *gorm.DB, _ gormOperation) {
		p.annotateSpan(tx)
	}); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)
	return nil
}

// annotateSpan adds row counts, errors and slow query markers to the current span.
func (p *DBTracingPlugin) annotateSpan(db *gorm.DB) {
	if db.Statement.Context == nil {
		return
	}
	span := trace.SpanFromContext(db.Statement.Context)
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

	if elapsed, ok := queryElapsed(db); ok && elapsed > p.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
		))
	}
}

// DBMetrics records query counts and latency, and samples the connection pool.
type DBMetrics struct {
	queries   *Counter
	latency   *Histogram
	slow      *Counter
	threshold time.Duration
	pool      *poolSampler
	logger    *zap.Logger
}

// NewDBMetrics creates the database instruments on meter. Pool sampling
// starts only for metrics built by RegisterDBMetrics.
func NewDBMetrics(meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold == 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}
	if cfg.PoolStatsInterval == 0 {
		cfg.PoolStatsInterval = 15 * time.Second
	}

	in := NewInstruments(meter)
	m := &DBMetrics{
		queries:   in.Counter("db_query_total", "Database queries by operation", "{query}"),
		latency:   in.Histogram("db_query_duration_seconds", "Database query latency", "s", DBDurationBuckets...),
		slow:      in.Counter("db_slow_query_total", "Queries slower than the slow query threshold", "{query}"),
		threshold: cfg.SlowQueryThreshold,
		logger:    logger,
		pool: &poolSampler{
			conns:    in.Gauge("db_pool_connections", "Pool connections by state", "{connection}"),
			maxConns: in.Gauge("db_pool_connections_max", "Pool connection limit", "{connection}"),
			interval: cfg.PoolStatsInterval,
			stop:     make(chan struct{}),
		},
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordQuery counts one query and records its latency.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, duration time.Duration) {
	if operation = strings.ToUpper(operation); operation == "" {
		operation = "UNKNOWN"
	}
	opAttr := AttrDBOperation.String(operation)
	m.queries.Inc(ctx, opAttr)
	m.latency.RecordDuration(ctx, duration, opAttr)
	if duration <= m.threshold {
		return
	}
	if table == "" {
		table = "unknown"
	}
	m.slow.Inc(ctx, AttrDBTable.String(table))
}

// StartPoolStatsCollection samples the pool immediately and then on every
// interval until Stop or ctx ends.
func (m *DBMetrics) StartPoolStatsCollection(ctx context.Context) {
	if m.pool.db == nil {
		m.logger.Warn("Pool stats collection skipped, no database handle")
		return
	}
	m.pool.start(ctx)
}

// Stop ends pool sampling. It may be called more than once.
func (m *DBMetrics) Stop() {
	m.pool.halt()
}

type poolSampler struct {
	db       *sql.DB
	conns    *Gauge
	maxConns *Gauge
	interval time.Duration

	stop     chan struct{}
	stopOnce sync.Once
	running  sync.WaitGroup
}

func (s *poolSampler) start(ctx context.Context) {
	s.running.Add(1)
	go func() {
		defer s.running.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			s.sample(ctx)
			select {
			case <-ticker.C:
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *poolSampler) sample(ctx context.Context) {
	stats := s.db.Stats()
	s.maxConns.Record(ctx, int64(stats.MaxOpenConnections))
	for state, n := range map[string]int{
		"idle":   stats.Idle,
		"in_use": stats.InUse,
		"open":   stats.OpenConnections,
	} {
		s.conns.Record(ctx, int64(n), AttrDBState.String(state))
	}
}

func (s *poolSampler) halt() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.running.Wait()
}

// dbMetricsPlugin feeds every instrumented GORM operation into DBMetrics.
type dbMetricsPlugin struct {
	metrics *DBMetrics
}

func (p dbMetricsPlugin) Name() string { return "db_metrics" }

func (p dbMetricsPlugin) Initialize(db *gorm.DB) error {
	return registerAround(db, "db_metrics", markQueryStart, func(tx *gorm.DB, op gormOperation) {
		verb := op.verb
		if verb == "" {
			verb = sqlVerb(tx.Statement.SQL.String())
		}
		ctx := tx.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		elapsed, _ := queryElapsed(tx)
		p.metrics.RecordQuery(ctx, verb, tx.Statement.Table, elapsed)
	})
}

// sqlVerb reads the leading keyword of a raw statement.
func sqlVerb(stmt string) string {
	fields := strings.Fields(stmt)
	if len(fields) == 0 {
		return "OTHER"
	}
	switch verb := strings.ToUpper(fields[0]); verb {
	case "SELECT", "INSERT", "UPDATE", "DELETE":
		return verb
	default:
		return "OTHER"
	}
}

// RegisterDBMetrics builds DBMetrics on mp and installs the GORM plugin on db.
// It returns nil metrics when disabled.
func RegisterDBMetrics(db *gorm.DB, mp *MeterProvider, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if !cfg.Enabled || mp == nil || !mp.IsEnabled() {
		return nil, nil
	}
	metrics, err := NewDBMetrics(mp.Meter("db.client"), cfg, logger)
	if err != nil {
		return nil, err
	}
	if metrics.pool.db, err = db.DB(); err != nil {
		return nil, err
	}
	if err := db.Use(dbMetricsPlugin{metrics: metrics}); err != nil {
		return nil, err
	}
	metrics.logger.Info("Database metrics registered",
		zap.Duration("slow_query_threshold", metrics.threshold),
		zap.Duration("pool_stats_interval", metrics.pool.interval),
	)
	return metrics, nil
}

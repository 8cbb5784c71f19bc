package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogsConfig controls log record export.
type LogsConfig struct {
	Enabled           bool
	CollectorEndpoint string
	ServiceName       string
	ServiceVersion    string
	Insecure          bool
}

// LoggerProvider exports zap entries as OTLP log records when enabled.
type LoggerProvider struct {
	lifecycle
	sdk *sdklog.LoggerProvider
}

// NewLoggerProvider installs a batching OTLP/gRPC logger provider globally.
// Disabled export leaves the provider without an SDK and Core is a no-op.
func NewLoggerProvider(ctx context.Context, cfg LogsConfig, logger *zap.Logger) (*LoggerProvider, error) {
	if !cfg.Enabled {
		lp := &LoggerProvider{lifecycle: newLifecycle("log", logger)}
		lp.logger.Info("Log export disabled")
		return lp, nil
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create log exporter: %w", err)
	}

	lp, err := NewLoggerProviderWithProcessor(cfg, sdklog.NewBatchProcessor(exporter), logger)
	if err != nil {
		return nil, err
	}
	global.SetLoggerProvider(lp.sdk)
	lp.logger.Info("Log export enabled", zap.String("endpoint", cfg.CollectorEndpoint))
	return lp, nil
}

// NewLoggerProviderWithProcessor builds a logger provider on processor
// without touching the global provider.
func NewLoggerProviderWithProcessor(cfg LogsConfig, processor sdklog.Processor, logger *zap.Logger) (*LoggerProvider, error) {
	res, err := serviceResource(cfg.ServiceName, cfg.ServiceVersion)
	if err != nil {
		return nil, err
	}
	lp := &LoggerProvider{
		lifecycle: newLifecycle("log", logger),
		sdk:       sdklog.NewLoggerProvider(sdklog.WithResource(res), sdklog.WithProcessor(processor)),
	}
	lp.lifecycle.sdk = lp.sdk
	return lp, nil
}

// Shutdown flushes buffered log records.
func (lp *LoggerProvider) Shutdown(ctx context.Context) error { return lp.shutdown(ctx) }

// IsEnabled reports whether log records are exported.
func (lp *LoggerProvider) IsEnabled() bool { return lp.sdk != nil }

// Core returns a zap core that forwards entries at or above level to the
// provider. Tee it with the console core; a disabled provider yields a
// no-op core.
func (lp *LoggerProvider) Core(name string, level zapcore.LevelEnabler) zapcore.Core {
	if lp.sdk == nil {
		return zapcore.NewNopCore()
	}
	return &leveledCore{
		Core:  otelzap.NewCore(name, otelzap.WithLoggerProvider(lp.sdk)),
		level: level,
	}
}

// leveledCore gates the bridge on the process log level, which follows
// config reloads.
type leveledCore struct {
	zapcore.Core
	level zapcore.LevelEnabler
}

func (c *leveledCore) Enabled(lvl zapcore.Level) bool {
	return c.level.Enabled(lvl) && c.Core.Enabled(lvl)
}

func (c *leveledCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.level.Enabled(entry.Level) {
		return ce
	}
	return c.Core.Check(entry, ce)
}

func (c *leveledCore) With(fields []zapcore.Field) zapcore.Core {
	return &leveledCore{Core: c.Core.With(fields), level: c.level}
}

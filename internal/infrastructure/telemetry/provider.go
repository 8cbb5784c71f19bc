// Package telemetry provides OpenTelemetry tracing, metrics and logs plus continuous profiling for the billing service.
package telemetry

import (
	"context"
	"fmt"
	"time"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	shutdownTimeout       = 10 * time.Second
	defaultExportInterval = time.Minute
)

// Config controls span export.
type Config struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	ServiceVersion    string
	Insecure          bool
}

// MetricsConfig controls metric export. ExportInterval defaults to one minute.
type MetricsConfig struct {
	Enabled           bool
	CollectorEndpoint string
	ExportInterval    time.Duration
	ServiceName       string
	ServiceVersion    string
	Insecure          bool
}

// serviceResource describes this process to the collector.
func serviceResource(name, version string) (*resource.Resource, error) {
	if version == "" {
		version = "dev"
	}
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(name),
		semconv.ServiceVersion(version),
	))
	if err != nil {
		return nil, fmt.Errorf("build service resource: %w", err)
	}
	return res, nil
}

// flusher is the shutdown half shared by both SDK providers.
type flusher interface {
	Shutdown(ctx context.Context) error
}

// lifecycle owns the SDK provider's shutdown for one signal.
type lifecycle struct {
	signal string
	logger *zap.Logger
	sdk    flusher
}

func newLifecycle(signal string, logger *zap.Logger) lifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return lifecycle{signal: signal, logger: logger}
}

func (l lifecycle) shutdown(ctx context.Context) error {
	if l.sdk == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := l.sdk.Shutdown(ctx); err != nil {
		l.logger.Error("Telemetry shutdown failed", zap.String("signal", l.signal), zap.Error(err))
		return fmt.Errorf("shutdown %s provider: %w", l.signal, err)
	}
	l.logger.Info("Telemetry flushed", zap.String("signal", l.signal))
	return nil
}

// TracerProvider exports spans over OTLP/gRPC when enabled.
type TracerProvider struct {
	lifecycle
	sdk      *sdktrace.TracerProvider
	profiled trace.TracerProvider
}

// NewTracerProvider installs a batching OTLP tracer provider and the W3C
// propagators globally. Disabled tracing leaves the no-op provider in place.
func NewTracerProvider(ctx context.Context, cfg Config, logger *zap.Logger) (*TracerProvider, error) {
	tp := &TracerProvider{lifecycle: newLifecycle("trace", logger)}
	if !cfg.Enabled {
		tp.logger.Info("Tracing disabled")
		return tp, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}
	tp, err = NewTracerProviderWithProcessor(cfg, sdktrace.NewBatchSpanProcessor(exporter), logger)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tp.sdk)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	tp.logger.Info("Tracing enabled",
		zap.String("endpoint", cfg.CollectorEndpoint),
		zap.Float64("sampling_ratio", cfg.SamplingRatio),
	)
	return tp, nil
}

// NewTracerProviderWithProcessor builds a tracer provider on processor
// without touching the global provider.
func NewTracerProviderWithProcessor(cfg Config, processor sdktrace.SpanProcessor, logger *zap.Logger) (*TracerProvider, error) {
	res, err := serviceResource(cfg.ServiceName, cfg.ServiceVersion)
	if err != nil {
		return nil, err
	}
	tp := &TracerProvider{lifecycle: newLifecycle("trace", logger)}
	tp.sdk = sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(processor),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.SamplingRatio)),
	)
	tp.lifecycle.sdk = tp.sdk
	return tp, nil
}

// EnableSpanProfiles labels profiling samples with the root span that was
// active, so a trace links to its CPU profile. It installs the wrapped
// provider globally and reports false while tracing is disabled.
func (tp *TracerProvider) EnableSpanProfiles() bool {
	if tp.sdk == nil {
		return false
	}
	if tp.profiled == nil {
		tp.profiled = otelpyroscope.NewTracerProvider(tp.sdk)
		otel.SetTracerProvider(tp.profiled)
		tp.logger.Info("Span profiles enabled")
	}
	return true
}

// samplerFor respects the caller's sampling decision for fractional ratios.
func samplerFor(ratio float64) sdktrace.Sampler {
	if ratio >= 1 {
		return sdktrace.AlwaysSample()
	}
	if ratio <= 0 {
		return sdktrace.NeverSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

// Shutdown flushes buffered spans.
func (tp *TracerProvider) Shutdown(ctx context.Context) error { return tp.shutdown(ctx) }

// IsEnabled reports whether spans are exported.
func (tp *TracerProvider) IsEnabled() bool { return tp.sdk != nil }

// Tracer returns a tracer from the SDK provider, or the global one when disabled.
func (tp *TracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	switch {
	case tp.profiled != nil:
		return tp.profiled.Tracer(name, opts...)
	case tp.sdk != nil:
		return tp.sdk.Tracer(name, opts...)
	}
	return otel.Tracer(name, opts...)
}

// MeterProvider exports metrics when enabled.
type MeterProvider struct {
	lifecycle
	sdk *sdkmetric.MeterProvider
}

// NewMeterProvider installs a periodic OTLP/gRPC meter provider globally.
func NewMeterProvider(ctx context.Context, cfg MetricsConfig, logger *zap.Logger) (*MeterProvider, error) {
	if !cfg.Enabled {
		mp := &MeterProvider{lifecycle: newLifecycle("metric", logger)}
		mp.logger.Info("Metrics disabled")
		return mp, nil
	}

	interval := cfg.ExportInterval
	if interval <= 0 {
		interval = defaultExportInterval
	}
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}

	mp, err := NewMeterProviderWithReader(cfg, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)), logger)
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(mp.sdk)
	mp.logger.Info("Metrics enabled",
		zap.String("endpoint", cfg.CollectorEndpoint),
		zap.Duration("interval", interval),
	)
	return mp, nil
}

// NewMeterProviderWithReader builds a meter provider on reader without
// touching the global provider. Tests collect through a ManualReader.
func NewMeterProviderWithReader(cfg MetricsConfig, reader sdkmetric.Reader, logger *zap.Logger) (*MeterProvider, error) {
	res, err := serviceResource(cfg.ServiceName, cfg.ServiceVersion)
	if err != nil {
		return nil, err
	}
	mp := &MeterProvider{
		lifecycle: newLifecycle("metric", logger),
		sdk:       sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader)),
	}
	mp.lifecycle.sdk = mp.sdk
	return mp, nil
}

// Shutdown flushes pending measurements.
func (mp *MeterProvider) Shutdown(ctx context.Context) error { return mp.shutdown(ctx) }

// IsEnabled reports whether measurements are exported.
func (mp *MeterProvider) IsEnabled() bool { return mp.sdk != nil }

// Meter returns a meter from the SDK provider, or the global one when disabled.
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp.sdk == nil {
		return otel.Meter(name, opts...)
	}
	return mp.sdk.Meter(name, opts...)
}

package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsError reports the instrument that could not be created
type MetricsError struct {
	Metric string
	Err    error
}

func (e *MetricsError) Error() string {
	return fmt.Sprintf("failed to create metric %s: %v", e.Metric, e.Err)
}

func (e *MetricsError) Unwrap() error {
	return e.Err
}

// Instruments creates instruments on one meter. The first failure sticks and
// is returned by Err, so a constructor declares all of its instruments and
// checks once at the end.
type Instruments struct {
	meter metric.Meter
	err   error
}

func NewInstruments(meter metric.Meter) *Instruments {
	return &Instruments{meter: meter}
}

// Err returns the first creation failure as a *MetricsError
func (in *Instruments) Err() error {
	return in.err
}

func (in *Instruments) fail(name string, err error) {
	if in.err == nil && err != nil {
		in.err = &MetricsError{Metric: name, Err: err}
	}
}

func (in *Instruments) Counter(name, description, unit string) *Counter {
	c, err := in.meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	in.fail(name, err)
	return &Counter{c}
}

// Histogram creates a float histogram; without bounds the SDK defaults apply
func (in *Instruments) Histogram(name, description, unit string, bounds ...float64) *Histogram {
	opts := []metric.Float64HistogramOption{metric.WithDescription(description), metric.WithUnit(unit)}
	if len(bounds) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(bounds...))
	}
	h, err := in.meter.Float64Histogram(name, opts...)
	in.fail(name, err)
	return &Histogram{h}
}

func (in *Instruments) Gauge(name, description, unit string) *Gauge {
	g, err := in.meter.Int64Gauge(name, metric.WithDescription(description), metric.WithUnit(unit))
	in.fail(name, err)
	return &Gauge{g}
}

func (in *Instruments) UpDownCounter(name, description, unit string) metric.Int64UpDownCounter {
	u, err := in.meter.Int64UpDownCounter(name, metric.WithDescription(description), metric.WithUnit(unit))
	in.fail(name, err)
	return u
}

// Counter is a monotonic int64 count
type Counter struct {
	c metric.Int64Counter
}

func (c *Counter) Add(ctx context.Context, n int64, attrs ...attribute.KeyValue) {
	c.c.Add(ctx, n, metric.WithAttributes(attrs...))
}

func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.Add(ctx, 1, attrs...)
}

// Histogram is a float64 distribution
type Histogram struct {
	h metric.Float64Histogram
}

func (h *Histogram) Record(ctx context.Context, v float64, attrs ...attribute.KeyValue) {
	h.h.Record(ctx, v, metric.WithAttributes(attrs...))
}

// RecordDuration records d in seconds
func (h *Histogram) RecordDuration(ctx context.Context, d time.Duration, attrs ...attribute.KeyValue) {
	h.Record(ctx, d.Seconds(), attrs...)
}

// Gauge is a sampled int64 value
type Gauge struct {
	g metric.Int64Gauge
}

func (g *Gauge) Record(ctx context.Context, v int64, attrs ...attribute.KeyValue) {
	g.g.Record(ctx, v, metric.WithAttributes(attrs...))
}

// Attribute keys used on the service's metrics
var (
	AttrHTTPMethod     = attribute.Key("http.method")
	AttrHTTPStatusCode = attribute.Key("http.status_code")
	AttrHTTPRoute      = attribute.Key("http.route")

	AttrDBOperation = attribute.Key("db.operation")
	AttrDBTable     = attribute.Key("db.table")
	AttrDBState     = attribute.Key("db.pool.state")
)

// Bucket boundaries: request and query latencies in seconds, task hours in hours
var (
	HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	DBDurationBuckets   = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}
	HoursBuckets        = []float64{0.25, 0.5, 1, 2, 4, 8, 16, 40, 80, 160}
)

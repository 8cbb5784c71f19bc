package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stoptime/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// HTTPMetricsConfig holds configuration for HTTP metrics middleware.
type HTTPMetricsConfig struct {
	MeterProvider *telemetry.MeterProvider
	Enabled       bool
	Logger        *zap.Logger
}

type httpMetrics struct {
	requestTotal    *telemetry.Counter
	requestDuration *telemetry.Histogram
	responseSize    *telemetry.Histogram
	activeRequests  metric.Int64UpDownCounter
}

// PDF downloads dominate the upper buckets
var responseSizeBuckets = []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000, 1000000, 5000000}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	in := telemetry.NewInstruments(meter)
	m := &httpMetrics{
		requestTotal:    in.Counter("http_server_request_total", "Total number of HTTP requests", "{request}"),
		requestDuration: in.Histogram("http_server_request_duration_seconds", "HTTP request latency in seconds", "s", telemetry.HTTPDurationBuckets...),
		responseSize:    in.Histogram("http_server_response_size_bytes", "HTTP response body size in bytes", "By", responseSizeBuckets...),
		activeRequests:  in.UpDownCounter("http_server_active_requests", "Number of in-flight HTTP requests", "{request}"),
	}
	return m, in.Err()
}

// HTTPMetrics returns a middleware recording request count, latency, response
// size and in-flight requests. It is a pass-through when metrics are off.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.MeterProvider == nil || !cfg.MeterProvider.IsEnabled() {
		return passThrough
	}
	handler, err := HTTPMetricsWithMeter(cfg.MeterProvider.Meter("http.server"))
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("HTTP metrics disabled", zap.Error(err))
		}
		return passThrough
	}
	return handler
}

// HTTPMetricsWithMeter returns the metrics middleware recording on meter
func HTTPMetricsWithMeter(meter metric.Meter) (gin.HandlerFunc, error) {
	m, err := newHTTPMetrics(meter)
	if err != nil {
		return nil, err
	}
	return func(c *gin.Context) {
		start := time.Now()
		m.activeRequests.Add(c.Request.Context(), 1)
		defer m.activeRequests.Add(c.Request.Context(), -1)

		c.Next()
		m.observe(c, time.Since(start))
	}, nil
}

func (m *httpMetrics) observe(c *gin.Context, elapsed time.Duration) {
	ctx := c.Request.Context()
	route := c.FullPath()
	if route == "" {
		// unmatched paths would otherwise put every probed URL into a label
		route = "unknown"
	}
	attrs := []attribute.KeyValue{
		telemetry.AttrHTTPMethod.String(c.Request.Method),
		telemetry.AttrHTTPRoute.String(route),
	}
	status := c.Writer.Status()
	m.requestTotal.Inc(ctx, append(attrs,
		telemetry.AttrHTTPStatusCode.Int(status),
		attribute.String("http.status_class", StatusClass(status)),
	)...)
	m.requestDuration.RecordDuration(ctx, elapsed, attrs...)
	if size := c.Writer.Size(); size > 0 {
		m.responseSize.Record(ctx, float64(size), attrs...)
	}
}

func passThrough(c *gin.Context) {
	c.Next()
}

// StatusClass groups a status code by its hundreds digit, e.g. "4xx".
// Codes outside 100-599 are "other".
func StatusClass(statusCode int) string {
	if statusCode < 100 || statusCode > 599 {
		return "other"
	}
	return strconv.Itoa(statusCode/100) + "xx"
}

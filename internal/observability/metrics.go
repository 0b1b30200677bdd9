package observability

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/yungbote/neurobridge-credentials/internal/platform/logger"
)

const (
	// CoordinatorMeterName scopes the credential generation instruments.
	CoordinatorMeterName = "github.com/yungbote/neurobridge-credentials/certification"
	// HTTPMeterName scopes the API request instruments.
	HTTPMeterName = "github.com/yungbote/neurobridge-credentials/http"
)

// Metrics owns the meter provider and the scrape handler that serves it.
type Metrics struct {
	Provider metric.MeterProvider
	Handler  http.Handler
	shutdown func(context.Context) error
}

// Shutdown flushes the provider. Safe on a nil or disabled Metrics.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.shutdown == nil {
		return nil
	}
	return m.shutdown(ctx)
}

// MetricsEnabled reads METRICS_ENABLED, on by default.
func MetricsEnabled() bool {
	v := strings.TrimSpace(strings.ToLower(getEnv("METRICS_ENABLED")))
	if v == "" {
		return true
	}
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

// InitMetrics builds a meter provider backed by a private Prometheus registry. When
// metrics are disabled the provider is a no-op and Handler answers 404.
func InitMetrics(ctx context.Context, log *logger.Logger, cfg OtelConfig) (*Metrics, error) {
	if !MetricsEnabled() {
		if log != nil {
			log.Info("metrics disabled, using no-op meter provider")
		}
		return &Metrics{Provider: noop.NewMeterProvider(), Handler: http.NotFoundHandler()}, nil
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "neurobridge-credentials"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(strings.TrimSpace(cfg.Version)),
			attribute.String("deployment.environment", strings.TrimSpace(cfg.Environment)),
		),
	)
	if err != nil && log != nil {
		log.Warn("metrics resource init failed (continuing)", "error", err)
	}

	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(mp)
	if log != nil {
		log.Info("metrics initialized", "service", serviceName)
	}
	return &Metrics{
		Provider: mp,
		Handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		shutdown: mp.Shutdown,
	}, nil
}

// CoordinatorMetrics records generation outcomes. A nil receiver records nothing.
type CoordinatorMetrics struct {
	generations metric.Int64Counter
	coalesced   metric.Int64Counter
	duration    metric.Float64Histogram
	inflight    metric.Int64UpDownCounter
	evictions   metric.Int64Counter
}

// NewCoordinatorMetrics returns nil, nil for a nil provider.
func NewCoordinatorMetrics(provider metric.MeterProvider) (*CoordinatorMetrics, error) {
	if provider == nil {
		return nil, nil
	}
	meter := provider.Meter(CoordinatorMeterName)

	generations, err := meter.Int64Counter(
		"credential_generation_total",
		metric.WithDescription("Completed credential generation sequences by outcome code"),
		metric.WithUnit("{generation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create generation counter: %w", err)
	}
	coalesced, err := meter.Int64Counter(
		"credential_generation_coalesced_total",
		metric.WithDescription("Requests that joined an in-flight generation instead of starting one"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create coalesced counter: %w", err)
	}
	duration, err := meter.Float64Histogram(
		"credential_generation_duration_seconds",
		metric.WithDescription("Wall time of one generation sequence"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60),
	)
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}
	inflight, err := meter.Int64UpDownCounter(
		"credential_generation_inflight",
		metric.WithDescription("Generation sequences currently running"),
		metric.WithUnit("{generation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create inflight counter: %w", err)
	}
	evictions, err := meter.Int64Counter(
		"credential_cache_evictions_total",
		metric.WithDescription("Cache entries removed by cleanup"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create eviction counter: %w", err)
	}

	return &CoordinatorMetrics{
		generations: generations,
		coalesced:   coalesced,
		duration:    duration,
		inflight:    inflight,
		evictions:   evictions,
	}, nil
}

func (m *CoordinatorMetrics) RecordOutcome(ctx context.Context, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", code))
	m.generations.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}

func (m *CoordinatorMetrics) RecordCoalesced(ctx context.Context) {
	if m == nil {
		return
	}
	m.coalesced.Add(ctx, 1)
}

func (m *CoordinatorMetrics) InflightInc(ctx context.Context) {
	if m == nil {
		return
	}
	m.inflight.Add(ctx, 1)
}

func (m *CoordinatorMetrics) InflightDec(ctx context.Context) {
	if m == nil {
		return
	}
	m.inflight.Add(ctx, -1)
}

func (m *CoordinatorMetrics) RecordEvictions(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.evictions.Add(ctx, int64(n))
}

// HTTPMetrics records API request counts and latency. A nil receiver records nothing.
type HTTPMetrics struct {
	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

func NewHTTPMetrics(provider metric.MeterProvider) (*HTTPMetrics, error) {
	if provider == nil {
		return nil, nil
	}
	meter := provider.Meter(HTTPMeterName)
	requests, err := meter.Int64Counter(
		"api_requests_total",
		metric.WithDescription("API requests by method, route and status"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create request counter: %w", err)
	}
	latency, err := meter.Float64Histogram(
		"api_request_duration_seconds",
		metric.WithDescription("API request latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create latency histogram: %w", err)
	}
	return &HTTPMetrics{requests: requests, latency: latency}, nil
}

func (m *HTTPMetrics) ObserveRequest(ctx context.Context, method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.requests.Add(ctx, 1, attrs)
	m.latency.Record(ctx, elapsed.Seconds(), attrs)
}

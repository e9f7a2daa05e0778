package observability

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsCollector manages all metrics for northdesk
type MetricsCollector struct {
	meter metric.Meter

	// Routing metrics
	assistRequests metric.Int64Counter
	stepDuration   metric.Float64Histogram

	// LLM metrics
	llmRequests metric.Int64Counter
	llmLatency  metric.Float64Histogram

	// Retrieval metrics
	retrievalPassages metric.Int64Histogram

	// Ticket metrics
	ticketsCreated metric.Int64Counter

	// HTTP metrics
	httpRequests metric.Int64Counter

	// Server for Prometheus scraping
	prometheusServer *http.Server
}

// MetricsConfig configures the metrics collector
type MetricsConfig struct {
	Enabled        bool `yaml:"enabled"`
	PrometheusPort int  `yaml:"prometheus_port"`
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(config MetricsConfig) (*MetricsCollector, error) {
	if !config.Enabled {
		return &MetricsCollector{}, nil
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)

	meter := provider.Meter("northdesk")

	assistRequests, err := meter.Int64Counter(
		"northdesk.assist.requests.total",
		metric.WithDescription("Total number of assist requests by chosen route"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create assist_requests counter: %w", err)
	}

	stepDuration, err := meter.Float64Histogram(
		"northdesk.step.duration",
		metric.WithDescription("Duration of instrumented routing steps in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create step_duration histogram: %w", err)
	}

	llmRequests, err := meter.Int64Counter(
		"northdesk.llm.requests.total",
		metric.WithDescription("Total number of LLM completion calls"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm_requests counter: %w", err)
	}

	llmLatency, err := meter.Float64Histogram(
		"northdesk.llm.latency",
		metric.WithDescription("LLM completion latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm_latency histogram: %w", err)
	}

	retrievalPassages, err := meter.Int64Histogram(
		"northdesk.rag.retrieved_passages",
		metric.WithDescription("Number of passages returned per retrieval"),
		metric.WithUnit("{passage}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retrieval_passages histogram: %w", err)
	}

	ticketsCreated, err := meter.Int64Counter(
		"northdesk.tickets.created.total",
		metric.WithDescription("Total number of tickets filed via the tool path"),
		metric.WithUnit("{ticket}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tickets_created counter: %w", err)
	}

	httpRequests, err := meter.Int64Counter(
		"northdesk.http.requests.total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests counter: %w", err)
	}

	collector := &MetricsCollector{
		meter:             meter,
		assistRequests:    assistRequests,
		stepDuration:      stepDuration,
		llmRequests:       llmRequests,
		llmLatency:        llmLatency,
		retrievalPassages: retrievalPassages,
		ticketsCreated:    ticketsCreated,
		httpRequests:      httpRequests,
	}

	if config.PrometheusPort > 0 {
		if err := collector.StartPrometheusServer(config.PrometheusPort); err != nil {
			return nil, fmt.Errorf("failed to start prometheus server: %w", err)
		}
	}

	return collector, nil
}

// StartPrometheusServer starts the Prometheus metrics server
func (m *MetricsCollector) StartPrometheusServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promclient.Handler())

	m.prometheusServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		log.Printf("Prometheus metrics server listening on :%d", port)
		if err := m.prometheusServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Prometheus server error: %v", err)
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the metrics collector
func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	if m.prometheusServer != nil {
		return m.prometheusServer.Shutdown(ctx)
	}
	return nil
}

// RecordAssistRequest records one routed assist request
func (m *MetricsCollector) RecordAssistRequest(ctx context.Context, route string) {
	if m == nil || m.assistRequests == nil {
		return
	}
	m.assistRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
}

// RecordStep records the duration of one instrumented routing step
func (m *MetricsCollector) RecordStep(ctx context.Context, step string, status string, duration time.Duration) {
	if m == nil || m.stepDuration == nil {
		return
	}
	m.stepDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("step", step),
		attribute.String("status", status),
	))
}

// RecordLLMRequest records an LLM completion call
func (m *MetricsCollector) RecordLLMRequest(ctx context.Context, provider, mode, status string, latency time.Duration) {
	if m == nil || m.llmRequests == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("provider", provider),
		attribute.String("mode", mode),
		attribute.String("status", status),
	}

	m.llmRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.llmLatency.Record(ctx, latency.Seconds(), metric.WithAttributes(attrs...))
}

// RecordRetrieval records the passage count of one similarity search
func (m *MetricsCollector) RecordRetrieval(ctx context.Context, passages int) {
	if m == nil || m.retrievalPassages == nil {
		return
	}
	m.retrievalPassages.Record(ctx, int64(passages))
}

// RecordTicketCreated records one filed ticket
func (m *MetricsCollector) RecordTicketCreated(ctx context.Context) {
	if m == nil || m.ticketsCreated == nil {
		return
	}
	m.ticketsCreated.Add(ctx, 1)
}

// RecordHTTPRequest records an HTTP request
func (m *MetricsCollector) RecordHTTPRequest(ctx context.Context, method, route string, status int, latency time.Duration) {
	if m == nil || m.httpRequests == nil {
		return
	}
	m.httpRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	))
	if m.stepDuration != nil {
		m.stepDuration.Record(ctx, latency.Seconds(), metric.WithAttributes(
			attribute.String("step", "http.request"),
			attribute.String("route", route),
		))
	}
}

package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Observability bundles the logger, tracer and metrics for injection into
// components that instrument their work.
type Observability struct {
	Logger  *Logger
	Tracer  *TracerProvider
	Metrics *MetricsCollector
}

// New builds the observability stack from config.
func New(config Config) (*Observability, error) {
	logger := NewLogger(LogConfig{
		Level:  config.Logging.Level,
		Format: config.Logging.Format,
	})

	tracer, err := NewTracerProvider(config.Tracing)
	if err != nil {
		return nil, err
	}

	metrics, err := NewMetricsCollector(config.Metrics)
	if err != nil {
		return nil, err
	}

	return &Observability{
		Logger:  logger,
		Tracer:  tracer,
		Metrics: metrics,
	}, nil
}

// Nop returns an observability stack that records nothing. Useful in tests
// and as a safe default when no stack is wired.
func Nop() *Observability {
	tracer, _ := NewTracerProvider(TracingConfig{Enabled: false})
	metrics, _ := NewMetricsCollector(MetricsConfig{Enabled: false})
	return &Observability{
		Logger:  NopLogger(),
		Tracer:  tracer,
		Metrics: metrics,
	}
}

// Shutdown flushes and stops the tracer and metrics exporters.
func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil {
		return nil
	}
	if o.Tracer != nil {
		if err := o.Tracer.Shutdown(ctx); err != nil {
			return err
		}
	}
	if o.Metrics != nil {
		return o.Metrics.Shutdown(ctx)
	}
	return nil
}

// Step runs fn inside a span named name, recording its duration and outcome.
// The wrapped call's result and error pass through unchanged; instrumentation
// never alters control flow.
func (o *Observability) Step(ctx context.Context, name string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	if o == nil || o.Tracer == nil {
		return fn(ctx)
	}

	ctx, span := o.Tracer.StartSpan(ctx, name, attrs...)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if o.Metrics != nil {
		o.Metrics.RecordStep(ctx, name, status, duration)
	}

	return err
}

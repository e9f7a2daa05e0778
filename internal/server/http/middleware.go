package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"northdesk/internal/observability"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware assigns every request an ID, honoring one the client
// already sent, and echoes it back in the response.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := observability.ContextWithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(requestIDHeader, requestID)

		c.Next()
	}
}

// ObservabilityMiddleware wraps each request in a server span, logs its
// outcome, and records the HTTP request metric.
func ObservabilityMiddleware(obs *observability.Observability) gin.HandlerFunc {
	logger := obs.Logger.With("component", "http")

	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		ctx, span := obs.Tracer.StartSpan(c.Request.Context(), observability.SpanHTTPServer,
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
		)
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		obs.Metrics.RecordHTTPRequest(ctx, c.Request.Method, route, status, latency)

		logger.InfoContext(ctx, "request completed",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"latency_ms", latency.Milliseconds(),
		)
	}
}

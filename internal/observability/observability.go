// internal/observability/observability.go
package observability

import (
	"context"
	"net/http"
	"time"

	"authgateway/internal/config"
	"authgateway/internal/httputils"
	"authgateway/internal/observability/logging"
	"authgateway/internal/observability/metrics"

	"github.com/google/uuid"
)

// Provider provides observability capabilities
type Provider struct {
	Logger  *logging.Logger
	Metrics *metrics.Collector
}

// NewProvider creates a new observability provider
func NewProvider(cfg *config.Config) (*Provider, error) {
	logger, err := logging.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		return nil, err
	}

	return &Provider{
		Logger:  logger,
		Metrics: metrics.NewCollector(),
	}, nil
}

type routeKey struct{}

type routeLabel struct {
	name string
}

// SetRoute names the route that matched the request. Middleware uses it as the
// metrics label; requests that never call it are recorded as unmatched.
func SetRoute(ctx context.Context, name string) {
	if label, ok := ctx.Value(routeKey{}).(*routeLabel); ok && name != "" {
		label.name = name
	}
}

// inboundTraceID returns the caller's trace id when it is a well-formed UUID
func inboundTraceID(r *http.Request) (string, bool) {
	id, err := uuid.Parse(r.Header.Get("X-Trace-ID"))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// Middleware creates an HTTP middleware for request observation
func (p *Provider) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		// Reuse an inbound trace id so the gateway can be correlated with its callers
		ctx := r.Context()
		traceID, ok := inboundTraceID(r)
		if !ok {
			traceID = logging.NewTraceID()
		}
		ctx = logging.ContextWithTraceID(ctx, traceID)

		spanID := logging.NewSpanID()
		ctx = logging.ContextWithSpanID(ctx, spanID)

		logger := p.Logger.With(logging.TraceIDKey, traceID, logging.SpanIDKey, spanID)
		ctx = logging.ContextWithLogger(ctx, logger)

		route := &routeLabel{name: metrics.RouteUnmatched}
		ctx = context.WithValue(ctx, routeKey{}, route)

		wrapper := httputils.NewResponseWriter(w)
		wrapper.Header().Set("X-Trace-ID", traceID)

		logger.Debug("Request started",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
			"tls", r.TLS != nil,
		)

		r = r.WithContext(ctx)
		next.ServeHTTP(wrapper, r)

		duration := time.Since(startTime)
		p.Metrics.RecordRequest(r.Method, route.name, wrapper.StatusCode, duration)

		logger.Info("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route.name,
			"status", wrapper.StatusCode,
			"duration_ms", duration.Milliseconds(),
			"bytes_written", wrapper.BytesWritten,
		)
	})
}

// MetricsHandler returns an HTTP handler for exposing metrics
func (p *Provider) MetricsHandler() http.Handler {
	return metrics.Handler()
}

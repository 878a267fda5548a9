package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Common label names for consistent metrics
const (
	LabelStatus   = "status"
	LabelMethod   = "method"
	LabelRoute    = "route"
	LabelAuth     = "auth_type"
	LabelSuccess  = "success"
	LabelReason   = "reason"
	LabelProvider = "provider"
	LabelOutcome  = "outcome"
)

// Bounded label values for requests that match nothing known
const (
	RouteUnmatched = "unmatched"
	MethodOther    = "OTHER"
)

var (
	// RequestsTotal counts all HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authgateway_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{LabelMethod, LabelRoute, LabelStatus},
	)

	// RequestDuration tracks the duration of HTTP requests
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "authgateway_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{LabelMethod, LabelRoute},
	)

	// AuthenticationTotal counts authentication attempts by credential channel and outcome
	AuthenticationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authgateway_authentication_total",
			Help: "Total number of authentication attempts",
		},
		[]string{LabelAuth, LabelSuccess},
	)

	// LoginFailuresTotal counts rejected logins by failure reason
	LoginFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authgateway_login_failures_total",
			Help: "Total number of rejected login requests by reason",
		},
		[]string{LabelReason},
	)

	// ProviderSwitchTotal counts switches of the active authentication provider
	ProviderSwitchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authgateway_provider_switch_total",
			Help: "Total number of active authentication provider switches",
		},
		[]string{LabelProvider},
	)

	// ProviderCallsTotal counts calls into backend authentication providers
	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authgateway_provider_calls_total",
			Help: "Total number of calls to authentication providers",
		},
		[]string{LabelProvider, LabelOutcome},
	)

	// ProviderCallDuration tracks the duration of backend provider calls
	ProviderCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "authgateway_provider_call_duration_seconds",
			Help:    "Duration of authentication provider calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{LabelProvider},
	)
)

// Collector provides methods for recording metrics
type Collector struct{}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{}
}

// RecordRequest records metrics for an HTTP request. route must come from a
// fixed set, such as a route name or RouteUnmatched.
func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	method = normalizeMethod(method)
	RequestsTotal.WithLabelValues(method, route, http.StatusText(status)).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func normalizeMethod(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch,
		http.MethodDelete, http.MethodConnect, http.MethodOptions, http.MethodTrace:
		return method
	default:
		return MethodOther
	}
}

// RecordAuthentication records an authentication attempt
func (c *Collector) RecordAuthentication(authType string, success bool) {
	if c == nil {
		return
	}
	AuthenticationTotal.WithLabelValues(authType, boolToString(success)).Inc()
}

// RecordLoginFailure records a rejected login
func (c *Collector) RecordLoginFailure(reason string) {
	if c == nil {
		return
	}
	LoginFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordProviderSwitch records a change of the active provider
func (c *Collector) RecordProviderSwitch(provider string) {
	if c == nil {
		return
	}
	ProviderSwitchTotal.WithLabelValues(provider).Inc()
}

// RecordProviderCall records a call into an authentication provider
func (c *Collector) RecordProviderCall(provider, outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	ProviderCallsTotal.WithLabelValues(provider, outcome).Inc()
	ProviderCallDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// Handler returns an HTTP handler for exposing metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// boolToString converts a boolean to a string representation
func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// internal/gateway/router.go
package gateway

import (
	"net/http"

	"authgateway/internal/auth"
	"authgateway/internal/message"
	"authgateway/internal/observability"
	"authgateway/internal/observability/logging"
	"authgateway/internal/observability/metrics"
	"authgateway/internal/session"
	"authgateway/internal/token"

	"github.com/gorilla/mux"
)

// Endpoint paths relative to the base path
const (
	LoginPath          = "/auth/login"
	QueryPath          = "/auth/query"
	AuthenticationPath = "/authentication"
)

// ProviderRegistry is the provider switch used by the administration endpoint
type ProviderRegistry interface {
	Switch(id string) error
	Active() string
	Default() string
	Names() []string
}

// Config holds router configuration
type Config struct {
	// BasePath prefixes every endpoint, e.g. /api/v1/gateway
	BasePath string

	// AdminEnabled exposes the provider switch endpoint
	AdminEnabled bool
}

// Dependencies are the components the endpoints delegate to
type Dependencies struct {
	Extractor *auth.Extractor
	Validator *auth.Validator
	Issuer    *token.Issuer
	Cookies   *session.CookieBuilder
	Providers ProviderRegistry
	Catalog   *message.Catalog
}

// Router serves the gateway authentication endpoints
type Router struct {
	*mux.Router
	extractor *auth.Extractor
	validator *auth.Validator
	issuer    *token.Issuer
	cookies   *session.CookieBuilder
	providers ProviderRegistry
	responder *responder
	logger    *logging.Logger
	metrics   *metrics.Collector
}

// New creates a new router
func New(config Config, deps Dependencies, logger *logging.Logger, metricsCollector *metrics.Collector) *Router {
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.WithModule("gateway.router")

	catalog := deps.Catalog
	if catalog == nil {
		catalog = message.Default()
	}

	r := &Router{
		Router:    mux.NewRouter(),
		extractor: deps.Extractor,
		validator: deps.Validator,
		issuer:    deps.Issuer,
		cookies:   deps.Cookies,
		providers: deps.Providers,
		responder: &responder{catalog: catalog, logger: logger},
		logger:    logger,
		metrics:   metricsCollector,
	}

	r.setupRoutes(config)

	return r
}

// setupRoutes registers the endpoints. Methods are checked by the handlers so that
// unsupported methods get a catalog message instead of a bare 405.
func (r *Router) setupRoutes(config Config) {
	base := config.BasePath

	r.Path(base + LoginPath).Name("login").HandlerFunc(r.handleLogin)
	r.Path(base + QueryPath).Name("query").HandlerFunc(r.handleQuery)

	if config.AdminEnabled && r.providers != nil {
		r.Path(base + AuthenticationPath).Name("authentication").HandlerFunc(r.handleAuthentication)
		r.logger.Warn("Provider administration endpoint enabled", "path", base+AuthenticationPath)
	}

	r.Use(routeLabel)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		logging.FromContextOr(req.Context(), r.logger).Debug("Request received for undefined route", "path", req.URL.Path)
		http.Error(w, "404 page not found", http.StatusNotFound)
	})

	_ = r.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			r.logger.Debug("Route registered", "name", route.GetName(), "path", tmpl)
		}
		return nil
	})
}

// routeLabel reports the matched route name to the request metrics
func routeLabel(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if route := mux.CurrentRoute(req); route != nil {
			observability.SetRoute(req.Context(), route.GetName())
		}
		next.ServeHTTP(w, req)
	})
}

// internal/auth/provider/zosmf/provider.go
package zosmf

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"authgateway/internal/auth"
	"authgateway/internal/observability/logging"

	"github.com/sony/gobreaker"
)

// Name is the provider id
const Name = "zosmf"

// AuthenticatePath is the authentication service endpoint relative to the base URL
const AuthenticatePath = "/zosmf/services/authenticate"

// Default circuit breaker settings
const (
	DefaultFailureThreshold = 5
	DefaultOpenTimeout      = 30 * time.Second
)

// Config holds remote provider configuration
type Config struct {
	// URL is the base URL of the authentication service
	URL *url.URL

	// Insecure skips verification of the service's TLS certificate
	Insecure bool

	// Client overrides the HTTP client, mainly for tests
	Client *http.Client

	// Mapper verifies certificate chains and yields their common name
	Mapper auth.CertificateMapper

	// FailureThreshold is the number of consecutive failures that opens the breaker
	FailureThreshold uint32

	// OpenTimeout is how long the breaker stays open before probing again
	OpenTimeout time.Duration
}

// Provider authenticates by calling a z/OSMF-style authenticate endpoint with Basic credentials
type Provider struct {
	logger   *logging.Logger
	endpoint string
	client   *http.Client
	mapper   auth.CertificateMapper
	breaker  *gobreaker.CircuitBreaker
}

// New creates the remote provider
func New(config Config, logger *logging.Logger) (*Provider, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.WithModule("auth.provider.zosmf")

	if config.URL == nil || !config.URL.IsAbs() {
		return nil, fmt.Errorf("zosmf provider requires an absolute URL")
	}

	client := config.Client
	if client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if config.Insecure {
			logger.Warn("TLS verification towards the authentication service is disabled")
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for lab systems
		}
		client = &http.Client{Transport: transport}
	}

	threshold := config.FailureThreshold
	if threshold == 0 {
		threshold = DefaultFailureThreshold
	}
	openTimeout := config.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = DefaultOpenTimeout
	}

	endpoint := config.URL.JoinPath(AuthenticatePath).String()

	p := &Provider{
		logger:   logger,
		endpoint: endpoint,
		client:   client,
		mapper:   config.Mapper,
	}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    Name,
		Timeout: openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Rejected passwords and callers hanging up say nothing about the service
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, auth.ErrInvalidCredentials) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state change",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	logger.Info("Remote authentication provider configured", "endpoint", logging.RedactStringURL(endpoint))
	return p, nil
}

// Name returns the provider id
func (p *Provider) Name() string {
	return Name
}

// VerifyPassword asks the authentication service to verify the credentials
func (p *Provider) VerifyPassword(ctx context.Context, username, password string) (string, error) {
	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, p.authenticate(ctx, username, password)
	})
	switch {
	case err == nil:
		return username, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "", fmt.Errorf("%w: circuit breaker %s", auth.ErrProviderUnavailable, p.breaker.State())
	default:
		return "", err
	}
}

func (p *Provider) authenticate(ctx context.Context, username, password string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create authentication request: %w", err)
	}
	req.SetBasicAuth(username, password)
	req.Header.Set("X-CSRF-ZOSMF-HEADER", "true")

	resp, err := p.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", auth.ErrProviderUnavailable, ctxErr)
		}
		return fmt.Errorf("%w: %w", auth.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusUnauthorized:
		return auth.ErrInvalidCredentials
	default:
		logging.FromContextOr(ctx, p.logger).Warn("Unexpected response from authentication service",
			"status", resp.StatusCode,
		)
		return fmt.Errorf("%w: unexpected status %d", auth.ErrProviderUnavailable, resp.StatusCode)
	}
}

// MapCertificate maps a verified client certificate to its common name
func (p *Provider) MapCertificate(ctx context.Context, chain []*x509.Certificate) (string, error) {
	if p.mapper == nil {
		return "", fmt.Errorf("%w: certificate login is not configured", auth.ErrInvalidCredentials)
	}
	return p.mapper.Map(ctx, chain)
}

// State returns the circuit breaker state
func (p *Provider) State() gobreaker.State {
	return p.breaker.State()
}

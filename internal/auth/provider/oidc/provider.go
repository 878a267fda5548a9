// internal/auth/provider/oidc/provider.go
package oidc

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"

	"authgateway/internal/auth"
	"authgateway/internal/observability/logging"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Name is the provider id
const Name = "oidc"

// Config holds directory provider configuration
type Config struct {
	// Issuer is the OIDC issuer URL used for endpoint discovery
	Issuer string

	// TokenURL is an explicit token endpoint; discovery is skipped when set
	TokenURL string

	// ClientID is the OAuth2 client ID
	ClientID string

	// ClientSecret is the OAuth2 client secret
	ClientSecret string

	// Scopes is a list of scopes to request
	Scopes []string

	// HTTPClient overrides the client used for discovery and token requests
	HTTPClient *http.Client

	// Mapper verifies certificate chains and yields their common name
	Mapper auth.CertificateMapper
}

// Provider verifies passwords with the OAuth2 resource owner password grant
type Provider struct {
	logger   *logging.Logger
	config   oauth2.Config
	verifier *oidc.IDTokenVerifier
	client   *http.Client
	mapper   auth.CertificateMapper
}

// New creates the directory provider. Discovery uses ctx.
func New(ctx context.Context, config Config, logger *logging.Logger) (*Provider, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.WithModule("auth.provider.oidc")

	if config.ClientID == "" {
		return nil, fmt.Errorf("oidc provider requires a client ID")
	}

	scopes := config.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID}
	}

	p := &Provider{
		logger: logger,
		client: config.HTTPClient,
		mapper: config.Mapper,
		config: oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Scopes:       scopes,
		},
	}

	switch {
	case config.TokenURL != "":
		p.config.Endpoint = oauth2.Endpoint{TokenURL: config.TokenURL}
		logger.Info("Using configured token endpoint", "token_url", logging.RedactStringURL(config.TokenURL))
	case config.Issuer != "":
		logger.Debug("Initializing OIDC provider", "issuer", config.Issuer)
		provider, err := oidc.NewProvider(p.clientContext(ctx), config.Issuer)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OIDC provider: %w", err)
		}
		p.config.Endpoint = provider.Endpoint()
		p.verifier = provider.Verifier(&oidc.Config{ClientID: config.ClientID})
		logger.Info("Discovered token endpoint", "issuer", config.Issuer)
	default:
		return nil, fmt.Errorf("oidc provider requires an issuer or a token URL")
	}

	return p, nil
}

func (p *Provider) clientContext(ctx context.Context) context.Context {
	if p.client == nil {
		return ctx
	}
	return oidc.ClientContext(ctx, p.client)
}

// Name returns the provider id
func (p *Provider) Name() string {
	return Name
}

// VerifyPassword exchanges the credentials for a token. When an id_token is returned
// and the issuer was discovered, its preferred_username becomes the identity.
func (p *Provider) VerifyPassword(ctx context.Context, username, password string) (string, error) {
	logger := logging.FromContextOr(ctx, p.logger)
	ctx = p.clientContext(ctx)

	token, err := p.config.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && isRejection(retrieveErr) {
			logger.Debug("Password grant rejected", "username", username, "error_code", retrieveErr.ErrorCode)
			return "", auth.ErrInvalidCredentials
		}
		return "", fmt.Errorf("%w: token request failed: %v", auth.ErrProviderUnavailable, err)
	}

	if p.verifier == nil {
		return username, nil
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return username, nil
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return "", fmt.Errorf("%w: id_token verification failed: %v", auth.ErrProviderUnavailable, err)
	}

	var claims struct {
		PreferredUsername string `json:"preferred_username"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return "", fmt.Errorf("%w: failed to parse id_token claims: %v", auth.ErrProviderUnavailable, err)
	}
	if claims.PreferredUsername != "" {
		return claims.PreferredUsername, nil
	}
	return username, nil
}

func isRejection(err *oauth2.RetrieveError) bool {
	if err.ErrorCode == "invalid_grant" {
		return true
	}
	if err.ErrorCode != "" || err.Response == nil {
		return false
	}
	return err.Response.StatusCode == http.StatusBadRequest || err.Response.StatusCode == http.StatusUnauthorized
}

// MapCertificate maps a verified client certificate to its common name
func (p *Provider) MapCertificate(ctx context.Context, chain []*x509.Certificate) (string, error) {
	if p.mapper == nil {
		return "", fmt.Errorf("%w: certificate login is not configured", auth.ErrInvalidCredentials)
	}
	return p.mapper.Map(ctx, chain)
}

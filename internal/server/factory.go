// internal/server/factory.go
package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"

	"authgateway/internal/auth"
	"authgateway/internal/auth/manager"
	"authgateway/internal/config"
	"authgateway/internal/gateway"
	"authgateway/internal/message"
	"authgateway/internal/observability"
	"authgateway/internal/session"
	tlsconfig "authgateway/internal/tls"
	"authgateway/internal/token"
)

// NewFromConfig creates a new server from configuration. ctx bounds provider discovery.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Server, error) {
	obs, err := observability.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	logger := obs.Logger

	var tlsCfg *tls.Config
	var authCAs *x509.CertPool
	if cfg.TLS.Enabled {
		tlsSetup := &tlsconfig.Config{
			Logger:      logger,
			RootCAPath:  cfg.TLS.CAPath,
			AuthCAFiles: cfg.Auth.MTLS.CAPaths,
			CertPath:    cfg.TLS.CertPath,
			KeyPath:     cfg.TLS.KeyPath,
		}

		tlsCfg, err = tlsSetup.GetTLSConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS configuration: %w", err)
		}
		authCAs = tlsSetup.AuthCAs
	}

	providers, err := manager.NewManagerFromConfig(ctx, cfg, authCAs, logger, obs.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize authentication providers: %w", err)
	}

	issuer, err := token.NewIssuer(token.Config{
		Issuer:   cfg.Token.Issuer,
		Domain:   cfg.Token.Domain,
		Lifetime: cfg.Token.Lifetime,
		Secret:   cfg.Token.Secret,
		KeyPath:  cfg.Token.KeyPath,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token issuer: %w", err)
	}

	cookies := session.NewCookieBuilder(session.Config{
		Path:   cfg.Cookie.Path,
		Secure: cfg.Cookie.Secure,
	})

	router := gateway.New(gateway.Config{
		BasePath:     cfg.Server.BasePath,
		AdminEnabled: cfg.Auth.AdminEnabled,
	}, gateway.Dependencies{
		Extractor: auth.NewExtractor(auth.ExtractorConfig{AllowCertificates: cfg.Auth.MTLS.Enabled}, logger),
		Validator: auth.NewValidator(providers, auth.ValidatorConfig{Timeout: cfg.Auth.ProviderTimeout}, logger, obs.Metrics),
		Issuer:    issuer,
		Cookies:   cookies,
		Providers: providers,
		Catalog:   message.Default(),
	}, logger, obs.Metrics)

	serverConfig := Config{
		Address:         cfg.Server.Address,
		MetricsAddress:  cfg.Metrics.Address,
		TLSConfig:       tlsCfg,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}

	// observability -> gateway router
	handler := obs.Middleware(router)

	return New(serverConfig, handler, obs.MetricsHandler(), logger), nil
}

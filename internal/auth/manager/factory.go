// internal/auth/manager/factory.go
package manager

import (
	"context"
	"crypto/x509"
	"fmt"

	"authgateway/internal/auth"
	"authgateway/internal/auth/mtls"
	"authgateway/internal/auth/provider/dummy"
	"authgateway/internal/auth/provider/oidc"
	"authgateway/internal/auth/provider/zosmf"
	"authgateway/internal/config"
	"authgateway/internal/observability/logging"
	"authgateway/internal/observability/metrics"
)

// NewManagerFromConfig creates a Manager with the providers enabled in the application config.
// authCAs is the client verification pool of the TLS listener and may be nil.
func NewManagerFromConfig(ctx context.Context, cfg *config.Config, authCAs *x509.CertPool, logger *logging.Logger, metrics *metrics.Collector) (*Manager, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	factoryLogger := logger.WithModule("auth.factory")

	var mapper auth.CertificateMapper
	if cfg.Auth.MTLS.Enabled {
		m, err := mtls.New(mtls.Config{
			AuthCAs: authCAs,
			CAPaths: cfg.Auth.MTLS.CAPaths,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize certificate mapper: %w", err)
		}
		mapper = m
		factoryLogger.Info("Client certificate login enabled")
	}

	dummyProvider, err := dummy.New(dummy.Config{
		UsersFile: cfg.Auth.Dummy.UsersFile,
		Mapper:    mapper,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize dummy provider: %w", err)
	}
	providers := []auth.Provider{dummyProvider}

	if cfg.ZOSMFEnabled() {
		zosmfProvider, err := zosmf.New(zosmf.Config{
			URL:      cfg.Auth.ZOSMF.URL,
			Insecure: cfg.Auth.ZOSMF.Insecure,
			Mapper:   mapper,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize zosmf provider: %w", err)
		}
		providers = append(providers, zosmfProvider)
		factoryLogger.Info("zosmf provider enabled")
	}

	if cfg.OIDCEnabled() {
		oidcProvider, err := oidc.New(ctx, oidc.Config{
			Issuer:       cfg.Auth.OIDC.Issuer,
			TokenURL:     cfg.Auth.OIDC.TokenURL,
			ClientID:     cfg.Auth.OIDC.ClientID,
			ClientSecret: cfg.Auth.OIDC.ClientSecret,
			Scopes:       cfg.Auth.OIDC.Scopes,
			Mapper:       mapper,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize oidc provider: %w", err)
		}
		providers = append(providers, oidcProvider)
		factoryLogger.Info("oidc provider enabled")
	}

	m, err := NewManager(providers, cfg.Auth.Provider, logger, metrics)
	if err != nil {
		return nil, err
	}
	factoryLogger.Info("Authentication providers ready", "default", m.Default(), "available", m.Names())
	return m, nil
}

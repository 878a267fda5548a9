// internal/auth/mtls/mapper.go
package mtls

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	"authgateway/internal/auth"
	"authgateway/internal/observability/logging"
	"authgateway/internal/tls"
)

// ErrNoAuthCAs is returned by New when neither a pool nor CA paths are given
var ErrNoAuthCAs = errors.New("mTLS certificate mapping requires a client CA pool")

// Mapper verifies client certificate chains and maps them to the certificate's common name
type Mapper struct {
	logger        *logging.Logger
	authCAs       *x509.CertPool
	allowDNSNames bool
}

// Config holds mTLS mapper configuration
type Config struct {
	// AuthCAs is the pool client chains are verified against. Takes precedence over CAPaths.
	AuthCAs *x509.CertPool

	// CAPaths is a list of paths to CA certificates for client verification
	CAPaths []string

	// AllowDNSNames falls back to the first DNS SAN when the common name is empty
	AllowDNSNames bool
}

// New creates a new certificate mapper. Every chain passed to Map is verified
// against the configured pool.
func New(config Config, logger *logging.Logger) (*Mapper, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.WithModule("auth.mtls")

	authCAs := config.AuthCAs
	if authCAs == nil && len(config.CAPaths) > 0 {
		authCAs = x509.NewCertPool()
		for _, caPath := range config.CAPaths {
			logger.Debug("Loading CA certificate", "path", caPath)

			caCert, err := os.ReadFile(caPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read mTLS CA certificate %s: %w", caPath, err)
			}
			if !authCAs.AppendCertsFromPEM(caCert) {
				return nil, fmt.Errorf("failed to parse mTLS CA certificate %s", caPath)
			}
		}
	}

	if authCAs == nil {
		return nil, ErrNoAuthCAs
	}

	return &Mapper{
		logger:        logger,
		authCAs:       authCAs,
		allowDNSNames: config.AllowDNSNames,
	}, nil
}

// Map verifies the chain and returns the leaf certificate's subject name.
// Untrusted or unnamed certificates yield auth.ErrInvalidCredentials.
func (m *Mapper) Map(ctx context.Context, chain []*x509.Certificate) (string, error) {
	logger := logging.FromContextOr(ctx, m.logger)

	if len(chain) == 0 {
		return "", fmt.Errorf("%w: empty certificate chain", auth.ErrInvalidCredentials)
	}

	if err := tls.VerifyChain(chain, m.authCAs, logger); err != nil {
		return "", fmt.Errorf("%w: %v", auth.ErrInvalidCredentials, err)
	}

	subject, err := tls.ExtractSubject(chain[0], m.allowDNSNames)
	if err != nil {
		logger.Warn("Client certificate has no usable subject", logging.Err(err))
		return "", fmt.Errorf("%w: %v", auth.ErrInvalidCredentials, err)
	}

	logger.Debug("Client certificate mapped", "subject", subject)
	return subject, nil
}

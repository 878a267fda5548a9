// internal/tls/config.go
package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"authgateway/internal/observability/logging"
)

// Config holds the TLS configuration
type Config struct {
	// Logger is the logger to use
	Logger *logging.Logger

	// RootCAPath is the path to the root CA certificate
	RootCAPath string

	// AuthCAFiles is a list of paths to CA certificates for client verification
	AuthCAFiles []string

	// CertPath is the path to the server certificate
	CertPath string

	// KeyPath is the path to the server key
	KeyPath string

	// AuthCAs is the certificate pool for client verification, populated by GetTLSConfig
	AuthCAs *x509.CertPool
}

// GetTLSConfig creates a TLS configuration for the server. Client certificates are
// requested and verified when presented, but never required: password logins share
// the same listener.
func (c *Config) GetTLSConfig() (*tls.Config, error) {
	c.Logger.Debug("Initializing TLS configuration")

	serverCert, err := tls.LoadX509KeyPair(c.CertPath, c.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load server key pair: %w", err)
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{serverCert},
		ClientAuth:   tls.VerifyClientCertIfGiven,
		MinVersion:   tls.VersionTLS12,
	}

	rootCAPool := x509.NewCertPool()
	if c.RootCAPath != "" {
		if err := appendPEMFile(rootCAPool, c.RootCAPath); err != nil {
			return nil, fmt.Errorf("failed to load root CA: %w", err)
		}
		c.Logger.Debug("Root CA loaded for TLS", "RootCAFile", c.RootCAPath)
		tlsConfig.ClientCAs = rootCAPool
	}

	if len(c.AuthCAFiles) > 0 {
		authCAPool := x509.NewCertPool()
		for _, authCAFile := range c.AuthCAFiles {
			if err := appendPEMFile(authCAPool, authCAFile); err != nil {
				return nil, fmt.Errorf("failed to load auth CA: %w", err)
			}
			c.Logger.Debug("Auth CA file loaded for mTLS", "AuthCAFile", authCAFile)
		}
		c.AuthCAs = authCAPool
		tlsConfig.ClientCAs = authCAPool
		c.Logger.Debug("mTLS configured with client certificate validation")
	} else if c.RootCAPath != "" {
		c.Logger.Warn("No AuthCAFiles were provided, client certificates are verified against the root CA")
		c.AuthCAs = rootCAPool
	}

	c.Logger.Info("TLS configuration successful")
	return tlsConfig, nil
}

func appendPEMFile(pool *x509.CertPool, path string) error {
	pem, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !pool.AppendCertsFromPEM(pem) {
		return fmt.Errorf("failed to parse %s", path)
	}
	return nil
}

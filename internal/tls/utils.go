// internal/tls/utils.go
package tls

import (
	"crypto/x509"
	"fmt"
	"time"

	"authgateway/internal/observability/logging"
)

// VerifyChain verifies a client certificate chain against a CA pool. The leaf is
// chain[0], the remaining certificates are used as intermediates.
func VerifyChain(chain []*x509.Certificate, caPool *x509.CertPool, logger *logging.Logger) error {
	if len(chain) == 0 {
		return fmt.Errorf("no certificates provided")
	}

	intermediates := x509.NewCertPool()
	for _, cert := range chain[1:] {
		intermediates.AddCert(cert)
	}

	opts := x509.VerifyOptions{
		Roots:         caPool,
		CurrentTime:   time.Now(),
		Intermediates: intermediates,
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}

	if _, err := chain[0].Verify(opts); err != nil {
		if logger != nil {
			logger.Debug("Client certificate verification failed", logging.Err(err))
		}
		return fmt.Errorf("client certificate verification failed: %w", err)
	}

	return nil
}

// ExtractSubject extracts the subject from a certificate.
// Returns the Common Name, or the first DNS name when allowDNSNames is set and the CN is empty.
func ExtractSubject(cert *x509.Certificate, allowDNSNames bool) (string, error) {
	commonName := cert.Subject.CommonName

	if commonName == "" && allowDNSNames && len(cert.DNSNames) > 0 {
		return cert.DNSNames[0], nil
	}

	if commonName == "" {
		return "", fmt.Errorf("certificate has no Common Name or valid DNS names")
	}

	return commonName, nil
}

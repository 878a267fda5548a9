// internal/auth/types.go
package auth

import (
	"context"
	"crypto/x509"
	"log/slog"
)

// CredentialKind identifies the channel a credential was presented on
type CredentialKind string

const (
	// KindBody is a username and password sent as a JSON request body
	KindBody CredentialKind = "body"

	// KindBasic is a username and password sent in an Authorization: Basic header
	KindBasic CredentialKind = "basic"

	// KindCertificate is a client certificate chain from a mutually authenticated TLS connection
	KindCertificate CredentialKind = "certificate"
)

// Credential is exactly one of: a username/password pair (KindBody, KindBasic)
// or a certificate chain (KindCertificate).
type Credential struct {
	Kind CredentialKind

	Username string
	Password string

	// Certificates is the client chain, leaf first
	Certificates []*x509.Certificate
}

// PasswordCredential builds a username/password credential for the given channel
func PasswordCredential(kind CredentialKind, username, password string) Credential {
	return Credential{Kind: kind, Username: username, Password: password}
}

// CertificateCredential builds a certificate credential
func CertificateCredential(chain []*x509.Certificate) Credential {
	return Credential{Kind: KindCertificate, Certificates: chain}
}

// IsCertificate reports whether the credential is a client certificate chain
func (c Credential) IsCertificate() bool {
	return c.Kind == KindCertificate
}

// LogValue implements slog.LogValuer. The password is never rendered.
func (c Credential) LogValue() slog.Value {
	if c.IsCertificate() {
		subject := ""
		if len(c.Certificates) > 0 {
			subject = c.Certificates[0].Subject.String()
		}
		return slog.GroupValue(
			slog.String("kind", string(c.Kind)),
			slog.String("subject_dn", subject),
		)
	}
	return slog.GroupValue(
		slog.String("kind", string(c.Kind)),
		slog.String("username", c.Username),
	)
}

// Subject is an authenticated principal. ID is minted per successful
// validation and is never reused.
type Subject struct {
	// Name is the verified username or the identity mapped from a certificate
	Name string

	// ID is the unique issuance identifier
	ID string

	// Provider is the name of the provider that authenticated the subject
	Provider string

	// Kind is the credential channel that was used
	Kind CredentialKind
}

// Provider is a backend identity source.
//
// Implementations return an error wrapping ErrInvalidCredentials when the
// backend rejects the credential, and any other error (typically wrapping
// ErrProviderUnavailable) when the backend could not give an answer.
type Provider interface {
	// Name returns the provider id
	Name() string

	// VerifyPassword checks a username and password and returns the authenticated identity
	VerifyPassword(ctx context.Context, username, password string) (string, error)

	// MapCertificate maps a trusted client certificate chain to an identity
	MapCertificate(ctx context.Context, chain []*x509.Certificate) (string, error)
}

// ProviderSource yields the provider a request should be validated against
type ProviderSource interface {
	Current() Provider
}

// CertificateMapper turns a client certificate chain into an identity
type CertificateMapper interface {
	Map(ctx context.Context, chain []*x509.Certificate) (string, error)
}

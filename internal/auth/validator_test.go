package auth

import (
	"context"
	"crypto/x509"
	"errors"
	"testing"
	"time"

	"authgateway/internal/tls/tlstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider is a Provider driven by plain functions
type stubProvider struct {
	name     string
	password func(ctx context.Context, username, password string) (string, error)
	cert     func(ctx context.Context, chain []*x509.Certificate) (string, error)
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) VerifyPassword(ctx context.Context, username, password string) (string, error) {
	return s.password(ctx, username, password)
}

func (s *stubProvider) MapCertificate(ctx context.Context, chain []*x509.Certificate) (string, error) {
	return s.cert(ctx, chain)
}

type fixedSource struct{ p Provider }

func (f fixedSource) Current() Provider { return f.p }

func acceptUser(ctx context.Context, username, password string) (string, error) {
	if username == "user" && password == "user" {
		return username, nil
	}
	return "", ErrInvalidCredentials
}

func TestValidator_Password(t *testing.T) {
	t.Parallel()

	p := &stubProvider{name: "stub", password: acceptUser}
	v := NewValidator(fixedSource{p}, ValidatorConfig{}, nil, nil)

	subject, err := v.Validate(context.Background(), PasswordCredential(KindBody, "user", "user"))
	require.NoError(t, err)
	assert.Equal(t, "user", subject.Name)
	assert.NotEmpty(t, subject.ID)
	assert.Equal(t, "stub", subject.Provider)
	assert.Equal(t, KindBody, subject.Kind)

	again, err := v.Validate(context.Background(), PasswordCredential(KindBasic, "user", "user"))
	require.NoError(t, err)
	assert.NotEqual(t, subject.ID, again.ID, "every issuance gets a fresh id")
}

func TestValidator_CollapsesRejections(t *testing.T) {
	t.Parallel()

	p := &stubProvider{
		name: "stub",
		password: func(ctx context.Context, username, password string) (string, error) {
			if username != "user" {
				return "", errors.Join(ErrInvalidCredentials, errors.New("user not found"))
			}
			return "", errors.Join(ErrInvalidCredentials, errors.New("password mismatch"))
		},
	}
	v := NewValidator(fixedSource{p}, ValidatorConfig{}, nil, nil)

	_, unknownUser := v.Validate(context.Background(), PasswordCredential(KindBody, "incorrectUser", "x"))
	_, wrongPassword := v.Validate(context.Background(), PasswordCredential(KindBody, "user", "x"))

	assert.Equal(t, ErrInvalidCredentials, unknownUser)
	assert.Equal(t, unknownUser, wrongPassword, "unknown user and wrong password must be indistinguishable")
}

func TestValidator_ProviderUnavailable(t *testing.T) {
	t.Parallel()

	t.Run("backend error", func(t *testing.T) {
		p := &stubProvider{name: "remote", password: func(ctx context.Context, u, pw string) (string, error) {
			return "", errors.New("connection refused")
		}}
		_, err := NewValidator(fixedSource{p}, ValidatorConfig{}, nil, nil).
			Validate(context.Background(), PasswordCredential(KindBody, "user", "user"))

		assert.ErrorIs(t, err, ErrProviderUnavailable)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("timeout", func(t *testing.T) {
		p := &stubProvider{name: "slow", password: func(ctx context.Context, u, pw string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}}
		start := time.Now()
		_, err := NewValidator(fixedSource{p}, ValidatorConfig{Timeout: 20 * time.Millisecond}, nil, nil).
			Validate(context.Background(), PasswordCredential(KindBody, "user", "user"))

		assert.ErrorIs(t, err, ErrProviderUnavailable)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("empty identity", func(t *testing.T) {
		p := &stubProvider{name: "broken", password: func(ctx context.Context, u, pw string) (string, error) {
			return "", nil
		}}
		_, err := NewValidator(fixedSource{p}, ValidatorConfig{}, nil, nil).
			Validate(context.Background(), PasswordCredential(KindBody, "user", "user"))

		assert.ErrorIs(t, err, ErrProviderUnavailable)
	})

	t.Run("no provider", func(t *testing.T) {
		_, err := NewValidator(fixedSource{}, ValidatorConfig{}, nil, nil).
			Validate(context.Background(), PasswordCredential(KindBody, "user", "user"))

		assert.ErrorIs(t, err, ErrProviderUnavailable)
	})
}

func TestValidator_Certificate(t *testing.T) {
	t.Parallel()

	ca := tlstest.NewCA(t, "gateway-test-ca")
	leaf := ca.ClientCert(t, "APIMTST")

	p := &stubProvider{
		name: "stub",
		cert: func(ctx context.Context, chain []*x509.Certificate) (string, error) {
			if chain[0].Subject.CommonName == "APIMTST" {
				return "user", nil
			}
			return "", ErrInvalidCredentials
		},
	}
	v := NewValidator(fixedSource{p}, ValidatorConfig{}, nil, nil)

	subject, err := v.Validate(context.Background(), CertificateCredential([]*x509.Certificate{leaf}))
	require.NoError(t, err)
	assert.Equal(t, "user", subject.Name)
	assert.Equal(t, KindCertificate, subject.Kind)

	_, err = v.Validate(context.Background(), CertificateCredential([]*x509.Certificate{ca.ClientCert(t, "stranger")}))
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidator_ValidateWithUsesGivenProvider(t *testing.T) {
	t.Parallel()

	reject := &stubProvider{name: "reject", password: func(ctx context.Context, u, pw string) (string, error) {
		return "", ErrInvalidCredentials
	}}
	accept := &stubProvider{name: "accept", password: acceptUser}
	v := NewValidator(fixedSource{reject}, ValidatorConfig{}, nil, nil)

	subject, err := v.ValidateWith(context.Background(), accept, PasswordCredential(KindBody, "user", "user"))
	require.NoError(t, err)
	assert.Equal(t, "accept", subject.Provider)
}

func TestFailureReason(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", FailureReason(nil))
	assert.Equal(t, "malformed_request", FailureReason(ErrMalformedRequest))
	assert.Equal(t, "missing_credentials", FailureReason(ErrMissingCredentials))
	assert.Equal(t, "invalid_credentials", FailureReason(ErrInvalidCredentials))
	assert.Equal(t, "provider_unavailable", FailureReason(ErrProviderUnavailable))
	assert.Equal(t, "unknown_provider", FailureReason(ErrUnknownProvider))
	assert.Equal(t, "internal", FailureReason(errors.New("boom")))
}

package auth

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"authgateway/internal/tls/tlstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginPath = "/api/v1/gateway/auth/login"

func basicHeader(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func newLoginRequest(method, body string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, loginPath, nil)
	} else {
		r = httptest.NewRequest(method, loginPath, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	return r
}

func TestExtractor_PasswordChannels(t *testing.T) {
	t.Parallel()

	e := NewExtractor(ExtractorConfig{}, nil)

	t.Run("json body", func(t *testing.T) {
		cred, err := e.Extract(newLoginRequest(http.MethodPost, `{"username":"user","password":"user"}`))
		require.NoError(t, err)
		assert.Equal(t, KindBody, cred.Kind)
		assert.Equal(t, "user", cred.Username)
		assert.Equal(t, "user", cred.Password)
	})

	t.Run("basic header", func(t *testing.T) {
		r := newLoginRequest(http.MethodPost, "")
		r.Header.Set("Authorization", basicHeader("user", "pa:ss"))

		cred, err := e.Extract(r)
		require.NoError(t, err)
		assert.Equal(t, KindBasic, cred.Kind)
		assert.Equal(t, "user", cred.Username)
		assert.Equal(t, "pa:ss", cred.Password)
	})

	t.Run("basic header wins over body", func(t *testing.T) {
		r := newLoginRequest(http.MethodPost, `{"username":"body","password":"body"}`)
		r.Header.Set("Authorization", basicHeader("header", "secret"))

		cred, err := e.Extract(r)
		require.NoError(t, err)
		assert.Equal(t, KindBasic, cred.Kind)
		assert.Equal(t, "header", cred.Username)
	})

	t.Run("lowercase scheme", func(t *testing.T) {
		r := newLoginRequest(http.MethodPost, "")
		r.Header.Set("Authorization", "basic "+base64.StdEncoding.EncodeToString([]byte("u:p")))

		cred, err := e.Extract(r)
		require.NoError(t, err)
		assert.Equal(t, "u", cred.Username)
	})

	t.Run("bearer header falls through to body", func(t *testing.T) {
		r := newLoginRequest(http.MethodPost, `{"username":"user","password":"user"}`)
		r.Header.Set("Authorization", "Bearer abc")

		cred, err := e.Extract(r)
		require.NoError(t, err)
		assert.Equal(t, KindBody, cred.Kind)
	})
}

func TestExtractor_Failures(t *testing.T) {
	t.Parallel()

	e := NewExtractor(ExtractorConfig{MaxBodyBytes: 128}, nil)

	tests := []struct {
		name   string
		method string
		body   string
		header string
		want   error
	}{
		{name: "no credentials", method: http.MethodPost, want: ErrMissingCredentials},
		{name: "whitespace body", method: http.MethodPost, body: "  \n ", want: ErrMissingCredentials},
		{name: "wrong field names", method: http.MethodPost, body: `{"user":"user","pass":"user"}`, want: ErrMalformedRequest},
		{name: "extra field", method: http.MethodPost, body: `{"username":"u","password":"p","x":1}`, want: ErrMalformedRequest},
		{name: "missing password", method: http.MethodPost, body: `{"username":"u"}`, want: ErrMalformedRequest},
		{name: "empty password", method: http.MethodPost, body: `{"username":"u","password":""}`, want: ErrMalformedRequest},
		{name: "non string value", method: http.MethodPost, body: `{"username":"u","password":42}`, want: ErrMalformedRequest},
		{name: "json null", method: http.MethodPost, body: `null`, want: ErrMalformedRequest},
		{name: "json array", method: http.MethodPost, body: `["u","p"]`, want: ErrMalformedRequest},
		{name: "not json", method: http.MethodPost, body: `username=u&password=p`, want: ErrMalformedRequest},
		{name: "trailing data", method: http.MethodPost, body: `{"username":"u","password":"p"}{}`, want: ErrMalformedRequest},
		{name: "oversized body", method: http.MethodPost, body: `{"username":"` + strings.Repeat("u", 200) + `","password":"p"}`, want: ErrMalformedRequest},
		{name: "bad base64", method: http.MethodPost, header: "Basic !!!", want: ErrMalformedRequest},
		{name: "basic without colon", method: http.MethodPost, header: "Basic " + base64.StdEncoding.EncodeToString([]byte("user")), want: ErrMalformedRequest},
		{name: "basic empty password", method: http.MethodPost, header: basicHeader("user", ""), want: ErrMalformedRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newLoginRequest(tt.method, tt.body)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			_, err := e.Extract(r)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExtractor_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	e := NewExtractor(ExtractorConfig{}, nil)

	_, err := e.Extract(newLoginRequest(http.MethodGet, `{"username":"user","password":"user"}`))

	var methodErr *MethodNotAllowedError
	require.True(t, errors.As(err, &methodErr))
	assert.Equal(t, http.MethodGet, methodErr.Method)
	assert.Equal(t, "method_not_allowed", FailureReason(err))
}

func TestExtractor_ClientCertificate(t *testing.T) {
	t.Parallel()

	ca := tlstest.NewCA(t, "gateway-test-ca")
	leaf := ca.ClientCert(t, "user")
	state := &tls.ConnectionState{
		PeerCertificates: []*x509.Certificate{leaf},
		VerifiedChains:   [][]*x509.Certificate{{leaf, ca.Cert}},
	}

	t.Run("certificate alone", func(t *testing.T) {
		r := newLoginRequest(http.MethodPost, "")
		r.TLS = state

		cred, err := NewExtractor(ExtractorConfig{AllowCertificates: true}, nil).Extract(r)
		require.NoError(t, err)
		assert.True(t, cred.IsCertificate())
		assert.Equal(t, []*x509.Certificate{leaf, ca.Cert}, cred.Certificates)
	})

	t.Run("peer certificates without verified chain", func(t *testing.T) {
		r := newLoginRequest(http.MethodPost, "")
		r.TLS = &tls.ConnectionState{PeerCertificates: []*x509.Certificate{leaf}}

		cred, err := NewExtractor(ExtractorConfig{AllowCertificates: true}, nil).Extract(r)
		require.NoError(t, err)
		assert.Equal(t, []*x509.Certificate{leaf}, cred.Certificates)
	})

	t.Run("certificates disabled", func(t *testing.T) {
		r := newLoginRequest(http.MethodPost, "")
		r.TLS = state

		_, err := NewExtractor(ExtractorConfig{}, nil).Extract(r)
		assert.ErrorIs(t, err, ErrMissingCredentials)
	})

	t.Run("explicit credentials win over certificate", func(t *testing.T) {
		r := newLoginRequest(http.MethodPost, `{"username":"other","password":"secret"}`)
		r.TLS = state

		cred, err := NewExtractor(ExtractorConfig{AllowCertificates: true}, nil).Extract(r)
		require.NoError(t, err)
		assert.Equal(t, KindBody, cred.Kind)
		assert.Equal(t, "other", cred.Username)
	})

	t.Run("tls without certificate", func(t *testing.T) {
		r := newLoginRequest(http.MethodPost, "")
		r.TLS = &tls.ConnectionState{}

		_, err := NewExtractor(ExtractorConfig{AllowCertificates: true}, nil).Extract(r)
		assert.ErrorIs(t, err, ErrMissingCredentials)
	})
}

func TestCredentialLogValueHidesPassword(t *testing.T) {
	t.Parallel()

	v := PasswordCredential(KindBasic, "user", "hunter2").LogValue()
	assert.NotContains(t, v.String(), "hunter2")
	assert.Contains(t, v.String(), "user")
}

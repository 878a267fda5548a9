package tls

import (
	"crypto/x509"
	"testing"

	"authgateway/internal/tls/tlstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyChain(t *testing.T) {
	t.Parallel()

	ca := tlstest.NewCA(t, "gateway-test-ca")
	other := tlstest.NewCA(t, "untrusted-ca")

	require.NoError(t, VerifyChain([]*x509.Certificate{ca.ClientCert(t, "user")}, ca.Pool(), nil))

	err := VerifyChain([]*x509.Certificate{other.ClientCert(t, "user")}, ca.Pool(), nil)
	assert.Error(t, err)

	err = VerifyChain([]*x509.Certificate{ca.ServerCert(t, "localhost")}, ca.Pool(), nil)
	assert.Error(t, err, "server-only certificates must not authenticate clients")

	assert.Error(t, VerifyChain(nil, ca.Pool(), nil))
}

func TestExtractSubject(t *testing.T) {
	t.Parallel()

	ca := tlstest.NewCA(t, "gateway-test-ca")

	subject, err := ExtractSubject(ca.ClientCert(t, "user"), false)
	require.NoError(t, err)
	assert.Equal(t, "user", subject)

	noCN := ca.ClientCert(t, "", "client.example.com")
	_, err = ExtractSubject(noCN, false)
	assert.Error(t, err)

	subject, err = ExtractSubject(noCN, true)
	require.NoError(t, err)
	assert.Equal(t, "client.example.com", subject)
}

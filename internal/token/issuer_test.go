package token

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"authgateway/internal/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSecretIssuer(t *testing.T) *Issuer {
	t.Helper()
	i, err := NewIssuer(Config{Issuer: "APIML", Domain: "security-domain", Lifetime: time.Hour, Secret: "test-secret"}, nil)
	require.NoError(t, err)
	return i
}

func subject(name, id string) auth.Subject {
	return auth.Subject{Name: name, ID: id, Provider: "dummy", Kind: auth.KindBody}
}

func TestIssuer_IssueAndVerify(t *testing.T) {
	t.Parallel()

	i := newSecretIssuer(t)
	tok, err := i.Issue(subject("user", "id-1"))
	require.NoError(t, err)

	assert.Equal(t, "user", tok.Subject)
	assert.Equal(t, "id-1", tok.ID)
	assert.Equal(t, "APIML", tok.Issuer)
	assert.Equal(t, "security-domain", tok.Domain)
	assert.Equal(t, time.Hour, tok.ExpiresAt.Sub(tok.IssuedAt))
	assert.NotEmpty(t, tok.Signature)
	assert.Equal(t, 2, strings.Count(tok.Encoded, "."))

	verified, err := i.VerifyAndParse(tok.Encoded)
	require.NoError(t, err)
	assert.Equal(t, tok.Subject, verified.Subject)
	assert.Equal(t, tok.ID, verified.ID)
	assert.Equal(t, tok.Domain, verified.Domain)
	assert.Equal(t, tok.Signature, verified.Signature)
	assert.Equal(t, tok.ExpiresAt.Unix(), verified.ExpiresAt.Unix())
}

func TestIssuer_IssueRequiresSubjectAndID(t *testing.T) {
	t.Parallel()

	i := newSecretIssuer(t)

	_, err := i.Issue(subject("", "id-1"))
	assert.Error(t, err)

	_, err = i.Issue(subject("user", ""))
	assert.Error(t, err)
}

func TestParseUnverified_TruncatedToken(t *testing.T) {
	t.Parallel()

	i := newSecretIssuer(t)
	tok, err := i.Issue(subject("user", "id-1"))
	require.NoError(t, err)

	truncated := tok.Encoded[:strings.LastIndex(tok.Encoded, ".")+1]
	parsed, err := ParseUnverified(truncated)
	require.NoError(t, err)
	assert.Equal(t, "user", parsed.Subject)
	assert.Equal(t, "id-1", parsed.ID)
	assert.Empty(t, parsed.Signature)

	full, err := ParseUnverified(tok.Encoded)
	require.NoError(t, err)
	assert.Equal(t, tok.Signature, full.Signature)

	_, err = i.VerifyAndParse(truncated)
	assert.ErrorIs(t, err, ErrInvalidToken, "an unsigned token is never trusted")
}

func TestParseUnverified_Garbage(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"", "abc", "a.b.c", "....."} {
		_, err := ParseUnverified(text)
		assert.ErrorIs(t, err, ErrInvalidToken, text)
	}
}

func TestIssuer_VerifyRejectsTampering(t *testing.T) {
	t.Parallel()

	i := newSecretIssuer(t)
	tok, err := i.Issue(subject("user", "id-1"))
	require.NoError(t, err)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "APIML",
			Subject:   "admin",
			ID:        "id-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	forgedText, err := forged.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	parts := strings.Split(tok.Encoded, ".")
	forgedParts := strings.Split(forgedText, ".")
	spliced := parts[0] + "." + forgedParts[1] + "." + parts[2]

	for name, text := range map[string]string{"wrong key": forgedText, "swapped payload": spliced} {
		_, err := i.VerifyAndParse(text)
		assert.ErrorIs(t, err, ErrInvalidToken, name)

		parsed, err := ParseUnverified(text)
		require.NoError(t, err, name)
		assert.Equal(t, "admin", parsed.Subject, name)
	}
}

func TestIssuer_VerifyRejectsOtherAlgorithmAndIssuer(t *testing.T) {
	t.Parallel()

	i := newSecretIssuer(t)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer: "APIML", Subject: "user", ID: "x", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	noneText, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = i.VerifyAndParse(noneText)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewIssuer(Config{Issuer: "someone-else", Secret: "test-secret"}, nil)
	require.NoError(t, err)
	tok, err := other.Issue(subject("user", "id-1"))
	require.NoError(t, err)
	_, err = i.VerifyAndParse(tok.Encoded)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_Expiry(t *testing.T) {
	t.Parallel()

	i := newSecretIssuer(t)
	issued := time.Now().Add(-2 * time.Hour)
	i.now = func() time.Time { return issued }

	tok, err := i.Issue(subject("user", "id-1"))
	require.NoError(t, err)

	i.now = time.Now
	_, err = i.VerifyAndParse(tok.Encoded)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RS256FromKeyFile(t *testing.T) {
	t.Parallel()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "token.key")
	data := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	require.NoError(t, os.WriteFile(path, data, 0o600))

	i, err := NewIssuer(Config{Issuer: "APIML", KeyPath: path}, nil)
	require.NoError(t, err)

	tok, err := i.Issue(subject("user", "id-1"))
	require.NoError(t, err)

	parsed, err := jwt.Parse(tok.Encoded, func(*jwt.Token) (any, error) { return &key.PublicKey, nil },
		jwt.WithValidMethods([]string{"RS256"}))
	require.NoError(t, err)
	assert.True(t, parsed.Valid)

	_, err = i.VerifyAndParse(tok.Encoded)
	assert.NoError(t, err)
}

func TestNewIssuer_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewIssuer(Config{Secret: "s", KeyPath: "/tmp/key"}, nil)
	assert.Error(t, err)

	_, err = NewIssuer(Config{KeyPath: filepath.Join(t.TempDir(), "missing.key")}, nil)
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.key")
	require.NoError(t, os.WriteFile(bad, []byte("not a key"), 0o600))
	_, err = NewIssuer(Config{KeyPath: bad}, nil)
	assert.Error(t, err)
}

func TestIssuer_EphemeralKey(t *testing.T) {
	t.Parallel()

	a, err := NewIssuer(Config{Issuer: "APIML"}, nil)
	require.NoError(t, err)
	b, err := NewIssuer(Config{Issuer: "APIML"}, nil)
	require.NoError(t, err)

	tok, err := a.Issue(subject("user", "id-1"))
	require.NoError(t, err)

	_, err = a.VerifyAndParse(tok.Encoded)
	assert.NoError(t, err)
	_, err = b.VerifyAndParse(tok.Encoded)
	assert.ErrorIs(t, err, ErrInvalidToken, "a different process key cannot verify")
}

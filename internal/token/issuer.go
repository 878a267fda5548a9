// internal/token/issuer.go
package token

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"authgateway/internal/auth"
	"authgateway/internal/observability/logging"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultLifetime is used when no lifetime is configured
const DefaultLifetime = 8 * time.Hour

var (
	// ErrInvalidToken indicates a token that is malformed, forged or not issued by this gateway
	ErrInvalidToken = errors.New("token is not valid")

	// ErrTokenExpired indicates a correctly signed token past its expiry
	ErrTokenExpired = fmt.Errorf("%w: expired", ErrInvalidToken)
)

// Claims are the session token claims
type Claims struct {
	jwt.RegisteredClaims

	// Domain is the security domain the token was issued for
	Domain string `json:"dom,omitempty"`
}

// Token is a parsed session token
type Token struct {
	Subject   string
	ID        string
	Issuer    string
	Domain    string
	IssuedAt  time.Time
	ExpiresAt time.Time

	// Signature is the encoded signature segment; empty for truncated tokens
	Signature string

	// Encoded is the compact serialization
	Encoded string
}

// Config holds Issuer configuration
type Config struct {
	// Issuer is the iss claim
	Issuer string

	// Domain is the dom claim
	Domain string

	// Lifetime is the validity of issued tokens
	Lifetime time.Duration

	// Secret selects HS256 signing
	Secret string

	// KeyPath selects RS256 signing with a PEM encoded RSA private key
	KeyPath string
}

// Issuer mints and verifies signed session tokens. Its keys are read-only after construction.
type Issuer struct {
	logger    *logging.Logger
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
	issuer    string
	domain    string
	lifetime  time.Duration
	now       func() time.Time
}

// NewIssuer creates a token issuer. Without a secret or key file an ephemeral RSA key is generated,
// so tokens do not survive a restart.
func NewIssuer(config Config, logger *logging.Logger) (*Issuer, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.WithModule("token")

	lifetime := config.Lifetime
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}

	i := &Issuer{
		logger:   logger,
		issuer:   config.Issuer,
		domain:   config.Domain,
		lifetime: lifetime,
		now:      time.Now,
	}

	switch {
	case config.Secret != "" && config.KeyPath != "":
		return nil, fmt.Errorf("token secret and key path are mutually exclusive")
	case config.Secret != "":
		i.method = jwt.SigningMethodHS256
		i.signKey = []byte(config.Secret)
		i.verifyKey = []byte(config.Secret)
	case config.KeyPath != "":
		pem, err := os.ReadFile(config.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read token signing key: %w", err)
		}
		key, err := jwt.ParseRSAPrivateKeyFromPEM(pem)
		if err != nil {
			return nil, fmt.Errorf("failed to parse token signing key: %w", err)
		}
		i.method = jwt.SigningMethodRS256
		i.signKey = key
		i.verifyKey = &key.PublicKey
	default:
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return nil, fmt.Errorf("failed to generate token signing key: %w", err)
		}
		i.method = jwt.SigningMethodRS256
		i.signKey = key
		i.verifyKey = &key.PublicKey
		logger.Warn("No token signing key configured, using an ephemeral key")
	}

	logger.Debug("Token issuer initialized", "alg", i.method.Alg(), "issuer", i.issuer, "lifetime", i.lifetime)
	return i, nil
}

// Issue mints a signed token for an authenticated subject
func (i *Issuer) Issue(subject auth.Subject) (Token, error) {
	if subject.Name == "" {
		return Token{}, fmt.Errorf("cannot issue a token without a subject")
	}
	if subject.ID == "" {
		return Token{}, fmt.Errorf("cannot issue a token without a token id")
	}

	now := i.now().Truncate(time.Second)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   subject.Name,
			ID:        subject.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.lifetime)),
		},
		Domain: i.domain,
	}

	encoded, err := jwt.NewWithClaims(i.method, claims).SignedString(i.signKey)
	if err != nil {
		return Token{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return fromClaims(claims, encoded), nil
}

// VerifyAndParse checks algorithm, signature, expiry and issuer
func (i *Issuer) VerifyAndParse(text string) (Token, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{i.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(text, claims, func(t *jwt.Token) (any, error) {
		return i.verifyKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Token{}, ErrTokenExpired
		}
		i.logger.Debug("Token verification failed", logging.Err(err))
		return Token{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" || claims.ID == "" {
		return Token{}, ErrInvalidToken
	}

	return fromClaims(claims, text), nil
}

// ParseUnverified decodes the claims of a full or truncated ("header.payload.") token.
// Nothing about the result is trusted.
func ParseUnverified(text string) (Token, error) {
	if strings.Count(text, ".") == 1 {
		text += "."
	}

	claims := &Claims{}
	_, parts, err := jwt.NewParser().ParseUnverified(text, claims)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	t := fromClaims(claims, text)
	t.Signature = parts[2]
	return t, nil
}

func fromClaims(claims *Claims, encoded string) Token {
	t := Token{
		Subject: claims.Subject,
		ID:      claims.ID,
		Issuer:  claims.Issuer,
		Domain:  claims.Domain,
		Encoded: encoded,
	}
	if claims.IssuedAt != nil {
		t.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		t.ExpiresAt = claims.ExpiresAt.Time
	}
	if idx := strings.LastIndex(encoded, "."); idx >= 0 {
		t.Signature = encoded[idx+1:]
	}
	return t
}

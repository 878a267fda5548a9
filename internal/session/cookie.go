// internal/session/cookie.go
package session

import (
	"net/http"
	"strings"

	"authgateway/internal/token"
)

// CookieName is the fixed session cookie name clients look for
const CookieName = "apimlAuthenticationToken"

// DefaultCookiePath is the cookie path when none is configured
const DefaultCookiePath = "/"

// Config holds session cookie configuration
type Config struct {
	// Path is the cookie path attribute
	Path string

	// Secure sets the Secure attribute
	Secure bool
}

// CookieBuilder renders session tokens as cookies and reads them back
type CookieBuilder struct {
	path   string
	secure bool
}

// NewCookieBuilder creates a cookie builder
func NewCookieBuilder(config Config) *CookieBuilder {
	b := &CookieBuilder{
		path:   config.Path,
		secure: config.Secure,
	}
	if b.path == "" {
		b.path = DefaultCookiePath
	}
	return b
}

// Name returns the cookie name
func (b *CookieBuilder) Name() string {
	return CookieName
}

// Build returns a session cookie carrying the encoded token. It has neither
// Max-Age nor Expires and ends with the client session.
func (b *CookieBuilder) Build(t token.Token) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    t.Encoded,
		Path:     b.path,
		HttpOnly: true,
		Secure:   b.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// TokenFromRequest returns the session token from the cookie, falling back to
// an Authorization: Bearer header
func (b *CookieBuilder) TokenFromRequest(r *http.Request) (string, bool) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, true
	}

	scheme, value, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		if value = strings.TrimSpace(value); value != "" {
			return value, true
		}
	}
	return "", false
}

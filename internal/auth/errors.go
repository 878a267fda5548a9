// internal/auth/errors.go
package auth

import (
	"errors"
	"fmt"
)

// Sentinel errors for login operations.
var (
	// ErrMalformedRequest indicates credentials were presented in an unusable shape.
	ErrMalformedRequest = errors.New("malformed authentication request")

	// ErrMissingCredentials indicates that no credentials were provided.
	ErrMissingCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials indicates the provider rejected the credentials.
	// It never says whether the identity or the secret was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrProviderUnavailable indicates the provider could not give an answer.
	ErrProviderUnavailable = errors.New("authentication provider unavailable")

	// ErrUnknownProvider indicates a provider id that is not registered.
	ErrUnknownProvider = errors.New("unknown authentication provider")
)

// MethodNotAllowedError is returned when the login endpoint is called with a method other than POST
type MethodNotAllowedError struct {
	Method string
}

func (e *MethodNotAllowedError) Error() string {
	return fmt.Sprintf("authentication method %q is not supported", e.Method)
}

// FailureReason returns a short, stable label for an authentication error, used
// as a metrics label and log attribute
func FailureReason(err error) string {
	var methodErr *MethodNotAllowedError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &methodErr):
		return "method_not_allowed"
	case errors.Is(err, ErrMalformedRequest):
		return "malformed_request"
	case errors.Is(err, ErrMissingCredentials):
		return "missing_credentials"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrProviderUnavailable):
		return "provider_unavailable"
	case errors.Is(err, ErrUnknownProvider):
		return "unknown_provider"
	default:
		return "internal"
	}
}

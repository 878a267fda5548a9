// internal/gateway/responder.go
package gateway

import (
	"errors"
	"net/http"

	"authgateway/internal/auth"
	"authgateway/internal/message"
	"authgateway/internal/observability/logging"
	"authgateway/internal/token"
)

// errNoToken is returned when a request carries no session token
var errNoToken = errors.New("no session token")

// responder renders failures as catalog messages
type responder struct {
	catalog *message.Catalog
	logger  *logging.Logger
}

// write sends a single catalog message; the message status is used
func (rs *responder) write(w http.ResponseWriter, r *http.Request, number string, args ...any) {
	msg, status := rs.catalog.Build(number, args...)
	if err := message.Write(w, status, msg); err != nil {
		logging.FromContextOr(r.Context(), rs.logger).Warn("Failed to write error response", logging.Err(err))
	}
}

// fail maps an error to its message number and writes it
func (rs *responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	path := r.URL.Path

	var methodErr *auth.MethodNotAllowedError
	switch {
	case errors.As(err, &methodErr):
		rs.write(w, r, message.MethodNotSupported, methodErr.Method, path)
	case errors.Is(err, auth.ErrMalformedRequest), errors.Is(err, auth.ErrMissingCredentials):
		rs.write(w, r, message.InvalidInput, path)
	case errors.Is(err, auth.ErrInvalidCredentials):
		rs.write(w, r, message.InvalidCredentials, path)
	case errors.Is(err, auth.ErrProviderUnavailable):
		rs.write(w, r, message.ProviderUnavailable, path)
	case errors.Is(err, errNoToken):
		rs.write(w, r, message.TokenNotProvided, path)
	case errors.Is(err, token.ErrInvalidToken):
		rs.write(w, r, message.InvalidToken, path)
	default:
		logging.FromContextOr(r.Context(), rs.logger).Error("Request failed", logging.Err(err), "path", path)
		rs.write(w, r, message.InternalError, path)
	}
}

// methodNotAllowed answers with 405 and an Allow header
func (rs *responder) methodNotAllowed(w http.ResponseWriter, r *http.Request, allow string) {
	w.Header().Set("Allow", allow)
	rs.fail(w, r, &auth.MethodNotAllowedError{Method: r.Method})
}

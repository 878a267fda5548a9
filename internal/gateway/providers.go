// internal/gateway/providers.go
package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"authgateway/internal/auth"
	"authgateway/internal/message"
	"authgateway/internal/observability/logging"
)

// ProvidersResponse reports the provider registry state
type ProvidersResponse struct {
	Provider  string   `json:"provider"`
	Default   string   `json:"default"`
	Available []string `json:"available"`
}

// switchRequest selects a provider; null or "" restores the default
type switchRequest struct {
	Provider *string `json:"provider"`
}

// handleAuthentication reports (GET) or switches (POST) the active provider
func (r *Router) handleAuthentication(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		r.getProviders(w, req)
	case http.MethodPost:
		r.switchProvider(w, req)
	default:
		r.responder.methodNotAllowed(w, req, "GET, POST")
	}
}

func (r *Router) getProviders(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ProvidersResponse{
		Provider:  r.providers.Active(),
		Default:   r.providers.Default(),
		Available: r.providers.Names(),
	}); err != nil {
		logging.FromContextOr(req.Context(), r.logger).Warn("Failed to write providers response", logging.Err(err))
	}
}

func (r *Router) switchProvider(w http.ResponseWriter, req *http.Request) {
	logger := logging.FromContextOr(req.Context(), r.logger)

	id, err := decodeSwitchRequest(req.Body)
	if err != nil {
		logger.Info("Rejected provider switch request", logging.Err(err))
		r.responder.fail(w, req, err)
		return
	}

	if err := r.providers.Switch(id); err != nil {
		if errors.Is(err, auth.ErrUnknownProvider) {
			r.responder.write(w, req, message.UnknownProvider, id, req.URL.Path)
			return
		}
		r.responder.fail(w, req, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func decodeSwitchRequest(body io.Reader) (string, error) {
	if body == nil {
		return "", fmt.Errorf("%w: missing body", auth.ErrMissingCredentials)
	}
	data, err := io.ReadAll(io.LimitReader(body, 4<<10))
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %v", auth.ErrMalformedRequest, err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return "", fmt.Errorf("%w: missing body", auth.ErrMissingCredentials)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var sr switchRequest
	if err := dec.Decode(&sr); err != nil {
		return "", fmt.Errorf("%w: %v", auth.ErrMalformedRequest, err)
	}
	if sr.Provider == nil {
		return "", nil
	}
	return *sr.Provider, nil
}

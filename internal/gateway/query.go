// internal/gateway/query.go
package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"authgateway/internal/observability/logging"
)

// QueryResponse describes a verified session token
type QueryResponse struct {
	UserID     string    `json:"userId"`
	TokenID    string    `json:"tokenId"`
	Domain     string    `json:"domain"`
	Creation   time.Time `json:"creation"`
	Expiration time.Time `json:"expiration"`
}

// handleQuery verifies the caller's session token and describes it
func (r *Router) handleQuery(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.responder.methodNotAllowed(w, req, http.MethodGet)
		return
	}

	logger := logging.FromContextOr(req.Context(), r.logger)

	text, ok := r.cookies.TokenFromRequest(req)
	if !ok {
		r.responder.fail(w, req, errNoToken)
		return
	}

	tok, err := r.issuer.VerifyAndParse(text)
	if err != nil {
		logger.Info("Token rejected", logging.Err(err), "token_prefix", logging.MaskedToken(text))
		r.responder.fail(w, req, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(QueryResponse{
		UserID:     tok.Subject,
		TokenID:    tok.ID,
		Domain:     tok.Domain,
		Creation:   tok.IssuedAt.UTC(),
		Expiration: tok.ExpiresAt.UTC(),
	}); err != nil {
		logger.Warn("Failed to write query response", logging.Err(err))
	}
}

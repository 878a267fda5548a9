// internal/gateway/login.go
package gateway

import (
	"net/http"

	"authgateway/internal/auth"
	"authgateway/internal/observability/logging"
)

// handleLogin authenticates the presented credential and answers 204 with a session cookie
func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := logging.FromContextOr(ctx, r.logger)

	cred, err := r.extractor.Extract(req)
	if err != nil {
		if req.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
		}
		r.loginFailed(w, req, err)
		return
	}

	subject, err := r.validator.Validate(ctx, cred)
	if err != nil {
		r.loginFailed(w, req, err)
		return
	}

	tok, err := r.issuer.Issue(subject)
	if err != nil {
		r.loginFailed(w, req, err)
		return
	}

	http.SetCookie(w, r.cookies.Build(tok))
	w.WriteHeader(http.StatusNoContent)

	logger.Info("Login successful",
		"subject", subject.Name,
		"provider", subject.Provider,
		"kind", subject.Kind,
		"token_id", tok.ID,
	)
}

func (r *Router) loginFailed(w http.ResponseWriter, req *http.Request, err error) {
	reason := auth.FailureReason(err)
	r.metrics.RecordLoginFailure(reason)
	logging.FromContextOr(req.Context(), r.logger).Info("Login failed", "reason", reason, "method", req.Method)
	r.responder.fail(w, req, err)
}

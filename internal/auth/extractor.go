// internal/auth/extractor.go
package auth

import (
	"bytes"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"authgateway/internal/observability/logging"
)

// DefaultMaxBodyBytes caps the login request body
const DefaultMaxBodyBytes = 64 << 10

// Extractor turns an inbound login request into exactly one Credential
type Extractor struct {
	logger            *logging.Logger
	allowCertificates bool
	maxBodyBytes      int64
}

// ExtractorConfig holds Extractor configuration
type ExtractorConfig struct {
	// AllowCertificates accepts TLS client certificates as a credential channel
	AllowCertificates bool

	// MaxBodyBytes caps the request body; DefaultMaxBodyBytes when zero
	MaxBodyBytes int64
}

// loginRequest is the only accepted JSON body shape
type loginRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// NewExtractor creates a new credential extractor
func NewExtractor(config ExtractorConfig, logger *logging.Logger) *Extractor {
	if logger == nil {
		logger = logging.Discard()
	}
	maxBody := config.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &Extractor{
		logger:            logger.WithModule("auth.extractor"),
		allowCertificates: config.AllowCertificates,
		maxBodyBytes:      maxBody,
	}
}

// Extract parses the request into a Credential. Precedence: Basic header, then JSON body,
// then the TLS client certificate. Failures are *MethodNotAllowedError, ErrMalformedRequest
// or ErrMissingCredentials.
func (e *Extractor) Extract(r *http.Request) (Credential, error) {
	logger := logging.FromContextOr(r.Context(), e.logger)

	if r.Method != http.MethodPost {
		return Credential{}, &MethodNotAllowedError{Method: r.Method}
	}

	if header := r.Header.Get("Authorization"); header != "" {
		if scheme, value, ok := strings.Cut(strings.TrimSpace(header), " "); ok && strings.EqualFold(scheme, "Basic") {
			cred, err := parseBasic(strings.TrimSpace(value))
			if err != nil {
				return Credential{}, err
			}
			e.logIgnoredCertificate(logger, r)
			return cred, nil
		}
		logger.Debug("Ignoring non-Basic Authorization header")
	}

	body, err := e.readBody(r)
	if err != nil {
		return Credential{}, err
	}
	if len(body) > 0 {
		cred, err := parseBody(body)
		if err != nil {
			return Credential{}, err
		}
		e.logIgnoredCertificate(logger, r)
		return cred, nil
	}

	if chain := clientChain(r); e.allowCertificates && len(chain) > 0 {
		return CertificateCredential(chain), nil
	}

	return Credential{}, ErrMissingCredentials
}

func (e *Extractor) readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, e.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrMalformedRequest, err)
	}
	if int64(len(body)) > e.maxBodyBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrMalformedRequest, e.maxBodyBytes)
	}
	return bytes.TrimSpace(body), nil
}

func (e *Extractor) logIgnoredCertificate(logger *logging.Logger, r *http.Request) {
	if len(clientChain(r)) > 0 {
		logger.Debug("Client certificate ignored in favour of explicit credentials")
	}
}

func parseBasic(value string) (Credential, error) {
	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: invalid Basic encoding", ErrMalformedRequest)
	}
	username, password, ok := strings.Cut(string(decoded), ":")
	if !ok || username == "" || password == "" {
		return Credential{}, fmt.Errorf("%w: Basic credentials must be username:password", ErrMalformedRequest)
	}
	return PasswordCredential(KindBasic, username, password), nil
}

func parseBody(body []byte) (Credential, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()

	var req loginRequest
	if err := dec.Decode(&req); err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		return Credential{}, fmt.Errorf("%w: trailing data after login request", ErrMalformedRequest)
	}
	if req.Username == nil || req.Password == nil || *req.Username == "" || *req.Password == "" {
		return Credential{}, fmt.Errorf("%w: username and password are required", ErrMalformedRequest)
	}
	return PasswordCredential(KindBody, *req.Username, *req.Password), nil
}

// clientChain returns the verified client chain, falling back to the raw peer
// certificates. Either way the chain is verified again by the certificate mapper.
func clientChain(r *http.Request) []*x509.Certificate {
	if r.TLS == nil {
		return nil
	}
	if len(r.TLS.VerifiedChains) > 0 && len(r.TLS.VerifiedChains[0]) > 0 {
		return r.TLS.VerifiedChains[0]
	}
	return r.TLS.PeerCertificates
}

// internal/auth/validator.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"authgateway/internal/observability/logging"
	"authgateway/internal/observability/metrics"

	"github.com/google/uuid"
)

// DefaultProviderTimeout bounds a provider call when no timeout is configured
const DefaultProviderTimeout = 10 * time.Second

// Validator verifies credentials against the active provider and mints subjects
type Validator struct {
	source  ProviderSource
	timeout time.Duration
	logger  *logging.Logger
	metrics *metrics.Collector
	newID   func() string
}

// ValidatorConfig holds Validator configuration
type ValidatorConfig struct {
	// Timeout bounds a single provider call
	Timeout time.Duration
}

// NewValidator creates a validator reading the provider from source on every call
func NewValidator(source ProviderSource, config ValidatorConfig, logger *logging.Logger, metrics *metrics.Collector) *Validator {
	if logger == nil {
		logger = logging.Discard()
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &Validator{
		source:  source,
		timeout: timeout,
		logger:  logger.WithModule("auth.validator"),
		metrics: metrics,
		newID:   uuid.NewString,
	}
}

// Validate captures the current provider once and validates the credential against it.
// A provider switch that completes while the call is in flight does not affect it.
func (v *Validator) Validate(ctx context.Context, cred Credential) (Subject, error) {
	return v.ValidateWith(ctx, v.source.Current(), cred)
}

// ValidateWith validates the credential against an explicit provider
func (v *Validator) ValidateWith(ctx context.Context, provider Provider, cred Credential) (Subject, error) {
	logger := logging.FromContextOr(ctx, v.logger)

	if provider == nil {
		v.metrics.RecordAuthentication(string(cred.Kind), false)
		return Subject{}, fmt.Errorf("%w: no active provider", ErrProviderUnavailable)
	}

	callCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	start := time.Now()
	var identity string
	var err error
	if cred.IsCertificate() {
		identity, err = provider.MapCertificate(callCtx, cred.Certificates)
	} else {
		identity, err = provider.VerifyPassword(callCtx, cred.Username, cred.Password)
	}
	if err == nil && identity == "" {
		err = fmt.Errorf("%w: provider returned an empty identity", ErrProviderUnavailable)
	}
	duration := time.Since(start)

	switch {
	case err == nil:
		v.metrics.RecordProviderCall(provider.Name(), "ok", duration)
	case errors.Is(err, ErrInvalidCredentials):
		v.metrics.RecordProviderCall(provider.Name(), "rejected", duration)
		v.metrics.RecordAuthentication(string(cred.Kind), false)
		logger.Info("Authentication rejected", "credential", cred, "provider", provider.Name())
		return Subject{}, ErrInvalidCredentials
	default:
		v.metrics.RecordProviderCall(provider.Name(), "unavailable", duration)
		v.metrics.RecordAuthentication(string(cred.Kind), false)
		logger.Error("Authentication provider failed",
			logging.Err(err),
			"provider", provider.Name(),
			"credential", cred,
			"duration_ms", duration.Milliseconds(),
		)
		if errors.Is(err, ErrProviderUnavailable) {
			return Subject{}, err
		}
		return Subject{}, fmt.Errorf("%w: %s: %v", ErrProviderUnavailable, provider.Name(), err)
	}

	subject := Subject{
		Name:     identity,
		ID:       v.newID(),
		Provider: provider.Name(),
		Kind:     cred.Kind,
	}

	v.metrics.RecordAuthentication(string(cred.Kind), true)
	logger.Debug("Authentication successful", "subject", subject.Name, "provider", subject.Provider, "kind", subject.Kind)
	return subject, nil
}

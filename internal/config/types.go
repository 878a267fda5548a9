// internal/config/types.go
package config

import (
	"net/url"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	// Server holds HTTP server configuration
	Server struct {
		// Address is the address to listen on
		Address string
		// ShutdownTimeout is the maximum time to wait for a graceful shutdown
		ShutdownTimeout time.Duration
		// BasePath is the path prefix of every gateway endpoint, e.g. /api/v1/gateway
		BasePath string
	}

	// Metrics holds metrics server configuration
	Metrics struct {
		// Address is the address to listen on for the metrics server
		Address string
	}

	// TLS holds TLS configuration
	TLS struct {
		// Enabled indicates whether TLS is enabled
		Enabled bool
		// CertPath is the path to the TLS certificate
		CertPath string
		// KeyPath is the path to the TLS key
		KeyPath string
		// CAPath is the path to the CA certificate for client verification
		CAPath string
	}

	// Auth holds authentication configuration
	Auth struct {
		// Provider is the id of the default authentication provider
		Provider string
		// ProviderTimeout bounds a single call into the active provider
		ProviderTimeout time.Duration
		// AdminEnabled exposes the provider switch endpoint
		AdminEnabled bool

		// MTLS holds client certificate authentication configuration
		MTLS struct {
			// Enabled indicates whether client certificate login is enabled
			Enabled bool
			// CAPaths is a list of paths to CA certificates for client verification
			CAPaths []string
		}

		// Dummy holds the stub provider configuration
		Dummy struct {
			// UsersFile is an optional YAML file of users; built-in users are used when empty
			UsersFile string
		}

		// ZOSMF holds the remote z/OSMF-style provider configuration
		ZOSMF struct {
			// URL is the base URL of the authentication service; the provider is disabled when nil
			URL *url.URL
			// Insecure skips server certificate verification towards the service
			Insecure bool
		}

		// OIDC holds the password grant provider configuration
		OIDC struct {
			// Issuer is the OIDC issuer used for endpoint discovery
			Issuer string
			// TokenURL overrides discovery with an explicit token endpoint
			TokenURL string
			// ClientID is the OAuth2 client ID
			ClientID string
			// ClientSecret is the OAuth2 client secret
			ClientSecret string
			// Scopes is a list of scopes to request
			Scopes []string
		}
	}

	// Token holds session token configuration
	Token struct {
		// Issuer is the iss claim of issued tokens
		Issuer string
		// Domain is the dom claim of issued tokens
		Domain string
		// Lifetime is the validity of issued tokens
		Lifetime time.Duration
		// Secret selects HS256 signing with a shared secret
		Secret string
		// KeyPath selects RS256 signing with a PEM encoded RSA private key
		KeyPath string
	}

	// Cookie holds session cookie configuration
	Cookie struct {
		// Path is the cookie path attribute
		Path string
		// Secure sets the Secure attribute
		Secure bool
	}

	// Observability holds observability configuration
	Observability struct {
		// LogLevel is the minimum log level to emit
		LogLevel string
		// LogFormat is the log format (json, text)
		LogFormat string
	}
}

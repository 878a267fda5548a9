// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

// EnvPrefix is prepended to every setting name when read from the environment
const EnvPrefix = "GATEWAY"

// Provider ids understood by the gateway
const (
	ProviderDummy = "dummy"
	ProviderZOSMF = "zosmf"
	ProviderOIDC  = "oidc"
)

// KnownProviders lists every provider id the gateway can construct
var KnownProviders = []string{ProviderDummy, ProviderZOSMF, ProviderOIDC}

// Load loads the configuration from all sources and returns the merged result
func Load(configPath string) (*Config, error) {
	v := viper.New()

	Settings.PopulateViperDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// A missing file is tolerated, any other read error is not
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	return FromViper(v)
}

// FromViper builds and validates a Config from a populated viper instance
func FromViper(v *viper.Viper) (*Config, error) {
	config := &Config{}
	var err error

	// Server
	config.Server.Address = v.GetString("SERVER_ADDR")
	config.Server.BasePath = normalizeBasePath(v.GetString("BASE_PATH"))
	if config.Server.ShutdownTimeout, err = duration(v, "SHUTDOWN_TIMEOUT"); err != nil {
		return nil, err
	}
	config.Metrics.Address = v.GetString("METRICS_ADDR")

	// TLS
	config.TLS.Enabled = v.GetBool("TLS_ENABLED")
	config.TLS.CertPath = v.GetString("TLS_CERT_PATH")
	config.TLS.KeyPath = v.GetString("TLS_KEY_PATH")
	config.TLS.CAPath = v.GetString("TLS_CA_PATH")

	// Authentication
	config.Auth.Provider = strings.ToLower(strings.TrimSpace(v.GetString("AUTH_PROVIDER")))
	if config.Auth.ProviderTimeout, err = duration(v, "AUTH_PROVIDER_TIMEOUT"); err != nil {
		return nil, err
	}
	config.Auth.AdminEnabled = v.GetBool("AUTH_ADMIN_ENABLED")
	config.Auth.MTLS.Enabled = v.GetBool("AUTH_MTLS_ENABLED")
	config.Auth.MTLS.CAPaths = stringSlice(v, "AUTH_MTLS_CA_PATHS")
	config.Auth.Dummy.UsersFile = v.GetString("AUTH_DUMMY_USERS_FILE")

	if raw := v.GetString("AUTH_ZOSMF_URL"); raw != "" {
		zosmfURL, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid z/OSMF URL: %w", err)
		}
		config.Auth.ZOSMF.URL = zosmfURL
	}
	config.Auth.ZOSMF.Insecure = v.GetBool("AUTH_ZOSMF_INSECURE")

	config.Auth.OIDC.Issuer = v.GetString("AUTH_OIDC_ISSUER")
	config.Auth.OIDC.TokenURL = v.GetString("AUTH_OIDC_TOKEN_URL")
	config.Auth.OIDC.ClientID = v.GetString("AUTH_OIDC_CLIENT_ID")
	config.Auth.OIDC.ClientSecret = v.GetString("AUTH_OIDC_CLIENT_SECRET")
	config.Auth.OIDC.Scopes = stringSlice(v, "AUTH_OIDC_SCOPES")

	// Session token
	config.Token.Issuer = v.GetString("TOKEN_ISSUER")
	config.Token.Domain = v.GetString("TOKEN_DOMAIN")
	if config.Token.Lifetime, err = duration(v, "TOKEN_LIFETIME"); err != nil {
		return nil, err
	}
	config.Token.Secret = v.GetString("TOKEN_SECRET")
	config.Token.KeyPath = v.GetString("TOKEN_KEY_PATH")

	// Session cookie
	config.Cookie.Path = v.GetString("COOKIE_PATH")
	config.Cookie.Secure = v.GetBool("COOKIE_SECURE")

	// Observability
	config.Observability.LogLevel = v.GetString("LOG_LEVEL")
	config.Observability.LogFormat = v.GetString("LOG_FORMAT")

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ZOSMFEnabled reports whether the remote provider is configured
func (c *Config) ZOSMFEnabled() bool {
	return c.Auth.ZOSMF.URL != nil && c.Auth.ZOSMF.URL.String() != ""
}

// OIDCEnabled reports whether the password grant provider is configured
func (c *Config) OIDCEnabled() bool {
	return c.Auth.OIDC.Issuer != "" || c.Auth.OIDC.TokenURL != ""
}

// validateConfig performs validation on the loaded configuration
func validateConfig(cfg *Config) error {
	if !strings.HasPrefix(cfg.Server.BasePath, "/") {
		return fmt.Errorf("base path must start with '/': %q", cfg.Server.BasePath)
	}

	if cfg.TLS.Enabled {
		if cfg.TLS.CertPath == "" {
			return fmt.Errorf("TLS certificate path is required when TLS is enabled")
		}
		if cfg.TLS.KeyPath == "" {
			return fmt.Errorf("TLS key path is required when TLS is enabled")
		}
		if err := fileExists("TLS certificate", cfg.TLS.CertPath); err != nil {
			return err
		}
		if err := fileExists("TLS key", cfg.TLS.KeyPath); err != nil {
			return err
		}
	}

	if err := validateAuthConfig(cfg); err != nil {
		return err
	}

	return validateTokenConfig(cfg)
}

// validateAuthConfig validates authentication configuration
func validateAuthConfig(cfg *Config) error {
	if !slices.Contains(KnownProviders, cfg.Auth.Provider) {
		return fmt.Errorf("unknown authentication provider %q, expected one of %s",
			cfg.Auth.Provider, strings.Join(KnownProviders, ", "))
	}
	if cfg.Auth.ProviderTimeout <= 0 {
		return fmt.Errorf("authentication provider timeout must be positive")
	}

	switch cfg.Auth.Provider {
	case ProviderZOSMF:
		if !cfg.ZOSMFEnabled() {
			return fmt.Errorf("z/OSMF URL is required when zosmf is the default provider")
		}
	case ProviderOIDC:
		if !cfg.OIDCEnabled() {
			return fmt.Errorf("OIDC issuer or token URL is required when oidc is the default provider")
		}
	}

	if cfg.ZOSMFEnabled() && cfg.Auth.ZOSMF.URL.Host == "" {
		return fmt.Errorf("z/OSMF URL must be absolute: %s", cfg.Auth.ZOSMF.URL)
	}
	if cfg.OIDCEnabled() && cfg.Auth.OIDC.ClientID == "" {
		return fmt.Errorf("OIDC client ID is required when the oidc provider is configured")
	}

	if cfg.Auth.MTLS.Enabled {
		if !cfg.TLS.Enabled {
			return fmt.Errorf("TLS must be enabled for client certificate login")
		}
		if len(cfg.Auth.MTLS.CAPaths) == 0 && cfg.TLS.CAPath == "" {
			return fmt.Errorf("at least one CA path is required when mTLS is enabled")
		}
		for _, caPath := range cfg.Auth.MTLS.CAPaths {
			if err := fileExists("mTLS CA", caPath); err != nil {
				return err
			}
		}
	}

	if cfg.Auth.Dummy.UsersFile != "" {
		if err := fileExists("dummy users", cfg.Auth.Dummy.UsersFile); err != nil {
			return err
		}
	}

	return nil
}

// validateTokenConfig validates session token and cookie configuration
func validateTokenConfig(cfg *Config) error {
	if cfg.Token.Lifetime <= 0 {
		return fmt.Errorf("token lifetime must be positive")
	}
	if cfg.Token.Secret != "" && cfg.Token.KeyPath != "" {
		return fmt.Errorf("token secret and token key path are mutually exclusive")
	}
	if cfg.Token.KeyPath != "" {
		if err := fileExists("token signing key", cfg.Token.KeyPath); err != nil {
			return err
		}
	}
	return nil
}

func duration(v *viper.Viper, name string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(name))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", strings.ToLower(name), err)
	}
	return d, nil
}

// stringSlice reads a list setting, accepting comma separated values from the environment
func stringSlice(v *viper.Viper, name string) []string {
	var out []string
	for _, item := range v.GetStringSlice(name) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}

func fileExists(what, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s file not found: %s", what, path)
		}
		return fmt.Errorf("failed to stat %s file %s: %w", what, path, err)
	}
	return nil
}

// internal/config/settings.go
package config

import "github.com/spf13/viper"

// SettingType represents the type of a setting
type SettingType string

const (
	// String type for string settings
	String SettingType = "string"
	// Bool type for boolean settings
	Bool SettingType = "bool"
	// Duration type for settings parsed with time.ParseDuration
	Duration SettingType = "duration"
	// StringSlice type for string slice settings
	StringSlice SettingType = "stringSlice"
)

// Setting defines a configuration setting
type Setting struct {
	// Name is the name of the setting
	Name string
	// Short is a short description of the setting
	Short string
	// Type is the type of the setting
	Type SettingType
	// Default is the default value of the setting
	Default interface{}
}

// SettingList is a list of settings
type SettingList []Setting

// PopulateViperDefaults sets default values for all settings in Viper
func (sl SettingList) PopulateViperDefaults(v *viper.Viper) {
	for _, s := range sl {
		v.SetDefault(s.Name, s.Default)
	}
}

// Lookup returns the setting with the given name
func (sl SettingList) Lookup(name string) (Setting, bool) {
	for _, s := range sl {
		if s.Name == name {
			return s, true
		}
	}
	return Setting{}, false
}

// Settings defines all application settings
var Settings = SettingList{
	// Server
	{Name: "SERVER_ADDR", Short: "Address on which the gateway listens", Type: String, Default: ":10010"},
	{Name: "METRICS_ADDR", Short: "Address on which the metrics server listens", Type: String, Default: ":9090"},
	{Name: "SHUTDOWN_TIMEOUT", Short: "Maximum time to wait for graceful shutdown", Type: Duration, Default: "30s"},
	{Name: "BASE_PATH", Short: "Path prefix of the gateway endpoints", Type: String, Default: "/api/v1/gateway"},

	// TLS
	{Name: "TLS_ENABLED", Short: "Enable TLS for the gateway", Type: Bool, Default: false},
	{Name: "TLS_CERT_PATH", Short: "Path to TLS certificate file", Type: String, Default: ""},
	{Name: "TLS_KEY_PATH", Short: "Path to TLS key file", Type: String, Default: ""},
	{Name: "TLS_CA_PATH", Short: "Path to TLS CA certificate file", Type: String, Default: ""},

	// Authentication
	{Name: "AUTH_PROVIDER", Short: "Default authentication provider (dummy, zosmf, oidc)", Type: String, Default: "dummy"},
	{Name: "AUTH_PROVIDER_TIMEOUT", Short: "Timeout of a single authentication provider call", Type: Duration, Default: "10s"},
	{Name: "AUTH_ADMIN_ENABLED", Short: "Expose the provider switch endpoint", Type: Bool, Default: false},
	{Name: "AUTH_MTLS_ENABLED", Short: "Enable client certificate login", Type: Bool, Default: false},
	{Name: "AUTH_MTLS_CA_PATHS", Short: "Paths to CA certificates for client verification", Type: StringSlice, Default: []string{}},
	{Name: "AUTH_DUMMY_USERS_FILE", Short: "YAML users file of the dummy provider", Type: String, Default: ""},
	{Name: "AUTH_ZOSMF_URL", Short: "Base URL of the z/OSMF authentication service", Type: String, Default: ""},
	{Name: "AUTH_ZOSMF_INSECURE", Short: "Skip TLS verification towards z/OSMF", Type: Bool, Default: false},
	{Name: "AUTH_OIDC_ISSUER", Short: "OIDC issuer URL used for discovery", Type: String, Default: ""},
	{Name: "AUTH_OIDC_TOKEN_URL", Short: "Explicit OAuth2 token endpoint", Type: String, Default: ""},
	{Name: "AUTH_OIDC_CLIENT_ID", Short: "OAuth2 client ID", Type: String, Default: ""},
	{Name: "AUTH_OIDC_CLIENT_SECRET", Short: "OAuth2 client secret", Type: String, Default: ""},
	{Name: "AUTH_OIDC_SCOPES", Short: "OAuth2 scopes", Type: StringSlice, Default: []string{"openid"}},

	// Session token
	{Name: "TOKEN_ISSUER", Short: "Issuer claim of session tokens", Type: String, Default: "APIML"},
	{Name: "TOKEN_DOMAIN", Short: "Domain claim of session tokens", Type: String, Default: "security-domain"},
	{Name: "TOKEN_LIFETIME", Short: "Validity of session tokens", Type: Duration, Default: "8h"},
	{Name: "TOKEN_SECRET", Short: "HS256 signing secret", Type: String, Default: ""},
	{Name: "TOKEN_KEY_PATH", Short: "PEM RSA private key for RS256 signing", Type: String, Default: ""},

	// Session cookie
	{Name: "COOKIE_PATH", Short: "Session cookie path", Type: String, Default: "/"},
	{Name: "COOKIE_SECURE", Short: "Set the Secure attribute on the session cookie", Type: Bool, Default: true},

	// Observability
	{Name: "LOG_LEVEL", Short: "Logging level", Type: String, Default: "info"},
	{Name: "LOG_FORMAT", Short: "Logging format (json, text)", Type: String, Default: "text"},
}

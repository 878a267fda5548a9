// internal/auth/provider/dummy/provider.go
package dummy

import (
	"context"
	"crypto/x509"
	"fmt"
	"os"

	"authgateway/internal/auth"
	"authgateway/internal/observability/logging"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Name is the provider id
const Name = "dummy"

// Built-in account used when no users file is configured
const (
	DefaultUsername = "user"
	DefaultPassword = "user"
)

// User is a single account of the stub provider
type User struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`

	// CertificateCN maps a client certificate common name to this user.
	// When empty the username itself is matched against the common name.
	CertificateCN string `yaml:"certificate_cn"`
}

type usersFile struct {
	Users []User `yaml:"users"`
}

// Config holds stub provider configuration
type Config struct {
	// UsersFile is a YAML file with a top level "users" list
	UsersFile string

	// Users is used when UsersFile is empty; the built-in account when both are empty
	Users []User

	// Mapper verifies certificate chains and yields their common name
	Mapper auth.CertificateMapper

	// Cost is the bcrypt cost for hashes generated at construction
	Cost int
}

// Provider authenticates against a static in-memory user table
type Provider struct {
	logger    *logging.Logger
	users     map[string]User
	byCN      map[string]string
	mapper    auth.CertificateMapper
	dummyHash []byte
}

// New creates the stub provider
func New(config Config, logger *logging.Logger) (*Provider, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.WithModule("auth.provider.dummy")

	cost := config.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	users := config.Users
	if config.UsersFile != "" {
		loaded, err := loadUsers(config.UsersFile)
		if err != nil {
			return nil, err
		}
		users = loaded
		logger.Info("Loaded users file", "path", config.UsersFile, "users", len(users))
	}
	if len(users) == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash built-in password: %w", err)
		}
		users = []User{{Username: DefaultUsername, PasswordHash: string(hash)}}
		logger.Warn("No users configured, using the built-in account", "username", DefaultUsername)
	}

	p := &Provider{
		logger: logger,
		users:  make(map[string]User, len(users)),
		byCN:   make(map[string]string, len(users)),
		mapper: config.Mapper,
	}
	for _, u := range users {
		if u.Username == "" || u.PasswordHash == "" {
			return nil, fmt.Errorf("user entries require username and password_hash")
		}
		if _, err := bcrypt.Cost([]byte(u.PasswordHash)); err != nil {
			return nil, fmt.Errorf("invalid password hash for user %q: %w", u.Username, err)
		}
		if _, dup := p.users[u.Username]; dup {
			return nil, fmt.Errorf("duplicate user %q", u.Username)
		}
		p.users[u.Username] = u

		cn := u.CertificateCN
		if cn == "" {
			cn = u.Username
		}
		p.byCN[cn] = u.Username
	}

	// Unknown users are compared against this hash so both rejections cost the same
	dummyHash, err := bcrypt.GenerateFromPassword([]byte("not-a-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash placeholder password: %w", err)
	}
	p.dummyHash = dummyHash

	return p, nil
}

func loadUsers(path string) ([]User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}
	var f usersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse users file %s: %w", path, err)
	}
	return f.Users, nil
}

// Name returns the provider id
func (p *Provider) Name() string {
	return Name
}

// VerifyPassword checks the password against the stored bcrypt hash
func (p *Provider) VerifyPassword(ctx context.Context, username, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	user, ok := p.users[username]
	hash := p.dummyHash
	if ok {
		hash = []byte(user.PasswordHash)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil || !ok {
		logging.FromContextOr(ctx, p.logger).Debug("Password verification failed", "username", username)
		return "", auth.ErrInvalidCredentials
	}
	return user.Username, nil
}

// MapCertificate maps the certificate common name to a configured user
func (p *Provider) MapCertificate(ctx context.Context, chain []*x509.Certificate) (string, error) {
	if p.mapper == nil {
		return "", fmt.Errorf("%w: certificate login is not configured", auth.ErrInvalidCredentials)
	}

	cn, err := p.mapper.Map(ctx, chain)
	if err != nil {
		return "", err
	}

	username, ok := p.byCN[cn]
	if !ok {
		logging.FromContextOr(ctx, p.logger).Debug("No user mapped to certificate", "common_name", cn)
		return "", fmt.Errorf("%w: no user for certificate", auth.ErrInvalidCredentials)
	}
	return username, nil
}

// internal/auth/manager/manager.go
package manager

import (
	"fmt"
	"sync"
	"sync/atomic"

	"authgateway/internal/auth"
	"authgateway/internal/observability/logging"
	"authgateway/internal/observability/metrics"

	"golang.org/x/exp/slices"
)

// Manager is the registry of authentication providers and the currently active one.
// Reads are lock-free; switches are serialized.
type Manager struct {
	logger    *logging.Logger
	metrics   *metrics.Collector
	providers map[string]auth.Provider
	defaultID string

	mu     sync.Mutex
	active atomic.Pointer[entry]
}

type entry struct {
	id       string
	provider auth.Provider
}

// NewManager creates a registry with defaultID active
func NewManager(providers []auth.Provider, defaultID string, logger *logging.Logger, metrics *metrics.Collector) (*Manager, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	m := &Manager{
		logger:    logger.WithModule("auth.manager"),
		metrics:   metrics,
		providers: make(map[string]auth.Provider, len(providers)),
		defaultID: defaultID,
	}
	for _, p := range providers {
		if _, dup := m.providers[p.Name()]; dup {
			return nil, fmt.Errorf("duplicate authentication provider %q", p.Name())
		}
		m.providers[p.Name()] = p
		m.logger.Debug("Registered authentication provider", "provider", p.Name())
	}

	p, ok := m.providers[defaultID]
	if !ok {
		return nil, fmt.Errorf("default provider %q is not registered: %w", defaultID, auth.ErrUnknownProvider)
	}
	m.active.Store(&entry{id: defaultID, provider: p})

	return m, nil
}

// Current returns the active provider
func (m *Manager) Current() auth.Provider {
	return m.active.Load().provider
}

// Active returns the id of the active provider
func (m *Manager) Active() string {
	return m.active.Load().id
}

// Default returns the id of the provider restored by Switch("")
func (m *Manager) Default() string {
	return m.defaultID
}

// Names returns the registered provider ids, sorted
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Switch makes id the active provider. An empty id restores the default.
// Requests that already captured a provider keep using it.
func (m *Manager) Switch(id string) error {
	if id == "" {
		id = m.defaultID
	}

	p, ok := m.providers[id]
	if !ok {
		m.logger.Warn("Rejected switch to unknown provider", "provider", id)
		return fmt.Errorf("%w: %q", auth.ErrUnknownProvider, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	previous := m.active.Load().id
	m.active.Store(&entry{id: id, provider: p})

	m.metrics.RecordProviderSwitch(id)
	m.logger.Info("Authentication provider switched", "from", previous, "to", id)
	return nil
}

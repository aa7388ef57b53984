package querysync

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/urlstate-go/urlstate/pkg/nav"
	"github.com/urlstate-go/urlstate/pkg/store"
)

// Manager owns the shared collaborators of all store bindings: the
// navigator, the preset overrides, the logger, and the observer. One
// manager serves one navigation surface (one browser session, or one
// MemoryNavigator).
type Manager struct {
	nav       nav.Navigator
	overrides Overrides
	logger    *slog.Logger
	observer  Observer

	// navMu serializes read-modify-write windows on the navigator across
	// bindings, so concurrent passes can't lose each other's query edits.
	navMu sync.Mutex

	mu       sync.Mutex
	bindings map[string]*Binding
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithOverrides installs preset values applied to matching stores before
// their defaults are captured.
func WithOverrides(o Overrides) ManagerOption {
	return func(m *Manager) {
		m.overrides = o
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithObserver wires engine telemetry. Use a MultiObserver to combine
// several; a later option replaces an earlier one.
func WithObserver(o Observer) ManagerOption {
	return func(m *Manager) {
		if o != nil {
			m.observer = o
		}
	}
}

// NewManager creates a manager bound to the given navigator.
func NewManager(navigator nav.Navigator, opts ...ManagerOption) *Manager {
	m := &Manager{
		nav:      navigator,
		logger:   slog.Default(),
		observer: nopObserver{},
		bindings: make(map[string]*Binding),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "querysync")
	return m
}

// Attach binds a store to the URL according to cfg.
//
// For an inactive config (no Enabled flag, no fields) Attach does nothing
// and returns (nil, nil). Otherwise it registers a binding that waits for
// the navigator to become ready, runs the inbound pass once, and then
// subscribes the outbound pass to store mutations. The returned binding's
// Synced channel closes when the subscription is in place.
//
// A store ID can only be attached once per manager; a second Attach is
// rejected with ErrStoreAttached. There is no detach: a binding lives as
// long as its store.
func (m *Manager) Attach(st *store.Store, cfg Config) (*Binding, error) {
	if !cfg.active() {
		return nil, nil
	}

	b := &Binding{
		store:    st,
		fields:   cfg.Fields,
		nav:      m.nav,
		navMu:    &m.navMu,
		logger:   m.logger.With("store", st.ID()),
		observer: m.observer,
		presets:  m.overrides[st.ID()],
		synced:   make(chan struct{}),
	}

	m.mu.Lock()
	if _, exists := m.bindings[st.ID()]; exists {
		m.mu.Unlock()
		m.logger.Warn("store already attached, ignoring", "store", st.ID())
		return nil, fmt.Errorf("%w: %q", ErrStoreAttached, st.ID())
	}
	m.bindings[st.ID()] = b
	m.mu.Unlock()

	go b.start()
	return b, nil
}

// Binding returns the binding for a store ID, if one is attached.
func (m *Manager) Binding(storeID string) (*Binding, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bindings[storeID]
	return b, ok
}

// Navigator returns the navigator this manager drives.
func (m *Manager) Navigator() nav.Navigator {
	return m.nav
}

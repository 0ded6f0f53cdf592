package session

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/unowned-ai/duet/pkg/identity"
	"github.com/unowned-ai/duet/pkg/store"
)

// Manager keeps one Session for whichever identity the provider currently
// reports, reopening it on every emission.
type Manager struct {
	backend  store.Backend
	provider identity.Provider
	opts     []Option
	logger   *log.Logger

	mu          sync.Mutex
	current     *Session
	err         error
	unsubscribe func()
}

func NewManager(backend store.Backend, provider identity.Provider, opts ...Option) *Manager {
	return &Manager{
		backend:  backend,
		provider: provider,
		opts:     opts,
		logger:   buildOptions(opts).logger,
	}
}

// Start subscribes to the provider. The current identity is handled before
// Start returns.
func (m *Manager) Start(ctx context.Context) {
	unsubscribe := m.provider.Subscribe(func(id identity.Identity) {
		m.switchTo(ctx, id)
	})
	m.mu.Lock()
	m.unsubscribe = unsubscribe
	m.mu.Unlock()
}

func (m *Manager) switchTo(ctx context.Context, id identity.Identity) {
	if !id.SignedIn() {
		m.mu.Lock()
		m.current, m.err = nil, nil
		m.mu.Unlock()
		m.logger.Info("signed out")
		return
	}

	s, err := Open(ctx, m.backend, id.AccountID, m.opts...)
	if err != nil {
		m.logger.Error("opening session failed", "account", id.AccountID, "err", err)
	} else {
		m.logger.Info("session opened", "account", id.AccountID)
	}

	m.mu.Lock()
	m.current, m.err = s, err
	m.mu.Unlock()
}

// Session returns the session of the signed-in identity.
func (m *Manager) Session() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.current == nil {
		return nil, identity.ErrSignedOut
	}
	return m.current, nil
}

// Close stops following the provider.
func (m *Manager) Close() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

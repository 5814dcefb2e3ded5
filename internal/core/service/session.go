package service

import (
	"context"
	"sync"
	"time"

	"storefront-cart/internal/core/domain"
	"storefront-cart/internal/port"
)

// Session bundles the per-user state: the cart service with its store, the
// order flow, and the profile cache.
type Session struct {
	Cart    *CartService
	Orders  *OrderFlow
	Profile *ProfileService
}

// SessionConfig carries the knobs shared by every session.
type SessionConfig struct {
	PreviewTTL      time.Duration
	ProfileSaveWait time.Duration
	OrderFlow       OrderFlowConfig
}

// SessionManager creates and reuses one Session per user id. Creating a
// session triggers the initial cart reconciliation for that identity.
type SessionManager struct {
	backend  port.BackendGateway
	cache    port.CacheRepository
	notifier port.OrderNotifier
	journal  chan<- domain.OrderRecord
	cfg      SessionConfig

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionManager(
	backend port.BackendGateway,
	cache port.CacheRepository,
	notifier port.OrderNotifier,
	journal chan<- domain.OrderRecord,
	cfg SessionConfig,
) *SessionManager {
	return &SessionManager{
		backend:  backend,
		cache:    cache,
		notifier: notifier,
		journal:  journal,
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}
}

// Session returns the user's session, creating it on first sight.
func (m *SessionManager) Session(ctx context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	if session, ok := m.sessions[userID]; ok {
		m.mu.Unlock()
		return session, nil
	}
	m.mu.Unlock()

	cart := NewCartService(m.backend, m.cache, m.cfg.PreviewTTL)
	profile := NewProfileService(m.backend, m.cfg.ProfileSaveWait)
	orders := NewOrderFlow(m.backend, profile, m.notifier, cart, m.journal, m.cfg.OrderFlow, nil)

	session := &Session{Cart: cart, Orders: orders, Profile: profile}

	m.mu.Lock()
	if existing, ok := m.sessions[userID]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.sessions[userID] = session
	m.mu.Unlock()

	if err := cart.SetIdentity(ctx, userID); err != nil {
		return session, err
	}
	return session, nil
}

// Drop ends a user's session: pending profile edits flush, timers stop and
// the store resets.
func (m *SessionManager) Drop(userID string) {
	m.mu.Lock()
	session, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if !ok {
		return
	}
	session.Profile.Flush()
	session.Orders.Close()
	session.Cart.Close()
	session.Cart.Store().Reset()
}

// Close drops every live session.
func (m *SessionManager) Close() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Drop(id)
	}
}

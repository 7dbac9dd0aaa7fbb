package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"popballoons/internal/domain"
	"popballoons/internal/wallet"
)

type EventKind string

const (
	EventLogin  EventKind = "login"
	EventLogout EventKind = "logout"
)

// Event is delivered to listeners after the session value changes.
type Event struct {
	Kind    EventKind
	Session domain.UserSession
}

type Listener func(Event)

// Active is the explicit session value handed to payment and upload calls.
type Active struct {
	Session domain.UserSession
	Wallet  wallet.Backend
}

func (a Active) Authenticated() bool {
	return a.Session.Authenticated && a.Session.Account != "" && a.Wallet != nil
}

// Manager owns the single wallet session of one client.
type Manager struct {
	clientID string
	wallets  *wallet.Registry
	logger   *logrus.Entry

	mu        sync.Mutex
	current   domain.UserSession
	backend   wallet.Backend
	listeners []Listener
}

func NewManager(clientID string, wallets *wallet.Registry, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
	}
	return &Manager{
		clientID: clientID,
		wallets:  wallets,
		logger:   logger.WithFields(logrus.Fields{"component": "session", "client": clientID}),
	}
}

func (m *Manager) ClientID() string { return m.clientID }

// Subscribe registers a listener for login and logout events.
func (m *Manager) Subscribe(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Login acquires a wallet identity with the chosen method. A later login
// replaces an earlier one.
func (m *Manager) Login(ctx context.Context, method domain.AuthMethod) (string, error) {
	if !method.Valid() {
		return "", &domain.AuthError{Method: method, Err: domain.ErrUnknownMethod}
	}
	backend, err := m.wallets.New(method)
	if err != nil {
		return "", &domain.AuthError{Method: method, Err: err}
	}

	account, err := backend.Login(ctx)
	if err != nil {
		m.logger.WithError(err).Warnf("%s login failed", method)
		return "", &domain.AuthError{Method: method, Err: err}
	}

	next := domain.UserSession{
		ID:            uuid.NewString(),
		Account:       account,
		Method:        method,
		Authenticated: true,
		LoggedInAt:    time.Now().UTC(),
	}

	m.mu.Lock()
	previous := m.backend
	m.current = next
	m.backend = backend
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	if previous != nil {
		if err := previous.Logout(ctx); err != nil {
			m.logger.WithError(err).Warn("release replaced wallet session")
		}
	}

	m.logger.Infof("logged in with %s wallet: %s", method.Label(), account)
	notify(listeners, Event{Kind: EventLogin, Session: next})
	return account, nil
}

// Logout clears the session even when the wallet fails to release it.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	previous := m.current
	backend := m.backend
	m.current = domain.UserSession{}
	m.backend = nil
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	if !previous.Authenticated {
		return nil
	}

	var logoutErr error
	if backend != nil {
		if err := backend.Logout(ctx); err != nil {
			m.logger.WithError(err).Warn("wallet logout")
			logoutErr = &domain.AuthError{Method: previous.Method, Err: err}
		}
	}

	m.logger.Infof("logged out %s", previous.Account)
	notify(listeners, Event{Kind: EventLogout, Session: previous})
	return logoutErr
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Authenticated
}

// Current returns a copy of the session value.
func (m *Manager) Current() domain.UserSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Manager) Active() Active {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Active{Session: m.current, Wallet: m.backend}
}

func notify(listeners []Listener, ev Event) {
	for _, l := range listeners {
		l(ev)
	}
}

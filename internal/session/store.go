package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"popballoons/internal/wallet"
)

const (
	defaultMaxClients = 10_000
	defaultClientTTL  = 24 * time.Hour
	releaseTimeout    = 30 * time.Second
)

// Store keeps one Manager per client, bounded in size and age.
type Store struct {
	wallets *wallet.Registry
	logger  *logrus.Logger
	cache   *expirable.LRU[string, *Manager]

	mu        sync.Mutex
	listeners []Listener
	released  sync.WaitGroup
}

func NewStore(wallets *wallet.Registry, maxClients int, ttl time.Duration, logger *logrus.Logger) *Store {
	if maxClients <= 0 {
		maxClients = defaultMaxClients
	}
	if ttl <= 0 {
		ttl = defaultClientTTL
	}
	if logger == nil {
		logger = logrus.New()
	}
	s := &Store{wallets: wallets, logger: logger}
	s.cache = expirable.NewLRU[string, *Manager](maxClients, s.onEvict, ttl)
	return s
}

// OnEvent subscribes l to the sessions of every client created afterwards.
func (s *Store) OnEvent(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Create registers a manager for a new client.
func (s *Store) Create() *Manager {
	m := NewManager(uuid.NewString(), s.wallets, s.logger)
	s.mu.Lock()
	for _, l := range s.listeners {
		m.Subscribe(l)
	}
	s.mu.Unlock()
	s.cache.Add(m.ClientID(), m)
	return m
}

// Touch restarts the expiry of m, e.g. after a new token was issued for it.
func (s *Store) Touch(m *Manager) {
	s.cache.Add(m.ClientID(), m)
}

func (s *Store) Get(clientID string) (*Manager, bool) {
	return s.cache.Get(clientID)
}

func (s *Store) Remove(clientID string) {
	s.cache.Remove(clientID)
}

func (s *Store) Len() int {
	return s.cache.Len()
}

func (s *Store) onEvict(clientID string, m *Manager) {
	if m == nil {
		return
	}
	current := m.Current()
	if !current.Authenticated {
		return
	}
	s.logger.WithField("client", clientID).Infof("dropping session of %s", current.Account)

	// the cache lock is held here, release the wallet outside of it
	s.released.Add(1)
	go func() {
		defer s.released.Done()
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := m.Logout(ctx); err != nil {
			s.logger.WithError(err).WithField("client", clientID).Warn("release evicted wallet session")
		}
	}()
}

// Wait blocks until wallets of evicted clients have been released.
func (s *Store) Wait() {
	s.released.Wait()
}

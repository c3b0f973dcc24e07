package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/continuum/internal/logging"
	"github.com/aretw0/continuum/pkg/domain"
	"github.com/aretw0/continuum/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed session lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates writes of live sessions to the durable store.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store    ports.SessionStore
	registry *Registry

	mu        sync.Mutex            // Global lock for the maps below
	locks     map[string]*lockEntry // Map of active locks
	persisted map[string]uint64     // Last revision written per session

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager over the live registry and the persistence store.
func NewManager(registry *Registry, store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		registry:  registry,
		locks:     make(map[string]*lockEntry),
		persisted: make(map[string]uint64),
		lockTTL:   DefaultLockTTL,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

func (m *Manager) lastPersisted(sessionID string) (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rev, ok := m.persisted[sessionID]
	return rev, ok
}

func (m *Manager) markPersisted(sessionID string, rev uint64) {
	m.mu.Lock()
	m.persisted[sessionID] = rev
	m.mu.Unlock()
}

func (m *Manager) forget(sessionID string) {
	m.mu.Lock()
	delete(m.persisted, sessionID)
	m.mu.Unlock()
}

// Persist writes the live session to the store.
// A session whose revision was already written is not written again, so repeated
// flushes leave the store untouched. Returns domain.ErrSessionNotFound if the
// session is no longer live.
func (m *Manager) Persist(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.persistLocked(ctx, sessionID)
	})
}

func (m *Manager) persistLocked(ctx context.Context, sessionID string) error {
	s, err := m.registry.Get(sessionID)
	if err != nil {
		return err
	}

	if rev, ok := m.lastPersisted(sessionID); ok && rev == s.Revision {
		m.logger.Debug("Session unchanged since last persist", "session_id", sessionID, "revision", rev)
		return nil
	}

	if err := m.store.Save(ctx, sessionID, s); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	m.markPersisted(sessionID, s.Revision)
	m.logger.Debug("Session persisted", "session_id", sessionID, "revision", s.Revision)
	return nil
}

// Restore makes a persisted session live again. If the session is already live,
// the live copy wins and is returned unchanged.
func (m *Manager) Restore(ctx context.Context, sessionID string) (*domain.Session, error) {
	var restored *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if live, err := m.registry.Get(sessionID); err == nil {
			restored = live
			return nil
		}

		s, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		s.Append(domain.Event{Kind: domain.EventSystem, Name: "session_restored"})
		if err := m.registry.Adopt(s); err != nil && !errors.Is(err, domain.ErrSessionExists) {
			return err
		}
		restored, err = m.registry.Get(sessionID)
		return err
	})
	return restored, err
}

// Close persists the session and stops tracking it.
// The session stays live if the write fails.
func (m *Manager) Close(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if err := m.persistLocked(ctx, sessionID); err != nil {
			return err
		}
		m.registry.Remove(sessionID)
		m.forget(sessionID)
		return nil
	})
}

// Delete removes the session from the registry and the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.registry.Remove(sessionID)
		m.forget(sessionID)
		return m.store.Delete(ctx, sessionID)
	})
}

// Load reads the durable copy of a session, bypassing the registry.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.store.Load(ctx, sessionID)
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

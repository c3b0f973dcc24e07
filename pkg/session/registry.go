package session

import (
	"context"
	"strings"
	"sync"

	"github.com/aretw0/continuum/pkg/domain"
	"github.com/google/uuid"
)

// Registry holds the live sessions of the process, keyed by ID.
// It is safe for concurrent use. Reads return snapshots so callers never alias registry state.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*domain.Session),
	}
}

// Open creates a new session with a random ID and tracks it.
func (r *Registry) Open(ctx context.Context, title, workspace string) *domain.Session {
	s := domain.NewSession(uuid.NewString())
	s.Title = strings.TrimSpace(title)
	s.Workspace = workspace
	s.Append(domain.Event{Kind: domain.EventSystem, Name: "session_opened"})

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	return s.Snapshot()
}

// Adopt tracks an existing session (e.g., restored from the store).
// Returns domain.ErrSessionExists if the ID is already live.
func (r *Registry) Adopt(s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.ID]; exists {
		return domain.ErrSessionExists
	}
	r.sessions[s.ID] = s.Snapshot()
	return nil
}

// Get returns a snapshot of the session.
func (r *Registry) Get(id string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s.Snapshot(), nil
}

// Update applies fn to the live session under the registry lock and advances
// the revision exactly once, whether or not fn called Append or Touch.
// fn must not block: it runs while every other reader and writer waits.
func (r *Registry) Update(id string, fn func(*domain.Session)) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	rev := s.Revision
	fn(s)
	if s.Revision == rev {
		s.Touch()
	}
	return s.Snapshot(), nil
}

// Remove stops tracking the session. Removing an unknown ID is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// ListIDs returns a point-in-time copy of the tracked IDs.
func (r *Registry) ListIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

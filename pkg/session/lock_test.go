package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/continuum/pkg/domain"
)

// nopStore accepts every write and remembers nothing.
type nopStore struct{}

func (nopStore) Save(ctx context.Context, sessionID string, s *domain.Session) error { return nil }
func (nopStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return nil, domain.ErrSessionNotFound
}
func (nopStore) Delete(ctx context.Context, sessionID string) error { return nil }
func (nopStore) List(ctx context.Context) ([]string, error)         { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	registry := NewRegistry()
	mgr := NewManager(registry, nopStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		s := registry.Open(ctx, fmt.Sprintf("session-%d", i), "")
		_ = mgr.Persist(ctx, s.ID)
		_ = mgr.Close(ctx, s.ID)
	}

	if lockCount := len(mgr.locks); lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Close", lockCount)
	}
	if tracked := len(mgr.persisted); tracked != 0 {
		t.Errorf("Persisted revisions leaked: %d entries remaining after Close", tracked)
	}
	if registry.Len() != 0 {
		t.Errorf("expected empty registry, got %d", registry.Len())
	}
}

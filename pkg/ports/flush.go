package ports

import "context"

// Persister writes a single live session to durable storage.
// Implementations may block on I/O.
type Persister interface {
	Persist(ctx context.Context, sessionID string) error
}

// Snapshotter exposes a point-in-time view of the live session IDs.
// The returned slice is owned by the caller.
type Snapshotter interface {
	ListIDs() []string
}

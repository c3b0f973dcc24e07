package domain

import (
	"maps"
	"time"
)

// EventKind identifies which channel produced an event.
type EventKind string

const (
	EventIDE    EventKind = "ide"    // Emitted by the editor extension
	EventGUI    EventKind = "gui"    // Emitted by the side panel
	EventSystem EventKind = "system" // Emitted by the server itself
)

// Event is a single interaction recorded on a session.
type Event struct {
	Kind    EventKind      `json:"kind"`
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload,omitempty"`
	At      time.Time      `json:"at"`
}

// Session represents the live state of one editor connection.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	Workspace string    `json:"workspace,omitempty"`
	Events    []Event   `json:"events"`
	Revision  uint64    `json:"revision"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates an empty session with the given ID.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Events:    []Event{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append records an event and bumps the revision.
func (s *Session) Append(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	s.Events = append(s.Events, e)
	s.Touch()
}

// Touch marks the session as modified.
func (s *Session) Touch() {
	s.Revision++
	s.UpdatedAt = time.Now().UTC()
}

// Snapshot returns a deep copy of the session.
// Payload maps are copied one level deep, which is enough for JSON-shaped data
// that callers never mutate in place.
func (s *Session) Snapshot() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Events = make([]Event, len(s.Events))
	for i, e := range s.Events {
		if e.Payload != nil {
			e.Payload = maps.Clone(e.Payload)
		}
		cp.Events[i] = e
	}
	return &cp
}

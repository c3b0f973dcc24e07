package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the registry or the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionExists is returned when a session is adopted under an ID that is already live.
var ErrSessionExists = errors.New("session already exists")

// ErrInvalidSessionID is returned for IDs a store cannot address.
var ErrInvalidSessionID = errors.New("invalid session id")

// StartupError is returned when the listener fails to bind.
// Cleanup has already run by the time the caller sees it.
type StartupError struct {
	Addr string
	Err  error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("failed to start listener on %s: %v", e.Addr, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// PersistenceError reports that a single session could not be written to the store.
type PersistenceError struct {
	SessionID string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist session %q: %v", e.SessionID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports an invalid startup setting.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s=%v: %s", e.Field, e.Value, e.Reason)
}

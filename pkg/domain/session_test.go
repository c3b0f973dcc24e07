package domain_test

import (
	"errors"
	"testing"

	"github.com/aretw0/continuum/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestSession_AppendBumpsRevision(t *testing.T) {
	s := domain.NewSession("s1")
	assert.Equal(t, uint64(0), s.Revision)

	s.Append(domain.Event{Kind: domain.EventIDE, Name: "open"})
	s.Append(domain.Event{Kind: domain.EventGUI, Name: "message"})

	assert.Equal(t, uint64(2), s.Revision)
	assert.Len(t, s.Events, 2)
	assert.False(t, s.Events[0].At.IsZero(), "Append should timestamp events")
}

func TestSession_SnapshotIsolation(t *testing.T) {
	s := domain.NewSession("s1")
	s.Append(domain.Event{Kind: domain.EventGUI, Name: "message", Payload: map[string]any{"text": "hi"}})

	snap := s.Snapshot()
	snap.Events[0].Payload["text"] = "changed"
	snap.Events = append(snap.Events, domain.Event{Name: "extra"})

	assert.Equal(t, "hi", s.Events[0].Payload["text"])
	assert.Len(t, s.Events, 1)
}

func TestErrors_Unwrap(t *testing.T) {
	cause := errors.New("disk full")

	pErr := &domain.PersistenceError{SessionID: "abc", Err: cause}
	assert.ErrorIs(t, pErr, cause)
	assert.Contains(t, pErr.Error(), "abc")

	sErr := &domain.StartupError{Addr: "127.0.0.1:1", Err: cause}
	assert.ErrorIs(t, sErr, cause)
	assert.Contains(t, sErr.Error(), "127.0.0.1:1")

	cErr := &domain.ConfigurationError{Field: "port", Value: 0, Reason: "out of range"}
	assert.Equal(t, "invalid configuration port=0: out of range", cErr.Error())
}

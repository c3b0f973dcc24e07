package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/continuum/internal/adapters/file"
	"github.com/aretw0/continuum/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T, ids ...string) *file.Store {
	t.Helper()
	store := file.New(t.TempDir())
	for _, id := range ids {
		s := domain.NewSession(id)
		s.Title = "title " + id
		s.Append(domain.Event{Kind: domain.EventIDE, Name: "opened"})
		require.NoError(t, store.Save(context.Background(), id, s))
	}
	return store
}

func TestListSessions(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, ListSessions(ctx, seededStore(t), &out))
		assert.Equal(t, "No persisted sessions found.\n", out.String())
	})

	t.Run("Sorted", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, ListSessions(ctx, seededStore(t, "b", "a"), &out))
		assert.Equal(t, "Persisted Sessions:\n- a\n- b\n", out.String())
	})
}

func TestInspectSession(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t, "abc")

	t.Run("JSON", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, InspectSession(ctx, store, "abc", FormatJSON, &out))

		var s domain.Session
		require.NoError(t, json.Unmarshal(out.Bytes(), &s))
		assert.Equal(t, "abc", s.ID)
		assert.Equal(t, "title abc", s.Title)
	})

	t.Run("Pretty", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, InspectSession(ctx, store, "abc", FormatPretty, &out))
		assert.Contains(t, out.String(), "title abc")
	})

	t.Run("Mermaid", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, InspectSession(ctx, store, "abc", FormatMermaid, &out))
		assert.Contains(t, out.String(), "IDE->>Server: opened")
	})

	t.Run("Unknown Format", func(t *testing.T) {
		assert.ErrorContains(t, InspectSession(ctx, store, "abc", "xml", &bytes.Buffer{}), "unknown format")
	})

	t.Run("Missing Session", func(t *testing.T) {
		err := InspectSession(ctx, store, "nope", FormatJSON, &bytes.Buffer{})
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}

func TestRemoveSessions(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t, "a", "b")

	var out bytes.Buffer
	err := RemoveSessions(ctx, store, []string{"a", "../escape", "b"}, &out)

	assert.ErrorIs(t, err, domain.ErrInvalidSessionID)
	assert.Contains(t, out.String(), "Removed session 'a'")
	assert.Contains(t, out.String(), "Error removing '../escape'")
	assert.Contains(t, out.String(), "Removed session 'b'")

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRemoveAllSessions(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t, "a", "b", "c")

	var out bytes.Buffer
	require.NoError(t, RemoveAllSessions(ctx, store, &out))
	assert.Contains(t, out.String(), "Removed session 'c'")

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	out.Reset()
	require.NoError(t, RemoveAllSessions(ctx, store, &out))
	assert.Equal(t, "No persisted sessions found.\n", out.String())
}

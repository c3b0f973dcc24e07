package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/aretw0/continuum/internal/presentation/graph"
	"github.com/aretw0/continuum/internal/presentation/tui"
	"github.com/aretw0/continuum/pkg/ports"
)

// Output formats of InspectSession.
const (
	FormatJSON    = "json"
	FormatPretty  = "pretty"
	FormatMermaid = "mermaid"
)

// ListSessions prints the IDs of the persisted sessions, sorted.
func ListSessions(ctx context.Context, store ports.SessionStore, w io.Writer) error {
	ids, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}

	if len(ids) == 0 {
		fmt.Fprintln(w, "No persisted sessions found.")
		return nil
	}

	sort.Strings(ids)
	fmt.Fprintln(w, "Persisted Sessions:")
	for _, id := range ids {
		fmt.Fprintln(w, "- "+id)
	}
	return nil
}

// InspectSession prints one persisted session as JSON, rendered markdown or a
// Mermaid sequence diagram.
func InspectSession(ctx context.Context, store ports.SessionStore, sessionID, format string, w io.Writer) error {
	s, err := store.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("error loading session '%s': %w", sessionID, err)
	}

	switch format {
	case FormatJSON, "":
		// Pretty print JSON
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling session: %w", err)
		}
		fmt.Fprintln(w, string(data))
	case FormatPretty:
		render, err := tui.NewRenderer()
		if err != nil {
			return err
		}
		out, err := render(tui.SessionMarkdown(s))
		if err != nil {
			return fmt.Errorf("error rendering session: %w", err)
		}
		fmt.Fprint(w, out)
	case FormatMermaid:
		fmt.Fprint(w, graph.GenerateTimeline(s))
	default:
		return fmt.Errorf("unknown format %q (want %s, %s or %s)", format, FormatJSON, FormatPretty, FormatMermaid)
	}
	return nil
}

// RemoveSessions deletes each session, reporting every outcome. All IDs are
// attempted; the failures are returned joined.
func RemoveSessions(ctx context.Context, store ports.SessionStore, sessionIDs []string, w io.Writer) error {
	var errs []error
	for _, sessionID := range sessionIDs {
		if err := store.Delete(ctx, sessionID); err != nil {
			fmt.Fprintf(w, "Error removing '%s': %v\n", sessionID, err)
			errs = append(errs, fmt.Errorf("%s: %w", sessionID, err))
			continue
		}
		fmt.Fprintf(w, "Removed session '%s'\n", sessionID)
	}
	return errors.Join(errs...)
}

// RemoveAllSessions deletes every persisted session.
func RemoveAllSessions(ctx context.Context, store ports.SessionStore, w io.Writer) error {
	ids, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No persisted sessions found.")
		return nil
	}
	sort.Strings(ids)
	return RemoveSessions(ctx, store, ids, w)
}

package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/continuum/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// It picks a light or dark theme from the terminal background.
func NewRenderer() (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}, nil
}

// SessionMarkdown summarizes a session as a markdown document: a header with the
// metadata followed by one table row per event.
func SessionMarkdown(s *domain.Session) string {
	var sb strings.Builder

	title := s.Title
	if title == "" {
		title = "Untitled session"
	}
	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(title))
	fmt.Fprintf(&sb, "- **ID:** `%s`\n", s.ID)
	if s.Workspace != "" {
		fmt.Fprintf(&sb, "- **Workspace:** `%s`\n", s.Workspace)
	}
	fmt.Fprintf(&sb, "- **Revision:** %d\n", s.Revision)
	fmt.Fprintf(&sb, "- **Created:** %s\n", s.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "- **Updated:** %s\n\n", s.UpdatedAt.Format(time.RFC3339))

	if len(s.Events) == 0 {
		sb.WriteString("_No events recorded._\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "## Events (%d)\n\n", len(s.Events))
	sb.WriteString("| Time | Channel | Event | Details |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, e := range s.Events {
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n",
			e.At.Format(time.TimeOnly),
			e.Kind,
			escapeMarkdown(e.Name),
			escapeMarkdown(formatPayload(e.Payload)),
		)
	}
	return sb.String()
}

// formatPayload renders a payload as sorted key=value pairs.
func formatPayload(payload map[string]any) string {
	if len(payload) == 0 {
		return ""
	}
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, payload[k]))
	}
	return strings.Join(parts, ", ")
}

var markdownEscaper = strings.NewReplacer("|", `\|`, "\n", " ", "\r", " ")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/continuum/pkg/domain"
)

// Participants of the timeline, one per channel.
const (
	participantIDE    = "IDE"
	participantGUI    = "GUI"
	participantServer = "Server"
)

// GenerateTimeline produces a Mermaid sequence diagram of a session's events.
// Editor and panel events are arrows into the server; system events are notes
// on the server lane. Payload keys are listed in the arrow label.
func GenerateTimeline(s *domain.Session) string {
	var sb strings.Builder
	sb.WriteString("sequenceDiagram\n")
	sb.WriteString(fmt.Sprintf("    participant %s as Editor\n", participantIDE))
	sb.WriteString(fmt.Sprintf("    participant %s as Panel\n", participantGUI))
	sb.WriteString(fmt.Sprintf("    participant %s as Continuum\n", participantServer))

	if s.Title != "" {
		sb.WriteString(fmt.Sprintf("    Note over %s,%s: %s\n", participantIDE, participantServer, sanitizeLabel(s.Title)))
	}

	for _, e := range s.Events {
		label := sanitizeLabel(e.Name)
		if keys := payloadKeys(e.Payload); keys != "" {
			label = fmt.Sprintf("%s (%s)", label, keys)
		}

		switch e.Kind {
		case domain.EventIDE:
			sb.WriteString(fmt.Sprintf("    %s->>%s: %s\n", participantIDE, participantServer, label))
		case domain.EventGUI:
			sb.WriteString(fmt.Sprintf("    %s->>%s: %s\n", participantGUI, participantServer, label))
		default:
			sb.WriteString(fmt.Sprintf("    Note right of %s: %s\n", participantServer, label))
		}
	}

	return sb.String()
}

func payloadKeys(payload map[string]any) string {
	if len(payload) == 0 {
		return ""
	}
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, sanitizeLabel(k))
	}
	slices.Sort(keys)
	return strings.Join(keys, ", ")
}

// sanitizeLabel strips characters that end a Mermaid message or note.
func sanitizeLabel(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, ";", ",")
	s = strings.ReplaceAll(s, "#", "")
	return strings.TrimSpace(s)
}

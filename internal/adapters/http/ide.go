package http

import (
	"net/http"
	"strings"

	"github.com/aretw0/continuum/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// OpenSessionRequest is the body of POST /ide/sessions.
// A non-empty SessionID restores that persisted session instead of opening a new one.
type OpenSessionRequest struct {
	Title     string `json:"title"`
	Workspace string `json:"workspace"`
	SessionID string `json:"session_id,omitempty"`
}

// EventRequest is the body of POST /ide/sessions/{id}/events.
type EventRequest struct {
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload,omitempty"`
}

// SessionListResponse lists the live session IDs.
type SessionListResponse struct {
	Sessions []string `json:"sessions"`
}

func (s *Server) ideRoutes(r chi.Router) {
	r.Post("/sessions", s.OpenSession)
	r.Get("/sessions", s.ListSessions)
	r.Post("/sessions/{id}/events", s.RecordEvent)
	r.Delete("/sessions/{id}", s.CloseSession)
}

// OpenSession handles POST /ide/sessions.
func (s *Server) OpenSession(w http.ResponseWriter, r *http.Request) {
	var body OpenSessionRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, s.logger, err)
		return
	}
	if err := sanitizeFields(&body.Title, &body.Workspace); err != nil {
		writeError(w, s.logger, err)
		return
	}

	if id := strings.TrimSpace(body.SessionID); id != "" {
		restored, err := s.manager.Restore(r.Context(), id)
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		s.logger.Info("Session restored", "session_id", restored.ID, "revision", restored.Revision)
		writeJSON(w, s.logger, http.StatusCreated, restored)
		return
	}

	opened := s.registry.Open(r.Context(), body.Title, body.Workspace)
	s.logger.Info("Session opened", "session_id", opened.ID, "workspace", opened.Workspace)
	writeJSON(w, s.logger, http.StatusCreated, opened)
}

// ListSessions handles GET /ide/sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, SessionListResponse{Sessions: s.registry.ListIDs()})
}

// RecordEvent handles POST /ide/sessions/{id}/events.
func (s *Server) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var body EventRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, s.logger, err)
		return
	}
	if err := sanitizeFields(&body.Name); err != nil {
		writeError(w, s.logger, err)
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		writeError(w, s.logger, badRequest("event name is required"))
		return
	}

	updated, err := s.registry.Update(chi.URLParam(r, "id"), func(live *domain.Session) {
		live.Append(domain.Event{Kind: domain.EventIDE, Name: body.Name, Payload: body.Payload})
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, s.logger, http.StatusAccepted, updated)
}

// CloseSession handles DELETE /ide/sessions/{id}.
// The session is persisted before it leaves the registry.
func (s *Server) CloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.manager.Close(r.Context(), id); err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.logger.Info("Session closed", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}

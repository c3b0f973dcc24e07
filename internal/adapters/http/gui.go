package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aretw0/continuum/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// MessageRequest is the body of POST /gui/sessions/{id}/messages.
type MessageRequest struct {
	Text string `json:"text"`
}

func (s *Server) guiRoutes(r chi.Router) {
	r.Get("/sessions/{id}", s.GetSession)
	r.Post("/sessions/{id}/messages", s.PostMessage)
	r.Post("/sessions/{id}/persist", s.PersistSession)
}

// GetSession handles GET /gui/sessions/{id}.
// Live sessions win; otherwise the durable copy is served.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess, err := s.registry.Get(id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		sess, err = s.manager.Load(r.Context(), id)
	}
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, sess)
}

// PostMessage handles POST /gui/sessions/{id}/messages.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	var body MessageRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, s.logger, err)
		return
	}
	if err := sanitizeFields(&body.Text); err != nil {
		writeError(w, s.logger, err)
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		writeError(w, s.logger, badRequest("message text is required"))
		return
	}

	updated, err := s.registry.Update(chi.URLParam(r, "id"), func(live *domain.Session) {
		live.Append(domain.Event{
			Kind:    domain.EventGUI,
			Name:    "message",
			Payload: map[string]any{"text": body.Text},
		})
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, s.logger, http.StatusAccepted, updated)
}

// PersistSession handles POST /gui/sessions/{id}/persist.
func (s *Server) PersistSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.manager.Persist(r.Context(), id); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariavoice/aria/internal/archive"
	"github.com/ariavoice/aria/internal/persona"
	"github.com/ariavoice/aria/internal/session"
	"github.com/ariavoice/aria/internal/voice"
)

func (s *Server) handleAgentChat(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	var req struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "missing_message", "message is required")
		return
	}

	personaID := s.sessions.PersonaID(sessionID)
	p := persona.Get(personaID)
	s.sessions.Append(sessionID, session.RoleUser, req.Message)
	s.archiveTurn(sessionID, session.RoleUser, req.Message, personaID)

	reply, handled := s.skills.Respond(r.Context(), sessionID, personaID, req.Message)
	if !handled {
		prompt := voice.BuildPrompt(p.SystemPrompt, s.sessions.History(sessionID))
		var err error
		reply, err = s.llm.Generate(r.Context(), sessionID, prompt, s.cfg.DefaultModel)
		if errors.Is(err, voice.ErrNotConfigured) {
			reply = s.cfg.FallbackText
		} else if err != nil {
			log.Printf("agent chat llm failed: %v", err)
			s.metrics.ProviderErrors.WithLabelValues("llm", "generate").Inc()
			respondError(w, http.StatusBadGateway, "llm_failed", "Failed to generate response")
			return
		}
	}

	if reply != s.cfg.FallbackText {
		s.sessions.Append(sessionID, session.RoleAssistant, reply)
		s.archiveTurn(sessionID, session.RoleAssistant, reply, personaID)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"persona_id": personaID,
		"response":   reply,
		"audio_urls": s.synthesizeChunks(r, sessionID, reply, p.VoiceID),
	})
}

func (s *Server) archiveTurn(sessionID, role, content, personaID string) {
	if s.archive == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		turn := archive.Turn{SessionID: sessionID, Role: role, Content: content, PersonaID: personaID}
		if err := s.archive.SaveTurn(ctx, turn); err != nil {
			log.Printf("session %s: archive turn: %v", sessionID, err)
		}
	}()
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	respondJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"history":    s.sessions.History(sessionID),
	})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	s.sessions.Clear(sessionID)
	respondJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"status":     "cleared",
	})
}

func (s *Server) handleListPersonas(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"personas": persona.List(),
		"default":  persona.DefaultID,
	})
}

func (s *Server) handleGetPersona(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	respondJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"persona":    persona.Get(s.sessions.PersonaID(sessionID)),
	})
}

func (s *Server) handleSetPersona(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	var req struct {
		PersonaID string `json:"persona_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if !persona.Exists(req.PersonaID) {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":     "unknown persona: " + req.PersonaID,
			"available": persona.IDs(),
		})
		return
	}

	s.sessions.SetPersona(sessionID, req.PersonaID)
	respondJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"status":     "updated",
		"persona":    persona.Get(req.PersonaID),
	})
}

package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ariavoice/aria/internal/apikeys"
)

func (s *Server) handleSetAPIKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Service   string `json:"service"`
		APIKey    string `json:"api_key"`
		SessionID string `json:"session_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	service := apikeys.Service(strings.ToLower(strings.TrimSpace(req.Service)))
	if !apikeys.Known(service) {
		respondError(w, http.StatusBadRequest, "unknown_service", "unknown service: "+req.Service)
		return
	}
	key := strings.TrimSpace(req.APIKey)
	if key == "" {
		respondError(w, http.StatusBadRequest, "missing_api_key", "api_key is required")
		return
	}
	if !apikeys.ValidFormat(service, key) {
		respondError(w, http.StatusBadRequest, "invalid_key_format", "the key does not look like a valid "+string(service)+" key")
		return
	}

	s.keys.Set(service, key, req.SessionID)
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "saved",
		"service": service,
		"scope":   keyScope(req.SessionID),
		"key":     s.keys.Status(service, req.SessionID),
	})
}

func keyScope(sessionID string) string {
	if strings.TrimSpace(sessionID) == "" {
		return "global"
	}
	return "session"
}

func (s *Server) handleAPIKeyStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	statuses := make(map[apikeys.Service]apikeys.Status, len(apikeys.Services()))
	for _, service := range apikeys.Services() {
		statuses[service] = s.keys.Status(service, sessionID)
	}
	respondJSON(w, http.StatusOK, map[string]any{"services": statuses})
}

func (s *Server) handleClearAPIKeys(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	s.keys.Clear(sessionID)
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "cleared",
		"scope":  keyScope(sessionID),
	})
}

// handleTestService probes a provider with the currently resolved key.
func (s *Server) handleTestService(w http.ResponseWriter, r *http.Request) {
	service := apikeys.Service(strings.ToLower(chi.URLParam(r, "service")))
	if !apikeys.Known(service) {
		respondError(w, http.StatusNotFound, "unknown_service", "unknown service: "+string(service))
		return
	}
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))

	key, source := s.keys.Resolve(service, sessionID)
	result := map[string]any{
		"service":      service,
		"source":       source,
		"valid_format": key != "" && apikeys.ValidFormat(service, key),
	}
	if key == "" {
		result["ok"] = false
		result["error"] = "no API key configured"
		respondJSON(w, http.StatusOK, result)
		return
	}

	var err error
	switch service {
	case apikeys.ServiceAssemblyAI:
		err = s.transcriber.CheckCredentials(r.Context(), sessionID)
	case apikeys.ServiceMurf:
		_, err = s.speech.Voices(r.Context(), sessionID)
	case apikeys.ServiceGemini:
		_, err = s.llm.Generate(r.Context(), sessionID, "Reply with the single word: pong", s.cfg.DefaultModel)
	case apikeys.ServiceOpenWeather:
		_, err = s.weather.Current(r.Context(), key, s.cfg.DefaultWeatherLocation, "celsius")
	}

	if err != nil {
		result["ok"] = false
		result["error"] = s.keys.Redact(err.Error())
	} else {
		result["ok"] = true
	}
	respondJSON(w, http.StatusOK, result)
}

// Package httpapi exposes the REST surface and the realtime audio
// websocket.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ariavoice/aria/internal/apikeys"
	"github.com/ariavoice/aria/internal/archive"
	"github.com/ariavoice/aria/internal/config"
	"github.com/ariavoice/aria/internal/observability"
	"github.com/ariavoice/aria/internal/productivity"
	"github.com/ariavoice/aria/internal/protocol"
	"github.com/ariavoice/aria/internal/session"
	"github.com/ariavoice/aria/internal/skills"
	"github.com/ariavoice/aria/internal/voice"
	"github.com/ariavoice/aria/internal/weather"
)

// Orchestrator drives one websocket audio connection.
type Orchestrator interface {
	Run(ctx context.Context, sessionID string, frames <-chan voice.Frame, outbound chan<- any) error
	TurnWindow() *observability.TurnWindow
}

// Transcriber is the batch speech-to-text surface.
type Transcriber interface {
	TranscribeFile(ctx context.Context, sessionID string, audio []byte) (string, error)
	CheckCredentials(ctx context.Context, sessionID string) error
}

// Speech is the non-streaming text-to-speech surface.
type Speech interface {
	Generate(ctx context.Context, sessionID, text, voiceID string) (string, error)
	Voices(ctx context.Context, sessionID string) ([]voice.Voice, error)
}

type Server struct {
	cfg          config.Config
	sessions     *session.Manager
	orchestrator Orchestrator
	transcriber  Transcriber
	speech       Speech
	llm          voice.LLMProvider
	skills       *skills.Dispatcher
	weather      *weather.Client
	productivity *productivity.Manager
	keys         *apikeys.Resolver
	archive      archive.Store
	metrics      *observability.Metrics
	gatherer     prometheus.Gatherer
	upgrader     websocket.Upgrader
}

type Deps struct {
	Sessions     *session.Manager
	Orchestrator Orchestrator
	Transcriber  Transcriber
	Speech       Speech
	LLM          voice.LLMProvider
	Skills       *skills.Dispatcher
	Weather      *weather.Client
	Productivity *productivity.Manager
	Keys         *apikeys.Resolver
	Archive      archive.Store
	Metrics      *observability.Metrics
	Gatherer     prometheus.Gatherer
}

func New(cfg config.Config, deps Deps) *Server {
	return &Server{
		cfg:          cfg,
		sessions:     deps.Sessions,
		orchestrator: deps.Orchestrator,
		transcriber:  deps.Transcriber,
		speech:       deps.Speech,
		llm:          deps.LLM,
		skills:       deps.Skills,
		weather:      deps.Weather,
		productivity: deps.Productivity,
		keys:         deps.Keys,
		archive:      deps.Archive,
		metrics:      deps.Metrics,
		gatherer:     deps.Gatherer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browsers may drive a mic session unless
				// explicitly opened up.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		observability.MetricsHandler(s.gatherer).ServeHTTP(w, req)
	})
	r.Get("/metrics/turns", s.handleTurnMetrics)

	r.Post("/generate-tts", s.handleGenerateTTS)
	r.Get("/voices", s.handleListVoices)
	r.Post("/transcribe/file", s.handleTranscribeFile)
	r.Post("/tts/echo", s.handleTTSEcho)
	r.Post("/llm/query", s.handleLLMQuery)

	r.Post("/agent/chat/{session_id}", s.handleAgentChat)
	r.Get("/agent/history/{session_id}", s.handleGetHistory)
	r.Delete("/agent/history/{session_id}", s.handleClearHistory)
	r.Get("/personas", s.handleListPersonas)
	r.Get("/agent/persona/{session_id}", s.handleGetPersona)
	r.Post("/agent/persona/{session_id}", s.handleSetPersona)

	r.Get("/weather/status", s.handleWeatherStatus)
	r.Get("/weather/current/{location}", s.handleWeatherCurrent)
	r.Get("/weather/forecast/{location}", s.handleWeatherForecast)
	r.Get("/weather/search", s.handleWeatherSearch)
	r.Get("/time/current", s.handleCurrentTime)

	r.Post("/tasks/{session_id}", s.handleAddTask)
	r.Get("/tasks/{session_id}", s.handleListTasks)
	r.Patch("/tasks/{session_id}/{task_id}/complete", s.handleCompleteTask)
	r.Post("/timers/{session_id}", s.handleStartTimer)
	r.Get("/timers/{session_id}", s.handleGetTimers)
	r.Post("/time-tracking/{session_id}/start", s.handleStartTracking)
	r.Patch("/time-tracking/{session_id}/{tracking_id}/stop", s.handleStopTracking)

	r.Post("/config/api-keys", s.handleSetAPIKey)
	r.Get("/config/api-keys/status", s.handleAPIKeyStatus)
	r.Delete("/config/api-keys", s.handleClearAPIKeys)
	r.Post("/test/{service}", s.handleTestService)

	r.Get("/ws/audio", s.handleAudioWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Count(),
	})
}

func (s *Server) handleTurnMetrics(w http.ResponseWriter, _ *http.Request) {
	if s.orchestrator == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "orchestrator not configured")
		return
	}
	respondJSON(w, http.StatusOK, s.orchestrator.TurnWindow().Snapshot())
}

// handleAudioWS runs the realtime voice loop: binary PCM frames in,
// transcript/LLM/TTS messages out, "EOF" text frame to finish.
func (s *Server) handleAudioWS(w http.ResponseWriter, r *http.Request) {
	if s.orchestrator == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "orchestrator not configured")
		return
	}
	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.SessionEvents.WithLabelValues("ws_connected").Inc()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	frames := make(chan voice.Frame, 256)
	outbound := make(chan any, 256)
	runDone := make(chan struct{})

	go func() {
		defer close(runDone)
		_ = s.orchestrator.Run(ctx, sessionID, frames, outbound)
		cancel()
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-outbound:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					cancel()
					return
				}
				if t, ok := messageTypeOf(msg); ok {
					s.metrics.WSMessages.WithLabelValues("outbound", string(t)).Inc()
				}
			}
		}
	}()

	conn.SetReadLimit(2 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))

		var frame voice.Frame
		switch msgType {
		case websocket.BinaryMessage:
			frame = voice.Frame{Binary: data}
			s.metrics.WSMessages.WithLabelValues("inbound", "audio").Inc()
		case websocket.TextMessage:
			frame = voice.Frame{Text: string(data), IsText: true}
			s.metrics.WSMessages.WithLabelValues("inbound", "text").Inc()
		default:
			continue
		}

		select {
		case <-ctx.Done():
			break readLoop
		case frames <- frame:
		}
	}

	cancel()
	close(frames)
	<-runDone
	<-writerDone
	s.metrics.SessionEvents.WithLabelValues("ws_disconnected").Inc()
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.Transcript:
		return m.Type, true
	case protocol.LLMStart:
		return m.Type, true
	case protocol.LLMChunk:
		return m.Type, true
	case protocol.LLMComplete:
		return m.Type, true
	case protocol.LLMError:
		return m.Type, true
	case protocol.TTSAudio:
		return m.Type, true
	case protocol.Error:
		return m.Type, true
	default:
		return "", false
	}
}

package httpapi

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/ariavoice/aria/internal/audio"
	"github.com/ariavoice/aria/internal/persona"
	"github.com/ariavoice/aria/internal/voice"
)

const (
	maxUploadBytes = 25 << 20
	// micSampleRate matches the browser capture pipeline feeding /ws/audio.
	micSampleRate = 16000
)

// querySession returns the session scope for key resolution; most REST
// callers are sessionless and resolve global keys.
func querySession(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("session"))
}

func (s *Server) handleGenerateTTS(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text    string `json:"text"`
		VoiceID string `json:"voice_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "missing_text", "text is required")
		return
	}
	if strings.TrimSpace(req.VoiceID) == "" {
		req.VoiceID = persona.Get(persona.DefaultID).VoiceID
	}

	audioURL, err := s.speech.Generate(r.Context(), querySession(r), req.Text, req.VoiceID)
	if err != nil {
		log.Printf("generate-tts failed: %v", err)
		s.metrics.ProviderErrors.WithLabelValues("tts", "generate").Inc()
		respondJSON(w, http.StatusOK, map[string]any{
			"audio_url": "",
			"message":   s.cfg.FallbackText,
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"audio_url": audioURL,
		"message":   "TTS generated successfully",
	})
}

func (s *Server) handleListVoices(w http.ResponseWriter, r *http.Request) {
	voices, err := s.speech.Voices(r.Context(), querySession(r))
	if err != nil {
		log.Printf("list voices failed: %v", err)
		respondJSON(w, http.StatusOK, map[string]any{"voices": []voice.Voice{}})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"voices": voices})
}

// readUpload reads the multipart recording and wraps bare PCM frames in a
// WAV container so the batch transcriber accepts them.
func readUpload(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return nil, err
	}
	return audio.EnsureContainer(data, micSampleRate), nil
}

func (s *Server) handleTranscribeFile(w http.ResponseWriter, r *http.Request) {
	recording, err := readUpload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_upload", "multipart field 'file' is required")
		return
	}

	transcript, err := s.transcriber.TranscribeFile(r.Context(), querySession(r), recording)
	if errors.Is(err, voice.ErrNotConfigured) {
		respondJSON(w, http.StatusOK, map[string]any{"transcript": "", "status": "unavailable"})
		return
	}
	if err != nil {
		log.Printf("transcribe file failed: %v", err)
		s.metrics.ProviderErrors.WithLabelValues("stt", "batch").Inc()
		respondError(w, http.StatusBadGateway, "transcription_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"transcript": transcript, "status": "completed"})
}

func (s *Server) handleTTSEcho(w http.ResponseWriter, r *http.Request) {
	recording, err := readUpload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_upload", "multipart field 'file' is required")
		return
	}

	sessionID := querySession(r)
	transcript, err := s.transcriber.TranscribeFile(r.Context(), sessionID, recording)
	if err != nil {
		log.Printf("tts echo transcription failed: %v", err)
		respondError(w, http.StatusBadGateway, "transcription_failed", err.Error())
		return
	}
	if strings.TrimSpace(transcript) == "" {
		respondJSON(w, http.StatusOK, map[string]any{
			"transcript": "",
			"audio_url":  "",
			"message":    "No speech detected in the recording",
		})
		return
	}

	audioURL, err := s.speech.Generate(r.Context(), sessionID, transcript, persona.Get(persona.DefaultID).VoiceID)
	if err != nil {
		log.Printf("tts echo synthesis failed: %v", err)
		respondJSON(w, http.StatusOK, map[string]any{
			"transcript": transcript,
			"audio_url":  "",
			"message":    s.cfg.FallbackText,
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"transcript": transcript,
		"audio_url":  audioURL,
		"message":    "Echo generated successfully",
	})
}

func (s *Server) handleLLMQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt  string `json:"prompt"`
		Model   string `json:"model"`
		VoiceID string `json:"voice_id"`
	}
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.VoiceID) == "" {
		req.VoiceID = persona.Get(persona.DefaultID).VoiceID
	}
	sessionID := querySession(r)
	model := voice.ResolveModel(req.Model)

	llmText := s.cfg.FallbackText
	if strings.TrimSpace(req.Prompt) != "" {
		text, err := s.llm.Generate(r.Context(), sessionID, req.Prompt, model)
		switch {
		case errors.Is(err, voice.ErrNotConfigured):
			// keep the fallback line
		case err != nil:
			log.Printf("llm query failed: %v", err)
			s.metrics.ProviderErrors.WithLabelValues("llm", "generate").Inc()
			respondError(w, http.StatusBadGateway, "llm_failed", "Failed to generate response")
			return
		default:
			llmText = text
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"transcript_text": req.Prompt,
		"llm_text":        llmText,
		"model":           model,
		"audio_urls":      s.synthesizeChunks(r, sessionID, llmText, req.VoiceID),
	})
}

// synthesizeChunks renders text as a series of hosted audio URLs. The
// connectivity fallback line is never synthesized.
func (s *Server) synthesizeChunks(r *http.Request, sessionID, text, voiceID string) []string {
	audioURLs := []string{}
	if text == s.cfg.FallbackText {
		return audioURLs
	}
	for _, chunk := range voice.ChunkText(text, s.cfg.TTSChunkCharLimit) {
		audioURL, err := s.speech.Generate(r.Context(), sessionID, chunk, voiceID)
		if err != nil {
			log.Printf("chunk synthesis failed: %v", err)
			s.metrics.ProviderErrors.WithLabelValues("tts", "generate").Inc()
			break
		}
		audioURLs = append(audioURLs, audioURL)
	}
	return audioURLs
}

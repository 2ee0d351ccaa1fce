package voice

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ariavoice/aria/internal/apikeys"
	"github.com/ariavoice/aria/internal/reliability"
)

type MurfConfig struct {
	BaseURL    string
	WSBaseURL  string
	HTTPClient *http.Client
}

// MurfProvider synthesizes speech through Murf: a streaming websocket for
// the voice path and plain HTTP generation for the fallback and REST
// endpoints.
type MurfProvider struct {
	keys       *apikeys.Resolver
	cfg        MurfConfig
	httpClient *http.Client
}

func NewMurfProvider(keys *apikeys.Resolver, cfg MurfConfig) *MurfProvider {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.murf.ai"
	}
	if strings.TrimSpace(cfg.WSBaseURL) == "" {
		cfg.WSBaseURL = "wss://api.murf.ai"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &MurfProvider{keys: keys, cfg: cfg, httpClient: httpClient}
}

// Voice is one entry from the Murf voice catalog.
type Voice struct {
	ID          string `json:"voiceId"`
	Name        string `json:"displayName"`
	Locale      string `json:"locale"`
	Gender      string `json:"gender,omitempty"`
	Description string `json:"description,omitempty"`
}

func (p *MurfProvider) StartStream(ctx context.Context, sessionID, voiceID string) (TTSStream, error) {
	key := p.keys.Key(apikeys.ServiceMurf, sessionID)
	if key == "" {
		return nil, fmt.Errorf("murf: %w", ErrNotConfigured)
	}
	if strings.TrimSpace(voiceID) == "" {
		return nil, fmt.Errorf("murf: voice_id is required")
	}

	u, err := url.Parse(strings.TrimRight(p.cfg.WSBaseURL, "/") + "/v1/speech/stream-input")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("api-key", key)
	q.Set("sample_rate", "44100")
	q.Set("format", "MP3")
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial tts websocket: %w", err)
	}

	s := &murfTTSStream{conn: conn, events: make(chan TTSEvent, 512)}
	go s.readLoop()
	if err := s.writeJSON(map[string]any{
		"voice_config": map[string]any{
			"voiceId": voiceID,
			"style":   "Conversational",
			"rate":    0,
			"pitch":   0,
		},
	}); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("send voice config: %w", err)
	}
	return s, nil
}

type murfTTSStream struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	events    chan TTSEvent
}

func (s *murfTTSStream) SendText(_ context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.writeJSON(map[string]any{"text": text})
}

func (s *murfTTSStream) CloseInput(_ context.Context) error {
	return s.writeJSON(map[string]any{"end": true})
}

func (s *murfTTSStream) Events() <-chan TTSEvent { return s.events }

func (s *murfTTSStream) Close() error {
	var retErr error
	s.closeOnce.Do(func() {
		retErr = s.conn.Close()
		close(s.events)
	})
	return retErr
}

func (s *murfTTSStream) writeJSON(payload map[string]any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(payload)
}

func (s *murfTTSStream) readLoop() {
	defer s.safeClose()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			continue
		}
		if audio := asString(raw["audio"]); audio != "" {
			s.events <- TTSEvent{Type: TTSEventAudio, AudioBase64: audio}
		}
		if errMsg := asString(raw["error"]); errMsg != "" {
			code := asString(raw["errorCode"])
			s.events <- TTSEvent{Type: TTSEventError, Code: code, Detail: errMsg, Retryable: reliability.IsRetryableRealtimeMessageType(code)}
		}
		if asBool(raw["final"]) || asBool(raw["isFinalAudio"]) {
			s.events <- TTSEvent{Type: TTSEventFinal}
			return
		}
	}
}

func (s *murfTTSStream) safeClose() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
		close(s.events)
	})
}

// Generate synthesizes text in one HTTP call and returns the hosted audio
// URL.
func (p *MurfProvider) Generate(ctx context.Context, sessionID, text, voiceID string) (string, error) {
	key := p.keys.Key(apikeys.ServiceMurf, sessionID)
	if key == "" {
		return "", fmt.Errorf("murf: %w", ErrNotConfigured)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("murf: text is required")
	}

	body, err := json.Marshal(map[string]any{
		"text":       text,
		"voiceId":    voiceID,
		"format":     "MP3",
		"sampleRate": 44100,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(p.cfg.BaseURL, "/")+"/v1/speech/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("api-key", key)
	req.Header.Set("Content-Type", "application/json")

	var raw map[string]any
	if err := p.doJSON(req, &raw); err != nil {
		return "", fmt.Errorf("generate speech: %w", err)
	}
	// The audio link moved fields across API revisions.
	for _, field := range []string{"audioFile", "audio_file", "audio_url", "url"} {
		if audioURL := asString(raw[field]); audioURL != "" {
			return audioURL, nil
		}
	}
	return "", fmt.Errorf("generate speech: no audio URL in response")
}

// GenerateBase64 synthesizes text over HTTP and returns the audio bytes
// base64-encoded, matching what the streaming path delivers.
func (p *MurfProvider) GenerateBase64(ctx context.Context, sessionID, text, voiceID string) (string, error) {
	audioURL, err := p.Generate(ctx, sessionID, text, voiceID)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch audio: status %d", resp.StatusCode)
	}
	audio, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return "", fmt.Errorf("fetch audio: %w", err)
	}
	return base64.StdEncoding.EncodeToString(audio), nil
}

// Voices lists the provider's voice catalog.
func (p *MurfProvider) Voices(ctx context.Context, sessionID string) ([]Voice, error) {
	key := p.keys.Key(apikeys.ServiceMurf, sessionID)
	if key == "" {
		return nil, fmt.Errorf("murf: %w", ErrNotConfigured)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(p.cfg.BaseURL, "/")+"/v1/speech/voices", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("api-key", key)

	var voices []Voice
	if err := p.doJSON(req, &voices); err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}
	return voices, nil
}

func (p *MurfProvider) doJSON(req *http.Request, out any) error {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.Unmarshal(body, out)
}

package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ariavoice/aria/internal/apikeys"
	"github.com/ariavoice/aria/internal/reliability"
)

const sttSampleRate = 16000

type AssemblyAIConfig struct {
	WSBaseURL    string
	HTTPBaseURL  string
	PollInterval time.Duration
	HTTPClient   *http.Client
}

// AssemblyAIProvider transcribes audio through AssemblyAI, both as a
// realtime websocket stream and as batch file jobs.
type AssemblyAIProvider struct {
	keys       *apikeys.Resolver
	cfg        AssemblyAIConfig
	httpClient *http.Client
}

func NewAssemblyAIProvider(keys *apikeys.Resolver, cfg AssemblyAIConfig) *AssemblyAIProvider {
	if strings.TrimSpace(cfg.WSBaseURL) == "" {
		cfg.WSBaseURL = "wss://streaming.assemblyai.com"
	}
	if strings.TrimSpace(cfg.HTTPBaseURL) == "" {
		cfg.HTTPBaseURL = "https://api.assemblyai.com"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &AssemblyAIProvider{keys: keys, cfg: cfg, httpClient: httpClient}
}

func (p *AssemblyAIProvider) StartSession(ctx context.Context, sessionID string) (STTSession, <-chan STTEvent, error) {
	key := p.keys.Key(apikeys.ServiceAssemblyAI, sessionID)
	if key == "" {
		return nil, nil, fmt.Errorf("assemblyai: %w", ErrNotConfigured)
	}

	u, err := url.Parse(strings.TrimRight(p.cfg.WSBaseURL, "/") + "/v3/ws")
	if err != nil {
		return nil, nil, err
	}
	q := u.Query()
	q.Set("sample_rate", strconv.Itoa(sttSampleRate))
	q.Set("format_turns", "true")
	u.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("Authorization", key)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		return nil, nil, fmt.Errorf("dial stt websocket: %w", err)
	}

	events := make(chan STTEvent, 256)
	s := &aaiSTTSession{conn: conn, events: events}
	go s.readLoop()
	return s, events, nil
}

type aaiSTTSession struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	events    chan STTEvent
}

func (s *aaiSTTSession) SendAudio(_ context.Context, pcm []byte) error {
	if len(pcm) == 0 {
		return nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.BinaryMessage, pcm)
}

func (s *aaiSTTSession) readLoop() {
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
		messageType := asString(raw["type"])
		switch messageType {
		case "Turn":
			s.events <- STTEvent{
				Type:      STTEventTranscript,
				Text:      asString(raw["transcript"]),
				EndOfTurn: asBool(raw["end_of_turn"]),
				Timestamp: time.Now().UnixMilli(),
			}
		case "Termination":
			return
		case "Begin", "":
			// session handshake, nothing to relay
		default:
			s.events <- STTEvent{
				Type:      STTEventError,
				Code:      messageType,
				Detail:    asString(raw["error"]),
				Retryable: reliability.IsRetryableRealtimeMessageType(messageType),
				Timestamp: time.Now().UnixMilli(),
			}
		}
	}
}

func (s *aaiSTTSession) Close() error {
	var retErr error
	s.closeOnce.Do(func() {
		s.writeMu.Lock()
		_ = s.conn.WriteJSON(map[string]any{"type": "Terminate"})
		s.writeMu.Unlock()
		retErr = s.conn.Close()
		close(s.events)
	})
	return retErr
}

func (s *aaiSTTSession) safeClose() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
		close(s.events)
	})
}

// CheckCredentials performs a cheap authenticated request to verify the
// resolved key is accepted.
func (p *AssemblyAIProvider) CheckCredentials(ctx context.Context, sessionID string) error {
	key := p.keys.Key(apikeys.ServiceAssemblyAI, sessionID)
	if key == "" {
		return fmt.Errorf("assemblyai: %w", ErrNotConfigured)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(p.cfg.HTTPBaseURL, "/")+"/v2/transcript?limit=1", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", key)

	var out map[string]any
	if err := p.doJSON(req, &out); err != nil {
		return fmt.Errorf("check credentials: %w", err)
	}
	return nil
}

// TranscribeFile runs a batch transcription job: upload, submit, poll.
func (p *AssemblyAIProvider) TranscribeFile(ctx context.Context, sessionID string, audio []byte) (string, error) {
	key := p.keys.Key(apikeys.ServiceAssemblyAI, sessionID)
	if key == "" {
		return "", fmt.Errorf("assemblyai: %w", ErrNotConfigured)
	}

	uploadURL, err := p.upload(ctx, key, audio)
	if err != nil {
		return "", err
	}
	jobID, err := p.submit(ctx, key, uploadURL)
	if err != nil {
		return "", err
	}
	return p.poll(ctx, key, jobID)
}

func (p *AssemblyAIProvider) upload(ctx context.Context, key string, audio []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(p.cfg.HTTPBaseURL, "/")+"/v2/upload", bytes.NewReader(audio))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", key)
	req.Header.Set("Content-Type", "application/octet-stream")

	var out struct {
		UploadURL string `json:"upload_url"`
	}
	if err := p.doJSON(req, &out); err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}
	if out.UploadURL == "" {
		return "", fmt.Errorf("upload audio: empty upload_url")
	}
	return out.UploadURL, nil
}

func (p *AssemblyAIProvider) submit(ctx context.Context, key, audioURL string) (string, error) {
	body, err := json.Marshal(map[string]string{"audio_url": audioURL})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(p.cfg.HTTPBaseURL, "/")+"/v2/transcript", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", key)
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		ID string `json:"id"`
	}
	if err := p.doJSON(req, &out); err != nil {
		return "", fmt.Errorf("submit transcript job: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("submit transcript job: empty id")
	}
	return out.ID, nil
}

func (p *AssemblyAIProvider) poll(ctx context.Context, key, jobID string) (string, error) {
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(p.cfg.HTTPBaseURL, "/")+"/v2/transcript/"+url.PathEscape(jobID), nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("Authorization", key)

		var out struct {
			Status string `json:"status"`
			Text   string `json:"text"`
			Error  string `json:"error"`
		}
		if err := p.doJSON(req, &out); err != nil {
			return "", fmt.Errorf("poll transcript job: %w", err)
		}
		switch out.Status {
		case "completed":
			return out.Text, nil
		case "error":
			return "", fmt.Errorf("transcript job failed: %s", out.Error)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

// doJSON issues the request and decodes the JSON response. Transient upstream
// statuses are retried with capped backoff; transport errors are not.
func (p *AssemblyAIProvider) doJSON(req *http.Request, out any) error {
	const maxAttempts = 3
	var lastStatusErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return err
				}
				req.Body = body
			}
			select {
			case <-req.Context().Done():
				return req.Context().Err()
			case <-time.After(reliability.ExponentialBackoff(attempt, 250*time.Millisecond, 2*time.Second)):
			}
		}

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return err
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		resp.Body.Close()
		if err != nil {
			return err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastStatusErr = fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			if reliability.IsRetryableHTTPStatus(resp.StatusCode) {
				continue
			}
			return lastStatusErr
		}
		return json.Unmarshal(body, out)
	}
	return lastStatusErr
}

package voice

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"
	"time"
)

// MockSTTProvider hands out scriptable transcription sessions. Tests drive
// transcripts through Emit; without keys the real provider refuses to start,
// so this is also handy for local development.
type MockSTTProvider struct {
	FailStart bool

	mu       sync.Mutex
	sessions []*MockSTTSession
}

func NewMockSTTProvider() *MockSTTProvider { return &MockSTTProvider{} }

func (p *MockSTTProvider) StartSession(_ context.Context, _ string) (STTSession, <-chan STTEvent, error) {
	if p.FailStart {
		return nil, nil, ErrNotConfigured
	}
	events := make(chan STTEvent, 64)
	s := &MockSTTSession{events: events}
	p.mu.Lock()
	p.sessions = append(p.sessions, s)
	p.mu.Unlock()
	return s, events, nil
}

// Last returns the most recently started session.
func (p *MockSTTProvider) Last() *MockSTTSession {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sessions) == 0 {
		return nil
	}
	return p.sessions[len(p.sessions)-1]
}

type MockSTTSession struct {
	mu     sync.Mutex
	events chan STTEvent
	audio  [][]byte
	closed bool
}

func (s *MockSTTSession) SendAudio(_ context.Context, pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.audio = append(s.audio, pcm)
	return nil
}

// Emit pushes a transcript event as if it came from the provider.
func (s *MockSTTSession) Emit(text string, endOfTurn bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.events <- STTEvent{Type: STTEventTranscript, Text: text, EndOfTurn: endOfTurn, Timestamp: time.Now().UnixMilli()}
}

func (s *MockSTTSession) AudioChunks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.audio)
}

func (s *MockSTTSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.events)
	return nil
}

// MockTTSProvider echoes synthesized text back as base64 audio.
type MockTTSProvider struct {
	FailStream bool

	mu           sync.Mutex
	fallbackText []string
}

func NewMockTTSProvider() *MockTTSProvider { return &MockTTSProvider{} }

func (p *MockTTSProvider) StartStream(_ context.Context, _, _ string) (TTSStream, error) {
	if p.FailStream {
		return nil, ErrNotConfigured
	}
	return &mockTTSStream{events: make(chan TTSEvent, 128)}, nil
}

func (p *MockTTSProvider) GenerateBase64(_ context.Context, _, text, _ string) (string, error) {
	p.mu.Lock()
	p.fallbackText = append(p.fallbackText, text)
	p.mu.Unlock()
	return base64.StdEncoding.EncodeToString([]byte(text)), nil
}

// FallbackCalls lists the text passed through the non-streaming path.
func (p *MockTTSProvider) FallbackCalls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.fallbackText...)
}

type mockTTSStream struct {
	mu     sync.Mutex
	events chan TTSEvent
	closed bool
}

func (s *mockTTSStream) SendText(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || strings.TrimSpace(text) == "" {
		return nil
	}
	s.events <- TTSEvent{Type: TTSEventAudio, AudioBase64: base64.StdEncoding.EncodeToString([]byte(text))}
	return nil
}

func (s *mockTTSStream) CloseInput(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.events <- TTSEvent{Type: TTSEventFinal}
	return nil
}

func (s *mockTTSStream) Events() <-chan TTSEvent { return s.events }

func (s *mockTTSStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.events)
	return nil
}

// MockLLM returns a fixed reply, streamed word by word.
type MockLLM struct {
	Reply string
	Err   error
}

func (m *MockLLM) Generate(_ context.Context, _, _, _ string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return m.Reply, nil
}

func (m *MockLLM) Stream(_ context.Context, _, _, _ string, onChunk func(string)) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if onChunk != nil {
		words := strings.Fields(m.Reply)
		for i, w := range words {
			if i < len(words)-1 {
				w += " "
			}
			onChunk(w)
		}
	}
	return m.Reply, nil
}

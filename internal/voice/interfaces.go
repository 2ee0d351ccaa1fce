// Package voice holds the realtime providers (speech-to-text, the LLM,
// text-to-speech) and the orchestrator that runs a full audio turn over a
// client websocket.
package voice

import (
	"context"
	"errors"
)

// ErrNotConfigured marks a provider call that failed because no API key is
// available for the session.
var ErrNotConfigured = errors.New("provider not configured")

type STTEventType string

const (
	STTEventTranscript STTEventType = "transcript"
	STTEventError      STTEventType = "error"
)

// STTEvent is one message from the streaming transcriber. EndOfTurn marks a
// formatted final transcript that closes the user's utterance.
type STTEvent struct {
	Type      STTEventType
	Text      string
	EndOfTurn bool
	Code      string
	Detail    string
	Retryable bool
	Timestamp int64
}

// STTSession is one live transcription stream. SendAudio takes raw 16 kHz
// mono PCM as delivered by the browser.
type STTSession interface {
	SendAudio(ctx context.Context, pcm []byte) error
	Close() error
}

type STTProvider interface {
	StartSession(ctx context.Context, sessionID string) (STTSession, <-chan STTEvent, error)
}

type TTSEventType string

const (
	TTSEventAudio TTSEventType = "audio"
	TTSEventFinal TTSEventType = "final"
	TTSEventError TTSEventType = "error"
)

type TTSEvent struct {
	Type        TTSEventType
	AudioBase64 string
	Code        string
	Detail      string
	Retryable   bool
}

// TTSStream is one live synthesis stream: write text, close input, then
// drain Events until a final marker or an error.
type TTSStream interface {
	SendText(ctx context.Context, text string) error
	CloseInput(ctx context.Context) error
	Events() <-chan TTSEvent
	Close() error
}

type TTSProvider interface {
	StartStream(ctx context.Context, sessionID, voiceID string) (TTSStream, error)
	// GenerateBase64 is the non-streaming fallback path.
	GenerateBase64(ctx context.Context, sessionID, text, voiceID string) (string, error)
}

// LLMProvider generates assistant replies. Stream invokes onChunk for each
// text fragment as it arrives and returns the assembled response.
type LLMProvider interface {
	Generate(ctx context.Context, sessionID, prompt, model string) (string, error)
	Stream(ctx context.Context, sessionID, prompt, model string, onChunk func(text string)) (string, error)
}

package protocol

import "strings"

// MessageType identifies server-to-client websocket payload variants on the
// audio socket. Client-to-server traffic is binary PCM frames plus a single
// "EOF" text control frame, so only the server side carries typed JSON.
type MessageType string

const (
	TypeTranscript  MessageType = "transcript"
	TypeLLMStart    MessageType = "llm_start"
	TypeLLMChunk    MessageType = "llm_chunk"
	TypeLLMComplete MessageType = "llm_complete"
	TypeLLMError    MessageType = "llm_error"
	TypeTTSAudio    MessageType = "tts_audio"
	TypeError       MessageType = "error"
)

// Transcript relays speech recognition output. Partials stream with
// IsFinal=false; EndOfTurn marks the utterance boundary that triggers a
// response turn.
type Transcript struct {
	Type      MessageType `json:"type"`
	Text      string      `json:"text"`
	IsFinal   bool        `json:"is_final"`
	EndOfTurn bool        `json:"end_of_turn"`
}

type LLMStart struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

type LLMChunk struct {
	Type MessageType `json:"type"`
	Text string      `json:"text"`
}

type LLMComplete struct {
	Type         MessageType `json:"type"`
	FullResponse string      `json:"full_response"`
}

type LLMError struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// TTSAudio carries one base64 audio chunk. ChunkIndex is 1-based.
type TTSAudio struct {
	Type        MessageType `json:"type"`
	AudioBase64 string      `json:"audio_base64"`
	ChunkIndex  int         `json:"chunk_index"`
}

type Error struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

func NewTranscript(text string, isFinal, endOfTurn bool) Transcript {
	return Transcript{Type: TypeTranscript, Text: text, IsFinal: isFinal, EndOfTurn: endOfTurn}
}

func NewLLMStart() LLMStart {
	return LLMStart{Type: TypeLLMStart, Message: "Generating response..."}
}

func NewLLMChunk(text string) LLMChunk {
	return LLMChunk{Type: TypeLLMChunk, Text: text}
}

func NewLLMComplete(full string) LLMComplete {
	return LLMComplete{Type: TypeLLMComplete, FullResponse: full}
}

func NewLLMError(message string) LLMError {
	return LLMError{Type: TypeLLMError, Message: message}
}

func NewTTSAudio(audioBase64 string, chunkIndex int) TTSAudio {
	return TTSAudio{Type: TypeTTSAudio, AudioBase64: audioBase64, ChunkIndex: chunkIndex}
}

func NewError(message string) Error {
	return Error{Type: TypeError, Message: message}
}

// IsEndOfStream reports whether a client text frame signals the end of the
// audio stream. Surrounding whitespace and case are ignored.
func IsEndOfStream(frame string) bool {
	return strings.EqualFold(strings.TrimSpace(frame), "EOF")
}

package session

import (
	"strings"
	"sync"
	"time"
)

// Role values used in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation history entry.
type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	TS      time.Time `json:"ts"`
}

type sessionState struct {
	id            string
	personaID     string
	history       []Message
	lastProcessed string
	turnMu        sync.Mutex
	createdAt     time.Time
	lastActivity  time.Time
}

// Manager holds per-session conversation state. Sessions are created
// implicitly on first touch and live for the process lifetime; history is
// capped at the configured limit by dropping the oldest entries.
type Manager struct {
	mu               sync.RWMutex
	sessions         map[string]*sessionState
	historyLimit     int
	defaultPersonaID string
}

func NewManager(historyLimit int, defaultPersonaID string) *Manager {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	if defaultPersonaID == "" {
		defaultPersonaID = "default"
	}
	return &Manager{
		sessions:         make(map[string]*sessionState),
		historyLimit:     historyLimit,
		defaultPersonaID: defaultPersonaID,
	}
}

func (m *Manager) ensureLocked(id string) *sessionState {
	s, ok := m.sessions[id]
	if !ok {
		now := time.Now().UTC()
		s = &sessionState{
			id:           id,
			personaID:    m.defaultPersonaID,
			createdAt:    now,
			lastActivity: now,
		}
		m.sessions[id] = s
	}
	return s
}

// Append adds a message to the session history and enforces the cap.
func (m *Manager) Append(sessionID, role, content string) Message {
	msg := Message{Role: role, Content: content, TS: time.Now().UTC()}

	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.ensureLocked(sessionID)
	s.history = append(s.history, msg)
	if over := len(s.history) - m.historyLimit; over > 0 {
		s.history = append([]Message(nil), s.history[over:]...)
	}
	s.lastActivity = msg.TS
	return msg
}

// History returns a copy of the session history, oldest first.
func (m *Manager) History(sessionID string) []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

// Clear drops the session history but keeps the session and its persona.
func (m *Manager) Clear(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionID]; ok {
		s.history = nil
		s.lastProcessed = ""
		s.lastActivity = time.Now().UTC()
	}
}

// PersonaID returns the session's persona, defaulting for unknown sessions.
func (m *Manager) PersonaID(sessionID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[sessionID]; ok {
		return s.personaID
	}
	return m.defaultPersonaID
}

func (m *Manager) SetPersona(sessionID, personaID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.ensureLocked(sessionID)
	s.personaID = personaID
	s.lastActivity = time.Now().UTC()
}

// TurnLock returns the session's turn mutex. Turn processing holds it from
// the history append through the last outbound audio chunk so back-to-back
// end-of-turn transcripts cannot interleave.
func (m *Manager) TurnLock(sessionID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &m.ensureLocked(sessionID).turnMu
}

// ShouldProcessTranscript applies end-of-turn gating: the normalized
// transcript must be longer than two characters and differ from the last
// transcript this session processed. A true return records the transcript
// as processed.
func (m *Manager) ShouldProcessTranscript(sessionID, transcript string) bool {
	normalized := strings.ToLower(strings.TrimSpace(transcript))
	if len(normalized) <= 2 {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.ensureLocked(sessionID)
	if normalized == s.lastProcessed {
		return false
	}
	s.lastProcessed = normalized
	s.lastActivity = time.Now().UTC()
	return true
}

// Count returns the number of sessions ever touched in this process.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

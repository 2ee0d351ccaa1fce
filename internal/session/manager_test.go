package session

import (
	"fmt"
	"testing"
)

func TestAppendCapsHistoryAtLimit(t *testing.T) {
	m := NewManager(50, "default")
	for i := 0; i < 60; i++ {
		m.Append("s1", RoleUser, fmt.Sprintf("message %d", i))
	}

	history := m.History("s1")
	if len(history) != 50 {
		t.Fatalf("len(history) = %d, want 50", len(history))
	}
	if history[0].Content != "message 10" {
		t.Fatalf("history[0].Content = %q, want %q (oldest dropped first)", history[0].Content, "message 10")
	}
	if history[49].Content != "message 59" {
		t.Fatalf("history[49].Content = %q, want %q", history[49].Content, "message 59")
	}
}

func TestHistoryIsIsolatedPerSession(t *testing.T) {
	m := NewManager(50, "default")
	m.Append("a", RoleUser, "hello from a")
	m.Append("b", RoleUser, "hello from b")
	m.SetPersona("a", "pirate")

	if got := len(m.History("b")); got != 1 {
		t.Fatalf("len(History(b)) = %d, want 1", got)
	}
	if got := m.History("b")[0].Content; got != "hello from b" {
		t.Fatalf("History(b)[0].Content = %q, want %q", got, "hello from b")
	}
	if got := m.PersonaID("b"); got != "default" {
		t.Fatalf("PersonaID(b) = %q, want %q", got, "default")
	}
	if got := m.PersonaID("a"); got != "pirate" {
		t.Fatalf("PersonaID(a) = %q, want %q", got, "pirate")
	}
}

func TestClearKeepsPersona(t *testing.T) {
	m := NewManager(50, "default")
	m.SetPersona("s1", "wizard")
	m.Append("s1", RoleUser, "hi")
	m.Clear("s1")

	if got := len(m.History("s1")); got != 0 {
		t.Fatalf("len(History) after Clear = %d, want 0", got)
	}
	if got := m.PersonaID("s1"); got != "wizard" {
		t.Fatalf("PersonaID after Clear = %q, want %q", got, "wizard")
	}
}

func TestShouldProcessTranscript(t *testing.T) {
	m := NewManager(50, "default")

	if m.ShouldProcessTranscript("s1", "hi") {
		t.Fatalf("ShouldProcessTranscript(short) = true, want false")
	}
	if m.ShouldProcessTranscript("s1", "  a ") {
		t.Fatalf("ShouldProcessTranscript(whitespace-short) = true, want false")
	}
	if !m.ShouldProcessTranscript("s1", "Hello there") {
		t.Fatalf("ShouldProcessTranscript(first) = false, want true")
	}
	if m.ShouldProcessTranscript("s1", "hello there") {
		t.Fatalf("ShouldProcessTranscript(case-equal duplicate) = true, want false")
	}
	if m.ShouldProcessTranscript("s1", "  HELLO THERE  ") {
		t.Fatalf("ShouldProcessTranscript(whitespace duplicate) = true, want false")
	}
	if !m.ShouldProcessTranscript("s1", "hello again") {
		t.Fatalf("ShouldProcessTranscript(new text) = false, want true")
	}
	// Other sessions track their own last transcript.
	if !m.ShouldProcessTranscript("s2", "hello there") {
		t.Fatalf("ShouldProcessTranscript(other session) = false, want true")
	}
}

func TestTurnLockIsStablePerSession(t *testing.T) {
	m := NewManager(50, "default")
	if m.TurnLock("s1") != m.TurnLock("s1") {
		t.Fatalf("TurnLock returned different mutexes for the same session")
	}
	if m.TurnLock("s1") == m.TurnLock("s2") {
		t.Fatalf("TurnLock shared a mutex across sessions")
	}
}

package archive

import (
	"context"
	"testing"
)

func TestInMemoryStoreRoundTrip(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	for _, turn := range []Turn{
		{SessionID: "s1", Role: "user", Content: "hello"},
		{SessionID: "s1", Role: "assistant", Content: "hi there"},
		{SessionID: "s2", Role: "user", Content: "other session"},
	} {
		if err := s.SaveTurn(ctx, turn); err != nil {
			t.Fatalf("SaveTurn: %v", err)
		}
	}

	turns, err := s.RecentTurns(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("RecentTurns: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("len(turns) = %d, want 2", len(turns))
	}
	if turns[0].Content != "hello" || turns[1].Content != "hi there" {
		t.Fatalf("turns out of order: %+v", turns)
	}
	if turns[0].ID == "" || turns[0].CreatedAt.IsZero() {
		t.Fatalf("SaveTurn did not stamp ID/CreatedAt: %+v", turns[0])
	}
}

func TestInMemoryStoreLimit(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := s.SaveTurn(ctx, Turn{SessionID: "s1", Role: "user", Content: string(rune('a' + i))}); err != nil {
			t.Fatalf("SaveTurn: %v", err)
		}
	}

	turns, err := s.RecentTurns(ctx, "s1", 2)
	if err != nil {
		t.Fatalf("RecentTurns: %v", err)
	}
	if len(turns) != 2 || turns[0].Content != "d" || turns[1].Content != "e" {
		t.Fatalf("RecentTurns(limit=2) = %+v, want last two", turns)
	}
}

func TestNewStoreWithoutDatabaseIsInMemory(t *testing.T) {
	s, err := NewStore(context.Background(), "  ")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, ok := s.(*InMemoryStore); !ok {
		t.Fatalf("NewStore(\"\") = %T, want *InMemoryStore", s)
	}
}

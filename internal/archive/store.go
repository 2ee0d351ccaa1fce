// Package archive persists finished conversation turns outside the
// in-process session history. The archive is write-behind: callers log
// turns after responding and never block the voice path on it.
package archive

import (
	"context"
	"strings"
	"time"
)

// Turn is one archived user or assistant utterance.
type Turn struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	PersonaID string    `json:"persona_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Store records turns and replays them per session.
type Store interface {
	SaveTurn(ctx context.Context, turn Turn) error
	RecentTurns(ctx context.Context, sessionID string, limit int) ([]Turn, error)
	Close() error
}

// NewStore returns a postgres-backed archive when a database URL is
// configured, otherwise an in-process one that is lost on restart.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryStore(), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}

package history

import (
	"context"
	"sync"

	"farmsathi/pkg"
)

// Store is the durable, append-only record of conversation turns.
type Store interface {
	// Record appends a completed turn. Turns are immutable once recorded.
	Record(ctx context.Context, turn pkg.ChatTurn) error

	// History returns up to limit turns for the user, most recent first.
	History(ctx context.Context, userID string, limit int) ([]pkg.ChatTurn, error)

	// Clear removes all recorded turns for the user.
	Clear(ctx context.Context, userID string) error
}

// MemoryStore is the in-memory Store used for development and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	turns map[string][]pkg.ChatTurn
}

// NewMemoryStore creates an empty in-memory history store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{turns: make(map[string][]pkg.ChatTurn)}
}

// Record implements Store.
func (s *MemoryStore) Record(_ context.Context, turn pkg.ChatTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[turn.UserID] = append(s.turns[turn.UserID], turn)
	return nil
}

// History implements Store.
func (s *MemoryStore) History(_ context.Context, userID string, limit int) ([]pkg.ChatTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.turns[userID]
	out := make([]pkg.ChatTurn, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, userID)
	return nil
}

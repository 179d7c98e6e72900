package contextstore

import (
	"context"
	"sync"

	"farmsathi/pkg"
)

// MemoryStore is the in-memory Store used for development and tests. Each
// user has their own lock stripe so appends for different users run in
// parallel while same-user appends serialize.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]*userState
	capacity int
}

type userState struct {
	mu  sync.Mutex
	ctx pkg.ConversationContext
}

// NewMemoryStore creates a memory store with the given window capacity.
func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*userState),
		capacity: capacity,
	}
}

func (s *MemoryStore) state(userID string) *userState {
	s.mu.RLock()
	st, ok := s.users[userID]
	s.mu.RUnlock()
	if ok {
		return st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok = s.users[userID]; ok {
		return st
	}
	st = &userState{ctx: emptyContext(userID)}
	s.users[userID] = st
	return st
}

// Get returns a copy of the user's context.
func (s *MemoryStore) Get(_ context.Context, userID string) (pkg.ConversationContext, error) {
	st := s.state(userID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return cloneContext(st.ctx), nil
}

// Append adds a turn under the user's stripe lock.
func (s *MemoryStore) Append(_ context.Context, userID string, turn pkg.ChatTurn) (pkg.ConversationContext, error) {
	st := s.state(userID)
	st.mu.Lock()
	defer st.mu.Unlock()
	appendTurn(&st.ctx, turn, s.capacity)
	return cloneContext(st.ctx), nil
}

// UpdateProfile sets the optional profile hints.
func (s *MemoryStore) UpdateProfile(_ context.Context, userID, location, cropType string) error {
	st := s.state(userID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if location != "" {
		st.ctx.Location = location
	}
	if cropType != "" {
		st.ctx.CropType = cropType
	}
	return nil
}

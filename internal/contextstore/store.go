package contextstore

import (
	"context"

	"farmsathi/pkg"
)

// Store owns the per-user rolling conversation window. Append is the only
// mutator and is atomic per user; unrelated users never block each other.
type Store interface {
	// Get returns the user's context, or a fresh empty one when the user has
	// no history. A missing user is not an error.
	Get(ctx context.Context, userID string) (pkg.ConversationContext, error)

	// Append records a completed turn, evicts the oldest turn when the window
	// is full (strict FIFO) and updates LastIntent. Returns the updated
	// context.
	Append(ctx context.Context, userID string, turn pkg.ChatTurn) (pkg.ConversationContext, error)

	// UpdateProfile sets the optional location / crop type hints carried in
	// the context. Empty arguments leave the current value unchanged.
	UpdateProfile(ctx context.Context, userID, location, cropType string) error
}

func emptyContext(userID string) pkg.ConversationContext {
	return pkg.ConversationContext{UserID: userID, RecentTurns: []pkg.ChatTurn{}}
}

// appendTurn applies the window policy to a context in place.
func appendTurn(c *pkg.ConversationContext, turn pkg.ChatTurn, capacity int) {
	c.RecentTurns = append(c.RecentTurns, turn)
	if capacity > 0 && len(c.RecentTurns) > capacity {
		c.RecentTurns = c.RecentTurns[len(c.RecentTurns)-capacity:]
	}
	c.LastIntent = turn.Intent
}

// cloneContext returns a copy whose turn slice is detached from the store's.
func cloneContext(c pkg.ConversationContext) pkg.ConversationContext {
	out := c
	out.RecentTurns = make([]pkg.ChatTurn, len(c.RecentTurns))
	copy(out.RecentTurns, c.RecentTurns)
	return out
}

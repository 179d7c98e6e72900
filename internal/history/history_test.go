package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmsathi/pkg"
)

func turn(userID, message string, at time.Time) pkg.ChatTurn {
	return pkg.ChatTurn{
		UserID:      userID,
		UserMessage: message,
		BotResponse: "answer to " + message,
		Intent:      pkg.IntentGeneral,
		CreatedAt:   at,
	}
}

func TestHistoryMostRecentFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, turn("u1", fmt.Sprintf("msg-%d", i), base.Add(time.Duration(i)*time.Minute))))
	}

	got, err := store.History(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, "msg-4", got[0].UserMessage)
	assert.Equal(t, "msg-0", got[4].UserMessage)
}

func TestHistoryLimit(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0)

	for i := 0; i < 10; i++ {
		require.NoError(t, store.Record(ctx, turn("u1", fmt.Sprintf("msg-%d", i), base)))
	}

	got, err := store.History(ctx, "u1", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "msg-9", got[0].UserMessage)
	assert.Equal(t, "msg-7", got[2].UserMessage)
}

func TestHistoryUnknownUserIsEmpty(t *testing.T) {
	store := NewMemoryStore()

	got, err := store.History(context.Background(), "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHistoryUserIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Record(ctx, turn("u1", "from-u1", now)))
	require.NoError(t, store.Record(ctx, turn("u2", "from-u2", now)))

	got, err := store.History(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "from-u1", got[0].UserMessage)
}

func TestClearRemovesOnlyThatUser(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Record(ctx, turn("u1", "hello", now)))
	require.NoError(t, store.Record(ctx, turn("u2", "hi", now)))
	require.NoError(t, store.Clear(ctx, "u1"))

	got, err := store.History(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = store.History(ctx, "u2", 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

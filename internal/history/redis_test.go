package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisTestStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(client)
}

func TestRedisHistoryMostRecentFirst(t *testing.T) {
	store := newRedisTestStore(t)
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

func TestRedisHistoryLimit(t *testing.T) {
	store := newRedisTestStore(t)
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

func TestRedisHistoryRoundTripsTurnFields(t *testing.T) {
	store := newRedisTestStore(t)
	ctx := context.Background()

	in := turn("u1", "what is the weather", time.Unix(1_700_000_000, 0).UTC())
	in.AudioRef = "/audio/abc_en.mp3"
	in.Language = "en"
	require.NoError(t, store.Record(ctx, in))

	got, err := store.History(ctx, "u1", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, in.UserMessage, got[0].UserMessage)
	assert.Equal(t, in.BotResponse, got[0].BotResponse)
	assert.Equal(t, in.AudioRef, got[0].AudioRef)
	assert.Equal(t, in.Intent, got[0].Intent)
}

func TestRedisHistoryUnknownUserIsEmpty(t *testing.T) {
	store := newRedisTestStore(t)

	got, err := store.History(context.Background(), "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisClearRemovesOnlyThatUser(t *testing.T) {
	store := newRedisTestStore(t)
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

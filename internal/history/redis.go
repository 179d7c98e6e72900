package history

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"farmsathi/pkg"
)

const historyPrefix = "chat:history:"

// RedisStore keeps each user's turns in a Redis list, newest at the head so
// History is a single LRANGE.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed history store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) key(userID string) string {
	return historyPrefix + userID
}

// Record implements Store.
func (s *RedisStore) Record(ctx context.Context, turn pkg.ChatTurn) error {
	data, err := sonic.Marshal(turn)
	if err != nil {
		return fmt.Errorf("failed to marshal turn: %w", err)
	}
	if err := s.client.LPush(ctx, s.key(turn.UserID), data).Err(); err != nil {
		return fmt.Errorf("failed to record turn: %w", err)
	}
	return nil
}

// History implements Store.
func (s *RedisStore) History(ctx context.Context, userID string, limit int) ([]pkg.ChatTurn, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	entries, err := s.client.LRange(ctx, s.key(userID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	out := make([]pkg.ChatTurn, 0, len(entries))
	for _, entry := range entries {
		var turn pkg.ChatTurn
		if err := sonic.Unmarshal([]byte(entry), &turn); err != nil {
			return nil, fmt.Errorf("failed to unmarshal turn: %w", err)
		}
		out = append(out, turn)
	}
	return out, nil
}

// Clear implements Store.
func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

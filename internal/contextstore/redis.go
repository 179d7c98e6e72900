package contextstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"farmsathi/pkg"
)

const contextPrefix = "context:"

// RedisStore keeps conversation contexts in Redis with a sliding TTL.
// Same-user read-modify-write cycles are serialized through in-process stripe
// locks; a single in-flight turn per user is assumed upstream.
type RedisStore struct {
	client   *redis.Client
	capacity int
	ttl      time.Duration

	mu      sync.Mutex
	stripes map[string]*sync.Mutex
}

// NewRedisStore creates a Redis-backed context store.
func NewRedisStore(client *redis.Client, capacity int, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client:   client,
		capacity: capacity,
		ttl:      ttl,
		stripes:  make(map[string]*sync.Mutex),
	}
}

func (s *RedisStore) key(userID string) string {
	return contextPrefix + userID
}

func (s *RedisStore) stripe(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.stripes[userID]
	if !ok {
		m = &sync.Mutex{}
		s.stripes[userID] = m
	}
	return m
}

func (s *RedisStore) load(ctx context.Context, userID string) (pkg.ConversationContext, error) {
	data, err := s.client.Get(ctx, s.key(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return emptyContext(userID), nil
		}
		return emptyContext(userID), fmt.Errorf("failed to load context: %w", err)
	}

	var convCtx pkg.ConversationContext
	if err := sonic.Unmarshal([]byte(data), &convCtx); err != nil {
		return emptyContext(userID), fmt.Errorf("failed to unmarshal context: %w", err)
	}

	// Refresh TTL on read
	s.client.Expire(ctx, s.key(userID), s.ttl)
	return convCtx, nil
}

func (s *RedisStore) save(ctx context.Context, userID string, convCtx pkg.ConversationContext) error {
	data, err := sonic.Marshal(convCtx)
	if err != nil {
		return fmt.Errorf("failed to marshal context: %w", err)
	}
	return s.client.Set(ctx, s.key(userID), data, s.ttl).Err()
}

// Get returns the stored context or a fresh empty one.
func (s *RedisStore) Get(ctx context.Context, userID string) (pkg.ConversationContext, error) {
	m := s.stripe(userID)
	m.Lock()
	defer m.Unlock()
	return s.load(ctx, userID)
}

// Append adds a turn and trims the window under the user's stripe lock.
func (s *RedisStore) Append(ctx context.Context, userID string, turn pkg.ChatTurn) (pkg.ConversationContext, error) {
	m := s.stripe(userID)
	m.Lock()
	defer m.Unlock()

	convCtx, err := s.load(ctx, userID)
	if err != nil {
		return convCtx, err
	}
	appendTurn(&convCtx, turn, s.capacity)
	if err := s.save(ctx, userID, convCtx); err != nil {
		return convCtx, err
	}
	return convCtx, nil
}

// UpdateProfile sets the optional profile hints.
func (s *RedisStore) UpdateProfile(ctx context.Context, userID, location, cropType string) error {
	m := s.stripe(userID)
	m.Lock()
	defer m.Unlock()

	convCtx, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if location != "" {
		convCtx.Location = location
	}
	if cropType != "" {
		convCtx.CropType = cropType
	}
	return s.save(ctx, userID, convCtx)
}

package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore records which session ids are live. A token is only honoured
// while its id is present, so deleting the id revokes the token.
type SessionStore interface {
	Put(ctx context.Context, id, email string, ttl time.Duration) error
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// MemorySessionStore keeps sessions in process memory.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	now      func() time.Time
}

// NewMemorySessionStore creates an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]time.Time),
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Put(ctx context.Context, id, email string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = s.now().Add(ttl)
	return nil
}

func (s *MemorySessionStore) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.sessions[id]
	if !ok {
		return false, nil
	}
	if !s.now().Before(exp) {
		delete(s.sessions, id)
		return false, nil
	}
	return true, nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// RedisSessionStore keeps sessions in Redis with a key expiry, so every API
// replica sees the same sign-outs.
type RedisSessionStore struct {
	redis *redis.Client
}

// NewRedisSessionStore wraps a client.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	if client == nil {
		panic("auth: redis client cannot be nil")
	}
	return &RedisSessionStore{redis: client}
}

func (s *RedisSessionStore) Put(ctx context.Context, id, email string, ttl time.Duration) error {
	if err := s.redis.Set(ctx, redisSessionKey(id), email, ttl).Err(); err != nil {
		return fmt.Errorf("auth: failed to persist session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.redis.Exists(ctx, redisSessionKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("auth: failed to load session: %w", err)
	}
	return n == 1, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, redisSessionKey(id)).Err(); err != nil {
		return fmt.Errorf("auth: failed to delete session: %w", err)
	}
	return nil
}

func redisSessionKey(id string) string {
	return fmt.Sprintf("admin_session:%s", id)
}

var (
	_ SessionStore = (*MemorySessionStore)(nil)
	_ SessionStore = (*RedisSessionStore)(nil)
)

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionPrefix = "session:v1:"

// ErrSessionNotFound is returned for unknown, expired or revoked sessions.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps the server-side half of a session.
type SessionStore interface {
	Save(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	Lookup(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

// RedisSessionStore keeps sessions in Redis with a TTL.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore builds a Redis-backed session store.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) Save(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionPrefix+sessionID, userID, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Lookup(ctx context.Context, sessionID string) (string, error) {
	userID, err := s.client.Get(ctx, sessionPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup session: %w", err)
	}
	return userID, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

type memorySession struct {
	userID  string
	expires time.Time
}

// MemorySessionStore keeps sessions in process memory. Used when Redis is not
// configured; sessions do not survive a restart.
type MemorySessionStore struct {
	mu    sync.Mutex
	items map[string]memorySession
	now   func() time.Time
}

// NewMemorySessionStore builds an in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{items: make(map[string]memorySession), now: time.Now}
}

func (s *MemorySessionStore) Save(_ context.Context, sessionID, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, sess := range s.items {
		if !now.Before(sess.expires) {
			delete(s.items, id)
		}
	}
	s.items[sessionID] = memorySession{userID: userID, expires: now.Add(ttl)}
	return nil
}

func (s *MemorySessionStore) Lookup(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[sessionID]
	if !ok {
		return "", ErrSessionNotFound
	}
	if !s.now().Before(sess.expires) {
		delete(s.items, sessionID)
		return "", ErrSessionNotFound
	}
	return sess.userID, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, sessionID)
	return nil
}

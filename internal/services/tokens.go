package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrUnknownRefreshToken = errors.New("unknown refresh token")

// RefreshTokenStore maps opaque refresh tokens to users. Take consumes the
// token so each one is usable once.
type RefreshTokenStore interface {
	Put(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	Take(ctx context.Context, token string) (uuid.UUID, error)
}

type RedisRefreshTokens struct {
	client *redis.Client
}

func NewRedisRefreshTokens(client *redis.Client) *RedisRefreshTokens {
	return &RedisRefreshTokens{client: client}
}

func (s *RedisRefreshTokens) Put(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	return s.client.Set(ctx, "refresh:"+token, userID.String(), ttl).Err()
}

func (s *RedisRefreshTokens) Take(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := s.client.GetDel(ctx, "refresh:"+token).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrUnknownRefreshToken
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to read refresh token: %w", err)
	}
	return uuid.Parse(val)
}

type memoryToken struct {
	userID  uuid.UUID
	expires time.Time
}

type MemoryRefreshTokens struct {
	mu     sync.Mutex
	tokens map[string]memoryToken
}

func NewMemoryRefreshTokens() *MemoryRefreshTokens {
	return &MemoryRefreshTokens{tokens: make(map[string]memoryToken)}
}

func (s *MemoryRefreshTokens) Put(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = memoryToken{userID: userID, expires: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryRefreshTokens) Take(ctx context.Context, token string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	delete(s.tokens, token)
	if !ok || time.Now().After(t.expires) {
		return uuid.Nil, ErrUnknownRefreshToken
	}
	return t.userID, nil
}

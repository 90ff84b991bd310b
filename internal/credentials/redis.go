package credentials

import (
	"context"

	"github.com/redis/go-redis/v9"

	"quizclient/internal/models"
)

const (
	fieldAccess  = "access_token"
	fieldRefresh = "refresh_token"
)

// RedisStore keeps the pair in a single hash so both tokens are written and
// removed by one command.
type RedisStore struct {
	redis *redis.Client
	key   string
}

func NewRedisStore(redisClient *redis.Client, namespace string) *RedisStore {
	if namespace == "" {
		namespace = "default"
	}
	return &RedisStore{redis: redisClient, key: "credentials:" + namespace}
}

func (s *RedisStore) Load(ctx context.Context) (models.CredentialPair, error) {
	vals, err := s.redis.HGetAll(ctx, s.key).Result()
	if err != nil {
		return models.CredentialPair{}, &StoreError{Operation: "load", Cause: err}
	}
	pair := models.CredentialPair{
		AccessToken:  vals[fieldAccess],
		RefreshToken: vals[fieldRefresh],
	}
	// A torn entry is treated as absent.
	if !pair.Valid() {
		return models.CredentialPair{}, nil
	}
	return pair, nil
}

func (s *RedisStore) Save(ctx context.Context, pair models.CredentialPair) error {
	if !pair.Valid() {
		return &StoreError{Operation: "save", Cause: ErrIncompletePair}
	}
	err := s.redis.HSet(ctx, s.key, fieldAccess, pair.AccessToken, fieldRefresh, pair.RefreshToken).Err()
	if err != nil {
		return &StoreError{Operation: "save", Cause: err}
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		return &StoreError{Operation: "clear", Cause: err}
	}
	return nil
}

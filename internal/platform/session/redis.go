package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/careportal/careportal/internal/platform/errs"
)

const keyPrefix = "session:"

// RedisStore keeps sessions in Redis with a TTL so logins expire without a
// background sweeper.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisStore{client: redis.NewClient(opts)}, nil
}

func (s *RedisStore) Create(ctx context.Context, accountID uuid.UUID, ttl time.Duration) (string, error) {
	token := uuid.New().String()
	if err := s.client.Set(ctx, keyPrefix+token, accountID.String(), ttl).Err(); err != nil {
		return "", errs.BackendUnavailable("session create", err)
	}
	return token, nil
}

func (s *RedisStore) Lookup(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := s.client.Get(ctx, keyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, errs.NotFound("session")
	}
	if err != nil {
		return uuid.Nil, errs.BackendUnavailable("session lookup", err)
	}

	accountID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, errs.NotFound("session")
	}
	return accountID, nil
}

func (s *RedisStore) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		return errs.BackendUnavailable("session revoke", err)
	}
	return nil
}

// Ping verifies connectivity at startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

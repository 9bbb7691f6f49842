package tokenstore

import (
	"context"
	"errors"

	"sbp-admin/internal/cache"
)

// RedisStore keeps the token under a single key with no expiry.
type RedisStore struct {
	client *cache.Client
	key    string
}

func NewRedisStore(client *cache.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Get(ctx context.Context) (string, error) {
	b, err := s.client.Get(ctx, s.key)
	if errors.Is(err, cache.ErrMiss) || (err == nil && len(b) == 0) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *RedisStore) Set(ctx context.Context, token string) error {
	return s.client.Set(ctx, s.key, []byte(token), 0)
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key)
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

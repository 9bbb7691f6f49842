// Package tokenstore persists the admin bearer token between runs.
package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"sbp-admin/internal/cache"
	"sbp-admin/internal/config"
)

// ErrNotFound is returned by Get when no token has been stored.
var ErrNotFound = errors.New("tokenstore: no token stored")

type Store interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
	Close() error
}

// Open builds the store selected by cfg.Token.Store.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Token.Store {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(cfg.Token.File), nil
	case "redis":
		c, err := cache.NewClient(cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		return NewRedisStore(c, cfg.Token.Key), nil
	case "badger":
		return OpenBadgerStore(cfg.Token.BadgerPath, cfg.Token.Key, []byte(cfg.Token.BadgerEncryptionKey))
	default:
		return nil, fmt.Errorf("tokenstore: unknown store %q", cfg.Token.Store)
	}
}

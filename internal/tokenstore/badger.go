package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore keeps the token in an embedded badger database, encrypted at
// rest when an encryption key is configured.
type BadgerStore struct {
	db    *badger.DB
	key   []byte
	owned bool
}

func OpenBadgerStore(path, key string, encryptionKey []byte) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	if len(encryptionKey) > 0 {
		opts = opts.WithEncryptionKey(encryptionKey).WithIndexCacheSize(1 << 20)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger token store: %w", err)
	}
	s := NewBadgerStore(db, key)
	s.owned = true
	return s, nil
}

// NewBadgerStore wraps an already open database; Close leaves it open.
func NewBadgerStore(db *badger.DB, key string) *BadgerStore {
	return &BadgerStore{db: db, key: []byte(key)}
}

func (s *BadgerStore) Get(_ context.Context) (string, error) {
	var token string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			token = string(val)
			return nil
		})
	})
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrNotFound
	}
	return token, nil
}

func (s *BadgerStore) Set(_ context.Context, token string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key, []byte(token))
	})
}

func (s *BadgerStore) Clear(_ context.Context) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(s.key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

func (s *BadgerStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

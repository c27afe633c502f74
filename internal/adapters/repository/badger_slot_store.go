package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"
)

const badgerSlotPrefix = "slot:"

var _ domain.SlotStore = (*BadgerSlotStore)(nil)

// BadgerSlotStore keeps slots in an embedded Badger database.
type BadgerSlotStore struct {
	db *badger.DB
}

// OpenBadgerSlotStore opens the database at path. An empty path opens an
// in-memory database.
func OpenBadgerSlotStore(path string) (*BadgerSlotStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	return &BadgerSlotStore{db: db}, nil
}

func (r *BadgerSlotStore) Close() error {
	return r.db.Close()
}

func (r *BadgerSlotStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerSlotPrefix + key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, domain.ErrSlotNotFound
		}
		return nil, fmt.Errorf("failed to read slot %s: %w", key, err)
	}

	return value, nil
}

func (r *BadgerSlotStore) Put(ctx context.Context, key string, value []byte) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerSlotPrefix+key), append([]byte(nil), value...))
	})
	if err != nil {
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}
	return nil
}

func (r *BadgerSlotStore) Delete(ctx context.Context, key string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(badgerSlotPrefix + key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", key, err)
	}
	return nil
}

func (r *BadgerSlotStore) Ping(ctx context.Context) error {
	if r.db.IsClosed() {
		return errors.New("badger db is closed")
	}
	return nil
}

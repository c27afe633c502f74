package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"
)

var _ domain.SlotStore = (*InMemorySlotStore)(nil)

type InMemorySlotStore struct {
	store map[string][]byte

	mu sync.RWMutex
}

func NewInMemorySlotStore() *InMemorySlotStore {
	return &InMemorySlotStore{
		store: make(map[string][]byte),
	}
}

func (r *InMemorySlotStore) Get(ctx context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.store[key]
	if !ok {
		return nil, domain.ErrSlotNotFound
	}
	return append([]byte(nil), value...), nil
}

func (r *InMemorySlotStore) Put(ctx context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store[key] = append([]byte(nil), value...)
	return nil
}

func (r *InMemorySlotStore) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.store, key)
	return nil
}

func (r *InMemorySlotStore) Ping(ctx context.Context) error {
	return nil
}

// Keys lists the stored slot keys in ascending order.
func (r *InMemorySlotStore) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.store))
	for k := range r.store {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

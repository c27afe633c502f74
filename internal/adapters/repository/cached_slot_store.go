package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"
)

const slotCacheTTL = 30 * time.Minute

var _ domain.SlotStore = (*CachedSlotStore)(nil)

// CachedSlotStore reads through redis and writes through to the backing
// store. Redis failures never fail a call; the backing store is the source of
// truth.
type CachedSlotStore struct {
	next  domain.SlotStore
	cache *redis.Client
}

func NewCachedSlotStore(next domain.SlotStore, cache *redis.Client) *CachedSlotStore {
	return &CachedSlotStore{
		next:  next,
		cache: cache,
	}
}

func (r *CachedSlotStore) cacheKey(key string) string {
	return fmt.Sprintf("slots:%s", key)
}

func (r *CachedSlotStore) invalidate(ctx context.Context, key string) {
	if err := r.cache.Del(ctx, r.cacheKey(key)).Err(); err != nil {
		log.Printf("[CACHE] Failed to invalidate slot %s: %v", key, err)
	}
}

func (r *CachedSlotStore) Get(ctx context.Context, key string) ([]byte, error) {
	ck := r.cacheKey(key)

	val, err := r.cache.Get(ctx, ck).Bytes()
	if err == nil {
		if json.Valid(val) {
			return val, nil
		}

		log.Printf("[CACHE] Corrupted data for slot %s, cleaning up key", key)
		r.cache.Del(ctx, ck)
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("[CACHE] Redis read error: %v", err)
	}

	value, err := r.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if setErr := r.cache.Set(ctx, ck, value, slotCacheTTL).Err(); setErr != nil {
		log.Printf("[CACHE] Redis set error: %v", setErr)
	}

	return value, nil
}

func (r *CachedSlotStore) Put(ctx context.Context, key string, value []byte) error {
	if err := r.next.Put(ctx, key, value); err != nil {
		r.invalidate(ctx, key)
		return err
	}

	if err := r.cache.Set(ctx, r.cacheKey(key), value, slotCacheTTL).Err(); err != nil {
		log.Printf("[CACHE] Redis set error for slot %s: %v", key, err)
		r.invalidate(ctx, key)
	}
	return nil
}

func (r *CachedSlotStore) Delete(ctx context.Context, key string) error {
	defer r.invalidate(ctx, key)
	return r.next.Delete(ctx, key)
}

func (r *CachedSlotStore) Ping(ctx context.Context) error {
	return r.next.Ping(ctx)
}

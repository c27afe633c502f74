package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/goccy/go-json"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"
)

// LoadSlot decodes the named slot into a copy of def. Absent, unreadable or
// corrupt slots yield def; the caller never sees an error.
func LoadSlot[T any](ctx context.Context, slots domain.SlotStore, key string, def T) T {
	data, err := slots.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrSlotNotFound) {
			log.Printf("[PERSIST] Failed to read slot %s, using defaults: %v", key, err)
		}
		return def
	}

	value := def
	if err := json.Unmarshal(data, &value); err != nil {
		log.Printf("[PERSIST] Corrupted slot %s, using defaults: %v", key, err)
		return def
	}
	return value
}

// SaveSlot encodes value and writes it. Failures are logged and returned for
// diagnostics only; in-memory state stays authoritative.
func SaveSlot[T any](ctx context.Context, slots domain.SlotStore, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("[PERSIST] Failed to encode slot %s: %v", key, err)
		return fmt.Errorf("encode slot %s: %w", key, err)
	}

	if err := slots.Put(ctx, key, data); err != nil {
		log.Printf("[PERSIST] Failed to save slot %s (keeping in-memory state): %v", key, err)
		return fmt.Errorf("save slot %s: %w", key, err)
	}
	return nil
}

type clock struct {
	now func() time.Time
}

// SetClock replaces the time source. Intended for tests.
func (c *clock) SetClock(now func() time.Time) {
	c.now = now
}

func (c *clock) Now() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

package workers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"
)

var _ domain.SlotStore = (*PersistWorker)(nil)

type pendingWrite struct {
	value  []byte
	delete bool
}

// PersistWorker is a write-behind SlotStore. Put and Delete return
// immediately; a background goroutine writes the latest value of every dirty
// slot to the backing store. Intermediate values of a slot may be skipped but
// the last one is never dropped.
type PersistWorker struct {
	next domain.SlotStore

	mu      sync.Mutex
	pending map[string]pendingWrite
	order   []string

	writeMu sync.Mutex
	wake    chan struct{}
}

func NewPersistWorker(next domain.SlotStore) *PersistWorker {
	return &PersistWorker{
		next:    next,
		pending: make(map[string]pendingWrite),
		wake:    make(chan struct{}, 1),
	}
}

func (w *PersistWorker) Start(ctx context.Context) {
	go func() {
		log.Println("Persist Worker started in background...")
		for {
			select {
			case <-w.wake:
				if err := w.Flush(ctx); err != nil {
					log.Printf("[PERSIST] Background flush incomplete: %v", err)
				}
			case <-ctx.Done():
				log.Println("Persist Worker shutting down...")
				return
			}
		}
	}()
}

func (w *PersistWorker) Get(ctx context.Context, key string) ([]byte, error) {
	w.mu.Lock()
	p, ok := w.pending[key]
	w.mu.Unlock()

	if ok {
		if p.delete {
			return nil, domain.ErrSlotNotFound
		}
		return append([]byte(nil), p.value...), nil
	}
	return w.next.Get(ctx, key)
}

func (w *PersistWorker) Put(ctx context.Context, key string, value []byte) error {
	w.enqueue(key, pendingWrite{value: append([]byte(nil), value...)})
	return nil
}

func (w *PersistWorker) Delete(ctx context.Context, key string) error {
	w.enqueue(key, pendingWrite{delete: true})
	return nil
}

func (w *PersistWorker) Ping(ctx context.Context) error {
	return w.next.Ping(ctx)
}

// Pending reports how many slots are waiting to be written.
func (w *PersistWorker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

func (w *PersistWorker) enqueue(key string, p pendingWrite) {
	w.mu.Lock()
	if _, dirty := w.pending[key]; !dirty {
		w.order = append(w.order, key)
	}
	w.pending[key] = p
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Flush writes every pending slot synchronously. Failed writes are logged and
// discarded; the in-memory stores stay authoritative and the next mutation
// of the slot writes it again.
func (w *PersistWorker) Flush(ctx context.Context) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.mu.Lock()
	batch := w.pending
	order := w.order
	w.pending = make(map[string]pendingWrite)
	w.order = nil
	w.mu.Unlock()

	var errs []error
	for _, key := range order {
		p := batch[key]

		var err error
		if p.delete {
			err = w.next.Delete(ctx, key)
		} else {
			err = w.next.Put(ctx, key, p.value)
		}

		if err != nil {
			log.Printf("[PERSIST] Failed to write slot %s: %v", key, err)
			errs = append(errs, fmt.Errorf("slot %s: %w", key, err))
		}
	}

	return errors.Join(errs...)
}

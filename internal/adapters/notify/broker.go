package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"
)

const clientBuffer = 32

var _ domain.Notifier = (*Broker)(nil)

type Subscriber struct {
	ID     string
	Events <-chan domain.Event
	Done   <-chan struct{}
}

// Broker fans out engine events to connected UI clients. Slow clients lose
// events instead of blocking the publisher.
type Broker struct {
	mu      sync.RWMutex
	clients map[string]*client
	closed  bool

	permMu        sync.RWMutex
	notifications bool
}

type client struct {
	events chan domain.Event
	done   chan struct{}
}

func NewBroker(notificationsEnabled bool) *Broker {
	return &Broker{
		clients:       make(map[string]*client),
		notifications: notificationsEnabled,
	}
}

// SetNotificationsEnabled records whether the reader granted notification
// permission.
func (b *Broker) SetNotificationsEnabled(enabled bool) {
	b.permMu.Lock()
	defer b.permMu.Unlock()
	b.notifications = enabled
}

func (b *Broker) NotificationsEnabled() bool {
	b.permMu.RLock()
	defer b.permMu.RUnlock()
	return b.notifications
}

func (b *Broker) Subscribe() (Subscriber, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return Subscriber{}, ErrBrokerClosed
	}

	c := &client{
		events: make(chan domain.Event, clientBuffer),
		done:   make(chan struct{}),
	}
	id := uuid.NewString()
	b.clients[id] = c

	return Subscriber{ID: id, Events: c.events, Done: c.done}, nil
}

func (b *Broker) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if c, ok := b.clients[id]; ok {
		delete(b.clients, id)
		close(c.done)
	}
}

func (b *Broker) Clients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *Broker) Publish(eventType domain.EventType, data any) {
	event := domain.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, c := range b.clients {
		select {
		case c.events <- event:
		default:
			log.Printf("[EVENTS] Dropped %s event for slow client %s", eventType, id)
		}
	}
}

func (b *Broker) Notify(ctx context.Context, n domain.Notification) error {
	if !b.NotificationsEnabled() {
		return domain.ErrNotificationDenied
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.Publish(domain.EventReminder, n)
	return nil
}

// Close disconnects every client. Later subscriptions fail.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, c := range b.clients {
		delete(b.clients, id)
		close(c.done)
	}
}

package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotificationDenied = errors.New("notifications are not permitted")
)

type EventType string

const (
	EventTheme    EventType = "theme"
	EventSettings EventType = "settings"
	EventReminder EventType = "reminder"
	EventPlayback EventType = "playback"
)

// Event is pushed to the rendering layer.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Data      any       `json:"data"`
	CreatedAt time.Time `json:"created_at"`
}

type Notification struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Notifier is the outbound surface towards the UI.
type Notifier interface {
	// Publish broadcasts a state change. It never blocks.
	Publish(eventType EventType, data any)

	// Notify requests a user-visible notification. Implementations return
	// ErrNotificationDenied when the reader has not granted permission.
	Notify(ctx context.Context, n Notification) error
}

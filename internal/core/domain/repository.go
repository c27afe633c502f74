package domain

import (
	"context"
	"errors"
)

var (
	ErrSlotNotFound       = errors.New("storage slot not found")
	ErrContentUnavailable = errors.New("content provider unavailable")
)

const (
	SlotSettings  = "quran-settings"
	SlotBookmarks = "quran-bookmarks"
	SlotNotes     = "quran-notes"
	SlotProgress  = "quran-progress"
	SlotHistory   = "quran-history"
)

type SlotStore interface {
	// Get returns the raw value of a slot, or ErrSlotNotFound when absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put replaces the value of a slot.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes a slot. Deleting an absent slot is not an error.
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error
}

// ContentProvider is the read-only remote scripture service.
type ContentProvider interface {
	ChapterList(ctx context.Context) ([]Chapter, error)
	ChapterDetail(ctx context.Context, id int) (*ChapterDetail, error)
	Commentary(ctx context.Context, id int) (*Commentary, error)
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// JournalEntry is an owner-scoped note. Plain persistence; the only rule is
// that entries are visible and mutable by their owner alone.
type JournalEntry struct {
	EntryID   uuid.UUID
	UserID    uuid.UUID
	Title     string
	Body      string
	Mood      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

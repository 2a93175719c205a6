// Package repository defines the persistence interfaces for the roster,
// tournament history and the active-session snapshot, plus an in-memory
// implementation of all three.
package repository

import (
	"context"

	"github.com/okian/shotboard/internal/domain/model"
)

// DefaultHistoryCapacity is how many finished tournaments are retained.
const DefaultHistoryCapacity = 5

// RosterStore holds the durable participant pool.
type RosterStore interface {
	// Roster returns the stored roster in order. When nothing is stored or
	// the backend is unavailable it returns the built-in default roster.
	// It never fails.
	Roster(ctx context.Context) []model.Participant
	// ReplaceRoster atomically swaps the whole roster. It returns
	// ErrStoreUnavailable when the backend was never initialized.
	ReplaceRoster(ctx context.Context, participants []model.Participant) error
}

// HistoryStore holds finished tournaments keyed by timestamp.
type HistoryStore interface {
	// AppendHistory evicts the oldest entries so at most capacity-1 remain, then
	// inserts e. It returns how many entries were evicted.
	AppendHistory(ctx context.Context, e model.HistoryEntry) (int, error)
	// History returns every entry, newest first.
	History(ctx context.Context) ([]model.HistoryEntry, error)
	// HistoryEntry returns the entry with the given timestamp or ErrNotFound.
	HistoryEntry(ctx context.Context, timestamp int64) (model.HistoryEntry, error)
	// DeleteHistory removes the entry with the given timestamp. Deleting an absent
	// entry is not an error.
	DeleteHistory(ctx context.Context, timestamp int64) error
}

// SessionStore holds the single working-state snapshot of the active
// tournament.
type SessionStore interface {
	SaveSession(ctx context.Context, state model.SessionState) error
	// LoadSession returns the stored snapshot; ok is false when there is none.
	LoadSession(ctx context.Context) (state model.SessionState, ok bool, err error)
	ClearSession(ctx context.Context) error
}

// EvictionCount returns how many of existing entries must go so that
// capacity-1 remain before an insert.
func EvictionCount(existing, capacity int) int {
	if capacity < 1 {
		capacity = 1
	}
	if n := existing - (capacity - 1); n > 0 {
		return n
	}
	return 0
}

package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/shotboard/internal/domain/model"
	"github.com/okian/shotboard/pkg/metrics"
)

const storeName = "memory"

var (
	_ RosterStore  = (*MemoryStore)(nil)
	_ HistoryStore = (*MemoryStore)(nil)
	_ SessionStore = (*MemoryStore)(nil)
)

// MemoryStore keeps roster, history and the session snapshot in process.
// It backs degraded mode and tests. A closed store behaves like a backend
// that failed: writes return ErrStoreUnavailable.
type MemoryStore struct {
	mu       sync.RWMutex
	capacity int
	defaults []model.Participant
	closed   bool

	roster  []model.Participant
	history []model.HistoryEntry // newest first
	session []byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{capacity: DefaultHistoryCapacity}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close marks the store unavailable.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Roster returns the stored roster or the defaults.
func (s *MemoryStore) Roster(_ context.Context) []model.Participant {
	defer metrics.ObserveStoreOp(storeName, "roster_get", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed || len(s.roster) == 0 {
		return model.CloneParticipants(s.defaults)
	}
	return model.CloneParticipants(s.roster)
}

// ReplaceRoster swaps the stored roster.
func (s *MemoryStore) ReplaceRoster(_ context.Context, participants []model.Participant) error {
	defer metrics.ObserveStoreOp(storeName, "roster_replace", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreUnavailable
	}
	s.roster = model.CloneParticipants(participants)
	return nil
}

// AppendHistory evicts down to capacity-1 entries and inserts e.
func (s *MemoryStore) AppendHistory(_ context.Context, e model.HistoryEntry) (int, error) {
	defer metrics.ObserveStoreOp(storeName, "history_append", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStoreUnavailable
	}

	kept := s.history[:0:0]
	for _, h := range s.history {
		if h.Timestamp != e.Timestamp {
			kept = append(kept, h)
		}
	}
	evicted := EvictionCount(len(kept), s.capacity)
	kept = kept[:len(kept)-evicted]
	kept = append(kept, e.Clone())
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Timestamp > kept[j].Timestamp })
	s.history = kept
	return evicted, nil
}

// History returns history newest first.
func (s *MemoryStore) History(_ context.Context) ([]model.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreUnavailable
	}
	out := make([]model.HistoryEntry, len(s.history))
	for i, h := range s.history {
		out[i] = h.Clone()
	}
	return out, nil
}

// HistoryEntry returns one history entry.
func (s *MemoryStore) HistoryEntry(_ context.Context, timestamp int64) (model.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return model.HistoryEntry{}, ErrStoreUnavailable
	}
	for _, h := range s.history {
		if h.Timestamp == timestamp {
			return h.Clone(), nil
		}
	}
	return model.HistoryEntry{}, fmt.Errorf("timestamp %d: %w", timestamp, ErrNotFound)
}

// DeleteHistory removes one history entry if present.
func (s *MemoryStore) DeleteHistory(_ context.Context, timestamp int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreUnavailable
	}
	for i, h := range s.history {
		if h.Timestamp == timestamp {
			s.history = append(s.history[:i:i], s.history[i+1:]...)
			break
		}
	}
	return nil
}

// SaveSession stores the encoded snapshot.
func (s *MemoryStore) SaveSession(_ context.Context, state model.SessionState) error {
	data, err := model.EncodeSessionState(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreUnavailable
	}
	s.session = data
	return nil
}

// LoadSession decodes the stored snapshot.
func (s *MemoryStore) LoadSession(_ context.Context) (model.SessionState, bool, error) {
	s.mu.RLock()
	data := s.session
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return model.SessionState{}, false, ErrStoreUnavailable
	}
	if data == nil {
		return model.SessionState{}, false, nil
	}
	state, err := model.DecodeSessionState(data)
	if err != nil {
		return model.SessionState{}, false, err
	}
	return state, true, nil
}

// ClearSession drops the snapshot.
func (s *MemoryStore) ClearSession(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreUnavailable
	}
	s.session = nil
	return nil
}

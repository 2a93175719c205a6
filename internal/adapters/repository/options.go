package repository

import "github.com/okian/shotboard/internal/domain/model"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithHistoryCapacity sets how many history entries are retained.
func WithHistoryCapacity(capacity int) Option {
	return func(s *MemoryStore) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}

// WithDefaultRoster sets the roster returned while nothing is stored.
func WithDefaultRoster(participants []model.Participant) Option {
	return func(s *MemoryStore) {
		s.defaults = model.CloneParticipants(participants)
	}
}

// Package service wires the roster, the active tournament and the history
// stores together and serializes every operation on them.
package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/okian/shotboard/internal/adapters/repository"
	"github.com/okian/shotboard/internal/domain/model"
	"github.com/okian/shotboard/internal/domain/roster"
	"github.com/okian/shotboard/internal/domain/scoring"
	"github.com/okian/shotboard/pkg/logger"
	"github.com/okian/shotboard/pkg/metrics"
)

// Service is the scorekeeper. All exported methods are safe for concurrent
// use; they run one at a time.
type Service struct {
	mu sync.Mutex

	// Storage
	rosterStore  repository.RosterStore
	historyStore repository.HistoryStore
	sessionStore repository.SessionStore
	closers      []io.Closer
	degraded     bool

	// Configuration
	historyCapacity int
	defaultPlayers  []string
	targets         int
	shotsPerTarget  int
	newID           func() string
	clock           func() time.Time

	// State
	roster        *roster.Roster
	session       *scoring.Session
	lastTimestamp int64
	started       bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRosterStore sets where the roster is persisted.
func WithRosterStore(store repository.RosterStore) Option {
	return func(s *Service) {
		if store != nil {
			s.rosterStore = store
		}
	}
}

// WithHistoryStore sets where finished tournaments are persisted.
func WithHistoryStore(store repository.HistoryStore) Option {
	return func(s *Service) {
		if store != nil {
			s.historyStore = store
		}
	}
}

// WithSessionStore sets where the active-session snapshot is kept.
func WithSessionStore(store repository.SessionStore) Option {
	return func(s *Service) {
		if store != nil {
			s.sessionStore = store
		}
	}
}

// WithHistoryCapacity sets the capacity of the in-memory fallback history.
func WithHistoryCapacity(capacity int) Option {
	return func(s *Service) {
		if capacity > 0 {
			s.historyCapacity = capacity
		}
	}
}

// WithDefaultPlayers sets the names the roster is seeded with while none is
// stored.
func WithDefaultPlayers(names []string) Option {
	return func(s *Service) {
		s.defaultPlayers = append([]string(nil), names...)
	}
}

// WithDefaultShape sets the shape a fresh tournament starts with.
func WithDefaultShape(targets, shotsPerTarget int) Option {
	return func(s *Service) {
		if targets > 0 && shotsPerTarget > 0 {
			s.targets = targets
			s.shotsPerTarget = shotsPerTarget
		}
	}
}

// WithIDGenerator overrides how new participant ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithClock overrides the time source used for history timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New constructs a new Service. Stores that are not provided are backed by
// one shared in-memory store.
func New(opts ...Option) *Service {
	s := &Service{
		historyCapacity: repository.DefaultHistoryCapacity,
		targets:         20,
		shotsPerTarget:  2,
		clock:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.rosterStore == nil || s.historyStore == nil || s.sessionStore == nil {
		mem := s.memoryStore()
		if s.rosterStore == nil {
			s.rosterStore = mem
		}
		if s.historyStore == nil {
			s.historyStore = mem
		}
		if s.sessionStore == nil {
			s.sessionStore = mem
		}
	}

	rosterOpts := []roster.Option{}
	if s.newID != nil {
		rosterOpts = append(rosterOpts, roster.WithIDGenerator(s.newID))
	}
	s.roster = roster.New(nil, rosterOpts...)
	s.session = scoring.NewSession(scoring.WithDefaultShape(s.targets, s.shotsPerTarget))
	return s
}

func (s *Service) memoryStore() *repository.MemoryStore {
	return repository.NewMemoryStore(
		repository.WithHistoryCapacity(s.historyCapacity),
		repository.WithDefaultRoster(roster.DefaultParticipants(s.defaultPlayers)),
	)
}

// Start loads the roster, restores any interrupted tournament and primes
// the gauges.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting shotboard service...")

	s.roster.Replace(s.rosterStore.Roster(ctx))
	metrics.UpdateRosterSize(s.roster.Len())

	s.restoreSession(ctx)

	entries, err := s.historyStore.History(ctx)
	if err != nil {
		s.degrade(ctx, "history_list", err)
		entries = nil
	}
	for _, e := range entries {
		if e.Timestamp > s.lastTimestamp {
			s.lastTimestamp = e.Timestamp
		}
	}
	metrics.UpdateHistoryEntries(len(entries))

	s.started = true
	s.logger.Info(ctx, "shotboard service started",
		logger.Int("participants", s.roster.Len()),
		logger.Int("history", len(entries)),
		logger.String("phase", string(s.session.Phase())),
		logger.Bool("degraded", s.degraded),
	)
	return nil
}

// restoreSession loads the snapshot. A snapshot that cannot be decoded or
// applied is discarded so the session starts clean.
func (s *Service) restoreSession(ctx context.Context) {
	state, ok, err := s.sessionStore.LoadSession(ctx)
	switch {
	case errors.Is(err, repository.ErrStoreUnavailable):
		s.degrade(ctx, "session_load", err)
		return
	case err != nil:
		s.logger.Warn(ctx, "discarding unreadable session snapshot", logger.Error(err))
		s.clearSnapshot(ctx)
		return
	case !ok:
		return
	}

	if err := s.session.Restore(state); err != nil {
		s.logger.Warn(ctx, "discarding inconsistent session snapshot", logger.Error(err))
		s.clearSnapshot(ctx)
		return
	}
	if s.session.Phase() == model.PhaseConfigured {
		var ids []string
		for _, p := range s.session.Selected() {
			if _, known := s.roster.Find(p.ID); known {
				ids = append(ids, p.ID)
			}
		}
		_ = s.roster.Select(ids)
	}
	if finished, ok := s.session.Finished(); ok && finished.Timestamp > s.lastTimestamp {
		s.lastTimestamp = finished.Timestamp
	}
	s.logger.Info(ctx, "restored session snapshot", logger.String("phase", string(s.session.Phase())))
}

// Stop closes the stores the service owns.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping shotboard service...")

	seen := make(map[any]struct{})
	for _, store := range []any{s.rosterStore, s.historyStore, s.sessionStore} {
		closer, ok := store.(io.Closer)
		if !ok {
			continue
		}
		if _, dup := seen[store]; dup {
			continue
		}
		seen[store] = struct{}{}
		if err := closer.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing store failed", logger.Error(err))
		}
	}
	for _, c := range s.closers {
		_ = c.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "shotboard service stopped")
}

// Degraded reports whether the service fell back to in-memory storage.
func (s *Service) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// degrade swaps every store for an in-memory one seeded with the current
// roster. It is a one-way switch for the life of the process.
func (s *Service) degrade(ctx context.Context, op string, cause error) {
	if s.degraded {
		return
	}
	s.degraded = true
	metrics.SetDegraded(true)
	s.logger.Warn(ctx, "storage unavailable, continuing in memory; nothing will be saved",
		logger.String("op", op),
		logger.Error(cause),
	)

	// The durable stores are closed on Stop, after the fallback is in place.
	for _, store := range []any{s.rosterStore, s.historyStore, s.sessionStore} {
		if c, ok := store.(io.Closer); ok {
			s.closers = append(s.closers, c)
		}
	}

	mem := s.memoryStore()
	if s.roster.Len() > 0 {
		_ = mem.ReplaceRoster(ctx, s.roster.All())
	}
	s.rosterStore = mem
	s.historyStore = mem
	s.sessionStore = mem
}

func (s *Service) ensureStarted() error {
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// saveSnapshot persists the session. Failures are logged and counted but
// never surface to the caller.
func (s *Service) saveSnapshot(ctx context.Context) {
	err := s.sessionStore.SaveSession(ctx, s.session.Snapshot())
	if err == nil {
		return
	}
	metrics.RecordSnapshotSaveFailure()
	if errors.Is(err, repository.ErrStoreUnavailable) {
		s.degrade(ctx, "session_save", err)
		_ = s.sessionStore.SaveSession(ctx, s.session.Snapshot())
		return
	}
	s.logger.Warn(ctx, "session snapshot not saved", logger.Error(err))
}

func (s *Service) clearSnapshot(ctx context.Context) {
	if err := s.sessionStore.ClearSession(ctx); err != nil {
		s.logger.Warn(ctx, "session snapshot not cleared", logger.Error(err))
	}
}

// persistRoster writes the in-memory roster through, degrading on failure.
func (s *Service) persistRoster(ctx context.Context) {
	metrics.UpdateRosterSize(s.roster.Len())
	err := s.rosterStore.ReplaceRoster(ctx, s.roster.All())
	if err == nil {
		return
	}
	s.degrade(ctx, "roster_replace", err)
	_ = s.rosterStore.ReplaceRoster(ctx, s.roster.All())
}

// nextTimestamp returns the clock in milliseconds, bumped past the last
// issued timestamp so history keys never collide.
func (s *Service) nextTimestamp() time.Time {
	now := s.clock()
	ms := now.UnixMilli()
	if ms <= s.lastTimestamp {
		ms = s.lastTimestamp + 1
	}
	s.lastTimestamp = ms
	return time.UnixMilli(ms)
}

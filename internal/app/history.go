package service

import (
	"context"
	"errors"

	"github.com/okian/shotboard/internal/adapters/repository"
	"github.com/okian/shotboard/internal/domain/model"
	"github.com/okian/shotboard/internal/export"
	"github.com/okian/shotboard/pkg/logger"
	"github.com/okian/shotboard/pkg/metrics"
)

// History returns the stored tournaments, newest first.
func (s *Service) History(ctx context.Context) ([]model.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureStarted(); err != nil {
		return nil, err
	}
	return s.listHistory(ctx)
}

func (s *Service) listHistory(ctx context.Context) ([]model.HistoryEntry, error) {
	entries, err := s.historyStore.History(ctx)
	if err != nil && !errors.Is(err, model.ErrSerialization) {
		s.degrade(ctx, "history_list", err)
		entries, err = s.historyStore.History(ctx)
	}
	return entries, err
}

// HistoryEntry returns one stored tournament.
func (s *Service) HistoryEntry(ctx context.Context, timestamp int64) (model.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureStarted(); err != nil {
		return model.HistoryEntry{}, err
	}
	return s.historyStore.HistoryEntry(ctx, timestamp)
}

// ViewHistory loads a stored tournament as the finished one so the board
// and export show it. It is refused while a tournament is being scored.
func (s *Service) ViewHistory(ctx context.Context, timestamp int64) (model.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureStarted(); err != nil {
		return model.HistoryEntry{}, err
	}

	entry, err := s.historyStore.HistoryEntry(ctx, timestamp)
	if err != nil {
		return model.HistoryEntry{}, err
	}
	if err := s.session.View(entry); err != nil {
		return model.HistoryEntry{}, err
	}
	s.roster.ClearSelection()
	s.saveSnapshot(ctx)
	return entry, nil
}

// DeleteHistory removes a stored tournament. Deleting one that is not
// there is not an error.
func (s *Service) DeleteHistory(ctx context.Context, timestamp int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureStarted(); err != nil {
		return err
	}

	if err := s.historyStore.DeleteHistory(ctx, timestamp); err != nil {
		if !errors.Is(err, repository.ErrStoreUnavailable) {
			return err
		}
		s.degrade(ctx, "history_delete", err)
		if err := s.historyStore.DeleteHistory(ctx, timestamp); err != nil {
			return err
		}
	}
	s.logger.Debug(ctx, "history entry deleted", logger.Int64("timestamp", timestamp))
	s.refreshHistoryGauge(ctx)
	return nil
}

// Export projects a tournament onto the exchange document. A zero
// timestamp exports the finished or viewed tournament.
func (s *Service) Export(ctx context.Context, timestamp int64) (export.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureStarted(); err != nil {
		return export.Document{}, err
	}

	var entry model.HistoryEntry
	if timestamp == 0 {
		finished, ok := s.session.Finished()
		if !ok {
			return export.Document{}, ErrNothingToExport
		}
		entry = finished
	} else {
		stored, err := s.historyStore.HistoryEntry(ctx, timestamp)
		if err != nil {
			return export.Document{}, err
		}
		entry = stored
	}
	return export.Build(entry, s.clock()), nil
}

func (s *Service) refreshHistoryGauge(ctx context.Context) {
	entries, err := s.historyStore.History(ctx)
	if err != nil {
		return
	}
	metrics.UpdateHistoryEntries(len(entries))
}

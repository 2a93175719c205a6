package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/shotboard/internal/domain/model"
	"github.com/okian/shotboard/internal/domain/scoring"
	"github.com/okian/shotboard/internal/domain/tournament"
	"github.com/okian/shotboard/pkg/logger"
	"github.com/okian/shotboard/pkg/metrics"
)

// Board is a read-only view of the active tournament.
type Board struct {
	Phase        model.Phase
	Config       tournament.Config
	Participants []model.Participant
	// Sheet is nil until scoring starts.
	Sheet     *model.ScoreSheet
	Standings []model.RankedResult
}

// Board returns the active tournament. Once finished it shows the frozen
// results.
func (s *Service) Board() Board {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := Board{
		Phase:        s.session.Phase(),
		Config:       s.session.Config(),
		Participants: s.session.Selected(),
	}
	switch b.Phase {
	case model.PhaseScoring:
		b.Sheet = s.session.Sheet()
		b.Standings = s.session.Standings()
	case model.PhaseFinished:
		if entry, ok := s.session.Finished(); ok {
			b.Sheet = entry.Scores
			b.Standings = entry.Results
			b.Participants = b.Participants[:0]
			for _, r := range entry.Results {
				b.Participants = append(b.Participants, model.Participant{ID: r.ParticipantID, Name: r.Name})
			}
		}
	}
	return b
}

// Configure stages the tournament shape.
func (s *Service) Configure(ctx context.Context, targets, shotsPerTarget int) (tournament.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureStarted(); err != nil {
		return tournament.Config{}, err
	}

	if err := s.session.Configure(tournament.NewConfig(targets, shotsPerTarget)); err != nil {
		return tournament.Config{}, err
	}
	s.saveSnapshot(ctx)
	return s.session.Config(), nil
}

// ValidateSetup reports every problem that would stop the staged tournament
// from starting, in target, shots, participants order.
func (s *Service) ValidateSetup() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tournament.Check(s.session.Config(), len(s.roster.Selected()))
}

// StartTournament builds the score sheet for the staged shape and selection.
func (s *Service) StartTournament(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureStarted(); err != nil {
		return err
	}

	if err := s.session.Initialize(s.session.Config(), s.roster.Selected()); err != nil {
		return err
	}
	metrics.RecordTournamentStarted()
	s.saveSnapshot(ctx)
	s.logger.Info(ctx, "tournament started",
		logger.String("shape", s.session.Config().String()),
		logger.Int("participants", len(s.session.Selected())),
	)
	return nil
}

// SetScore applies live input to one shot. Empty input clears the shot;
// input that is not a number or is outside 0..10 leaves it unchanged and
// comes back with Committed false.
func (s *Service) SetScore(ctx context.Context, id string, target, shot int, raw string) (scoring.Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureStarted(); err != nil {
		return scoring.Update{}, err
	}

	value, ok := scoring.ParseRaw(raw)
	if !ok {
		// Report the current cell without writing it.
		u, err := s.session.CapScore(id, target, shot, "")
		if err == nil {
			metrics.RecordScore(metrics.PathSet, false, false)
		}
		return u, err
	}
	u, err := s.session.SetScore(id, target, shot, value)
	if err != nil {
		return u, err
	}
	metrics.RecordScore(metrics.PathSet, u.Committed, u.Perfect)
	if u.Committed {
		s.saveSnapshot(ctx)
	}
	return u, nil
}

// CapScore commits input to one shot, clamped to 0..10.
func (s *Service) CapScore(ctx context.Context, id string, target, shot int, raw string) (scoring.Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureStarted(); err != nil {
		return scoring.Update{}, err
	}

	u, err := s.session.CapScore(id, target, shot, raw)
	if err != nil {
		return u, err
	}
	metrics.RecordScore(metrics.PathCap, u.Committed, u.Perfect)
	if u.Committed {
		s.saveSnapshot(ctx)
	}
	return u, nil
}

// ClearScores unsets every shot of the running tournament.
func (s *Service) ClearScores(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureStarted(); err != nil {
		return err
	}

	if err := s.session.ClearScores(); err != nil {
		return err
	}
	s.saveSnapshot(ctx)
	return nil
}

// Standings ranks the running tournament.
func (s *Service) Standings() ([]model.RankedResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureStarted(); err != nil {
		return nil, err
	}
	if s.session.Phase() != model.PhaseScoring {
		return nil, fmt.Errorf("standings in phase %s: %w", s.session.Phase(), scoring.ErrInvalidPhase)
	}
	return s.session.Standings(), nil
}

// Finish freezes the running tournament and appends it to history. Calling
// it again returns the same entry without a second append.
func (s *Service) Finish(ctx context.Context) (model.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureStarted(); err != nil {
		return model.HistoryEntry{}, err
	}

	var (
		entry   model.HistoryEntry
		created bool
		err     error
	)
	if s.session.Phase() == model.PhaseScoring {
		entry, created, err = s.session.Finish(s.nextTimestamp())
	} else {
		entry, created, err = s.session.Finish(s.clock())
	}
	if err != nil {
		return model.HistoryEntry{}, err
	}
	if !created {
		return entry, nil
	}

	metrics.RecordTournamentFinished(entry.ParticipantCount)
	s.appendHistory(ctx, entry)
	s.saveSnapshot(ctx)
	s.logger.Info(ctx, "tournament finished",
		logger.Int64("timestamp", entry.Timestamp),
		logger.Int("participants", entry.ParticipantCount),
	)
	return entry, nil
}

func (s *Service) appendHistory(ctx context.Context, entry model.HistoryEntry) {
	evicted, err := s.historyStore.AppendHistory(ctx, entry)
	if err != nil {
		if errors.Is(err, model.ErrSerialization) {
			s.logger.Error(ctx, "finished tournament not recorded", logger.Error(err))
			return
		}
		s.degrade(ctx, "history_append", err)
		if evicted, err = s.historyStore.AppendHistory(ctx, entry); err != nil {
			s.logger.Error(ctx, "finished tournament not recorded", logger.Error(err))
			return
		}
	}
	metrics.RecordHistoryAppend(evicted)
	s.refreshHistoryGauge(ctx)
}

// Reset discards the active tournament and the staged selection. Roster
// and history are untouched.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureStarted(); err != nil {
		return err
	}

	s.session.Reset()
	s.roster.ClearSelection()
	s.clearSnapshot(ctx)
	return nil
}

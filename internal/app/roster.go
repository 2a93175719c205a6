package service

import (
	"context"
	"fmt"

	"github.com/okian/shotboard/internal/domain/model"
	"github.com/okian/shotboard/internal/domain/scoring"
	"github.com/okian/shotboard/pkg/logger"
)

// Participants returns the roster in order.
func (s *Service) Participants() []model.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.All()
}

// FindParticipants returns the participants whose name contains query,
// ignoring case.
func (s *Service) FindParticipants(query string) []model.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.Filter(query)
}

// SelectedParticipants returns the staged selection in pick order.
func (s *Service) SelectedParticipants() []model.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.Selected()
}

// AddParticipant adds a participant to the roster and saves it.
func (s *Service) AddParticipant(ctx context.Context, name string) (model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureStarted(); err != nil {
		return model.Participant{}, err
	}

	p, err := s.roster.Add(name)
	if err != nil {
		return model.Participant{}, err
	}
	s.persistRoster(ctx)
	s.logger.Debug(ctx, "participant added", logger.String("id", p.ID), logger.String("name", p.Name))
	return p, nil
}

// RemoveParticipant deletes a participant from the roster. A staged
// selection loses it too; a running tournament keeps its row.
func (s *Service) RemoveParticipant(ctx context.Context, id string) (model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureStarted(); err != nil {
		return model.Participant{}, err
	}

	p, err := s.roster.Remove(id)
	if err != nil {
		return model.Participant{}, err
	}
	s.persistRoster(ctx)
	s.stageSelection(ctx)
	s.logger.Debug(ctx, "participant removed", logger.String("id", p.ID))
	return p, nil
}

// ToggleParticipant flips one participant's selection and reports whether
// it is now selected.
func (s *Service) ToggleParticipant(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.selectionAllowed(); err != nil {
		return false, err
	}

	on, err := s.roster.Toggle(id)
	if err != nil {
		return false, err
	}
	s.stageSelection(ctx)
	return on, nil
}

// SelectParticipants replaces the selection with ids, in order.
func (s *Service) SelectParticipants(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.selectionAllowed(); err != nil {
		return err
	}

	if err := s.roster.Select(ids); err != nil {
		return err
	}
	s.stageSelection(ctx)
	return nil
}

// ToggleAll selects every participant matching query, or clears the
// selection when they are all selected already. It reports whether anything
// is selected afterwards.
func (s *Service) ToggleAll(ctx context.Context, query string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.selectionAllowed(); err != nil {
		return false, err
	}

	picked := s.roster.ToggleAll(query)
	s.stageSelection(ctx)
	return picked, nil
}

func (s *Service) selectionAllowed() error {
	if err := s.ensureStarted(); err != nil {
		return err
	}
	switch phase := s.session.Phase(); phase {
	case model.PhaseScoring, model.PhaseFinished:
		return fmt.Errorf("change selection in phase %s: %w", phase, scoring.ErrInvalidPhase)
	}
	return nil
}

// stageSelection mirrors the roster selection into the session while no
// tournament is running, then snapshots it.
func (s *Service) stageSelection(ctx context.Context) {
	switch s.session.Phase() {
	case model.PhaseScoring, model.PhaseFinished:
		return
	}
	if err := s.session.Select(s.roster.Selected()); err != nil {
		s.logger.Warn(ctx, "selection not staged", logger.Error(err))
		return
	}
	s.saveSnapshot(ctx)
}

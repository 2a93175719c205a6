// Package scoring holds the active tournament: the score sheet, the rules for
// writing shots into it, and the aggregation and ranking derived from it.
package scoring

import (
	"fmt"
	"time"

	"github.com/okian/shotboard/internal/domain/model"
	"github.com/okian/shotboard/internal/domain/tournament"
)

// Default tournament shape used until the caller configures one.
const (
	defaultTargets        = 20
	defaultShotsPerTarget = 2
)

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithDefaultShape sets the shape a fresh or reset session starts with.
func WithDefaultShape(targets, shotsPerTarget int) Option {
	return func(s *Session) {
		if targets > 0 && shotsPerTarget > 0 {
			s.defaultConfig = tournament.NewConfig(targets, shotsPerTarget)
		}
	}
}

// Update is what a score write reports back so the caller can redraw.
type Update struct {
	// Committed is false when the write was rejected and the cell kept its value.
	Committed bool
	// Value is the cell value after the call.
	Value model.Score
	// Perfect is set when the committed value is a 10.
	Perfect     bool
	TargetTotal int
	Aggregate   model.Aggregate
	Status      model.Status
}

// Session is the single active tournament. It is not safe for concurrent
// use; callers serialize access.
type Session struct {
	phase         model.Phase
	defaultConfig tournament.Config
	config        tournament.Config
	selected      []model.Participant
	sheet         *model.ScoreSheet

	finished *model.HistoryEntry
}

// NewSession returns an unconfigured session.
func NewSession(opts ...Option) *Session {
	s := &Session{
		defaultConfig: tournament.NewConfig(defaultTargets, defaultShotsPerTarget),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() model.Phase { return s.phase }

// Config returns the current tournament shape.
func (s *Session) Config() tournament.Config { return s.config }

// Selected returns a copy of the selected participants in selection order.
func (s *Session) Selected() []model.Participant { return model.CloneParticipants(s.selected) }

// Sheet returns a copy of the active score sheet, or nil before scoring.
func (s *Session) Sheet() *model.ScoreSheet { return s.sheet.Clone() }

// Configure stages a new shape. It is rejected once scoring has begun so the
// sheet can never drift from the config it was built with.
func (s *Session) Configure(cfg tournament.Config) error {
	switch s.phase {
	case model.PhaseScoring, model.PhaseFinished:
		return fmt.Errorf("configure in phase %s: %w", s.phase, ErrConfigFrozen)
	}
	s.config = cfg.Normalize()
	s.phase = model.PhaseConfigured
	return nil
}

// Select replaces the staged participant selection.
func (s *Session) Select(participants []model.Participant) error {
	switch s.phase {
	case model.PhaseScoring, model.PhaseFinished:
		return fmt.Errorf("select in phase %s: %w", s.phase, ErrInvalidPhase)
	}
	s.selected = dedupeParticipants(participants)
	if s.phase == model.PhaseUnconfigured && len(s.selected) > 0 {
		s.phase = model.PhaseConfigured
	}
	return nil
}

// Start initializes scoring from the staged config and selection.
func (s *Session) Start() error {
	return s.Initialize(s.config, s.selected)
}

// Initialize validates cfg and participants and builds an all-unset sheet,
// moving the session into the scoring phase. On error the session is
// unchanged.
func (s *Session) Initialize(cfg tournament.Config, participants []model.Participant) error {
	switch s.phase {
	case model.PhaseScoring, model.PhaseFinished:
		return fmt.Errorf("initialize in phase %s: %w", s.phase, ErrInvalidPhase)
	}
	cfg = cfg.Normalize()
	selected := dedupeParticipants(participants)
	if err := tournament.Validate(cfg, len(selected)); err != nil {
		return err
	}
	s.config = cfg
	s.selected = selected
	s.sheet = model.NewScoreSheet(model.ParticipantIDs(selected), cfg.TargetCount, cfg.ShotsPerTarget)
	s.finished = nil
	s.phase = model.PhaseScoring
	return nil
}

func (s *Session) checkAddress(id string, target, shot int) error {
	if s.phase != model.PhaseScoring {
		return fmt.Errorf("score in phase %s: %w", s.phase, ErrInvalidPhase)
	}
	if !s.sheet.Has(id) || !s.sheet.InRange(target, shot) {
		return fmt.Errorf("participant %q target %d shot %d: %w", id, target, shot, ErrOutOfRangeAddress)
	}
	return nil
}

// SetScore is the live-typing write path. A nil raw clears the shot. Values
// outside 0..10 are not written; the cell keeps its previous value until the
// caller commits through CapScore.
func (s *Session) SetScore(id string, target, shot int, raw *int) (Update, error) {
	if err := s.checkAddress(id, target, shot); err != nil {
		return Update{}, err
	}
	if raw != nil && (*raw < model.MinScore || *raw > model.MaxScore) {
		return s.update(id, target, shot, false), nil
	}
	s.sheet.Set(id, target, shot, model.ScoreFromPtr(raw))
	return s.update(id, target, shot, true), nil
}

// CapScore is the authoritative commit path. raw is parsed like a numeric
// form field; the result is clamped to 0..10 and written. Non-numeric input
// leaves the cell untouched and reports its previous value.
func (s *Session) CapScore(id string, target, shot int, raw string) (Update, error) {
	if err := s.checkAddress(id, target, shot); err != nil {
		return Update{}, err
	}
	v, ok := ParseLeadingInt(raw)
	if !ok {
		return s.update(id, target, shot, false), nil
	}
	s.sheet.Set(id, target, shot, model.ScoreOf(Clamp(v)))
	return s.update(id, target, shot, true), nil
}

func (s *Session) update(id string, target, shot int, committed bool) Update {
	v, _ := s.sheet.Get(id, target, shot)
	return Update{
		Committed:   committed,
		Value:       v,
		Perfect:     committed && v.IsPerfect(),
		TargetTotal: s.sheet.TargetTotal(id, target),
		Aggregate:   s.sheet.Aggregate(id),
		Status:      s.sheet.Status(id),
	}
}

// ClearScores unsets every cell of the active sheet.
func (s *Session) ClearScores() error {
	if s.phase != model.PhaseScoring {
		return fmt.Errorf("clear in phase %s: %w", s.phase, ErrInvalidPhase)
	}
	s.sheet.Clear()
	return nil
}

// Aggregate returns the participant's total and perfect-shot count.
func (s *Session) Aggregate(id string) model.Aggregate { return s.sheet.Aggregate(id) }

// Status returns the participant's progress through the sheet.
func (s *Session) Status(id string) model.Status { return s.sheet.Status(id) }

// Standings ranks the selected participants against the current sheet.
func (s *Session) Standings() []model.RankedResult {
	return Rank(s.sheet, s.selected)
}

// Finish freezes the tournament into a history entry. Calling it again once
// finished returns the same entry with created=false; the caller appends to
// history only when created is true.
func (s *Session) Finish(now time.Time) (model.HistoryEntry, bool, error) {
	switch s.phase {
	case model.PhaseFinished:
		if s.finished != nil {
			return s.finished.Clone(), false, nil
		}
		return model.HistoryEntry{}, false, fmt.Errorf("finish: no finished tournament: %w", ErrInvalidPhase)
	case model.PhaseScoring:
	default:
		return model.HistoryEntry{}, false, fmt.Errorf("finish in phase %s: %w", s.phase, ErrInvalidPhase)
	}

	s.config = s.config.Normalize()
	entry := model.HistoryEntry{
		Timestamp:        now.UnixMilli(),
		Date:             time.UnixMilli(now.UnixMilli()).UTC(),
		Config:           s.config,
		Results:          s.Standings(),
		Scores:           s.sheet.Clone(),
		ParticipantCount: len(s.selected),
	}
	s.finished = &entry
	s.phase = model.PhaseFinished
	return entry.Clone(), true, nil
}

// View loads a stored tournament as the finished one, e.g. to export it.
// It is only allowed while no tournament is being scored.
func (s *Session) View(entry model.HistoryEntry) error {
	if s.phase == model.PhaseScoring {
		return fmt.Errorf("view in phase %s: %w", s.phase, ErrInvalidPhase)
	}
	e := entry.Clone()
	e.Config = e.Config.Normalize()
	s.finished = &e
	s.config = e.Config
	s.selected = playersFromResults(e.Results)
	s.sheet = e.Scores.Clone()
	s.phase = model.PhaseFinished
	return nil
}

// Reset discards the active tournament. Roster and history are untouched.
func (s *Session) Reset() {
	s.phase = model.PhaseUnconfigured
	s.config = s.defaultConfig
	s.selected = nil
	s.sheet = nil
	s.finished = nil
}

// Snapshot captures the working state for persistence.
func (s *Session) Snapshot() model.SessionState {
	state := model.SessionState{
		Phase:            s.phase,
		SelectedPlayers:  model.CloneParticipants(s.selected),
		TournamentConfig: s.config,
		Scores:           s.sheet.Clone(),
	}
	if s.finished != nil {
		state.LastResults = model.CloneResults(s.finished.Results)
		state.LastScores = s.finished.Scores.Clone()
		state.LastPlayers = playersFromResults(s.finished.Results)
		state.FinishedAt = s.finished.Timestamp
	}
	return state
}

// Restore replaces the session with a previously captured state. A snapshot
// whose sheet does not match its config is rejected and leaves the session
// unchanged.
func (s *Session) Restore(state model.SessionState) error {
	cfg := state.TournamentConfig.Normalize()
	phase := state.Phase
	if phase == "" {
		phase = inferPhase(state)
	}

	var finished *model.HistoryEntry
	if phase == model.PhaseFinished {
		if state.LastResults == nil {
			return fmt.Errorf("restore finished session without results: %w", model.ErrSerialization)
		}
		scores := state.LastScores
		if scores == nil {
			scores = state.Scores
		}
		entry := model.HistoryEntry{
			Timestamp:        state.FinishedAt,
			Date:             time.UnixMilli(state.FinishedAt).UTC(),
			Config:           cfg,
			Results:          model.CloneResults(state.LastResults),
			Scores:           scores.Clone(),
			ParticipantCount: len(state.LastResults),
		}
		finished = &entry
	}

	if phase == model.PhaseScoring {
		if state.Scores == nil || state.Scores.Targets() != cfg.TargetCount || state.Scores.Shots() != cfg.ShotsPerTarget {
			return fmt.Errorf("restore: sheet shape does not match config %s: %w", cfg, model.ErrSerialization)
		}
		for _, p := range state.SelectedPlayers {
			if !state.Scores.Has(p.ID) {
				return fmt.Errorf("restore: no sheet row for participant %q: %w", p.ID, model.ErrSerialization)
			}
		}
	}

	s.phase = phase
	s.config = cfg
	s.selected = dedupeParticipants(state.SelectedPlayers)
	s.sheet = nil
	if phase == model.PhaseScoring || phase == model.PhaseFinished {
		s.sheet = state.Scores.Clone()
	}
	s.finished = finished
	return nil
}

// Finished returns the finished tournament, if any.
func (s *Session) Finished() (model.HistoryEntry, bool) {
	if s.finished == nil {
		return model.HistoryEntry{}, false
	}
	return s.finished.Clone(), true
}

func inferPhase(state model.SessionState) model.Phase {
	switch {
	case len(state.LastResults) > 0:
		return model.PhaseFinished
	case state.Scores != nil && len(state.Scores.Participants()) > 0:
		return model.PhaseScoring
	case len(state.SelectedPlayers) > 0:
		return model.PhaseConfigured
	default:
		return model.PhaseUnconfigured
	}
}

func playersFromResults(rs []model.RankedResult) []model.Participant {
	out := make([]model.Participant, len(rs))
	for i, r := range rs {
		out[i] = model.Participant{ID: r.ParticipantID, Name: r.Name}
	}
	return out
}

func dedupeParticipants(ps []model.Participant) []model.Participant {
	seen := make(map[string]struct{}, len(ps))
	out := make([]model.Participant, 0, len(ps))
	for _, p := range ps {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

package model

import (
	"encoding/json"
	"fmt"

	"github.com/okian/shotboard/internal/domain/tournament"
)

// Phase is the lifecycle stage of the active tournament.
type Phase string

// Tournament lifecycle phases.
const (
	PhaseUnconfigured Phase = "unconfigured"
	PhaseConfigured   Phase = "configured"
	PhaseScoring      Phase = "scoring"
	PhaseFinished     Phase = "finished"
)

// SessionState is the working state of the active tournament, persisted as
// an opaque blob so an interrupted tournament can be resumed.
type SessionState struct {
	Phase            Phase             `json:"phase,omitempty"`
	SelectedPlayers  []Participant     `json:"selectedPlayers"`
	TournamentConfig tournament.Config `json:"tournamentConfig"`
	Scores           *ScoreSheet       `json:"scores"`
	LastResults      []RankedResult    `json:"lastResults"`
	LastScores       *ScoreSheet       `json:"lastScores"`
	LastPlayers      []Participant     `json:"lastPlayers"`
	FinishedAt       int64             `json:"finishedAt,omitempty"`
}

// EncodeSessionState serializes state to JSON.
func EncodeSessionState(state SessionState) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return data, nil
}

// DecodeSessionState parses a snapshot. Any decoding problem is reported as
// ErrSerialization.
func DecodeSessionState(data []byte) (SessionState, error) {
	var state SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return SessionState{}, fmt.Errorf("%w: session state: %v", ErrSerialization, err)
	}
	switch state.Phase {
	case "", PhaseUnconfigured, PhaseConfigured, PhaseScoring, PhaseFinished:
	default:
		return SessionState{}, fmt.Errorf("%w: unknown phase %q", ErrSerialization, state.Phase)
	}
	return state, nil
}

// EncodeHistoryEntry serializes a history record to JSON.
func EncodeHistoryEntry(e HistoryEntry) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return data, nil
}

// DecodeHistoryEntry parses a history record.
func DecodeHistoryEntry(data []byte) (HistoryEntry, error) {
	var e HistoryEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return HistoryEntry{}, fmt.Errorf("%w: history entry: %v", ErrSerialization, err)
	}
	return e, nil
}

package model

import (
	"time"

	"github.com/okian/shotboard/internal/domain/tournament"
)

// RankedResult is one row of the final standings. It is always derived from
// a ScoreSheet and never edited directly.
type RankedResult struct {
	ParticipantID    string `json:"participantId"`
	Name             string `json:"name"`
	TotalScore       int    `json:"totalScore"`
	PerfectShotCount int    `json:"perfectShotCount"`
	Rank             int    `json:"rank"`
}

// CloneResults returns an independent copy of rs. A nil slice stays nil.
func CloneResults(rs []RankedResult) []RankedResult {
	if rs == nil {
		return nil
	}
	out := make([]RankedResult, len(rs))
	copy(out, rs)
	return out
}

// HistoryEntry is an immutable record of a finished tournament. Timestamp is
// the creation time in milliseconds and doubles as the primary key.
type HistoryEntry struct {
	Timestamp        int64             `json:"timestamp"`
	Date             time.Time         `json:"date"`
	Config           tournament.Config `json:"config"`
	Results          []RankedResult    `json:"results"`
	Scores           *ScoreSheet       `json:"scores"`
	ParticipantCount int               `json:"participantCount"`
}

// Clone returns a deep copy of e.
func (e HistoryEntry) Clone() HistoryEntry {
	e.Results = CloneResults(e.Results)
	e.Scores = e.Scores.Clone()
	return e
}

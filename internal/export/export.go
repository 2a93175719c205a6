// Package export projects a finished tournament onto the exchange document
// read by external formatters.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/okian/shotboard/internal/domain/model"
	"github.com/okian/shotboard/internal/domain/tournament"
)

// timeLayout is ISO-8601 with millisecond precision, UTC.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// Document is the complete exchange structure.
type Document struct {
	Tournament Summary `json:"tournament"`
	Results    Results `json:"results"`
	ArchivedAt string  `json:"archived_at"`
}

// Summary is the tournament header.
type Summary struct {
	ID               string          `json:"id"`
	TournamentType   tournament.Type `json:"tournament_type"`
	CreatedAt        string          `json:"created_at"`
	TotalPlayers     int             `json:"total_players"`
	TotalTargets     int             `json:"total_targets"`
	BulletsPerTarget int             `json:"bullets_per_target"`
}

// Results carries the per-participant breakdown.
type Results struct {
	TournamentID       string                 `json:"tournament_id"`
	TournamentType     tournament.Type        `json:"tournament_type"`
	Participants       map[string]Participant `json:"participants"`
	TournamentFinished bool                   `json:"tournament_finished"`
	CreatedAt          string                 `json:"created_at"`
	FinishedAt         string                 `json:"finished_at"`
}

// Participant is one participant's row: every shot, the totals and the
// final position.
type Participant struct {
	ID         string                    `json:"id"`
	Name       string                    `json:"name"`
	Position   int                       `json:"position"`
	Targets    map[string]map[string]int `json:"targets"`
	TotalScore int                       `json:"total_score"`
	TensCount  int                       `json:"tens_count"`
	Completed  bool                      `json:"completed"`
}

// Build projects entry into the exchange document. now stamps archived_at.
// Unset shots export as 0 and the type is null unless the shape has a
// category.
func Build(entry model.HistoryEntry, now time.Time) Document {
	cfg := entry.Config.Normalize()
	created := formatTime(entry.Date)
	if entry.Date.IsZero() {
		created = formatTime(time.UnixMilli(entry.Timestamp))
	}

	doc := Document{
		Tournament: Summary{
			ID:               created,
			TournamentType:   cfg.Type,
			CreatedAt:        created,
			TotalPlayers:     len(entry.Results),
			TotalTargets:     cfg.TargetCount,
			BulletsPerTarget: cfg.ShotsPerTarget,
		},
		Results: Results{
			TournamentID:       created,
			TournamentType:     cfg.Type,
			Participants:       make(map[string]Participant, len(entry.Results)),
			TournamentFinished: true,
			CreatedAt:          created,
			FinishedAt:         created,
		},
		ArchivedAt: formatTime(now),
	}

	for _, r := range entry.Results {
		doc.Results.Participants[r.ParticipantID] = Participant{
			ID:         r.ParticipantID,
			Name:       r.Name,
			Position:   r.Rank,
			Targets:    targets(entry.Scores, r.ParticipantID, cfg),
			TotalScore: r.TotalScore,
			TensCount:  r.PerfectShotCount,
			Completed:  entry.Scores.Status(r.ParticipantID) == model.StatusCompleted,
		}
	}
	return doc
}

func targets(sheet *model.ScoreSheet, id string, cfg tournament.Config) map[string]map[string]int {
	out := make(map[string]map[string]int, cfg.TargetCount)
	for t := 1; t <= cfg.TargetCount; t++ {
		shots := make(map[string]int, cfg.ShotsPerTarget)
		for s := 1; s <= cfg.ShotsPerTarget; s++ {
			score, _ := sheet.Get(id, t, s)
			shots["shot"+strconv.Itoa(s)] = score.Points()
		}
		out[strconv.Itoa(t)] = shots
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// Encode writes doc as indented JSON.
func Encode(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// FileName is the suggested download name for a document exported at now.
func FileName(now time.Time) string {
	return "tournament_" + now.UTC().Format("2006-01-02T15-04-05") + ".json"
}

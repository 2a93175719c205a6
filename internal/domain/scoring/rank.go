package scoring

import (
	"sort"

	"github.com/okian/shotboard/internal/domain/model"
)

// Rank orders participants by total score, then by perfect shots, both
// descending. The sort is stable so exact ties keep the input order, and
// ranks are positions: tied participants still get distinct ranks.
func Rank(sheet *model.ScoreSheet, participants []model.Participant) []model.RankedResult {
	results := make([]model.RankedResult, len(participants))
	for i, p := range participants {
		agg := sheet.Aggregate(p.ID)
		results[i] = model.RankedResult{
			ParticipantID:    p.ID,
			Name:             p.Name,
			TotalScore:       agg.Total,
			PerfectShotCount: agg.PerfectShots,
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].TotalScore != results[j].TotalScore {
			return results[i].TotalScore > results[j].TotalScore
		}
		return results[i].PerfectShotCount > results[j].PerfectShotCount
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/shotboard/internal/domain/model"
	"github.com/okian/shotboard/internal/domain/tournament"
)

func entryAt(ts int64) model.HistoryEntry {
	sheet := model.NewScoreSheet([]string{"a"}, 1, 1)
	sheet.Set("a", 1, 1, model.ScoreOf(int(ts%11)))
	return model.HistoryEntry{
		Timestamp:        ts,
		Date:             time.UnixMilli(ts).UTC(),
		Config:           tournament.NewConfig(1, 1),
		Results:          []model.RankedResult{{ParticipantID: "a", Name: "Ana", TotalScore: int(ts % 11), Rank: 1}},
		Scores:           sheet,
		ParticipantCount: 1,
	}
}

func timestamps(entries []model.HistoryEntry) []int64 {
	out := make([]int64, len(entries))
	for i, e := range entries {
		out[i] = e.Timestamp
	}
	return out
}

func TestEvictionCount(t *testing.T) {
	assert.Equal(t, 0, EvictionCount(0, 5))
	assert.Equal(t, 0, EvictionCount(4, 5))
	assert.Equal(t, 1, EvictionCount(5, 5))
	assert.Equal(t, 3, EvictionCount(7, 5))
	assert.Equal(t, 2, EvictionCount(2, 0))
}

func TestMemoryStore_HistoryCapacity(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	evictedTotal := 0
	for ts := int64(1); ts <= 6; ts++ {
		n, err := store.AppendHistory(ctx, entryAt(ts*1000))
		require.NoError(t, err)
		evictedTotal += n
	}

	all, err := store.History(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{6000, 5000, 4000, 3000, 2000}, timestamps(all))
	assert.Equal(t, 1, evictedTotal)

	_, err = store.HistoryEntry(ctx, 1000)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStore_HistoryCustomCapacity(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithHistoryCapacity(2))

	for _, ts := range []int64{10, 30, 20} {
		_, err := store.AppendHistory(ctx, entryAt(ts))
		require.NoError(t, err)
	}

	all, err := store.History(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{30, 20}, timestamps(all))
}

func TestMemoryStore_HistoryIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	e := entryAt(7)
	_, err := store.AppendHistory(ctx, e)
	require.NoError(t, err)

	e.Scores.Set("a", 1, 1, model.ScoreOf(0))
	e.Results[0].TotalScore = 99

	got, err := store.HistoryEntry(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Scores.Aggregate("a").Total)
	assert.Equal(t, 7, got.Results[0].TotalScore)
}

func TestMemoryStore_DeleteHistory(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for _, ts := range []int64{1, 2, 3} {
		_, err := store.AppendHistory(ctx, entryAt(ts))
		require.NoError(t, err)
	}

	require.NoError(t, store.DeleteHistory(ctx, 2))
	require.NoError(t, store.DeleteHistory(ctx, 42))

	all, err := store.History(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, timestamps(all))
}

func TestMemoryStore_Roster(t *testing.T) {
	ctx := context.Background()
	defaults := []model.Participant{{ID: "d1", Name: "Default"}}
	store := NewMemoryStore(WithDefaultRoster(defaults))

	assert.Equal(t, defaults, store.Roster(ctx))

	stored := []model.Participant{{ID: "a", Name: "Ana"}, {ID: "b", Name: "Bor"}}
	require.NoError(t, store.ReplaceRoster(ctx, stored))
	stored[0].Name = "changed"
	assert.Equal(t, "Ana", store.Roster(ctx)[0].Name)

	require.NoError(t, store.ReplaceRoster(ctx, nil))
	assert.Equal(t, defaults, store.Roster(ctx))
}

func TestMemoryStore_Session(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, ok, err := store.LoadSession(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	state := model.SessionState{
		Phase:            model.PhaseScoring,
		SelectedPlayers:  []model.Participant{{ID: "a", Name: "Ana"}},
		TournamentConfig: tournament.NewConfig(2, 1),
		Scores:           model.NewScoreSheet([]string{"a"}, 2, 1),
	}
	state.Scores.Set("a", 2, 1, model.ScoreOf(10))
	require.NoError(t, store.SaveSession(ctx, state))

	got, ok, err := store.LoadSession(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.PhaseScoring, got.Phase)
	assert.Equal(t, model.Aggregate{Total: 10, PerfectShots: 1}, got.Scores.Aggregate("a"))

	require.NoError(t, store.ClearSession(ctx))
	_, ok, err = store.LoadSession(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_Closed(t *testing.T) {
	ctx := context.Background()
	defaults := []model.Participant{{ID: "d1", Name: "Default"}}
	store := NewMemoryStore(WithDefaultRoster(defaults))
	require.NoError(t, store.ReplaceRoster(ctx, []model.Participant{{ID: "a", Name: "Ana"}}))
	require.NoError(t, store.Close())

	assert.Equal(t, defaults, store.Roster(ctx))
	assert.ErrorIs(t, store.ReplaceRoster(ctx, nil), ErrStoreUnavailable)
	_, err := store.AppendHistory(ctx, entryAt(1))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	_, err = store.History(ctx)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, store.DeleteHistory(ctx, 1), ErrStoreUnavailable)
	assert.ErrorIs(t, store.SaveSession(ctx, model.SessionState{}), ErrStoreUnavailable)
	_, _, err = store.LoadSession(ctx)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

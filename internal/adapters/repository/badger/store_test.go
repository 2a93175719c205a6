package badger

import (
	"context"
	"testing"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/shotboard/internal/adapters/repository"
	"github.com/okian/shotboard/internal/domain/model"
	"github.com/okian/shotboard/internal/domain/tournament"
	"github.com/okian/shotboard/pkg/logger"
)

func scoringState() model.SessionState {
	players := []model.Participant{{ID: "a", Name: "Ana"}, {ID: "b", Name: "Bor"}}
	sheet := model.NewScoreSheet(model.ParticipantIDs(players), 3, 2)
	sheet.Set("a", 1, 1, model.ScoreOf(10))
	sheet.Set("a", 3, 2, model.ScoreOf(6))
	return model.SessionState{
		Phase:            model.PhaseScoring,
		SelectedPlayers:  players,
		TournamentConfig: tournament.NewConfig(3, 2),
		Scores:           sheet,
	}
}

// TestSessionStore_InMemory verifies the save/load/clear cycle.
func TestSessionStore_InMemory(t *testing.T) {
	ctx := context.Background()
	store, err := Open(Config{InMemory: true, Logger: logger.Nop()})
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.LoadSession(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "fresh store has no snapshot")

	want := scoringState()
	require.NoError(t, store.SaveSession(ctx, want))

	got, ok, err := store.LoadSession(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.Phase, got.Phase)
	assert.Equal(t, want.SelectedPlayers, got.SelectedPlayers)
	assert.Equal(t, want.TournamentConfig, got.TournamentConfig)
	assert.Equal(t, want.Scores.Aggregate("a"), got.Scores.Aggregate("a"))
	assert.Equal(t, model.StatusNotStarted, got.Scores.Status("b"))

	require.NoError(t, store.ClearSession(ctx))
	_, ok, err = store.LoadSession(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.ClearSession(ctx), "clearing twice is fine")
}

// TestSessionStore_Persistent verifies the snapshot survives a reopen.
func TestSessionStore_Persistent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := Open(Config{Path: dir, SyncWrites: true})
	require.NoError(t, err)
	require.NoError(t, first.SaveSession(ctx, scoringState()))
	require.NoError(t, first.Close())

	second, err := Open(Config{Path: dir})
	require.NoError(t, err)
	defer second.Close()

	got, ok, err := second.LoadSession(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 16, got.Scores.Aggregate("a").Total)
}

// TestSessionStore_Corrupt verifies undecodable data surfaces as a
// serialization error.
func TestSessionStore_Corrupt(t *testing.T) {
	ctx := context.Background()
	store, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(sessionKey, []byte(`{"scores": {"a": {"1": {"1": 42}}}}`))
	}))

	_, ok, err := store.LoadSession(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, model.ErrSerialization)
}

// TestSessionStore_Unavailable verifies closed and unopened stores fail.
func TestSessionStore_Unavailable(t *testing.T) {
	ctx := context.Background()

	_, err := Open(Config{})
	assert.ErrorIs(t, err, repository.ErrStoreUnavailable)

	store, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "closing twice is fine")

	assert.ErrorIs(t, store.SaveSession(ctx, scoringState()), repository.ErrStoreUnavailable)
	_, _, err = store.LoadSession(ctx)
	assert.ErrorIs(t, err, repository.ErrStoreUnavailable)
	assert.ErrorIs(t, store.ClearSession(ctx), repository.ErrStoreUnavailable)

	live, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	defer live.Close()
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, live.SaveSession(cancelled, scoringState()), context.Canceled)
}

// TestBadgerLogger verifies the adapter forwards every level.
func TestBadgerLogger(t *testing.T) {
	l := &badgerLogger{log: logger.Nop()}
	assert.NotPanics(t, func() {
		l.Errorf("e %d", 1)
		l.Warningf("w %d", 2)
		l.Infof("i %d", 3)
		l.Debugf("d %d", 4)
	})
}

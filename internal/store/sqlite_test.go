package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/janpfeifer/chessArena/internal/board"
	"github.com/janpfeifer/chessArena/internal/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "arena.db")

	_, err := NewSQLiteStore(path).ListMatches(ctx, 0)
	assert.Error(t, err, "store not initialized")
	assert.Error(t, NewSQLiteStore("").Init(ctx))

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Init(ctx))

	start := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	for ii, result := range []board.Result{board.WhiteWin, board.Draw, board.Undecided} {
		require.NoError(t, s.SaveMatch(ctx, &match.Summary{
			MatchID:     []string{"a", "b", "c"}[ii],
			SessionID:   "s1",
			White:       ii,
			Black:       ii + 1,
			Outcome:     result,
			Result:      result.Code(),
			Winner:      result.Winner(),
			Termination: "GameOver",
			Moves:       10 * ii,
			WhiteElo:    1200 + float64(ii),
			BlackElo:    1200 - float64(ii),
			FinalFEN:    "fen",
			Started:     start.Add(time.Duration(ii) * time.Minute),
			Duration:    time.Second,
		}))
	}

	// Replacing an existing match doesn't add a new one.
	require.NoError(t, s.SaveMatch(ctx, &match.Summary{MatchID: "a", Result: "0-1", Winner: "Black", Started: start}))

	matches, err := s.ListMatches(ctx, 0)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{matches[0].MatchID, matches[1].MatchID, matches[2].MatchID})
	assert.Equal(t, board.Undecided, matches[0].Outcome)
	assert.Equal(t, "*", matches[0].Result)
	assert.Equal(t, 20, matches[0].Moves)
	assert.Equal(t, 1202.0, matches[0].WhiteElo)
	assert.True(t, start.Add(2*time.Minute).Equal(matches[0].Started))
	assert.Equal(t, time.Second, matches[0].Duration)
	assert.Equal(t, board.BlackWin, matches[2].Outcome)

	matches, err = s.ListMatches(ctx, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	// Data survives re-opening.
	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	matches, err = s.ListMatches(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}

package searchers

import (
	"math"
	"testing"

	"github.com/janpfeifer/chessArena/internal/ai"
	"github.com/janpfeifer/chessArena/internal/ai/material"
	"github.com/janpfeifer/chessArena/internal/board"
	"github.com/janpfeifer/chessArena/internal/board/boardtest"
	"github.com/janpfeifer/chessArena/internal/board/chessboard"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lastMoveEvaluator scores positions, for the side to move, as -0.1*LastMove: so from the point of
// view of the side that just moved, higher move indices are better.
var lastMoveEvaluator = ai.Func(func(pos board.Position) float32 {
	return -0.1 * float32(pos.(*boardtest.Position).LastMove)
})

func TestGreedyPerspective(t *testing.T) {
	pos := boardtest.Endless().InitialPosition()
	move, next, score, scores, err := NewGreedy(lastMoveEvaluator).Search(pos)
	require.NoError(t, err)
	assert.Equal(t, boardtest.Move(2), move)
	assert.Equal(t, 2, next.(*boardtest.Position).LastMove)
	assert.InDelta(t, 0.2, score, 1e-6)
	assert.InDeltaSlice(t, []float32{0, 0.1, 0.2}, scores, 1e-6)

	// Same for black, on the next ply.
	move, _, _, _, err = NewGreedy(lastMoveEvaluator).Search(next)
	require.NoError(t, err)
	assert.Equal(t, boardtest.Move(2), move)

	// Receiver not modified.
	assert.Equal(t, 0, pos.Ply())
}

func TestGreedyTiesAndTerminal(t *testing.T) {
	move, _, score, _, err := NewGreedy(ai.Constant(0.3)).Search(boardtest.Endless().InitialPosition())
	require.NoError(t, err)
	assert.Equal(t, boardtest.Move(0), move, "ties must keep the first move")
	assert.InDelta(t, -0.3, score, 1e-6)

	// Every move ends the game with a win for white: the evaluator is not consulted.
	e := ai.Func(func(board.Position) float32 { panic("should not be called") })
	_, next, score, scores, err := NewGreedy(e).Search(boardtest.Countdown(1, board.WhiteWin).InitialPosition())
	require.NoError(t, err)
	assert.True(t, next.IsTerminal())
	assert.Equal(t, ai.WinGameScore, score)
	assert.Equal(t, []float32{1, 1, 1}, scores)

	// Black loses whatever it plays.
	pos, err := boardtest.Countdown(2, board.WhiteWin).InitialPosition().Apply(boardtest.Move(0))
	require.NoError(t, err)
	_, _, score, _, err = NewGreedy(e).Search(pos)
	require.NoError(t, err)
	assert.Equal(t, -ai.WinGameScore, score)
}

func TestGreedyErrors(t *testing.T) {
	// Terminal position.
	pos, err := boardtest.Countdown(1, board.Draw).InitialPosition().Apply(boardtest.Move(0))
	require.NoError(t, err)
	_, _, _, _, err = NewGreedy(ai.Constant(0)).Search(pos)
	assert.ErrorIs(t, err, ErrNoMoves)

	// Invalid scores.
	nan := ai.Func(func(board.Position) float32 { return float32(math.NaN()) })
	_, _, _, _, err = NewGreedy(nan).Search(boardtest.Endless().InitialPosition())
	assert.True(t, errors.Is(err, ErrSelectionFailure))

	// Panicking evaluator: material only evaluates chess positions.
	_, _, _, _, err = NewGreedy(material.New(0, 0)).Search(boardtest.Endless().InitialPosition())
	assert.True(t, errors.Is(err, ErrSelectionFailure))

	// Evaluator panicking with a non-error value.
	boom := ai.Func(func(board.Position) float32 { panic("boom") })
	require.NotPanics(t, func() {
		_, _, _, _, err = NewGreedy(boom).Search(boardtest.Endless().InitialPosition())
	})
	assert.True(t, errors.Is(err, ErrSelectionFailure))
	assert.Contains(t, err.Error(), "boom")
}

func TestGreedyChessCaptures(t *testing.T) {
	evaluator := material.New(0, 0)
	for _, tc := range []struct {
		fen, want string
	}{
		{"4k3/8/8/3q4/8/8/8/3RK3 w - - 0 1", "Rxd5"},
		{"3rk3/8/8/8/3Q4/8/8/4K3 b - - 0 1", "Rxd4"},
	} {
		engine, err := chessboard.NewFromFEN(tc.fen)
		require.NoError(t, err)
		pos := engine.InitialPosition()
		move, _, score, _, err := NewGreedy(evaluator).Search(pos)
		require.NoError(t, err)
		assert.Equal(t, tc.want, pos.Notate(move), "position %s", tc.fen)
		assert.Greater(t, score, float32(0))
		assert.Equal(t, tc.fen, pos.String())
	}
}

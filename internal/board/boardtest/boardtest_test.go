package boardtest

import (
	"testing"

	"github.com/janpfeifer/chessArena/internal/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdown(t *testing.T) {
	pos := Countdown(3, board.BlackWin).InitialPosition()
	for ply := range 3 {
		require.False(t, pos.IsTerminal())
		assert.Equal(t, ply, pos.Ply())
		assert.Equal(t, board.Side(ply%2), pos.Turn())
		moves := pos.LegalMoves()
		require.Len(t, moves, 3)
		next, err := pos.Apply(moves[2])
		require.NoError(t, err)
		assert.Equal(t, ply, pos.Ply(), "Apply must not modify the receiver")
		pos = next
	}
	assert.True(t, pos.IsTerminal())
	assert.Empty(t, pos.LegalMoves())
	assert.Equal(t, board.BlackWin, pos.Result())
	_, err := pos.Apply(Move(0))
	assert.Error(t, err)
}

func TestInvalidMoveAndPanic(t *testing.T) {
	engine := &Engine{NumMoves: 2, PanicAtPly: 2}
	pos := engine.InitialPosition()
	_, err := pos.Apply(Move(2))
	assert.Error(t, err)
	pos, err = pos.Apply(Move(1))
	require.NoError(t, err)
	assert.Equal(t, 1, pos.(*Position).LastMove)
	assert.Panics(t, func() { _, _ = pos.Apply(Move(0)) })
}

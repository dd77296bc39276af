package fnn

import (
	"math"
	"testing"

	"github.com/janpfeifer/chessArena/internal/ai"
	"github.com/janpfeifer/chessArena/internal/board/boardtest"
	"github.com/janpfeifer/chessArena/internal/board/chessboard"
	"github.com/janpfeifer/chessArena/internal/parameters"
	"github.com/janpfeifer/chessArena/internal/searchers"
	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func position(t *testing.T, fen string) *chessboard.Position {
	engine, err := chessboard.NewFromFEN(fen)
	require.NoError(t, err)
	return engine.InitialPosition().(*chessboard.Position)
}

func newEvaluator(t *testing.T, config string, seed uint64) *Evaluator {
	e, err := New(parameters.NewFromConfigString(config), seed)
	require.NoError(t, err)
	return e
}

func TestEncode(t *testing.T) {
	white := make([]float32, InputDim)
	Encode(position(t, chessboard.StartFEN).Chess(), white)
	var count int
	for _, v := range white[:NumPlanes*64] {
		if v != 0 {
			assert.Equal(t, float32(1), v)
			count++
		}
	}
	assert.Equal(t, 32, count)
	assert.Equal(t, float32(1), white[0*64+4], "own king on e1")
	assert.Equal(t, float32(1), white[(NumPieceTypes+0)*64+60], "opponent king on e8")

	// The starting position is symmetric, so it is encoded the same for both sides.
	black := make([]float32, InputDim)
	Encode(position(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1").Chess(), black)
	assert.Equal(t, white, black)
}

func TestEvaluate(t *testing.T) {
	e := newEvaluator(t, "hidden=16,layers=2", 7)
	assert.Equal(t, "fnn(hidden=16, layers=2, seed=7)", e.String())
	for _, fen := range []string{
		chessboard.StartFEN,
		"4k3/8/8/8/8/8/8/3QK3 w - - 0 1",
		"4k3/8/8/8/8/8/8/3QK3 b - - 0 1",
	} {
		score := e.Evaluate(position(t, fen))
		assert.False(t, math.IsNaN(float64(score)), "score for %q is NaN", fen)
		assert.Less(t, score, float32(1))
		assert.Greater(t, score, float32(-1))
	}

	// End of game positions are not evaluated by the network.
	mated := position(t, "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	_, want := ai.EndGameScore(mated)
	assert.Equal(t, want, e.Evaluate(mated))

	// Batch evaluation matches one-by-one evaluation.
	positions := []*chessboard.Position{
		position(t, chessboard.StartFEN),
		position(t, "4k3/8/8/8/8/8/8/3QK3 w - - 0 1"),
	}
	scores := e.BatchEvaluate([]*chess.Position{positions[0].Chess(), positions[1].Chess()})
	require.Len(t, scores, 2)
	for ii, pos := range positions {
		assert.InDelta(t, e.Evaluate(pos), scores[ii], 1e-5)
	}
	assert.Nil(t, e.BatchEvaluate(nil))
}

func TestSeeds(t *testing.T) {
	pos := position(t, "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3")
	a := newEvaluator(t, "hidden=8", 3).Evaluate(pos)
	b := newEvaluator(t, "hidden=8", 3).Evaluate(pos)
	c := newEvaluator(t, "hidden=8", 4).Evaluate(pos)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	// A fixed seed overrides the seed of the agent.
	a = newEvaluator(t, "hidden=8,seed=11", 1).Evaluate(pos)
	b = newEvaluator(t, "hidden=8,seed=11", 2).Evaluate(pos)
	assert.Equal(t, a, b)
}

func TestRegistered(t *testing.T) {
	e, err := ai.NewFromConfig("fnn,hidden=8,layers=0", 5)
	require.NoError(t, err)
	assert.Equal(t, "fnn(hidden=8, layers=0, seed=5)", e.String())

	_, err = ai.NewFromConfig("fnn,hidden=0", 0)
	assert.Error(t, err)
	_, err = ai.NewFromConfig("fnn,layers=-1", 0)
	assert.Error(t, err)
	_, err = ai.NewFromConfig("fnn,hidden=many", 0)
	assert.Error(t, err)
	_, err = ai.NewFromConfig("fnn,dropout=0.1", 0)
	assert.Error(t, err)
}

func TestGreedySearch(t *testing.T) {
	e := newEvaluator(t, "hidden=8", 1)
	start := position(t, chessboard.StartFEN)
	move, next, _, movesScores, err := searchers.NewGreedy(e).Search(start)
	require.NoError(t, err)
	var legal []string
	for _, m := range start.LegalMoves() {
		legal = append(legal, m.String())
	}
	assert.Contains(t, legal, move.String())
	assert.Len(t, movesScores, len(start.LegalMoves()))
	assert.NotNil(t, next)
}

func TestNonChessPositionPanics(t *testing.T) {
	e := newEvaluator(t, "hidden=4", 0)
	assert.Panics(t, func() { e.Evaluate(boardtest.Endless().InitialPosition()) })
}

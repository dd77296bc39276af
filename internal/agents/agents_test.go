package agents

import (
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/janpfeifer/chessArena/internal/board"
	"github.com/janpfeifer/chessArena/internal/board/boardtest"
	"github.com/janpfeifer/chessArena/internal/players"
	"github.com/janpfeifer/chessArena/internal/rating"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantFactory(t *testing.T) Factory {
	t.Helper()
	return PlayerFactory("constant", 0)
}

func TestSettle(t *testing.T) {
	pop, err := NewPopulation(2, constantFactory(t))
	require.NoError(t, err)
	white, black := pop.All()[0], pop.All()[1]

	whiteRating, blackRating := Settle(white, black, board.WhiteWin)
	assert.InDelta(t, 1216.0, whiteRating, 1e-9)
	assert.InDelta(t, 1184.0, blackRating, 1e-9)
	assert.Equal(t, rating.Stats{ID: 0, Rating: 1216, GamesPlayed: 1, Wins: 1}, white.Snapshot())
	assert.Equal(t, rating.Stats{ID: 1, Rating: 1184, GamesPlayed: 1, Losses: 1}, black.Snapshot())

	// Black (id 1) playing white this time: lock ordering must not matter.
	Settle(black, white, board.Undecided)
	assert.Equal(t, 1, black.Snapshot().Draws)
	assert.Equal(t, 1, white.Snapshot().Draws)
	assert.InDelta(t, 2400.0, white.Rating()+black.Rating(), 1e-9, "Elo updates are zero-sum")
}

func TestSettleSelfPlay(t *testing.T) {
	pop, err := NewPopulation(1, constantFactory(t))
	require.NoError(t, err)
	a, b := pop.PickTwoDistinct(rand.New(rand.NewPCG(1, 2)))
	require.Same(t, a, b)
	whiteRating, blackRating := Settle(a, b, board.BlackWin)
	assert.Equal(t, rating.InitialRating, whiteRating)
	assert.Equal(t, rating.InitialRating, blackRating)
	stats := a.Snapshot()
	assert.Equal(t, 2, stats.GamesPlayed)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.True(t, stats.Consistent())
}

func TestSettleConcurrent(t *testing.T) {
	pop, err := NewPopulation(3, constantFactory(t))
	require.NoError(t, err)
	all := pop.All()
	var wg sync.WaitGroup
	for ii := range 300 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Settle(all[ii%3], all[(ii+1)%3], board.Result(ii%4))
		}()
	}
	wg.Wait()
	var sum float64
	for _, stats := range pop.Snapshot() {
		assert.Equal(t, 200, stats.GamesPlayed)
		assert.True(t, stats.Consistent())
		sum += stats.Rating
	}
	assert.InDelta(t, 3*rating.InitialRating, sum, 1e-6)
}

func TestPickTwoDistinct(t *testing.T) {
	pop, err := NewPopulation(DefaultSize, constantFactory(t))
	require.NoError(t, err)
	rng := rand.New(rand.NewPCG(42, 0))
	seen := make(map[[2]int]bool)
	for range 1000 {
		a, b := pop.PickTwoDistinct(rng)
		require.NotEqual(t, a.ID(), b.ID())
		seen[[2]int{a.ID(), b.ID()}] = true
	}
	assert.Len(t, seen, DefaultSize*(DefaultSize-1), "every ordered pair should be picked")
}

func TestResetAndSnapshot(t *testing.T) {
	pop, err := NewPopulation(4, constantFactory(t))
	require.NoError(t, err)
	all := pop.All()
	Settle(all[0], all[3], board.Draw)
	Settle(all[1], all[2], board.WhiteWin)

	first, second := pop.Snapshot(), pop.Snapshot()
	assert.Equal(t, first, second, "snapshots without matches in between must be identical")

	require.NoError(t, pop.Reset(6))
	assert.Equal(t, 6, pop.Size())
	for ii, stats := range pop.Snapshot() {
		assert.Equal(t, rating.NewStats(ii), stats)
	}
	_, found := pop.Get(5)
	assert.True(t, found)
	_, found = pop.Get(6)
	assert.False(t, found)

	// Old agents are not touched by the reset, and invalid sizes leave the population unchanged.
	assert.Equal(t, 1, all[0].Snapshot().GamesPlayed)
	assert.Error(t, pop.Reset(0))
	assert.Equal(t, 6, pop.Size())
}

func TestPlayerFactory(t *testing.T) {
	_, err := NewPopulation(2, PlayerFactory("unknown_evaluator", 0))
	assert.Error(t, err)

	pop, err := NewPopulation(2, PlayerFactory("constant,value=0.5", 0))
	require.NoError(t, err)
	agent := pop.All()[1]
	assert.Equal(t, 1, agent.ID())
	assert.IsType(t, &players.SearcherScorer{}, agent.Player())
	move, next, score, err := agent.ChooseMove(boardtest.Endless().InitialPosition())
	require.NoError(t, err)
	assert.Equal(t, boardtest.Move(0), move)
	assert.Equal(t, 1, next.Ply())
	assert.InDelta(t, -0.5, score, 1e-6)
}

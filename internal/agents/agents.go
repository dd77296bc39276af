// Package agents holds the rated agents of the arena and their population.
//
// An Agent pairs a player (the move selection) with its rating and game statistics. Ratings and
// statistics are only changed by Settle, at the end of a match.
package agents

import (
	"fmt"
	"sync"

	"github.com/janpfeifer/chessArena/internal/board"
	"github.com/janpfeifer/chessArena/internal/players"
	"github.com/janpfeifer/chessArena/internal/rating"
)

// Agent is a rated player. It is safe for concurrent use.
type Agent struct {
	id     int
	player players.Player

	// muPlay serializes the use of the player, whose evaluator and searcher are not
	// safe for concurrent use.
	muPlay sync.Mutex

	mu    sync.Mutex
	stats rating.Stats
}

// New creates an agent with the initial rating and no games played.
func New(id int, player players.Player) *Agent {
	return &Agent{id: id, player: player, stats: rating.NewStats(id)}
}

// ID of the agent, unique within its population.
func (a *Agent) ID() int {
	return a.id
}

// Player used by the agent to choose its moves.
func (a *Agent) Player() players.Player {
	return a.player
}

// ChooseMove returns the move the agent plays in pos, the resulting position and its score from the
// point of view of the agent. It returns searchers.ErrNoMoves if the game is over.
func (a *Agent) ChooseMove(pos board.Position) (move board.Move, next board.Position, score float32, err error) {
	a.muPlay.Lock()
	defer a.muPlay.Unlock()
	return a.player.Play(pos)
}

// Rating returns the current rating of the agent.
func (a *Agent) Rating() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats.Rating
}

// ApplyResult updates the rating of the agent against an opponent with the given rating, and records
// the outcome. Use Settle to update both participants of a match.
func (a *Agent) ApplyResult(opponentRating float64, score rating.Score) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.applyLocked(opponentRating, score)
}

func (a *Agent) applyLocked(opponentRating float64, score rating.Score) {
	a.stats.Rating = rating.Update(a.stats.Rating, opponentRating, score)
	a.stats.RecordOutcome(score)
}

// Snapshot returns a copy of the agent statistics.
func (a *Agent) Snapshot() rating.Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// String implements fmt.Stringer.
func (a *Agent) String() string {
	return fmt.Sprintf("Agent #%d (%s)", a.id, a.player)
}

// Settle applies the result of a match to both participants in one atomic step: both new ratings
// are computed from the ratings before the match, and the outcomes are recorded.
//
// Undecided results are scored as draws. If white and black are the same agent (self-play), both
// outcomes are recorded on it and its rating is unchanged. It returns the updated ratings.
func Settle(white, black *Agent, result board.Result) (whiteRating, blackRating float64) {
	whiteScore := result.ScoreFor(board.White)
	if white == black {
		white.mu.Lock()
		defer white.mu.Unlock()
		// Both updates are computed from the same rating and cancel out.
		white.stats.RecordOutcome(whiteScore)
		white.stats.RecordOutcome(whiteScore.Opponent())
		return white.stats.Rating, white.stats.Rating
	}

	// Lock in id order, so concurrent matches between the same agents can't deadlock.
	first, second := white, black
	if second.id < first.id {
		first, second = second, first
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	whiteBefore, blackBefore := white.stats.Rating, black.stats.Rating
	white.applyLocked(blackBefore, whiteScore)
	black.applyLocked(whiteBefore, whiteScore.Opponent())
	return white.stats.Rating, black.stats.Rating
}

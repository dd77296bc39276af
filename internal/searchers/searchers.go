// Package searchers implements the move selection of the agents: given a position, they use an
// evaluator to pick the move to play.
package searchers

import (
	"github.com/janpfeifer/chessArena/internal/board"
	"github.com/pkg/errors"
)

var (
	// ErrNoMoves is returned by Search when the position has no legal moves (the game is over).
	ErrNoMoves = errors.New("no legal moves available")

	// ErrSelectionFailure is returned by Search when legal moves exist but none could be selected,
	// e.g. because the evaluator panicked or returned an invalid score.
	ErrSelectionFailure = errors.New("move selection failed")
)

// Searcher is the interface that any of the search algorithms must adhere to be valid.
type Searcher interface {
	// Search returns the move to play on the given position, the position after the move is played
	// and the score of the move from the point of view of the side playing it.
	//
	// Optionally, it can also return the score for each of the legal moves, in the order of
	// pos.LegalMoves(). The given position is never modified.
	Search(pos board.Position) (move board.Move, next board.Position, score float32, movesScores []float32, err error)
}

// Package boardtest provides small deterministic engines to test code that plays games,
// without depending on the rules of a real game.
package boardtest

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/chessArena/internal/board"
	"github.com/pkg/errors"
)

// Move of a test engine: simply the index of the move in the list of legal moves.
type Move int

// String implements board.Move.
func (m Move) String() string {
	return fmt.Sprintf("m%d", int(m))
}

// Engine is a configurable test engine: every position has NumMoves legal moves, sides
// alternate, and the game ends after EndAfter plies with the given Result.
type Engine struct {
	// NumMoves available in every non-terminal position. Defaults to 3 if 0.
	NumMoves int

	// EndAfter is the number of plies after which the game is over. If 0 the game never ends.
	EndAfter int

	// Result of the game once it is over.
	Result board.Result

	// PanicAtPly, if > 0, makes Apply panic when producing that ply: it emulates a faulty engine.
	PanicAtPly int
}

// Assert Engine is a board.Engine.
var _ board.Engine = (*Engine)(nil)

// Countdown returns an engine whose games end with result after plies plies.
func Countdown(plies int, result board.Result) *Engine {
	return &Engine{NumMoves: 3, EndAfter: plies, Result: result}
}

// Endless returns an engine whose games never end.
func Endless() *Engine {
	return &Engine{NumMoves: 3}
}

// InitialPosition implements board.Engine.
func (e *Engine) InitialPosition() board.Position {
	return &Position{engine: e, LastMove: -1}
}

// String implements board.Engine.
func (e *Engine) String() string {
	return fmt.Sprintf("boardtest(moves=%d, end=%d, result=%s)", e.numMoves(), e.EndAfter, e.Result)
}

func (e *Engine) numMoves() int {
	if e.NumMoves <= 0 {
		return 3
	}
	return e.NumMoves
}

// Position of a test game.
type Position struct {
	engine *Engine

	plies int

	// LastMove played to reach this position, -1 for the initial position.
	LastMove int
}

// Assert Position is a board.Position.
var _ board.Position = (*Position)(nil)

// Ply implements board.Position.
func (p *Position) Ply() int {
	return p.plies
}

// Turn implements board.Position.
func (p *Position) Turn() board.Side {
	return board.Side(p.plies % 2)
}

// LegalMoves implements board.Position.
func (p *Position) LegalMoves() []board.Move {
	if p.IsTerminal() {
		return nil
	}
	moves := make([]board.Move, p.engine.numMoves())
	for ii := range moves {
		moves[ii] = Move(ii)
	}
	return moves
}

// Apply implements board.Position.
func (p *Position) Apply(move board.Move) (board.Position, error) {
	m, ok := move.(Move)
	if !ok || int(m) < 0 || int(m) >= p.engine.numMoves() {
		return nil, errors.Errorf("boardtest: invalid move %v", move)
	}
	if p.IsTerminal() {
		return nil, errors.Errorf("boardtest: game over, cannot play %s", m)
	}
	if p.engine.PanicAtPly > 0 && p.plies+1 == p.engine.PanicAtPly {
		exceptions.Panicf("boardtest: engine failure at ply %d", p.plies+1)
	}
	return &Position{engine: p.engine, plies: p.plies + 1, LastMove: int(m)}, nil
}

// IsTerminal implements board.Position.
func (p *Position) IsTerminal() bool {
	return p.engine.EndAfter > 0 && p.plies >= p.engine.EndAfter
}

// Result implements board.Position.
func (p *Position) Result() board.Result {
	if !p.IsTerminal() {
		return board.Undecided
	}
	return p.engine.Result
}

// Notate implements board.Position.
func (p *Position) Notate(move board.Move) string {
	return move.String()
}

// String implements board.Position.
func (p *Position) String() string {
	return fmt.Sprintf("ply %d, %s to move", p.plies, p.Turn())
}

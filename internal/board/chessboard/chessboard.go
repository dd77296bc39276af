// Package chessboard implements board.Engine for chess, on top of github.com/notnil/chess.
//
// Draws that the rules only allow a player to claim (threefold repetition and the fifty-move rule)
// are claimed automatically, so that matches between agents that shuffle pieces end.
package chessboard

import (
	"github.com/janpfeifer/chessArena/internal/board"
	"github.com/notnil/chess"
	"github.com/pkg/errors"
)

// StartFEN is the standard chess starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Engine creates chess games, optionally starting from a custom position.
type Engine struct {
	fen    string
	option func(*chess.Game)
}

// Assert Engine is a board.Engine.
var _ board.Engine = (*Engine)(nil)

// New returns an Engine for standard chess games.
func New() *Engine {
	return &Engine{fen: StartFEN}
}

// NewFromFEN returns an Engine whose games start from the given position.
// An empty fen is the standard starting position.
func NewFromFEN(fen string) (*Engine, error) {
	if fen == "" || fen == StartFEN {
		return New(), nil
	}
	option, err := chess.FEN(fen)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid starting position %q", fen)
	}
	return &Engine{fen: fen, option: option}, nil
}

// InitialPosition implements board.Engine.
func (e *Engine) InitialPosition() board.Position {
	var game *chess.Game
	if e.option != nil {
		game = chess.NewGame(e.option)
	} else {
		game = chess.NewGame()
	}
	return &Position{game: game}
}

// String implements board.Engine.
func (e *Engine) String() string {
	if e.option == nil {
		return "chess"
	}
	return "chess(" + e.fen + ")"
}

// Position is a chess game state, including the history needed to detect repetitions.
// It implements board.Position.
type Position struct {
	game *chess.Game
}

// Assert Position is a board.Position.
var _ board.Position = (*Position)(nil)

// Chess returns the underlying chess position, used by chess specific evaluators.
func (p *Position) Chess() *chess.Position {
	return p.game.Position()
}

// Turn implements board.Position.
func (p *Position) Turn() board.Side {
	if p.game.Position().Turn() == chess.Black {
		return board.Black
	}
	return board.White
}

// Ply implements board.Position.
func (p *Position) Ply() int {
	return len(p.game.Moves())
}

// LegalMoves implements board.Position.
func (p *Position) LegalMoves() []board.Move {
	if p.IsTerminal() {
		return nil
	}
	valid := p.game.ValidMoves()
	moves := make([]board.Move, len(valid))
	for ii, m := range valid {
		moves[ii] = m
	}
	return moves
}

// Apply implements board.Position: the game is cloned before the move is played.
func (p *Position) Apply(move board.Move) (board.Position, error) {
	m, ok := move.(*chess.Move)
	if !ok {
		return nil, errors.Errorf("chessboard: move %s (%T) is not a chess move", move, move)
	}
	if p.IsTerminal() {
		return nil, errors.Errorf("chessboard: game is over (%s), cannot play %s", p.game.Method(), m)
	}
	game := p.game.Clone()
	if err := game.Move(m); err != nil {
		return nil, errors.Wrapf(err, "chessboard: illegal move %s in %s", m, p)
	}
	claimDraws(game)
	return &Position{game: game}, nil
}

// claimDraws ends the game if a draw can be claimed.
func claimDraws(game *chess.Game) {
	if game.Outcome() != chess.NoOutcome {
		return
	}
	for _, method := range game.EligibleDraws() {
		if method == chess.ThreefoldRepetition || method == chess.FiftyMoveRule {
			if err := game.Draw(method); err == nil {
				return
			}
		}
	}
}

// IsTerminal implements board.Position.
func (p *Position) IsTerminal() bool {
	return p.game.Outcome() != chess.NoOutcome
}

// Result implements board.Position.
func (p *Position) Result() board.Result {
	switch p.game.Outcome() {
	case chess.WhiteWon:
		return board.WhiteWin
	case chess.BlackWon:
		return board.BlackWin
	case chess.Draw:
		return board.Draw
	default:
		return board.Undecided
	}
}

// Termination returns how the game ended (e.g. "Checkmate", "ThreefoldRepetition"), or "NoMethod".
func (p *Position) Termination() string {
	return p.game.Method().String()
}

// Notate implements board.Position, using Standard Algebraic Notation (SAN).
func (p *Position) Notate(move board.Move) string {
	m, ok := move.(*chess.Move)
	if !ok {
		return move.String()
	}
	return chess.AlgebraicNotation{}.Encode(p.game.Position(), m)
}

// String implements board.Position, it returns the FEN of the position.
func (p *Position) String() string {
	return p.game.FEN()
}

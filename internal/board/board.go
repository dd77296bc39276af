// Package board defines what the arena needs from a rules engine: positions that enumerate their
// legal moves, apply them without mutation, detect the end of the game and render themselves.
//
// The arena itself is game agnostic: see chessboard for the chess implementation and boardtest
// for small deterministic engines used in tests.
package board

import (
	"github.com/janpfeifer/chessArena/internal/rating"
	"github.com/pkg/errors"
)

// Side is either White (moves first) or Black.
type Side uint8

const (
	White Side = iota
	Black
)

// Other returns the opponent side.
func (s Side) Other() Side {
	return 1 - s
}

// String returns "white" or "black", the turn indicator used in events.
func (s Side) String() string {
	if s == White {
		return "white"
	}
	return "black"
}

// Result of a game.
type Result int8

const (
	// Undecided is the result of a position that is not terminal: e.g. a match stopped at the ply cap.
	Undecided Result = iota
	WhiteWin
	BlackWin
	Draw
)

var (
	resultNames = [...]string{"Undecided", "WhiteWin", "BlackWin", "Draw"}
	resultCodes = [...]string{"*", "1-0", "0-1", "1/2-1/2"}
)

// String returns the Go-ish name of the result.
func (r Result) String() string {
	if r < 0 || int(r) >= len(resultNames) {
		return "Invalid"
	}
	return resultNames[r]
}

// Code returns the PGN result code: "1-0", "0-1", "1/2-1/2" or "*".
func (r Result) Code() string {
	if r < 0 || int(r) >= len(resultCodes) {
		return "*"
	}
	return resultCodes[r]
}

// ResultFromCode parses a result code, as returned by Result.Code.
func ResultFromCode(code string) (Result, error) {
	for ii, c := range resultCodes {
		if c == code {
			return Result(ii), nil
		}
	}
	return Undecided, errors.Errorf("invalid result code %q", code)
}

// Winner returns the label shown to observers: "White", "Black" or "draw".
// Undecided games are labelled "draw", their Code is still "*".
func (r Result) Winner() string {
	switch r {
	case WhiteWin:
		return "White"
	case BlackWin:
		return "Black"
	default:
		return "draw"
	}
}

// ScoreFor returns the match score of side: undecided games score as draws.
func (r Result) ScoreFor(side Side) rating.Score {
	switch {
	case r == WhiteWin && side == White, r == BlackWin && side == Black:
		return rating.Win
	case r == WhiteWin, r == BlackWin:
		return rating.Loss
	default:
		return rating.Draw
	}
}

// Move is an opaque move of the engine that produced it. Its String() is a
// machine-readable (e.g. UCI) representation, see Position.Notate for the human one.
type Move interface {
	String() string
}

// Position is an immutable game state.
type Position interface {
	// Turn returns the side to move.
	Turn() Side

	// Ply is the number of half-moves played since the initial position of the game.
	Ply() int

	// LegalMoves in a stable enumeration order. Empty for terminal positions.
	LegalMoves() []Move

	// Apply returns the position after move. The receiver is never modified.
	Apply(move Move) (Position, error)

	// IsTerminal returns whether the game is over.
	IsTerminal() bool

	// Result of the game, Undecided if the position is not terminal.
	Result() Result

	// Notate renders move, legal in this position, in the standard notation of the game (e.g. SAN).
	Notate(move Move) string

	// String returns the position in the standard textual form of the game (e.g. FEN).
	String() string
}

// Engine creates the starting position of a game.
type Engine interface {
	InitialPosition() Position
	String() string
}

// Package ai (Artificial Intelligence) defines the Evaluator interface that scores positions for the
// agents, and a registry of evaluator modules that can be created from configuration strings.
package ai

import (
	"github.com/chewxy/math32"
	"github.com/janpfeifer/chessArena/internal/board"
)

// WinGameScore for the winning side. For the loosing side it is -WinGameScore.
// We make these +1 and -1, so it's easy to put a tanh(x) on the output of the model to get a
// value from +1 to -1.
const WinGameScore = float32(1)

// SquashScore converts any score to a value between +WinGameScore and -WinGameScore
// by using then tanh(x) function -- a type of S curve.
func SquashScore(x float32) float32 {
	return math32.Tanh(x) * WinGameScore
}

// Evaluator returns a score (value) for a given position.
//
// The score represents how good the position is for the side to move: +1 represents a sure win,
// -1 a sure loss, and 0 a draw. Implementations must be safe to call from one goroutine at a
// time, and must not modify the position.
type Evaluator interface {
	Evaluate(pos board.Position) float32
	String() string
}

// EndGameScore returns whether the game is over, and if so the score of the final position for the
// side to move.
func EndGameScore(pos board.Position) (isEnd bool, score float32) {
	if !pos.IsTerminal() {
		return false, 0
	}
	switch pos.Result().ScoreFor(pos.Turn()) {
	case 1:
		return true, WinGameScore
	case 0:
		return true, -WinGameScore
	default:
		return true, 0
	}
}

// Constant evaluator always returns the same score. Mostly useful for tests and for very fast
// (and very dull) matches.
type Constant float32

// Evaluate implements Evaluator.
func (c Constant) Evaluate(board.Position) float32 {
	return float32(c)
}

// String implements Evaluator.
func (c Constant) String() string {
	return "constant"
}

// Func adapts a function to an Evaluator.
type Func func(pos board.Position) float32

// Evaluate implements Evaluator.
func (f Func) Evaluate(pos board.Position) float32 {
	return f(pos)
}

// String implements Evaluator.
func (f Func) String() string {
	return "func"
}

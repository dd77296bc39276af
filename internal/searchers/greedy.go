package searchers

import (
	"github.com/chewxy/math32"
	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/chessArena/internal/ai"
	"github.com/janpfeifer/chessArena/internal/board"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Greedy is a one-ply lookahead searcher: it evaluates the position after each legal move and picks
// the best one, without considering the opponent replies.
//
// Scores are normalized to the point of view of the side choosing the move: the evaluator scores a
// position for its side to move, so its output is negated when the turn passed to the opponent.
// Terminal positions are scored from the game result instead (+1 win, -1 loss, 0 otherwise). Ties
// are broken in favor of the first move enumerated.
type Greedy struct {
	Evaluator ai.Evaluator
}

// Assert Greedy is a Searcher.
var _ Searcher = (*Greedy)(nil)

// NewGreedy returns a Greedy searcher using the given evaluator.
func NewGreedy(evaluator ai.Evaluator) *Greedy {
	return &Greedy{Evaluator: evaluator}
}

// Search implements Searcher.
func (g *Greedy) Search(pos board.Position) (move board.Move, next board.Position, score float32, movesScores []float32, err error) {
	moves := pos.LegalMoves()
	if len(moves) == 0 {
		err = ErrNoMoves
		return
	}
	mover := pos.Turn()
	movesScores = make([]float32, len(moves))
	bestIdx := -1
	var bestNext board.Position
	// Evaluators may panic with any value, not only errors.
	exception := exceptions.TryCatch[any](func() {
		for ii, m := range moves {
			var candidate board.Position
			candidate, err = pos.Apply(m)
			if err != nil {
				err = errors.WithMessagef(err, "applying move %s", m)
				return
			}
			s := g.moveScore(mover, candidate)
			if math32.IsNaN(s) || math32.IsInf(s, 0) {
				err = errors.Wrapf(ErrSelectionFailure, "evaluator %s returned %g for move %s", g.Evaluator, s, pos.Notate(m))
				return
			}
			movesScores[ii] = s
			if bestIdx == -1 || s > movesScores[bestIdx] {
				bestIdx = ii
				bestNext = candidate
			}
		}
	})
	if exception != nil {
		err = errors.Wrapf(ErrSelectionFailure, "evaluator %s failed: %v", g.Evaluator, exception)
	}
	if err != nil {
		return nil, nil, 0, nil, err
	}
	move, next, score = moves[bestIdx], bestNext, movesScores[bestIdx]
	if klog.V(3).Enabled() {
		klog.Infof("Greedy(%s): %s -> %s, score=%.3f", g.Evaluator, pos, pos.Notate(move), score)
	}
	return
}

// moveScore returns the score of next from the point of view of mover.
func (g *Greedy) moveScore(mover board.Side, next board.Position) float32 {
	if next.IsTerminal() {
		switch next.Result().ScoreFor(mover) {
		case 1:
			return ai.WinGameScore
		case 0:
			return -ai.WinGameScore
		default:
			return 0
		}
	}
	s := g.Evaluator.Evaluate(next)
	if next.Turn() != mover {
		s = -s
	}
	return s
}

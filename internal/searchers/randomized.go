package searchers

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/chessArena/internal/board"
	"k8s.io/klog/v2"
)

// NewRandomized adds randomness to the move taken by an existing Searcher.
// Args:
//
//   - searcher: Baseline Searcher. It must return the scores of every legal move.
//   - randomness (>=0): Amount of randomness to use: it is applied as a divisor to the scores
//     returned by the Searcher, except if there is a winning move.
//     The larger the value the more it leads to randomness (exploration), and lower values
//     lead to "pick the best scoring move" (exploitation), with zero meaning no randomness.
//   - maxPly: starting at this ply no more randomness is used. This allows
//     randomness to be used only earlier in the match.
//   - seed: seed of the random number generator, so games are reproducible.
//
// The returned Searcher must not be used concurrently.
func NewRandomized(searcher Searcher, randomness float64, maxPly int, seed uint64) Searcher {
	if randomness <= 0 {
		// Without randomness, simply return the original Searcher.
		return searcher
	}
	return &randomized{
		searcher:   searcher,
		randomness: randomness,
		maxPly:     maxPly,
		rng:        rand.New(rand.NewPCG(seed, 0xC0FFEE)),
	}
}

// randomized is a meta Searcher, that introduces randomness to its base searcher.
type randomized struct {
	searcher   Searcher
	randomness float64
	maxPly     int
	rng        *rand.Rand
}

// Assert randomized is a Searcher.
var _ Searcher = (*randomized)(nil)

// Search implements the Searcher interface.
func (rs *randomized) Search(pos board.Position) (move board.Move, next board.Position, score float32, movesScores []float32, err error) {
	move, next, score, movesScores, err = rs.searcher.Search(pos)

	// If we reached the max ply for randomness, or if the searcher doesn't return scores for the
	// different moves, or if there is only one move possible, or if it is an end-game move,
	// we don't add any randomness.
	if err != nil || pos.Ply() >= rs.maxPly || next.IsTerminal() || len(movesScores) <= 1 {
		return
	}
	moves := pos.LegalMoves()
	if len(movesScores) != len(moves) {
		exceptions.Panicf("randomized searcher: Searcher returned %d movesScores, but position has %d moves!?", len(movesScores), len(moves))
	}

	logits := make([]float64, len(movesScores))
	for ii, s := range movesScores {
		logits[ii] = float64(s) / rs.randomness
	}
	probabilities := softmax(logits)

	chance := rs.rng.Float64()
	for moveIdx, value := range probabilities {
		if chance > value && moveIdx < len(probabilities)-1 {
			chance -= value
			continue
		}
		if klog.V(3).Enabled() {
			klog.Infof("randomized selection: move=%s, score=%.3f", pos.Notate(moves[moveIdx]), movesScores[moveIdx])
		}
		if moves[moveIdx].String() == move.String() {
			// Same as the base searcher.
			return
		}
		move = moves[moveIdx]
		score = movesScores[moveIdx]
		next, err = pos.Apply(move)
		return
	}
	return
}

func softmax(values []float64) (probs []float64) {
	probs = make([]float64, len(values))
	var sum float64

	// Subtract maxValue from all values keep the probability the same, but makes for more numerically stable
	// values.
	maxValue := slices.Max(values)
	for ii, value := range values {
		probs[ii] = math.Exp(value - maxValue)
		sum += probs[ii]
	}
	for ii := range probs {
		probs[ii] /= sum
	}
	return
}

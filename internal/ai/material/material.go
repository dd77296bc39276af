// Package material implements a linear chess evaluator (one weight per feature + bias) over a small
// set of hand-crafted features: material balance per piece type, mobility and castling rights.
//
// Each agent of a population gets its own instance, with the default weights perturbed by a seeded
// noise, so that agents play differently from each other.
package material

import (
	"fmt"
	"math/rand/v2"

	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/chessArena/internal/ai"
	"github.com/janpfeifer/chessArena/internal/board"
	"github.com/janpfeifer/chessArena/internal/parameters"
	"github.com/notnil/chess"
	"github.com/pkg/errors"
)

// Feature indices.
const (
	FeaturePawns = iota
	FeatureKnights
	FeatureBishops
	FeatureRooks
	FeatureQueens
	FeatureMobility
	FeatureCastling

	// NumFeatures doesn't include the bias.
	NumFeatures
)

// MobilityNorm is the number of legal moves that maps to a mobility feature of 1.
const MobilityNorm = 40

// DefaultWeights for each feature, plus the bias at the end.
var DefaultWeights = [NumFeatures + 1]float32{
	0.1, 0.3, 0.32, 0.5, 0.9, // Material: classical piece values / 10.
	0.2,  // Mobility.
	0.05, // Castling rights.
	0,    // Bias.
}

var pieceFeature = map[chess.PieceType]int{
	chess.Pawn:   FeaturePawns,
	chess.Knight: FeatureKnights,
	chess.Bishop: FeatureBishops,
	chess.Rook:   FeatureRooks,
	chess.Queen:  FeatureQueens,
}

// Evaluator is a linear model on the features of a chess position. It implements ai.Evaluator.
type Evaluator struct {
	weights [NumFeatures + 1]float32
	name    string
}

// Assert Evaluator is an ai.Evaluator.
var _ ai.Evaluator = (*Evaluator)(nil)

// New returns an Evaluator with DefaultWeights, each multiplied by (1 + noise * N(0, 1)) using a
// random generator seeded with seed. A noise of 0 returns the default model.
func New(noise float32, seed uint64) *Evaluator {
	e := &Evaluator{weights: DefaultWeights}
	if noise > 0 {
		rng := rand.New(rand.NewPCG(seed, 0x5eed))
		for ii := range e.weights {
			e.weights[ii] *= 1 + noise*float32(rng.NormFloat64())
		}
	}
	e.name = fmt.Sprintf("material(noise=%g, seed=%d)", noise, seed)
	return e
}

// NewWithWeights creates an Evaluator with the given weights, the last one being the bias.
func NewWithWeights(weights [NumFeatures + 1]float32) *Evaluator {
	return &Evaluator{weights: weights, name: "material(custom)"}
}

// Weights returns a copy of the model weights, the last one being the bias.
func (e *Evaluator) Weights() [NumFeatures + 1]float32 {
	return e.weights
}

// String implements ai.Evaluator.
func (e *Evaluator) String() string {
	return e.name
}

// chessPosition is implemented by chessboard.Position.
type chessPosition interface {
	Chess() *chess.Position
}

// Evaluate implements ai.Evaluator. It panics if pos is not a chess position.
func (e *Evaluator) Evaluate(pos board.Position) float32 {
	if isEnd, score := ai.EndGameScore(pos); isEnd {
		return score
	}
	cp, ok := pos.(chessPosition)
	if !ok {
		exceptions.Panicf("material evaluator requires a chess position, got %T", pos)
	}
	features := Features(cp.Chess())
	logit := e.weights[NumFeatures]
	for ii, f := range features {
		logit += f * e.weights[ii]
	}
	return ai.SquashScore(logit)
}

// Features returns the feature vector of pos, from the point of view of the side to move.
func Features(pos *chess.Position) (features [NumFeatures]float32) {
	us := pos.Turn()
	for _, piece := range pos.Board().SquareMap() {
		idx, found := pieceFeature[piece.Type()]
		if !found {
			continue
		}
		if piece.Color() == us {
			features[idx]++
		} else {
			features[idx]--
		}
	}
	features[FeatureMobility] = float32(len(pos.ValidMoves())) / MobilityNorm
	rights := pos.CastleRights()
	for _, side := range []chess.Side{chess.KingSide, chess.QueenSide} {
		if rights.CanCastle(us, side) {
			features[FeatureCastling]++
		}
		if rights.CanCastle(us.Other(), side) {
			features[FeatureCastling]--
		}
	}
	return
}

func init() {
	ai.Register("material", func(params parameters.Params, seed uint64) (ai.Evaluator, error) {
		noise, err := parameters.PopParamOr(params, "noise", float32(0.1))
		if err != nil {
			return nil, err
		}
		if noise < 0 {
			return nil, errors.Errorf("material evaluator noise=%g must be >= 0", noise)
		}
		// A fixed seed makes every agent share the same model.
		seed, err = parameters.PopParamOr(params, "seed", seed)
		if err != nil {
			return nil, err
		}
		return New(noise, seed), nil
	})
}

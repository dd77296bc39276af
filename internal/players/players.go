// Package players provides a factory of AI players from configuration strings.
//
// A player is a searcher (the move selection algorithm) plus an evaluator (the scorer of
// positions). The evaluators register themselves in package ai, see players/default.
package players

import (
	"github.com/janpfeifer/chessArena/internal/ai"
	"github.com/janpfeifer/chessArena/internal/board"
	"github.com/janpfeifer/chessArena/internal/parameters"
	"github.com/janpfeifer/chessArena/internal/searchers"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Player is anything that is able to play the game.
type Player interface {
	// Play returns the move chosen, the next position (after the move is played) and the score
	// of the move for the side playing it.
	Play(pos board.Position) (move board.Move, next board.Position, score float32, err error)

	// String describes the player configuration.
	String() string
}

var (
	// DefaultPlayerConfig is used if no configuration was given to the AI. The value may be changed by the
	// front-end.
	DefaultPlayerConfig = "material"
)

// SearcherScorer is a standard set up for an AI: a searcher and an evaluator.
// It implements the Player interface.
type SearcherScorer struct {
	Searcher  searchers.Searcher
	Evaluator ai.Evaluator

	config string
}

// Assert that SearcherScorer is a Player.
var _ Player = (*SearcherScorer)(nil)

// New creates a new AI player given the configuration string.
//
// Args:
//
//   - config: a comma-separated list of parameters with optional values associated. Exactly one
//     registered evaluator (e.g. "material", "fnn" or "constant") must be defined. If empty, the default
//     is given by DefaultPlayerConfig. E.g.: "material,noise=0.2,randomness=0.1"
//   - seed: used by evaluators with random initialization and by the randomized searcher. Each
//     agent of a population is created with a different seed.
//
// Typical parameters:
//
//   - randomness (float): Adds a layer of randomness in the search: the choice is
//     distributed according to a softmax of the scores of each move, divided by this value.
//     So lower values (closer to 0) means less randomness, higher value means more randomness,
//     hence more exploration. Default is 0.
//   - random_plies (int): Number of plies of the game during which randomness is used. Default is 20.
//
// More details on the config are dependent on the evaluator used.
func New(config string, seed uint64) (*SearcherScorer, error) {
	if config == "" {
		config = DefaultPlayerConfig
	}
	params := parameters.NewFromConfigString(config)
	randomness, err := parameters.PopParamOr(params, "randomness", 0.0)
	if err != nil {
		return nil, err
	}
	if randomness < 0 {
		return nil, errors.Errorf("randomness=%g must be >= 0", randomness)
	}
	randomPlies, err := parameters.PopParamOr(params, "random_plies", 20)
	if err != nil {
		return nil, err
	}

	evaluator, err := ai.New(params, seed)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create AI player from %q", config)
	}
	if err := params.CheckAllUsed("AI player"); err != nil {
		return nil, err
	}
	return &SearcherScorer{
		Searcher:  searchers.NewRandomized(searchers.NewGreedy(evaluator), randomness, randomPlies, seed),
		Evaluator: evaluator,
		config:    config,
	}, nil
}

// Play implements the Player interface: it chooses a move given a position.
func (s *SearcherScorer) Play(pos board.Position) (move board.Move, next board.Position, score float32, err error) {
	move, next, score, _, err = s.Searcher.Search(pos)
	if err == nil && klog.V(2).Enabled() {
		klog.Infof("Ply #%d: AI (%s) playing %s, score=%.3f", pos.Ply(), s.Evaluator, pos.Notate(move), score)
	}
	return
}

// String implements the Player interface.
func (s *SearcherScorer) String() string {
	return s.config
}

// Package fnn implements a chess evaluator with a feed-forward neural network, using GoMLX.
//
// Each agent gets its own network, with weights randomly initialized from the seed of the agent:
// the networks are not trained, they only give each agent a different (and somewhat consistent)
// taste for positions.
//
// The network runs on the GoMLX pure Go backend ("simplego"), unless configured otherwise with
// the GOMLX_BACKEND environment variable.
package fnn

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/backends"
	_ "github.com/gomlx/gomlx/backends/simplego"
	. "github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/types/shapes"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/chessArena/internal/ai"
	"github.com/janpfeifer/chessArena/internal/board"
	"github.com/janpfeifer/chessArena/internal/parameters"
	"github.com/notnil/chess"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Hyperparameters of the model, and their configuration keys.
const (
	ParamHiddenNodes  = "hidden"
	ParamHiddenLayers = "layers"
)

var (
	// Backend is a singleton, the same for all evaluators.
	backend = sync.OnceValue(func() backends.Backend { return backends.New() })
)

// Model is a feed-forward network: a number of hidden layers with tanh activations, and a
// single output squashed to (-1, 1).
type Model struct {
	ctx *context.Context

	// weights and biases of each layer, the last one being the output layer.
	weights, biases []*context.Variable
}

// NewModel creates a Model with a fresh context, with hyperparameters set to their defaults.
// The weights are only created by Init.
func NewModel() *Model {
	m := &Model{ctx: context.New()}
	m.ctx.SetParams(map[string]any{
		ParamHiddenNodes:  64,
		ParamHiddenLayers: 1,
	})
	return m
}

// Context used by the model: with both its weights and hyperparameters.
func (m *Model) Context() *context.Context {
	return m.ctx
}

// Init creates the weights of the model, drawn from a normal distribution scaled by the fan-in of
// each layer, using a random generator seeded with seed. Biases start at zero.
func (m *Model) Init(seed uint64) error {
	numHidden := context.GetParamOr(m.ctx, ParamHiddenNodes, 64)
	numLayers := context.GetParamOr(m.ctx, ParamHiddenLayers, 1)
	if numHidden <= 0 || numLayers < 0 {
		return errors.Errorf("invalid network configuration: %s=%d must be > 0 and %s=%d must be >= 0",
			ParamHiddenNodes, numHidden, ParamHiddenLayers, numLayers)
	}
	rng := rand.New(rand.NewPCG(seed, 0xf22))
	inputDim := InputDim
	m.weights, m.biases = nil, nil
	for layer := range numLayers + 1 {
		outputDim := numHidden
		if layer == numLayers {
			outputDim = 1
		}
		stddev := 1 / math.Sqrt(float64(inputDim))
		w := tensors.FromShape(shapes.Make(dtypes.Float32, inputDim, outputDim))
		tensors.MutableFlatData(w, func(flat []float32) {
			for ii := range flat {
				flat[ii] = float32(rng.NormFloat64() * stddev)
			}
		})
		b := tensors.FromShape(shapes.Make(dtypes.Float32, 1, outputDim))
		layerCtx := m.ctx.In(fmt.Sprintf("layer_%d", layer))
		m.weights = append(m.weights, layerCtx.VariableWithValue("weights", w))
		m.biases = append(m.biases, layerCtx.VariableWithValue("biases", b))
		inputDim = outputDim
	}
	return nil
}

// ForwardGraph calculates the scores of a batch of encoded positions, shaped [batch, InputDim].
// It returns the scores shaped [batch, 1].
func (m *Model) ForwardGraph(ctx *context.Context, inputs []*Node) *Node {
	x := inputs[0]
	g := x.Graph()
	batchSize := x.Shape().Dim(0)
	lastLayer := len(m.weights) - 1
	for layer := range m.weights {
		w := m.weights[layer].ValueGraph(g)
		b := m.biases[layer].ValueGraph(g)
		x = Dot(x, w)
		x = Add(x, BroadcastToDims(b, batchSize, x.Shape().Dim(1)))
		if layer < lastLayer {
			x = Tanh(x)
		}
	}
	x.AssertDims(batchSize, 1)
	return MulScalar(Tanh(x), 0.99)
}

// extractParams pops from params the hyperparameters of the model, and writes them in the context.
func (m *Model) extractParams(params parameters.Params) error {
	ctx := m.ctx
	var err error
	ctx.EnumerateParams(func(scope, key string, valueAny any) {
		if err != nil {
			// If error happened skip the rest.
			return
		}
		if scope != context.RootScope {
			return
		}
		switch defaultValue := valueAny.(type) {
		case int:
			value, newErr := parameters.PopParamOr(params, key, defaultValue)
			if newErr != nil {
				err = errors.WithMessagef(newErr, "parsing %q (int) for fnn model", key)
				return
			}
			ctx.SetParam(key, value)
		case float64:
			value, newErr := parameters.PopParamOr(params, key, defaultValue)
			if newErr != nil {
				err = errors.WithMessagef(newErr, "parsing %q (float64) for fnn model", key)
				return
			}
			ctx.SetParam(key, value)
		default:
			err = errors.Errorf("fnn model parameter %q is of unknown type %T", key, defaultValue)
		}
	})
	return err
}

// Evaluator scores chess positions with a Model. It implements ai.Evaluator.
type Evaluator struct {
	model *Model
	name  string

	// muExec serializes calls to the executor.
	muExec sync.Mutex
	exec   *context.Exec
}

// Assert Evaluator is an ai.Evaluator.
var _ ai.Evaluator = (*Evaluator)(nil)

// New creates an Evaluator with a new Model, configured by params (the hyperparameters and an
// optional "seed" overriding the given one). The parameters used are popped from params.
func New(params parameters.Params, seed uint64) (*Evaluator, error) {
	// A fixed seed makes every agent share the same weights.
	seed, err := parameters.PopParamOr(params, "seed", seed)
	if err != nil {
		return nil, err
	}
	model := NewModel()
	if err := model.extractParams(params); err != nil {
		return nil, err
	}
	if err := model.Init(seed); err != nil {
		return nil, err
	}
	e := &Evaluator{
		model: model,
		name: fmt.Sprintf("fnn(hidden=%d, layers=%d, seed=%d)",
			context.GetParamOr(model.ctx, ParamHiddenNodes, 0),
			context.GetParamOr(model.ctx, ParamHiddenLayers, 0), seed),
	}
	e.exec = context.NewExec(backend(), model.Context(),
		func(ctx *context.Context, inputs []*Node) *Node {
			// Remove last axis with dimension 1.
			return Squeeze(model.ForwardGraph(ctx, inputs), -1)
		})
	klog.V(1).Infof("Created evaluator %s", e.name)
	return e, nil
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
		exceptions.Panicf("fnn evaluator requires a chess position, got %T", pos)
	}
	return e.BatchEvaluate([]*chess.Position{cp.Chess()})[0]
}

// BatchEvaluate returns the network scores of the given positions, each for its side to move.
// End of game positions are not special cased, see Evaluate.
func (e *Evaluator) BatchEvaluate(positions []*chess.Position) []float32 {
	if len(positions) == 0 {
		return nil
	}
	inputs := tensors.FromShape(shapes.Make(dtypes.Float32, len(positions), InputDim))
	tensors.MutableFlatData(inputs, func(flat []float32) {
		for ii, pos := range positions {
			Encode(pos, flat[ii*InputDim:])
		}
	})
	e.muExec.Lock()
	defer e.muExec.Unlock()
	scoresT := e.exec.Call(inputs)[0]
	return scoresT.Value().([]float32)
}

func init() {
	ai.Register("fnn", func(params parameters.Params, seed uint64) (ai.Evaluator, error) {
		e, err := New(params, seed)
		if err != nil {
			return nil, err
		}
		return e, nil
	})
}

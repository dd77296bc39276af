package ai

import (
	"slices"
	"strings"
	"sync"

	"github.com/janpfeifer/chessArena/internal/parameters"
	"github.com/pkg/errors"
)

// Builder creates a new Evaluator from the parameters of a configuration string.
//
// It must consume (pop) the parameters it uses. The seed is different for every agent of a
// population, so evaluators with random initialization create independent instances.
type Builder func(params parameters.Params, seed uint64) (Evaluator, error)

var (
	muRegistry sync.RWMutex

	// Registered evaluator modules.
	registry = make(map[string]Builder)
)

// Register an evaluator module, so it can be selected by name in configuration strings.
// It is usually called from an init() function.
func Register(name string, builder Builder) {
	muRegistry.Lock()
	defer muRegistry.Unlock()
	registry[name] = builder
}

// Registered returns the sorted names of the registered evaluators.
func Registered() []string {
	muRegistry.RLock()
	defer muRegistry.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New creates an Evaluator from params: exactly one of the keys must be the name of a registered
// evaluator. It pops the parameters it uses, leaving others (e.g. the searcher parameters) in params.
func New(params parameters.Params, seed uint64) (Evaluator, error) {
	muRegistry.RLock()
	var found []string
	for name := range registry {
		if _, ok := params[name]; ok {
			found = append(found, name)
		}
	}
	muRegistry.RUnlock()
	switch len(found) {
	case 0:
		return nil, errors.Errorf("no evaluator defined in parameters %q, registered evaluators: %s",
			params, strings.Join(Registered(), ", "))
	case 1:
		// Ok.
	default:
		slices.Sort(found)
		return nil, errors.Errorf("multiple evaluators (%s) defined in parameters %q",
			strings.Join(found, ", "), params)
	}
	name := found[0]
	muRegistry.RLock()
	builder := registry[name]
	muRegistry.RUnlock()
	delete(params, name)
	evaluator, err := builder(params, seed)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create evaluator %q", name)
	}
	return evaluator, nil
}

// NewFromConfig is like New, but it parses the configuration string, and fails if any parameter
// is left unused.
func NewFromConfig(config string, seed uint64) (Evaluator, error) {
	params := parameters.NewFromConfigString(config)
	evaluator, err := New(params, seed)
	if err != nil {
		return nil, err
	}
	if err := params.CheckAllUsed("evaluator"); err != nil {
		return nil, err
	}
	return evaluator, nil
}

func init() {
	Register("constant", func(params parameters.Params, _ uint64) (Evaluator, error) {
		value, err := parameters.PopParamOr(params, "value", float32(0))
		if err != nil {
			return nil, err
		}
		if value < -WinGameScore || value > WinGameScore {
			return nil, errors.Errorf("constant evaluator value=%g out of range [-1, 1]", value)
		}
		return Constant(value), nil
	})
}

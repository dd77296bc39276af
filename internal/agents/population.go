package agents

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/janpfeifer/chessArena/internal/players"
	"github.com/janpfeifer/chessArena/internal/rating"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// DefaultSize of a population.
const DefaultSize = 4

// Factory creates the agent with the given id.
type Factory func(id int) (*Agent, error)

// PlayerFactory returns a Factory of agents whose players are created from the given configuration
// (see players.New). Every agent created gets a different seed, derived from baseSeed, so evaluators
// with random initialization differ across agents and across resets.
func PlayerFactory(config string, baseSeed uint64) Factory {
	var created atomic.Uint64
	return func(id int) (*Agent, error) {
		seed := baseSeed + created.Add(1) - 1
		player, err := players.New(config, seed)
		if err != nil {
			return nil, errors.WithMessagef(err, "creating agent #%d", id)
		}
		return New(id, player), nil
	}
}

// Population is the ordered set of agents of the arena, with ids 0..Size()-1.
// It is safe for concurrent use, and Reset replaces the whole set atomically.
type Population struct {
	factory Factory

	mu     sync.RWMutex
	agents []*Agent
}

// NewPopulation creates a population of size agents using factory.
func NewPopulation(size int, factory Factory) (*Population, error) {
	p := &Population{factory: factory}
	if err := p.Reset(size); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Population) build(size int) ([]*Agent, error) {
	if size <= 0 {
		return nil, errors.Errorf("population size must be > 0, got %d", size)
	}
	agents := make([]*Agent, size)
	for id := range agents {
		agent, err := p.factory(id)
		if err != nil {
			return nil, err
		}
		agents[id] = agent
	}
	return agents, nil
}

// Reset replaces all agents by size fresh ones: initial rating and zeroed statistics.
// On error the population is left unchanged.
func (p *Population) Reset(size int) error {
	agents, err := p.build(size)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.agents = agents
	p.mu.Unlock()
	klog.V(1).Infof("Population reset with %d agents", size)
	return nil
}

// Size returns the number of agents.
func (p *Population) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.agents)
}

// All returns the agents, ordered by id. The returned slice is owned by the caller.
func (p *Population) All() []*Agent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*Agent(nil), p.agents...)
}

// Get returns the agent with the given id.
func (p *Population) Get(id int) (*Agent, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if id < 0 || id >= len(p.agents) {
		return nil, false
	}
	return p.agents[id], true
}

// PickTwoDistinct selects two agents uniformly at random. If the population has more than one
// agent they are distinct, otherwise the only agent is returned twice (self-play).
//
// rng is not safe for concurrent use: callers must serialize calls sharing the same rng.
func (p *Population) PickTwoDistinct(rng *rand.Rand) (a, b *Agent) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := len(p.agents)
	a = p.agents[rng.IntN(n)]
	if n == 1 {
		return a, a
	}
	for {
		b = p.agents[rng.IntN(n)]
		if b != a {
			return
		}
	}
}

// Snapshot returns the statistics of all agents, ordered by id.
func (p *Population) Snapshot() []rating.Stats {
	agents := p.All()
	stats := make([]rating.Stats, len(agents))
	for ii, agent := range agents {
		stats[ii] = agent.Snapshot()
	}
	return stats
}

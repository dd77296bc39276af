// Package arena is the service that owns the population of agents and runs single matches and
// training sessions (a sequence of matches) on a bounded pool of workers.
//
// An Arena enforces that at most one training session runs at a time, and that no single match
// runs during a training session. Rejected requests leave the arena state unchanged.
package arena

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/janpfeifer/chessArena/internal/agents"
	"github.com/janpfeifer/chessArena/internal/board"
	"github.com/janpfeifer/chessArena/internal/events"
	"github.com/janpfeifer/chessArena/internal/match"
	"github.com/janpfeifer/chessArena/internal/rating"
	"github.com/janpfeifer/chessArena/internal/store"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

var (
	// ErrSessionConflict is returned when a request conflicts with a training session (or with
	// running matches, for requests that need the arena idle).
	ErrSessionConflict = errors.New("session conflict")

	// ErrInvalidConfig is returned for invalid request parameters.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrBusy is returned when all workers are in use.
	ErrBusy = errors.New("arena busy: all workers in use")

	// ErrClosed is returned for requests after Close.
	ErrClosed = errors.New("arena closed")

	// ErrHistoryDisabled is returned by History when the arena has no store.
	ErrHistoryDisabled = errors.New("match history disabled: no store configured")
)

// Config of an Arena. Zero values take the defaults.
type Config struct {
	// PopulationSize is the number of agents, DefaultPopulationSize if 0.
	PopulationSize int

	// PlayerConfig of the agents, see players.New.
	PlayerConfig string

	// Seed for the pairing of agents and the initialization of their players.
	Seed uint64

	// MaxMatches per training session, and MaxPopulation size accepted by Reset.
	MaxMatches, MaxPopulation int

	// Workers is the number of matches or training sessions that can run in the background.
	Workers int

	// MaxPlies, StartDelay and MoveDelay configure the match.Runner.
	MaxPlies              int
	StartDelay, MoveDelay time.Duration
}

// Default values of Config.
const (
	DefaultPopulationSize = agents.DefaultSize
	DefaultMaxMatches     = 1000
	DefaultMaxPopulation  = 64
	DefaultWorkers        = 8
)

func (c *Config) setDefaults() {
	if c.PopulationSize == 0 {
		c.PopulationSize = DefaultPopulationSize
	}
	if c.MaxMatches <= 0 {
		c.MaxMatches = DefaultMaxMatches
	}
	if c.MaxPopulation <= 0 {
		c.MaxPopulation = DefaultMaxPopulation
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
}

// Status of the arena.
type Status struct {
	Training       bool `json:"training"`
	ActiveMatches  int  `json:"active_matches"`
	PopulationSize int  `json:"population_size"`
}

// Arena runs matches between the agents of its population.
type Arena struct {
	config     Config
	population *agents.Population
	runner     *match.Runner
	sink       events.Sink
	store      store.Store

	ctx    context.Context
	cancel context.CancelFunc
	tasks  errgroup.Group

	mu            sync.Mutex
	closed        bool
	training      bool
	activeMatches int
	rng           *rand.Rand
}

// New creates an Arena playing games of engine. Events are published on sink (if not nil) and
// completed matches saved on st (if not nil).
func New(config Config, engine board.Engine, sink events.Sink, st store.Store) (*Arena, error) {
	config.setDefaults()
	if err := config.validatePopulation(config.PopulationSize); err != nil {
		return nil, err
	}
	population, err := agents.NewPopulation(config.PopulationSize, agents.PlayerFactory(config.PlayerConfig, config.Seed))
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create population")
	}
	if sink == nil {
		sink = events.Discard
	}
	a := &Arena{
		config:     config,
		population: population,
		runner: &match.Runner{
			Engine:     engine,
			Sink:       sink,
			Population: population,
			MaxPlies:   config.MaxPlies,
			StartDelay: config.StartDelay,
			MoveDelay:  config.MoveDelay,
		},
		sink:  sink,
		store: st,
		rng:   rand.New(rand.NewPCG(config.Seed, 0xA12E4A)),
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())
	a.tasks.SetLimit(config.Workers)
	klog.V(1).Infof("Arena created: %d agents (%q), engine %s, %d workers",
		config.PopulationSize, config.PlayerConfig, engine, config.Workers)
	return a, nil
}

func (c *Config) validatePopulation(size int) error {
	if size <= 0 || size > c.MaxPopulation {
		return errors.Wrapf(ErrInvalidConfig, "population size %d must be between 1 and %d", size, c.MaxPopulation)
	}
	return nil
}

func (c *Config) validateNumMatches(n int) error {
	if n <= 0 || n > c.MaxMatches {
		return errors.Wrapf(ErrInvalidConfig, "number of matches %d must be between 1 and %d", n, c.MaxMatches)
	}
	return nil
}

// Population of the arena.
func (a *Arena) Population() *agents.Population {
	return a.population
}

// Agents returns the statistics of all agents, ordered by id.
func (a *Arena) Agents() []rating.Stats {
	return a.population.Snapshot()
}

// Status returns the current state of the arena.
func (a *Arena) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Status{Training: a.training, ActiveMatches: a.activeMatches, PopulationSize: a.population.Size()}
}

// beginMatch reserves a single match, picking its participants.
func (a *Arena) beginMatch() (white, black *agents.Agent, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, nil, ErrClosed
	}
	if a.training {
		return nil, nil, errors.Wrap(ErrSessionConflict, "training in progress")
	}
	a.activeMatches++
	white, black = a.population.PickTwoDistinct(a.rng)
	return
}

func (a *Arena) endMatch() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.activeMatches--
}

// PlayMatch starts a match between two random agents in the background, and returns its id.
// Progress is published as events.
func (a *Arena) PlayMatch() (matchID string, err error) {
	white, black, err := a.beginMatch()
	if err != nil {
		return "", err
	}
	matchID = uuid.NewString()
	started := a.tasks.TryGo(func() error {
		defer a.endMatch()
		if _, err := a.playMatch(a.ctx, match.IDs{MatchID: matchID}, white, black); err != nil {
			klog.Errorf("Match %s failed: %+v", matchID, err)
		}
		return nil
	})
	if !started {
		a.endMatch()
		return "", ErrBusy
	}
	return matchID, nil
}

// RunMatch plays a match between two random agents and returns its summary.
// It is the synchronous version of PlayMatch.
func (a *Arena) RunMatch(ctx context.Context) (*match.Summary, error) {
	white, black, err := a.beginMatch()
	if err != nil {
		return nil, err
	}
	defer a.endMatch()
	return a.playMatch(ctx, match.IDs{}, white, black)
}

// playMatch runs one match, converting panics to errors, and saves its summary.
func (a *Arena) playMatch(ctx context.Context, ids match.IDs, white, black *agents.Agent) (summary *match.Summary, err error) {
	defer func() {
		if r := recover(); r != nil {
			summary = nil
			err = errors.Errorf("match panicked: %v", r)
		}
	}()
	summary, err = a.runner.Run(ctx, ids, white, black)
	if err != nil {
		return nil, err
	}
	a.save(summary)
	return summary, nil
}

func (a *Arena) save(summary *match.Summary) {
	if a.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.store.SaveMatch(ctx, summary); err != nil {
		klog.Errorf("Failed to save match %s: %+v", summary.MatchID, err)
	}
}

// beginTraining validates and reserves a training session.
func (a *Arena) beginTraining(numMatches int) error {
	if err := a.config.validateNumMatches(numMatches); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	if a.training {
		return errors.Wrap(ErrSessionConflict, "training already in progress")
	}
	if a.activeMatches > 0 {
		return errors.Wrapf(ErrSessionConflict, "%d matches in progress", a.activeMatches)
	}
	a.training = true
	return nil
}

func (a *Arena) endTraining() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.training = false
}

// StartTraining starts a training session of numMatches matches in the background, and returns
// the session id.
func (a *Arena) StartTraining(numMatches int) (sessionID string, err error) {
	if err = a.beginTraining(numMatches); err != nil {
		return "", err
	}
	sessionID = uuid.NewString()
	started := a.tasks.TryGo(func() error {
		defer a.endTraining()
		a.train(a.ctx, sessionID, numMatches)
		return nil
	})
	if !started {
		a.endTraining()
		return "", ErrBusy
	}
	return sessionID, nil
}

// RunTraining runs a training session of numMatches matches and returns the summaries of the
// matches completed. It is the synchronous version of StartTraining.
func (a *Arena) RunTraining(ctx context.Context, numMatches int) ([]*match.Summary, error) {
	if err := a.beginTraining(numMatches); err != nil {
		return nil, err
	}
	defer a.endTraining()
	return a.train(ctx, uuid.NewString(), numMatches), nil
}

// train runs the matches of a training session sequentially. Failed matches are logged and
// skipped. It stops early if ctx is cancelled.
func (a *Arena) train(ctx context.Context, sessionID string, numMatches int) (summaries []*match.Summary) {
	klog.Infof("Training session %s: %d matches", sessionID, numMatches)
	a.sink.Publish(events.New(events.TrainingStarted, events.TrainingStartedPayload{
		SessionID:  sessionID,
		NumMatches: numMatches,
	}))
	for ii := range numMatches {
		if ctx.Err() != nil {
			klog.Warningf("Training session %s interrupted after %d matches", sessionID, ii)
			break
		}
		a.sink.Publish(events.New(events.MatchStarting, events.MatchStartingPayload{
			SessionID:    sessionID,
			MatchNumber:  ii + 1,
			TotalMatches: numMatches,
		}))
		summary, err := a.trainingMatch(ctx, sessionID)
		if err != nil {
			klog.Errorf("Training session %s: match %d/%d failed: %+v", sessionID, ii+1, numMatches, err)
			continue
		}
		summaries = append(summaries, summary)
	}
	a.sink.Publish(events.New(events.TrainingComplete, events.TrainingCompletePayload{
		SessionID:    sessionID,
		TotalMatches: len(summaries),
	}))
	a.sink.Publish(events.NewAgentsUpdate(a.population.Snapshot()))
	klog.Infof("Training session %s: %d matches completed", sessionID, len(summaries))
	return
}

func (a *Arena) trainingMatch(ctx context.Context, sessionID string) (*match.Summary, error) {
	a.mu.Lock()
	white, black := a.population.PickTwoDistinct(a.rng)
	a.mu.Unlock()
	return a.playMatch(ctx, match.IDs{SessionID: sessionID}, white, black)
}

// Reset replaces the population by populationSize fresh agents. It is rejected while a training
// session or matches are running.
func (a *Arena) Reset(populationSize int) error {
	if err := a.config.validatePopulation(populationSize); err != nil {
		return err
	}
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	if a.training {
		a.mu.Unlock()
		return errors.Wrap(ErrSessionConflict, "cannot reset during training")
	}
	if a.activeMatches > 0 {
		a.mu.Unlock()
		return errors.Wrapf(ErrSessionConflict, "cannot reset with %d matches in progress", a.activeMatches)
	}
	err := a.population.Reset(populationSize)
	a.mu.Unlock()
	if err != nil {
		return errors.WithMessage(err, "failed to reset population")
	}
	klog.Infof("Arena reset with %d agents", populationSize)
	a.sink.Publish(events.NewAgentsUpdate(a.population.Snapshot()))
	return nil
}

// History returns the most recent completed matches, see store.Store.ListMatches.
func (a *Arena) History(ctx context.Context, limit int) ([]match.Summary, error) {
	if a.store == nil {
		return nil, ErrHistoryDisabled
	}
	return a.store.ListMatches(ctx, limit)
}

// Close rejects new requests, interrupts the running matches and waits for them to finish.
// It doesn't close the sink nor the store.
func (a *Arena) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.cancel()
	_ = a.tasks.Wait()
}

// String implements fmt.Stringer.
func (a *Arena) String() string {
	return fmt.Sprintf("Arena(%d agents, engine %s)", a.population.Size(), a.runner.Engine)
}

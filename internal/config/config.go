// Package config holds the configuration of the arena server: each setting has a default value
// that can be overridden by an environment variable (possibly loaded from a .env file), which in
// turn is overridden by a command-line flag.
package config

import (
	"flag"
	"io/fs"
	"os"
	"time"

	"github.com/janpfeifer/chessArena/internal/arena"
	"github.com/janpfeifer/chessArena/internal/parameters"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// EnvPrefix of the environment variables read by the arena.
const EnvPrefix = "ARENA_"

// LoadDotEnv loads the given .env files (default ".env") into the environment. Variables already
// set are not overridden, and missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				klog.V(1).Infof("No %s file found", file)
				continue
			}
			return errors.Wrapf(err, "failed to load %q", file)
		}
		klog.V(1).Infof("Loaded environment from %s", file)
	}
	return nil
}

// EnvOr returns the value of the environment variable EnvPrefix+name parsed as T, or defaultValue if
// it is not set.
func EnvOr[T parameters.Value](name string, defaultValue T) (T, error) {
	key := EnvPrefix + name
	value, found := os.LookupEnv(key)
	if !found {
		return defaultValue, nil
	}
	return parameters.GetParamOr(parameters.Params{key: value}, key, defaultValue)
}

// Server configuration.
type Server struct {
	// Addr the HTTP server listens to.
	Addr string

	PopulationSize int
	PlayerConfig   string
	Seed           uint64
	Workers        int
	MaxMatches     int
	MaxPopulation  int

	// FEN of the starting position of the games, empty for the standard one.
	FEN                   string
	MaxPlies              int
	StartDelay, MoveDelay time.Duration

	// DBPath of the SQLite match history, empty disables it.
	DBPath string

	// NATSURL of a broker to forward events to, empty disables it.
	NATSURL    string
	NATSPrefix string

	// Pprof enables the /debug/pprof endpoints.
	Pprof bool
}

// Defaults returns the default server configuration.
func Defaults() Server {
	return Server{
		Addr:           ":5000",
		PopulationSize: arena.DefaultPopulationSize,
		PlayerConfig:   "material",
		Seed:           42,
		Workers:        arena.DefaultWorkers,
		MaxMatches:     arena.DefaultMaxMatches,
		MaxPopulation:  arena.DefaultMaxPopulation,
		MaxPlies:       200,
		StartDelay:     500 * time.Millisecond,
		MoveDelay:      300 * time.Millisecond,
		DBPath:         "arena.db",
		NATSPrefix:     "arena.events",
	}
}

// FromEnv returns the Defaults overridden by the environment variables.
func FromEnv() (Server, error) {
	s := Defaults()
	for name, ptr := range s.fields() {
		var err error
		switch p := ptr.(type) {
		case *string:
			*p, err = EnvOr(name, *p)
		case *int:
			*p, err = EnvOr(name, *p)
		case *uint64:
			*p, err = EnvOr(name, *p)
		case *bool:
			*p, err = EnvOr(name, *p)
		case *time.Duration:
			*p, err = EnvOr(name, *p)
		default:
			err = errors.Errorf("unsupported type %T", ptr)
		}
		if err != nil {
			return s, errors.WithMessagef(err, "environment variable %s%s", EnvPrefix, name)
		}
	}
	return s, nil
}

// fields maps the names of the environment variables (without EnvPrefix) to the settings.
func (s *Server) fields() map[string]any {
	return map[string]any{
		"ADDR":           &s.Addr,
		"POPULATION":     &s.PopulationSize,
		"PLAYER":         &s.PlayerConfig,
		"SEED":           &s.Seed,
		"WORKERS":        &s.Workers,
		"MAX_MATCHES":    &s.MaxMatches,
		"MAX_POPULATION": &s.MaxPopulation,
		"FEN":            &s.FEN,
		"MAX_PLIES":      &s.MaxPlies,
		"START_DELAY":    &s.StartDelay,
		"MOVE_DELAY":     &s.MoveDelay,
		"DB":             &s.DBPath,
		"NATS_URL":       &s.NATSURL,
		"NATS_PREFIX":    &s.NATSPrefix,
		"PPROF":          &s.Pprof,
	}
}

// RegisterFlags registers flags for every setting on fs, using the current values as defaults.
func (s *Server) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&s.Addr, "addr", s.Addr, "Address the HTTP server listens to.")
	fs.IntVar(&s.PopulationSize, "population", s.PopulationSize, "Number of agents.")
	fs.StringVar(&s.PlayerConfig, "player", s.PlayerConfig,
		"Configuration of the agents players, e.g. \"material,noise=0.1,randomness=0.05\".")
	fs.Uint64Var(&s.Seed, "seed", s.Seed, "Random seed for the agents and their pairing.")
	fs.IntVar(&s.Workers, "workers", s.Workers, "Number of matches or training sessions running in the background.")
	fs.IntVar(&s.MaxMatches, "max_matches", s.MaxMatches, "Maximum number of matches of a training session.")
	fs.IntVar(&s.MaxPopulation, "max_population", s.MaxPopulation, "Maximum population size accepted by reset.")
	fs.StringVar(&s.FEN, "fen", s.FEN, "Starting position of the games, empty for the standard one.")
	fs.IntVar(&s.MaxPlies, "max_plies", s.MaxPlies, "Ply cap of the matches: games reaching it are undecided.")
	fs.DurationVar(&s.StartDelay, "start_delay", s.StartDelay, "Pause after the initial position of each match.")
	fs.DurationVar(&s.MoveDelay, "move_delay", s.MoveDelay, "Pause after each move.")
	fs.StringVar(&s.DBPath, "db", s.DBPath, "Path to the SQLite match history, empty to disable it.")
	fs.StringVar(&s.NATSURL, "nats", s.NATSURL, "URL of a NATS server to forward events to, empty to disable it.")
	fs.StringVar(&s.NATSPrefix, "nats_prefix", s.NATSPrefix, "Subject prefix of the events forwarded to NATS.")
	fs.BoolVar(&s.Pprof, "pprof", s.Pprof, "Enable /debug/pprof endpoints.")
}

// ArenaConfig returns the arena.Config matching the server configuration.
func (s *Server) ArenaConfig() arena.Config {
	return arena.Config{
		PopulationSize: s.PopulationSize,
		PlayerConfig:   s.PlayerConfig,
		Seed:           s.Seed,
		MaxMatches:     s.MaxMatches,
		MaxPopulation:  s.MaxPopulation,
		Workers:        s.Workers,
		MaxPlies:       s.MaxPlies,
		StartDelay:     s.StartDelay,
		MoveDelay:      s.MoveDelay,
	}
}

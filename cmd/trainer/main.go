// trainer runs a tournament among a population of chess agents on the terminal, and prints the
// final Elo leaderboard.
//
// Matches are played sequentially as a training session, or, with -parallelism > 1, as
// independent matches running concurrently.
package main

import (
	"context"
	"flag"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/janpfeifer/chessArena/internal/arena"
	"github.com/janpfeifer/chessArena/internal/board/chessboard"
	"github.com/janpfeifer/chessArena/internal/events"
	"github.com/janpfeifer/chessArena/internal/match"
	"github.com/janpfeifer/chessArena/internal/players"
	_ "github.com/janpfeifer/chessArena/internal/players/default"
	"github.com/janpfeifer/chessArena/internal/profilers"
	"github.com/janpfeifer/chessArena/internal/store"
	"github.com/janpfeifer/chessArena/internal/ui/cli"
	"github.com/janpfeifer/chessArena/internal/ui/spinning"
	"github.com/janpfeifer/must"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

var (
	flagPopulation = flag.Int("population", arena.DefaultPopulationSize, "Number of agents in the tournament.")
	flagPlayer     = flag.String("player", players.DefaultPlayerConfig,
		"Configuration of the agents' players, e.g. \"material,noise=0.2,randomness=0.1\".")
	flagSeed        = flag.Uint64("seed", 42, "Seed for the pairings and the initialization of the agents.")
	flagNumMatches  = flag.Int("num_matches", 20, "Number of matches to play.")
	flagParallelism = flag.Int("parallelism", 1, "If > 1 matches are played concurrently, "+
		"instead of sequentially as a training session. If 0 it uses GOMAXPROCS.")
	flagMaxPlies   = flag.Int("max_plies", match.DefaultMaxPlies, "Max plies before a match is adjudicated as a draw.")
	flagFEN        = flag.String("fen", "", "Starting position of the matches. Defaults to the standard one.")
	flagDB         = flag.String("db", "", "If set, completed matches are saved in the given SQLite file.")
	flagPrintSteps = flag.Bool("print_steps", false, "Print board at each step. "+
		"Very verbose, and you probably want to leave -parallelism=1.")
	flagColor = flag.Bool("color", true, "Use colors on the output.")
)

// Globals
var (
	// globalCtx used everywhere. It is cancelled when the program is about to exit either by
	// an interrupt (ctrl+C) or by reaching the end.
	globalCtx = context.Background()
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	// Capture Control+C
	var globalCancel func()
	globalCtx, globalCancel = context.WithCancel(context.Background())
	spinning.SafeInterrupt(globalCancel, 5*time.Second)
	defer globalCancel()

	// Profilers: HTTP profiler server and CPU profile.
	prof := must.M1(profilers.Setup(globalCtx))
	defer prof.OnQuit()

	ui := cli.New(*flagColor)
	engine := chessboard.New()
	if *flagFEN != "" {
		engine = must.M1(chessboard.NewFromFEN(*flagFEN))
	}
	var st store.Store
	if *flagDB != "" {
		sqlite := must.M1(store.OpenSQLite(globalCtx, *flagDB))
		defer func() { must.M(sqlite.Close()) }()
		st = sqlite
	}

	p := &progress{ui: ui, printSteps: *flagPrintSteps, total: *flagNumMatches}
	if !p.printSteps {
		p.spinner = spinning.New(globalCtx)
	}
	a := must.M1(arena.New(arena.Config{
		PopulationSize: *flagPopulation,
		PlayerConfig:   *flagPlayer,
		Seed:           *flagSeed,
		MaxMatches:     *flagNumMatches,
		MaxPlies:       *flagMaxPlies,
	}, engine, p, st))
	defer a.Close()
	ui.PrintBanner(fmt.Sprintf("%d agents, %d matches", a.Population().Size(), *flagNumMatches))

	start := time.Now()
	summaries, err := runMatches(globalCtx, a)
	if p.spinner != nil {
		p.spinner.Done()
	}
	must.M(err)
	for ii, summary := range summaries {
		ui.PrintSummary(ii+1, summary)
	}
	if globalCtx.Err() != nil {
		fmt.Printf("Interrupted: %s\n", globalCtx.Err())
	}
	fmt.Printf("%d matches played in %s\n", len(summaries), time.Since(start))
	ui.PrintLeaderboard(a.Agents())
}

// runMatches according to the flags, and returns the summaries of the completed ones.
func runMatches(ctx context.Context, a *arena.Arena) ([]*match.Summary, error) {
	parallelism := getParallelism()
	if parallelism <= 1 {
		return a.RunTraining(ctx, *flagNumMatches)
	}

	klog.V(1).Infof("Playing %d matches with parallelism %d", *flagNumMatches, parallelism)
	var (
		mu        sync.Mutex
		summaries []*match.Summary
		wg        errgroup.Group
	)
	wg.SetLimit(parallelism)
	for range *flagNumMatches {
		wg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			summary, err := a.RunMatch(ctx)
			if err != nil {
				klog.Errorf("Match failed: %+v", err)
				return nil
			}
			mu.Lock()
			summaries = append(summaries, summary)
			mu.Unlock()
			return nil
		})
	}
	return summaries, wg.Wait()
}

// getParallelism returns the parallelism.
func getParallelism() int {
	if *flagParallelism == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return *flagParallelism
}

// progress is an events.Sink that reports the progress of the tournament on the terminal.
type progress struct {
	mu         sync.Mutex
	ui         *cli.UI
	spinner    *spinning.Spinning
	printSteps bool
	completed  int
	total      int
}

// Assert progress is an events.Sink.
var _ events.Sink = (*progress)(nil)

// Publish implements events.Sink.
func (p *progress) Publish(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch payload := e.Payload.(type) {
	case events.MoveMadePayload:
		if !p.printSteps {
			return
		}
		fmt.Printf("Match %s, move #%d: %s (%.3f)\n\n", shortID(payload.MatchID), payload.MoveNumber,
			payload.MoveSAN, payload.Evaluation)
		if err := p.ui.PrintBoard(payload.FEN); err != nil {
			klog.Errorf("%+v", err)
		}
		fmt.Println("------------------")
	case events.MatchCompletePayload:
		p.completed++
		if p.spinner != nil {
			p.spinner.SetStatus("%d / %d matches: last #%d vs #%d %s in %d plies",
				p.completed, p.total, payload.WhiteAgent, payload.BlackAgent, payload.Result, payload.TotalMoves)
		}
	}
}

// shortID returns the first 8 characters of a match id, or "-" for matches without one.
func shortID(id string) string {
	if id == "" {
		return "-"
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// arena serves the chess agents arena: a REST API to play matches, run training sessions and
// reset the population, and a websocket streaming the progress of the games.
//
// Every setting can be given as a flag, as an ARENA_* environment variable or in a .env file,
// in decreasing order of precedence. See package config.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/janpfeifer/chessArena/internal/arena"
	"github.com/janpfeifer/chessArena/internal/board/chessboard"
	"github.com/janpfeifer/chessArena/internal/config"
	"github.com/janpfeifer/chessArena/internal/events"
	_ "github.com/janpfeifer/chessArena/internal/players/default"
	"github.com/janpfeifer/chessArena/internal/server"
	"github.com/janpfeifer/chessArena/internal/store"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"
)

// envFile overrides the default ".env" file loaded at start.
var envFile = os.Getenv(config.EnvPrefix + "ENV_FILE")

func main() {
	klog.InitFlags(nil)
	must.M(config.LoadDotEnv(envFiles()...))
	cfg := must.M1(config.FromEnv())
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := run(ctx, cfg); err != nil {
		klog.Fatalf("%+v", err)
	}
	klog.Flush()
}

func envFiles() []string {
	if envFile == "" {
		return nil
	}
	return []string{envFile}
}

// run the server until ctx is done.
func run(ctx context.Context, cfg config.Server) error {
	engine := chessboard.New()
	if cfg.FEN != "" {
		var err error
		if engine, err = chessboard.NewFromFEN(cfg.FEN); err != nil {
			return err
		}
	}

	hub := events.NewHub(0, 0)
	defer hub.Close()

	var st store.Store
	if cfg.DBPath != "" {
		sqlite, err := store.OpenSQLite(ctx, cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := sqlite.Close(); err != nil {
				klog.Errorf("%+v", err)
			}
		}()
		st = sqlite
		klog.Infof("Match history stored in %s", cfg.DBPath)
	}

	if cfg.NATSURL != "" {
		nc, err := events.ConnectNATS(cfg.NATSURL)
		if err != nil {
			return err
		}
		defer nc.Close()
		bridge := events.NewNATSBridge(hub, nc, cfg.NATSPrefix)
		defer bridge.Close()
		klog.Infof("Forwarding events to %s on %s.*", cfg.NATSURL, bridge.Prefix)
	}

	a, err := arena.New(cfg.ArenaConfig(), engine, hub, st)
	if err != nil {
		return err
	}
	defer a.Close()
	klog.Infof("%s", a)

	if !klog.V(1).Enabled() {
		gin.SetMode(gin.ReleaseMode)
	}
	return server.New(a, hub, server.Options{Pprof: cfg.Pprof}).ListenAndServe(ctx, cfg.Addr)
}

package commands

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/janpfeifer/chessArena/internal/client"
	"github.com/janpfeifer/chessArena/internal/events"
	"github.com/janpfeifer/chessArena/internal/ui/cli"
	"github.com/spf13/cobra"
)

var (
	watchBoards bool
	watchRaw    bool
)

// WatchCmd follows the event stream of the server.
var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch matches live",
	Long:  `Follow the event stream of the server, printing moves, results and leaderboards until interrupted.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer cancel()
		w := &watcher{out: os.Stdout, ui: newUI(), boards: watchBoards, raw: watchRaw}
		return newClient().Watch(ctx, false, w.handle)
	},
}

func init() {
	WatchCmd.Flags().BoolVarP(&watchBoards, "boards", "b", false, "Print the board after every move")
	WatchCmd.Flags().BoolVar(&watchRaw, "raw", false, "Print the events as received, in JSON")
}

// watcher prints the events received to out.
type watcher struct {
	out    io.Writer
	ui     *cli.UI
	boards bool
	raw    bool
}

func (w *watcher) handle(e *client.Event) error {
	if w.raw {
		fmt.Fprintf(w.out, "#%d %s %s\n", e.Seq, e.Type, e.Payload)
		return nil
	}
	switch e.Type {
	case events.TrainingStarted:
		var p events.TrainingStartedPayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		w.ui.PrintBanner(fmt.Sprintf("Training session %s: %d matches", p.SessionID, p.NumMatches))
	case events.MatchStarting:
		var p events.MatchStartingPayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		fmt.Fprintf(w.out, "Match %d of %d\n", p.MatchNumber, p.TotalMatches)
	case events.BoardUpdate:
		var p events.BoardUpdatePayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		fmt.Fprintf(w.out, "Match %s: agent #%d (white) vs agent #%d (black)\n", p.MatchID, p.WhiteAgent, p.BlackAgent)
		if w.boards {
			return w.ui.PrintBoard(p.FEN)
		}
	case events.MoveMade:
		var p events.MoveMadePayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		fmt.Fprintf(w.out, "  %3d. %-8s %+.3f\n", p.MoveNumber, p.MoveSAN, p.Evaluation)
		if w.boards {
			return w.ui.PrintBoard(p.FEN)
		}
	case events.MatchComplete:
		var p events.MatchCompletePayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		fmt.Fprintf(w.out, "Match %s: %s (winner: %s) after %d plies, elo #%d %.1f / #%d %.1f\n",
			p.MatchID, p.Result, p.Winner, p.TotalMoves, p.WhiteAgent, p.WhiteElo, p.BlackAgent, p.BlackElo)
	case events.TrainingComplete:
		var p events.TrainingCompletePayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		w.ui.PrintBanner(fmt.Sprintf("Training session %s completed: %d matches", p.SessionID, p.TotalMatches))
	case events.AgentsUpdate:
		var p events.AgentsUpdatePayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		w.ui.PrintLeaderboard(p.Agents)
	default:
		fmt.Fprintf(w.out, "#%d %s %s\n", e.Seq, e.Type, e.Payload)
	}
	return nil
}

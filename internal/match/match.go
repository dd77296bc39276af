// Package match plays one game between two agents, publishing its progress as events and updating
// the agents' ratings at the end.
package match

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/janpfeifer/chessArena/internal/agents"
	"github.com/janpfeifer/chessArena/internal/board"
	"github.com/janpfeifer/chessArena/internal/events"
	"github.com/janpfeifer/chessArena/internal/searchers"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// DefaultMaxPlies is the ply cap of a match: games reaching it end Undecided.
const DefaultMaxPlies = 200

// Terminations of matches that didn't reach a terminal position.
const (
	TerminationPlyCap           = "PlyCap"
	TerminationSelectionFailure = "SelectionFailure"
)

// Runner plays matches. Its fields must not be changed while matches are running.
type Runner struct {
	Engine board.Engine

	// Sink receives the events of the match. If nil events are discarded.
	Sink events.Sink

	// Population whose snapshot is published at the end of each match. Optional.
	Population *agents.Population

	// MaxPlies is the ply cap, DefaultMaxPlies if <= 0.
	MaxPlies int

	// StartDelay is waited after publishing the initial position, and MoveDelay after each move,
	// to pace the matches for human observers.
	StartDelay, MoveDelay time.Duration
}

// IDs identifying a match in the event stream.
type IDs struct {
	// MatchID is generated if empty.
	MatchID string

	// SessionID of the training session the match belongs to, empty for single matches.
	SessionID string
}

// Ply of a match record.
type Ply struct {
	Number     int
	SAN        string
	Evaluation float32

	// Position after the move.
	Position string
}

// Record of a match while it is played.
type Record struct {
	White, Black int
	Plies        []Ply
}

// Summary of a completed match.
type Summary struct {
	MatchID   string `json:"match_id"`
	SessionID string `json:"session_id,omitempty"`
	White     int    `json:"white"`
	Black     int    `json:"black"`

	// Outcome of the game, Result and Winner are its code and label.
	Outcome board.Result `json:"-"`
	Result  string       `json:"result"`
	Winner  string       `json:"winner"`

	// Termination describes how the game ended, e.g. "Checkmate", "PlyCap".
	Termination string  `json:"termination"`
	Moves       int     `json:"moves"`
	WhiteElo    float64 `json:"white_elo"`
	BlackElo    float64 `json:"black_elo"`
	FinalFEN    string  `json:"final_fen"`

	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
}

// String implements fmt.Stringer.
func (s *Summary) String() string {
	return fmt.Sprintf("match %s: #%d (white) vs #%d (black): %s (%s) after %d plies, elo %.1f / %.1f",
		s.MatchID, s.White, s.Black, s.Result, s.Termination, s.Moves, s.WhiteElo, s.BlackElo)
}

// Run plays a match between white and black, which may be the same agent (self-play).
//
// Events are published in order: BoardUpdate, one MoveMade per ply, MatchComplete and AgentsUpdate.
// If an agent fails to choose a move the match ends Undecided at the current position.
// If ctx is cancelled the match is aborted with an error, and no ratings are changed.
func (r *Runner) Run(ctx context.Context, ids IDs, white, black *agents.Agent) (*Summary, error) {
	if ids.MatchID == "" {
		ids.MatchID = uuid.NewString()
	}
	sink := r.Sink
	if sink == nil {
		sink = events.Discard
	}
	maxPlies := r.MaxPlies
	if maxPlies <= 0 {
		maxPlies = DefaultMaxPlies
	}
	started := time.Now()
	pos := r.Engine.InitialPosition()
	record := &Record{White: white.ID(), Black: black.ID()}
	klog.V(1).Infof("Match %s: agent #%d (white) vs agent #%d (black)", ids.MatchID, record.White, record.Black)

	sink.Publish(events.New(events.BoardUpdate, events.BoardUpdatePayload{
		MatchID:    ids.MatchID,
		SessionID:  ids.SessionID,
		FEN:        pos.String(),
		WhiteAgent: record.White,
		BlackAgent: record.Black,
	}))
	if err := sleep(ctx, r.StartDelay); err != nil {
		return nil, errors.WithMessagef(err, "match %s aborted before the first move", ids.MatchID)
	}

	termination := ""
	for !pos.IsTerminal() {
		if len(record.Plies) >= maxPlies {
			termination = TerminationPlyCap
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "match %s aborted at ply %d", ids.MatchID, len(record.Plies))
		}
		agent := white
		if pos.Turn() == board.Black {
			agent = black
		}
		move, next, score, err := agent.ChooseMove(pos)
		if err != nil {
			if !errors.Is(err, searchers.ErrNoMoves) {
				klog.Errorf("Match %s: agent #%d failed to choose a move at ply %d, ending the match as undecided: %+v",
					ids.MatchID, agent.ID(), len(record.Plies)+1, err)
				termination = TerminationSelectionFailure
			}
			break
		}
		san := pos.Notate(move)
		pos = next
		ply := Ply{Number: len(record.Plies) + 1, SAN: san, Evaluation: score, Position: pos.String()}
		record.Plies = append(record.Plies, ply)
		sink.Publish(events.New(events.MoveMade, events.MoveMadePayload{
			MatchID:     ids.MatchID,
			SessionID:   ids.SessionID,
			FEN:         ply.Position,
			MoveSAN:     ply.SAN,
			MoveNumber:  ply.Number,
			Evaluation:  ply.Evaluation,
			CurrentTurn: pos.Turn().String(),
		}))
		if err := sleep(ctx, r.MoveDelay); err != nil {
			return nil, errors.WithMessagef(err, "match %s aborted at ply %d", ids.MatchID, ply.Number)
		}
	}

	result := pos.Result()
	if termination == "" {
		termination = terminationOf(pos)
	}
	whiteElo, blackElo := agents.Settle(white, black, result)
	summary := &Summary{
		MatchID:     ids.MatchID,
		SessionID:   ids.SessionID,
		White:       record.White,
		Black:       record.Black,
		Outcome:     result,
		Result:      result.Code(),
		Winner:      result.Winner(),
		Termination: termination,
		Moves:       len(record.Plies),
		WhiteElo:    whiteElo,
		BlackElo:    blackElo,
		FinalFEN:    pos.String(),
		Started:     started,
		Duration:    time.Since(started),
	}
	sink.Publish(events.New(events.MatchComplete, events.MatchCompletePayload{
		MatchID:    summary.MatchID,
		SessionID:  summary.SessionID,
		Result:     summary.Result,
		Winner:     summary.Winner,
		WhiteAgent: summary.White,
		BlackAgent: summary.Black,
		WhiteElo:   whiteElo,
		BlackElo:   blackElo,
		TotalMoves: summary.Moves,
	}))
	if r.Population != nil {
		sink.Publish(events.NewAgentsUpdate(r.Population.Snapshot()))
	}
	klog.V(1).Infof("Finished %s", summary)
	return summary, nil
}

// terminationOf returns how the game of pos ended, if the engine tells.
func terminationOf(pos board.Position) string {
	if t, ok := pos.(interface{ Termination() string }); ok {
		return t.Termination()
	}
	if pos.IsTerminal() {
		return "GameOver"
	}
	return ""
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

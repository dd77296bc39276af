package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/janpfeifer/chessArena/internal/client"
	"github.com/janpfeifer/chessArena/internal/events"
	"github.com/janpfeifer/chessArena/internal/rating"
	"github.com/janpfeifer/chessArena/internal/ui/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// received converts e to the form received by client.Watch.
func received(t *testing.T, e events.Event) *client.Event {
	data, err := json.Marshal(e)
	require.NoError(t, err)
	var ce client.Event
	require.NoError(t, json.Unmarshal(data, &ce))
	return &ce
}

func TestWatcher(t *testing.T) {
	var buf bytes.Buffer
	w := &watcher{out: &buf, ui: cli.NewWithWriter(&buf, false, 0), boards: true}

	require.NoError(t, w.handle(received(t, events.New(events.MoveMade, events.MoveMadePayload{
		MatchID:     "m1",
		FEN:         "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1",
		MoveSAN:     "e4",
		MoveNumber:  1,
		Evaluation:  0.25,
		CurrentTurn: "black",
	}))))
	assert.Contains(t, buf.String(), "e4")
	assert.Contains(t, buf.String(), "+0.250")

	buf.Reset()
	require.NoError(t, w.handle(received(t, events.New(events.MatchComplete, events.MatchCompletePayload{
		MatchID: "m1", Result: "1-0", Winner: "White", WhiteAgent: 2, BlackAgent: 3,
		WhiteElo: 1216, BlackElo: 1184, TotalMoves: 17,
	}))))
	assert.Contains(t, buf.String(), "Match m1: 1-0 (winner: White) after 17 plies")

	buf.Reset()
	stats := []rating.Stats{rating.NewStats(0), rating.NewStats(1)}
	require.NoError(t, w.handle(received(t, events.NewAgentsUpdate(stats))))
	assert.Contains(t, buf.String(), "1200")

	// Invalid FEN on a move is reported.
	err := w.handle(received(t, events.New(events.MoveMade, events.MoveMadePayload{FEN: "not a fen"})))
	assert.Error(t, err)

	w.raw = true
	buf.Reset()
	require.NoError(t, w.handle(received(t, events.New(events.TrainingStarted, events.TrainingStartedPayload{
		SessionID: "s1", NumMatches: 5,
	}))))
	assert.Contains(t, buf.String(), `"num_matches":5`)
}

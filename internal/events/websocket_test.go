package events

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/janpfeifer/chessArena/internal/rating"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wireEvent is how clients see an Event.
type wireEvent struct {
	Type    Type           `json:"type"`
	Seq     uint64         `json:"seq"`
	Payload map[string]any `json:"payload"`
}

func readEvent(t *testing.T, conn *websocket.Conn) wireEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var e wireEvent
	require.NoError(t, conn.ReadJSON(&e))
	return e
}

func TestWebSocketHandler(t *testing.T) {
	hub := NewHub(0, 0)
	defer hub.Close()
	var mu sync.Mutex
	stats := []rating.Stats{rating.NewStats(0), rating.NewStats(1)}
	getStats := func() []rating.Stats {
		mu.Lock()
		defer mu.Unlock()
		return append([]rating.Stats(nil), stats...)
	}
	server := httptest.NewServer(NewWebSocketHandler(hub, getStats))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	// First message is the current list of agents.
	e := readEvent(t, conn)
	assert.Equal(t, AgentsUpdate, e.Type)
	assert.Equal(t, uint64(0), e.Seq)
	require.Len(t, e.Payload["agents"], 2)
	agent := e.Payload["agents"].([]any)[1].(map[string]any)
	assert.Equal(t, 1.0, agent["id"])
	assert.Equal(t, rating.InitialRating, agent["elo"])

	// Wait for the subscription before publishing.
	require.Eventually(t, func() bool { return hub.NumSubscribers() == 1 }, 5*time.Second, 10*time.Millisecond)
	hub.Publish(New(MoveMade, MoveMadePayload{MatchID: "m", FEN: "fen", MoveSAN: "e4", MoveNumber: 1, CurrentTurn: "black"}))
	e = readEvent(t, conn)
	assert.Equal(t, MoveMade, e.Type)
	assert.Equal(t, uint64(1), e.Seq)
	assert.Equal(t, "e4", e.Payload["move_san"])
	assert.Equal(t, "black", e.Payload["current_turn"])

	// Agents on request.
	mu.Lock()
	stats[0].Wins, stats[0].GamesPlayed = 1, 1
	mu.Unlock()
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: RequestAgents}))
	e = readEvent(t, conn)
	assert.Equal(t, AgentsUpdate, e.Type)
	agent = e.Payload["agents"].([]any)[0].(map[string]any)
	assert.Equal(t, 1.0, agent["wins"])

	// Client disconnection ends the subscription.
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.NumSubscribers() == 0 }, 5*time.Second, 10*time.Millisecond)
}

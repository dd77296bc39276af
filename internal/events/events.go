// Package events defines the live event stream of the arena: the events published while matches
// and training sessions run, and the Hub that fans them out to any number of observers
// (websocket clients, a NATS broker, tests).
package events

import (
	"time"

	"github.com/janpfeifer/chessArena/internal/rating"
)

// Type of an event.
type Type string

// Event types, in the order they are published for a training session:
// TrainingStarted, then for each match MatchStarting, BoardUpdate, MoveMade (one per ply),
// MatchComplete and AgentsUpdate, and finally TrainingComplete and AgentsUpdate.
const (
	BoardUpdate      Type = "board_update"
	MoveMade         Type = "move_made"
	MatchStarting    Type = "match_starting"
	MatchComplete    Type = "match_complete"
	AgentsUpdate     Type = "agents_update"
	TrainingStarted  Type = "training_started"
	TrainingComplete Type = "training_complete"
)

// Event is one record of the stream.
type Event struct {
	Type Type `json:"type"`

	// Seq is the position of the event in the stream of the Hub that published it, starting at 1.
	// It is 0 for events sent directly to one observer (e.g. the agents list sent on connection).
	Seq uint64 `json:"seq"`

	Time    time.Time `json:"time"`
	Payload any       `json:"payload"`
}

// New creates an event of the given type.
func New(eventType Type, payload any) Event {
	return Event{Type: eventType, Time: time.Now(), Payload: payload}
}

// Sink receives published events. Publish must not block for long: producers are the match loops.
type Sink interface {
	Publish(e Event)
}

// Discard is a Sink that drops all events.
var Discard Sink = discard{}

type discard struct{}

func (discard) Publish(Event) {}

// BoardUpdatePayload is published when a match starts, with the initial position.
type BoardUpdatePayload struct {
	MatchID    string `json:"match_id"`
	SessionID  string `json:"session_id,omitempty"`
	FEN        string `json:"fen"`
	WhiteAgent int    `json:"white_agent"`
	BlackAgent int    `json:"black_agent"`
}

// MoveMadePayload is published after every ply.
type MoveMadePayload struct {
	MatchID   string `json:"match_id"`
	SessionID string `json:"session_id,omitempty"`

	// FEN of the position after the move.
	FEN        string `json:"fen"`
	MoveSAN    string `json:"move_san"`
	MoveNumber int    `json:"move_number"`

	// Evaluation of the move, from the point of view of the side that played it.
	Evaluation float32 `json:"evaluation"`

	// CurrentTurn is the side to move next: "white" or "black".
	CurrentTurn string `json:"current_turn"`
}

// MatchStartingPayload is published by training sessions before each match.
type MatchStartingPayload struct {
	SessionID    string `json:"session_id"`
	MatchNumber  int    `json:"match_number"`
	TotalMatches int    `json:"total_matches"`
}

// MatchCompletePayload is published at the end of every match, after ratings are updated.
type MatchCompletePayload struct {
	MatchID    string  `json:"match_id"`
	SessionID  string  `json:"session_id,omitempty"`
	Result     string  `json:"result"`
	Winner     string  `json:"winner"`
	WhiteAgent int     `json:"white_agent"`
	BlackAgent int     `json:"black_agent"`
	WhiteElo   float64 `json:"white_elo"`
	BlackElo   float64 `json:"black_elo"`
	TotalMoves int     `json:"total_moves"`
}

// AgentsUpdatePayload is a snapshot of the statistics of the whole population.
type AgentsUpdatePayload struct {
	Agents []rating.Stats `json:"agents"`
}

// TrainingStartedPayload is published when a training session is accepted.
type TrainingStartedPayload struct {
	SessionID  string `json:"session_id"`
	NumMatches int    `json:"num_matches"`
}

// TrainingCompletePayload is published at the end of a training session.
type TrainingCompletePayload struct {
	SessionID string `json:"session_id"`

	// TotalMatches is the number of matches actually completed, failed matches excluded.
	TotalMatches int `json:"total_matches"`
}

// NewAgentsUpdate creates an AgentsUpdate event.
func NewAgentsUpdate(stats []rating.Stats) Event {
	return New(AgentsUpdate, AgentsUpdatePayload{Agents: stats})
}

// Package client implements a Go client for the HTTP API of the arena server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/janpfeifer/chessArena/internal/arena"
	"github.com/janpfeifer/chessArena/internal/board"
	"github.com/janpfeifer/chessArena/internal/events"
	"github.com/janpfeifer/chessArena/internal/match"
	"github.com/janpfeifer/chessArena/internal/rating"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Client of an arena server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the server at baseURL, e.g. "http://localhost:5000".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is returned when the server answers with an error status.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements error.
func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// do sends a request with the JSON encoding of body (if not nil), and decodes the JSON response into
// response (if not nil).
func (c *Client) do(ctx context.Context, method, path string, body, response any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request")
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrapf(err, "failed to create request %s %s", method, path)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s failed", method, path)
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "failed to read response of %s %s", method, path)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) != nil || apiErr.Error == "" {
			apiErr.Error = strings.TrimSpace(string(data))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}
	if response == nil {
		return nil
	}
	return errors.Wrapf(json.Unmarshal(data, response), "failed to decode response of %s %s", method, path)
}

// Agents returns the statistics of the agents.
func (c *Client) Agents(ctx context.Context) ([]rating.Stats, error) {
	var response struct {
		Agents []rating.Stats `json:"agents"`
	}
	err := c.do(ctx, http.MethodGet, "/api/agents", nil, &response)
	return response.Agents, err
}

// Status of the arena.
func (c *Client) Status(ctx context.Context) (arena.Status, error) {
	var status arena.Status
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &status)
	return status, err
}

// PlayMatch starts a match and returns its id.
func (c *Client) PlayMatch(ctx context.Context) (string, error) {
	var response struct {
		MatchID string `json:"match_id"`
	}
	err := c.do(ctx, http.MethodPost, "/api/play-match", nil, &response)
	return response.MatchID, err
}

// StartTraining starts a training session and returns its id.
func (c *Client) StartTraining(ctx context.Context, numMatches int) (string, error) {
	var response struct {
		SessionID string `json:"session_id"`
	}
	err := c.do(ctx, http.MethodPost, "/api/start-training", map[string]int{"num_matches": numMatches}, &response)
	return response.SessionID, err
}

// Reset the population with populationSize new agents.
func (c *Client) Reset(ctx context.Context, populationSize int) error {
	return c.do(ctx, http.MethodPost, "/api/reset", map[string]int{"population_size": populationSize}, nil)
}

// Matches returns the most recent matches, up to limit (0 for the server default).
func (c *Client) Matches(ctx context.Context, limit int) ([]match.Summary, error) {
	var response struct {
		Matches []match.Summary `json:"matches"`
	}
	path := "/api/matches"
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}
	for ii := range response.Matches {
		summary := &response.Matches[ii]
		outcome, err := board.ResultFromCode(summary.Result)
		if err != nil {
			return nil, errors.WithMessagef(err, "match %s", summary.MatchID)
		}
		summary.Outcome = outcome
	}
	return response.Matches, nil
}

// Event as received from the websocket: the payload is decoded by the caller, according to Type.
type Event struct {
	Type    events.Type     `json:"type"`
	Seq     uint64          `json:"seq"`
	Time    time.Time       `json:"time"`
	Payload json.RawMessage `json:"payload"`
}

// Decode the payload of the event into v, e.g. an events.MoveMadePayload.
func (e *Event) Decode(v any) error {
	return errors.Wrapf(json.Unmarshal(e.Payload, v), "failed to decode %s payload", e.Type)
}

// Watch connects to the event stream and calls handler for each event, until ctx is done, the
// server closes the stream or handler returns an error.
// If requestAgents is true the server is asked for an agents update once connected.
func (c *Client) Watch(ctx context.Context, requestAgents bool, handler func(e *Event) error) error {
	wsURL, err := url.Parse(c.baseURL + "/ws")
	if err != nil {
		return errors.Wrapf(err, "invalid server URL %q", c.baseURL)
	}
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL.String(), nil)
	if err != nil {
		return errors.Wrapf(err, "failed to connect to %s", wsURL)
	}
	defer func() { _ = conn.Close() }()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if requestAgents {
		if err := conn.WriteJSON(events.ClientMessage{Type: events.RequestAgents}); err != nil {
			return errors.Wrap(err, "failed to request agents")
		}
	}
	for {
		var e Event
		if err := conn.ReadJSON(&e); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				klog.V(1).Infof("Event stream closed by the server: %v", err)
				return nil
			}
			return errors.Wrap(err, "failed to read event")
		}
		if err := handler(&e); err != nil {
			return err
		}
	}
}

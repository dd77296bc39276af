package events

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/janpfeifer/chessArena/internal/rating"
	"k8s.io/klog/v2"
)

// RequestAgents is the message type clients send to receive a fresh AgentsUpdate.
const RequestAgents = "request_agents"

// ClientMessage is a message sent by a websocket client.
type ClientMessage struct {
	Type string `json:"type"`
}

// WriteTimeout for each message sent to a websocket client.
const WriteTimeout = 10 * time.Second

// WebSocketHandler streams the events of a Hub to websocket clients, as JSON messages.
//
// On connection the client first receives an AgentsUpdate (with Seq 0) built with Agents, and then
// every event published on the Hub. Clients can send {"type":"request_agents"} at any time to
// receive a new AgentsUpdate.
type WebSocketHandler struct {
	Hub    *Hub
	Agents func() []rating.Stats

	Upgrader websocket.Upgrader
}

// NewWebSocketHandler returns a handler that accepts connections from any origin.
func NewWebSocketHandler(hub *Hub, agents func() []rating.Stats) *WebSocketHandler {
	return &WebSocketHandler{
		Hub:    hub,
		Agents: agents,
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Dashboards may be served from anywhere.
			},
		},
	}
}

// Assert WebSocketHandler is an http.Handler.
var _ http.Handler = (*WebSocketHandler)(nil)

// ServeHTTP implements http.Handler. It returns when the client disconnects or the Hub is closed.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		klog.Errorf("Failed to upgrade websocket connection from %s: %v", r.RemoteAddr, err)
		return
	}
	defer func() { _ = conn.Close() }()
	klog.V(1).Infof("Websocket client %s connected", r.RemoteAddr)

	sub := h.Hub.Subscribe()
	defer sub.Unsubscribe()

	// Reader: only a single goroutine may read from conn.
	requests := make(chan struct{}, 1)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			var msg ClientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					klog.V(1).Infof("Websocket client %s: %v", r.RemoteAddr, err)
				}
				return
			}
			if msg.Type != RequestAgents {
				klog.V(1).Infof("Websocket client %s: ignoring message type %q", r.RemoteAddr, msg.Type)
				continue
			}
			select {
			case requests <- struct{}{}:
			default:
				// An update is already pending.
			}
		}
	}()

	send := func(e Event) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
		if err := conn.WriteJSON(e); err != nil {
			klog.V(1).Infof("Websocket client %s: write failed: %v", r.RemoteAddr, err)
			return false
		}
		return true
	}
	if !send(NewAgentsUpdate(h.Agents())) {
		return
	}
	for {
		select {
		case e, ok := <-sub.C:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "event stream ended"),
					time.Now().Add(WriteTimeout))
				return
			}
			if !send(e) {
				return
			}
		case <-requests:
			if !send(NewAgentsUpdate(h.Agents())) {
				return
			}
		case <-readerDone:
			klog.V(1).Infof("Websocket client %s disconnected", r.RemoteAddr)
			return
		}
	}
}

package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// DefaultNATSSubjectPrefix is prepended to the event type to build the NATS subject of each event.
const DefaultNATSSubjectPrefix = "arena.events"

// NATSBridge forwards the events of a Hub to a NATS broker: each event is published, as JSON, on
// the subject "<prefix>.<event type>".
type NATSBridge struct {
	Conn   *nats.Conn
	Prefix string

	sub  *Subscription
	done chan struct{}
}

// ConnectNATS connects to the NATS server at url.
func ConnectNATS(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("chessArena"),
		nats.Timeout(10*time.Second),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to NATS at %q", url)
	}
	return nc, nil
}

// NewNATSBridge subscribes to hub and starts forwarding events to conn. An empty prefix takes
// DefaultNATSSubjectPrefix.
func NewNATSBridge(hub *Hub, conn *nats.Conn, prefix string) *NATSBridge {
	if prefix == "" {
		prefix = DefaultNATSSubjectPrefix
	}
	b := &NATSBridge{Conn: conn, Prefix: prefix, sub: hub.Subscribe(), done: make(chan struct{})}
	go b.run()
	return b
}

// Subject returns the NATS subject for the given event type.
func (b *NATSBridge) Subject(eventType Type) string {
	return b.Prefix + "." + string(eventType)
}

func (b *NATSBridge) run() {
	defer close(b.done)
	for e := range b.sub.C {
		data, err := json.Marshal(e)
		if err != nil {
			klog.Errorf("Failed to encode event #%d (%s): %+v", e.Seq, e.Type, err)
			continue
		}
		if err := b.Conn.Publish(b.Subject(e.Type), data); err != nil {
			klog.Errorf("Failed to publish event #%d (%s) to NATS: %v", e.Seq, e.Type, err)
		}
	}
	if err := b.Conn.Flush(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		klog.Warningf("Failed to flush NATS connection: %v", err)
	}
}

// Close stops forwarding events, and waits for the events already received to be published.
// It doesn't close the NATS connection.
func (b *NATSBridge) Close() {
	b.sub.Unsubscribe()
	<-b.done
}

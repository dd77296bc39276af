package events

import (
	"sync"
	"time"

	"k8s.io/klog/v2"
)

const (
	// DefaultQueueSize is the number of published events the Hub buffers before Publish blocks.
	DefaultQueueSize = 1024

	// DefaultSubscriberBuffer is the number of events buffered per subscriber: a subscriber that
	// falls further behind is disconnected.
	DefaultSubscriberBuffer = 256
)

// Hub is a Sink that broadcasts events to its subscribers.
//
// Publish stamps each event with the next sequence number and enqueues it; a dispatcher goroutine
// delivers the events, in order, to every subscriber. A subscriber whose buffer is full is
// disconnected (its channel is closed) instead of skipping events, so the stream each subscriber
// receives never has gaps.
type Hub struct {
	subscriberBuffer int

	// mu serializes Publish, so events are queued in sequence order.
	mu     sync.Mutex
	seq    uint64
	closed bool
	queue  chan Event

	muSubs      sync.Mutex
	subscribers map[*Subscription]struct{}

	done chan struct{}
}

// Assert Hub is a Sink.
var _ Sink = (*Hub)(nil)

// NewHub creates and starts a Hub. Sizes <= 0 take the default values.
func NewHub(queueSize, subscriberBuffer int) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if subscriberBuffer <= 0 {
		subscriberBuffer = DefaultSubscriberBuffer
	}
	h := &Hub{
		subscriberBuffer: subscriberBuffer,
		queue:            make(chan Event, queueSize),
		subscribers:      make(map[*Subscription]struct{}),
		done:             make(chan struct{}),
	}
	go h.dispatch()
	return h
}

// Subscription to the events of a Hub.
type Subscription struct {
	// C receives the events. It is closed when the subscription ends: by Unsubscribe, by the
	// subscriber falling behind, or when the Hub is closed.
	C <-chan Event

	c   chan Event
	hub *Hub
}

// Subscribe returns a new subscription, that will receive all events published from now on.
// If the Hub is closed, the subscription channel is already closed.
func (h *Hub) Subscribe() *Subscription {
	c := make(chan Event, h.subscriberBuffer)
	sub := &Subscription{C: c, c: c, hub: h}
	h.muSubs.Lock()
	defer h.muSubs.Unlock()
	select {
	case <-h.done:
		close(c)
	default:
		h.subscribers[sub] = struct{}{}
	}
	return sub
}

// Unsubscribe ends the subscription and closes its channel. It can be called more than once.
func (s *Subscription) Unsubscribe() {
	h := s.hub
	h.muSubs.Lock()
	defer h.muSubs.Unlock()
	if _, found := h.subscribers[s]; found {
		delete(h.subscribers, s)
		close(s.c)
	}
}

// NumSubscribers returns the number of active subscriptions.
func (h *Hub) NumSubscribers() int {
	h.muSubs.Lock()
	defer h.muSubs.Unlock()
	return len(h.subscribers)
}

// Publish implements Sink. Events published after Close are dropped.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		klog.V(2).Infof("Hub closed, dropping event %q", e.Type)
		return
	}
	h.seq++
	e.Seq = h.seq
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	h.queue <- e
}

func (h *Hub) dispatch() {
	for e := range h.queue {
		h.muSubs.Lock()
		for sub := range h.subscribers {
			select {
			case sub.c <- e:
			default:
				klog.Warningf("Event subscriber fell behind at event #%d, disconnecting it", e.Seq)
				delete(h.subscribers, sub)
				close(sub.c)
			}
		}
		h.muSubs.Unlock()
	}

	// Queue closed: end all subscriptions.
	h.muSubs.Lock()
	close(h.done)
	for sub := range h.subscribers {
		delete(h.subscribers, sub)
		close(sub.c)
	}
	h.muSubs.Unlock()
}

// Close stops the Hub: events already published are delivered, then all subscriptions end.
func (h *Hub) Close() {
	h.mu.Lock()
	if !h.closed {
		h.closed = true
		close(h.queue)
	}
	h.mu.Unlock()
	<-h.done
}

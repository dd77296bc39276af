package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// receive an event from c, failing the test after a timeout.
func receive(t *testing.T, c <-chan Event) (Event, bool) {
	t.Helper()
	select {
	case e, ok := <-c:
		return e, ok
	case <-time.After(5 * time.Second):
		require.FailNow(t, "timeout waiting for event")
	}
	return Event{}, false
}

func TestHubOrdering(t *testing.T) {
	hub := NewHub(0, 0)
	subA, subB := hub.Subscribe(), hub.Subscribe()
	assert.Equal(t, 2, hub.NumSubscribers())
	const numEvents = 100
	for ii := range numEvents {
		hub.Publish(New(MoveMade, MoveMadePayload{MoveNumber: ii + 1}))
	}
	for _, sub := range []*Subscription{subA, subB} {
		for ii := range numEvents {
			e, ok := receive(t, sub.C)
			require.True(t, ok)
			assert.Equal(t, uint64(ii+1), e.Seq)
			assert.Equal(t, ii+1, e.Payload.(MoveMadePayload).MoveNumber)
			assert.False(t, e.Time.IsZero())
		}
	}

	subA.Unsubscribe()
	subA.Unsubscribe()
	_, ok := receive(t, subA.C)
	assert.False(t, ok)
	assert.Equal(t, 1, hub.NumSubscribers())

	hub.Close()
	_, ok = receive(t, subB.C)
	assert.False(t, ok, "Close must end all subscriptions")
	hub.Publish(New(AgentsUpdate, nil)) // Dropped, must not panic.
	_, ok = receive(t, hub.Subscribe().C)
	assert.False(t, ok)
}

func TestHubSlowSubscriber(t *testing.T) {
	hub := NewHub(10, 2)
	defer hub.Close()
	slow, fast := hub.Subscribe(), hub.Subscribe()
	for ii := range 5 {
		hub.Publish(New(MoveMade, ii))
		e, ok := receive(t, fast.C)
		require.True(t, ok)
		require.Equal(t, uint64(ii+1), e.Seq)
	}

	// The slow subscriber got the first 2 events, and was disconnected instead of skipping events.
	for _, want := range []uint64{1, 2} {
		e, ok := receive(t, slow.C)
		require.True(t, ok)
		assert.Equal(t, want, e.Seq)
	}
	_, ok := receive(t, slow.C)
	assert.False(t, ok)
	assert.Equal(t, 1, hub.NumSubscribers())
	slow.Unsubscribe() // No-op.
}

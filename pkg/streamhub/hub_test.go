package streamhub

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscriber struct {
	mu     sync.Mutex
	events []Event
	failAt int
	calls  int
}

func (f *fakeSubscriber) send(event Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failAt > 0 && f.calls >= f.failAt {
		return assert.AnError
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeSubscriber) received() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Event(nil), f.events...)
}

func newTestHub() *Hub {
	return NewHub("compose", 50*time.Millisecond, nil)
}

func TestPublishFlushesImmediatelyWhenIdle(t *testing.T) {
	h := newTestHub()
	ch := h.channelFor("enc-1")
	sub := &fakeSubscriber{}
	ch.addClient("c1", sub)

	h.Publish("enc-1", map[string]any{"vitals": "bp 120/80"})

	require.Eventually(t, func() bool { return len(sub.received()) == 1 }, time.Second, time.Millisecond)
	event := sub.received()[0]
	assert.Equal(t, 1, event.EventID)
	assert.Equal(t, "compose", event.Channel)
	assert.Equal(t, "compose", event.Payload["channel"])
	assert.Equal(t, "enc-1", event.Payload["encounterId"])
	assert.Equal(t, "delta", event.Type)
}

func TestPublishPreservesExplicitType(t *testing.T) {
	h := newTestHub()
	ch := h.channelFor("enc-7")
	sub := &fakeSubscriber{}
	ch.addClient("c1", sub)

	h.Publish("enc-7", map[string]any{"type": "codes_updated", "v": 1})

	require.Eventually(t, func() bool { return len(sub.received()) == 1 }, time.Second, time.Millisecond)
	event := sub.received()[0]
	assert.Equal(t, "codes_updated", event.Type)
	assert.Equal(t, "codes_updated", event.Payload["type"])
}

func TestPublishSuppressesDuplicatePayload(t *testing.T) {
	h := newTestHub()
	ch := h.channelFor("enc-2")
	sub := &fakeSubscriber{}
	ch.addClient("c1", sub)

	payload := map[string]any{"vitals": "bp 120/80"}
	h.Publish("enc-2", payload)
	require.Eventually(t, func() bool { return len(sub.received()) == 1 }, time.Second, time.Millisecond)

	h.Publish("enc-2", payload)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, sub.received(), 1, "duplicate payload should not trigger a second flush")
}

func TestPublishCoalescesRapidUpdates(t *testing.T) {
	h := newTestHub()
	ch := h.channelFor("enc-3")
	sub := &fakeSubscriber{}
	ch.addClient("c1", sub)

	h.Publish("enc-3", map[string]any{"v": 1})
	require.Eventually(t, func() bool { return len(sub.received()) == 1 }, time.Second, time.Millisecond)

	h.Publish("enc-3", map[string]any{"v": 2})
	h.Publish("enc-3", map[string]any{"v": 3})
	h.Publish("enc-3", map[string]any{"v": 4})

	require.Eventually(t, func() bool { return len(sub.received()) == 2 }, time.Second, time.Millisecond)
	last := sub.received()[1]
	assert.Equal(t, 4, last.Payload["v"])
	assert.Equal(t, 2, last.EventID)
}

func TestAddClientReplaysSnapshot(t *testing.T) {
	h := newTestHub()
	h.Publish("enc-4", map[string]any{"v": 1})
	ch := h.channelFor("enc-4")
	time.Sleep(10 * time.Millisecond)

	snapshot, eventID, ok := ch.addClient("late", &fakeSubscriber{})
	assert.True(t, ok)
	assert.Equal(t, 1, eventID)
	assert.Equal(t, 1, snapshot["v"])
}

func TestAddClientNoSnapshotWhenNothingPublished(t *testing.T) {
	h := newTestHub()
	ch := h.channelFor("enc-5")
	_, _, ok := ch.addClient("c1", &fakeSubscriber{})
	assert.False(t, ok)
}

func TestPublishDropsDeadSubscriberAfterFailedSend(t *testing.T) {
	h := newTestHub()
	ch := h.channelFor("enc-6")
	sub := &fakeSubscriber{failAt: 1}
	ch.addClient("c1", sub)

	h.Publish("enc-6", map[string]any{"v": 1})
	require.Eventually(t, func() bool { return h.SubscriberCount("enc-6") == 0 }, time.Second, time.Millisecond)
}

func TestFingerprintStableAcrossKeyOrder(t *testing.T) {
	a := fingerprint(map[string]any{"b": 2, "a": 1})
	b := fingerprint(map[string]any{"a": 1, "b": 2})
	assert.Equal(t, a, b)
}

package streamhub

import (
	"log/slog"
	"sync"
	"time"
)

// subscriber is the narrow capability a channel needs from a connected
// client: deliver an event, or learn that delivery failed and the
// subscriber should be dropped.
type subscriber interface {
	send(event Event) error
}

// channel holds the coalescing state for one encounter's delta stream.
// Every field is guarded by mu; flush scheduling runs on its own goroutine
// via time.AfterFunc and re-acquires mu before touching state.
type channel struct {
	channelName string
	encounterID string
	minInterval time.Duration
	now         func() time.Time
	logger      *slog.Logger

	mu                 sync.Mutex
	clients            map[string]subscriber
	lastEventID        int
	lastPayload        map[string]any
	lastFingerprint    string
	lastSentAt         time.Time
	hasSent            bool
	pending            map[string]any
	pendingFingerprint string
	flushTimer         *time.Timer
}

func newChannel(channelName, encounterID string, minInterval time.Duration, now func() time.Time, logger *slog.Logger) *channel {
	return &channel{
		channelName: channelName,
		encounterID: encounterID,
		minInterval: minInterval,
		now:         now,
		logger:      logger,
		clients:     make(map[string]subscriber),
	}
}

// addClient registers sub under id and returns the current snapshot
// (nil if nothing has been published yet) so the caller can replay it.
func (c *channel) addClient(id string, sub subscriber) (snapshot map[string]any, eventID int, hasSnapshot bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clients[id] = sub
	if c.lastPayload == nil {
		return nil, 0, false
	}
	return clonePayload(c.lastPayload), c.lastEventID, true
}

func (c *channel) removeClient(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.clients, id)
}

func (c *channel) clientCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clients)
}

// publish applies the fingerprint-coalescing rules from the channel's
// contract: identical payloads (matching either the last delivered
// fingerprint or an already-pending one) are suppressed; otherwise the
// payload becomes pending and is flushed immediately or after the
// remainder of minInterval.
func (c *channel) publish(payload map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fp := fingerprint(payload)

	if c.pending == nil && fp == c.lastFingerprint {
		return
	}
	if c.pending != nil && fp == c.pendingFingerprint {
		return
	}

	c.pending = clonePayload(payload)
	c.pendingFingerprint = fp

	delay := c.computeDelayLocked()
	if delay <= 0 || len(c.clients) == 0 {
		c.flushLocked()
		return
	}

	if c.flushTimer == nil {
		c.flushTimer = time.AfterFunc(delay, c.delayedFlush)
	}
}

func (c *channel) delayedFlush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushTimer = nil
	c.flushLocked()
}

// flushLocked must be called with mu held. It promotes the pending payload
// to the channel's delivered state and fans it out, unless the pending
// payload turns out to match what was last delivered.
func (c *channel) flushLocked() {
	if c.pending == nil {
		c.pendingFingerprint = ""
		return
	}
	payload := c.pending
	fp := c.pendingFingerprint
	c.pending = nil
	c.pendingFingerprint = ""

	if fp == c.lastFingerprint && c.lastPayload != nil {
		return
	}

	c.lastEventID++
	enriched := clonePayload(payload)
	eventType, _ := enriched["type"].(string)
	if eventType == "" {
		eventType = "delta"
		enriched["type"] = eventType
	}
	enriched["encounterId"] = c.encounterID
	enriched["channel"] = c.channelName
	enriched["eventId"] = c.lastEventID

	c.lastPayload = enriched
	c.lastFingerprint = fp
	c.lastSentAt = c.now()
	c.hasSent = true

	event := Event{
		Type:        eventType,
		EncounterID: c.encounterID,
		Channel:     c.channelName,
		EventID:     c.lastEventID,
		Payload:     enriched,
	}

	var dead []string
	for id, sub := range c.clients {
		if err := sub.send(event); err != nil {
			dead = append(dead, id)
		}
	}
	for _, id := range dead {
		delete(c.clients, id)
	}
}

// computeDelayLocked returns 0 if nothing has been sent yet, otherwise the
// remaining time until minInterval has elapsed since the last flush.
func (c *channel) computeDelayLocked() time.Duration {
	if !c.hasSent {
		return 0
	}
	elapsed := c.now().Sub(c.lastSentAt)
	remaining := c.minInterval - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Package streamhub fans encounter delta events out to WebSocket
// subscribers: one logical channel per encounter, coalescing rapid
// publishes into at most one flush per MinInterval, replaying the latest
// snapshot to new subscribers, and assigning monotonically increasing
// event ids per encounter.
package streamhub

import "time"

// DefaultMinInterval is the minimum spacing between flushes of a single
// encounter channel, used when Hub is constructed with a zero interval.
const DefaultMinInterval = 500 * time.Millisecond

// DefaultWriteTimeout bounds how long a single client write may block.
const DefaultWriteTimeout = 5 * time.Second

// Event is one delivered message: either the "connected" handshake or a
// coalesced delta payload.
type Event struct {
	Type        string
	EncounterID string
	Channel     string
	EventID     int
	Payload     map[string]any
}

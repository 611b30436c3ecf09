package streamhub

import (
	"log/slog"
	"sync"
	"time"
)

// Hub is one named publish domain (e.g. "codes", "compliance", "compose"),
// holding one coalescing channel state per encounter. Different encounters publish
// and flush fully independently; only same-encounter operations share a
// lock. A deployment wires up one Hub per channel name.
type Hub struct {
	name        string
	mu          sync.Mutex
	channels    map[string]*channel
	minInterval time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

// NewHub constructs a Hub for the named publish domain. A zero minInterval
// uses DefaultMinInterval; a nil logger uses slog.Default.
func NewHub(name string, minInterval time.Duration, logger *slog.Logger) *Hub {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		name:        name,
		channels:    make(map[string]*channel),
		minInterval: minInterval,
		now:         time.Now,
		logger:      logger,
	}
}

func (h *Hub) channelFor(encounterID string) *channel {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch, ok := h.channels[encounterID]
	if !ok {
		ch = newChannel(h.name, encounterID, h.minInterval, h.now, h.logger)
		h.channels[encounterID] = ch
	}
	return ch
}

// Publish coalesces payload into encounterID's channel, flushing
// immediately or after the channel's remaining min-interval window.
func (h *Hub) Publish(encounterID string, payload map[string]any) {
	h.channelFor(encounterID).publish(payload)
}

// SubscriberCount reports how many clients are attached to encounterID's
// channel, for tests and diagnostics.
func (h *Hub) SubscriberCount(encounterID string) int {
	h.mu.Lock()
	ch, ok := h.channels[encounterID]
	h.mu.Unlock()
	if !ok {
		return 0
	}
	return ch.clientCount()
}

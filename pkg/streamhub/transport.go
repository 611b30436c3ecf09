package streamhub

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// wsConn is the subset of *websocket.Conn the transport needs, so tests can
// substitute a fake.
type wsConn interface {
	Write(ctx context.Context, typ websocket.MessageType, data []byte) error
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Close(code websocket.StatusCode, reason string) error
}

type wsSubscriber struct {
	ctx          context.Context
	conn         wsConn
	writeTimeout time.Duration
}

func (s wsSubscriber) send(event Event) error {
	data, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(s.ctx, s.writeTimeout)
	defer cancel()
	return s.conn.Write(writeCtx, websocket.MessageText, data)
}

// HandleConnection runs the lifecycle of one WebSocket client subscribed to
// encounterID's delta channel: it performs the connected handshake, replays
// the current snapshot if one exists, then blocks reading (and discarding)
// client frames until the connection closes, at which point it
// unregisters the client. writeTimeout bounds each individual send;
// HandleConnection itself returns only once the connection is done.
func (h *Hub) HandleConnection(ctx context.Context, conn wsConn, encounterID string, writeTimeout time.Duration) {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	ch := h.channelFor(encounterID)
	clientID := uuid.New().String()
	sub := wsSubscriber{ctx: ctx, conn: conn, writeTimeout: writeTimeout}

	handshake := map[string]any{
		"event":       "connected",
		"channel":     h.name,
		"encounterId": encounterID,
	}
	if err := sub.send(Event{Payload: handshake}); err != nil {
		_ = conn.Close(websocket.StatusInternalError, "handshake failed")
		return
	}

	snapshot, eventID, hasSnapshot := ch.addClient(clientID, sub)
	defer ch.removeClient(clientID)

	if hasSnapshot {
		snapshot["eventId"] = eventID
		if err := sub.send(Event{Payload: snapshot}); err != nil {
			_ = conn.Close(websocket.StatusInternalError, "snapshot delivery failed")
			return
		}
	}

	for {
		if _, _, err := conn.Read(ctx); err != nil {
			h.logger.Debug("stream connection closed", "encounter_id", encounterID, "error", err)
			return
		}
	}
}

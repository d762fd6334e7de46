package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/bethesda-mission/shelterline/pkg/models"
)

// SnapshotProvider serves the authoritative state a subscriber reads to
// recover from missed events. Implemented by the reservation service.
type SnapshotProvider interface {
	BedSnapshot(ctx context.Context) ([]models.Bed, error)
	ActiveReservations(ctx context.Context) ([]*models.Reservation, error)
}

// ConnectionManager manages WebSocket connections and channel subscriptions.
// Each connection gets its own Notifier subscription, so one slow dashboard
// only loses its own events.
type ConnectionManager struct {
	notifier  *Notifier
	snapshots SnapshotProvider

	// Active connections: connection_id → *Connection
	connections map[string]*Connection
	mu          sync.RWMutex

	// Write timeout for WebSocket sends
	writeTimeout time.Duration
}

// Connection represents a single WebSocket client.
//
// subscriptions is guarded by subMu: the read loop writes it while the
// pump goroutine reads it when routing events.
type Connection struct {
	ID            string
	Conn          *websocket.Conn
	subscriptions map[string]bool
	subMu         sync.RWMutex
	ctx           context.Context
	cancel        context.CancelFunc
}

func (c *Connection) subscribed(channel string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return c.subscriptions[channel]
}

func (c *Connection) setSubscribed(channel string, on bool) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if on {
		c.subscriptions[channel] = true
	} else {
		delete(c.subscriptions, channel)
	}
}

// NewConnectionManager creates a new ConnectionManager.
func NewConnectionManager(notifier *Notifier, snapshots SnapshotProvider, writeTimeout time.Duration) *ConnectionManager {
	return &ConnectionManager{
		notifier:     notifier,
		snapshots:    snapshots,
		connections:  make(map[string]*Connection),
		writeTimeout: writeTimeout,
	}
}

// HandleConnection manages the lifecycle of a single WebSocket connection.
// Called by the WebSocket HTTP handler after upgrade. Blocks until the
// connection closes.
func (m *ConnectionManager) HandleConnection(parentCtx context.Context, conn *websocket.Conn) {
	connID := uuid.New().String()
	ctx, cancel := context.WithCancel(parentCtx)

	c := &Connection{
		ID:            connID,
		Conn:          conn,
		subscriptions: make(map[string]bool),
		ctx:           ctx,
		cancel:        cancel,
	}

	m.registerConnection(c)
	defer m.unregisterConnection(c)

	sub := m.notifier.Subscribe()
	defer m.notifier.Unsubscribe(sub.ID())

	go m.pump(c, sub)

	m.sendJSON(c, map[string]string{
		"type":          "connection.established",
		"connection_id": connID,
	})

	// Read loop: process client messages until the connection closes
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("Invalid WebSocket message",
				"connection_id", connID, "error", err)
			continue
		}

		m.handleClientMessage(ctx, c, &msg)
	}
}

// pump forwards events from the connection's subscription to the socket.
// A non-zero drop count means the queue overflowed; the client is told to
// re-snapshot before the next event is delivered.
func (m *ConnectionManager) pump(c *Connection, sub *Subscription) {
	for {
		select {
		case <-c.ctx.Done():
			return
		case event := <-sub.Events():
			if lost := sub.TakeDropped(); lost > 0 {
				m.sendJSON(c, map[string]any{
					"type": "events.lost",
					"lost": lost,
				})
			}
			if !c.subscribed(event.Channel) {
				continue
			}
			data, err := json.Marshal(event.Payload)
			if err != nil {
				slog.Warn("Failed to marshal event payload",
					"connection_id", c.ID, "error", err)
				continue
			}
			if err := m.sendRaw(c, data); err != nil {
				slog.Warn("Failed to send to WebSocket client",
					"connection_id", c.ID, "error", err)
			}
		}
	}
}

// ActiveConnections returns the count of active WebSocket connections.
func (m *ConnectionManager) ActiveConnections() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// handleClientMessage dispatches a client message to the appropriate handler.
func (m *ConnectionManager) handleClientMessage(ctx context.Context, c *Connection, msg *ClientMessage) {
	switch msg.Action {
	case "subscribe":
		if !validChannel(msg.Channel) {
			m.sendJSON(c, map[string]string{"type": "error", "message": "unknown channel"})
			return
		}
		c.setSubscribed(msg.Channel, true)
		m.sendJSON(c, map[string]string{
			"type":    "subscription.confirmed",
			"channel": msg.Channel,
		})
		// Snapshot catch-up: a late subscriber starts from authoritative
		// state instead of replaying missed events.
		m.sendSnapshot(ctx, c, msg.Channel)

	case "unsubscribe":
		if msg.Channel == "" {
			m.sendJSON(c, map[string]string{"type": "error", "message": "channel is required for unsubscribe"})
			return
		}
		c.setSubscribed(msg.Channel, false)

	case "snapshot":
		if !validChannel(msg.Channel) {
			m.sendJSON(c, map[string]string{"type": "error", "message": "unknown channel"})
			return
		}
		m.sendSnapshot(ctx, c, msg.Channel)

	case "ping":
		m.sendJSON(c, map[string]string{"type": "pong"})
	}
}

func validChannel(channel string) bool {
	return channel == BedsChannel || channel == ReservationsChannel
}

// sendSnapshot delivers the channel's full current state to one client.
func (m *ConnectionManager) sendSnapshot(ctx context.Context, c *Connection, channel string) {
	if m.snapshots == nil {
		return
	}

	switch channel {
	case BedsChannel:
		beds, err := m.snapshots.BedSnapshot(ctx)
		if err != nil {
			slog.Error("Bed snapshot failed", "connection_id", c.ID, "error", err)
			return
		}
		m.sendJSON(c, map[string]any{
			"type":    "snapshot",
			"channel": BedsChannel,
			"beds":    beds,
		})
	case ReservationsChannel:
		reservations, err := m.snapshots.ActiveReservations(ctx)
		if err != nil {
			slog.Error("Reservation snapshot failed", "connection_id", c.ID, "error", err)
			return
		}
		m.sendJSON(c, map[string]any{
			"type":         "snapshot",
			"channel":      ReservationsChannel,
			"reservations": reservations,
		})
	}
}

// registerConnection adds a connection to the tracking map.
func (m *ConnectionManager) registerConnection(c *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[c.ID] = c
}

// unregisterConnection removes a connection and stops its pump.
func (m *ConnectionManager) unregisterConnection(c *Connection) {
	m.mu.Lock()
	delete(m.connections, c.ID)
	m.mu.Unlock()

	c.cancel()
	_ = c.Conn.Close(websocket.StatusNormalClosure, "")
}

// sendJSON marshals and sends a JSON message to a single connection.
func (m *ConnectionManager) sendJSON(c *Connection, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("Failed to marshal WebSocket message",
			"connection_id", c.ID, "error", err)
		return
	}
	if err := m.sendRaw(c, data); err != nil {
		slog.Warn("Failed to send WebSocket message",
			"connection_id", c.ID, "error", err)
	}
}

// sendRaw sends raw bytes to a single connection with a write timeout.
func (m *ConnectionManager) sendRaw(c *Connection, data []byte) error {
	writeCtx, cancel := context.WithTimeout(c.ctx, m.writeTimeout)
	defer cancel()
	return c.Conn.Write(writeCtx, websocket.MessageText, data)
}

// Package feed pushes booking events to managers over websockets.
package feed

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
	sendBuffer = 64
)

// Event is pushed to every connection subscribed to SalonID.
type Event struct {
	Type    string    `json:"type"`
	SalonID string    `json:"salon_id"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload,omitempty"`
}

type connection struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
	salons map[string]bool
}

// Hub tracks live manager connections. A user may hold several.
type Hub struct {
	mu          sync.RWMutex
	connections map[*connection]struct{}
	log         zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[*connection]struct{}),
		log:         log.With().Str("component", "booking_feed").Logger(),
	}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = struct{}{}
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[c]; ok {
		delete(h.connections, c)
		close(c.send)
	}
}

// Connections returns the number of live connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Publish fans an event out to the salon's subscribers. Slow clients miss it.
func (h *Hub) Publish(salonID, eventType string, payload any) {
	data, err := json.Marshal(Event{Type: eventType, SalonID: salonID, At: time.Now().UTC(), Payload: payload})
	if err != nil {
		h.log.Error().Err(err).Str("type", eventType).Msg("encode feed event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.connections {
		if !c.salons[salonID] {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.log.Warn().Str("user_id", c.userID).Str("salon_id", salonID).Msg("feed client too slow, event skipped")
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.connections {
		delete(h.connections, c)
		close(c.send)
	}
}

// ServeWS runs the connection until the client goes away.
func (h *Hub) ServeWS(conn *websocket.Conn, userID string, salonIDs []string) {
	c := &connection{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		salons: make(map[string]bool, len(salonIDs)),
	}
	for _, id := range salonIDs {
		c.salons[id] = true
	}

	h.register(c)
	h.log.Debug().Str("user_id", userID).Int("salons", len(salonIDs)).Msg("feed client connected")

	go h.writePump(c)
	h.readPump(c)
}

// readPump only keeps the connection alive; clients have nothing to say.
func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Str("user_id", c.userID).Msg("feed client read error")
			}
			return
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

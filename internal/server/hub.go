package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spottube/internal/shared"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 64
)

// Envelope is the frame exchanged over the socket in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func encode(event string, data any) ([]byte, error) {
	env := struct {
		Event string `json:"event"`
		Data  any    `json:"data,omitempty"`
	}{event, data}
	return json.Marshal(env)
}

// Client is one websocket connection belonging to a user.
type Client struct {
	ID   string
	User string

	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

func newClient(hub *Hub, conn *websocket.Conn, user string) *Client {
	return &Client{
		ID:   shared.GenerateID(),
		User: user,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		hub:  hub,
	}
}

// Hub groups clients into one room per user and fans events out to them.
type Hub struct {
	logger *log.Logger

	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{logger: logger, rooms: make(map[string]map[*Client]struct{})}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[c.User]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.User] = room
	}
	room[c] = struct{}{}
	h.logger.Debug("client joined", "user", c.User, "client", c.ID, "room_size", len(room))
}

// remove drops c from its room and closes its send channel. Safe to call twice.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	room := h.rooms[c.User]
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	close(c.send)
	if len(room) == 0 {
		delete(h.rooms, c.User)
	}
	h.logger.Debug("client left", "user", c.User, "client", c.ID)
}

// Publish sends an event to every client of user. Clients whose buffer is full are dropped.
func (h *Hub) Publish(user, event string, data any) {
	msg, err := encode(event, data)
	if err != nil {
		h.logger.Error("encode event", "event", event, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[user] {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("dropping slow client", "user", user, "client", c.ID)
			h.removeLocked(c)
		}
	}
}

// Send delivers an event to a single client.
func (h *Hub) Send(c *Client, event string, data any) {
	msg, err := encode(event, data)
	if err != nil {
		h.logger.Error("encode event", "event", event, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[c.User][c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
		h.logger.Warn("dropping slow client", "user", c.User, "client", c.ID)
		h.removeLocked(c)
	}
}

// RoomSize is the number of connected clients for user.
func (h *Hub) RoomSize(user string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[user])
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range h.rooms {
		for c := range room {
			h.removeLocked(c)
		}
	}
}

// writePump drains the send channel onto the connection and keeps it alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump decodes inbound frames until the peer goes away.
func (c *Client) readPump(handle func(Envelope)) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.hub.logger.Warn("socket read", "user", c.User, "client", c.ID, "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.hub.logger.Warn("malformed frame", "user", c.User, "error", err)
			continue
		}
		handle(env)
	}
}

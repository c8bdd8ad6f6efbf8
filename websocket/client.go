package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 65536
)

// Identity is the (userId, userEmail) pair bound to a connection. Either or
// both fields may be empty; an unbound connection sees no rooms.
type Identity struct {
	UserID string
	Email  string
}

// IsEmpty reports whether the connection has no identity at all.
func (id Identity) IsEmpty() bool {
	return id.UserID == "" && id.Email == ""
}

// Matches reports whether the given stable identity string refers to this
// identity.
func (id Identity) Matches(s string) bool {
	if s == "" {
		return false
	}
	return s == id.UserID || s == id.Email
}

// Client represents a connected websocket client
type Client struct {
	id     string
	hub    *Hub
	router *Router
	conn   *websocket.Conn
	send   chan []byte

	mu       sync.RWMutex
	identity Identity
	rooms    map[uint]bool
	closed   bool
}

func newClient(hub *Hub, router *Router, conn *websocket.Conn) *Client {
	return &Client{
		id:     uuid.New().String(),
		hub:    hub,
		router: router,
		conn:   conn,
		send:   make(chan []byte, 256),
		rooms:  make(map[uint]bool),
	}
}

// ID returns the server-assigned connection id.
func (c *Client) ID() string {
	return c.id
}

// BindIdentity overwrites both identity fields. No merge: absent fields are
// simply cleared.
func (c *Client) BindIdentity(userID, email string) {
	c.mu.Lock()
	c.identity = Identity{UserID: userID, Email: email}
	c.mu.Unlock()
}

// Identity returns the currently bound identity.
func (c *Client) Identity() Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}

func (c *Client) trackRoom(roomID uint) {
	c.mu.Lock()
	c.rooms[roomID] = true
	c.mu.Unlock()
}

func (c *Client) untrackRoom(roomID uint) {
	c.mu.Lock()
	delete(c.rooms, roomID)
	c.mu.Unlock()
}

func (c *Client) inRoom(roomID uint) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rooms[roomID]
}

// enqueue hands an event to the write pump without blocking; slow consumers
// lose events rather than stalling the sender.
func (c *Client) enqueue(data []byte) {
	if data == nil {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Warn().Str("conn", c.id).Msg("send buffer full, dropping event")
	}
}

// close shuts the send channel exactly once. Safe to call while broadcasts
// are in flight; late enqueues become no-ops.
func (c *Client) close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
}

// readPump pumps messages from the websocket connection to the router
func (c *Client) readPump() {
	defer func() {
		c.router.Disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("conn", c.id).Msg("read error")
			}
			break
		}
		c.router.Dispatch(c, message)
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

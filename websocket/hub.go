package websocket

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/CharanLingolu/LC-Ai-Backend/store"
)

// Hub maintains the set of active clients and delivers events to them. Three
// delivery shapes exist: a single connection, every connection joined to a
// room, and every live connection filtered per-recipient by room visibility.
//
// All map access happens under the mutex, but the mutex is never held while
// writing to a client's send channel: delivery targets are snapshotted first.
type Hub struct {
	mu sync.RWMutex

	// Registered clients keyed by connection id
	clients map[string]*Client

	// Rooms mapping (roomID -> connectionID -> client)
	rooms map[uint]map[string]*Client

	roomStore store.RoomStore
}

// NewHub creates a new hub instance
func NewHub(roomStore store.RoomStore) *Hub {
	return &Hub{
		clients:   make(map[string]*Client),
		rooms:     make(map[uint]map[string]*Client),
		roomStore: roomStore,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
}

// Unregister removes a client and its room memberships, and closes its send
// channel. Idempotent: a second call for the same client is a no-op.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	c.close()

	for roomID, members := range h.rooms {
		if _, ok := members[c.id]; ok {
			delete(members, c.id)
			if len(members) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
}

// JoinRoom adds a client to a room's broadcast group.
func (h *Hub) JoinRoom(c *Client, roomID uint) {
	h.mu.Lock()
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[string]*Client)
	}
	h.rooms[roomID][c.id] = c
	h.mu.Unlock()

	c.trackRoom(roomID)
}

// LeaveRoom removes a client from a room's broadcast group.
func (h *Hub) LeaveRoom(c *Client, roomID uint) {
	h.mu.Lock()
	if members, ok := h.rooms[roomID]; ok {
		delete(members, c.id)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	h.mu.Unlock()

	c.untrackRoom(roomID)
}

// RoomIDs returns the rooms the client is currently joined to.
func (h *Hub) RoomIDs(c *Client) []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var ids []uint
	for roomID, members := range h.rooms {
		if _, ok := members[c.id]; ok {
			ids = append(ids, roomID)
		}
	}
	return ids
}

// PresenceCount reports how many connections are joined to a room right now.
// Always derived from the live table, never cached.
func (h *Hub) PresenceCount(roomID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// SendToClient delivers an event to a single connection by id. Returns false
// when no such connection exists.
func (h *Hub) SendToClient(connectionID string, data []byte) bool {
	h.mu.RLock()
	c, ok := h.clients[connectionID]
	h.mu.RUnlock()

	if !ok {
		return false
	}
	c.enqueue(data)
	return true
}

// BroadcastToRoom sends an event to every connection joined to a room.
func (h *Hub) BroadcastToRoom(roomID uint, data []byte) {
	h.BroadcastToRoomExcept(roomID, "", data)
}

// BroadcastToRoomExcept sends an event to every connection joined to a room
// except the given connection id.
func (h *Hub) BroadcastToRoomExcept(roomID uint, exceptID string, data []byte) {
	if data == nil {
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[roomID]))
	for id, c := range h.rooms[roomID] {
		if id == exceptID {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(data)
	}
}

// BroadcastPresence refreshes the presence count for a room.
func (h *Hub) BroadcastPresence(roomID uint) {
	h.BroadcastToRoom(roomID, newEvent(EvPresenceUpdate, map[string]any{
		"roomId": roomID,
		"count":  h.PresenceCount(roomID),
	}))
}

// SendRoomList sends the visibility-filtered room list to one connection.
func (h *Hub) SendRoomList(ctx context.Context, c *Client) error {
	rooms, err := h.roomStore.Find(ctx)
	if err != nil {
		return fmt.Errorf("load rooms: %w", err)
	}
	c.enqueue(newEvent(EvRoomListUpdate, VisibleRooms(rooms, c.Identity())))
	return nil
}

// BroadcastRoomList refreshes the room list for every live connection,
// filtered per recipient. One O(connections) scan per room mutation.
func (h *Hub) BroadcastRoomList(ctx context.Context) {
	rooms, err := h.roomStore.Find(ctx)
	if err != nil {
		log.Error().Err(err).Msg("room list refresh failed")
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(newEvent(EvRoomListUpdate, VisibleRooms(rooms, c.Identity())))
	}
}

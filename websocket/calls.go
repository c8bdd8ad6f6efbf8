package websocket

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// CallSession is the ephemeral record of an active call in one room. It is
// never persisted: a session exists exactly as long as it has participants.
type CallSession struct {
	RoomID          uint
	StartedBy       string
	StartedAt       time.Time
	MaxParticipants int

	// connection id -> display name
	participants map[string]string
}

// CallManager owns the table of active call sessions. The raw table is never
// exposed; all mutation goes through Join, Leave and Disconnect, which also
// emit the related events.
type CallManager struct {
	mu       sync.Mutex
	sessions map[uint]*CallSession
	hub      *Hub
}

func NewCallManager(hub *Hub) *CallManager {
	return &CallManager{
		sessions: make(map[uint]*CallSession),
		hub:      hub,
	}
}

// Join registers a connection as a call participant for a room, creating the
// session on first join. The joiner receives the list of existing peers for
// point-to-point signaling; existing peers are told about the newcomer.
// Re-joining only updates the display name.
func (m *CallManager) Join(c *Client, roomID uint, displayName string) {
	m.mu.Lock()
	session, ok := m.sessions[roomID]
	started := false
	if !ok {
		session = &CallSession{
			RoomID:       roomID,
			StartedBy:    displayName,
			StartedAt:    time.Now(),
			participants: make(map[string]string),
		}
		m.sessions[roomID] = session
		started = true
	}

	_, rejoining := session.participants[c.id]
	session.participants[c.id] = displayName
	if len(session.participants) > session.MaxParticipants {
		session.MaxParticipants = len(session.participants)
	}

	peers := make([]CallPeer, 0, len(session.participants)-1)
	for id, name := range session.participants {
		if id == c.id {
			continue
		}
		peers = append(peers, CallPeer{ConnectionID: id, DisplayName: name})
	}
	count := len(session.participants)
	m.mu.Unlock()

	c.enqueue(newEvent(EvExistingPeers, map[string]any{
		"roomId": roomID,
		"peers":  peers,
	}))

	if started {
		m.hub.BroadcastToRoomExcept(roomID, c.id, newEvent(EvCallStarted, map[string]any{
			"roomId":    roomID,
			"startedBy": displayName,
		}))
		log.Info().Uint("room", roomID).Str("by", displayName).Msg("call started")
	}

	if !rejoining {
		joined := newEvent(EvUserJoinedCall, map[string]any{
			"roomId":           roomID,
			"connectionId":     c.id,
			"displayName":      displayName,
			"participantCount": count,
		})
		for _, peer := range peers {
			m.hub.SendToClient(peer.ConnectionID, joined)
		}
	}
}

// Leave removes a connection from a room's call. No-op if the connection is
// not a participant; the last leave tears the session down and announces the
// call's end.
func (m *CallManager) Leave(c *Client, roomID uint) {
	m.mu.Lock()
	session, ok := m.sessions[roomID]
	if !ok {
		m.mu.Unlock()
		return
	}
	if _, ok := session.participants[c.id]; !ok {
		m.mu.Unlock()
		return
	}

	delete(session.participants, c.id)
	count := len(session.participants)
	ended := count == 0
	if ended {
		delete(m.sessions, roomID)
	}
	remaining := make([]string, 0, count)
	for id := range session.participants {
		remaining = append(remaining, id)
	}
	m.mu.Unlock()

	if ended {
		m.hub.BroadcastToRoom(roomID, newEvent(EvCallEnded, map[string]any{
			"roomId": roomID,
		}))
		log.Info().Uint("room", roomID).Int("peak", session.MaxParticipants).Msg("call ended")
		return
	}

	left := newEvent(EvUserLeftCall, map[string]any{
		"roomId":           roomID,
		"connectionId":     c.id,
		"participantCount": count,
	})
	for _, id := range remaining {
		m.hub.SendToClient(id, left)
	}
}

// Disconnect removes the connection from every call it participates in.
func (m *CallManager) Disconnect(c *Client) {
	m.mu.Lock()
	var affected []uint
	for roomID, session := range m.sessions {
		if _, ok := session.participants[c.id]; ok {
			affected = append(affected, roomID)
		}
	}
	m.mu.Unlock()

	for _, roomID := range affected {
		m.Leave(c, roomID)
	}
}

// SessionExists reports whether a room currently has an active call.
func (m *CallManager) SessionExists(roomID uint) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[roomID]
	return ok
}

// ParticipantCount returns the number of participants in a room's call, zero
// when no session exists.
func (m *CallManager) ParticipantCount(roomID uint) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[roomID]; ok {
		return len(session.participants)
	}
	return 0
}

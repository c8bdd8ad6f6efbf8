package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/CharanLingolu/LC-Ai-Backend/store"
)

// rig wires a full core against in-memory stores for tests.
type rig struct {
	hub    *Hub
	calls  *CallManager
	rooms  *RoomCoordinator
	msgs   *MessageCoordinator
	router *Router
	roomSt *store.MemoryRoomStore
	msgSt  *store.MemoryMessageStore
}

func newRig(t *testing.T) *rig {
	t.Helper()
	roomSt := store.NewMemoryRoomStore()
	msgSt := store.NewMemoryMessageStore()

	hub := NewHub(roomSt)
	calls := NewCallManager(hub)
	rooms := NewRoomCoordinator(roomSt, hub)
	msgs := NewMessageCoordinator(msgSt, roomSt, hub, nil)
	router := NewRouter(hub, calls, rooms, msgs)

	return &rig{
		hub:    hub,
		calls:  calls,
		rooms:  rooms,
		msgs:   msgs,
		router: router,
		roomSt: roomSt,
		msgSt:  msgSt,
	}
}

// connect registers a conn-less client; pumps are never started so events
// accumulate in the send buffer for inspection.
func (r *rig) connect(t *testing.T) *Client {
	t.Helper()
	c := newClient(r.hub, r.router, nil)
	r.hub.Register(c)
	return c
}

// nextEvent pops the oldest buffered event of the client.
func nextEvent(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var env Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("no event buffered")
		return Envelope{}
	}
}

// waitEvent pops buffered events until one of the wanted type appears.
func waitEvent(t *testing.T, c *Client, eventType string) json.RawMessage {
	t.Helper()
	for i := 0; i < 32; i++ {
		select {
		case data, ok := <-c.send:
			require.True(t, ok, "send channel closed while waiting for %s", eventType)
			var env Envelope
			require.NoError(t, json.Unmarshal(data, &env))
			if env.Type == eventType {
				return env.Payload
			}
		case <-time.After(time.Second):
			t.Fatalf("event %s never arrived", eventType)
		}
	}
	t.Fatalf("event %s not found within buffered events", eventType)
	return nil
}

// hasEvent reports whether an event of the given type is buffered, consuming
// the buffer up to and including the match.
func hasEvent(c *Client, eventType string) bool {
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return false
			}
			var env Envelope
			if json.Unmarshal(data, &env) == nil && env.Type == eventType {
				return true
			}
		default:
			return false
		}
	}
}

// drain discards everything buffered for the client.
func drain(c *Client) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}

func decodePayload(t *testing.T, raw json.RawMessage, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, out))
}

package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// SignalingRelay forwards call-negotiation payloads (SDP offers/answers, ICE
// candidates) to the connection they are addressed to. Best-effort only: a
// payload for a connection that no longer exists is dropped without notice.
type SignalingRelay struct {
	hub *Hub
}

func NewSignalingRelay(hub *Hub) *SignalingRelay {
	return &SignalingRelay{hub: hub}
}

// Relay forwards the raw payload verbatim to the target connection, annotated
// with the sender's connection id.
func (r *SignalingRelay) Relay(from *Client, eventType string, raw json.RawMessage) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Debug().Err(err).Str("event", eventType).Msg("malformed signaling payload")
		return
	}

	target, _ := payload["to"].(string)
	if target == "" {
		return
	}
	payload["from"] = from.id

	if !r.hub.SendToClient(target, newEvent(eventType, payload)) {
		log.Debug().Str("event", eventType).Str("to", target).Msg("signaling target gone, dropped")
	}
}

package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/CharanLingolu/LC-Ai-Backend/models"
	"github.com/CharanLingolu/LC-Ai-Backend/utils"
)

// Router is the single entry point for inbound events. It validates payloads
// at the boundary, maps event names to coordinators, and turns their errors
// into reply events for the originating connection. A panicking handler is
// isolated here; it can never take the process down.
type Router struct {
	hub   *Hub
	calls *CallManager
	rooms *RoomCoordinator
	msgs  *MessageCoordinator
	relay *SignalingRelay
}

func NewRouter(hub *Hub, calls *CallManager, rooms *RoomCoordinator, msgs *MessageCoordinator) *Router {
	return &Router{
		hub:   hub,
		calls: calls,
		rooms: rooms,
		msgs:  msgs,
		relay: NewSignalingRelay(hub),
	}
}

// Dispatch routes one inbound event. Events from the same connection are
// handled in arrival order; persistence stalls only block that connection.
func (r *Router) Dispatch(c *Client, raw []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("conn", c.id).Interface("panic", rec).Msg("event handler panicked")
			c.enqueue(failureEvent(EvError, ReasonServerError))
		}
	}()

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.enqueue(failureEvent(EvError, ReasonBadPayload))
		return
	}

	ctx := context.Background()

	switch env.Type {
	case EvRegisterUser:
		var p RegisterUserPayload
		if !r.decode(c, env.Payload, &p) {
			return
		}
		c.BindIdentity(p.UserID, p.Email)
		r.sendRoomList(ctx, c)

	case EvRequestRoomList:
		r.sendRoomList(ctx, c)

	case EvCreateRoom:
		var p CreateRoomPayload
		if !r.decode(c, env.Payload, &p) {
			return
		}
		if p.Name == "" {
			c.enqueue(failureEvent(EvRoomCreateFailed, ReasonBadPayload))
			return
		}
		r.rooms.Create(ctx, c, p)

	case EvRenameRoom:
		var p RenameRoomPayload
		if !r.decode(c, env.Payload, &p) {
			return
		}
		if p.Name == "" {
			c.enqueue(failureEvent(EvRoomUpdateFailed, ReasonBadPayload))
			return
		}
		r.rooms.Rename(ctx, c, p)

	case EvDeleteRoom:
		var p RoomIDPayload
		if !r.decode(c, env.Payload, &p) {
			return
		}
		r.rooms.Delete(ctx, c, p.RoomID)

	case EvToggleRoomAI:
		var p RoomIDPayload
		if !r.decode(c, env.Payload, &p) {
			return
		}
		r.rooms.ToggleAI(ctx, c, p.RoomID)

	case EvChangeRoomTheme:
		var p ChangeThemePayload
		if !r.decode(c, env.Payload, &p) {
			return
		}
		r.rooms.ChangeTheme(ctx, c, p)

	case EvVerifyRoomCode:
		var p VerifyCodePayload
		if !r.decode(c, env.Payload, &p) {
			return
		}
		room, err := r.rooms.VerifyCode(ctx, p.Code)
		if err != nil {
			c.enqueue(failureEvent(EvError, ReasonServerError))
			return
		}
		c.enqueue(newEvent(EvVerifyCodeResult, map[string]any{"room": room}))

	case EvJoinRoomGuest:
		r.joinGuest(ctx, c, env.Payload)

	case EvJoinRoomAuth:
		r.joinAuthenticated(ctx, c, env.Payload)

	case EvJoinRoomInvite:
		r.joinByInvite(ctx, c, env.Payload)

	case EvJoinRoom:
		var p JoinRoomPayload
		if !r.decode(c, env.Payload, &p) {
			return
		}
		r.hub.JoinRoom(c, p.RoomID)
		if p.DisplayName != "" {
			r.hub.BroadcastToRoom(p.RoomID, newEvent(EvSystemMessage, map[string]any{
				"roomId": p.RoomID,
				"text":   fmt.Sprintf("%s joined the room", p.DisplayName),
			}))
		}
		r.hub.BroadcastPresence(p.RoomID)

	case EvLeaveRoom:
		var p JoinRoomPayload
		if !r.decode(c, env.Payload, &p) {
			return
		}
		r.hub.LeaveRoom(c, p.RoomID)
		r.hub.BroadcastPresence(p.RoomID)

	case EvSendMessage:
		var p SendMessagePayload
		if !r.decode(c, env.Payload, &p) {
			return
		}
		if p.RoomID == 0 || (p.Text == "" && p.MediaURL == "") {
			c.enqueue(failureEvent(EvError, ReasonBadPayload))
			return
		}
		// Only the server mints ai and system messages.
		if p.Role != "" && p.Role != models.MessageRoleUser {
			c.enqueue(failureEvent(EvError, ReasonBadPayload))
			return
		}
		if !c.inRoom(p.RoomID) {
			c.enqueue(failureEvent(EvError, ReasonNotAuthorized))
			return
		}
		r.msgs.Send(ctx, c, p)

	case EvDeleteMessage:
		var p DeleteMessagePayload
		if !r.decode(c, env.Payload, &p) {
			return
		}
		result := r.msgs.Delete(ctx, c, p)
		c.enqueue(newEvent(EvDeleteMsgResult, result))

	case EvAddReaction:
		var p ReactionPayload
		if !r.decode(c, env.Payload, &p) {
			return
		}
		if p.MessageID == "" || p.Emoji == "" || p.UserID == "" {
			c.enqueue(failureEvent(EvError, ReasonBadPayload))
			return
		}
		r.msgs.ToggleReaction(ctx, p)

	case EvTyping:
		var p TypingPayload
		if !r.decode(c, env.Payload, &p) {
			return
		}
		r.hub.BroadcastToRoomExcept(p.RoomID, c.id, newEvent(EvTyping, p))

	case EvJoinCall:
		var p CallPayload
		if !r.decode(c, env.Payload, &p) {
			return
		}
		r.calls.Join(c, p.RoomID, p.DisplayName)

	case EvLeaveCall:
		var p CallPayload
		if !r.decode(c, env.Payload, &p) {
			return
		}
		r.calls.Leave(c, p.RoomID)

	case EvWebRTCOffer, EvWebRTCAnswer, EvWebRTCICE:
		r.relay.Relay(c, env.Type, env.Payload)

	default:
		log.Debug().Str("conn", c.id).Str("event", env.Type).Msg("unknown event")
	}
}

// Disconnect releases everything derived from the connection: call
// participation first, then room membership and hub registration. Safe to
// call once per connection from the read pump.
func (r *Router) Disconnect(c *Client) {
	affectedRooms := r.hub.RoomIDs(c)

	r.calls.Disconnect(c)
	r.hub.Unregister(c)

	for _, roomID := range affectedRooms {
		r.hub.BroadcastPresence(roomID)
	}
}

func (r *Router) joinGuest(ctx context.Context, c *Client, raw json.RawMessage) {
	var p JoinGuestPayload
	if !r.decode(c, raw, &p) {
		return
	}
	if p.Code == "" || p.Name == "" {
		c.enqueue(failureEvent(EvGuestJoinFailed, ReasonBadPayload))
		return
	}

	guestID := utils.GuestID()
	c.BindIdentity(guestID, "")

	room, reason, err := r.rooms.JoinByCode(ctx, c, p.Code, guestID, p.Name, models.RoleGuest)
	if err != nil {
		c.enqueue(failureEvent(EvGuestJoinFailed, reason))
		return
	}

	c.enqueue(newEvent(EvGuestJoinedSuccess, map[string]any{
		"room":    room,
		"guestId": guestID,
	}))
}

func (r *Router) joinAuthenticated(ctx context.Context, c *Client, raw json.RawMessage) {
	var p JoinAuthPayload
	if !r.decode(c, raw, &p) {
		return
	}
	if p.Code == "" || (p.UserID == "" && p.Email == "") {
		c.enqueue(newEvent(EvAuthJoinResult, map[string]any{"ok": false, "reason": ReasonBadPayload}))
		return
	}

	c.BindIdentity(p.UserID, p.Email)

	memberID := p.Email
	if memberID == "" {
		memberID = p.UserID
	}
	displayName := p.Name
	if displayName == "" {
		displayName = memberID
	}

	room, reason, err := r.rooms.JoinByCode(ctx, c, p.Code, memberID, displayName, models.RoleMember)
	if err != nil {
		c.enqueue(newEvent(EvAuthJoinResult, map[string]any{"ok": false, "reason": reason}))
		return
	}

	c.enqueue(newEvent(EvAuthJoinResult, map[string]any{"ok": true, "room": room}))
}

func (r *Router) joinByInvite(ctx context.Context, c *Client, raw json.RawMessage) {
	var p JoinInvitePayload
	if !r.decode(c, raw, &p) {
		return
	}
	if p.LinkID == "" || (p.UserID == "" && p.Email == "" && p.Name == "") {
		c.enqueue(newEvent(EvInviteJoinResult, map[string]any{"ok": false, "reason": ReasonBadPayload}))
		return
	}

	memberID := p.Email
	role := models.RoleMember
	if memberID == "" {
		memberID = p.UserID
	}
	if memberID == "" {
		memberID = utils.GuestID()
		role = models.RoleGuest
	}
	displayName := p.Name
	if displayName == "" {
		displayName = memberID
	}

	if role == models.RoleGuest {
		c.BindIdentity(memberID, "")
	} else {
		c.BindIdentity(p.UserID, p.Email)
	}

	room, reason, err := r.rooms.JoinByInviteLink(ctx, c, p.LinkID, memberID, displayName, role)
	if err != nil {
		c.enqueue(newEvent(EvInviteJoinResult, map[string]any{"ok": false, "reason": reason}))
		return
	}

	result := map[string]any{"ok": true, "room": room}
	if role == models.RoleGuest {
		result["guestId"] = memberID
	}
	c.enqueue(newEvent(EvInviteJoinResult, result))
}

func (r *Router) sendRoomList(ctx context.Context, c *Client) {
	if err := r.hub.SendRoomList(ctx, c); err != nil {
		log.Error().Err(err).Str("conn", c.id).Msg("room list send failed")
		c.enqueue(failureEvent(EvError, ReasonServerError))
	}
}

func (r *Router) decode(c *Client, raw json.RawMessage, out any) bool {
	if len(raw) == 0 {
		c.enqueue(failureEvent(EvError, ReasonBadPayload))
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.enqueue(failureEvent(EvError, ReasonBadPayload))
		return false
	}
	return true
}

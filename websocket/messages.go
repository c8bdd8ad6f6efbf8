package websocket

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/CharanLingolu/LC-Ai-Backend/models"
	"github.com/CharanLingolu/LC-Ai-Backend/services"
	"github.com/CharanLingolu/LC-Ai-Backend/store"
)

const aiMention = "@ai"

// DeleteResult is the ack payload for a delete_message request.
type DeleteResult struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// MessageCoordinator persists chat messages and reactions and fans them out.
// When the store is down it downgrades to ephemeral delivery instead of
// failing the sender: chat liveness is worth more than durability here.
type MessageCoordinator struct {
	messages store.MessageStore
	rooms    store.RoomStore
	hub      *Hub
	ai       services.AIChatProxy
}

func NewMessageCoordinator(messages store.MessageStore, rooms store.RoomStore, hub *Hub, ai services.AIChatProxy) *MessageCoordinator {
	return &MessageCoordinator{messages: messages, rooms: rooms, hub: hub, ai: ai}
}

// Send persists the draft and broadcasts it to the room. On persistence
// failure the message is still broadcast under a temporary id with the
// client-supplied timestamp; it will not survive a reload.
func (mc *MessageCoordinator) Send(ctx context.Context, c *Client, p SendMessagePayload) {
	role := p.Role
	if role == "" {
		role = models.MessageRoleUser
	}

	msg := models.Message{
		ID:              uuid.New().String(),
		RoomID:          p.RoomID,
		SenderUserID:    p.SenderUserID,
		SenderGuestName: p.SenderGuestName,
		Role:            role,
		Content:         p.Text,
		MediaURL:        p.MediaURL,
		MediaType:       p.MediaType,
		Reactions:       []models.Reaction{},
		CreatedAt:       time.Now(),
	}

	if err := mc.messages.Create(ctx, &msg); err != nil {
		log.Warn().Err(err).Uint("room", p.RoomID).Msg("message persist failed, degrading to ephemeral delivery")
		msg.ID = models.EphemeralIDPrefix + uuid.New().String()
		if p.SentAt > 0 {
			msg.CreatedAt = time.UnixMilli(p.SentAt)
		}
	}

	mc.hub.BroadcastToRoom(msg.RoomID, newEvent(EvReceiveMessage, msg))

	if role == models.MessageRoleUser && strings.HasPrefix(strings.ToLower(strings.TrimSpace(msg.Content)), aiMention) {
		go mc.maybeAIReply(msg)
	}
}

// Delete removes a message when the requester is authorized. Authorization
// passes for the sender (by bound identity or a requester-supplied candidate
// id), for a guest claiming the sender's guest name, and for the owner of the
// message's room.
func (mc *MessageCoordinator) Delete(ctx context.Context, c *Client, p DeleteMessagePayload) DeleteResult {
	msg, err := mc.messages.FindByID(ctx, p.MessageID)
	if errors.Is(err, store.ErrNotFound) {
		return DeleteResult{Error: ReasonMessageNotFound}
	}
	if err != nil {
		log.Error().Err(err).Str("message", p.MessageID).Msg("load message for delete")
		return DeleteResult{Error: ReasonServerError}
	}

	if !mc.mayDelete(ctx, c, msg, p) {
		log.Warn().Str("message", p.MessageID).Str("conn", c.id).Msg("unauthorized delete attempt")
		return DeleteResult{Error: ReasonNotAuthorized}
	}

	if err := mc.messages.Delete(ctx, msg.ID); err != nil {
		log.Error().Err(err).Str("message", msg.ID).Msg("delete message")
		return DeleteResult{Error: ReasonServerError}
	}

	mc.hub.BroadcastToRoom(msg.RoomID, newEvent(EvMessageDeleted, map[string]any{
		"messageId": msg.ID,
		"roomId":    msg.RoomID,
	}))
	return DeleteResult{OK: true}
}

func (mc *MessageCoordinator) mayDelete(ctx context.Context, c *Client, msg *models.Message, p DeleteMessagePayload) bool {
	identity := c.Identity()

	if msg.SenderUserID != "" {
		if identity.UserID != "" && identity.UserID == msg.SenderUserID {
			return true
		}
		// Clients that have not rebound their identity yet may supply a
		// candidate id with the request.
		if p.RequesterUserID != "" && p.RequesterUserID == msg.SenderUserID {
			return true
		}
	}

	// Guests are trusted on name alone. Any guest claiming the sender's name
	// can delete the message; see the product notes before tightening this.
	if msg.SenderGuestName != "" && p.RequesterGuestName == msg.SenderGuestName {
		return true
	}

	room, err := mc.rooms.FindByID(ctx, msg.RoomID)
	if err != nil {
		return false
	}
	return identity.Matches(room.OwnerID)
}

// ToggleReaction flips a user's emoji reaction on a message. Same emoji
// toggles off; a different emoji replaces the user's existing entry, so each
// user holds at most one reaction per message.
func (mc *MessageCoordinator) ToggleReaction(ctx context.Context, p ReactionPayload) {
	msg, err := mc.messages.FindByID(ctx, p.MessageID)
	if err != nil {
		log.Warn().Err(err).Str("message", p.MessageID).Msg("load message for reaction")
		return
	}

	next := make([]models.Reaction, 0, len(msg.Reactions)+1)
	removed := false
	for _, r := range msg.Reactions {
		if r.UserID == p.UserID {
			if r.Emoji == p.Emoji {
				removed = true
			}
			continue
		}
		next = append(next, r)
	}
	if !removed {
		next = append(next, models.Reaction{
			MessageID:   msg.ID,
			UserID:      p.UserID,
			Emoji:       p.Emoji,
			DisplayName: p.DisplayName,
		})
	}

	if err := mc.messages.SetReactions(ctx, msg.ID, next); err != nil {
		log.Error().Err(err).Str("message", msg.ID).Msg("persist reactions")
		return
	}

	mc.hub.BroadcastToRoom(msg.RoomID, newEvent(EvReactionUpdated, map[string]any{
		"messageId": msg.ID,
		"roomId":    msg.RoomID,
		"reactions": next,
	}))
}

// maybeAIReply asks the AI proxy for a completion and posts it back into the
// room as an ai-role message. Runs off the hot path; failures are logged and
// dropped, never surfaced to the sender.
func (mc *MessageCoordinator) maybeAIReply(trigger models.Message) {
	if mc.ai == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	room, err := mc.rooms.FindByID(ctx, trigger.RoomID)
	if err != nil || !room.AllowAI {
		return
	}

	history, err := mc.messages.Find(ctx, trigger.RoomID, 20)
	if err != nil {
		history = []models.Message{trigger}
	}

	turns := make([]services.ChatTurn, 0, len(history))
	for _, m := range history {
		role := "user"
		if m.Role == models.MessageRoleAI {
			role = "assistant"
		}
		turns = append(turns, services.ChatTurn{Role: role, Content: m.Content})
	}

	reply, err := mc.ai.Complete(ctx, "You are a helpful assistant in a group chat room.", turns)
	if err != nil {
		log.Warn().Err(err).Uint("room", trigger.RoomID).Msg("ai completion failed")
		return
	}

	aiMsg := models.Message{
		ID:        uuid.New().String(),
		RoomID:    trigger.RoomID,
		Role:      models.MessageRoleAI,
		Content:   reply,
		Reactions: []models.Reaction{},
		CreatedAt: time.Now(),
	}
	if err := mc.messages.Create(ctx, &aiMsg); err != nil {
		log.Warn().Err(err).Uint("room", trigger.RoomID).Msg("ai message persist failed, delivering ephemeral")
		aiMsg.ID = models.EphemeralIDPrefix + uuid.New().String()
	}
	mc.hub.BroadcastToRoom(aiMsg.RoomID, newEvent(EvReceiveMessage, aiMsg))
}

package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/CharanLingolu/LC-Ai-Backend/models"
	"github.com/CharanLingolu/LC-Ai-Backend/store"
	"github.com/CharanLingolu/LC-Ai-Backend/utils"
)

// RoomCoordinator executes authorized room mutations against the room store
// and fans the resulting state out through the hub.
type RoomCoordinator struct {
	rooms store.RoomStore
	hub   *Hub
}

func NewRoomCoordinator(rooms store.RoomStore, hub *Hub) *RoomCoordinator {
	return &RoomCoordinator{rooms: rooms, hub: hub}
}

// Create persists a new room owned by the caller. Owners are capped at five
// concurrently existing rooms, checked before anything is written.
func (rc *RoomCoordinator) Create(ctx context.Context, c *Client, p CreateRoomPayload) {
	owner := p.OwnerID
	if owner == "" {
		id := c.Identity()
		if id.Email != "" {
			owner = id.Email
		} else {
			owner = id.UserID
		}
	}
	if owner == "" {
		c.enqueue(failureEvent(EvRoomCreateFailed, ReasonMissingOwner))
		return
	}

	count, err := rc.rooms.CountByOwner(ctx, owner)
	if err != nil {
		log.Error().Err(err).Str("owner", owner).Msg("count rooms")
		c.enqueue(failureEvent(EvRoomCreateFailed, ReasonServerError))
		return
	}
	if count >= 5 {
		c.enqueue(failureEvent(EvRoomCreateFailed, ReasonLimitReached))
		return
	}

	code, err := rc.uniqueCode(ctx)
	if err != nil {
		log.Error().Err(err).Msg("generate room code")
		c.enqueue(failureEvent(EvRoomCreateFailed, ReasonServerError))
		return
	}

	room := models.Room{
		Name:         p.Name,
		OwnerID:      owner,
		Code:         code,
		InviteLinkID: utils.InviteLinkID(),
		AllowAI:      p.AllowAI,
		Theme:        p.Theme,
		Members: []models.Member{{
			MemberID: owner,
			Name:     p.OwnerName,
			Role:     models.RoleOwner,
		}},
	}

	if err := rc.rooms.Create(ctx, &room); err != nil {
		log.Error().Err(err).Str("owner", owner).Msg("create room")
		c.enqueue(failureEvent(EvRoomCreateFailed, ReasonServerError))
		return
	}

	log.Info().Uint("room", room.ID).Str("owner", owner).Msg("room created")
	rc.hub.BroadcastRoomList(ctx)
}

// Rename changes a room's name. Owner-only.
func (rc *RoomCoordinator) Rename(ctx context.Context, c *Client, p RenameRoomPayload) {
	room, ok := rc.loadOwned(ctx, c, p.RoomID, EvRoomUpdateFailed)
	if !ok {
		return
	}

	room.Name = p.Name
	if err := rc.rooms.Update(ctx, room); err != nil {
		log.Error().Err(err).Uint("room", room.ID).Msg("rename room")
		c.enqueue(failureEvent(EvRoomUpdateFailed, ReasonServerError))
		return
	}
	rc.hub.BroadcastRoomList(ctx)
}

// Delete removes a room and everything in it. Owner-only.
func (rc *RoomCoordinator) Delete(ctx context.Context, c *Client, roomID uint) {
	room, ok := rc.loadOwned(ctx, c, roomID, EvRoomUpdateFailed)
	if !ok {
		return
	}

	if err := rc.rooms.Delete(ctx, room.ID); err != nil {
		log.Error().Err(err).Uint("room", room.ID).Msg("delete room")
		c.enqueue(failureEvent(EvRoomUpdateFailed, ReasonServerError))
		return
	}
	log.Info().Uint("room", room.ID).Msg("room deleted")
	rc.hub.BroadcastRoomList(ctx)
}

// ToggleAI flips the room's AI flag. Silent no-op when the room is gone,
// NOT_OWNER for anyone but the owner.
func (rc *RoomCoordinator) ToggleAI(ctx context.Context, c *Client, roomID uint) {
	room, err := rc.rooms.FindByID(ctx, roomID)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		log.Error().Err(err).Uint("room", roomID).Msg("load room for ai toggle")
		c.enqueue(failureEvent(EvRoomAIToggleFailed, ReasonServerError))
		return
	}
	if !c.Identity().Matches(room.OwnerID) {
		c.enqueue(failureEvent(EvRoomAIToggleFailed, ReasonNotOwner))
		return
	}

	room.AllowAI = !room.AllowAI
	if err := rc.rooms.Update(ctx, room); err != nil {
		log.Error().Err(err).Uint("room", room.ID).Msg("persist ai toggle")
		c.enqueue(failureEvent(EvRoomAIToggleFailed, ReasonServerError))
		return
	}

	rc.hub.BroadcastToRoom(room.ID, newEvent(EvRoomAIToggled, map[string]any{
		"roomId":  room.ID,
		"allowAI": room.AllowAI,
	}))
	if err := rc.hub.SendRoomList(ctx, c); err != nil {
		log.Error().Err(err).Msg("room list refresh after ai toggle")
	}
}

// ChangeTheme updates the room theme and tells the room about it.
func (rc *RoomCoordinator) ChangeTheme(ctx context.Context, c *Client, p ChangeThemePayload) {
	room, err := rc.rooms.FindByID(ctx, p.RoomID)
	if errors.Is(err, store.ErrNotFound) {
		c.enqueue(failureEvent(EvRoomUpdateFailed, ReasonRoomNotFound))
		return
	}
	if err != nil {
		log.Error().Err(err).Uint("room", p.RoomID).Msg("load room for theme change")
		c.enqueue(failureEvent(EvRoomUpdateFailed, ReasonServerError))
		return
	}

	room.Theme = p.Theme
	if err := rc.rooms.Update(ctx, room); err != nil {
		log.Error().Err(err).Uint("room", room.ID).Msg("persist theme change")
		c.enqueue(failureEvent(EvRoomUpdateFailed, ReasonServerError))
		return
	}

	rc.hub.BroadcastToRoom(room.ID, newEvent(EvRoomThemeChanged, map[string]any{
		"roomId":    room.ID,
		"theme":     room.Theme,
		"changedBy": p.ChangedBy,
	}))
	rc.systemNotice(room.ID, fmt.Sprintf("%s changed the room theme", p.ChangedBy))
}

// VerifyCode looks a room up by its join code. Nil when no room matches.
func (rc *RoomCoordinator) VerifyCode(ctx context.Context, code string) (*models.Room, error) {
	room, err := rc.rooms.FindByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return room, err
}

// JoinByCode resolves a room by code, appends the identity to the member list
// if it is not there yet (idempotent by id, race-safe in the store), joins the
// connection to the room's broadcast group, and refreshes room lists for
// everyone since visibility may have changed.
func (rc *RoomCoordinator) JoinByCode(ctx context.Context, c *Client, code, memberID, displayName, role string) (*models.Room, string, error) {
	room, err := rc.rooms.FindByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ReasonRoomNotFound, err
	}
	if err != nil {
		log.Error().Err(err).Str("code", code).Msg("room lookup by code")
		return nil, ReasonServerError, err
	}
	return rc.completeJoin(ctx, c, room, memberID, displayName, role)
}

// JoinByInviteLink is JoinByCode addressed by the room's shareable invite
// link id instead of its join code.
func (rc *RoomCoordinator) JoinByInviteLink(ctx context.Context, c *Client, linkID, memberID, displayName, role string) (*models.Room, string, error) {
	room, err := rc.rooms.FindByInviteLink(ctx, linkID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ReasonRoomNotFound, err
	}
	if err != nil {
		log.Error().Err(err).Str("link", linkID).Msg("room lookup by invite link")
		return nil, ReasonServerError, err
	}
	return rc.completeJoin(ctx, c, room, memberID, displayName, role)
}

func (rc *RoomCoordinator) completeJoin(ctx context.Context, c *Client, room *models.Room, memberID, displayName, role string) (*models.Room, string, error) {
	if !room.HasMember(memberID) {
		member := models.Member{MemberID: memberID, Name: displayName, Role: role}
		if err := rc.rooms.AddMember(ctx, room.ID, member); err != nil {
			log.Error().Err(err).Uint("room", room.ID).Str("member", memberID).Msg("append member")
			return nil, ReasonServerError, err
		}
		room.Members = append(room.Members, member)
	}

	rc.hub.JoinRoom(c, room.ID)
	rc.systemNotice(room.ID, fmt.Sprintf("%s joined the room", displayName))
	rc.hub.BroadcastPresence(room.ID)
	rc.hub.BroadcastRoomList(ctx)

	return room, "", nil
}

func (rc *RoomCoordinator) loadOwned(ctx context.Context, c *Client, roomID uint, failEvent string) (*models.Room, bool) {
	room, err := rc.rooms.FindByID(ctx, roomID)
	if errors.Is(err, store.ErrNotFound) {
		c.enqueue(failureEvent(failEvent, ReasonRoomNotFound))
		return nil, false
	}
	if err != nil {
		log.Error().Err(err).Uint("room", roomID).Msg("load room")
		c.enqueue(failureEvent(failEvent, ReasonServerError))
		return nil, false
	}
	if !c.Identity().Matches(room.OwnerID) {
		c.enqueue(failureEvent(failEvent, ReasonNotOwner))
		return nil, false
	}
	return room, true
}

func (rc *RoomCoordinator) systemNotice(roomID uint, text string) {
	rc.hub.BroadcastToRoom(roomID, newEvent(EvSystemMessage, map[string]any{
		"roomId": roomID,
		"text":   text,
	}))
}

// uniqueCode generates short numeric codes until one is free. Collisions on
// six digits are rare enough that a bounded retry loop suffices.
func (rc *RoomCoordinator) uniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < 10; i++ {
		code := utils.RoomCode()
		_, err := rc.rooms.FindByCode(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", errors.New("room code space exhausted")
}

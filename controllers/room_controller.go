package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/CharanLingolu/LC-Ai-Backend/store"
	"github.com/CharanLingolu/LC-Ai-Backend/websocket"
)

// RoomController serves the REST reads clients use to hydrate state: the
// visibility-filtered room list and per-room message history. Mutations go
// through the event channel, not through here.
type RoomController struct {
	rooms    store.RoomStore
	messages store.MessageStore
}

func NewRoomController(rooms store.RoomStore, messages store.MessageStore) *RoomController {
	return &RoomController{rooms: rooms, messages: messages}
}

// GetRooms returns the rooms visible to the authenticated user.
func (rc *RoomController) GetRooms(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	email, _ := c.MustGet("userEmail").(string)

	rooms, err := rc.rooms.Find(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rooms"})
		return
	}

	identity := websocket.Identity{
		UserID: strconv.FormatUint(uint64(userID), 10),
		Email:  email,
	}

	c.JSON(http.StatusOK, gin.H{"rooms": websocket.VisibleRooms(rooms, identity)})
}

// GetInvitePreview resolves a shareable invite link to a room preview so a
// recipient can see what they were invited to before joining. The join code
// itself is not exposed; the link stands in for it on the join path.
func (rc *RoomController) GetInvitePreview(c *gin.Context) {
	room, err := rc.rooms.FindByInviteLink(c.Request.Context(), c.Param("link"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invite link not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve invite"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"room": gin.H{
		"id":          room.ID,
		"name":        room.Name,
		"theme":       room.Theme,
		"allowAI":     room.AllowAI,
		"memberCount": len(room.Members),
	}})
}

// GetMessages returns the message history of one room.
func (rc *RoomController) GetMessages(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Query("room_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	messages, err := rc.messages.Find(c.Request.Context(), uint(roomID), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

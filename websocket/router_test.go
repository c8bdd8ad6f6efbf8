package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CharanLingolu/LC-Ai-Backend/models"
)

func dispatch(t *testing.T, r *rig, c *Client, eventType string, payload any) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	raw, err := json.Marshal(Envelope{Type: eventType, Payload: body})
	require.NoError(t, err)
	r.router.Dispatch(c, raw)
}

func TestRegisterUserBindsIdentityAndSendsRoomList(t *testing.T) {
	r := newRig(t)
	owner := r.connect(t)
	r.rooms.Create(context.Background(), owner, CreateRoomPayload{
		Name: "den", OwnerID: "alice@example.com",
	})

	c := r.connect(t)
	dispatch(t, r, c, EvRegisterUser, RegisterUserPayload{UserID: "42", Email: "alice@example.com"})

	assert.Equal(t, Identity{UserID: "42", Email: "alice@example.com"}, c.Identity())

	var rooms []models.Room
	decodePayload(t, waitEvent(t, c, EvRoomListUpdate), &rooms)
	require.Len(t, rooms, 1)
	assert.Equal(t, "den", rooms[0].Name)

	// Rebinding to nothing empties the visible set.
	dispatch(t, r, c, EvRegisterUser, RegisterUserPayload{})
	decodePayload(t, waitEvent(t, c, EvRoomListUpdate), &rooms)
	assert.Empty(t, rooms)
}

func TestMalformedPayloadReportedToSenderOnly(t *testing.T) {
	r := newRig(t)
	c := r.connect(t)
	other := r.connect(t)

	r.router.Dispatch(c, []byte(`{"type":"create_room","payload":"not an object"}`))

	var failure struct {
		Reason string `json:"reason"`
	}
	decodePayload(t, waitEvent(t, c, EvError), &failure)
	assert.Equal(t, ReasonBadPayload, failure.Reason)
	assert.False(t, hasEvent(other, EvError))
}

func TestUnknownEventIgnored(t *testing.T) {
	r := newRig(t)
	c := r.connect(t)
	r.router.Dispatch(c, []byte(`{"type":"dance","payload":{}}`))
	assert.False(t, hasEvent(c, EvError))
}

func TestTypingRelayedToRoomExceptSender(t *testing.T) {
	r := newRig(t)
	a := r.connect(t)
	b := r.connect(t)
	r.hub.JoinRoom(a, 1)
	r.hub.JoinRoom(b, 1)
	drain(a)
	drain(b)

	dispatch(t, r, a, EvTyping, TypingPayload{RoomID: 1, DisplayName: "A"})

	var typing TypingPayload
	decodePayload(t, waitEvent(t, b, EvTyping), &typing)
	assert.Equal(t, "A", typing.DisplayName)
	assert.False(t, hasEvent(a, EvTyping))
}

func TestSignalingRelay(t *testing.T) {
	r := newRig(t)
	a := r.connect(t)
	b := r.connect(t)

	dispatch(t, r, a, EvWebRTCOffer, map[string]any{"to": b.ID(), "sdp": "v=0 fake offer"})

	var relayed map[string]any
	decodePayload(t, waitEvent(t, b, EvWebRTCOffer), &relayed)
	assert.Equal(t, "v=0 fake offer", relayed["sdp"])
	assert.Equal(t, a.ID(), relayed["from"])
}

func TestSignalingToMissingTargetDropped(t *testing.T) {
	r := newRig(t)
	a := r.connect(t)

	dispatch(t, r, a, EvWebRTCICE, map[string]any{"to": "gone", "candidate": "x"})
	assert.False(t, hasEvent(a, EvError), "undeliverable signaling is silent")
}

func TestGuestJoinAndGuestNameDeleteTrustGap(t *testing.T) {
	r := newRig(t)
	owner := r.connect(t)
	ctx := context.Background()
	r.rooms.Create(ctx, owner, CreateRoomPayload{Name: "den", OwnerID: "owner@example.com"})
	rooms, _ := r.roomSt.Find(ctx)
	code := rooms[0].Code

	guest := r.connect(t)
	dispatch(t, r, guest, EvJoinRoomGuest, JoinGuestPayload{Code: code, Name: "Guest"})

	var joined struct {
		GuestID string          `json:"guestId"`
		Room    json.RawMessage `json:"room"`
	}
	decodePayload(t, waitEvent(t, guest, EvGuestJoinedSuccess), &joined)
	assert.True(t, len(joined.GuestID) > len("guest_"))
	assert.Equal(t, joined.GuestID, guest.Identity().UserID)

	dispatch(t, r, guest, EvSendMessage, SendMessagePayload{
		RoomID: rooms[0].ID, Text: "hi all", SenderGuestName: "Guest",
	})
	var msg models.Message
	decodePayload(t, waitEvent(t, guest, EvReceiveMessage), &msg)

	// A different anonymous connection claiming the same guest name may
	// delete the message. Known trust gap, kept on purpose.
	imposter := r.connect(t)
	dispatch(t, r, imposter, EvDeleteMessage, DeleteMessagePayload{
		MessageID: msg.ID, RequesterGuestName: "Guest",
	})

	var result DeleteResult
	decodePayload(t, waitEvent(t, imposter, EvDeleteMsgResult), &result)
	assert.True(t, result.OK)
}

func TestDisconnectReleasesEverything(t *testing.T) {
	r := newRig(t)
	a := r.connect(t)
	b := r.connect(t)
	r.hub.JoinRoom(a, 1)
	r.hub.JoinRoom(b, 1)
	r.calls.Join(a, 1, "A")
	r.calls.Join(b, 1, "B")
	drain(b)

	r.router.Disconnect(a)

	assert.Equal(t, 1, r.hub.PresenceCount(1))
	assert.Equal(t, 1, r.calls.ParticipantCount(1))
	assert.True(t, hasEvent(b, EvUserLeftCall))

	// Presence refresh reaches the survivors.
	var presence struct {
		Count int `json:"count"`
	}
	decodePayload(t, waitEvent(t, b, EvPresenceUpdate), &presence)
	assert.Equal(t, 1, presence.Count)
}

func TestVerifyRoomCodeAck(t *testing.T) {
	r := newRig(t)
	owner := r.connect(t)
	ctx := context.Background()
	r.rooms.Create(ctx, owner, CreateRoomPayload{Name: "den", OwnerID: "owner@example.com"})
	rooms, _ := r.roomSt.Find(ctx)

	c := r.connect(t)
	dispatch(t, r, c, EvVerifyRoomCode, VerifyCodePayload{Code: rooms[0].Code})

	var result struct {
		Room *models.Room `json:"room"`
	}
	decodePayload(t, waitEvent(t, c, EvVerifyCodeResult), &result)
	require.NotNil(t, result.Room)
	assert.Equal(t, rooms[0].ID, result.Room.ID)

	dispatch(t, r, c, EvVerifyRoomCode, VerifyCodePayload{Code: "999999"})
	decodePayload(t, waitEvent(t, c, EvVerifyCodeResult), &result)
	assert.Nil(t, result.Room)
}

func TestAuthenticatedJoinAck(t *testing.T) {
	r := newRig(t)
	owner := r.connect(t)
	ctx := context.Background()
	r.rooms.Create(ctx, owner, CreateRoomPayload{Name: "den", OwnerID: "owner@example.com"})
	rooms, _ := r.roomSt.Find(ctx)

	c := r.connect(t)
	dispatch(t, r, c, EvJoinRoomAuth, JoinAuthPayload{
		Code: rooms[0].Code, UserID: "42", Email: "bob@example.com", Name: "Bob",
	})

	var result struct {
		OK   bool         `json:"ok"`
		Room *models.Room `json:"room"`
	}
	decodePayload(t, waitEvent(t, c, EvAuthJoinResult), &result)
	require.True(t, result.OK)
	assert.True(t, result.Room.HasMember("bob@example.com"))
	assert.Equal(t, 1, r.hub.PresenceCount(rooms[0].ID))

	fail := r.connect(t)
	dispatch(t, r, fail, EvJoinRoomAuth, JoinAuthPayload{Code: "000000", Email: "x@example.com"})
	var failed struct {
		OK     bool   `json:"ok"`
		Reason string `json:"reason"`
	}
	decodePayload(t, waitEvent(t, fail, EvAuthJoinResult), &failed)
	assert.False(t, failed.OK)
	assert.Equal(t, ReasonRoomNotFound, failed.Reason)
}

func TestInviteLinkJoinOverSocket(t *testing.T) {
	r := newRig(t)
	owner := r.connect(t)
	ctx := context.Background()
	r.rooms.Create(ctx, owner, CreateRoomPayload{Name: "den", OwnerID: "owner@example.com"})
	rooms, _ := r.roomSt.Find(ctx)
	link := rooms[0].InviteLinkID

	user := r.connect(t)
	dispatch(t, r, user, EvJoinRoomInvite, JoinInvitePayload{
		LinkID: link, UserID: "42", Email: "bob@example.com", Name: "Bob",
	})

	var result struct {
		OK   bool         `json:"ok"`
		Room *models.Room `json:"room"`
	}
	decodePayload(t, waitEvent(t, user, EvInviteJoinResult), &result)
	require.True(t, result.OK)
	assert.True(t, result.Room.HasMember("bob@example.com"))
	assert.Equal(t, Identity{UserID: "42", Email: "bob@example.com"}, user.Identity())

	// A joiner with only a display name comes in as a guest.
	guest := r.connect(t)
	dispatch(t, r, guest, EvJoinRoomInvite, JoinInvitePayload{LinkID: link, Name: "Drifter"})

	var guestResult struct {
		OK      bool   `json:"ok"`
		GuestID string `json:"guestId"`
	}
	decodePayload(t, waitEvent(t, guest, EvInviteJoinResult), &guestResult)
	require.True(t, guestResult.OK)
	assert.True(t, len(guestResult.GuestID) > len("guest_"))
	assert.Equal(t, guestResult.GuestID, guest.Identity().UserID)

	stored, _ := r.roomSt.FindByID(ctx, rooms[0].ID)
	assert.True(t, stored.HasMember(guestResult.GuestID))

	fail := r.connect(t)
	dispatch(t, r, fail, EvJoinRoomInvite, JoinInvitePayload{LinkID: "expiredlink", Name: "X"})
	var failed struct {
		OK     bool   `json:"ok"`
		Reason string `json:"reason"`
	}
	decodePayload(t, waitEvent(t, fail, EvInviteJoinResult), &failed)
	assert.False(t, failed.OK)
	assert.Equal(t, ReasonRoomNotFound, failed.Reason)
}

func TestSendMessageRejectsReservedRoles(t *testing.T) {
	r := newRig(t)
	owner := r.connect(t)
	ctx := context.Background()
	r.rooms.Create(ctx, owner, CreateRoomPayload{Name: "den", OwnerID: "owner@example.com"})
	rooms, _ := r.roomSt.Find(ctx)

	c := r.connect(t)
	r.hub.JoinRoom(c, rooms[0].ID)
	drain(c)

	for _, role := range []string{"ai", "system", "admin"} {
		dispatch(t, r, c, EvSendMessage, SendMessagePayload{
			RoomID: rooms[0].ID, Text: "pretending", Role: role, SenderUserID: "42",
		})

		var failure struct {
			Reason string `json:"reason"`
		}
		decodePayload(t, waitEvent(t, c, EvError), &failure)
		assert.Equal(t, ReasonBadPayload, failure.Reason, "role %q must be rejected", role)
		assert.False(t, hasEvent(c, EvReceiveMessage))
	}

	history, err := r.msgSt.Find(ctx, rooms[0].ID, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestCreateRoomOverSocket(t *testing.T) {
	r := newRig(t)
	for i := 0; i < 5; i++ {
		c := r.connect(t)
		dispatch(t, r, c, EvCreateRoom, CreateRoomPayload{
			Name: fmt.Sprintf("room %d", i), OwnerID: "owner@example.com",
		})
	}

	c := r.connect(t)
	dispatch(t, r, c, EvCreateRoom, CreateRoomPayload{Name: "sixth", OwnerID: "owner@example.com"})

	var failure struct {
		Reason string `json:"reason"`
	}
	decodePayload(t, waitEvent(t, c, EvRoomCreateFailed), &failure)
	assert.Equal(t, ReasonLimitReached, failure.Reason)
}

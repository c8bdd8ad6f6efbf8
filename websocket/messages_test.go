package websocket

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CharanLingolu/LC-Ai-Backend/models"
	"github.com/CharanLingolu/LC-Ai-Backend/store"
)

// flakyMessageStore fails writes on demand to exercise degraded delivery.
type flakyMessageStore struct {
	*store.MemoryMessageStore
	failCreate bool
}

func (s *flakyMessageStore) Create(ctx context.Context, m *models.Message) error {
	if s.failCreate {
		return errors.New("datastore unavailable")
	}
	return s.MemoryMessageStore.Create(ctx, m)
}

func seedRoom(t *testing.T, r *rig, ownerID string) models.Room {
	t.Helper()
	owner := r.connect(t)
	r.rooms.Create(context.Background(), owner, CreateRoomPayload{Name: "den", OwnerID: ownerID})
	rooms, err := r.roomSt.Find(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	return rooms[0]
}

func TestSendMessagePersistsAndBroadcasts(t *testing.T) {
	r := newRig(t)
	room := seedRoom(t, r, "owner@example.com")
	c := r.connect(t)
	r.hub.JoinRoom(c, room.ID)
	drain(c)

	r.msgs.Send(context.Background(), c, SendMessagePayload{
		RoomID: room.ID, Text: "hello", SenderUserID: "42",
	})

	var msg models.Message
	decodePayload(t, waitEvent(t, c, EvReceiveMessage), &msg)
	assert.Equal(t, "hello", msg.Content)
	assert.False(t, msg.IsEphemeral())

	stored, err := r.msgSt.FindByID(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", stored.Content)
}

func TestSendMessageDegradesToEphemeral(t *testing.T) {
	r := newRig(t)
	room := seedRoom(t, r, "owner@example.com")

	flaky := &flakyMessageStore{MemoryMessageStore: r.msgSt, failCreate: true}
	mc := NewMessageCoordinator(flaky, r.roomSt, r.hub, nil)

	c := r.connect(t)
	r.hub.JoinRoom(c, room.ID)
	drain(c)

	mc.Send(context.Background(), c, SendMessagePayload{
		RoomID: room.ID, Text: "still delivered", SenderGuestName: "Guest", SentAt: 1700000000000,
	})

	var msg models.Message
	decodePayload(t, waitEvent(t, c, EvReceiveMessage), &msg)
	assert.Equal(t, "still delivered", msg.Content)
	assert.True(t, msg.IsEphemeral(), "fallback message must carry a temporary id")

	// Nothing made it into the store.
	history, err := r.msgSt.Find(context.Background(), room.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestDeleteMessageAuthorization(t *testing.T) {
	r := newRig(t)
	room := seedRoom(t, r, "owner@example.com")
	ctx := context.Background()

	seed := func(id string, senderUserID, guestName string) {
		require.NoError(t, r.msgSt.Create(ctx, &models.Message{
			ID: id, RoomID: room.ID, SenderUserID: senderUserID, SenderGuestName: guestName, Content: "x",
		}))
	}

	t.Run("sender by bound identity", func(t *testing.T) {
		seed("m1", "42", "")
		c := r.connect(t)
		c.BindIdentity("42", "")
		res := r.msgs.Delete(ctx, c, DeleteMessagePayload{MessageID: "m1"})
		assert.True(t, res.OK)
	})

	t.Run("sender by supplied candidate id", func(t *testing.T) {
		seed("m2", "42", "")
		c := r.connect(t)
		res := r.msgs.Delete(ctx, c, DeleteMessagePayload{MessageID: "m2", RequesterUserID: "42"})
		assert.True(t, res.OK)
	})

	t.Run("guest name is trusted as claimed", func(t *testing.T) {
		seed("m3", "", "Guest")
		c := r.connect(t)
		// A different anonymous connection claiming the same guest name.
		res := r.msgs.Delete(ctx, c, DeleteMessagePayload{MessageID: "m3", RequesterGuestName: "Guest"})
		assert.True(t, res.OK)
	})

	t.Run("room owner may delete anything", func(t *testing.T) {
		seed("m4", "42", "")
		c := r.connect(t)
		c.BindIdentity("", "owner@example.com")
		res := r.msgs.Delete(ctx, c, DeleteMessagePayload{MessageID: "m4"})
		assert.True(t, res.OK)
	})

	t.Run("everyone else is denied", func(t *testing.T) {
		seed("m5", "42", "")
		c := r.connect(t)
		c.BindIdentity("7", "someone@example.com")
		res := r.msgs.Delete(ctx, c, DeleteMessagePayload{MessageID: "m5", RequesterGuestName: "Guest"})
		assert.False(t, res.OK)
		assert.Equal(t, ReasonNotAuthorized, res.Error)

		_, err := r.msgSt.FindByID(ctx, "m5")
		assert.NoError(t, err, "denied delete must not mutate")
	})

	t.Run("missing message", func(t *testing.T) {
		c := r.connect(t)
		res := r.msgs.Delete(ctx, c, DeleteMessagePayload{MessageID: "nope"})
		assert.False(t, res.OK)
		assert.Equal(t, ReasonMessageNotFound, res.Error)
	})
}

func TestDeleteMessageBroadcastsToRoom(t *testing.T) {
	r := newRig(t)
	room := seedRoom(t, r, "owner@example.com")
	ctx := context.Background()

	require.NoError(t, r.msgSt.Create(ctx, &models.Message{
		ID: "m1", RoomID: room.ID, SenderUserID: "42", Content: "bye",
	}))

	watcher := r.connect(t)
	r.hub.JoinRoom(watcher, room.ID)
	drain(watcher)

	sender := r.connect(t)
	sender.BindIdentity("42", "")
	res := r.msgs.Delete(ctx, sender, DeleteMessagePayload{MessageID: "m1"})
	require.True(t, res.OK)

	var deleted struct {
		MessageID string `json:"messageId"`
	}
	decodePayload(t, waitEvent(t, watcher, EvMessageDeleted), &deleted)
	assert.Equal(t, "m1", deleted.MessageID)

	_, err := r.msgSt.FindByID(ctx, "m1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestToggleReactionInvolution(t *testing.T) {
	r := newRig(t)
	room := seedRoom(t, r, "owner@example.com")
	ctx := context.Background()

	require.NoError(t, r.msgSt.Create(ctx, &models.Message{
		ID: "m1", RoomID: room.ID, Content: "react to me",
	}))

	toggle := func(emoji string) {
		r.msgs.ToggleReaction(ctx, ReactionPayload{
			MessageID: "m1", Emoji: emoji, UserID: "42", DisplayName: "Alice",
		})
	}

	toggle("👍")
	msg, _ := r.msgSt.FindByID(ctx, "m1")
	require.Len(t, msg.Reactions, 1)
	assert.Equal(t, "👍", msg.Reactions[0].Emoji)

	// Same emoji toggles off.
	toggle("👍")
	msg, _ = r.msgSt.FindByID(ctx, "m1")
	assert.Empty(t, msg.Reactions)

	// A different emoji replaces rather than duplicates.
	toggle("👍")
	toggle("🎉")
	msg, _ = r.msgSt.FindByID(ctx, "m1")
	require.Len(t, msg.Reactions, 1)
	assert.Equal(t, "🎉", msg.Reactions[0].Emoji)
	assert.Equal(t, "42", msg.Reactions[0].UserID)
}

func TestToggleReactionKeepsOtherUsers(t *testing.T) {
	r := newRig(t)
	room := seedRoom(t, r, "owner@example.com")
	ctx := context.Background()

	require.NoError(t, r.msgSt.Create(ctx, &models.Message{
		ID: "m1", RoomID: room.ID, Content: "popular",
	}))

	r.msgs.ToggleReaction(ctx, ReactionPayload{MessageID: "m1", Emoji: "👍", UserID: "1", DisplayName: "A"})
	r.msgs.ToggleReaction(ctx, ReactionPayload{MessageID: "m1", Emoji: "🎉", UserID: "2", DisplayName: "B"})
	r.msgs.ToggleReaction(ctx, ReactionPayload{MessageID: "m1", Emoji: "👍", UserID: "1", DisplayName: "A"})

	msg, _ := r.msgSt.FindByID(ctx, "m1")
	require.Len(t, msg.Reactions, 1)
	assert.Equal(t, "2", msg.Reactions[0].UserID)
}

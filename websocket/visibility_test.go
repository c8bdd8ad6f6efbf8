package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CharanLingolu/LC-Ai-Backend/models"
)

func TestVisibleRooms(t *testing.T) {
	rooms := []models.Room{
		{ID: 1, Name: "owned by email", OwnerID: "alice@example.com"},
		{ID: 2, Name: "owned by id", OwnerID: "42"},
		{ID: 3, Name: "member by id", OwnerID: "bob@example.com", Members: []models.Member{
			{MemberID: "42", Role: models.RoleMember},
		}},
		{ID: 4, Name: "member by email", OwnerID: "bob@example.com", Members: []models.Member{
			{MemberID: "alice@example.com", Role: models.RoleMember},
		}},
		{ID: 5, Name: "unrelated", OwnerID: "bob@example.com", Members: []models.Member{
			{MemberID: "carol@example.com", Role: models.RoleMember},
		}},
	}

	tests := []struct {
		name     string
		identity Identity
		wantIDs  []uint
	}{
		{
			name:     "full identity sees owned and member rooms",
			identity: Identity{UserID: "42", Email: "alice@example.com"},
			wantIDs:  []uint{1, 2, 3, 4},
		},
		{
			name:     "email only",
			identity: Identity{Email: "alice@example.com"},
			wantIDs:  []uint{1, 4},
		},
		{
			name:     "user id only",
			identity: Identity{UserID: "42"},
			wantIDs:  []uint{2, 3},
		},
		{
			name:     "guest id as member",
			identity: Identity{UserID: "guest_abc123"},
			wantIDs:  nil,
		},
		{
			name:     "empty identity sees nothing",
			identity: Identity{},
			wantIDs:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			visible := VisibleRooms(rooms, tt.identity)
			var ids []uint
			for _, room := range visible {
				ids = append(ids, room.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestVisibleRoomsGuestMember(t *testing.T) {
	rooms := []models.Room{
		{ID: 7, OwnerID: "owner@example.com", Members: []models.Member{
			{MemberID: "guest_42", Name: "Guest", Role: models.RoleGuest},
		}},
	}

	visible := VisibleRooms(rooms, Identity{UserID: "guest_42"})
	assert.Len(t, visible, 1)

	visible = VisibleRooms(rooms, Identity{UserID: "guest_43"})
	assert.Empty(t, visible)
}

func TestIdentityMatches(t *testing.T) {
	id := Identity{UserID: "42", Email: "alice@example.com"}

	assert.True(t, id.Matches("42"))
	assert.True(t, id.Matches("alice@example.com"))
	assert.False(t, id.Matches("43"))
	assert.False(t, id.Matches(""))

	// An empty identity must never match an empty owner string.
	assert.False(t, Identity{}.Matches(""))
}

package websocket

import (
	"github.com/CharanLingolu/LC-Ai-Backend/models"
)

// VisibleRooms returns the subset of rooms the identity may see: rooms it
// owns (by email or stringified user id) and rooms where it appears in the
// member list. An empty identity sees nothing.
//
// Callers must recompute this on every broadcast; both membership and the
// identity bound to a connection change over the connection's lifetime, so
// the result is never cached.
func VisibleRooms(rooms []models.Room, id Identity) []models.Room {
	if id.IsEmpty() {
		return []models.Room{}
	}

	visible := make([]models.Room, 0, len(rooms))
	for _, room := range rooms {
		if id.Matches(room.OwnerID) {
			visible = append(visible, room)
			continue
		}
		for _, m := range room.Members {
			if id.Matches(m.MemberID) {
				visible = append(visible, room)
				break
			}
		}
	}
	return visible
}

package models

import (
	"time"
)

// Member roles. The owner is recorded once at room creation and never
// reassigned.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
	RoleGuest  = "guest"
)

type Room struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	OwnerID      string    `gorm:"size:255;index" json:"ownerId"`
	Code         string    `gorm:"size:12;uniqueIndex" json:"code"`
	InviteLinkID string    `gorm:"size:64" json:"inviteLinkId"`
	AllowAI      bool      `json:"allowAI"`
	Theme        string    `gorm:"size:64" json:"theme"`
	Members      []Member  `gorm:"foreignKey:RoomID" json:"members"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Member is an entry in a room's member list. MemberID is a stable identity
// string: an email, a stringified user id, or a guest_<token> id.
type Member struct {
	RoomID    uint      `gorm:"primaryKey" json:"-"`
	MemberID  string    `gorm:"primaryKey;size:255" json:"id"`
	Name      string    `gorm:"size:255" json:"name"`
	Role      string    `gorm:"size:20;default:'member'" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasMember reports whether the given identity string already appears in the
// member list.
func (r *Room) HasMember(id string) bool {
	if id == "" {
		return false
	}
	for _, m := range r.Members {
		if m.MemberID == id {
			return true
		}
	}
	return false
}

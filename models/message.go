package models

import (
	"strings"
	"time"
)

// Message roles.
const (
	MessageRoleUser   = "user"
	MessageRoleAI     = "ai"
	MessageRoleSystem = "system"
)

// EphemeralIDPrefix marks messages that were broadcast without being
// persisted, so clients can tell them apart from stored messages.
const EphemeralIDPrefix = "local-"

type Message struct {
	ID              string     `gorm:"primaryKey;size:64" json:"id"`
	RoomID          uint       `gorm:"index" json:"roomId"`
	SenderUserID    string     `gorm:"size:255" json:"senderUserId,omitempty"`
	SenderGuestName string     `gorm:"size:255" json:"senderGuestName,omitempty"`
	Role            string     `gorm:"size:20;default:'user'" json:"role"`
	Content         string     `gorm:"type:text" json:"content"`
	MediaURL        string     `json:"mediaUrl,omitempty"`
	MediaType       string     `gorm:"size:40" json:"mediaType,omitempty"`
	Reactions       []Reaction `gorm:"foreignKey:MessageID" json:"reactions"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// Reaction holds one user's emoji reaction on a message. The composite
// primary key enforces at most one reaction per (message, user) pair.
type Reaction struct {
	MessageID   string `gorm:"primaryKey;size:64" json:"-"`
	UserID      string `gorm:"primaryKey;size:255" json:"userId"`
	Emoji       string `gorm:"size:16" json:"emoji"`
	DisplayName string `gorm:"size:255" json:"displayName"`
}

// IsEphemeral reports whether the message was delivered without being stored.
func (m *Message) IsEphemeral() bool {
	return strings.HasPrefix(m.ID, EphemeralIDPrefix)
}

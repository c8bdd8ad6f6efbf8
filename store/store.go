// Package store defines the narrow persistence interfaces the real-time core
// depends on, together with a gorm-backed implementation and an in-memory one.
// Both stores follow last-write-wins semantics; the core never assumes
// transactional guarantees beyond a single call.
package store

import (
	"context"
	"errors"

	"github.com/CharanLingolu/LC-Ai-Backend/models"
)

// ErrNotFound is returned when a room or message does not exist.
var ErrNotFound = errors.New("not found")

type RoomStore interface {
	Find(ctx context.Context) ([]models.Room, error)
	FindByID(ctx context.Context, id uint) (*models.Room, error)
	FindByCode(ctx context.Context, code string) (*models.Room, error)
	FindByInviteLink(ctx context.Context, linkID string) (*models.Room, error)
	Create(ctx context.Context, room *models.Room) error
	Update(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id uint) error
	CountByOwner(ctx context.Context, ownerID string) (int64, error)

	// AddMember appends a member to a room unless a member with the same id
	// already exists. Safe to call concurrently for the same (room, id) pair.
	AddMember(ctx context.Context, roomID uint, member models.Member) error
}

type MessageStore interface {
	Find(ctx context.Context, roomID uint, limit int) ([]models.Message, error)
	FindByID(ctx context.Context, id string) (*models.Message, error)
	Create(ctx context.Context, message *models.Message) error
	Delete(ctx context.Context, id string) error

	// SetReactions replaces the full reaction list of a message.
	SetReactions(ctx context.Context, messageID string, reactions []models.Reaction) error
}

package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/CharanLingolu/LC-Ai-Backend/models"
)

type GormRoomStore struct {
	db *gorm.DB
}

func NewGormRoomStore(db *gorm.DB) *GormRoomStore {
	return &GormRoomStore{db: db}
}

func (s *GormRoomStore) Find(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	if err := s.db.WithContext(ctx).Preload("Members").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *GormRoomStore) FindByID(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	err := s.db.WithContext(ctx).Preload("Members").First(&room, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *GormRoomStore) FindByCode(ctx context.Context, code string) (*models.Room, error) {
	var room models.Room
	err := s.db.WithContext(ctx).Preload("Members").Where("code = ?", code).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *GormRoomStore) FindByInviteLink(ctx context.Context, linkID string) (*models.Room, error) {
	var room models.Room
	err := s.db.WithContext(ctx).Preload("Members").Where("invite_link_id = ?", linkID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *GormRoomStore) Create(ctx context.Context, room *models.Room) error {
	return s.db.WithContext(ctx).Create(room).Error
}

func (s *GormRoomStore) Update(ctx context.Context, room *models.Room) error {
	return s.db.WithContext(ctx).Omit("Members").Save(room).Error
}

func (s *GormRoomStore) Delete(ctx context.Context, id uint) error {
	if err := s.db.WithContext(ctx).Where("room_id = ?", id).Delete(&models.Member{}).Error; err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Where("room_id = ?", id).Delete(&models.Message{}).Error; err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&models.Room{}, id).Error
}

func (s *GormRoomStore) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Room{}).
		Where("owner_id = ?", ownerID).Count(&count).Error
	return count, err
}

func (s *GormRoomStore) AddMember(ctx context.Context, roomID uint, member models.Member) error {
	member.RoomID = roomID
	// ON CONFLICT DO NOTHING keeps the append idempotent when two join
	// attempts race on the same identity.
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&member).Error
}

type GormMessageStore struct {
	db *gorm.DB
}

func NewGormMessageStore(db *gorm.DB) *GormMessageStore {
	return &GormMessageStore{db: db}
}

// Find returns a room's messages in chronological order. A positive limit
// keeps only the most recent messages.
func (s *GormMessageStore) Find(ctx context.Context, roomID uint, limit int) ([]models.Message, error) {
	var messages []models.Message
	q := s.db.WithContext(ctx).Preload("Reactions").Where("room_id = ?", roomID)
	if limit > 0 {
		q = q.Order("created_at desc").Limit(limit)
	} else {
		q = q.Order("created_at asc")
	}
	if err := q.Find(&messages).Error; err != nil {
		return nil, err
	}
	if limit > 0 {
		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}
	}
	return messages, nil
}

func (s *GormMessageStore) FindByID(ctx context.Context, id string) (*models.Message, error) {
	var message models.Message
	err := s.db.WithContext(ctx).Preload("Reactions").Where("id = ?", id).First(&message).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (s *GormMessageStore) Create(ctx context.Context, message *models.Message) error {
	return s.db.WithContext(ctx).Create(message).Error
}

func (s *GormMessageStore) Delete(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("message_id = ?", id).Delete(&models.Reaction{}).Error; err != nil {
		return err
	}
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Message{}).Error
}

func (s *GormMessageStore) SetReactions(ctx context.Context, messageID string, reactions []models.Reaction) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", messageID).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		for i := range reactions {
			reactions[i].MessageID = messageID
		}
		if len(reactions) == 0 {
			return nil
		}
		return tx.Create(&reactions).Error
	})
}

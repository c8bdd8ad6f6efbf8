package store

import (
	"context"
	"sort"
	"sync"

	"github.com/CharanLingolu/LC-Ai-Backend/models"
)

// MemoryRoomStore is a map-backed RoomStore used by tests and for running
// the server without a database.
type MemoryRoomStore struct {
	mu     sync.RWMutex
	nextID uint
	rooms  map[uint]*models.Room
}

func NewMemoryRoomStore() *MemoryRoomStore {
	return &MemoryRoomStore{rooms: make(map[uint]*models.Room)}
}

func (s *MemoryRoomStore) Find(ctx context.Context) ([]models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make([]models.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, cloneRoom(room))
	}
	return rooms, nil
}

func (s *MemoryRoomStore) FindByID(ctx context.Context, id uint) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := cloneRoom(room)
	return &clone, nil
}

func (s *MemoryRoomStore) FindByCode(ctx context.Context, code string) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, room := range s.rooms {
		if room.Code == code {
			clone := cloneRoom(room)
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryRoomStore) FindByInviteLink(ctx context.Context, linkID string) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, room := range s.rooms {
		if room.InviteLinkID == linkID {
			clone := cloneRoom(room)
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryRoomStore) Create(ctx context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	room.ID = s.nextID
	for i := range room.Members {
		room.Members[i].RoomID = room.ID
	}
	clone := cloneRoom(room)
	s.rooms[room.ID] = &clone
	return nil
}

func (s *MemoryRoomStore) Update(ctx context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rooms[room.ID]
	if !ok {
		return ErrNotFound
	}
	clone := cloneRoom(room)
	clone.Members = existing.Members
	s.rooms[room.ID] = &clone
	return nil
}

func (s *MemoryRoomStore) Delete(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
	return nil
}

func (s *MemoryRoomStore) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, room := range s.rooms {
		if room.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func (s *MemoryRoomStore) AddMember(ctx context.Context, roomID uint, member models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return ErrNotFound
	}
	for _, m := range room.Members {
		if m.MemberID == member.MemberID {
			return nil
		}
	}
	member.RoomID = roomID
	room.Members = append(room.Members, member)
	return nil
}

func cloneRoom(room *models.Room) models.Room {
	clone := *room
	clone.Members = append([]models.Member(nil), room.Members...)
	return clone
}

// MemoryMessageStore is the MessageStore counterpart of MemoryRoomStore.
type MemoryMessageStore struct {
	mu       sync.RWMutex
	messages map[string]*models.Message
}

func NewMemoryMessageStore() *MemoryMessageStore {
	return &MemoryMessageStore{messages: make(map[string]*models.Message)}
}

func (s *MemoryMessageStore) Find(ctx context.Context, roomID uint, limit int) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	messages := make([]models.Message, 0)
	for _, msg := range s.messages {
		if msg.RoomID == roomID {
			messages = append(messages, cloneMessage(msg))
		}
	}
	sortMessagesByTime(messages)
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

func (s *MemoryMessageStore) FindByID(ctx context.Context, id string) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := cloneMessage(msg)
	return &clone, nil
}

func (s *MemoryMessageStore) Create(ctx context.Context, message *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := cloneMessage(message)
	s.messages[message.ID] = &clone
	return nil
}

func (s *MemoryMessageStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, id)
	return nil
}

func (s *MemoryMessageStore) SetReactions(ctx context.Context, messageID string, reactions []models.Reaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[messageID]
	if !ok {
		return ErrNotFound
	}
	for i := range reactions {
		reactions[i].MessageID = messageID
	}
	msg.Reactions = append([]models.Reaction(nil), reactions...)
	return nil
}

func cloneMessage(msg *models.Message) models.Message {
	clone := *msg
	clone.Reactions = append([]models.Reaction(nil), msg.Reactions...)
	return clone
}

func sortMessagesByTime(messages []models.Message) {
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
}

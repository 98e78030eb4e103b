package store

import (
	"context"
	"sync"
	"time"

	"github.com/Rohan-134v/Streamvibe/internal/domain"
)

type memoryRoom struct {
	room     domain.Room
	comments []domain.Comment
}

// MemoryRoomStore keeps rooms in process memory.
type MemoryRoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*memoryRoom
}

func NewMemoryRoomStore() *MemoryRoomStore {
	return &MemoryRoomStore{rooms: make(map[string]*memoryRoom)}
}

func (s *MemoryRoomStore) FindRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	room := r.room
	return &room, nil
}

func (s *MemoryRoomStore) CreateRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[roomID]; ok {
		return nil, ErrRoomExists
	}
	r := &memoryRoom{room: domain.Room{RoomID: roomID, CreatedAt: time.Now().UTC()}}
	s.rooms[roomID] = r
	room := r.room
	return &room, nil
}

func (s *MemoryRoomStore) EnsureRoom(ctx context.Context, roomID string) (*domain.Room, bool, error) {
	return ensureRoom(ctx, s, roomID)
}

func (s *MemoryRoomStore) AppendComment(ctx context.Context, comment domain.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[comment.RoomID]
	if !ok {
		return ErrRoomNotFound
	}
	r.comments = append(r.comments, comment)
	return nil
}

func (s *MemoryRoomStore) ListComments(ctx context.Context, roomID string) ([]domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	out := make([]domain.Comment, len(r.comments))
	copy(out, r.comments)
	return out, nil
}

func (s *MemoryRoomStore) Close() error {
	return nil
}

package store

import (
	"context"
	"errors"

	"github.com/Rohan-134v/Streamvibe/internal/domain"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomExists   = errors.New("room already exists")
)

// RoomStore persists room records and their comment logs.
type RoomStore interface {
	FindRoom(ctx context.Context, roomID string) (*domain.Room, error)
	CreateRoom(ctx context.Context, roomID string) (*domain.Room, error)
	// EnsureRoom finds the room or creates it; created reports which.
	EnsureRoom(ctx context.Context, roomID string) (room *domain.Room, created bool, err error)
	// AppendComment fails with ErrRoomNotFound when the room has no record.
	AppendComment(ctx context.Context, comment domain.Comment) error
	// ListComments returns the room's comments oldest first.
	ListComments(ctx context.Context, roomID string) ([]domain.Comment, error)
	Close() error
}

// ensureRoom is find-or-create on top of FindRoom and CreateRoom. A create
// that loses a race to another writer falls back to reading the winner.
func ensureRoom(ctx context.Context, s RoomStore, roomID string) (*domain.Room, bool, error) {
	room, err := s.FindRoom(ctx, roomID)
	if err == nil {
		return room, false, nil
	}
	if !errors.Is(err, ErrRoomNotFound) {
		return nil, false, err
	}

	room, err = s.CreateRoom(ctx, roomID)
	if err == nil {
		return room, true, nil
	}
	if errors.Is(err, ErrRoomExists) {
		room, err = s.FindRoom(ctx, roomID)
		return room, false, err
	}
	return nil, false, err
}

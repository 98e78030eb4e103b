package domain

import (
	"errors"
	"sync"
	"time"
)

// Role is the part a connection plays in a room.
type Role int

const (
	RoleUnassigned Role = iota
	RoleStreamer
	RoleViewer
)

func (r Role) String() string {
	switch r {
	case RoleStreamer:
		return "streamer"
	case RoleViewer:
		return "viewer"
	default:
		return "unassigned"
	}
}

// ErrRoleConflict is returned when a connection already bound to one
// role or room asks for another.
var ErrRoleConflict = errors.New("connection already bound to a different role or room")

// Session holds the per-connection role binding.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu     sync.RWMutex
	role   Role
	roomID string
}

// NewSession creates an unassigned session.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
	}
}

// Bind sets the role and room exactly once. Binding again to the same role
// and room is a no-op; anything else fails with ErrRoleConflict.
// The returned bool is true only for the call that performed the binding.
func (s *Session) Bind(role Role, roomID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.role == RoleUnassigned {
		s.role = role
		s.roomID = roomID
		return true, nil
	}
	if s.role == role && s.roomID == roomID {
		return false, nil
	}
	return false, ErrRoleConflict
}

// CanBind reports whether Bind(role, roomID) would succeed.
func (s *Session) CanBind(role Role, roomID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role == RoleUnassigned || (s.role == role && s.roomID == roomID)
}

// Binding returns the current role and room.
func (s *Session) Binding() (Role, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role, s.roomID
}

// StreamerRoom returns the room this session streams to, if any.
func (s *Session) StreamerRoom() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.role != RoleStreamer {
		return "", false
	}
	return s.roomID, true
}

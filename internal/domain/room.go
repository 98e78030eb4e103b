package domain

import "time"

// Room is the durable record of a room.
type Room struct {
	RoomID    string    `json:"roomId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment is one entry of a room's comment log.
type Comment struct {
	CommentID string    `json:"commentId"`
	RoomID    string    `json:"roomId"`
	ViewerID  string    `json:"viewerId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

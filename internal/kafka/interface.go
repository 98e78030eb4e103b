package kafka

import "context"

// RoomEvent is a room lifecycle change published for downstream consumers.
type RoomEvent struct {
	Type         string `json:"type"` // "stream_started" | "stream_ended"
	RoomID       string `json:"room_id"`
	ConnectionID string `json:"connection_id"`
	Reason       string `json:"reason,omitempty"` // "disconnect" | "displaced"
	Timestamp    int64  `json:"timestamp"`
}

// Event types
const (
	EventStreamStarted = "stream_started"
	EventStreamEnded   = "stream_ended"
)

// End reasons
const (
	ReasonDisconnect = "disconnect"
	ReasonDisplaced  = "displaced"
)

// RoomEventProducer defines the interface for producing room lifecycle events.
type RoomEventProducer interface {
	ProduceStreamStarted(ctx context.Context, roomID, connectionID string) error
	ProduceStreamEnded(ctx context.Context, roomID, connectionID, reason string) error
	Close() error
}

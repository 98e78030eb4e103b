package domain

import (
	"encoding/json"
	"fmt"
)

// WebSocket message types from client.
const (
	MsgTypeStreamer  = "streamer"
	MsgTypeViewer    = "viewer"
	MsgTypeComment   = "comment"
	MsgTypeOffer     = "offer"
	MsgTypeAnswer    = "answer"
	MsgTypeCandidate = "candidate"
	MsgTypePing      = "ping"
)

// WebSocket message types to client.
const (
	MsgTypeConnectionInfo = "connection-info"
	MsgTypeDisconnect     = "disconnect"
	MsgTypeStreamStarted  = "stream-started"
	MsgTypeStreamActive   = "stream-active"
	MsgTypeNoStream       = "no-stream"
	MsgTypeViewerJoined   = "viewer-joined"
	MsgTypeStreamEnded    = "stream-ended"
	MsgTypeError          = "error"
	MsgTypePong           = "pong"
)

// Error codes
const (
	ErrCodeBadRequest  = "BAD_REQUEST"
	ErrCodeUnknownType = "UNKNOWN_TYPE"
	ErrCodeNotFound    = "NOT_FOUND"
	ErrCodeConflict    = "CONFLICT"
)

// AnonymousViewer replaces a blank viewerId on comments.
const AnonymousViewer = "Anonymous"

// BaseMessage is the base structure for all WebSocket messages.
type BaseMessage struct {
	Type string `json:"type"`
}

// Server -> Client messages

// ConnectionInfoMessage tells a client its own connection id.
type ConnectionInfoMessage struct {
	Type             string `json:"type"`
	YourConnectionID string `json:"yourConnectionId"`
}

// DisconnectMessage is sent to a streamer displaced by a newer one.
type DisconnectMessage struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// RoomMessage carries only a room id (stream-started, stream-active).
type RoomMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

// NoticeMessage carries a room id and a human readable message
// (no-stream, stream-ended).
type NoticeMessage struct {
	Type    string `json:"type"`
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

// ViewerJoinedMessage tells the streamer to start a peer session with a viewer.
type ViewerJoinedMessage struct {
	Type               string `json:"type"`
	RoomID             string `json:"roomId"`
	ViewerConnectionID string `json:"viewerConnectionId"`
}

// CommentMessage is a comment relayed live to room members.
type CommentMessage struct {
	Type      string `json:"type"`
	RoomID    string `json:"roomId"`
	ViewerID  string `json:"viewerId"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// RelayedSignalMessage is an offer, answer or candidate forwarded to its target.
type RelayedSignalMessage struct {
	Type               string          `json:"type"`
	RoomID             string          `json:"roomId"`
	SenderConnectionID string          `json:"senderConnectionId"`
	SDP                json.RawMessage `json:"sdp,omitempty"`
	Candidate          json.RawMessage `json:"candidate,omitempty"`
	StreamID           json.RawMessage `json:"streamId,omitempty"`
}

// ErrorMessage is sent when an error occurs.
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	DisplacedReason   = "New streamer connected to this room."
	NoStreamNotice    = "No active stream in this room."
	StreamEndedNotice = "Streamer disconnected."
)

func NewConnectionInfoMessage(connectionID string) *ConnectionInfoMessage {
	return &ConnectionInfoMessage{Type: MsgTypeConnectionInfo, YourConnectionID: connectionID}
}

func NewDisconnectMessage() *DisconnectMessage {
	return &DisconnectMessage{Type: MsgTypeDisconnect, Reason: DisplacedReason}
}

func NewStreamStartedMessage(roomID string) *RoomMessage {
	return &RoomMessage{Type: MsgTypeStreamStarted, RoomID: roomID}
}

func NewStreamActiveMessage(roomID string) *RoomMessage {
	return &RoomMessage{Type: MsgTypeStreamActive, RoomID: roomID}
}

func NewNoStreamMessage(roomID string) *NoticeMessage {
	return &NoticeMessage{Type: MsgTypeNoStream, RoomID: roomID, Message: NoStreamNotice}
}

func NewStreamEndedMessage(roomID string) *NoticeMessage {
	return &NoticeMessage{Type: MsgTypeStreamEnded, RoomID: roomID, Message: StreamEndedNotice}
}

func NewViewerJoinedMessage(roomID, viewerConnectionID string) *ViewerJoinedMessage {
	return &ViewerJoinedMessage{Type: MsgTypeViewerJoined, RoomID: roomID, ViewerConnectionID: viewerConnectionID}
}

// NewErrorMessage creates a new error message.
func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		Type:    MsgTypeError,
		Code:    code,
		Message: message,
	}
}

// NewTargetNotFoundMessage reports a signaling target that is not connected.
func NewTargetNotFoundMessage(targetConnectionID string) *ErrorMessage {
	return NewErrorMessage(
		ErrCodeNotFound,
		fmt.Sprintf("Target connection ID: %s not found for WebRTC message.", targetConnectionID),
	)
}

func NewPongMessage() *BaseMessage {
	return &BaseMessage{Type: MsgTypePong}
}

package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Control is a decoded control message. Each concrete type carries exactly
// the fields its message kind requires.
type Control interface {
	MessageType() string
}

// StreamerRequest claims the streamer slot of a room.
type StreamerRequest struct {
	RoomID string
}

// ViewerRequest asks to watch a room.
type ViewerRequest struct {
	RoomID string
}

// CommentRequest is a viewer comment for a room.
type CommentRequest struct {
	RoomID   string
	ViewerID string
	Message  string
}

// SignalRequest is an offer, answer or candidate addressed to one connection.
// Payload is the sdp (offer/answer) or candidate, relayed untouched.
type SignalRequest struct {
	Type               string
	RoomID             string
	TargetConnectionID string
	Payload            json.RawMessage
	StreamID           json.RawMessage
}

// PingRequest is an application level keepalive.
type PingRequest struct{}

func (StreamerRequest) MessageType() string { return MsgTypeStreamer }
func (ViewerRequest) MessageType() string { return MsgTypeViewer }
func (CommentRequest) MessageType() string { return MsgTypeComment }
func (r SignalRequest) MessageType() string { return r.Type }
func (PingRequest) MessageType() string { return MsgTypePing }

// PayloadField names the field carrying the signaling payload for a type.
func PayloadField(msgType string) string {
	if msgType == MsgTypeCandidate {
		return "candidate"
	}
	return "sdp"
}

// Frame is either a control message or an opaque media payload.
type Frame struct {
	Control Control
	Payload []byte
}

// IsPayload reports whether the frame is opaque payload.
func (f Frame) IsPayload() bool {
	return f.Control == nil
}

// ProtocolError is a malformed control frame, reported to its sender only.
type ProtocolError struct {
	Code    string
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func badRequest(format string, args ...any) *ProtocolError {
	return &ProtocolError{Code: ErrCodeBadRequest, Message: fmt.Sprintf(format, args...)}
}

var roomScoped = map[string]bool{
	MsgTypeStreamer:  true,
	MsgTypeViewer:    true,
	MsgTypeComment:   true,
	MsgTypeOffer:     true,
	MsgTypeAnswer:    true,
	MsgTypeCandidate: true,
}

// DecodeFrame classifies raw frame data. Anything that is not a JSON object
// is returned as payload. A JSON object that is not a well formed control
// message yields a *ProtocolError.
func DecodeFrame(data []byte) (Frame, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return Frame{Payload: data}, nil
	}

	msgType, _ := stringField(fields, "type")

	var roomID string
	if roomScoped[msgType] {
		id, err := stringField(fields, "roomId")
		if err != nil || id == "" {
			return Frame{}, badRequest("roomId is required for this message type.")
		}
		roomID = id
	}

	switch msgType {
	case MsgTypeStreamer:
		return Frame{Control: StreamerRequest{RoomID: roomID}}, nil

	case MsgTypeViewer:
		return Frame{Control: ViewerRequest{RoomID: roomID}}, nil

	case MsgTypeComment:
		return decodeComment(fields, roomID)

	case MsgTypeOffer, MsgTypeAnswer, MsgTypeCandidate:
		return decodeSignal(fields, msgType, roomID)

	case MsgTypePing:
		return Frame{Control: PingRequest{}}, nil

	default:
		return Frame{}, &ProtocolError{
			Code:    ErrCodeUnknownType,
			Message: fmt.Sprintf("Unknown message type: %s", msgType),
		}
	}
}

func decodeComment(fields map[string]json.RawMessage, roomID string) (Frame, error) {
	if _, ok := fields["message"]; !ok {
		return Frame{}, badRequest("message is required for comments.")
	}

	viewerID, err := stringField(fields, "viewerId")
	if err != nil {
		return Frame{}, badRequest("viewerId must be a string.")
	}
	message, err := stringField(fields, "message")
	if err != nil {
		return Frame{}, badRequest("message must be a string.")
	}

	viewerID = strings.TrimSpace(viewerID)
	if viewerID == "" {
		viewerID = AnonymousViewer
	}

	return Frame{Control: CommentRequest{
		RoomID:   roomID,
		ViewerID: viewerID,
		Message:  strings.TrimSpace(message),
	}}, nil
}

func decodeSignal(fields map[string]json.RawMessage, msgType, roomID string) (Frame, error) {
	target, err := stringField(fields, "targetConnectionId")
	if err != nil || target == "" {
		return Frame{}, badRequest("WebRTC message '%s' requires a targetConnectionId.", msgType)
	}

	name := PayloadField(msgType)
	payload, ok := fields[name]
	if !ok || isNull(payload) {
		return Frame{}, badRequest("WebRTC message '%s' requires %s.", msgType, name)
	}

	req := SignalRequest{
		Type:               msgType,
		RoomID:             roomID,
		TargetConnectionID: target,
		Payload:            payload,
	}
	if streamID, ok := fields["streamId"]; ok && !isNull(streamID) {
		req.StreamID = streamID
	}
	return Frame{Control: req}, nil
}

// stringField reads a string field. A missing or null field reads as "".
func stringField(fields map[string]json.RawMessage, key string) (string, error) {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("field %s: %w", key, err)
	}
	return s, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

package audit

import (
	"context"

	"github.com/Rohan-134v/Streamvibe/pkg/log"
)

// Audit actions for the relay hub.
const (
	ActionStreamerRegister = "hub.streamer_register"
	ActionStreamerDisplace = "hub.streamer_displace"
	ActionStreamEnded      = "hub.stream_ended"
	ActionViewerJoin       = "hub.viewer_join"
	ActionComment          = "hub.comment"
	ActionDisconnect       = "hub.disconnect"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action, connectionID, roomID, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldConnectionID, connectionID).
		Str(log.FieldRoomID, roomID).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action, connectionID, roomID, detail, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldConnectionID, connectionID).
		Str(log.FieldRoomID, roomID).
		Str(FieldDetail, detail).
		Msg(msg)
}

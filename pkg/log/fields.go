package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Hub
	FieldConnectionID = "connection_id"
	FieldRoomID       = "room_id"
	FieldRole         = "role"
	FieldMessageType  = "message_type"
	FieldTargetID     = "target_connection_id"
	FieldRecipients   = "recipients"
	FieldBytes        = "bytes"

	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)

package service

import (
	"context"

	"github.com/Rohan-134v/Streamvibe/internal/domain"
	"github.com/Rohan-134v/Streamvibe/internal/hub"
)

// RelayService applies control messages and payload frames to the hub.
type RelayService interface {
	// HandleConnect greets a newly registered client with its connection id.
	HandleConnect(ctx context.Context, client *hub.Client) error

	// HandleStreamer installs the client as the room's streamer,
	// displacing any incumbent.
	HandleStreamer(ctx context.Context, client *hub.Client, roomID string) error

	// HandleViewer attaches the client to a live room or replies no-stream.
	HandleViewer(ctx context.Context, client *hub.Client, roomID string) error

	// HandleComment relays a comment to the room and persists it.
	HandleComment(ctx context.Context, client *hub.Client, req domain.CommentRequest) error

	// HandleSignal forwards an offer, answer or candidate to its target.
	HandleSignal(ctx context.Context, client *hub.Client, req domain.SignalRequest) error

	// HandlePayload fans a media payload out to the sender's viewers.
	HandlePayload(ctx context.Context, client *hub.Client, data []byte) error

	// HandleDisconnect releases whatever room state the client held.
	HandleDisconnect(ctx context.Context, client *hub.Client) error

	// Shutdown waits for in-flight persistence writes.
	Shutdown(ctx context.Context) error
}

// CommentService owns the durable comment log.
type CommentService interface {
	AppendComment(ctx context.Context, comment domain.Comment) error
	ListComments(ctx context.Context, roomID string) ([]domain.Comment, error)
}

package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/Rohan-134v/Streamvibe/internal/domain"
	"github.com/Rohan-134v/Streamvibe/internal/hub"
	"github.com/Rohan-134v/Streamvibe/internal/idgen"
	"github.com/Rohan-134v/Streamvibe/internal/service"
	pkglog "github.com/Rohan-134v/Streamvibe/pkg/log"
	"github.com/Rohan-134v/Streamvibe/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // no auth layer; any origin may connect
	},
}

// WSHandler handles WebSocket connections.
type WSHandler struct {
	hub     *hub.Hub
	service service.RelayService
	ids     idgen.Generator
}

// NewWSHandler creates a new WebSocket handler.
func NewWSHandler(h *hub.Hub, svc service.RelayService, ids idgen.Generator) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
		ids:     ids,
	}
}

// RegisterRoutes registers the WebSocket route.
func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.HandleWebSocket)
}

// HandleWebSocket upgrades the request and starts the client's pumps.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	l := pkglog.Ctx(c.Request.Context())

	clientID, err := h.ids.Generate()
	if err != nil {
		l.Error().Err(err).Msg("failed to generate connection id")
		response.InternalError(c, "failed to allocate connection id")
		return
	}
	c.Set(pkglog.FieldConnectionID, clientID)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	// The request context ends when this handler returns; the socket outlives it.
	ctx := pkglog.WithConnection(context.WithoutCancel(c.Request.Context()), clientID)
	client := hub.NewClient(clientID, h.hub, conn)

	client.SetDisconnectHandler(func(cl *hub.Client) {
		if err := h.service.HandleDisconnect(ctx, cl); err != nil {
			dl := pkglog.Ctx(ctx)
			dl.Error().Err(err).Msg("disconnect handler error")
		}
	})

	h.hub.Register(client)

	if err := h.service.HandleConnect(ctx, client); err != nil {
		l.Warn().Err(err).Str(pkglog.FieldConnectionID, clientID).Msg("failed to send connection info")
	}

	go client.WritePump()
	go client.ReadPump(func(cl *hub.Client, message []byte) {
		h.handleMessage(ctx, cl, message)
	})
}

func (h *WSHandler) handleMessage(ctx context.Context, client *hub.Client, message []byte) {
	l := pkglog.Ctx(ctx)

	frame, err := domain.DecodeFrame(message)
	if err != nil {
		var perr *domain.ProtocolError
		if errors.As(err, &perr) {
			l.Warn().Str("code", perr.Code).Msg(perr.Message)
			client.SendMessage(domain.NewErrorMessage(perr.Code, perr.Message))
			return
		}
		l.Error().Err(err).Msg("failed to decode frame")
		return
	}

	if frame.IsPayload() {
		if err := h.service.HandlePayload(ctx, client, frame.Payload); err != nil {
			l.Error().Err(err).Msg("payload relay failed")
		}
		return
	}

	switch msg := frame.Control.(type) {
	case domain.StreamerRequest:
		err = h.service.HandleStreamer(ctx, client, msg.RoomID)
	case domain.ViewerRequest:
		err = h.service.HandleViewer(ctx, client, msg.RoomID)
	case domain.CommentRequest:
		err = h.service.HandleComment(ctx, client, msg)
	case domain.SignalRequest:
		if verr := h.ids.Validate(msg.TargetConnectionID); verr != nil {
			// No connection can carry an id this generator would not issue.
			l.Debug().Err(verr).Str(pkglog.FieldTargetID, msg.TargetConnectionID).Msg("malformed signal target")
			err = client.SendMessage(domain.NewTargetNotFoundMessage(msg.TargetConnectionID))
			break
		}
		err = h.service.HandleSignal(ctx, client, msg)
	case domain.PingRequest:
		err = client.SendMessage(domain.NewPongMessage())
	}

	if err != nil {
		l.Error().Err(err).Str(pkglog.FieldMessageType, frame.Control.MessageType()).Msg("message handling failed")
	}
}

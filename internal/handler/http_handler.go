package handler

import (
	"errors"
	"net/http"

	"github.com/Rohan-134v/Streamvibe/internal/domain"
	"github.com/Rohan-134v/Streamvibe/internal/hub"
	"github.com/Rohan-134v/Streamvibe/internal/service"
	"github.com/Rohan-134v/Streamvibe/internal/store"
	"github.com/Rohan-134v/Streamvibe/pkg/log"
	"github.com/Rohan-134v/Streamvibe/pkg/response"
	"github.com/gin-gonic/gin"
)

const banner = "Streamvibe relay server is running. Connect via WebSocket at /ws for streaming."

type HTTPHandler struct {
	hub            *hub.Hub
	commentService service.CommentService
}

func NewHTTPHandler(h *hub.Hub, commentService service.CommentService) *HTTPHandler {
	return &HTTPHandler{
		hub:            h,
		commentService: commentService,
	}
}

// CommentsResponse is the payload of the room comments endpoint.
type CommentsResponse struct {
	RoomID   string           `json:"roomId"`
	Comments []domain.Comment `json:"comments"`
}

// ActiveStreamsResponse is the payload of the active streams endpoint.
type ActiveStreamsResponse struct {
	ActiveStreams []string `json:"activeStreams"`
}

func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Banner)
	r.GET("/health", h.HealthCheck)

	api := r.Group("/api")
	{
		api.GET("/rooms/:roomId/comments", h.GetComments)
		api.GET("/streams/active", h.GetActiveStreams)
	}
}

func (h *HTTPHandler) Banner(c *gin.Context) {
	c.String(http.StatusOK, banner)
}

func (h *HTTPHandler) GetComments(c *gin.Context) {
	roomID := c.Param("roomId")
	if roomID == "" {
		response.BadRequest(c, "roomId is required")
		return
	}

	comments, err := h.commentService.ListComments(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			response.NotFound(c, "Room not found")
			return
		}
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to list comments")
		response.InternalError(c, "failed to get comments")
		return
	}

	if comments == nil {
		comments = []domain.Comment{}
	}
	response.Success(c, CommentsResponse{RoomID: roomID, Comments: comments})
}

func (h *HTTPHandler) GetActiveStreams(c *gin.Context) {
	response.Success(c, ActiveStreamsResponse{ActiveStreams: h.hub.ActiveRooms()})
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

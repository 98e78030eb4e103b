package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Rohan-134v/Streamvibe/internal/audit"
	"github.com/Rohan-134v/Streamvibe/internal/domain"
	"github.com/Rohan-134v/Streamvibe/internal/hub"
	"github.com/Rohan-134v/Streamvibe/internal/idgen"
	"github.com/Rohan-134v/Streamvibe/internal/kafka"
	"github.com/Rohan-134v/Streamvibe/internal/store"
	pkglog "github.com/Rohan-134v/Streamvibe/pkg/log"
)

const defaultWriteTimeout = 5 * time.Second

type relayService struct {
	hub           *hub.Hub
	rooms         store.RoomStore
	comments      CommentService
	kafkaProducer kafka.RoomEventProducer
	commentIDs    *idgen.ULIDGenerator
	writeTimeout  time.Duration

	// persistence writes; tails chains the writes of each room
	writesMu sync.Mutex
	tails    map[string]chan struct{}
	closing  bool
	writes   sync.WaitGroup
}

// NewRelayService creates a new RelayService. kafkaProducer may be nil.
func NewRelayService(
	h *hub.Hub,
	rooms store.RoomStore,
	comments CommentService,
	kafkaProducer kafka.RoomEventProducer,
	writeTimeout time.Duration,
) RelayService {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &relayService{
		hub:           h,
		rooms:         rooms,
		comments:      comments,
		kafkaProducer: kafkaProducer,
		commentIDs:    idgen.NewULIDGenerator(),
		writeTimeout:  writeTimeout,
		tails:         make(map[string]chan struct{}),
	}
}

func (s *relayService) HandleConnect(ctx context.Context, c *hub.Client) error {
	return c.SendMessage(domain.NewConnectionInfoMessage(c.ID))
}

func (s *relayService) HandleStreamer(ctx context.Context, c *hub.Client, roomID string) error {
	if _, err := c.Session.Bind(domain.RoleStreamer, roomID); err != nil {
		return s.sendRoleConflict(c, err)
	}

	l := pkglog.Ctx(ctx)

	displaced, wasLive, err := s.hub.SetStreamer(roomID, c)
	if err != nil {
		// Displaced earlier; frames still buffered on its socket are stale.
		l.Info().Err(err).Str(pkglog.FieldRoomID, roomID).Msg("streamer request from retired connection ignored")
		return nil
	}
	if wasLive && displaced == nil {
		// Same connection claimed the same room again.
		return nil
	}

	if displaced != nil {
		l.Info().
			Str(pkglog.FieldRoomID, roomID).
			Str("displaced_connection_id", displaced.ID).
			Msg("streamer displaced")

		if err := displaced.SendMessage(domain.NewDisconnectMessage()); err != nil {
			l.Warn().Err(err).Str(pkglog.FieldRoomID, roomID).Msg("failed to notify displaced streamer")
		}
		displaced.Close()

		audit.LogWithDetail(ctx, audit.ActionStreamerDisplace, displaced.ID, roomID, c.ID, "streamer displaced by new connection")
		s.produceStreamEnded(ctx, roomID, displaced.ID, kafka.ReasonDisplaced)
	}

	s.persist(ctx, roomID, "ensure room", func(wctx context.Context) error {
		_, created, err := s.rooms.EnsureRoom(wctx, roomID)
		if err == nil && created {
			wl := pkglog.Ctx(wctx)
			wl.Info().Str(pkglog.FieldRoomID, roomID).Msg("room record created")
		}
		return err
	})

	if !wasLive {
		// Viewers only attach to live rooms, so this is normally empty.
		out, err := hub.TextFrame(domain.NewStreamStartedMessage(roomID))
		if err != nil {
			return err
		}
		if n := s.hub.Broadcast(roomID, out, ""); n > 0 {
			l.Info().Str(pkglog.FieldRoomID, roomID).Int(pkglog.FieldRecipients, n).Msg("notified waiting viewers of stream start")
		}
	}

	if s.kafkaProducer != nil {
		if err := s.kafkaProducer.ProduceStreamStarted(ctx, roomID, c.ID); err != nil {
			l.Warn().Err(err).Str(pkglog.FieldRoomID, roomID).Msg("failed to produce stream_started event")
		}
	}

	audit.Log(ctx, audit.ActionStreamerRegister, c.ID, roomID, "streamer registered")
	return nil
}

func (s *relayService) HandleViewer(ctx context.Context, c *hub.Client, roomID string) error {
	if !c.Session.CanBind(domain.RoleViewer, roomID) {
		return s.sendRoleConflict(c, domain.ErrRoleConflict)
	}

	confirm, err := hub.TextFrame(domain.NewStreamActiveMessage(roomID))
	if err != nil {
		return err
	}

	streamer, ok := s.hub.AddViewer(roomID, c, confirm)
	if !ok {
		l := pkglog.Ctx(ctx)
		l.Info().Str(pkglog.FieldRoomID, roomID).Msg("viewer attach rejected, no active stream")
		return c.SendMessage(domain.NewNoStreamMessage(roomID))
	}

	if _, err := c.Session.Bind(domain.RoleViewer, roomID); err != nil {
		// Unreachable while frames of one connection are handled in order.
		s.hub.RemoveViewer(roomID, c)
		return s.sendRoleConflict(c, err)
	}

	if err := streamer.SendMessage(domain.NewViewerJoinedMessage(roomID, c.ID)); err != nil {
		return err
	}

	audit.Log(ctx, audit.ActionViewerJoin, c.ID, roomID, "viewer joined")
	return nil
}

func (s *relayService) HandleComment(ctx context.Context, c *hub.Client, req domain.CommentRequest) error {
	now := time.Now()
	commentID, err := s.commentIDs.GenerateAt(now)
	if err != nil {
		return fmt.Errorf("failed to generate comment id: %w", err)
	}

	comment := domain.Comment{
		CommentID: commentID,
		RoomID:    req.RoomID,
		ViewerID:  req.ViewerID,
		Message:   req.Message,
		Timestamp: now.UTC(),
	}

	s.persist(ctx, req.RoomID, "append comment", func(wctx context.Context) error {
		return s.comments.AppendComment(wctx, comment)
	})

	out, err := hub.TextFrame(&domain.CommentMessage{
		Type:      domain.MsgTypeComment,
		RoomID:    req.RoomID,
		ViewerID:  req.ViewerID,
		Message:   req.Message,
		Timestamp: now.UnixMilli(),
	})
	if err != nil {
		return err
	}

	recipients := s.hub.Viewers(req.RoomID)
	if streamer := s.hub.Streamer(req.RoomID); streamer != nil {
		recipients = append(recipients, streamer)
	}
	n := hub.Deliver(recipients, out, c.ID)

	l := pkglog.Ctx(ctx)
	l.Debug().Str(pkglog.FieldRoomID, req.RoomID).Int(pkglog.FieldRecipients, n).Msg("comment relayed")

	audit.LogWithDetail(ctx, audit.ActionComment, c.ID, req.RoomID, commentID, "comment posted")
	return nil
}

func (s *relayService) HandleSignal(ctx context.Context, c *hub.Client, req domain.SignalRequest) error {
	l := pkglog.Ctx(ctx)

	target, ok := s.hub.Lookup(req.TargetConnectionID)
	if !ok {
		l.Warn().
			Str(pkglog.FieldMessageType, req.Type).
			Str(pkglog.FieldRoomID, req.RoomID).
			Str(pkglog.FieldTargetID, req.TargetConnectionID).
			Msg("signal target not found")
		return c.SendMessage(domain.NewTargetNotFoundMessage(req.TargetConnectionID))
	}

	msg := &domain.RelayedSignalMessage{
		Type:               req.Type,
		RoomID:             req.RoomID,
		SenderConnectionID: c.ID,
		StreamID:           req.StreamID,
	}
	if req.Type == domain.MsgTypeCandidate {
		msg.Candidate = req.Payload
	} else {
		msg.SDP = req.Payload
	}

	if err := target.SendMessage(msg); err != nil {
		return err
	}

	l.Debug().
		Str(pkglog.FieldMessageType, req.Type).
		Str(pkglog.FieldRoomID, req.RoomID).
		Str(pkglog.FieldTargetID, target.ID).
		Msg("signal relayed")
	return nil
}

func (s *relayService) HandlePayload(ctx context.Context, c *hub.Client, data []byte) error {
	l := pkglog.Ctx(ctx)

	roomID, ok := c.Session.StreamerRoom()
	if !ok || !s.hub.IsStreamer(roomID, c) {
		l.Warn().Int(pkglog.FieldBytes, len(data)).Msg("payload from connection without a live room dropped")
		return nil
	}

	n := s.hub.Broadcast(roomID, hub.BinaryFrame(data), "")
	l.Trace().Str(pkglog.FieldRoomID, roomID).Int(pkglog.FieldBytes, len(data)).Int(pkglog.FieldRecipients, n).Msg("payload broadcast")
	return nil
}

func (s *relayService) HandleDisconnect(ctx context.Context, c *hub.Client) error {
	role, roomID := c.Session.Binding()

	switch role {
	case domain.RoleStreamer:
		viewers, held := s.hub.ClearRoomIf(roomID, c)
		if !held {
			// Displaced earlier; the room belongs to its successor.
			break
		}

		out, err := hub.TextFrame(domain.NewStreamEndedMessage(roomID))
		if err != nil {
			return err
		}
		n := hub.Deliver(viewers, out, "")

		l := pkglog.Ctx(ctx)
		l.Info().Str(pkglog.FieldRoomID, roomID).Int(pkglog.FieldRecipients, n).Msg("stream ended, viewers notified")

		s.produceStreamEnded(ctx, roomID, c.ID, kafka.ReasonDisconnect)
		audit.Log(ctx, audit.ActionStreamEnded, c.ID, roomID, "streamer disconnected, room cleared")

	case domain.RoleViewer:
		s.hub.RemoveViewer(roomID, c)
	}

	l := pkglog.Ctx(ctx)
	l.Debug().Str(pkglog.FieldRole, role.String()).Str(pkglog.FieldRoomID, roomID).Msg("session released")

	audit.LogWithDetail(ctx, audit.ActionDisconnect, c.ID, roomID, role.String(), "client disconnected")
	return nil
}

func (s *relayService) Shutdown(ctx context.Context) error {
	s.writesMu.Lock()
	s.closing = true
	s.writesMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.writes.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for persistence writes: %w", ctx.Err())
	}
}

// persist runs fn off the live path with its own deadline. Writes for one
// room run in the order they were issued, so a room record is in place
// before the comments that follow it. Failures are logged and never reach
// the sender. Once Shutdown has started, new writes are dropped.
func (s *relayService) persist(ctx context.Context, roomID, op string, fn func(context.Context) error) {
	s.writesMu.Lock()
	if s.closing {
		s.writesMu.Unlock()
		l := pkglog.Ctx(ctx)
		l.Warn().Str(pkglog.FieldRoomID, roomID).Str("op", op).Msg("persistence write dropped, shutting down")
		return
	}
	s.writes.Add(1)
	prev := s.tails[roomID]
	done := make(chan struct{})
	s.tails[roomID] = done
	s.writesMu.Unlock()

	go func() {
		defer s.writes.Done()
		defer s.release(roomID, done)

		if prev != nil {
			<-prev
		}

		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
		defer cancel()

		if err := fn(wctx); err != nil {
			l := pkglog.Ctx(wctx)
			evt := l.Error()
			if errors.Is(err, store.ErrRoomNotFound) {
				evt = l.Warn()
			}
			evt.Err(err).Str(pkglog.FieldRoomID, roomID).Str("op", op).Msg("persistence write failed")
		}
	}()
}

func (s *relayService) release(roomID string, done chan struct{}) {
	close(done)

	s.writesMu.Lock()
	if s.tails[roomID] == done {
		delete(s.tails, roomID)
	}
	s.writesMu.Unlock()
}

func (s *relayService) produceStreamEnded(ctx context.Context, roomID, connectionID, reason string) {
	if s.kafkaProducer == nil {
		return
	}
	if err := s.kafkaProducer.ProduceStreamEnded(ctx, roomID, connectionID, reason); err != nil {
		l := pkglog.Ctx(ctx)
		l.Warn().Err(err).Str(pkglog.FieldRoomID, roomID).Str("reason", reason).Msg("failed to produce stream_ended event")
	}
}

func (s *relayService) sendRoleConflict(c *hub.Client, err error) error {
	role, roomID := c.Session.Binding()
	return c.SendMessage(domain.NewErrorMessage(
		domain.ErrCodeConflict,
		fmt.Sprintf("%s (bound as %s of room %s)", err.Error(), role, roomID),
	))
}

package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/Rohan-134v/Streamvibe/internal/config"
	"github.com/Rohan-134v/Streamvibe/internal/domain"
	"github.com/Rohan-134v/Streamvibe/internal/hub"
	"github.com/Rohan-134v/Streamvibe/internal/kafka"
	"github.com/Rohan-134v/Streamvibe/internal/store"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	mu     sync.Mutex
	events []kafka.RoomEvent
}

func (p *fakeProducer) ProduceStreamStarted(ctx context.Context, roomID, connectionID string) error {
	p.record(kafka.RoomEvent{Type: kafka.EventStreamStarted, RoomID: roomID, ConnectionID: connectionID})
	return nil
}

func (p *fakeProducer) ProduceStreamEnded(ctx context.Context, roomID, connectionID, reason string) error {
	p.record(kafka.RoomEvent{Type: kafka.EventStreamEnded, RoomID: roomID, ConnectionID: connectionID, Reason: reason})
	return nil
}

func (p *fakeProducer) Close() error { return nil }

func (p *fakeProducer) record(e kafka.RoomEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *fakeProducer) Events() []kafka.RoomEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]kafka.RoomEvent(nil), p.events...)
}

type recordingComments struct {
	mu       sync.Mutex
	appended []domain.Comment
}

func (r *recordingComments) AppendComment(ctx context.Context, comment domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appended = append(r.appended, comment)
	return nil
}

func (r *recordingComments) ListComments(ctx context.Context, roomID string) ([]domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Comment(nil), r.appended...), nil
}

type relayFixture struct {
	hub      *hub.Hub
	rooms    *store.MemoryRoomStore
	comments *recordingComments
	producer *fakeProducer
	svc      RelayService
}

func newRelayFixture(t *testing.T) *relayFixture {
	t.Helper()
	f := &relayFixture{
		hub:      hub.NewHub(config.WebSocketConfig{SendBuffer: 16}),
		rooms:    store.NewMemoryRoomStore(),
		comments: &recordingComments{},
		producer: &fakeProducer{},
	}
	f.svc = NewRelayService(f.hub, f.rooms, f.comments, f.producer, time.Second)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = f.svc.Shutdown(ctx)
	})
	return f
}

func (f *relayFixture) connect(id string) *hub.Client {
	c := hub.NewClient(id, f.hub, nil)
	f.hub.Register(c)
	return c
}

func (f *relayFixture) settle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.svc.Shutdown(ctx))
}

// drain returns every frame queued for c without blocking.
func drain(c *hub.Client) []hub.Outbound {
	var out []hub.Outbound
	for {
		select {
		case frame, ok := <-c.Send:
			if !ok {
				return out
			}
			out = append(out, frame)
		default:
			return out
		}
	}
}

func textMessages(t *testing.T, c *hub.Client) []map[string]interface{} {
	t.Helper()
	var msgs []map[string]interface{}
	for _, frame := range drain(c) {
		require.Equal(t, websocket.TextMessage, frame.Kind)
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(frame.Data, &m))
		msgs = append(msgs, m)
	}
	return msgs
}

func TestHandleConnect_SendsConnectionInfo(t *testing.T) {
	f := newRelayFixture(t)
	c := f.connect("c1")

	require.NoError(t, f.svc.HandleConnect(context.Background(), c))

	msgs := textMessages(t, c)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.MsgTypeConnectionInfo, msgs[0]["type"])
	assert.Equal(t, "c1", msgs[0]["yourConnectionId"])
}

func TestHandleStreamer_RegistersAndPersistsRoom(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()
	s := f.connect("s1")

	require.NoError(t, f.svc.HandleStreamer(ctx, s, "12345"))
	f.settle(t)

	assert.Same(t, s, f.hub.Streamer("12345"))
	role, room := s.Session.Binding()
	assert.Equal(t, domain.RoleStreamer, role)
	assert.Equal(t, "12345", room)

	_, err := f.rooms.FindRoom(ctx, "12345")
	assert.NoError(t, err)

	events := f.producer.Events()
	require.Len(t, events, 1)
	assert.Equal(t, kafka.EventStreamStarted, events[0].Type)
	assert.Equal(t, "s1", events[0].ConnectionID)
}

func TestHandleStreamer_RepeatIsNoop(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()
	s := f.connect("s1")

	require.NoError(t, f.svc.HandleStreamer(ctx, s, "r1"))
	require.NoError(t, f.svc.HandleStreamer(ctx, s, "r1"))

	assert.Same(t, s, f.hub.Streamer("r1"))
	assert.False(t, s.IsClosed())
	assert.Empty(t, textMessages(t, s))
	assert.Len(t, f.producer.Events(), 1)
}

func TestHandleStreamer_DisplacesIncumbent(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()
	s1 := f.connect("s1")
	s2 := f.connect("s2")

	require.NoError(t, f.svc.HandleStreamer(ctx, s1, "r1"))
	require.NoError(t, f.svc.HandleStreamer(ctx, s2, "r1"))

	assert.Same(t, s2, f.hub.Streamer("r1"))
	assert.True(t, s1.IsClosed())

	msgs := textMessages(t, s1)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.MsgTypeDisconnect, msgs[0]["type"])
	assert.Equal(t, domain.DisplacedReason, msgs[0]["reason"])

	events := f.producer.Events()
	require.Len(t, events, 3)
	assert.Equal(t, kafka.EventStreamEnded, events[1].Type)
	assert.Equal(t, kafka.ReasonDisplaced, events[1].Reason)
	assert.Equal(t, "s1", events[1].ConnectionID)
	assert.Equal(t, "s2", events[2].ConnectionID)
}

func TestHandleStreamer_ViewerCannotBecomeStreamer(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()
	s := f.connect("s1")
	v := f.connect("v1")

	require.NoError(t, f.svc.HandleStreamer(ctx, s, "r1"))
	require.NoError(t, f.svc.HandleViewer(ctx, v, "r1"))
	drain(v)

	require.NoError(t, f.svc.HandleStreamer(ctx, v, "r2"))

	msgs := textMessages(t, v)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.MsgTypeError, msgs[0]["type"])
	assert.Equal(t, domain.ErrCodeConflict, msgs[0]["code"])
	assert.Nil(t, f.hub.Streamer("r2"))
}

func TestHandleViewer_NoActiveStream(t *testing.T) {
	f := newRelayFixture(t)
	v := f.connect("v1")

	require.NoError(t, f.svc.HandleViewer(context.Background(), v, "r1"))

	msgs := textMessages(t, v)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.MsgTypeNoStream, msgs[0]["type"])
	assert.Equal(t, "r1", msgs[0]["roomId"])
	assert.Empty(t, f.hub.Viewers("r1"))

	role, _ := v.Session.Binding()
	assert.Equal(t, domain.RoleUnassigned, role)
}

func TestHandleViewer_JoinsLiveRoom(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()
	s := f.connect("s1")
	v := f.connect("v1")

	require.NoError(t, f.svc.HandleStreamer(ctx, s, "r1"))
	require.NoError(t, f.svc.HandleViewer(ctx, v, "r1"))

	viewerMsgs := textMessages(t, v)
	require.Len(t, viewerMsgs, 1)
	assert.Equal(t, domain.MsgTypeStreamActive, viewerMsgs[0]["type"])
	assert.Equal(t, "r1", viewerMsgs[0]["roomId"])

	streamerMsgs := textMessages(t, s)
	require.Len(t, streamerMsgs, 1)
	assert.Equal(t, domain.MsgTypeViewerJoined, streamerMsgs[0]["type"])
	assert.Equal(t, "v1", streamerMsgs[0]["viewerConnectionId"])

	assert.Len(t, f.hub.Viewers("r1"), 1)
}

func TestHandleViewer_SecondRoomConflicts(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.HandleStreamer(ctx, f.connect("s1"), "r1"))
	require.NoError(t, f.svc.HandleStreamer(ctx, f.connect("s2"), "r2"))
	v := f.connect("v1")

	require.NoError(t, f.svc.HandleViewer(ctx, v, "r1"))
	drain(v)
	require.NoError(t, f.svc.HandleViewer(ctx, v, "r2"))

	msgs := textMessages(t, v)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.ErrCodeConflict, msgs[0]["code"])
	assert.Empty(t, f.hub.Viewers("r2"))
}

func TestHandleDisconnect_StreamerEndsRoom(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()
	s := f.connect("s1")
	require.NoError(t, f.svc.HandleStreamer(ctx, s, "r1"))

	viewers := []*hub.Client{f.connect("v1"), f.connect("v2"), f.connect("v3")}
	for _, v := range viewers {
		require.NoError(t, f.svc.HandleViewer(ctx, v, "r1"))
		drain(v)
	}

	require.NoError(t, f.svc.HandleDisconnect(ctx, s))

	for _, v := range viewers {
		msgs := textMessages(t, v)
		require.Len(t, msgs, 1, v.ID)
		assert.Equal(t, domain.MsgTypeStreamEnded, msgs[0]["type"])
		assert.Equal(t, "r1", msgs[0]["roomId"])
	}
	assert.Nil(t, f.hub.Streamer("r1"))
	assert.Empty(t, f.hub.Viewers("r1"))

	events := f.producer.Events()
	last := events[len(events)-1]
	assert.Equal(t, kafka.EventStreamEnded, last.Type)
	assert.Equal(t, kafka.ReasonDisconnect, last.Reason)
}

func TestHandleDisconnect_DisplacedStreamerLeavesSuccessorRoom(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()
	s1 := f.connect("s1")
	s2 := f.connect("s2")
	v := f.connect("v1")

	require.NoError(t, f.svc.HandleStreamer(ctx, s1, "r1"))
	require.NoError(t, f.svc.HandleStreamer(ctx, s2, "r1"))
	require.NoError(t, f.svc.HandleViewer(ctx, v, "r1"))
	drain(v)

	require.NoError(t, f.svc.HandleDisconnect(ctx, s1))
	f.hub.Unregister(s1.ID)

	assert.Same(t, s2, f.hub.Streamer("r1"))
	assert.Len(t, f.hub.Viewers("r1"), 1)
	assert.Empty(t, drain(v))
}

func TestHandleDisconnect_ViewerLeaves(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()
	s := f.connect("s1")
	v := f.connect("v1")

	require.NoError(t, f.svc.HandleStreamer(ctx, s, "r1"))
	require.NoError(t, f.svc.HandleViewer(ctx, v, "r1"))
	require.NoError(t, f.svc.HandleDisconnect(ctx, v))

	assert.Empty(t, f.hub.Viewers("r1"))
	assert.Same(t, s, f.hub.Streamer("r1"))
}

func TestHandleDisconnect_UnassignedConnection(t *testing.T) {
	f := newRelayFixture(t)
	c := f.connect("c1")

	require.NoError(t, f.svc.HandleDisconnect(context.Background(), c))
	f.hub.Unregister(c.ID)
	f.hub.Unregister(c.ID)
	assert.Equal(t, 0, f.hub.ConnectionCount())
}

func TestHandleComment_RelaysAndPersists(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()
	s := f.connect("s1")
	v1 := f.connect("v1")
	v2 := f.connect("v2")

	require.NoError(t, f.svc.HandleStreamer(ctx, s, "12345"))
	require.NoError(t, f.svc.HandleViewer(ctx, v1, "12345"))
	require.NoError(t, f.svc.HandleViewer(ctx, v2, "12345"))
	drain(s)
	drain(v1)
	drain(v2)

	before := time.Now().UnixMilli()
	require.NoError(t, f.svc.HandleComment(ctx, v1, domain.CommentRequest{RoomID: "12345", ViewerID: "alice", Message: "hi"}))
	f.settle(t)

	assert.Empty(t, drain(v1), "sender does not receive its own comment")

	for _, c := range []*hub.Client{v2, s} {
		msgs := textMessages(t, c)
		require.Len(t, msgs, 1, c.ID)
		assert.Equal(t, domain.MsgTypeComment, msgs[0]["type"])
		assert.Equal(t, "12345", msgs[0]["roomId"])
		assert.Equal(t, "alice", msgs[0]["viewerId"])
		assert.Equal(t, "hi", msgs[0]["message"])
		assert.GreaterOrEqual(t, int64(msgs[0]["timestamp"].(float64)), before)
	}

	appended, err := f.comments.ListComments(ctx, "12345")
	require.NoError(t, err)
	require.Len(t, appended, 1)
	assert.Equal(t, "12345", appended[0].RoomID)
	assert.Equal(t, "alice", appended[0].ViewerID)
	assert.Equal(t, "hi", appended[0].Message)
	assert.NotEmpty(t, appended[0].CommentID)
}

func TestHandleComment_MissingRoomRecordStillRelays(t *testing.T) {
	h := hub.NewHub(config.WebSocketConfig{SendBuffer: 16})
	rooms := store.NewMemoryRoomStore()
	svc := NewRelayService(h, rooms, NewCommentService(rooms, nil, 0), nil, time.Second)
	ctx := context.Background()

	s := hub.NewClient("s1", h, nil)
	h.Register(s)
	h.SetStreamer("r1", s)

	sender := hub.NewClient("c1", h, nil)
	h.Register(sender)
	require.NoError(t, svc.HandleComment(ctx, sender, domain.CommentRequest{RoomID: "r1", ViewerID: domain.AnonymousViewer, Message: "x"}))
	require.NoError(t, svc.Shutdown(ctx))

	assert.Len(t, drain(s), 1)
	_, err := rooms.ListComments(ctx, "r1")
	assert.ErrorIs(t, err, store.ErrRoomNotFound)
}

func TestHandleSignal_RelaysOfferVerbatim(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()
	sender := f.connect("v1")
	target := f.connect("s1")

	sdp := json.RawMessage(`{"type":"offer","sdp":"v=0\r\no=- 1 2 IN IP4 127.0.0.1"}`)
	require.NoError(t, f.svc.HandleSignal(ctx, sender, domain.SignalRequest{
		Type:               domain.MsgTypeOffer,
		RoomID:             "r1",
		TargetConnectionID: "s1",
		Payload:            sdp,
		StreamID:           json.RawMessage(`"cam"`),
	}))

	frames := drain(target)
	require.Len(t, frames, 1)

	var got domain.RelayedSignalMessage
	require.NoError(t, json.Unmarshal(frames[0].Data, &got))
	assert.Equal(t, domain.MsgTypeOffer, got.Type)
	assert.Equal(t, "r1", got.RoomID)
	assert.Equal(t, "v1", got.SenderConnectionID)
	assert.JSONEq(t, string(sdp), string(got.SDP))
	assert.JSONEq(t, `"cam"`, string(got.StreamID))
	assert.Nil(t, got.Candidate)

	assert.Empty(t, drain(sender))
}

func TestHandleSignal_CandidateField(t *testing.T) {
	f := newRelayFixture(t)
	sender := f.connect("s1")
	target := f.connect("v1")

	require.NoError(t, f.svc.HandleSignal(context.Background(), sender, domain.SignalRequest{
		Type:               domain.MsgTypeCandidate,
		RoomID:             "r1",
		TargetConnectionID: "v1",
		Payload:            json.RawMessage(`{"candidate":"candidate:0 1 UDP 1 10.0.0.1 5000 typ host"}`),
	}))

	msgs := textMessages(t, target)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "candidate")
	assert.NotContains(t, msgs[0], "sdp")
	assert.NotContains(t, msgs[0], "streamId")
}

func TestHandleSignal_UnknownTarget(t *testing.T) {
	f := newRelayFixture(t)
	sender := f.connect("v1")
	bystander := f.connect("v2")

	require.NoError(t, f.svc.HandleSignal(context.Background(), sender, domain.SignalRequest{
		Type:               domain.MsgTypeAnswer,
		RoomID:             "r1",
		TargetConnectionID: "ghost",
		Payload:            json.RawMessage(`{}`),
	}))

	msgs := textMessages(t, sender)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.MsgTypeError, msgs[0]["type"])
	assert.Equal(t, domain.ErrCodeNotFound, msgs[0]["code"])
	assert.Contains(t, msgs[0]["message"], "ghost")
	assert.Empty(t, drain(bystander))
}

func TestHandlePayload_BroadcastsToViewersOnly(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()
	s := f.connect("s1")
	v1 := f.connect("v1")
	v2 := f.connect("v2")
	other := f.connect("o1")

	require.NoError(t, f.svc.HandleStreamer(ctx, s, "r1"))
	require.NoError(t, f.svc.HandleViewer(ctx, v1, "r1"))
	require.NoError(t, f.svc.HandleViewer(ctx, v2, "r1"))
	drain(s)
	drain(v1)
	drain(v2)

	chunk := []byte{0x1a, 0x45, 0xdf, 0xa3, 0x00, 0xff}
	require.NoError(t, f.svc.HandlePayload(ctx, s, chunk))

	for _, v := range []*hub.Client{v1, v2} {
		frames := drain(v)
		require.Len(t, frames, 1, v.ID)
		assert.Equal(t, websocket.BinaryMessage, frames[0].Kind)
		assert.Equal(t, chunk, frames[0].Data)
	}
	assert.Empty(t, drain(s))
	assert.Empty(t, drain(other))
}

func TestHandlePayload_DroppedWithoutLiveRoom(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()
	s1 := f.connect("s1")
	s2 := f.connect("s2")
	v := f.connect("v1")

	// Unassigned sender.
	require.NoError(t, f.svc.HandlePayload(ctx, v, []byte{1, 2, 3}))

	require.NoError(t, f.svc.HandleStreamer(ctx, s1, "r1"))
	require.NoError(t, f.svc.HandleStreamer(ctx, s2, "r1"))
	require.NoError(t, f.svc.HandleViewer(ctx, v, "r1"))
	drain(v)
	drain(s2)

	// Displaced streamer.
	require.NoError(t, f.svc.HandlePayload(ctx, s1, []byte{4, 5, 6}))
	assert.Empty(t, drain(v))

	// Viewer.
	require.NoError(t, f.svc.HandlePayload(ctx, v, []byte{7}))
	assert.Empty(t, drain(s2))
}

func TestShutdown_HonoursDeadline(t *testing.T) {
	h := hub.NewHub(config.WebSocketConfig{})
	svc := NewRelayService(h, store.NewMemoryRoomStore(), &blockingComments{release: make(chan struct{})}, nil, time.Second).(*relayService)
	blocker := svc.comments.(*blockingComments)
	defer close(blocker.release)

	c := hub.NewClient("c1", h, nil)
	require.NoError(t, svc.HandleComment(context.Background(), c, domain.CommentRequest{RoomID: "r1", ViewerID: "a", Message: "m"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, svc.Shutdown(ctx), context.DeadlineExceeded)
}

type blockingComments struct {
	release chan struct{}
}

func (b *blockingComments) AppendComment(ctx context.Context, comment domain.Comment) error {
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return nil
}

func (b *blockingComments) ListComments(ctx context.Context, roomID string) ([]domain.Comment, error) {
	return nil, nil
}

func TestHandleStreamer_DisplacedConnectionCannotReclaim(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()
	a := f.connect("a")
	b := f.connect("b")
	v := f.connect("v")

	require.NoError(t, f.svc.HandleStreamer(ctx, a, "r1"))
	require.NoError(t, f.svc.HandleStreamer(ctx, b, "r1"))
	require.NoError(t, f.svc.HandleViewer(ctx, v, "r1"))
	drain(b)
	drain(v)

	// a's socket still holds a buffered streamer frame.
	require.NoError(t, f.svc.HandleStreamer(ctx, a, "r1"))

	assert.Same(t, b, f.hub.Streamer("r1"))
	assert.False(t, b.IsClosed())
	assert.Empty(t, drain(b))

	require.NoError(t, f.svc.HandleDisconnect(ctx, a))
	assert.Same(t, b, f.hub.Streamer("r1"))
	assert.Empty(t, drain(v), "viewers keep watching the successor")

	events := f.producer.Events()
	require.Len(t, events, 3, "started a, ended a, started b")
}

func TestHandleViewer_RacesStreamerDisconnect(t *testing.T) {
	for i := 0; i < 100; i++ {
		f := newRelayFixture(t)
		ctx := context.Background()
		s := f.connect("s")
		require.NoError(t, f.svc.HandleStreamer(ctx, s, "r1"))

		viewers := []*hub.Client{f.connect("v1"), f.connect("v2"), f.connect("v3")}

		var wg sync.WaitGroup
		start := make(chan struct{})
		for _, v := range viewers {
			wg.Add(1)
			go func(v *hub.Client) {
				defer wg.Done()
				<-start
				assert.NoError(t, f.svc.HandleViewer(ctx, v, "r1"))
			}(v)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			assert.NoError(t, f.svc.HandleDisconnect(ctx, s))
		}()
		close(start)
		wg.Wait()

		require.Nil(t, f.hub.Streamer("r1"), "iteration %d", i)
		require.Empty(t, f.hub.Viewers("r1"), "iteration %d", i)

		for _, v := range viewers {
			var types []interface{}
			for _, m := range textMessages(t, v) {
				types = append(types, m["type"])
			}
			switch len(types) {
			case 1:
				assert.Equal(t, []interface{}{domain.MsgTypeNoStream}, types, "iteration %d viewer %s", i, v.ID)
			case 2:
				assert.Equal(t, []interface{}{domain.MsgTypeStreamActive, domain.MsgTypeStreamEnded}, types, "iteration %d viewer %s", i, v.ID)
			default:
				t.Fatalf("iteration %d viewer %s got %v", i, v.ID, types)
			}
		}
	}
}

func TestShutdown_DropsLateWrites(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()
	c := f.connect("c1")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.svc.HandleComment(ctx, c, domain.CommentRequest{RoomID: "r1", ViewerID: "a", Message: "m"}))
		}()
	}
	f.settle(t)
	wg.Wait()

	before, err := f.comments.ListComments(ctx, "r1")
	require.NoError(t, err)

	require.NoError(t, f.svc.HandleComment(ctx, c, domain.CommentRequest{RoomID: "r1", ViewerID: "a", Message: "late"}))
	f.settle(t)

	after, err := f.comments.ListComments(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, after, len(before))
}

// slowRooms delays room creation so comments queue up behind it.
type slowRooms struct {
	*store.MemoryRoomStore
	delay time.Duration
}

func (s *slowRooms) EnsureRoom(ctx context.Context, roomID string) (*domain.Room, bool, error) {
	time.Sleep(s.delay)
	return s.MemoryRoomStore.EnsureRoom(ctx, roomID)
}

func TestPersist_CommentWaitsForRoomRecord(t *testing.T) {
	rooms := &slowRooms{MemoryRoomStore: store.NewMemoryRoomStore(), delay: 50 * time.Millisecond}
	h := hub.NewHub(config.WebSocketConfig{SendBuffer: 16})
	svc := NewRelayService(h, rooms, NewCommentService(rooms, nil, 0), nil, time.Second)
	ctx := context.Background()

	s := hub.NewClient("s1", h, nil)
	h.Register(s)

	require.NoError(t, svc.HandleStreamer(ctx, s, "r1"))
	for _, msg := range []string{"first", "second", "third"} {
		require.NoError(t, svc.HandleComment(ctx, s, domain.CommentRequest{RoomID: "r1", ViewerID: "alice", Message: msg}))
	}
	require.NoError(t, svc.Shutdown(ctx))

	comments, err := rooms.ListComments(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "first", comments[0].Message)
	assert.Equal(t, "third", comments[2].Message)
}

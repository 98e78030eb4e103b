package hub

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Rohan-134v/Streamvibe/internal/config"
	pkglog "github.com/Rohan-134v/Streamvibe/pkg/log"
)

// ErrStreamerRetired is returned when a displaced or closed connection tries
// to take a streamer slot.
var ErrStreamerRetired = errors.New("connection can no longer stream")

// Hub is the connection registry: every live connection by id, plus one
// streamer slot and one viewer set per room. All mutations happen under a
// single lock; the maps never leave the hub.
type Hub struct {
	mu        sync.RWMutex
	clients   map[string]*Client
	streamers map[string]*Client            // roomID -> streamer
	viewers   map[string]map[string]*Client // roomID -> clientID -> viewer
	config    config.WebSocketConfig
}

// NewHub creates a new Hub. Zero timing values fall back to defaults.
func NewHub(cfg config.WebSocketConfig) *Hub {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = 10 * time.Second
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 1 << 20
	}
	return &Hub{
		clients:   make(map[string]*Client),
		streamers: make(map[string]*Client),
		viewers:   make(map[string]map[string]*Client),
		config:    cfg,
	}
}

// Config returns the WebSocket settings the hub's clients pump with.
func (h *Hub) Config() config.WebSocketConfig {
	return h.config
}

// Register adds a client to the global table, replacing any entry with the
// same id.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	total := len(h.clients)
	h.mu.Unlock()

	l := pkglog.L()
	l.Info().Str(pkglog.FieldConnectionID, client.ID).Int("connections", total).Msg("client registered")
}

// Unregister removes a connection from the global table and closes it.
// Unknown ids are ignored. Room membership is not touched.
func (h *Hub) Unregister(connectionID string) {
	h.mu.Lock()
	client, ok := h.clients[connectionID]
	if ok {
		delete(h.clients, connectionID)
	}
	h.mu.Unlock()

	if !ok {
		return
	}
	client.Close()

	l := pkglog.L()
	l.Info().Str(pkglog.FieldConnectionID, connectionID).Msg("client unregistered")
}

// Lookup returns the connection registered under id.
func (h *Hub) Lookup(connectionID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connectionID]
	return c, ok
}

// SetStreamer installs client in the room's streamer slot. It returns the
// incumbent it displaced (nil if none) and whether the room was already
// live. Installing the current holder again changes nothing. A displaced
// incumbent is retired: it can never hold a slot again.
func (h *Hub) SetStreamer(roomID string, client *Client) (displaced *Client, wasLive bool, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client.retired || client.IsClosed() {
		return nil, false, ErrStreamerRetired
	}

	current, live := h.streamers[roomID]
	if live && current == client {
		return nil, true, nil
	}
	if live {
		current.retired = true
	}
	h.streamers[roomID] = client
	return current, live, nil
}

// Streamer returns the room's streamer, or nil when the room is not live.
func (h *Hub) Streamer(roomID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.streamers[roomID]
}

// IsStreamer reports whether client currently holds the room's streamer slot.
func (h *Hub) IsStreamer(roomID string, client *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.streamers[roomID] == client
}

// AddViewer adds client to the room's viewer set if, and only if, the room
// is live, and queues confirm to it before the lock is released. A clear of
// the same room therefore cannot deliver its notice ahead of confirm. It
// returns the room's streamer on success.
func (h *Hub) AddViewer(roomID string, client *Client, confirm Outbound) (*Client, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	streamer, live := h.streamers[roomID]
	if !live {
		return nil, false
	}
	set, ok := h.viewers[roomID]
	if !ok {
		set = make(map[string]*Client)
		h.viewers[roomID] = set
	}
	set[client.ID] = client
	client.SendFrame(confirm)
	return streamer, true
}

// RemoveViewer removes client from the room's viewer set and drops the set
// once it is empty.
func (h *Hub) RemoveViewer(roomID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.viewers[roomID]
	if !ok {
		return
	}
	if set[client.ID] == client {
		delete(set, client.ID)
	}
	if len(set) == 0 {
		delete(h.viewers, roomID)
	}
}

// ClearRoom removes the room's streamer slot and viewer set and returns the
// viewers that were in it.
func (h *Hub) ClearRoom(roomID string) []*Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clearRoomLocked(roomID)
}

// ClearRoomIf clears the room only while client still holds its streamer
// slot, so a displaced streamer cannot end its successor's room.
func (h *Hub) ClearRoomIf(roomID string, client *Client) ([]*Client, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.streamers[roomID] != client {
		return nil, false
	}
	return h.clearRoomLocked(roomID), true
}

func (h *Hub) clearRoomLocked(roomID string) []*Client {
	delete(h.streamers, roomID)
	set := h.viewers[roomID]
	delete(h.viewers, roomID)

	out := make([]*Client, 0, len(set))
	for _, c := range set {
		out = append(out, c)
	}
	return out
}

// Viewers returns a snapshot of the room's viewer set.
func (h *Hub) Viewers(roomID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.viewers[roomID]
	out := make([]*Client, 0, len(set))
	for _, c := range set {
		out = append(out, c)
	}
	return out
}

// ActiveRooms returns the ids of live rooms, sorted.
func (h *Hub) ActiveRooms() []string {
	h.mu.RLock()
	rooms := make([]string, 0, len(h.streamers))
	for roomID := range h.streamers {
		rooms = append(rooms, roomID)
	}
	h.mu.RUnlock()

	sort.Strings(rooms)
	return rooms
}

// CloseAll unregisters and closes every connection. Room state is left for
// the disconnect handlers that run as each read pump ends.
func (h *Hub) CloseAll() int {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for id, c := range h.clients {
		clients = append(clients, c)
		delete(h.clients, id)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
	return len(clients)
}

// ConnectionCount returns the number of registered connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends out to every viewer of the room except exclude, as the
// set stood when the call started. It returns how many frames were queued.
func (h *Hub) Broadcast(roomID string, out Outbound, exclude string) int {
	return Deliver(h.Viewers(roomID), out, exclude)
}

// Deliver sends out to each recipient except exclude. A recipient that
// cannot take the frame is skipped.
func Deliver(recipients []*Client, out Outbound, exclude string) int {
	sent := 0
	for _, c := range recipients {
		if c == nil || c.ID == exclude {
			continue
		}
		if c.SendFrame(out) {
			sent++
		}
	}
	return sent
}

package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/Rohan-134v/Streamvibe/internal/domain"
	pkglog "github.com/Rohan-134v/Streamvibe/pkg/log"
	"github.com/gorilla/websocket"
)

const defaultSendBuffer = 256

// DisconnectHandler is called when a client disconnects.
type DisconnectHandler func(*Client)

// Outbound is one frame queued for a client, tagged with its WebSocket
// message kind (websocket.TextMessage or websocket.BinaryMessage).
type Outbound struct {
	Kind int
	Data []byte
}

// TextFrame marshals v into a text frame.
func TextFrame(v interface{}) (Outbound, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Outbound{}, err
	}
	return Outbound{Kind: websocket.TextMessage, Data: data}, nil
}

// BinaryFrame wraps payload bytes without copying or reinterpreting them.
func BinaryFrame(data []byte) Outbound {
	return Outbound{Kind: websocket.BinaryMessage, Data: data}
}

// Client represents a connected WebSocket client.
type Client struct {
	ID      string
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan Outbound
	Session *domain.Session

	disconnectHandler DisconnectHandler

	// retired is set once the client loses a streamer slot; guarded by Hub.mu.
	retired bool

	mu     sync.Mutex
	closed bool
}

// NewClient creates a client with an unassigned session. conn may be nil
// for clients that are never pumped.
func NewClient(id string, h *Hub, conn *websocket.Conn) *Client {
	size := defaultSendBuffer
	if h != nil && h.config.SendBuffer > 0 {
		size = h.config.SendBuffer
	}
	return &Client{
		ID:      id,
		Hub:     h,
		Conn:    conn,
		Send:    make(chan Outbound, size),
		Session: domain.NewSession(id),
	}
}

// SetDisconnectHandler sets the handler to be called on disconnect.
func (c *Client) SetDisconnectHandler(handler DisconnectHandler) {
	c.disconnectHandler = handler
}

// SendMessage marshals message and queues it as a text frame.
func (c *Client) SendMessage(message interface{}) error {
	out, err := TextFrame(message)
	if err != nil {
		return err
	}
	c.enqueue(out)
	return nil
}

// SendFrame queues an already encoded frame. It reports whether the frame
// was queued; closed clients and full queues drop the frame.
func (c *Client) SendFrame(out Outbound) bool {
	return c.enqueue(out)
}

func (c *Client) enqueue(out Outbound) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		l := pkglog.L()
		l.Debug().Str(pkglog.FieldConnectionID, c.ID).Msg("send to closed client skipped")
		return false
	}

	select {
	case c.Send <- out:
		return true
	default:
		l := pkglog.L()
		l.Warn().
			Str(pkglog.FieldConnectionID, c.ID).
			Int(pkglog.FieldBytes, len(out.Data)).
			Msg("client send buffer full, frame dropped")
		return false
	}
}

// Close stops the client's outbound queue. The write pump flushes what is
// already queued, sends a close frame and closes the socket. Safe to call
// more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// IsClosed reports whether Close has been called.
func (c *Client) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// ReadPump pumps messages from the WebSocket connection to the handler.
// Frames are handled one at a time in arrival order.
func (c *Client) ReadPump(handler func(*Client, []byte)) {
	defer func() {
		// Call disconnect handler before unregistering
		if c.disconnectHandler != nil {
			c.disconnectHandler(c)
		}
		c.Hub.Unregister(c.ID)
		c.Close()
		c.Conn.Close()
	}()

	cfg := c.Hub.config
	c.Conn.SetReadLimit(cfg.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				l := pkglog.L()
				l.Error().Err(err).Str(pkglog.FieldConnectionID, c.ID).Msg("websocket error")
			}
			break
		}

		handler(c, message)
	}
}

// WritePump pumps queued frames to the WebSocket connection.
func (c *Client) WritePump() {
	cfg := c.Hub.config
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case out, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.Conn.WriteMessage(out.Kind, out.Data); err != nil {
				l := pkglog.L()
				l.Debug().Err(err).Str(pkglog.FieldConnectionID, c.ID).Msg("websocket write failed")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

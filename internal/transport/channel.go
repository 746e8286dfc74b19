package transport

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sketchrelay/sketchrelay/internal/board"
	"github.com/sketchrelay/sketchrelay/internal/wire"
)

// Status is the externally visible connection state, reported to the UI.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusError        Status = "error"
)

// ErrChannelUnavailable is returned by Send while the channel is not open.
// There is no send buffering or retry; callers drop the event.
var ErrChannelUnavailable = errors.New("sync channel is not open")

// Channel is a persistent duplex connection to the session relay. It carries
// outbound locally generated drawing events and delivers inbound events and
// presence notices to the handler. One channel serves one session; the owner
// replaces it when the active session changes.
type Channel struct {
	handler  wire.Handler
	onStatus func(Status)

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// NewChannel creates an unconnected channel. onStatus may be nil.
func NewChannel(handler wire.Handler, onStatus func(Status)) *Channel {
	return &Channel{handler: handler, onStatus: onStatus}
}

// Connect dials the relay for the given whiteboard session, authenticating
// with the opaque bearer token, and sends the join_session control message.
// On success a reader goroutine dispatches inbound messages until the
// connection closes. There is no auto-reconnect: after a disconnect the
// caller decides whether to Connect again.
func (c *Channel) Connect(ctx context.Context, baseURL, whiteboardID, token string) error {
	c.setStatus(StatusConnecting)

	endpoint := fmt.Sprintf("%s/api/relay/ws/%s?whiteboard_id=%s",
		baseURL, url.PathEscape(token), url.QueryEscape(whiteboardID))

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		c.setStatus(StatusError)
		return fmt.Errorf("failed to dial relay: %w", err)
	}

	if err := conn.WriteJSON(wire.NewJoinSession(whiteboardID)); err != nil {
		conn.Close()
		c.setStatus(StatusError)
		return fmt.Errorf("failed to join session: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.closed = false
	c.mu.Unlock()

	c.setStatus(StatusConnected)
	go c.readLoop(conn)
	return nil
}

// Send transmits a drawing event inside a drawing_data envelope. It returns
// ErrChannelUnavailable while not connected.
func (c *Channel) Send(ev board.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || c.closed {
		return ErrChannelUnavailable
	}
	if err := c.conn.WriteJSON(wire.NewDrawingData(ev)); err != nil {
		return fmt.Errorf("failed to send drawing event: %w", err)
	}
	return nil
}

// Close terminates the connection. It is idempotent and is the only
// cancellation primitive: in-flight sends racing a close are best effort.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed || c.conn == nil {
		c.closed = true
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	return conn.Close()
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	defer c.setStatus(StatusDisconnected)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !c.isClosed() && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.setStatus(StatusError)
			}
			return
		}

		msg, err := wire.Decode(data)
		if err != nil {
			log.Printf("transport: dropping undecodable message: %v", err)
			continue
		}
		wire.Dispatch(msg, c.handler)
	}
}

func (c *Channel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Channel) setStatus(s Status) {
	if c.onStatus != nil {
		c.onStatus(s)
	}
}

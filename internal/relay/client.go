package relay

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sketchrelay/sketchrelay/internal/wire"
)

const sendQueueSize = 256

// Client is one connected user on the relay. Outbound messages go through a
// buffered queue drained by a single write pump, which keeps the per-receiver
// stream ordered.
type Client struct {
	UserID string
	Info   wire.UserInfo

	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(userID string, info wire.UserInfo, conn *websocket.Conn) *Client {
	c := &Client{
		UserID: userID,
		Info:   info,
		conn:   conn,
		send:   make(chan []byte, sendQueueSize),
	}
	go c.writePump()
	return c
}

func (c *Client) writePump() {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("relay: write to user %s failed: %v", c.UserID, err)
			break
		}
	}
	c.conn.Close()
}

// enqueue reports false when the client is closed or its queue is full (slow
// consumer). The closed check and the send share the client mutex so a
// concurrent close cannot land between them.
func (c *Client) enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

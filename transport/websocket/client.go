// Package websocket carries the quiz wire protocol over gorilla/websocket.
// Each connection gets a read pump feeding the lifecycle handler and a
// write pump draining a buffered send queue, so session operations never
// block on network I/O.
package websocket

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// TODO: Configure this for production
		return true
	},
}

// ErrConnClosed is returned by Send after the connection has been closed.
var ErrConnClosed = errors.New("connection closed")

// Client wraps one websocket connection. It implements game.Conn: Send
// enqueues without blocking and Close is idempotent, recording the close
// code the write pump should emit.
type Client struct {
	handler *Handler
	conn    *websocket.Conn
	send    chan []byte

	mu        sync.Mutex
	closed    bool
	closeCode int
}

// Send queues a frame for delivery. It fails when the connection is closed
// or the peer is too slow to drain its queue; callers treat both as a dead
// recipient.
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		return errors.New("send queue full")
	}
}

// Close marks the connection closed and hands the close code to the write
// pump, which emits the close frame and tears down the socket. Subsequent
// calls are no-ops.
func (c *Client) Close(code int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.closeCode = code
	close(c.send)
}

// readPump feeds inbound frames to the handler. On any read error the
// connection is considered gone and the disconnect path runs exactly once.
func (c *Client) readPump() {
	defer func() {
		c.Close(websocket.CloseNormalClosure)
		c.handler.HandleDisconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
		c.handler.HandleMessage(c, data)
	}
}

// writePump drains the send queue to the peer and keeps the connection
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Close was called; emit the recorded close code.
				c.mu.Lock()
				code := c.closeCode
				c.mu.Unlock()
				if code == 0 {
					code = websocket.CloseNormalClosure
				}
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, ""))
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

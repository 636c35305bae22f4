package gateway

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/iliyamo/restaurant-service-sync/internal/model"
)

const (
	writeTimeout   = 10 * time.Second
	pongTimeout    = 60 * time.Second
	pingInterval   = 50 * time.Second
	maxMessageSize = 64 * 1024
	sendBufferSize = 64
)

// member is a broadcast target in a room: a *Client over a websocket
// in production, a recording stub in tests. deliver reports false when
// the member can no longer keep up and should be dropped.
type member interface {
	deliver(data []byte) bool
	closeSend()
}

// Client is one connected observer. Outbound frames go through a
// buffered channel drained by writePump, so a broadcast never blocks
// the room on a slow connection.
type Client struct {
	conn *websocket.Conn
	role model.Role
	send chan []byte
}

func newClient(conn *websocket.Conn, role model.Role) *Client {
	return &Client{
		conn: conn,
		role: role,
		send: make(chan []byte, sendBufferSize),
	}
}

// deliver queues a frame for the write pump. A full buffer means the
// observer has stalled; the room drops it rather than hold up the
// session.
func (c *Client) deliver(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// closeSend is called exactly once, by the room that removes the
// client; the closed channel makes writePump shut the connection down.
func (c *Client) closeSend() {
	close(c.send)
}

// writePump drains the send channel onto the connection and keeps the
// peer alive with pings. It owns all writes to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

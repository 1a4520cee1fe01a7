package network

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is one websocket connection. The player identity is bound on
// the first successful createRoom, joinRoom or reconnect and never
// rebound afterwards. Outbound frames go through the buffered send
// channel; a client that cannot drain it is dropped.
type Client struct {
	gateway *Gateway
	conn    *websocket.Conn

	connID   string
	playerID string
	roomID   string

	send chan []byte
}

func newClient(g *Gateway, conn *websocket.Conn, connID string) *Client {
	return &Client{
		gateway: g,
		conn:    conn,
		connID:  connID,
		send:    make(chan []byte, 32),
	}
}

// enqueue hands a frame to the write pump without blocking. A full
// buffer closes the connection; the client can reconnect within grace.
func (c *Client) enqueue(payload []byte) {
	select {
	case c.send <- payload:
	default:
		c.conn.Close()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.gateway.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.gateway.handleMessage(c, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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

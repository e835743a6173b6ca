package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
)

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// Queue buffers a frame for this client only. It reports false when the
// buffer is full.
func (c *Client) Queue(msg Message) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Run registers the client, queues the snapshot and blocks until the
// connection closes.
func (c *Client) Run(ctx context.Context, snapshot func() Message) {
	c.start(snapshot)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)
}

// start registers before reading the snapshot, so any change published in
// between is queued too. Such a change is never newer than the snapshot
// that follows it.
func (c *Client) start(snapshot func() Message) {
	c.hub.Register(c)
	if snapshot == nil {
		return
	}
	if !c.Queue(snapshot()) {
		c.hub.log.Warn("ws: client buffer full, dropping snapshot")
	}
}

// readPump discards incoming frames; the feed is one-way.
func (c *Client) readPump(ctx context.Context) {
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

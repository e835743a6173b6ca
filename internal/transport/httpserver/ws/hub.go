// Package ws pushes store state changes to connected websocket clients.
package ws

import (
	"encoding/json"
	"sync"

	"medminder-go/internal/metrics"
	"medminder-go/internal/state"
	"medminder-go/pkg/logger"
)

const (
	TypeSnapshot = "snapshot"
	TypeChanged  = "state_changed"
)

// Message is the frame sent to clients. Every frame carries the full state.
type Message struct {
	Type  string      `json:"type"`
	Op    string      `json:"op,omitempty"`
	State state.State `json:"state"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	log     logger.Logger
	metrics *metrics.Metrics
}

// NewHub creates a hub. m may be nil.
func NewHub(log logger.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		log:     log,
		metrics: m,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.ClientConnected()
}

// Unregister removes the client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	if ok {
		h.metrics.ClientDisconnected()
	}
}

// Publish forwards a store event to every client. It is meant to be passed
// to state.Store.Subscribe.
func (h *Hub) Publish(event state.Event) {
	h.Broadcast(Message{Type: TypeChanged, Op: event.Op, State: event.State})
}

// Broadcast never blocks: clients with a full buffer miss the frame.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.InternalError("ws: marshal broadcast failed", err, "op", msg.Op)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.Warn("ws: client buffer full, dropping frame", "op", msg.Op)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

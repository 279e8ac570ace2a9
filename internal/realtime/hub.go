// Package realtime keeps the set of connected websocket observers and pushes
// "something changed" signals to them.
package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"stamp_card/internal/model"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 32
)

const greeting = "WebSocket connection established"

// Hub is the registry of connected observers. Delivery is best effort: a
// message for an observer whose buffer is full is dropped.
type Hub struct {
	mu       sync.RWMutex
	clients  map[uint64]*client
	nextID   uint64
	closed   bool
	upgrader websocket.Upgrader
}

// NewHub creates an empty Hub. The upgrader accepts any origin.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[uint64]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and serves the connection until it closes
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WARN: websocket upgrade failed: %v", err)
		return
	}
	c := h.register(conn, encode(model.Event{Type: model.EventTypeConnected, Message: greeting}))
	if c == nil {
		conn.Close()
		return
	}

	go c.writePump()
	c.readPump(h)
}

// Broadcast signals every open observer that category changed
func (h *Hub) Broadcast(category model.ChangeCategory) {
	h.fanOut(0, encode(model.Event{Type: string(category)}))
}

// Relay forwards text received from one observer to all the others
func (h *Hub) Relay(from uint64, text string) {
	h.fanOut(from, encode(model.Event{Type: model.EventTypeMessage, Payload: text}))
}

// Count returns the number of connected observers
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every observer and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
}

func (h *Hub) fanOut(skip uint64, msg []byte) {
	if msg == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.clients {
		if id == skip {
			continue
		}
		c.enqueue(msg)
	}
}

func (h *Hub) register(conn *websocket.Conn, hello []byte) *client {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.nextID++
	c := &client{id: h.nextID, conn: conn, send: make(chan []byte, sendBuffer)}
	if hello != nil {
		c.enqueue(hello)
	}
	h.clients[c.id] = c
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
	}
}

func encode(ev model.Event) []byte {
	msg, err := json.Marshal(ev)
	if err != nil {
		log.Printf("ERROR: failed to encode realtime event %q: %v", ev.Type, err)
		return nil
	}
	return msg
}

// Package hub fans watch-page payloads out to their websocket viewers
// using the channel-based broadcast pattern.
package hub

import (
	"encoding/json"
	"sync"

	"github.com/printforge/go-k1/internal/log"
)

// Hub pushes one topic's payloads to every connected viewer. The watch
// server runs two: merged status as JSON text and camera JPEGs as
// binary frames. Which of the two a hub speaks is fixed at construction.
type Hub struct {
	topic  string
	binary bool

	// Registered viewers
	viewers map[*Viewer]bool

	// Inbound payloads to fan out
	broadcast chan []byte

	// Join and leave requests from viewers
	register   chan *Viewer
	unregister chan *Viewer

	// Guards the viewers map; ViewerCount reads it from outside the loop
	mu sync.RWMutex
}

// New creates a Hub for one topic. Binary hubs deliver websocket binary
// frames; the rest deliver text.
func New(topic string, binary bool) *Hub {
	return &Hub{
		topic:      topic,
		binary:     binary,
		viewers:    make(map[*Viewer]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Viewer),
		unregister: make(chan *Viewer),
	}
}

// Run starts the hub's main loop.
// This should be called in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case viewer := <-h.register:
			h.mu.Lock()
			h.viewers[viewer] = true
			count := len(h.viewers)
			h.mu.Unlock()
			log.Debug("viewer connected", "topic", h.topic, "id", viewer.ID, "total", count)

		case viewer := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.viewers[viewer]; ok {
				delete(h.viewers, viewer)
				close(viewer.send)
			}
			count := len(h.viewers)
			h.mu.Unlock()
			log.Debug("viewer disconnected", "topic", h.topic, "id", viewer.ID, "remaining", count)

		case payload := <-h.broadcast:
			h.mu.Lock()
			for viewer := range h.viewers {
				select {
				case viewer.send <- payload:
				default:
					// Viewer's buffer is full; they cannot keep up.
					close(viewer.send)
					delete(h.viewers, viewer)
					log.Warn("dropped slow viewer", "topic", h.topic, "id", viewer.ID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues a payload for every viewer. Payloads are dropped,
// not queued, when the hub is saturated; frames are perishable.
func (h *Hub) Broadcast(payload []byte) {
	select {
	case h.broadcast <- payload:
	default:
		log.Warn("broadcast channel full, dropping payload", "topic", h.topic)
	}
}

// BroadcastJSON encodes v and broadcasts it.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

// ViewerCount returns the number of connected viewers.
func (h *Hub) ViewerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers)
}

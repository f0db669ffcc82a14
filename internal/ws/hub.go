// Package ws delivers change-feed notifications to connected viewers.
//
// The hub subscribes to the store's change events and forwards each event
// to every client watching the affected group. Delivery is best-effort: a
// client whose send buffer is full loses the event, and clients are
// expected to re-fetch on reconnect anyway.
package ws

import (
	"github.com/pvidal/amigoinvisible/internal/metrics"
	"github.com/pvidal/amigoinvisible/internal/storage"
)

// Hub tracks connected clients per group and fans change events out to them.
type Hub struct {
	// clients is owned by the Run goroutine; all access goes through the
	// channels below, so no lock is needed.
	clients map[string]map[*Client]bool // group id -> clients

	register   chan *Client
	unregister chan *Client
	events     chan storage.ChangeEvent
	done       chan struct{}
}

// NewHub creates a hub. Call Run in a goroutine before registering clients.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan storage.ChangeEvent, 64),
		done:       make(chan struct{}),
	}
}

// Notify enqueues a change event for fan-out. Safe to call from any
// goroutine; never blocks the mutation that produced the event.
func (h *Hub) Notify(ev storage.ChangeEvent) {
	select {
	case h.events <- ev:
	case <-h.done:
	default:
		metrics.NotificationsDroppedTotal.Inc()
	}
}

// Run processes registrations and events until Close is called.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			if h.clients[c.groupID] == nil {
				h.clients[c.groupID] = make(map[*Client]bool)
			}
			h.clients[c.groupID][c] = true
		case c := <-h.unregister:
			if group := h.clients[c.groupID]; group[c] {
				delete(group, c)
				close(c.send)
				if len(group) == 0 {
					delete(h.clients, c.groupID)
				}
			}
		case ev := <-h.events:
			for c := range h.clients[ev.GroupID] {
				select {
				case c.send <- ev:
				default:
					metrics.NotificationsDroppedTotal.Inc()
				}
			}
		case <-h.done:
			for _, group := range h.clients {
				for c := range group {
					close(c.send)
				}
			}
			h.clients = make(map[string]map[*Client]bool)
			return
		}
	}
}

// Close stops the hub and disconnects all clients.
func (h *Hub) Close() {
	close(h.done)
}

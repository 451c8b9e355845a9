package stream

import (
	"encoding/json"
	"sync"

	"github.com/stockpulse/stockpulseapi/api/quote"
	"github.com/stockpulse/stockpulseapi/shared/zaplogger"
)

// broadcastBuffer absorbs bursts between poll cycles without blocking the
// publisher.
const broadcastBuffer = 16

// Hub fans quote batches out to connected websocket clients. A client whose
// send buffer is full is disconnected rather than allowed to stall the
// broadcast loop.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu      sync.RWMutex
	clients map[*Client]struct{}
	latest  []byte
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, broadcastBuffer),
		clients:    make(map[*Client]struct{}),
	}
}

// Run drives the hub loop. Call once in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			latest := h.latest
			h.mu.Unlock()

			// New clients get the last broadcast batch immediately.
			if latest != nil {
				select {
				case client.send <- latest:
				default:
				}
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			h.latest = message
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// PublishQuotes broadcasts the batch to all connected clients. Non-blocking:
// if the broadcast buffer is full the batch is dropped, the next poll cycle
// supersedes it anyway.
func (h *Hub) PublishQuotes(quotes []quote.Quote) {
	if len(quotes) == 0 {
		return
	}

	data, err := json.Marshal(quotes)
	if err != nil {
		zaplogger.Error("Failed to marshal quote batch for broadcast", zaplogger.Fields{"error": err})
		return
	}

	select {
	case h.broadcast <- data:
	default:
		zaplogger.Warn("Broadcast buffer full, dropping quote batch")
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

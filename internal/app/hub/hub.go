/*
Package hub pushes client state to every attached UI over WebSocket.

The Hub owns the set of connected UIs. Controllers publish session, location, feed,
notice and checkout transitions into it; each message is fanned out to all clients.
A newly attached UI first receives the current state as an init message.
*/
package hub

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"gatherlocal/internal/app/notice"
	"gatherlocal/internal/pkg/logx"
)

const broadcastChannelBuffer = 1024

// Hub coordinates all attached UI connections.
type Hub struct {
	// connected clients, keyed by their connection id.
	clients map[string]*Client

	// a buffered channel of marshaled messages to be sent to all clients.
	broadcast chan []byte

	// a channel for clients requesting to attach.
	register chan *Client

	// a channel for clients detaching.
	unregister chan *Client

	// used to signal the Run loop to stop.
	stopChan chan struct{}
	stopOnce sync.Once

	// initData builds the state sent to a newly attached client.
	initData func() any

	// widget receives checkout results sent over the stream.
	widget *Widget

	// mu protects clients, initData and widget.
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub constructs a Hub. Call Run in its own goroutine.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan []byte, broadcastChannelBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopChan:   make(chan struct{}),
		logger:     logx.Component("hub"),
	}
}

// SetInitData sets the function whose result is sent to each newly attached client.
func (h *Hub) SetInitData(fn func() any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.initData = fn
}

func (h *Hub) setWidget(w *Widget) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.widget = w
}

func (h *Hub) checkoutWidget() *Widget {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.widget
}

// Stop terminates the Run loop and closes every client's queue.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.logger.Info().Msg("Received stop signal. Stopping hub.")
		close(h.stopChan)
	})
}

// Run is the main event loop. It handles attach, detach and fan-out until Stop.
func (h *Hub) Run() {
	defer func() {
		h.mu.Lock()
		for id, client := range h.clients {
			close(client.send)
			delete(h.clients, id)
		}
		h.mu.Unlock()

		h.logger.Info().Msg("Hub Run loop finished.")
	}()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if existing, ok := h.clients[client.id]; ok && existing != client {
				close(existing.send)
			}
			h.clients[client.id] = client
			total := len(h.clients)
			initData := h.initData
			h.mu.Unlock()

			h.logger.Info().Str("client_id", client.id).Int("total_clients", total).Msg("UI attached.")

			if initData != nil {
				if err := client.SendInitData(initData()); err != nil {
					h.drop(client)
				}
			}

		case client := <-h.unregister:
			h.drop(client)

		case message := <-h.broadcast:
			h.mu.Lock()
			for id, client := range h.clients {
				select {
				case client.send <- message:
				default:
					h.logger.Warn().Str("client_id", id).Msg("Client send channel full, detaching.")
					close(client.send)
					delete(h.clients, id)
				}
			}
			h.mu.Unlock()

		case <-h.stopChan:
			return
		}
	}
}

// drop removes client if it is still the registered connection for its id.
func (h *Hub) drop(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	current, ok := h.clients[client.id]
	if !ok || current != client {
		return
	}
	delete(h.clients, client.id)
	close(client.send)

	h.logger.Info().Str("client_id", client.id).Int("total_clients", len(h.clients)).Msg("UI detached.")
}

// RegisterClient queues client for attachment. It reports false once the hub has stopped.
func (h *Hub) RegisterClient(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.stopChan:
		return false
	}
}

// unregisterClient queues client for detachment.
func (h *Hub) unregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stopChan:
	}
}

// ClientCount returns the number of attached UIs.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a message of msgType to every attached UI. It never blocks;
// a full queue drops the message.
func (h *Hub) Broadcast(msgType MessageType, payload any) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		h.logger.Error().Err(err).Str("msg_type", string(msgType)).Msg("Failed to build broadcast message.")
		return
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("message_id", msg.ID).Msg("Error marshaling message for broadcast.")
		return
	}

	select {
	case h.broadcast <- raw:
	default:
		h.logger.Warn().Str("msg_type", string(msgType)).Msg("Broadcast channel full, dropping message.")
	}
}

// Publish implements notice.Sink.
func (h *Hub) Publish(n notice.Notice) {
	h.Broadcast(TypeNotice, n)
}

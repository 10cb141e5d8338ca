package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/vortex-trading/vortex/internal/bus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub broadcasts engine events to dashboard websocket clients. Clients
// that fail a write are dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	events  <-chan bus.Event
}

// NewHub creates a Hub consuming the given event stream.
func NewHub(events <-chan bus.Event) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		events:  events,
	}
}

// Run pumps events to connected clients until ctx is cancelled or the
// event stream closes.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case event, ok := <-h.events:
			if !ok {
				h.closeAll()
				return
			}
			h.broadcast(event)
		}
	}
}

func (h *Hub) broadcast(event bus.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", string(event.Topic)).Msg("telemetry: marshal event failed")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(h.clients, conn)
			log.Debug().Err(err).Msg("telemetry: client dropped")
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
	}
	h.clients = make(map[*websocket.Conn]struct{})
}

// ServeWS upgrades an HTTP request and registers the client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("telemetry: websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	log.Info().Int("clients", n).Str("remote", r.RemoteAddr).Msg("telemetry: client connected")
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

package dashboard

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 10 * time.Second

// Message is the envelope pushed to dashboard websocket clients
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Hub fans dashboard updates out to connected websocket clients
type Hub struct {
	upgrader websocket.Upgrader

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]*sync.Mutex // per-connection write lock

	onConnect func() *Message
	onCount   func(int)
}

// NewHub creates a hub. onConnect, if set, builds the first message a new client receives.
// onCount, if set, is called whenever the number of clients changes.
func NewHub(onConnect func() *Message, onCount func(int)) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:    1024,
			WriteBufferSize:   4096,
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients:   make(map[*websocket.Conn]*sync.Mutex),
		onConnect: onConnect,
		onCount:   onCount,
	}
}

// HandleWebSocket upgrades the request and registers the client
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	mu := &sync.Mutex{}
	h.clientsMu.Lock()
	h.clients[conn] = mu
	count := len(h.clients)
	h.clientsMu.Unlock()
	h.reportCount(count)

	log.Debug().Str("remote", r.RemoteAddr).Int("clients", count).Msg("Dashboard client connected")

	if h.onConnect != nil {
		if msg := h.onConnect(); msg != nil {
			if data, err := json.Marshal(msg); err == nil {
				h.write(conn, mu, data)
			}
		}
	}

	go h.readLoop(conn)
}

// ServeHTTP makes the hub mountable as a route handler
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.HandleWebSocket(w, r)
}

// readLoop drains client frames until the connection closes
func (h *Hub) readLoop(conn *websocket.Conn) {
	defer h.remove(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.clientsMu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	count := len(h.clients)
	h.clientsMu.Unlock()

	conn.Close()
	if ok {
		h.reportCount(count)
		log.Debug().Int("clients", count).Msg("Dashboard client disconnected")
	}
}

// Broadcast sends msg to every connected client. Clients that fail the write are dropped.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("type", msg.Type).Msg("Failed to encode websocket message")
		return
	}

	h.clientsMu.RLock()
	targets := make(map[*websocket.Conn]*sync.Mutex, len(h.clients))
	for conn, mu := range h.clients {
		targets[conn] = mu
	}
	h.clientsMu.RUnlock()

	for conn, mu := range targets {
		if !h.write(conn, mu, data) {
			h.remove(conn)
		}
	}
}

func (h *Hub) write(conn *websocket.Conn, mu *sync.Mutex, data []byte) bool {
	mu.Lock()
	defer mu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Debug().Err(err).Msg("Websocket write failed")
		return false
	}
	return true
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.clientsMu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.clientsMu.Unlock()

	for _, conn := range conns {
		h.remove(conn)
	}
}

func (h *Hub) reportCount(n int) {
	if h.onCount != nil {
		h.onCount(n)
	}
}

// Package livereload implements the browser notification channel: a
// websocket endpoint every served HTML page connects back to, and a
// filesystem watcher that turns file changes into reload broadcasts.
package livereload

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const writeTimeout = 5 * time.Second

// reloadMessage is the only thing ever sent to clients; the injected page
// script reloads on any message, so the payload is informational.
var reloadMessage = []byte("reload")

// Hub accepts websocket clients and broadcasts reload notifications to
// all of them.
type Hub struct {
	log      zerolog.Logger
	upgrader websocket.Upgrader
	server   *http.Server
	ln       net.Listener

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub creates a Hub; call Listen and Serve to make it reachable.
func NewHub(log zerolog.Logger) *Hub {
	h := &Hub{
		log:     log,
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Pages connect from whatever host the user typed into the
			// browser; this is a development tool, accept any origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	h.server = &http.Server{Handler: h}
	return h
}

// Listen binds the websocket endpoint. Separate from Serve so an
// unusable port fails startup synchronously.
func (h *Hub) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen for live-reload clients on %s: %w", addr, err)
	}
	h.ln = ln
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (h *Hub) Addr() net.Addr {
	if h.ln == nil {
		return nil
	}
	return h.ln.Addr()
}

// Serve accepts clients until Close. A nil error means deliberate
// shutdown.
func (h *Hub) Serve() error {
	h.log.Info().Str("addr", h.ln.Addr().String()).Msg("live-reload endpoint listening")
	if err := h.server.Serve(h.ln); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// ServeHTTP upgrades an incoming connection and tracks it until the peer
// goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}
	h.log.Debug().Str("remote", r.RemoteAddr).Msg("live-reload client connected")

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	go h.readLoop(conn)
}

// readLoop drains inbound frames. Clients never send anything meaningful;
// reading is what detects the peer closing the socket.
func (h *Hub) readLoop(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.drop(conn)
			return
		}
	}
}

// Broadcast tells every connected browser to reload. Clients that cannot
// be written to within writeTimeout are dropped.
func (h *Hub) Broadcast() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	if len(conns) == 0 {
		return
	}
	h.log.Debug().Int("clients", len(conns)).Msg("broadcasting reload")
	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, reloadMessage); err != nil {
			h.log.Debug().Err(err).Msg("dropping unresponsive live-reload client")
			h.drop(conn)
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close shuts the endpoint down and disconnects every client.
func (h *Hub) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := h.server.Shutdown(ctx)

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.clients = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
	return err
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, tracked := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if tracked {
		conn.Close()
	}
}

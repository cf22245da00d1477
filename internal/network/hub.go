// Package network is the concrete transport: a gorilla/websocket hub that
// implements dispatch.NetworkSink over a registry of connected game
// clients. Every connection carries opaque relay packets (the same byte
// frames the dispatcher decodes) rather than a typed JSON envelope —
// framing is the dispatcher's job, not the transport's.
package network

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ambervale/relaycore/internal/dispatch"
	"github.com/ambervale/relaycore/internal/session"
)

// Hub is the central connection registry and fan-out broker. All mutation
// of the conns map happens inside Run's single event-loop goroutine
// through the register/unregister channels; Publish-style sends (SendToAll,
// Respond) only ever take a read lock to snapshot the target set before
// writing to per-connection send channels, so a slow peer can never stall
// the registry itself.
type Hub struct {
	mu    sync.RWMutex
	conns map[*session.Client]*Conn

	register   chan *Conn
	unregister chan *Conn

	logger *zap.Logger
}

// NewHub creates an idle Hub. Call Run in its own goroutine to start it.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		conns:      make(map[*session.Client]*Conn),
		register:   make(chan *Conn, 16),
		unregister: make(chan *Conn, 16),
		logger:     logger.Named("network"),
	}
}

// Run is the hub's event loop. It must be called exactly once, in its own
// goroutine, and exits when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.conns[c.client] = c
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.conns[c.client]; ok {
				delete(h.conns, c.client)
				close(c.send)
			}
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for _, c := range h.conns {
				close(c.send)
			}
			h.conns = make(map[*session.Client]*Conn)
			h.mu.Unlock()
			return
		}
	}
}

// Register admits a freshly upgraded connection, making it a SendToAll /
// Respond target.
func (h *Hub) Register(c *Conn) { h.register <- c }

// Unregister removes a connection. Safe to call more than once for the
// same connection.
func (h *Hub) Unregister(c *Conn) { h.unregister <- c }

// ConnectedCount returns the number of currently connected transport peers.
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// enqueue puts payload on c's send buffer, disconnecting c if the buffer
// is full — a slow peer must never be allowed to stall this call's caller.
func (h *Hub) enqueue(c *Conn, payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		h.Unregister(c)
		return false
	}
}

// SendToAll implements dispatch.NetworkSink. except may be nil. reliable
// is accepted for interface fidelity with the original dual-transport
// design (spec.md §6) but every connection here is the same reliable
// WebSocket stream, so it has no effect on delivery.
func (h *Hub) SendToAll(except *session.Client, payload []byte, reliable, toSelf bool) {
	h.mu.RLock()
	targets := make([]*Conn, 0, len(h.conns))
	for client, c := range h.conns {
		if client == except && !toSelf {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.enqueue(c, payload)
	}
}

// Respond implements dispatch.NetworkSink: a single-target send. It
// returns false if c has no live connection or its send buffer is full.
func (h *Hub) Respond(client *session.Client, payload []byte, reliable bool) bool {
	h.mu.RLock()
	c, ok := h.conns[client]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return h.enqueue(c, payload)
}

// SyncClient implements dispatch.NetworkSink: it replays every other
// connected client's currently owned vehicles to the newly handshaked
// client, bringing it up to the world's current state.
func (h *Hub) SyncClient(client *session.Client) bool {
	h.mu.RLock()
	target, ok := h.conns[client]
	if !ok {
		h.mu.RUnlock()
		return false
	}
	peers := make([]*session.Client, 0, len(h.conns))
	for c := range h.conns {
		if c != client {
			peers = append(peers, c)
		}
	}
	h.mu.RUnlock()

	ok = true
	for _, peer := range peers {
		peer.Lock()
		peer.EachVehicle(func(_ int, data string) {
			if !h.enqueue(target, []byte(data)) {
				ok = false
			}
		})
		peer.Unlock()
	}
	return ok
}

// UpdatePlayer implements dispatch.NetworkSink. The hub itself has no
// additional per-ping bookkeeping to do — liveness is entirely tracked by
// the Client Record's Status field, which the dispatcher already updates —
// this is a hook point for future transport-level keepalive metrics.
func (h *Hub) UpdatePlayer(client *session.Client) {}

var _ dispatch.NetworkSink = (*Hub)(nil)

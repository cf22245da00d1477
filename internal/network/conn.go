package network

import (
	"net/http"
	"time"
	"weak"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ambervale/relaycore/internal/dispatch"
	"github.com/ambervale/relaycore/internal/session"
)

const (
	// writeWait bounds how long a single frame write may take before the
	// connection is considered dead.
	writeWait = 10 * time.Second

	// pongWait is how long the server waits for a pong after a ping before
	// giving up on a client.
	pongWait = 60 * time.Second

	// pingPeriod must stay comfortably below pongWait so the client has
	// time to answer.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds a single inbound frame, well above the 30000
	// byte decompressed packet ceiling the dispatcher itself enforces.
	maxMessageSize = 1 << 16

	// sendBufferSize is the per-connection outbound queue depth. A
	// connection whose buffer fills is treated as too slow and dropped
	// (Hub.enqueue), protecting every other peer from one slow reader.
	sendBufferSize = 64
)

// upgrader performs the HTTP to WebSocket handshake. Origin checking is
// left to the reverse proxy in front of the relay, matching how the admin
// HTTP surface is fronted too.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Conn is one connected game client's transport half, paired with its
// session.Client half through client. Two goroutines run per Conn:
// readPump feeds inbound frames to the dispatcher, writePump serialises
// outbound frames onto the wire (gorilla/websocket connections are not
// safe for concurrent writers).
type Conn struct {
	hub    *Hub
	ws     *websocket.Conn
	client *session.Client
	ref    weak.Pointer[session.Client]
	send   chan []byte

	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger
}

// Accept upgrades an HTTP request to a WebSocket connection and binds it
// to client, returning a Conn ready to Run.
func Accept(hub *Hub, dispatcher *dispatch.Dispatcher, w http.ResponseWriter, r *http.Request, client *session.Client, ref weak.Pointer[session.Client], logger *zap.Logger) (*Conn, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return &Conn{
		hub:        hub,
		ws:         ws,
		client:     client,
		ref:        ref,
		send:       make(chan []byte, sendBufferSize),
		dispatcher: dispatcher,
		logger:     logger.With(zap.Uint32("client_id", client.ID)),
	}, nil
}

// Run registers the connection with the hub and blocks until it closes,
// running the write pump on its own goroutine alongside the read pump on
// the caller's.
func (c *Conn) Run() {
	c.hub.Register(c)

	go c.writePump()
	c.readPump()
}

// readPump decodes inbound binary frames and hands each one to the
// dispatcher. It never interprets the payload itself — framing and opcode
// routing are entirely the dispatcher's job.
func (c *Conn) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Warn("network: failed to set read deadline", zap.Error(err))
		return
	}
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived,
			) {
				c.logger.Debug("network: unexpected close", zap.Error(err))
			}
			return
		}
		c.dispatcher.Dispatch(c.ref, payload)
	}
}

// writePump forwards queued frames to the wire and sends periodic pings
// so readPump can detect a stale peer.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Warn("network: failed to set write deadline", zap.Error(err))
				return
			}
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.BinaryMessage, payload); err != nil {
				c.logger.Warn("network: write error", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Warn("network: failed to set write deadline", zap.Error(err))
				return
			}
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Warn("network: ping error", zap.Error(err))
				return
			}
		}
	}
}

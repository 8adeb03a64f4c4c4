// Package realtime carries keypad presses from the browser to the session
// manager over WebSocket and pushes settled states back.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"reactive-calculator/internal/calculator"
	"reactive-calculator/internal/observability"
	"reactive-calculator/internal/protocol"
	"reactive-calculator/internal/session"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pingInterval  = 30 * time.Second
	readDeadline  = 60 * time.Second
	writeDeadline = 10 * time.Second
	maxMessageLen = 4096
	sendBufCap    = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Sessions is the part of the session manager the hub needs.
type Sessions interface {
	Create(ctx context.Context) (session.Snapshot, error)
	Get(id string) (session.Snapshot, error)
	Dispatch(ctx context.Context, id string, e calculator.Event) (session.Snapshot, error)
	Delete(ctx context.Context, id string) error
	Subscribe(id string) (string, <-chan session.Snapshot, error)
	Unsubscribe(id, subID string)
}

// Hub owns the open keypad connections. Every connection gets its own
// calculator session for as long as the page stays open.
type Hub struct {
	sessions  Sessions
	clients   map[*client]struct{}
	clientsMu sync.RWMutex
}

type client struct {
	conn      *websocket.Conn
	hub       *Hub
	sessionID string
	subID     string

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func NewHub(sessions Sessions) *Hub {
	return &Hub{
		sessions: sessions,
		clients:  make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and starts a fresh calculator session.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := observability.RequestIDFromContext(r.Context())
	logger := observability.Logger.With(zap.String("request_id", requestID))

	// The hijacked response only carries the headers handed to Upgrade.
	var header http.Header
	if requestID != "" {
		header = http.Header{"X-Request-Id": []string{requestID}}
	}

	conn, err := upgrader.Upgrade(w, r, header)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	// The request context ends with the handler; the session outlives it.
	ctx := context.Background()

	snap, err := h.sessions.Create(ctx)
	if err != nil {
		logger.Warn("websocket session rejected", zap.Error(err))
		writeCloseError(conn, err)
		return
	}

	subID, updates, err := h.sessions.Subscribe(snap.ID)
	if err != nil {
		logger.Error("subscribing to new session", zap.String("session_id", snap.ID), zap.Error(err))
		_ = h.sessions.Delete(ctx, snap.ID)
		writeCloseError(conn, err)
		return
	}

	c := &client{
		conn:      conn,
		hub:       h,
		sessionID: snap.ID,
		subID:     subID,
		send:      make(chan []byte, sendBufCap),
	}

	h.clientsMu.Lock()
	h.clients[c] = struct{}{}
	h.clientsMu.Unlock()
	connectionsGauge.Inc()

	logger.Info("keypad connected", zap.String("session_id", snap.ID))

	c.sendMessage(protocol.NewStateUpdate(snap))

	go c.forward(updates)
	go c.writePump()
	go c.readPump()
}

// BroadcastReload tells every open page to reload its bundle.
func (h *Hub) BroadcastReload(path string) {
	msg, err := protocol.NewMessage(protocol.TypeAssetsReload, protocol.AssetsReloadPayload{Path: path})
	if err != nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	for c := range h.clients {
		c.enqueue(data)
	}
}

// Len returns the number of open connections.
func (h *Hub) Len() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client. Their sessions are discarded by the read
// pumps as they unwind.
func (h *Hub) Close() {
	h.clientsMu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	for _, c := range clients {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeDeadline))
		c.conn.Close()
	}
}

// removeClient cleans up a disconnected client and discards its session.
func (h *Hub) removeClient(c *client) {
	h.clientsMu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.clientsMu.Unlock()

	if !ok {
		return
	}
	connectionsGauge.Dec()

	h.sessions.Unsubscribe(c.sessionID, c.subID)
	if err := h.sessions.Delete(context.Background(), c.sessionID); err != nil && !errors.Is(err, session.ErrNotFound) {
		observability.Logger.Warn("discarding keypad session", zap.String("session_id", c.sessionID), zap.Error(err))
	}

	c.close()

	observability.Logger.Info("keypad disconnected", zap.String("session_id", c.sessionID))
}

// handleMessage processes one raw client message.
func (h *Hub) handleMessage(c *client, raw []byte) {
	msg, err := protocol.ValidateClientMessage(raw)
	if err != nil {
		c.sendError(protocol.ErrInvalidMessage, err.Error())
		return
	}

	switch msg.Type {
	case protocol.TypeButtonPress:
		var payload protocol.ButtonPressPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.sendError(protocol.ErrInvalidMessage, "invalid button.press payload: "+err.Error())
			return
		}

		event, ok := calculator.ButtonEvent(payload.Button)
		if !ok {
			c.sendError(protocol.ErrUnknownButton, "unknown button: "+payload.Button)
			return
		}

		// The settled state reaches this client through its subscription.
		if _, err := h.sessions.Dispatch(context.Background(), c.sessionID, event); err != nil {
			c.sendError(protocol.ErrSessionNotFound, err.Error())
		}

	case protocol.TypeStateRequest:
		snap, err := h.sessions.Get(c.sessionID)
		if err != nil {
			c.sendError(protocol.ErrSessionNotFound, err.Error())
			return
		}
		c.sendMessage(protocol.NewStateUpdate(snap))
	}
}

// forward relays settled snapshots until the subscription closes.
func (c *client) forward(updates <-chan session.Snapshot) {
	for snap := range updates {
		c.sendMessage(protocol.NewStateUpdate(snap))
	}
}

// readPump reads messages from the WebSocket connection.
func (c *client) readPump() {
	defer func() {
		c.hub.removeClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageLen)
	c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				observability.Logger.Warn("websocket read error", zap.String("session_id", c.sessionID), zap.Error(err))
			}
			return
		}

		messagesTotal.WithLabelValues("in").Inc()
		c.hub.handleMessage(c, message)
	}
}

// writePump writes messages to the WebSocket connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
			messagesTotal.WithLabelValues("out").Inc()

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) sendMessage(msg *protocol.Message, err error) {
	if err != nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.enqueue(data)
}

func (c *client) sendError(code, message string) {
	c.sendMessage(protocol.NewErrorMessage(code, message))
}

// enqueue hands data to the write pump without blocking. Messages for a
// client whose buffer is full are dropped.
func (c *client) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		messagesTotal.WithLabelValues("dropped").Inc()
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func writeCloseError(conn *websocket.Conn, err error) {
	code := websocket.CloseInternalServerErr
	if errors.Is(err, session.ErrMaxSessions) {
		code = websocket.CloseTryAgainLater
	}

	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, err.Error()),
		time.Now().Add(writeDeadline))
	conn.Close()
}

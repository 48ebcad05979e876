package api

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/JuniperSearch/core/result"
	"github.com/FocuswithJustin/JuniperSearch/core/search"
	"github.com/FocuswithJustin/JuniperSearch/internal/logging"
	"github.com/FocuswithJustin/JuniperSearch/internal/metrics"
	"github.com/FocuswithJustin/JuniperSearch/internal/server"
	"github.com/FocuswithJustin/JuniperSearch/internal/validation"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = 54 * time.Second
	wsMaxMessageSize = 4096
	wsMessageRate    = 10 // queries per second, burst of twice that
	wsSendBuffer     = 16
)

// SearchReply answers one websocket query frame.
type SearchReply struct {
	Query  string        `json:"query"`
	Intent search.Intent `json:"intent"`
	Items  []result.Item `json:"items"`
	Error  string        `json:"error,omitempty"`
}

// Client represents a WebSocket client connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	bucket *tokenBucket
	ctx    context.Context
	remote string
}

// Hub tracks connected clients. A client's send channel is closed exactly
// once, by the hub, when the client leaves or the hub shuts down.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
	closed  bool
	metrics *metrics.Metrics
}

// NewHub creates an empty hub.
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		metrics: m,
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) add(c *Client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.ClientConnected()
	}
	logging.WebSocketEvent("client_connected", n, "remote", c.remote)
	return true
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		h.dropLocked(c)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		logging.WebSocketEvent("client_disconnected", n, "remote", c.remote)
	}
}

// dropLocked must be called with h.mu held.
func (h *Hub) dropLocked(c *Client) {
	delete(h.clients, c)
	close(c.send)
	if h.metrics != nil {
		h.metrics.ClientDisconnected()
	}
}

// deliver queues msg for c. A client whose buffer is full is dropped.
func (h *Hub) deliver(c *Client, msg []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		logging.Warn("websocket client too slow, disconnecting", "remote", c.remote)
		h.dropLocked(c)
		return false
	}
}

// CloseAll disconnects every client and refuses new ones.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		h.dropLocked(c)
	}
}

// answer evaluates one query frame.
func (s *Server) answer(ctx context.Context, frame string) SearchReply {
	query := server.SanitizeUserInput(frame)
	if err := validation.ValidateQuery(query); err != nil {
		return SearchReply{Query: server.LimitStringLength(query, validation.MaxQueryRunes), Intent: search.IntentNone, Items: []result.Item{}, Error: err.Error()}
	}
	out := s.evaluate(ctx, query, s.cfg.Search.Limit)
	return SearchReply{Query: query, Intent: out.Intent, Items: out.Items}
}

// readPump turns incoming text frames into queries.
func (c *Client) readPump(s *Server) {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(wsMaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logging.Warn("websocket unexpected close", "remote", c.remote, "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		if !c.bucket.allow() {
			logging.SecurityEvent("websocket_rate_limited", "api", "client", c.remote)
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Rate limit exceeded"),
				time.Now().Add(wsWriteWait))
			return
		}

		data, err := encodeJSON(s.answer(c.ctx, string(message)))
		if err != nil {
			logging.Error("failed to marshal search reply", "error", err)
			continue
		}
		if !c.hub.deliver(c, data) {
			return
		}
	}
}

// writePump writes queued replies and keeps the connection alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// isOriginAllowed checks origin against exact entries, "*" and "*.domain"
// patterns. An empty list allows every origin.
func isOriginAllowed(origin string, allowedOrigins []string) bool {
	if len(allowedOrigins) == 0 {
		return true
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" || strings.EqualFold(origin, allowed) {
			return true
		}
		if strings.HasPrefix(allowed, "*.") && strings.HasSuffix(strings.ToLower(origin), strings.ToLower(allowed[1:])) {
			return true
		}
	}
	return false
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if !isOriginAllowed(origin, s.cfg.Server.AllowedOrigins) {
		logging.SecurityEvent("websocket_origin_rejected", "api", "origin", origin)
		return false
	}
	return true
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.ErrorContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:    s.hub,
		conn:   conn,
		send:   make(chan []byte, wsSendBuffer),
		bucket: newTokenBucket(2*wsMessageRate, wsMessageRate),
		ctx:    context.WithoutCancel(r.Context()),
		remote: getClientIP(r),
	}
	if !s.hub.add(client) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(wsWriteWait))
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(s)
}

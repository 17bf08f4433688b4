package api

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/raspicam-bridge/internal/auth"
	"github.com/nerrad567/raspicam-bridge/internal/camera"
	"github.com/nerrad567/raspicam-bridge/internal/infrastructure/config"
	"github.com/nerrad567/raspicam-bridge/internal/infrastructure/logging"
)

// Client message types.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypeSet         = "set"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"
)

// Event channels.
const (
	// ChannelPropertyChanged carries a camera.Change for every applied
	// value that differs from the previous one.
	ChannelPropertyChanged = "camera.property_changed"

	// ChannelSnapshot carries the full property map. It is sent once to a
	// client when it subscribes to ChannelPropertyChanged.
	ChannelSnapshot = "camera.snapshot"
)

// wsSendBufferSize is the per-client outbound queue length.
const wsSendBufferSize = 256

// WSMessage is the envelope for every frame in both directions.
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	EventType string          `json:"event_type,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// WSSubscribePayload is the payload of subscribe and unsubscribe.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
}

// WSSetPayload is the payload of set.
type WSSetPayload struct {
	Properties map[string]string `json:"properties"`
}

var subscribableChannels = []string{ChannelPropertyChanged}

// Hub tracks connected clients and fans events out to subscribers.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger
	ctrl   *camera.Controller

	mu      sync.RWMutex
	clients map[*WSClient]struct{}
}

// WSClient is one authenticated connection.
type WSClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	username string
	role     auth.Role

	mu            sync.RWMutex
	subscriptions map[string]struct{}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are checked by the CORS middleware.
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// NewHub creates a hub serving clients of ctrl.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger, ctrl *camera.Controller) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		ctrl:    ctrl,
		clients: make(map[*WSClient]struct{}),
	}
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Register adds a client to the hub.
func (h *Hub) Register(client *WSClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "username", client.username, "clients", h.ClientCount())
}

// Unregister removes a client from the hub. Only the caller that removes the
// client from the map closes its send channel.
func (h *Hub) Unregister(client *WSClient) {
	h.mu.Lock()
	_, existed := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if existed {
		close(client.send)
	}
	h.logger.Debug("websocket client disconnected", "username", client.username, "clients", h.ClientCount())
}

// Broadcast sends an event to all clients subscribed to channel. The hub lock
// is released before any client lock is taken.
func (h *Hub) Broadcast(channel string, payload any) {
	data, err := encodeEvent(channel, payload)
	if err != nil {
		h.logger.Error("failed to marshal broadcast", "channel", channel, "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*WSClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if client.isSubscribed(channel) {
			client.trySend(data)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		if client.conn != nil {
			client.conn.Close()
		}
		delete(h.clients, client)
	}
}

func encodeEvent(channel string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WSMessage{
		Type:      WSTypeEvent,
		EventType: channel,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   raw,
	})
}

// handleWebSocket upgrades the connection. The caller authenticates with a
// single-use ticket from POST /auth/ws-ticket in the ticket query parameter.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ticket := r.URL.Query().Get("ticket")
	if ticket == "" {
		writeUnauthorized(w, "ticket query parameter is required")
		return
	}
	claims, ok := s.tickets.Redeem(ticket)
	if !ok {
		writeUnauthorized(w, "invalid or expired ticket")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		hub:           s.hub,
		conn:          conn,
		send:          make(chan []byte, wsSendBufferSize),
		username:      claims.Subject,
		role:          claims.Role,
		subscriptions: make(map[string]struct{}),
	}
	s.hub.Register(client)

	go client.writePump(s.wsCfg)
	go client.readPump(s.wsCfg)
}

func (c *WSClient) readPump(cfg config.WebSocketConfig) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	deadline := time.Duration(cfg.PingInterval+cfg.PongTimeout) * time.Second
	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	//nolint:errcheck // a failed deadline surfaces as a read error
	c.conn.SetReadDeadline(time.Now().Add(deadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "username", c.username, "error", err)
			}
			return
		}
		// Any client frame counts as liveness.
		//nolint:errcheck // a failed deadline surfaces as a read error
		c.conn.SetReadDeadline(time.Now().Add(deadline))
		c.handleMessage(data)
	}
}

func (c *WSClient) writePump(cfg config.WebSocketConfig) {
	ticker := time.NewTicker(time.Duration(cfg.PingInterval) * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	writeWait := time.Duration(cfg.PongTimeout) * time.Second
	for {
		select {
		case data, ok := <-c.send:
			//nolint:errcheck // a failed deadline surfaces as a write error
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				//nolint:errcheck // connection is closing anyway
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // a failed deadline surfaces as a write error
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) handleMessage(data []byte) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("", "invalid JSON message")
		return
	}

	switch msg.Type {
	case WSTypeSubscribe:
		c.handleSubscribe(msg)
	case WSTypeUnsubscribe:
		c.handleUnsubscribe(msg)
	case WSTypeSet:
		c.handleSet(msg)
	case WSTypePing:
		c.sendResponse(msg.ID, WSTypePong, nil)
	default:
		c.sendError(msg.ID, "unknown message type: "+msg.Type)
	}
}

// handleSubscribe adds channels and follows a property channel subscription
// with a snapshot, so the client never has to poll for the starting state.
func (c *WSClient) handleSubscribe(msg WSMessage) {
	var sub WSSubscribePayload
	if err := json.Unmarshal(msg.Payload, &sub); err != nil || len(sub.Channels) == 0 {
		c.sendError(msg.ID, "subscribe needs a channels list")
		return
	}
	for _, ch := range sub.Channels {
		if !slices.Contains(subscribableChannels, ch) {
			c.sendError(msg.ID, "unknown channel: "+ch)
			return
		}
	}

	c.mu.Lock()
	for _, ch := range sub.Channels {
		c.subscriptions[ch] = struct{}{}
	}
	c.mu.Unlock()

	c.hub.logger.Debug("websocket client subscribed", "username", c.username, "channels", sub.Channels)
	c.sendResponse(msg.ID, WSTypeResponse, map[string]any{"subscribed": sub.Channels})

	if slices.Contains(sub.Channels, ChannelPropertyChanged) {
		if data, err := encodeEvent(ChannelSnapshot, c.hub.ctrl.GetAll()); err == nil {
			c.trySend(data)
		}
	}
}

func (c *WSClient) handleUnsubscribe(msg WSMessage) {
	var sub WSSubscribePayload
	if err := json.Unmarshal(msg.Payload, &sub); err != nil {
		c.sendError(msg.ID, "unsubscribe needs a channels list")
		return
	}

	c.mu.Lock()
	for _, ch := range sub.Channels {
		delete(c.subscriptions, ch)
	}
	c.mu.Unlock()

	c.sendResponse(msg.ID, WSTypeResponse, map[string]any{"unsubscribed": sub.Channels})
}

// handleSet applies properties for admin clients. The reply lists the
// failures by error code; applied changes arrive as events.
func (c *WSClient) handleSet(msg WSMessage) {
	if !auth.HasPermission(c.role, auth.PermCameraWrite) {
		c.sendError(msg.ID, "insufficient permissions")
		return
	}

	var set WSSetPayload
	if err := json.Unmarshal(msg.Payload, &set); err != nil || len(set.Properties) == 0 {
		c.sendError(msg.ID, "set needs a properties object")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	failed := c.hub.ctrl.SetMany(ctx, set.Properties, camera.SourceAPI)

	errs := make(map[string]string, len(failed))
	for name, err := range failed {
		_, code := cameraError(err)
		errs[name] = code
	}
	c.hub.logger.Debug("websocket set", "username", c.username, "properties", len(set.Properties), "failed", len(failed))
	c.sendResponse(msg.ID, WSTypeResponse, map[string]any{
		"applied": len(set.Properties) - len(failed),
		"failed":  errs,
	})
}

// trySend queues data for the client. Messages to a closed or full channel
// are dropped.
func (c *WSClient) trySend(data []byte) {
	defer func() {
		recover() //nolint:errcheck // send on a channel closed by Unregister
	}()

	select {
	case c.send <- data:
	default:
	}
}

func (c *WSClient) isSubscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscriptions[channel]
	return ok
}

func (c *WSClient) sendResponse(id, msgType string, payload any) {
	msg := WSMessage{
		Type:      msgType,
		ID:        id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return
		}
		msg.Payload = raw
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.trySend(data)
}

func (c *WSClient) sendError(id, message string) {
	c.sendResponse(id, WSTypeError, map[string]string{"message": message})
}

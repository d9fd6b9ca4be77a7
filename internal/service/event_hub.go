package service

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"techlift_backend/pkg/logger"
	"techlift_backend/pkg/monitoring"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
	publishTimeout = 3 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type eventClient struct {
	hub    *EventHub
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

// readPump only keeps the connection alive; clients do not send events.
func (c *eventClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Warn("Event stream closed unexpectedly", zap.String("userID", c.userID), zap.Error(err))
			}
			return
		}
	}
}

func (c *eventClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// EventHub streams progress events to a user's open websocket connections.
// With Redis configured, events go through the user's pub/sub channel so that
// every instance can deliver them.
type EventHub struct {
	Redis *redis.Client

	mu      sync.RWMutex
	clients map[string]map[*eventClient]struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	// publish is nil without Redis.
	publish func(ctx context.Context, channel string, payload []byte) error
}

func NewEventHub(rdb *redis.Client) *EventHub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &EventHub{
		Redis:   rdb,
		clients: make(map[string]map[*eventClient]struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
	if rdb != nil {
		h.publish = func(ctx context.Context, channel string, payload []byte) error {
			return rdb.Publish(ctx, channel, payload).Err()
		}
	}
	return h
}

// Run forwards events published on Redis to local connections until Stop is
// called. It returns immediately without Redis.
func (h *EventHub) Run() {
	if h.Redis == nil {
		return
	}
	pubsub := h.Redis.PSubscribe(h.ctx, EventChannel("*"))
	defer pubsub.Close()

	prefix := EventChannel("")
	ch := pubsub.Channel()
	for {
		select {
		case <-h.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.deliverLocal(strings.TrimPrefix(msg.Channel, prefix), []byte(msg.Payload))
		}
	}
}

// Publish sends an encoded event to the user's connections. Events from one
// caller reach the channel in call order.
func (h *EventHub) Publish(userID string, payload []byte) {
	if h.publish == nil {
		h.deliverLocal(userID, payload)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := h.publish(ctx, EventChannel(userID), payload); err != nil {
		logger.Log.Warn("Failed to publish progress event", zap.String("userID", userID), zap.Error(err))
	}
}

func (h *EventHub) deliverLocal(userID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		select {
		case c.send <- payload:
		default:
			logger.Log.Debug("Event stream is full, dropping event", zap.String("userID", userID))
		}
	}
}

// Subscribers returns the number of open connections for the user on this instance.
func (h *EventHub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Serve upgrades the request and streams the user's events until the
// connection closes. On a failed upgrade the response is already written.
func (h *EventHub) Serve(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &eventClient{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
	}
	h.register(c)
	go c.writePump()
	go c.readPump()
	return nil
}

func (h *EventHub) register(c *eventClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*eventClient]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
	monitoring.EventSubscribers.Inc()
}

func (h *EventHub) unregister(c *eventClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(c)
}

// remove requires h.mu.
func (h *EventHub) remove(c *eventClient) {
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
	monitoring.EventSubscribers.Dec()
}

// Stop closes every connection and ends Run.
func (h *EventHub) Stop() {
	h.cancel()
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.clients {
		for c := range set {
			h.remove(c)
		}
	}
}

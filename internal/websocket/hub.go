package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"hr-assistant-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	moduleName    = "HUB"
	ClusterTopic  = "hr_chat_activity"
	sendQueueSize = 256
)

// Message is one frame pushed to the subscribers of a session.
type Message struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	Data      interface{} `json:"data"`
}

type clusterMessage struct {
	Origin    string          `json:"origin"`
	SessionID string          `json:"session_id"`
	Message   json.RawMessage `json:"message"`
}

// Hub keeps the websocket clients of each chat session. With redis set,
// frames are relayed to the hubs of other instances.
type Hub struct {
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client

	rdb      *redis.Client
	origin   string
	ready    chan struct{}
	readyOne sync.Once
	done     chan struct{}

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rdb:        rdb,
		origin:     uuid.NewString(),
		ready:      make(chan struct{}),
		done:       make(chan struct{}),
		logger:     log,
	}
}

// Ready is closed once the hub accepts clients and, with redis, once the
// cluster subscription is confirmed.
func (h *Hub) Ready() <-chan struct{} {
	return h.ready
}

func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	} else {
		h.markReady()
	}

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.SessionID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.SessionID] = set
			}
			set[client] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug(moduleName, "Client registered", map[string]interface{}{"session": client.SessionID})
		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.Send)
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.Send)
	if len(set) == 0 {
		delete(h.clients, client.SessionID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, set := range h.clients {
		for c := range set {
			close(c.Send)
		}
		delete(h.clients, id)
	}
}

// ClientCount reports the local subscribers of a session.
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// Publish pushes a frame to every subscriber of the session, local and,
// through redis, remote.
func (h *Hub) Publish(ctx context.Context, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error(moduleName, "Failed to encode frame", map[string]interface{}{"error": err.Error()})
		return
	}
	h.deliver(msg.SessionID, data)

	if h.rdb == nil {
		return
	}
	payload, _ := json.Marshal(clusterMessage{Origin: h.origin, SessionID: msg.SessionID, Message: data})
	if err := h.rdb.Publish(ctx, ClusterTopic, payload).Err(); err != nil {
		h.logger.Warn(moduleName, "Cluster publish failed", map[string]interface{}{"error": err.Error()})
	}
}

func (h *Hub) deliver(sessionID string, data []byte) {
	var slow []*Client
	h.mu.RLock()
	for c := range h.clients[sessionID] {
		select {
		case c.Send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn(moduleName, "Send buffer full, dropping client", map[string]interface{}{"session": sessionID})
		go h.Unregister(c)
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, ClusterTopic)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		h.logger.Error(moduleName, "Cluster subscription failed", map[string]interface{}{"error": err.Error()})
		h.markReady()
		return
	}
	h.markReady()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterMessage
			if err := json.Unmarshal([]byte(m.Payload), &payload); err != nil {
				h.logger.Warn(moduleName, "Malformed cluster frame", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.origin {
				continue
			}
			h.deliver(payload.SessionID, payload.Message)
		}
	}
}

func (h *Hub) markReady() {
	h.readyOne.Do(func() { close(h.ready) })
}

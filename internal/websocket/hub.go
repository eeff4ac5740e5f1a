package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"book-rag-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	wsModule       = "WS"
	clusterChannel = "rag:session_answers"
)

type membership struct {
	client    *Client
	sessionId uuid.UUID
}

// clusterMessage carries an answer to the sockets of other instances.
type clusterMessage struct {
	SessionId uuid.UUID       `json:"session_id"`
	Origin    uuid.UUID       `json:"origin"`
	Message   json.RawMessage `json:"message"`
}

// Hub tracks sockets by conversation session so every socket following a
// session sees its answers, including sockets on other instances when Redis
// is configured.
type Hub struct {
	sessions map[uuid.UUID]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	join       chan membership
	// done is closed when Run returns; sends to the loop give up after it.
	done chan struct{}

	mu sync.RWMutex

	// Optional; nil keeps fan-out local.
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		sessions:   make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan membership),
		done:       make(chan struct{}),
		rdb:        rdb,
		logger:     log,
	}
}

// Run owns session membership until ctx ends. It must be called once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.logger.Info(wsModule, "Client connected", map[string]interface{}{"client_id": client.Id.String()})

		case m := <-h.join:
			h.mu.Lock()
			if m.client.sessionId != uuid.Nil && m.client.sessionId != m.sessionId {
				h.leaveLocked(m.client)
			}
			if h.sessions[m.sessionId] == nil {
				h.sessions[m.sessionId] = make(map[*Client]struct{})
			}
			h.sessions[m.sessionId][m.client] = struct{}{}
			m.client.sessionId = m.sessionId
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.leaveLocked(client)
			h.mu.Unlock()
			client.closeSend()
			h.logger.Info(wsModule, "Client disconnected", map[string]interface{}{"client_id": client.Id.String()})
		}
	}
}

func (h *Hub) leaveLocked(c *Client) {
	members, ok := h.sessions[c.sessionId]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.sessions, c.sessionId)
	}
}

// Register announces a new socket. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister detaches c from its session and closes its send side. After
// the hub has stopped it only closes the send side.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
		c.closeSend()
	}
}

// Join attaches c to a session; a client follows one session at a time.
// It is a no-op once the hub has stopped.
func (h *Hub) Join(c *Client, sessionId uuid.UUID) {
	select {
	case h.join <- membership{client: c, sessionId: sessionId}:
	case <-h.done:
	}
}

// Deliver sends data to every socket following sessionId except origin.
func (h *Hub) Deliver(ctx context.Context, sessionId uuid.UUID, origin uuid.UUID, data []byte) {
	h.deliverLocal(sessionId, origin, data)

	if h.rdb == nil {
		return
	}
	payload, err := json.Marshal(clusterMessage{SessionId: sessionId, Origin: origin, Message: data})
	if err != nil {
		return
	}
	if err := h.rdb.Publish(ctx, clusterChannel, payload).Err(); err != nil {
		h.logger.Warn(wsModule, "Cluster publish failed", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
	}
}

func (h *Hub) deliverLocal(sessionId uuid.UUID, origin uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.sessions[sessionId] {
		if client.Id == origin {
			continue
		}
		if !client.trySend(data) {
			h.logger.Warn(wsModule, "Client send buffer full, dropping message", map[string]interface{}{
				"client_id": client.Id.String(),
			})
		}
	}
}

// Followers reports how many local sockets follow sessionId.
func (h *Hub) Followers(sessionId uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionId])
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var m clusterMessage
		if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
			h.logger.Warn(wsModule, "Malformed cluster message", map[string]interface{}{"error": err.Error()})
			continue
		}
		h.deliverLocal(m.SessionId, m.Origin, m.Message)
	}
}

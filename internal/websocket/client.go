package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"book-rag-be/internal/dto"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
)

// Asker runs one question through the query pipeline.
type Asker interface {
	AskByContextMode(ctx context.Context, userId *uuid.UUID, req *dto.ContextModeQueryRequest) (*dto.QueryResponse, error)
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Id     uuid.UUID
	Hub    *Hub
	Conn   *websocket.Conn
	UserId *uuid.UUID

	// Buffered channel of outbound messages.
	Send chan []byte

	asker     Asker
	sessionId uuid.UUID // owned by the hub loop
	closeOnce sync.Once
	closed    chan struct{}
}

type outbound struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
	Err  string      `json:"error,omitempty"`
}

func (c *Client) trySend(data []byte) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.closed) })
}

// readPump answers each incoming question in order.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn(wsModule, "Unexpected close", map[string]interface{}{
					"client_id": c.Id.String(),
					"error":     err.Error(),
				})
			}
			return
		}
		c.handle(ctx, raw)
	}
}

func (c *Client) handle(ctx context.Context, raw []byte) {
	var req dto.ContextModeQueryRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.reply(outbound{Type: "error", Err: "invalid message"})
		return
	}

	res, err := c.asker.AskByContextMode(ctx, c.UserId, &req)
	if err != nil {
		c.reply(outbound{Type: "error", Err: err.Error()})
		return
	}

	data, _ := json.Marshal(outbound{Type: "answer", Data: res})
	c.trySend(data)
	c.Hub.Join(c, res.SessionId)
	c.Hub.Deliver(ctx, res.SessionId, c.Id, data)
}

func (c *Client) reply(o outbound) {
	data, _ := json.Marshal(o)
	c.trySend(data)
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case <-c.closed:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

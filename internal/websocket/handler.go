package websocket

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs runs one socket until it closes.
func ServeWs(ctx context.Context, hub *Hub, asker Asker, c *websocket.Conn, userId *uuid.UUID) {
	client := &Client{
		Id:     uuid.New(),
		Hub:    hub,
		Conn:   c,
		UserId: userId,
		Send:   make(chan []byte, 64),
		asker:  asker,
		closed: make(chan struct{}),
	}
	if !hub.Register(client) {
		c.Close()
		return
	}

	go client.writePump()
	client.readPump(ctx)
}

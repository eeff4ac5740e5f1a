package handler

import (
	"context"

	"book-rag-be/internal/pkg/logger"
	"book-rag-be/internal/pkg/serverutils"
	internalWS "book-rag-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// QuerySocketHandler serves the question/answer websocket.
type QuerySocketHandler struct {
	hub    *internalWS.Hub
	asker  internalWS.Asker
	ctx    context.Context
	logger logger.ILogger
}

// NewQuerySocketHandler binds sockets to ctx so they close on shutdown.
func NewQuerySocketHandler(ctx context.Context, hub *internalWS.Hub, asker internalWS.Asker, log logger.ILogger) *QuerySocketHandler {
	return &QuerySocketHandler{hub: hub, asker: asker, ctx: ctx, logger: log}
}

func (h *QuerySocketHandler) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	r.Get("/ws/query", auth, h.Upgrade)
}

func (h *QuerySocketHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	userId := serverutils.UserId(c)
	return websocket.New(func(conn *websocket.Conn) {
		details := map[string]interface{}{"remote": conn.RemoteAddr().String()}
		if userId != nil {
			details["user_id"] = userId.String()
		}
		h.logger.Info("WS", "Query socket opened", details)
		internalWS.ServeWs(h.ctx, h.hub, h.asker, conn, userId)
		h.logger.Info("WS", "Query socket closed", details)
	})(c)
}

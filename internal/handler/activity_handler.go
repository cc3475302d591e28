package handler

import (
	"hr-assistant-be/internal/pkg/logger"
	"hr-assistant-be/internal/pkg/serverutils"
	"hr-assistant-be/internal/service"
	internalWS "hr-assistant-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const handlerModule = "ActivityHandler"

// ActivityHandler exposes a session's task activity as a websocket stream
// and as a paged listing.
type ActivityHandler struct {
	service service.IChatService
	hub     *internalWS.Hub
	logger  logger.ILogger
}

func NewActivityHandler(service service.IChatService, hub *internalWS.Hub, log logger.ILogger) *ActivityHandler {
	return &ActivityHandler{service: service, hub: hub, logger: log}
}

func (h *ActivityHandler) RegisterRoutes(r fiber.Router) {
	g := r.Group("/chat")
	g.Get("/ws", h.ServeWs)
	g.Get("/activity/:session_id", h.GetActivity)
}

// ServeWs upgrades the request and streams activity frames for the session
// named by the session_id query parameter.
func (h *ActivityHandler) ServeWs(c *fiber.Ctx) error {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing session_id")
	}
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	fp := logger.SessionFingerprint(sessionID)
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info(handlerModule, "Starting WebSocket session", map[string]interface{}{"session": fp})
		internalWS.ServeWs(h.hub, conn, sessionID)
		h.logger.Info(handlerModule, "WebSocket session ended", map[string]interface{}{"session": fp})
	})(c)
}

// GetActivity returns the newest events of a session.
func (h *ActivityHandler) GetActivity(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	res, err := h.service.Activity(c.UserContext(), c.Params("session_id"), limit)
	if err != nil {
		return err
	}
	return c.JSON(serverutils.SuccessResponse("Success get activity", res))
}

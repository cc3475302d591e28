package controller

import (
	"hr-assistant-be/internal/constant"
	"hr-assistant-be/internal/dto"
	"hr-assistant-be/internal/pkg/serverutils"
	"hr-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	Models(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	r.Get("/models", c.Models)

	h := r.Group("/chat")
	h.Post("", c.Chat)
	h.Post("/cancel", c.Cancel)
	h.Get("/status/:session_id", c.Status)
	h.Delete("/session/:session_id", c.DeleteSession)
}

// Chat answers with the bare response object, without the envelope, so
// existing chat clients keep working.
func (c *chatController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	token, _ := ctx.Locals(serverutils.LocalAuthToken).(string)
	res, err := c.service.Chat(ctx.UserContext(), &req, token)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *chatController) Cancel(ctx *fiber.Ctx) error {
	var req dto.CancelRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	return ctx.JSON(c.service.Cancel(ctx.UserContext(), req.SessionID))
}

func (c *chatController) Status(ctx *fiber.Ctx) error {
	return ctx.JSON(c.service.Status(ctx.UserContext(), ctx.Params("session_id")))
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("session_id")
	if err := c.service.DeleteSession(ctx.UserContext(), sessionID); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse(constant.MsgSessionCleared, fiber.Map{"session_id": sessionID}))
}

func (c *chatController) Models(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get models", c.service.Models()))
}

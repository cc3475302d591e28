package controller

import (
	"errors"
	"io"

	"hr-assistant-be/internal/constant"
	"hr-assistant-be/internal/dto"
	"hr-assistant-be/internal/pkg/serverutils"
	"hr-assistant-be/internal/service"
	"hr-assistant-be/pkg/fileparse"

	"github.com/gofiber/fiber/v2"
)

type IUploadController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	FailedRows(ctx *fiber.Ctx) error
}

type uploadController struct {
	service  service.IUploadService
	maxBytes int
}

func NewUploadController(service service.IUploadService, maxBytes int) IUploadController {
	return &uploadController{service: service, maxBytes: maxBytes}
}

func (c *uploadController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/upload")
	h.Post("", c.Upload)
	h.Get("/failed-rows", c.FailedRows)
}

func (c *uploadController) Upload(ctx *fiber.Ctx) error {
	var req dto.UploadRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid form body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Missing file")
	}
	if c.maxBytes > 0 && fh.Size > int64(c.maxBytes) {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "File is too large")
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	res, err := c.service.Upload(ctx.UserContext(), &req, fh.Filename, data)
	switch {
	case errors.Is(err, fileparse.ErrUnsupportedType):
		return fiber.NewError(fiber.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, fileparse.ErrEmptyFile):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case err != nil:
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse(constant.MsgUploadStored, res))
}

func (c *uploadController) FailedRows(ctx *fiber.Ctx) error {
	var req dto.FailedRowsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	out, err := c.service.FailedRows(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	if out.Count == 0 {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(fiber.StatusNotFound, constant.MsgNoFailedRows))
	}

	ctx.Attachment(out.Format.FileName())
	ctx.Set(fiber.HeaderContentType, out.Format.ContentType())
	return ctx.Send(out.Body)
}

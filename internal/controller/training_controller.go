package controller

import (
	"io"

	"supportly-be/internal/dto"
	"supportly-be/internal/pkg/serverutils"
	"supportly-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxUploadBytes = 10 * 1024 * 1024

type ITrainingController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Scrape(ctx *fiber.Ctx) error
	Upload(ctx *fiber.Ctx) error
	ShowSource(ctx *fiber.Ctx) error
}

type trainingController struct {
	trainingService service.ITrainingService
}

func NewTrainingController(trainingService service.ITrainingService) ITrainingController {
	return &trainingController{
		trainingService: trainingService,
	}
}

func (c *trainingController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/training")
	h.Use(auth)
	h.Post("/scrape", c.Scrape)
	h.Post("/upload", c.Upload)
	h.Get("/sources/:id", c.ShowSource)
}

func (c *trainingController) Scrape(ctx *fiber.Ctx) error {
	tenantId := serverutils.TenantFromContext(ctx)

	var req dto.ScrapeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.trainingService.Scrape(ctx.UserContext(), tenantId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Scraping job queued", res))
}

func (c *trainingController) Upload(ctx *fiber.Ctx) error {
	tenantId := serverutils.TenantFromContext(ctx)

	botId, err := uuid.Parse(ctx.FormValue("botId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "botId must be a valid uuid")
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "file is required")
	}
	if fileHeader.Size > maxUploadBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "file exceeds 10MB")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return err
	}

	req := dto.UploadRequest{
		BotId:    botId,
		FileName: fileHeader.Filename,
		Data:     data,
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.trainingService.Upload(ctx.UserContext(), tenantId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("File queued for training", res))
}

func (c *trainingController) ShowSource(ctx *fiber.Ctx) error {
	tenantId := serverutils.TenantFromContext(ctx)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid source id")
	}

	res, err := c.trainingService.GetSource(ctx.UserContext(), tenantId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show training source", res))
}

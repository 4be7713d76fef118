package controller

import (
	"supportly-be/internal/dto"
	"supportly-be/internal/pkg/serverutils"
	"supportly-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IConversationController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Close(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Reply(ctx *fiber.Ctx) error
}

type conversationController struct {
	conversationService service.IConversationService
}

func NewConversationController(conversationService service.IConversationService) IConversationController {
	return &conversationController{
		conversationService: conversationService,
	}
}

func (c *conversationController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/conversations")
	h.Use(auth)
	h.Get("/:id", c.Show)
	h.Post("/:id/messages", c.Reply)
	h.Post("/:id/close", c.Close)
}

func (c *conversationController) Close(ctx *fiber.Ctx) error {
	tenantId := serverutils.TenantFromContext(ctx)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid conversation id")
	}

	res, err := c.conversationService.Close(ctx.UserContext(), tenantId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Conversation closed", res))
}

func (c *conversationController) Show(ctx *fiber.Ctx) error {
	tenantId := serverutils.TenantFromContext(ctx)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid conversation id")
	}

	res, err := c.conversationService.Transcript(ctx.UserContext(), tenantId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show conversation", res))
}

func (c *conversationController) Reply(ctx *fiber.Ctx) error {
	tenantId := serverutils.TenantFromContext(ctx)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid conversation id")
	}

	var req dto.AgentReplyRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.conversationService.Reply(ctx.UserContext(), tenantId, id, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Reply stored", res))
}

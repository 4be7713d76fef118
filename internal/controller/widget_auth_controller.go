package controller

import (
	"time"

	"supportly-be/internal/dto"
	"supportly-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type IWidgetAuthController interface {
	RegisterRoutes(r fiber.Router)
	IssueToken(ctx *fiber.Ctx) error
}

type widgetAuthController struct {
	secret string
	ttl    time.Duration
}

func NewWidgetAuthController(secret string, ttl time.Duration) IWidgetAuthController {
	return &widgetAuthController{
		secret: secret,
		ttl:    ttl,
	}
}

// RegisterRoutes opens CORS on this one route because the widget is
// embedded on arbitrary customer sites.
func (c *widgetAuthController) RegisterRoutes(r fiber.Router) {
	r.Post("/widget-auth", cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "POST, OPTIONS",
	}), c.IssueToken)
}

func (c *widgetAuthController) IssueToken(ctx *fiber.Ctx) error {
	var req dto.WidgetAuthRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	token, err := serverutils.IssueTenantToken(c.secret, req.TenantId, c.ttl)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Widget token issued", dto.WidgetAuthResponse{
		Token:     token,
		ExpiresIn: int(c.ttl.Seconds()),
	}))
}

package serverutils

import (
	"errors"

	"supportly-be/internal/pkg/logger"
	"supportly-be/pkg/rag"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into BaseResponse
// envelopes. Internal errors are logged and replaced by a generic message.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		var validationErr *ValidationError
		switch {
		case errors.As(err, &fiberErr):
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		case errors.As(err, &validationErr):
			res := ErrorResponse(fiber.StatusBadRequest, "Validation failed")
			res.Errors = validationErr.Fields
			return ctx.Status(fiber.StatusBadRequest).JSON(res)
		case errors.Is(err, rag.ErrAuth):
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid or expired token"))
		case errors.Is(err, rag.ErrExtraction):
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse(fiber.StatusUnprocessableEntity, err.Error()))
		}

		log.Error("HTTP", "Unhandled request error", map[string]interface{}{
			"method": ctx.Method(),
			"path":   ctx.Path(),
			"error":  err.Error(),
		})
		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, "Internal server error"))
	}
}

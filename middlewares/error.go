package middlewares

import (
	"siasa-backend/config"
	"siasa-backend/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler centralizes error responses in the uniform envelope and keeps
// messages sanitized.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// 1) Fiber errors (use their status code + message)
	if fe, ok := err.(*fiber.Error); ok {
		return utils.Respond(c, fe.Code, fe.Message, nil)
	}

	// 2) Validation errors (422 + per-field info)
	if ve, ok := err.(validator.ValidationErrors); ok {
		out := make(map[string]string, len(ve))
		for _, fe := range ve {
			out[fe.Field()] = fe.Tag()
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"statusCode": fiber.StatusUnprocessableEntity,
			"message":    "validation failed",
			"errors":     out,
			"data":       nil,
		})
	}

	// 3) Unknown errors (500)
	config.LogError(config.GetLogger(), "middlewares", "ErrorHandler", c.Path(), nil, err)
	return utils.Respond(c, fiber.StatusInternalServerError, "internal server error", nil)
}

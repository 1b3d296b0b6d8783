package utils

import "github.com/gofiber/fiber/v2"

// Respond writes the uniform response envelope used across the API.
func Respond(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"statusCode": status,
		"message":    message,
		"data":       data,
	})
}

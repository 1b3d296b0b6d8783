package middlewares

import (
	"siasa-backend/services"

	"github.com/gofiber/fiber/v2"
)

// Audit records a trail entry for the wrapped endpoint after the handler has
// produced a 2xx/3xx response. Recording runs off the request path and never
// fails the original request.
func Audit(action string, audits *services.AuditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Snapshot the body before the handler; fiber reuses its buffers.
		body := append([]byte(nil), c.Body()...)

		if err := c.Next(); err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status < 200 || status >= 400 {
			return nil
		}

		var userID *uint
		if id, ok := c.Locals("userID").(uint); ok {
			userID = &id
		}

		params := map[string]string{}
		for k, v := range c.AllParams() {
			params[k] = v
		}
		query := map[string]string{}
		for k, v := range c.Queries() {
			query[k] = v
		}

		details := services.RequestDetails{
			Method:     c.Method(),
			URL:        c.OriginalURL(),
			Body:       services.SanitizeBody(body),
			Params:     params,
			Query:      query,
			StatusCode: status,
		}
		ip := c.IP()

		go audits.Record(userID, action, ip, details)
		return nil
	}
}

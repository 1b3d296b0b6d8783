package controllers

import (
	"siasa-backend/services"
	"siasa-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type AuditController struct {
	audits *services.AuditService
}

func NewAuditController(audits *services.AuditService) *AuditController {
	return &AuditController{audits: audits}
}

func (ct *AuditController) GetAuditTrails(c *fiber.Ctx) error {
	trails, err := ct.audits.List(c.Context())
	if err != nil {
		return utils.Respond(c, fiber.StatusInternalServerError, "Failed to fetch audit trails", nil)
	}
	return utils.Respond(c, fiber.StatusOK, "Audit trails fetched successfully", trails)
}

package controllers

import (
	"context"
	"errors"

	"siasa-backend/models"
	"siasa-backend/mpesa"
	"siasa-backend/services"
	"siasa-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// PaymentOrchestrator is the slice of the payment service the HTTP layer uses.
type PaymentOrchestrator interface {
	Initiate(ctx context.Context, req services.STKPushRequest) (*services.STKPushResult, error)
	Reconcile(ctx context.Context, env *mpesa.CallbackEnvelope) (*models.MpesaPayment, error)
	Status(ctx context.Context, checkoutRequestID string) (*models.MpesaPayment, error)
	List(ctx context.Context) ([]models.MpesaPayment, error)
}

type MpesaController struct {
	payments PaymentOrchestrator
	log      *logrus.Logger
}

func NewMpesaController(payments PaymentOrchestrator, log *logrus.Logger) *MpesaController {
	return &MpesaController{payments: payments, log: log}
}

// InitiatePayment sends an STK push to the customer's phone.
func (ct *MpesaController) InitiatePayment(c *fiber.Ctx) error {
	var req services.STKPushRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	utils.NormalizeDTO(&req)

	result, err := ct.payments.Initiate(c.Context(), req)
	if err != nil {
		status, message := paymentErrorEnvelope(err)
		return utils.Respond(c, status, message, nil)
	}
	return utils.Respond(c, fiber.StatusOK, "STK push initiated successfully. Please check your phone.", result)
}

// HandleCallback receives the provider's asynchronous payment notification.
// The provider retries unacknowledged callbacks, so the acknowledgement is
// unconditional; processing failures are only logged.
func (ct *MpesaController) HandleCallback(c *fiber.Ctx) error {
	var env mpesa.CallbackEnvelope
	if err := c.BodyParser(&env); err != nil {
		ct.log.Warn("mpesa callback body not parseable: " + err.Error())
	} else if _, err := ct.payments.Reconcile(c.Context(), &env); err != nil {
		ct.log.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("mpesa callback processing failed")
	}

	return c.JSON(fiber.Map{
		"ResultCode": 0,
		"ResultDesc": "Success",
	})
}

// GetPaymentStatus looks up one ledger row by CheckoutRequestID.
func (ct *MpesaController) GetPaymentStatus(c *fiber.Ctx) error {
	payment, err := ct.payments.Status(c.Context(), c.Params("checkoutRequestId"))
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			return utils.Respond(c, fiber.StatusNotFound, "Payment not found", nil)
		}
		return utils.Respond(c, fiber.StatusInternalServerError, "Failed to fetch payment status", nil)
	}
	return utils.Respond(c, fiber.StatusOK, "Payment status retrieved successfully", payment)
}

// GetAllPayments returns every ledger row, newest first.
func (ct *MpesaController) GetAllPayments(c *fiber.Ctx) error {
	payments, err := ct.payments.List(c.Context())
	if err != nil {
		return utils.Respond(c, fiber.StatusInternalServerError, "Failed to fetch payments", nil)
	}
	return utils.Respond(c, fiber.StatusOK, "Payments fetched successfully", payments)
}

// paymentErrorEnvelope maps orchestrator and gateway errors onto the uniform
// response envelope. No raw error ever escapes to the transport layer.
func paymentErrorEnvelope(err error) (int, string) {
	var sve *services.ValidationError
	if errors.As(err, &sve) {
		return fiber.StatusBadRequest, sve.Message
	}
	var mve *mpesa.ValidationError
	if errors.As(err, &mve) {
		return fiber.StatusBadRequest, mve.Message
	}
	if errors.Is(err, services.ErrPaymentNotFound) {
		return fiber.StatusNotFound, "Payment record not found"
	}
	var ce *mpesa.ConfigError
	if errors.As(err, &ce) {
		return fiber.StatusInternalServerError, ce.Error()
	}
	var ae *mpesa.AuthError
	if errors.As(err, &ae) {
		return fiber.StatusInternalServerError, ae.Error()
	}
	var re *mpesa.RejectedError
	if errors.As(err, &re) {
		return fiber.StatusInternalServerError, re.Error()
	}
	var ue *mpesa.UnavailableError
	if errors.As(err, &ue) {
		return fiber.StatusInternalServerError, "M-Pesa is currently unavailable. Please try again later."
	}
	return fiber.StatusInternalServerError, "Failed to initiate M-Pesa payment"
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"siasa-backend/models"
	"siasa-backend/mpesa"
	"siasa-backend/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	// ErrPaymentNotFound means no ledger row matches the correlation id. The
	// system never fabricates ledger state from an unmatched callback.
	ErrPaymentNotFound = errors.New("payment record not found")

	// ErrConflictingCallback means a settled payment received a redelivery with
	// a different outcome. The stored result is kept.
	ErrConflictingCallback = errors.New("conflicting callback for settled payment")
)

// ValidationError is bad caller input, mapped to a 400 response.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// acceptedPhone covers every input shape Initiate accepts; the gateway client
// performs the actual normalization.
var acceptedPhone = regexp.MustCompile(`^(\+?254|0)?[17]\d{8}$`)

// Gateway is the slice of the M-Pesa client the orchestrator needs.
type Gateway interface {
	InitiateSTKPush(ctx context.Context, phoneNumber string, amount float64, accountReference, transactionDesc string) (*mpesa.STKPushResponse, error)
}

type STKPushRequest struct {
	PhoneNumber      string  `json:"phoneNumber"`
	Amount           float64 `json:"amount"`
	AccountReference string  `json:"accountReference"`
	TransactionDesc  string  `json:"transactionDesc"`
}

type STKPushResult struct {
	CheckoutRequestID   string               `json:"CheckoutRequestID"`
	MerchantRequestID   string               `json:"MerchantRequestID"`
	ResponseDescription string               `json:"ResponseDescription"`
	CustomerMessage     string               `json:"CustomerMessage"`
	Payment             *models.MpesaPayment `json:"payment"`
}

// PaymentService owns the payment lifecycle and is the only writer of ledger rows.
type PaymentService struct {
	payments repository.PaymentRepository
	gateway  Gateway
	log      *logrus.Logger
}

func NewPaymentService(payments repository.PaymentRepository, gateway Gateway, log *logrus.Logger) *PaymentService {
	return &PaymentService{payments: payments, gateway: gateway, log: log}
}

// Initiate validates the request, dispatches the STK push and persists the
// pending ledger row. A push the gateway refused leaves no row behind.
func (s *PaymentService) Initiate(ctx context.Context, req STKPushRequest) (*STKPushResult, error) {
	phone := strings.TrimSpace(req.PhoneNumber)
	if phone == "" || req.Amount == 0 {
		return nil, &ValidationError{Message: "Phone number and amount are required"}
	}
	if req.Amount <= 0 {
		return nil, &ValidationError{Message: "Amount must be greater than zero"}
	}
	if !acceptedPhone.MatchString(phone) {
		return nil, &ValidationError{Message: "Invalid phone number format. Use 254XXXXXXXXX, 07XXXXXXXX, or +254XXXXXXXXX"}
	}

	resp, err := s.gateway.InitiateSTKPush(ctx, phone, req.Amount, req.AccountReference, req.TransactionDesc)
	if err != nil {
		return nil, err
	}

	// Ledger keeps the amount as submitted; only the wire amount is rounded to
	// whole units.
	payment := &models.MpesaPayment{
		PhoneNumber:       phone,
		Amount:            decimal.NewFromFloat(req.Amount).Round(2),
		AccountReference:  req.AccountReference,
		TransactionDesc:   req.TransactionDesc,
		MerchantRequestID: resp.MerchantRequestID,
		CheckoutRequestID: resp.CheckoutRequestID,
		Status:            models.PaymentStatusPending,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("persisting payment record: %w", err)
	}

	stkPushInitiations.Inc()

	return &STKPushResult{
		CheckoutRequestID:   resp.CheckoutRequestID,
		MerchantRequestID:   resp.MerchantRequestID,
		ResponseDescription: resp.ResponseDescription,
		CustomerMessage:     resp.CustomerMessage,
		Payment:             payment,
	}, nil
}

// Reconcile applies the provider's asynchronous callback to the matching ledger
// row. Identical redeliveries re-apply the same terminal state; a redelivery
// that disagrees with a settled outcome is rejected.
func (s *PaymentService) Reconcile(ctx context.Context, env *mpesa.CallbackEnvelope) (*models.MpesaPayment, error) {
	if env == nil || env.Body.STKCallback == nil {
		return nil, &ValidationError{Message: "Invalid callback data"}
	}
	cb := env.Body.STKCallback

	payment, err := s.payments.FindByCheckoutRequestID(ctx, cb.CheckoutRequestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("looking up payment record: %w", err)
	}

	status := statusForResultCode(cb.ResultCode)

	var receipt string
	var txDate *time.Time
	if cb.ResultCode == 0 {
		receipt, txDate = extractCallbackMetadata(cb.CallbackMetadata)
	}

	if payment.Terminal() {
		if payment.Status != status || (status == models.PaymentStatusCompleted && payment.MpesaReceiptNumber != receipt) {
			return nil, ErrConflictingCallback
		}
	}

	payment.ResultCode = strconv.Itoa(cb.ResultCode)
	payment.ResultDesc = cb.ResultDesc
	payment.Status = status
	if status == models.PaymentStatusCompleted {
		payment.MpesaReceiptNumber = receipt
		payment.TransactionDate = txDate
	}

	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, fmt.Errorf("updating payment record: %w", err)
	}

	callbackResults.WithLabelValues(status).Inc()
	s.log.WithFields(logrus.Fields{
		"checkoutRequestId": cb.CheckoutRequestID,
		"status":            status,
	}).Info("mpesa callback processed")

	return payment, nil
}

// Status returns the ledger row for a correlation id.
func (s *PaymentService) Status(ctx context.Context, checkoutRequestID string) (*models.MpesaPayment, error) {
	payment, err := s.payments.FindByCheckoutRequestID(ctx, checkoutRequestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

// List returns all ledger rows, newest first.
func (s *PaymentService) List(ctx context.Context) ([]models.MpesaPayment, error) {
	return s.payments.ListNewestFirst(ctx)
}

func statusForResultCode(code int) string {
	switch code {
	case 0:
		return models.PaymentStatusCompleted
	case mpesa.ResultCodeCancelled:
		return models.PaymentStatusCancelled
	default:
		return models.PaymentStatusFailed
	}
}

func extractCallbackMetadata(meta *mpesa.CallbackMetadata) (receipt string, txDate *time.Time) {
	if meta == nil {
		return "", nil
	}
	for _, item := range meta.Item {
		switch item.Name {
		case "MpesaReceiptNumber":
			receipt = metadataString(item.Value)
		case "TransactionDate":
			if t, err := time.ParseInLocation(mpesa.TimestampLayout, metadataString(item.Value), time.Local); err == nil {
				txDate = &t
			}
		}
	}
	return receipt, txDate
}

// metadataString renders a callback metadata value; the provider sends the
// transaction date as a bare JSON number.
func metadataString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

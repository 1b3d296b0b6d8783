package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment lifecycle states. Pending is the only non-terminal state.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
)

// MpesaPayment is one ledger row per STK push attempt. Rows are created only
// after the gateway accepted the push, mutated once by callback reconciliation,
// and never deleted (financial audit).
type MpesaPayment struct {
	ID                 uint            `json:"id" gorm:"primaryKey"`
	PhoneNumber        string          `json:"phone_number" gorm:"size:15;not null"`
	Amount             decimal.Decimal `json:"amount" gorm:"type:numeric(10,2);not null"`
	AccountReference   string          `json:"account_reference"`
	TransactionDesc    string          `json:"transaction_desc"`
	MerchantRequestID  string          `json:"merchant_request_id"`
	CheckoutRequestID  string          `json:"checkout_request_id" gorm:"uniqueIndex"`
	ResultCode         string          `json:"result_code"`
	ResultDesc         string          `json:"result_desc" gorm:"type:text"`
	MpesaReceiptNumber string          `json:"mpesa_receipt_number"`
	TransactionDate    *time.Time      `json:"transaction_date"`
	Status             string          `json:"status" gorm:"type:varchar(20);default:pending;index"`
	CreatedAt          time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (MpesaPayment) TableName() string {
	return "mpesa_payments"
}

// Terminal reports whether the payment reached a final state.
func (p *MpesaPayment) Terminal() bool {
	switch p.Status {
	case PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

package repository

import (
	"context"
	"errors"

	"siasa-backend/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// PaymentRepository is the only access path to the payment ledger.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.MpesaPayment) error
	FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.MpesaPayment, error)
	Update(ctx context.Context, payment *models.MpesaPayment) error
	ListNewestFirst(ctx context.Context) ([]models.MpesaPayment, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.MpesaPayment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.MpesaPayment, error) {
	var payment models.MpesaPayment
	err := r.db.WithContext(ctx).
		Where("checkout_request_id = ?", checkoutRequestID).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *models.MpesaPayment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

func (r *paymentRepository) ListNewestFirst(ctx context.Context) ([]models.MpesaPayment, error) {
	var payments []models.MpesaPayment
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&payments).Error
	return payments, err
}

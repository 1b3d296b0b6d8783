package repository

import (
	"context"

	"siasa-backend/models"

	"gorm.io/gorm"
)

type AuditRepository interface {
	Create(ctx context.Context, trail *models.AuditTrail) error
	ListNewestFirst(ctx context.Context) ([]models.AuditTrail, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, trail *models.AuditTrail) error {
	return r.db.WithContext(ctx).Create(trail).Error
}

func (r *auditRepository) ListNewestFirst(ctx context.Context) ([]models.AuditTrail, error) {
	var trails []models.AuditTrail
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&trails).Error
	return trails, err
}

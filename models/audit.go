package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditTrail records a mutating action after the fact. user_id is nullable for
// unauthenticated actions. Rows are write-once (no updated_at).
type AuditTrail struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	UserID      *uint          `json:"user_id"`
	Action      string         `json:"action" gorm:"not null"`
	Entity      string         `json:"entity"`
	Description string         `json:"description" gorm:"type:text"`
	Details     datatypes.JSON `json:"details" gorm:"type:jsonb"`
	IPAddress   string         `json:"ip_address"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (AuditTrail) TableName() string {
	return "audit_trails"
}

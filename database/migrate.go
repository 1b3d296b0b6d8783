package database

import (
	"fmt"

	"gorm.io/gorm"
)

// MigrateSchema applies idempotent schema hardening on top of AutoMigrate:
// - Money column type (NUMERIC(10,2)) on the payment ledger
// - Unique correlation index on checkout_request_id
// - Listing/reconciliation indexes
// - CHECK constraints (positive amount, known statuses)
// - Seed rows for the default roles
func MigrateSchema() error {
	return DB.Transaction(func(tx *gorm.DB) error {
		// --- Enforce the ledger amount column as NUMERIC(10,2) ---
		if err := tx.Exec(`ALTER TABLE mpesa_payments ALTER COLUMN amount TYPE numeric(10,2)`).Error; err != nil {
			return fmt.Errorf("money type migration failed: %w", err)
		}

		// --- Indexes (idempotent) ---
		indexes := []string{
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_mpesa_payments_checkout_request_id ON mpesa_payments (checkout_request_id)`,
			`CREATE INDEX IF NOT EXISTS idx_mpesa_payments_status ON mpesa_payments (status)`,
			`CREATE INDEX IF NOT EXISTS idx_mpesa_payments_created_at ON mpesa_payments (created_at DESC)`,
			`CREATE INDEX IF NOT EXISTS idx_audit_trails_user_id ON audit_trails (user_id)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		// --- CHECK constraints (idempotent) ---
		checks := []string{
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'mpesa_payments'::regclass
					  AND conname  = 'chk_mpesa_payments_amount_positive'
				) THEN
					ALTER TABLE mpesa_payments
					ADD CONSTRAINT chk_mpesa_payments_amount_positive
					CHECK (amount > 0);
				END IF;
			END $$;`,
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'mpesa_payments'::regclass
					  AND conname  = 'chk_mpesa_payments_status'
				) THEN
					ALTER TABLE mpesa_payments
					ADD CONSTRAINT chk_mpesa_payments_status
					CHECK (status IN ('pending', 'completed', 'failed', 'cancelled'));
				END IF;
			END $$;`,
		}
		for _, stmt := range checks {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed: %w", err)
			}
		}

		// --- Default roles ---
		roles := `INSERT INTO roles (id, role_name) VALUES (1, 'admin'), (2, 'member')
			ON CONFLICT (id) DO NOTHING`
		if err := tx.Exec(roles).Error; err != nil {
			return fmt.Errorf("role seed failed: %w", err)
		}

		return nil
	})
}

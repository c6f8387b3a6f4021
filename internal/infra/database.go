package infra

import (
	"fmt"

	"boutique/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and brings the schema
// up to date. TranslateError lets services detect unique violations through
// gorm.ErrDuplicatedKey.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates/updates every table and then applies the patches
// AutoMigrate cannot express. Also used by integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(
		&model.Product{},
		&model.ProductVariant{},
		&model.StockMovement{},
		&model.CartItem{},
		&model.Coupon{},
		&model.Order{},
		&model.OrderItem{},
		&model.CouponUsage{},
		&model.CashSession{},
		&model.CashEntry{},
		&model.AccountPayable{},
		&model.AccountReceivable{},
		&model.FinancialClosing{},
		&model.AuditLog{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that GORM tags cannot describe:
// partial unique indexes and CHECK constraints backing the ledger invariants.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// one open session per branch and business day
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_cash_sessions_open_branch_day
		    ON cash_sessions (branch_id, business_date)
		    WHERE status = 'open'`,
		// one active closing per exact period
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_financial_closings_period
		    ON financial_closings (start_date, end_date)
		    WHERE cancelled = false`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_cash_entries_amount_positive') THEN
		    ALTER TABLE cash_entries ADD CONSTRAINT chk_cash_entries_amount_positive CHECK (amount > 0);
		  END IF;
		END $$`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_product_variants_stock') THEN
		    ALTER TABLE product_variants ADD CONSTRAINT chk_product_variants_stock CHECK (stock >= 0);
		  END IF;
		END $$`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_coupons_usage') THEN
		    ALTER TABLE coupons ADD CONSTRAINT chk_coupons_usage CHECK (quantity_used <= quantity_total);
		  END IF;
		END $$`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_payable_pending_due
		    ON accounts_payable (due_date) WHERE status = 'pending'`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_receivable_pending_due
		    ON accounts_receivable (due_date) WHERE status = 'pending'`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}

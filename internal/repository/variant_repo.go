package repository

import (
	"context"

	"boutique/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockCounts is the catalog-wide part of the stock summary.
type StockCounts struct {
	Products   int64
	Variants   int64
	TotalUnits int64
	Alerts     int64
}

// VariantRepository exposes the catalog rows the engine reads and the stock
// counter it owns.
type VariantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error)
	// FindForUpdate locks the variant row; Product is loaded alongside.
	FindForUpdate(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error)
	SetStock(ctx context.Context, id uuid.UUID, stock int) error
	ListAlerts(ctx context.Context) ([]model.ProductVariant, error)
	Counts(ctx context.Context) (StockCounts, error)
}

type variantRepo struct{ db *gorm.DB }

func NewVariantRepository(db *gorm.DB) VariantRepository { return &variantRepo{db: db} }

func (r *variantRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error) {
	var v model.ProductVariant
	err := GetDB(ctx, r.db).Preload("Product").First(&v, "id = ?", id).Error
	return &v, err
}

func (r *variantRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error) {
	var v model.ProductVariant
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Product").
		First(&v, "id = ?", id).Error
	return &v, err
}

func (r *variantRepo) SetStock(ctx context.Context, id uuid.UUID, stock int) error {
	return GetDB(ctx, r.db).Model(&model.ProductVariant{}).
		Where("id = ?", id).
		Update("stock", stock).Error
}

func (r *variantRepo) ListAlerts(ctx context.Context) ([]model.ProductVariant, error) {
	var variants []model.ProductVariant
	err := GetDB(ctx, r.db).
		Joins("Product").
		Where("product_variants.active = ? AND \"Product\".active = ?", true, true).
		Where("product_variants.stock <= product_variants.min_stock").
		Order("(product_variants.min_stock - product_variants.stock) DESC").
		Find(&variants).Error
	return variants, err
}

func (r *variantRepo) Counts(ctx context.Context) (StockCounts, error) {
	var c StockCounts
	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Product{}).Where("active = ?", true).Count(&c.Products).Error; err != nil {
		return c, err
	}
	active := db.Model(&model.ProductVariant{}).Where("active = ?", true)
	if err := active.Session(&gorm.Session{}).Count(&c.Variants).Error; err != nil {
		return c, err
	}
	if err := active.Session(&gorm.Session{}).Select("COALESCE(SUM(stock), 0)").Scan(&c.TotalUnits).Error; err != nil {
		return c, err
	}
	err := active.Session(&gorm.Session{}).Where("stock <= min_stock").Count(&c.Alerts).Error
	return c, err
}

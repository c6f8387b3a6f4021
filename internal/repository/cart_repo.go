package repository

import (
	"context"

	"boutique/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CartRepository interface {
	// ListByCustomer returns the cart lines with Variant and Variant.Product loaded.
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.CartItem, error)
	FindLine(ctx context.Context, customerID, variantID uuid.UUID) (*model.CartItem, error)
	SaveLine(ctx context.Context, item *model.CartItem) error
	DeleteLine(ctx context.Context, customerID, variantID uuid.UUID) error
	Clear(ctx context.Context, customerID uuid.UUID) error
}

type cartRepo struct{ db *gorm.DB }

func NewCartRepository(db *gorm.DB) CartRepository { return &cartRepo{db: db} }

func (r *cartRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.CartItem, error) {
	var items []model.CartItem
	err := GetDB(ctx, r.db).
		Preload("Variant.Product").
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *cartRepo) FindLine(ctx context.Context, customerID, variantID uuid.UUID) (*model.CartItem, error) {
	var item model.CartItem
	err := GetDB(ctx, r.db).
		Where("customer_id = ? AND variant_id = ?", customerID, variantID).
		First(&item).Error
	return &item, err
}

func (r *cartRepo) SaveLine(ctx context.Context, item *model.CartItem) error {
	return GetDB(ctx, r.db).Omit("Variant").Save(item).Error
}

func (r *cartRepo) DeleteLine(ctx context.Context, customerID, variantID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("customer_id = ? AND variant_id = ?", customerID, variantID).
		Delete(&model.CartItem{}).Error
}

func (r *cartRepo) Clear(ctx context.Context, customerID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("customer_id = ?", customerID).Delete(&model.CartItem{}).Error
}

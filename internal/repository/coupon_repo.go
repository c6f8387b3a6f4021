package repository

import (
	"context"
	"strings"

	"boutique/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (*model.Coupon, error)
	FindByCodeForUpdate(ctx context.Context, code string) (*model.Coupon, error)
	// IncrementUsed bumps quantity_used only while uses remain; false means
	// the coupon was exhausted.
	IncrementUsed(ctx context.Context, id uuid.UUID) (bool, error)
	CreateUsage(ctx context.Context, u *model.CouponUsage) error
}

type couponRepo struct{ db *gorm.DB }

func NewCouponRepository(db *gorm.DB) CouponRepository { return &couponRepo{db: db} }

func (r *couponRepo) FindByCode(ctx context.Context, code string) (*model.Coupon, error) {
	var c model.Coupon
	err := GetDB(ctx, r.db).Where("code = ?", strings.ToUpper(code)).First(&c).Error
	return &c, err
}

func (r *couponRepo) FindByCodeForUpdate(ctx context.Context, code string) (*model.Coupon, error) {
	var c model.Coupon
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", strings.ToUpper(code)).
		First(&c).Error
	return &c, err
}

func (r *couponRepo) IncrementUsed(ctx context.Context, id uuid.UUID) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.Coupon{}).
		Where("id = ? AND quantity_used < quantity_total", id).
		Update("quantity_used", gorm.Expr("quantity_used + 1"))
	return res.RowsAffected == 1, res.Error
}

func (r *couponRepo) CreateUsage(ctx context.Context, u *model.CouponUsage) error {
	return GetDB(ctx, r.db).Create(u).Error
}

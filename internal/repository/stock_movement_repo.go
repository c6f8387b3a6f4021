package repository

import (
	"context"
	"time"

	"boutique/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockMovementFilter defines filters for listing stock movements.
type StockMovementFilter struct {
	VariantID     *uuid.UUID
	Type          string
	ReferenceType string
	ReferenceID   *uuid.UUID
	From          *time.Time
	To            *time.Time
	Page
}

type StockMovementRepository interface {
	Create(ctx context.Context, m *model.StockMovement) error
	List(ctx context.Context, filter StockMovementFilter) ([]model.StockMovement, int64, error)
	// UnitsSince sums in/out quantities recorded since t.
	UnitsSince(ctx context.Context, t time.Time) (in int64, out int64, err error)
}

type stockMovementRepo struct{ db *gorm.DB }

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{db: db}
}

func (r *stockMovementRepo) Create(ctx context.Context, m *model.StockMovement) error {
	return GetDB(ctx, r.db).Create(m).Error
}

func (r *stockMovementRepo) List(ctx context.Context, filter StockMovementFilter) ([]model.StockMovement, int64, error) {
	q := GetDB(ctx, r.db).Model(&model.StockMovement{})
	if filter.VariantID != nil {
		q = q.Where("variant_id = ?", *filter.VariantID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.ReferenceType != "" {
		q = q.Where("reference_type = ?", filter.ReferenceType)
	}
	if filter.ReferenceID != nil {
		q = q.Where("reference_id = ?", *filter.ReferenceID)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at < ?", *filter.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := filter.Offset()

	var movements []model.StockMovement
	err := q.Preload("Variant.Product").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&movements).Error
	return movements, total, err
}

func (r *stockMovementRepo) UnitsSince(ctx context.Context, t time.Time) (int64, int64, error) {
	var row struct {
		UnitsIn  int64
		UnitsOut int64
	}
	err := GetDB(ctx, r.db).Model(&model.StockMovement{}).
		Select("COALESCE(SUM(CASE WHEN type IN ('in','return') THEN quantity ELSE 0 END), 0) AS units_in, "+
			"COALESCE(SUM(CASE WHEN type = 'out' THEN quantity ELSE 0 END), 0) AS units_out").
		Where("created_at >= ?", t).
		Scan(&row).Error
	return row.UnitsIn, row.UnitsOut, err
}

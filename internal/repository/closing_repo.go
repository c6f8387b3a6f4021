package repository

import (
	"context"
	"time"

	"boutique/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClosingFilter selects financial closings.
type ClosingFilter struct {
	IncludeCancelled bool
	From             *time.Time // start_date lower bound
	To               *time.Time // end_date upper bound
	Page
}

type ClosingRepository interface {
	// LockPeriod serializes closings generated for the same period.
	LockPeriod(ctx context.Context, start, end time.Time) error
	ExistsActive(ctx context.Context, start, end time.Time) (bool, error)
	Create(ctx context.Context, c *model.FinancialClosing) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.FinancialClosing, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*model.FinancialClosing, error)
	// MarkCancelled writes the cancellation columns and nothing else.
	MarkCancelled(ctx context.Context, c *model.FinancialClosing) error
	List(ctx context.Context, filter ClosingFilter) ([]model.FinancialClosing, int64, error)
}

type closingRepo struct{ db *gorm.DB }

func NewClosingRepository(db *gorm.DB) ClosingRepository { return &closingRepo{db: db} }

const advisoryClosingPeriod = 7302

func (r *closingRepo) LockPeriod(ctx context.Context, start, end time.Time) error {
	key := start.Format("20060102") + end.Format("20060102")
	return GetDB(ctx, r.db).
		Exec("SELECT pg_advisory_xact_lock(?, hashtext(?))", advisoryClosingPeriod, key).Error
}

func (r *closingRepo) ExistsActive(ctx context.Context, start, end time.Time) (bool, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.FinancialClosing{}).
		Where("start_date = ? AND end_date = ? AND cancelled = ?", start, end, false).
		Count(&n).Error
	return n > 0, err
}

func (r *closingRepo) Create(ctx context.Context, c *model.FinancialClosing) error {
	return GetDB(ctx, r.db).Create(c).Error
}

func (r *closingRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.FinancialClosing, error) {
	var c model.FinancialClosing
	err := GetDB(ctx, r.db).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *closingRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*model.FinancialClosing, error) {
	var c model.FinancialClosing
	err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *closingRepo) MarkCancelled(ctx context.Context, c *model.FinancialClosing) error {
	return GetDB(ctx, r.db).Model(&model.FinancialClosing{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"cancelled":     true,
			"cancelled_by":  c.CancelledBy,
			"cancelled_at":  c.CancelledAt,
			"cancel_reason": c.CancelReason,
		}).Error
}

func (r *closingRepo) List(ctx context.Context, filter ClosingFilter) ([]model.FinancialClosing, int64, error) {
	q := GetDB(ctx, r.db).Model(&model.FinancialClosing{})
	if !filter.IncludeCancelled {
		q = q.Where("cancelled = ?", false)
	}
	if filter.From != nil {
		q = q.Where("start_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("end_date <= ?", *filter.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := filter.Offset()

	var closings []model.FinancialClosing
	err := q.Order("start_date DESC, created_at DESC").Offset(offset).Limit(filter.Limit).Find(&closings).Error
	return closings, total, err
}

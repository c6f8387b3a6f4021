package repository

import (
	"context"
	"time"

	"boutique/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderFilter selects orders for listing.
type OrderFilter struct {
	CustomerID    *uuid.UUID
	BranchID      *int
	StatusOrder   string
	StatusPayment string
	From          *time.Time
	To            *time.Time
	Page
}

type OrderRepository interface {
	// Create inserts the order together with its items.
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error)
	Update(ctx context.Context, o *model.Order) error
	List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error)
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) Create(ctx context.Context, o *model.Order) error {
	return GetDB(ctx, r.db).Create(o).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := GetDB(ctx, r.db).Preload("Items").First(&o, "id = ?", id).Error
	return &o, err
}

func (r *orderRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items").
		First(&o, "id = ?", id).Error
	return &o, err
}

// Update writes the order row only; items are immutable.
func (r *orderRepo) Update(ctx context.Context, o *model.Order) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(o).Error
}

func (r *orderRepo) List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error) {
	q := GetDB(ctx, r.db).Model(&model.Order{})
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.BranchID != nil {
		q = q.Where("origin_branch_id = ?", *filter.BranchID)
	}
	if filter.StatusOrder != "" {
		q = q.Where("status_order = ?", filter.StatusOrder)
	}
	if filter.StatusPayment != "" {
		q = q.Where("status_payment = ?", filter.StatusPayment)
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

	var orders []model.Order
	err := q.Preload("Items").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&orders).Error
	return orders, total, err
}

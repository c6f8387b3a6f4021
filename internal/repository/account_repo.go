package repository

import (
	"context"
	"time"

	"boutique/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountFilter selects payables or receivables.
type AccountFilter struct {
	Status   string
	BranchID *int
	DueFrom  *time.Time
	DueTo    *time.Time // inclusive
	Overdue  bool       // pending and due before AsOf
	AsOf     time.Time
	Page
}

// AccountAggregate is a count plus face-value sum.
type AccountAggregate struct {
	Count int64
	Total decimal.Decimal
}

// AccountRepository serves both ledgers; the instance is bound to one table.
type AccountRepository interface {
	Kind() string
	Create(ctx context.Context, a *model.Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*model.Account, error)
	Update(ctx context.Context, a *model.Account) error
	List(ctx context.Context, filter AccountFilter) ([]model.Account, int64, error)
	// SettledBetween returns accounts whose settlement date is in [from, to].
	SettledBetween(ctx context.Context, from, to time.Time, branchIDs []int) ([]model.Account, error)
	// PendingDueBetween returns pending accounts due in [from, to].
	PendingDueBetween(ctx context.Context, from, to time.Time, branchIDs []int) ([]model.Account, error)
	AggregatePending(ctx context.Context, dueFrom, dueTo *time.Time) (AccountAggregate, error)
}

type accountRepo struct {
	db    *gorm.DB
	kind  string
	table string
}

func NewPayableRepository(db *gorm.DB) AccountRepository {
	return &accountRepo{db: db, kind: model.AccountPayableKind, table: model.AccountPayable{}.TableName()}
}

func NewReceivableRepository(db *gorm.DB) AccountRepository {
	return &accountRepo{db: db, kind: model.AccountReceivableKind, table: model.AccountReceivable{}.TableName()}
}

func (r *accountRepo) Kind() string { return r.kind }

func (r *accountRepo) q(ctx context.Context) *gorm.DB { return GetDB(ctx, r.db).Table(r.table) }

func (r *accountRepo) Create(ctx context.Context, a *model.Account) error {
	return r.q(ctx).Create(a).Error
}

func (r *accountRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var a model.Account
	err := r.q(ctx).Where("id = ?", id).First(&a).Error
	return &a, err
}

func (r *accountRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var a model.Account
	err := r.q(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&a).Error
	return &a, err
}

func (r *accountRepo) Update(ctx context.Context, a *model.Account) error {
	return r.q(ctx).Save(a).Error
}

func (r *accountRepo) List(ctx context.Context, filter AccountFilter) ([]model.Account, int64, error) {
	q := r.q(ctx)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.BranchID != nil {
		q = q.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.DueFrom != nil {
		q = q.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		q = q.Where("due_date <= ?", *filter.DueTo)
	}
	if filter.Overdue {
		q = q.Where("status = ? AND due_date < ?", model.AccountPending, filter.AsOf)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := filter.Offset()

	var accounts []model.Account
	err := q.Order("due_date ASC").Offset(offset).Limit(filter.Limit).Find(&accounts).Error
	return accounts, total, err
}

func (r *accountRepo) SettledBetween(ctx context.Context, from, to time.Time, branchIDs []int) ([]model.Account, error) {
	q := r.q(ctx).Where("status IN ? AND settled_on >= ? AND settled_on <= ?",
		[]string{model.AccountPaid, model.AccountReceived}, from, to)
	if len(branchIDs) > 0 {
		q = q.Where("branch_id IN ?", branchIDs)
	}
	var accounts []model.Account
	err := q.Order("settled_on ASC").Find(&accounts).Error
	return accounts, err
}

func (r *accountRepo) PendingDueBetween(ctx context.Context, from, to time.Time, branchIDs []int) ([]model.Account, error) {
	q := r.q(ctx).Where("status = ? AND due_date >= ? AND due_date <= ?", model.AccountPending, from, to)
	if len(branchIDs) > 0 {
		q = q.Where("branch_id IN ?", branchIDs)
	}
	var accounts []model.Account
	err := q.Order("due_date ASC").Find(&accounts).Error
	return accounts, err
}

func (r *accountRepo) AggregatePending(ctx context.Context, dueFrom, dueTo *time.Time) (AccountAggregate, error) {
	q := r.q(ctx).Where("status = ?", model.AccountPending)
	if dueFrom != nil {
		q = q.Where("due_date >= ?", *dueFrom)
	}
	if dueTo != nil {
		q = q.Where("due_date <= ?", *dueTo)
	}
	var agg AccountAggregate
	err := q.Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").Scan(&agg).Error
	return agg, err
}

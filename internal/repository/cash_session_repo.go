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

// SessionFilter selects cash sessions for listing.
type SessionFilter struct {
	BranchID     *int
	Status       string
	BusinessDate string
	From         *time.Time // opened_at lower bound, inclusive
	To           *time.Time // opened_at upper bound, exclusive
	Page
}

// EntryFilter selects cash entries. SessionID and Unassigned are exclusive.
type EntryFilter struct {
	SessionID     *uuid.UUID
	Unassigned    bool
	BranchID      *int
	Type          string
	PaymentMethod string
	Origin        string
	From          *time.Time
	To            *time.Time
	Page
}

// EntryTotals aggregates a set of entries.
type EntryTotals struct {
	TotalIn  decimal.Decimal
	TotalOut decimal.Decimal
	Count    int64
}

// EntryGroup names the column used by BreakdownEntries.
type EntryGroup string

const (
	GroupByPaymentMethod EntryGroup = "payment_method"
	GroupByOrigin        EntryGroup = "origin"
)

// EntryBreakdown is one group of BreakdownEntries.
type EntryBreakdown struct {
	Key      string
	TotalIn  decimal.Decimal
	TotalOut decimal.Decimal
	Count    int64
}

// BranchStatusCount is one row of the per-branch dashboard view.
type BranchStatusCount struct {
	BranchID int
	Status   string
	Count    int64
}

type CashSessionRepository interface {
	CreateSession(ctx context.Context, s *model.CashSession) error
	FindSessionByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error)
	// FindSessionForUpdate locks the session row until the unit of work ends.
	FindSessionForUpdate(ctx context.Context, id uuid.UUID) (*model.CashSession, error)
	FindOpenSession(ctx context.Context, branchID int, businessDate string) (*model.CashSession, error)
	// LockBranch serializes writers deciding on the branch's open session.
	LockBranch(ctx context.Context, branchID int) error
	UpdateSession(ctx context.Context, s *model.CashSession) error
	ListSessions(ctx context.Context, filter SessionFilter) ([]model.CashSession, int64, error)
	CountSessions(ctx context.Context, status string) (int64, error)
	CountByBranchStatus(ctx context.Context, businessDate string) ([]BranchStatusCount, error)
	ApprovedClosedBetween(ctx context.Context, from, to time.Time, branchIDs []int) ([]model.CashSession, error)

	CreateEntry(ctx context.Context, e *model.CashEntry) error
	FindEntryByID(ctx context.Context, id uuid.UUID) (*model.CashEntry, error)
	UpdateEntry(ctx context.Context, e *model.CashEntry) error
	DeleteEntry(ctx context.Context, id uuid.UUID) error
	ListEntries(ctx context.Context, filter EntryFilter) ([]model.CashEntry, int64, error)
	SumEntries(ctx context.Context, filter EntryFilter) (EntryTotals, error)
	BreakdownEntries(ctx context.Context, filter EntryFilter, group EntryGroup) ([]EntryBreakdown, error)
}

type cashSessionRepo struct{ db *gorm.DB }

func NewCashSessionRepository(db *gorm.DB) CashSessionRepository {
	return &cashSessionRepo{db: db}
}

// ── Sessions ─────────────────────────────────────────────────────────────────

func (r *cashSessionRepo) CreateSession(ctx context.Context, s *model.CashSession) error {
	return GetDB(ctx, r.db).Create(s).Error
}

func (r *cashSessionRepo) FindSessionByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := GetDB(ctx, r.db).
		Preload("Entries", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&s, "id = ?", id).Error
	return &s, err
}

func (r *cashSessionRepo) FindSessionForUpdate(ctx context.Context, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&s, "id = ?", id).Error
	return &s, err
}

func (r *cashSessionRepo) FindOpenSession(ctx context.Context, branchID int, businessDate string) (*model.CashSession, error) {
	var s model.CashSession
	err := GetDB(ctx, r.db).
		Where("branch_id = ? AND business_date = ? AND status = ?", branchID, businessDate, model.SessionOpen).
		Order("opened_at DESC").
		First(&s).Error
	return &s, err
}

func (r *cashSessionRepo) LockBranch(ctx context.Context, branchID int) error {
	return GetDB(ctx, r.db).Exec("SELECT pg_advisory_xact_lock(?, ?)", advisoryCashBranch, branchID).Error
}

// advisoryCashBranch namespaces the two-key advisory lock used by LockBranch.
const advisoryCashBranch = 7301

func (r *cashSessionRepo) UpdateSession(ctx context.Context, s *model.CashSession) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(s).Error
}

func (r *cashSessionRepo) ListSessions(ctx context.Context, filter SessionFilter) ([]model.CashSession, int64, error) {
	q := GetDB(ctx, r.db).Model(&model.CashSession{})
	if filter.BranchID != nil {
		q = q.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.BusinessDate != "" {
		q = q.Where("business_date = ?", filter.BusinessDate)
	}
	if filter.From != nil {
		q = q.Where("opened_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("opened_at < ?", *filter.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := filter.Offset()

	var sessions []model.CashSession
	err := q.Order("opened_at DESC").Offset(offset).Limit(filter.Limit).Find(&sessions).Error
	return sessions, total, err
}

func (r *cashSessionRepo) CountSessions(ctx context.Context, status string) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.CashSession{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

func (r *cashSessionRepo) CountByBranchStatus(ctx context.Context, businessDate string) ([]BranchStatusCount, error) {
	var rows []BranchStatusCount
	err := GetDB(ctx, r.db).Model(&model.CashSession{}).
		Select("branch_id, status, COUNT(*) AS count").
		Where("business_date = ?", businessDate).
		Group("branch_id, status").
		Order("branch_id").
		Scan(&rows).Error
	return rows, err
}

func (r *cashSessionRepo) ApprovedClosedBetween(ctx context.Context, from, to time.Time, branchIDs []int) ([]model.CashSession, error) {
	q := GetDB(ctx, r.db).
		Where("status = ? AND closed_at >= ? AND closed_at < ?", model.SessionApproved, from, to)
	if len(branchIDs) > 0 {
		q = q.Where("branch_id IN ?", branchIDs)
	}
	var sessions []model.CashSession
	err := q.Order("closed_at ASC").Find(&sessions).Error
	return sessions, err
}

// ── Entries ──────────────────────────────────────────────────────────────────

func (r *cashSessionRepo) CreateEntry(ctx context.Context, e *model.CashEntry) error {
	return GetDB(ctx, r.db).Create(e).Error
}

func (r *cashSessionRepo) FindEntryByID(ctx context.Context, id uuid.UUID) (*model.CashEntry, error) {
	var e model.CashEntry
	err := GetDB(ctx, r.db).First(&e, "id = ?", id).Error
	return &e, err
}

func (r *cashSessionRepo) UpdateEntry(ctx context.Context, e *model.CashEntry) error {
	return GetDB(ctx, r.db).Save(e).Error
}

func (r *cashSessionRepo) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.CashEntry{}, "id = ?", id).Error
}

func (r *cashSessionRepo) entryQuery(ctx context.Context, f EntryFilter) *gorm.DB {
	q := GetDB(ctx, r.db).Model(&model.CashEntry{})
	switch {
	case f.SessionID != nil:
		q = q.Where("session_id = ?", *f.SessionID)
	case f.Unassigned:
		q = q.Where("session_id IS NULL")
	}
	if f.BranchID != nil {
		q = q.Where("branch_id = ?", *f.BranchID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.PaymentMethod != "" {
		q = q.Where("payment_method = ?", f.PaymentMethod)
	}
	if f.Origin != "" {
		q = q.Where("origin = ?", f.Origin)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	return q
}

func (r *cashSessionRepo) ListEntries(ctx context.Context, filter EntryFilter) ([]model.CashEntry, int64, error) {
	q := r.entryQuery(ctx, filter)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := filter.Offset()

	var entries []model.CashEntry
	err := q.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&entries).Error
	return entries, total, err
}

const sumByType = "COALESCE(SUM(CASE WHEN type = 'in' THEN amount ELSE 0 END), 0) AS total_in, " +
	"COALESCE(SUM(CASE WHEN type = 'out' THEN amount ELSE 0 END), 0) AS total_out, " +
	"COUNT(*) AS count"

func (r *cashSessionRepo) SumEntries(ctx context.Context, filter EntryFilter) (EntryTotals, error) {
	var t EntryTotals
	err := r.entryQuery(ctx, filter).Select(sumByType).Scan(&t).Error
	return t, err
}

func (r *cashSessionRepo) BreakdownEntries(ctx context.Context, filter EntryFilter, group EntryGroup) ([]EntryBreakdown, error) {
	col := string(GroupByPaymentMethod)
	if group == GroupByOrigin {
		col = string(GroupByOrigin)
	}
	var rows []EntryBreakdown
	err := r.entryQuery(ctx, filter).
		Select(col + " AS key, " + sumByType).
		Group(col).
		Order(col).
		Scan(&rows).Error
	return rows, err
}

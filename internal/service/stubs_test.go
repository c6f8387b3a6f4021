package service_test

import (
	"context"
	"sort"
	"time"

	"boutique/internal/model"
	"boutique/internal/repository"
	"boutique/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory ledger ─────────────────────────────────────────────────────────
// Rows are stored by value so a Find hands back a copy, like a database would.

type memStore struct {
	sessions    map[uuid.UUID]model.CashSession
	entries     map[uuid.UUID]model.CashEntry
	variants    map[uuid.UUID]model.ProductVariant
	movements   []model.StockMovement
	orders      map[uuid.UUID]model.Order
	carts       map[uuid.UUID][]model.CartItem
	coupons     map[string]model.Coupon
	usages      []model.CouponUsage
	payables    map[uuid.UUID]model.Account
	receivables map[uuid.UUID]model.Account
	closings    map[uuid.UUID]model.FinancialClosing
}

func newMemStore() *memStore {
	return &memStore{
		sessions:    map[uuid.UUID]model.CashSession{},
		entries:     map[uuid.UUID]model.CashEntry{},
		variants:    map[uuid.UUID]model.ProductVariant{},
		orders:      map[uuid.UUID]model.Order{},
		carts:       map[uuid.UUID][]model.CartItem{},
		coupons:     map[string]model.Coupon{},
		payables:    map[uuid.UUID]model.Account{},
		receivables: map[uuid.UUID]model.Account{},
		closings:    map[uuid.UUID]model.FinancialClosing{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) clone() *memStore {
	c := &memStore{
		sessions:    cloneMap(s.sessions),
		entries:     cloneMap(s.entries),
		variants:    cloneMap(s.variants),
		movements:   append([]model.StockMovement(nil), s.movements...),
		orders:      cloneMap(s.orders),
		carts:       map[uuid.UUID][]model.CartItem{},
		coupons:     cloneMap(s.coupons),
		usages:      append([]model.CouponUsage(nil), s.usages...),
		payables:    cloneMap(s.payables),
		receivables: cloneMap(s.receivables),
		closings:    cloneMap(s.closings),
	}
	for k, v := range s.carts {
		c.carts[k] = append([]model.CartItem(nil), v...)
	}
	return c
}

// ── TransactionManager ───────────────────────────────────────────────────────

type inTxKey struct{}

// stubTx restores the store when the unit of work fails; nested calls join.
type stubTx struct{ store *memStore }

func (t *stubTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if ctx.Value(inTxKey{}) != nil {
		return fn(ctx)
	}
	snap := t.store.clone()
	if err := fn(context.WithValue(ctx, inTxKey{}, true)); err != nil {
		*t.store = *snap
		return err
	}
	return nil
}

var _ repository.TransactionManager = (*stubTx)(nil)

func paginate[T any](rows []T, p repository.Page) []T {
	off := p.Offset()
	if off >= len(rows) {
		return nil
	}
	end := off + p.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[off:end]
}

// ── Cash sessions ────────────────────────────────────────────────────────────

type sessionStub struct{ s *memStore }

func (r *sessionStub) CreateSession(_ context.Context, s *model.CashSession) error {
	row := *s
	row.Entries = nil
	r.s.sessions[s.ID] = row
	return nil
}

func (r *sessionStub) FindSessionByID(_ context.Context, id uuid.UUID) (*model.CashSession, error) {
	row, ok := r.s.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	sid := id
	row.Entries = r.filterEntries(repository.EntryFilter{SessionID: &sid})
	return &row, nil
}

func (r *sessionStub) FindSessionForUpdate(_ context.Context, id uuid.UUID) (*model.CashSession, error) {
	row, ok := r.s.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}

func (r *sessionStub) FindOpenSession(_ context.Context, branchID int, businessDate string) (*model.CashSession, error) {
	for _, row := range r.s.sessions {
		if row.BranchID == branchID && row.BusinessDate == businessDate && row.Status == model.SessionOpen {
			return &row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *sessionStub) LockBranch(context.Context, int) error { return nil }

func (r *sessionStub) UpdateSession(_ context.Context, s *model.CashSession) error {
	row := *s
	row.Entries = nil
	r.s.sessions[s.ID] = row
	return nil
}

func (r *sessionStub) ListSessions(_ context.Context, f repository.SessionFilter) ([]model.CashSession, int64, error) {
	var out []model.CashSession
	for _, row := range r.s.sessions {
		if f.BranchID != nil && row.BranchID != *f.BranchID {
			continue
		}
		if f.Status != "" && row.Status != f.Status {
			continue
		}
		if f.BusinessDate != "" && row.BusinessDate != f.BusinessDate {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.After(out[j].OpenedAt) })
	return paginate(out, f.Page), int64(len(out)), nil
}

func (r *sessionStub) CountSessions(_ context.Context, status string) (int64, error) {
	var n int64
	for _, row := range r.s.sessions {
		if row.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *sessionStub) CountByBranchStatus(_ context.Context, businessDate string) ([]repository.BranchStatusCount, error) {
	type key struct {
		branch int
		status string
	}
	counts := map[key]int64{}
	for _, row := range r.s.sessions {
		if row.BusinessDate == businessDate {
			counts[key{row.BranchID, row.Status}]++
		}
	}
	var out []repository.BranchStatusCount
	for k, n := range counts {
		out = append(out, repository.BranchStatusCount{BranchID: k.branch, Status: k.status, Count: n})
	}
	return out, nil
}

func (r *sessionStub) ApprovedClosedBetween(_ context.Context, from, to time.Time, branchIDs []int) ([]model.CashSession, error) {
	var out []model.CashSession
	for _, row := range r.s.sessions {
		if row.Status != model.SessionApproved || row.ClosedAt == nil {
			continue
		}
		if row.ClosedAt.Before(from) || !row.ClosedAt.Before(to) {
			continue
		}
		if len(branchIDs) > 0 && !containsInt(branchIDs, row.BranchID) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (r *sessionStub) CreateEntry(_ context.Context, e *model.CashEntry) error {
	r.s.entries[e.ID] = *e
	return nil
}

func (r *sessionStub) FindEntryByID(_ context.Context, id uuid.UUID) (*model.CashEntry, error) {
	row, ok := r.s.entries[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}

func (r *sessionStub) UpdateEntry(_ context.Context, e *model.CashEntry) error {
	r.s.entries[e.ID] = *e
	return nil
}

func (r *sessionStub) DeleteEntry(_ context.Context, id uuid.UUID) error {
	delete(r.s.entries, id)
	return nil
}

func (r *sessionStub) filterEntries(f repository.EntryFilter) []model.CashEntry {
	var out []model.CashEntry
	for _, e := range r.s.entries {
		switch {
		case f.SessionID != nil && (e.SessionID == nil || *e.SessionID != *f.SessionID):
			continue
		case f.Unassigned && e.SessionID != nil:
			continue
		case f.BranchID != nil && e.BranchID != *f.BranchID:
			continue
		case f.Type != "" && e.Type != f.Type:
			continue
		case f.PaymentMethod != "" && e.PaymentMethod != f.PaymentMethod:
			continue
		case f.Origin != "" && e.Origin != f.Origin:
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *sessionStub) ListEntries(_ context.Context, f repository.EntryFilter) ([]model.CashEntry, int64, error) {
	rows := r.filterEntries(f)
	return paginate(rows, f.Page), int64(len(rows)), nil
}

func (r *sessionStub) SumEntries(_ context.Context, f repository.EntryFilter) (repository.EntryTotals, error) {
	t := repository.EntryTotals{TotalIn: decimal.Zero, TotalOut: decimal.Zero}
	for _, e := range r.filterEntries(f) {
		if e.Type == model.EntryIn {
			t.TotalIn = t.TotalIn.Add(e.Amount)
		} else {
			t.TotalOut = t.TotalOut.Add(e.Amount)
		}
		t.Count++
	}
	return t, nil
}

func (r *sessionStub) BreakdownEntries(_ context.Context, f repository.EntryFilter, group repository.EntryGroup) ([]repository.EntryBreakdown, error) {
	idx := map[string]int{}
	var out []repository.EntryBreakdown
	for _, e := range r.filterEntries(f) {
		key := e.PaymentMethod
		if group == repository.GroupByOrigin {
			key = e.Origin
		}
		i, ok := idx[key]
		if !ok {
			i = len(out)
			idx[key] = i
			out = append(out, repository.EntryBreakdown{Key: key, TotalIn: decimal.Zero, TotalOut: decimal.Zero})
		}
		if e.Type == model.EntryIn {
			out[i].TotalIn = out[i].TotalIn.Add(e.Amount)
		} else {
			out[i].TotalOut = out[i].TotalOut.Add(e.Amount)
		}
		out[i].Count++
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

var _ repository.CashSessionRepository = (*sessionStub)(nil)

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// ── Catalog and stock ────────────────────────────────────────────────────────

type variantStub struct{ s *memStore }

func (r *variantStub) FindByID(_ context.Context, id uuid.UUID) (*model.ProductVariant, error) {
	v, ok := r.s.variants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &v, nil
}

func (r *variantStub) FindForUpdate(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error) {
	return r.FindByID(ctx, id)
}

func (r *variantStub) SetStock(_ context.Context, id uuid.UUID, stock int) error {
	v := r.s.variants[id]
	v.Stock = stock
	r.s.variants[id] = v
	return nil
}

func (r *variantStub) ListAlerts(context.Context) ([]model.ProductVariant, error) {
	var out []model.ProductVariant
	for _, v := range r.s.variants {
		if v.Active && v.Stock <= v.MinStock {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].MinStock-out[i].Stock > out[j].MinStock-out[j].Stock
	})
	return out, nil
}

func (r *variantStub) Counts(context.Context) (repository.StockCounts, error) {
	var c repository.StockCounts
	products := map[uuid.UUID]bool{}
	for _, v := range r.s.variants {
		products[v.ProductID] = true
		c.Variants++
		c.TotalUnits += int64(v.Stock)
		if v.Stock <= v.MinStock {
			c.Alerts++
		}
	}
	c.Products = int64(len(products))
	return c, nil
}

var _ repository.VariantRepository = (*variantStub)(nil)

type movementStub struct{ s *memStore }

func (r *movementStub) Create(_ context.Context, m *model.StockMovement) error {
	row := *m
	row.Variant = nil
	r.s.movements = append(r.s.movements, row)
	return nil
}

func (r *movementStub) List(_ context.Context, f repository.StockMovementFilter) ([]model.StockMovement, int64, error) {
	var out []model.StockMovement
	for _, m := range r.s.movements {
		if f.VariantID != nil && m.VariantID != *f.VariantID {
			continue
		}
		if f.Type != "" && m.Type != f.Type {
			continue
		}
		out = append(out, m)
	}
	return paginate(out, f.Page), int64(len(out)), nil
}

func (r *movementStub) UnitsSince(_ context.Context, t time.Time) (int64, int64, error) {
	var in, out int64
	for _, m := range r.s.movements {
		if m.CreatedAt.Before(t) {
			continue
		}
		switch m.Type {
		case model.MovementIn, model.MovementReturn:
			in += int64(m.Quantity)
		case model.MovementOut:
			out += int64(m.Quantity)
		}
	}
	return in, out, nil
}

var _ repository.StockMovementRepository = (*movementStub)(nil)

// ── Orders, carts, coupons ───────────────────────────────────────────────────

type orderStub struct{ s *memStore }

func (r *orderStub) Create(_ context.Context, o *model.Order) error {
	row := *o
	row.Items = append([]model.OrderItem(nil), o.Items...)
	r.s.orders[o.ID] = row
	return nil
}

func (r *orderStub) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := r.s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	o.Items = append([]model.OrderItem(nil), o.Items...)
	return &o, nil
}

func (r *orderStub) FindForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *orderStub) Update(_ context.Context, o *model.Order) error {
	row := *o
	row.Items = r.s.orders[o.ID].Items
	r.s.orders[o.ID] = row
	return nil
}

func (r *orderStub) List(_ context.Context, f repository.OrderFilter) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range r.s.orders {
		if f.CustomerID != nil && o.CustomerID != *f.CustomerID {
			continue
		}
		if f.StatusOrder != "" && o.StatusOrder != f.StatusOrder {
			continue
		}
		out = append(out, o)
	}
	return paginate(out, f.Page), int64(len(out)), nil
}

var _ repository.OrderRepository = (*orderStub)(nil)

type cartStub struct{ s *memStore }

func (r *cartStub) ListByCustomer(_ context.Context, customerID uuid.UUID) ([]model.CartItem, error) {
	lines := append([]model.CartItem(nil), r.s.carts[customerID]...)
	for i := range lines {
		if v, ok := r.s.variants[lines[i].VariantID]; ok {
			lines[i].Variant = &v
		}
	}
	return lines, nil
}

func (r *cartStub) FindLine(_ context.Context, customerID, variantID uuid.UUID) (*model.CartItem, error) {
	for _, l := range r.s.carts[customerID] {
		if l.VariantID == variantID {
			return &l, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *cartStub) SaveLine(_ context.Context, item *model.CartItem) error {
	lines := r.s.carts[item.CustomerID]
	row := *item
	row.Variant = nil
	for i := range lines {
		if lines[i].VariantID == item.VariantID {
			lines[i] = row
			return nil
		}
	}
	r.s.carts[item.CustomerID] = append(lines, row)
	return nil
}

func (r *cartStub) DeleteLine(_ context.Context, customerID, variantID uuid.UUID) error {
	lines := r.s.carts[customerID]
	out := lines[:0:0]
	for _, l := range lines {
		if l.VariantID != variantID {
			out = append(out, l)
		}
	}
	r.s.carts[customerID] = out
	return nil
}

func (r *cartStub) Clear(_ context.Context, customerID uuid.UUID) error {
	delete(r.s.carts, customerID)
	return nil
}

var _ repository.CartRepository = (*cartStub)(nil)

type couponStub struct{ s *memStore }

func (r *couponStub) FindByCode(_ context.Context, code string) (*model.Coupon, error) {
	c, ok := r.s.coupons[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *couponStub) FindByCodeForUpdate(ctx context.Context, code string) (*model.Coupon, error) {
	return r.FindByCode(ctx, code)
}

func (r *couponStub) IncrementUsed(_ context.Context, id uuid.UUID) (bool, error) {
	for code, c := range r.s.coupons {
		if c.ID != id {
			continue
		}
		if c.QuantityUsed >= c.QuantityTotal {
			return false, nil
		}
		c.QuantityUsed++
		r.s.coupons[code] = c
		return true, nil
	}
	return false, nil
}

func (r *couponStub) CreateUsage(_ context.Context, u *model.CouponUsage) error {
	r.s.usages = append(r.s.usages, *u)
	return nil
}

var _ repository.CouponRepository = (*couponStub)(nil)

// ── Accounts and closings ────────────────────────────────────────────────────

type accountStub struct {
	kind string
	rows map[uuid.UUID]model.Account
	s    *memStore
}

func newAccountStub(s *memStore, kind string) *accountStub {
	return &accountStub{kind: kind, s: s}
}

func (r *accountStub) table() map[uuid.UUID]model.Account {
	if r.kind == model.AccountPayableKind {
		return r.s.payables
	}
	return r.s.receivables
}

func (r *accountStub) Kind() string { return r.kind }

func (r *accountStub) Create(_ context.Context, a *model.Account) error {
	r.table()[a.ID] = *a
	return nil
}

func (r *accountStub) FindByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	a, ok := r.table()[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (r *accountStub) FindForUpdate(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	return r.FindByID(ctx, id)
}

func (r *accountStub) Update(_ context.Context, a *model.Account) error {
	r.table()[a.ID] = *a
	return nil
}

func (r *accountStub) List(_ context.Context, f repository.AccountFilter) ([]model.Account, int64, error) {
	var out []model.Account
	for _, a := range r.table() {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.Overdue && (a.Status != model.AccountPending || !a.DueDate.Before(f.AsOf)) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return paginate(out, f.Page), int64(len(out)), nil
}

func inDays(t, from, to time.Time) bool { return !t.Before(from) && !t.After(to) }

func (r *accountStub) SettledBetween(_ context.Context, from, to time.Time, branchIDs []int) ([]model.Account, error) {
	var out []model.Account
	for _, a := range r.table() {
		if !a.Settled() || a.SettledOn == nil || !inDays(*a.SettledOn, from, to) {
			continue
		}
		if len(branchIDs) > 0 && (a.BranchID == nil || !containsInt(branchIDs, *a.BranchID)) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *accountStub) PendingDueBetween(_ context.Context, from, to time.Time, branchIDs []int) ([]model.Account, error) {
	var out []model.Account
	for _, a := range r.table() {
		if a.Status != model.AccountPending || !inDays(a.DueDate, from, to) {
			continue
		}
		if len(branchIDs) > 0 && (a.BranchID == nil || !containsInt(branchIDs, *a.BranchID)) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *accountStub) AggregatePending(_ context.Context, dueFrom, dueTo *time.Time) (repository.AccountAggregate, error) {
	agg := repository.AccountAggregate{Total: decimal.Zero}
	for _, a := range r.table() {
		if a.Status != model.AccountPending {
			continue
		}
		if dueFrom != nil && a.DueDate.Before(*dueFrom) {
			continue
		}
		if dueTo != nil && a.DueDate.After(*dueTo) {
			continue
		}
		agg.Count++
		agg.Total = agg.Total.Add(a.Amount)
	}
	return agg, nil
}

var _ repository.AccountRepository = (*accountStub)(nil)

type closingStub struct{ s *memStore }

func (r *closingStub) LockPeriod(context.Context, time.Time, time.Time) error { return nil }

func (r *closingStub) ExistsActive(_ context.Context, start, end time.Time) (bool, error) {
	for _, c := range r.s.closings {
		if c.StartDate.Equal(start) && c.EndDate.Equal(end) && !c.Cancelled {
			return true, nil
		}
	}
	return false, nil
}

func (r *closingStub) Create(_ context.Context, c *model.FinancialClosing) error {
	r.s.closings[c.ID] = *c
	return nil
}

func (r *closingStub) FindByID(_ context.Context, id uuid.UUID) (*model.FinancialClosing, error) {
	c, ok := r.s.closings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *closingStub) FindForUpdate(ctx context.Context, id uuid.UUID) (*model.FinancialClosing, error) {
	return r.FindByID(ctx, id)
}

func (r *closingStub) MarkCancelled(_ context.Context, c *model.FinancialClosing) error {
	row := r.s.closings[c.ID]
	row.Cancelled = c.Cancelled
	row.CancelledBy = c.CancelledBy
	row.CancelledAt = c.CancelledAt
	row.CancelReason = c.CancelReason
	r.s.closings[c.ID] = row
	return nil
}

func (r *closingStub) List(_ context.Context, f repository.ClosingFilter) ([]model.FinancialClosing, int64, error) {
	var out []model.FinancialClosing
	for _, c := range r.s.closings {
		if !f.IncludeCancelled && c.Cancelled {
			continue
		}
		out = append(out, c)
	}
	return paginate(out, f.Page), int64(len(out)), nil
}

var _ repository.ClosingRepository = (*closingStub)(nil)

// ── Collaborators ────────────────────────────────────────────────────────────

type recordingAuditor struct{ records []service.AuditRecord }

func (a *recordingAuditor) Record(_ context.Context, rec service.AuditRecord) {
	a.records = append(a.records, rec)
}

type recordingNotifier struct{ sent []service.Notification }

func (n *recordingNotifier) Notify(_ context.Context, msg service.Notification) {
	n.sent = append(n.sent, msg)
}

var (
	_ service.Auditor  = (*recordingAuditor)(nil)
	_ service.Notifier = (*recordingNotifier)(nil)
)

func (n *recordingNotifier) events() []string {
	out := make([]string, 0, len(n.sent))
	for _, m := range n.sent {
		out = append(out, m.Event)
	}
	return out
}

// ── Fixture ──────────────────────────────────────────────────────────────────

// fixedNow is 14:00 in São Paulo on 2024-03-15.
var fixedNow = time.Date(2024, 3, 15, 17, 0, 0, 0, time.UTC)

type fixture struct {
	store    *memStore
	tx       *stubTx
	sessions *sessionStub
	payables *accountStub
	receiv   *accountStub
	audit    *recordingAuditor
	notify   *recordingNotifier
	clock    *time.Time
	cal      service.Calendar
}

func newFixture() *fixture {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		loc = time.FixedZone("BRT", -3*3600)
	}
	store := newMemStore()
	now := fixedNow
	f := &fixture{
		store:    store,
		tx:       &stubTx{store: store},
		sessions: &sessionStub{s: store},
		payables: newAccountStub(store, model.AccountPayableKind),
		receiv:   newAccountStub(store, model.AccountReceivableKind),
		audit:    &recordingAuditor{},
		notify:   &recordingNotifier{},
		clock:    &now,
	}
	f.cal = service.NewCalendar(loc, func() time.Time { return *f.clock })
	return f
}

func (f *fixture) cashService() service.CashSessionService {
	return service.NewCashSessionService(f.tx, f.sessions, f.audit, f.notify, f.cal)
}

func (f *fixture) reconciliationService() service.ReconciliationService {
	return service.NewReconciliationService(f.tx, f.sessions, f.payables, f.receiv, f.audit, f.notify, f.cal, 7)
}

func (f *fixture) accountService(kind string) service.AccountService {
	repo := f.payables
	if kind == model.AccountReceivableKind {
		repo = f.receiv
	}
	return service.NewAccountService(f.tx, repo, f.audit, f.notify, f.cal)
}

func (f *fixture) closingService(storage string) service.ClosingService {
	return service.NewClosingService(f.tx, &closingStub{s: f.store}, f.sessions, f.payables, f.receiv, f.audit, f.notify, f.cal, storage)
}

func (f *fixture) stockService() service.StockService {
	return service.NewStockService(f.tx, &variantStub{s: f.store}, &movementStub{s: f.store}, f.cal)
}

func (f *fixture) orderService(strict bool) service.OrderService {
	return service.NewOrderService(f.tx, &orderStub{s: f.store}, &cartStub{s: f.store}, &variantStub{s: f.store},
		&couponStub{s: f.store}, f.stockService(), f.audit, f.notify, f.cal, strict)
}

func (f *fixture) cartService() service.CartService {
	return service.NewCartService(&cartStub{s: f.store}, &variantStub{s: f.store})
}

// addVariant seeds an active product with one variant.
func (f *fixture) addVariant(price string, stock int) uuid.UUID {
	p := &model.Product{ID: uuid.New(), SKU: uuid.NewString()[:8], Name: "Linen dress", Price: decimal.RequireFromString(price), Active: true}
	v := model.ProductVariant{ID: uuid.New(), ProductID: p.ID, Size: "M", Color: "white", Stock: stock, MinStock: 1, Active: true, Product: p}
	f.store.variants[v.ID] = v
	return v.ID
}

func (f *fixture) addToCart(customer, variant uuid.UUID, qty int) {
	f.store.carts[customer] = append(f.store.carts[customer], model.CartItem{
		ID: uuid.New(), CustomerID: customer, VariantID: variant, Quantity: qty, CreatedAt: *f.clock,
	})
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

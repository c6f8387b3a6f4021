package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"boutique/internal/dto"
	"boutique/internal/model"
	"boutique/internal/repository"
	"boutique/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var operator = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")

func openSession(t *testing.T, svc service.CashSessionService, branch int, opening string) *dto.SessionResponse {
	t.Helper()
	s, err := svc.OpenSession(context.Background(), operator, dto.OpenSessionRequest{
		BranchID: branch, OpeningAmount: dec(opening),
	})
	require.NoError(t, err)
	return s
}

func addEntry(t *testing.T, svc service.CashSessionService, branch int, typ, amount, method string) *dto.EntryResponse {
	t.Helper()
	e, err := svc.CreateEntry(context.Background(), operator, dto.CreateEntryRequest{
		BranchID: branch, Type: typ, Amount: dec(amount), PaymentMethod: method,
	})
	require.NoError(t, err)
	return e
}

func requireConflict(t *testing.T, err error, code string) {
	t.Helper()
	var ce *service.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, code, ce.Code)
}

// ── Open ─────────────────────────────────────────────────────────────────────

func TestOpenSession_SetsBusinessDateInStoreTimezone(t *testing.T) {
	f := newFixture()
	// 01:30 UTC on the 16th is still the 15th in São Paulo.
	*f.clock = fixedNow.Add(8*time.Hour + 30*time.Minute)

	s := openSession(t, f.cashService(), 1, "100")

	assert.Equal(t, "2024-03-15", s.BusinessDate)
	assert.Equal(t, model.SessionOpen, s.Status)
	assert.Equal(t, "100.00", s.OpeningAmount.StringFixed(2))
	assert.Nil(t, s.ClosedAt)
	assert.Contains(t, f.notify.events(), service.EventSessionOpened)
}

func TestOpenSession_SecondOpenSameDayConflicts(t *testing.T) {
	f := newFixture()
	svc := f.cashService()
	openSession(t, svc, 1, "100")

	_, err := svc.OpenSession(context.Background(), operator, dto.OpenSessionRequest{BranchID: 1, OpeningAmount: dec("50")})
	requireConflict(t, err, service.CodeSessionAlreadyOpen)
	assert.Len(t, f.store.sessions, 1)

	// other branches are independent
	openSession(t, svc, 2, "0")
	assert.Len(t, f.store.sessions, 2)
}

func TestOpenSession_PendingSessionDoesNotBlock(t *testing.T) {
	f := newFixture()
	svc := f.cashService()
	first := openSession(t, svc, 1, "100")
	_, err := svc.CloseSession(context.Background(), uuid.MustParse(first.ID), operator, dto.CloseSessionRequest{})
	require.NoError(t, err)

	second := openSession(t, svc, 1, "80")
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, model.SessionPendingApproval, f.store.sessions[uuid.MustParse(first.ID)].Status)
}

func TestOpenSession_RejectsNegativeOpening(t *testing.T) {
	f := newFixture()
	_, err := f.cashService().OpenSession(context.Background(), operator, dto.OpenSessionRequest{
		BranchID: 1, OpeningAmount: dec("-1"),
	})
	assert.ErrorIs(t, err, service.ErrValidation)
	assert.Empty(t, f.store.sessions)
}

// ── Close ────────────────────────────────────────────────────────────────────

func TestCloseSession_MatchingDeclaration(t *testing.T) {
	f := newFixture()
	svc := f.cashService()
	s := openSession(t, svc, 1, "100.00")
	addEntry(t, svc, 1, model.EntryIn, "50.00", "cash")
	addEntry(t, svc, 1, model.EntryOut, "20.00", "cash")

	closed, err := svc.CloseSession(context.Background(), uuid.MustParse(s.ID), operator, dto.CloseSessionRequest{
		DeclaredAmount: decPtr("130.00"),
	})
	require.NoError(t, err)

	assert.Equal(t, model.SessionPendingApproval, closed.Status)
	require.NotNil(t, closed.ComputedBalance)
	assert.Equal(t, "130.00", closed.ComputedBalance.StringFixed(2))
	require.NotNil(t, closed.Difference)
	assert.True(t, closed.Difference.IsZero())
	assert.NotNil(t, closed.ClosedAt)
	assert.Equal(t, operator.String(), *closed.CloserID)
}

func TestCloseSession_WithoutDeclarationLeavesDifferenceEmpty(t *testing.T) {
	f := newFixture()
	svc := f.cashService()
	s := openSession(t, svc, 1, "10")
	addEntry(t, svc, 1, model.EntryIn, "5", "pix")

	closed, err := svc.CloseSession(context.Background(), uuid.MustParse(s.ID), operator, dto.CloseSessionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "15.00", closed.ComputedBalance.StringFixed(2))
	assert.Nil(t, closed.Difference)
}

func TestCloseSession_OnlyOpenSessions(t *testing.T) {
	f := newFixture()
	svc := f.cashService()
	s := openSession(t, svc, 1, "0")
	id := uuid.MustParse(s.ID)
	_, err := svc.CloseSession(context.Background(), id, operator, dto.CloseSessionRequest{})
	require.NoError(t, err)

	_, err = svc.CloseSession(context.Background(), id, operator, dto.CloseSessionRequest{})
	requireConflict(t, err, service.CodeSessionNotOpen)

	_, err = svc.CloseSession(context.Background(), uuid.New(), operator, dto.CloseSessionRequest{})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

// ── Entries ──────────────────────────────────────────────────────────────────

func TestCreateEntry_AttachesToTodaysOpenSession(t *testing.T) {
	f := newFixture()
	svc := f.cashService()
	s := openSession(t, svc, 3, "0")

	e := addEntry(t, svc, 3, model.EntryIn, "12.5", "card")
	require.NotNil(t, e.SessionID)
	assert.Equal(t, s.ID, *e.SessionID)
	assert.Equal(t, model.OriginStore, e.Origin)
	assert.Equal(t, 1, e.Installments)

	// no open session on branch 4: entry stays unassigned
	loose := addEntry(t, svc, 4, model.EntryOut, "3", "cash")
	assert.Nil(t, loose.SessionID)
}

func TestCreateEntry_ExplicitSession(t *testing.T) {
	f := newFixture()
	svc := f.cashService()
	s := openSession(t, svc, 1, "0")
	sid := s.ID

	_, err := svc.CreateEntry(context.Background(), operator, dto.CreateEntryRequest{
		SessionID: &sid, BranchID: 2, Type: model.EntryIn, Amount: dec("1"), PaymentMethod: "cash",
	})
	requireConflict(t, err, service.CodeSessionBranch)

	missing := uuid.NewString()
	_, err = svc.CreateEntry(context.Background(), operator, dto.CreateEntryRequest{
		SessionID: &missing, BranchID: 1, Type: model.EntryIn, Amount: dec("1"), PaymentMethod: "cash",
	})
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.Empty(t, f.store.entries)
}

func TestCreateEntry_Validation(t *testing.T) {
	f := newFixture()
	svc := f.cashService()
	cases := []dto.CreateEntryRequest{
		{BranchID: 1, Type: "sideways", Amount: dec("1"), PaymentMethod: "cash"},
		{BranchID: 1, Type: model.EntryIn, Amount: dec("0"), PaymentMethod: "cash"},
		{BranchID: 1, Type: model.EntryIn, Amount: dec("1"), PaymentMethod: " "},
		{BranchID: 1, Type: model.EntryIn, Amount: dec("1"), PaymentMethod: "cash", Origin: "marketplace"},
		{BranchID: 0, Type: model.EntryIn, Amount: dec("1"), PaymentMethod: "cash"},
	}
	for _, req := range cases {
		_, err := svc.CreateEntry(context.Background(), operator, req)
		assert.ErrorIs(t, err, service.ErrValidation, "%+v", req)
	}
	assert.Empty(t, f.store.entries)
}

func TestApprovedSessionEntriesAreImmutable(t *testing.T) {
	f := newFixture()
	svc := f.cashService()
	s := openSession(t, svc, 1, "100")
	e := addEntry(t, svc, 1, model.EntryIn, "50", "cash")
	id := uuid.MustParse(s.ID)
	_, err := svc.CloseSession(context.Background(), id, operator, dto.CloseSessionRequest{})
	require.NoError(t, err)
	_, err = f.reconciliationService().ApproveSession(context.Background(), id, finance, dto.ApproveSessionRequest{})
	require.NoError(t, err)

	entryID := uuid.MustParse(e.ID)
	_, err = svc.UpdateEntry(context.Background(), entryID, operator, dto.UpdateEntryRequest{Amount: decPtr("70")})
	requireConflict(t, err, service.CodeSessionApproved)

	err = svc.DeleteEntry(context.Background(), entryID, operator)
	requireConflict(t, err, service.CodeSessionApproved)

	sid := s.ID
	_, err = svc.CreateEntry(context.Background(), operator, dto.CreateEntryRequest{
		SessionID: &sid, BranchID: 1, Type: model.EntryOut, Amount: dec("1"), PaymentMethod: "cash",
	})
	requireConflict(t, err, service.CodeSessionApproved)

	assert.Equal(t, "50.00", f.store.entries[entryID].Amount.StringFixed(2))
	assert.Len(t, f.store.entries, 1)
}

func TestUpdateEntry_WhilePendingIsAllowed(t *testing.T) {
	f := newFixture()
	svc := f.cashService()
	s := openSession(t, svc, 1, "0")
	e := addEntry(t, svc, 1, model.EntryIn, "50", "cash")
	_, err := svc.CloseSession(context.Background(), uuid.MustParse(s.ID), operator, dto.CloseSessionRequest{})
	require.NoError(t, err)

	method := "pix"
	upd, err := svc.UpdateEntry(context.Background(), uuid.MustParse(e.ID), operator, dto.UpdateEntryRequest{
		Amount: decPtr("45"), PaymentMethod: &method,
	})
	require.NoError(t, err)
	assert.Equal(t, "45.00", upd.Amount.StringFixed(2))
	assert.Equal(t, "pix", upd.PaymentMethod)

	require.Len(t, f.audit.records, 4)
	last := f.audit.records[3]
	assert.Equal(t, "cash_entry", last.Entity)
	assert.Equal(t, model.AuditUpdate, last.Action)
	assert.NotNil(t, last.Before)
	assert.NotNil(t, last.After)
}

func TestDeleteEntry_RemovesRow(t *testing.T) {
	f := newFixture()
	svc := f.cashService()
	openSession(t, svc, 1, "0")
	e := addEntry(t, svc, 1, model.EntryIn, "50", "cash")

	require.NoError(t, svc.DeleteEntry(context.Background(), uuid.MustParse(e.ID), operator))
	assert.Empty(t, f.store.entries)

	err := svc.DeleteEntry(context.Background(), uuid.MustParse(e.ID), operator)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

// ── Reads ────────────────────────────────────────────────────────────────────

func TestCurrentSession_LiveTotals(t *testing.T) {
	f := newFixture()
	svc := f.cashService()
	_, err := svc.CurrentSession(context.Background(), 1)
	assert.ErrorIs(t, err, service.ErrNotFound)

	openSession(t, svc, 1, "100")
	addEntry(t, svc, 1, model.EntryIn, "40", "cash")
	addEntry(t, svc, 1, model.EntryIn, "60", "card")
	addEntry(t, svc, 1, model.EntryOut, "15", "cash")

	rep, err := svc.CurrentSession(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "100.00", rep.Live.TotalIn.StringFixed(2))
	assert.Equal(t, "15.00", rep.Live.TotalOut.StringFixed(2))
	assert.Equal(t, "185.00", rep.Live.Balance.StringFixed(2))
	assert.EqualValues(t, 3, rep.Live.EntryCount)
	assert.Len(t, rep.Session.Entries, 3)
	require.Len(t, rep.ByPaymentMethod, 2)
	assert.Equal(t, "card", rep.ByPaymentMethod[0].Key)
	assert.Equal(t, "cash", rep.ByPaymentMethod[1].Key)
	assert.Equal(t, "15.00", rep.ByPaymentMethod[1].TotalOut.StringFixed(2))
}

func TestEntrySummary_GroupsByOrigin(t *testing.T) {
	f := newFixture()
	svc := f.cashService()
	openSession(t, svc, 1, "0")
	addEntry(t, svc, 1, model.EntryIn, "10", "cash")
	_, err := svc.CreateEntry(context.Background(), operator, dto.CreateEntryRequest{
		BranchID: 1, Type: model.EntryIn, Amount: dec("30"), PaymentMethod: "pix", Origin: model.OriginEcommerce,
	})
	require.NoError(t, err)

	branch := 1
	sum, err := svc.EntrySummary(context.Background(), repository.EntryFilter{BranchID: &branch})
	require.NoError(t, err)
	assert.Equal(t, "40.00", sum.Balance.StringFixed(2))
	assert.EqualValues(t, 2, sum.Count)
	require.Len(t, sum.ByOrigin, 2)
	assert.Equal(t, model.OriginEcommerce, sum.ByOrigin[0].Key)
}

func TestCashSession_FailedUnitOfWorkLeavesNoTrace(t *testing.T) {
	f := newFixture()
	boom := errors.New("disk full")
	repo := &failingCreate{sessionStub: f.sessions, err: boom}
	svc := service.NewCashSessionService(f.tx, repo, f.audit, f.notify, f.cal)

	_, err := svc.OpenSession(context.Background(), operator, dto.OpenSessionRequest{BranchID: 1})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, f.store.sessions)
	assert.Empty(t, f.audit.records)
	assert.Empty(t, f.notify.sent)
}

type failingCreate struct {
	*sessionStub
	err error
}

func (r *failingCreate) CreateSession(context.Context, *model.CashSession) error { return r.err }

// closedUnderneath reports every locked session as already pending review,
// as if a close committed between the open-session lookup and the row lock.
type closedUnderneath struct {
	*sessionStub
}

func (r *closedUnderneath) FindSessionForUpdate(ctx context.Context, id uuid.UUID) (*model.CashSession, error) {
	row, err := r.sessionStub.FindSessionForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	row.Status = model.SessionPendingApproval
	return row, nil
}

func TestCreateEntry_SkipsSessionClosedBeforeLock(t *testing.T) {
	f := newFixture()
	openSession(t, f.cashService(), 1, "0")

	svc := service.NewCashSessionService(f.tx, &closedUnderneath{sessionStub: f.sessions}, f.audit, f.notify, f.cal)
	e := addEntry(t, svc, 1, model.EntryIn, "10", "cash")

	assert.Nil(t, e.SessionID)
	require.Len(t, f.store.entries, 1)
	for _, row := range f.store.entries {
		assert.Nil(t, row.SessionID)
	}
}

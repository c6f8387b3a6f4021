package service_test

import (
	"bytes"
	"context"
	"os"
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

func approvedSession(t *testing.T, f *fixture) uuid.UUID {
	t.Helper()
	id := closedSession(t, f, "130.00")
	_, err := f.reconciliationService().ApproveSession(context.Background(), id, finance, dto.ApproveSessionRequest{})
	require.NoError(t, err)
	return id
}

func settled(a model.Account, amount, on, status string) model.Account {
	d, _ := time.Parse("2006-01-02", on)
	a.Status = status
	a.SettledOn = &d
	if amount != "" {
		a.SettledAmount = decPtr(amount)
	}
	return a
}

// seedMarch leaves one approved session (in 50, out 20) and a spread of
// accounts around March 2024.
func seedMarch(t *testing.T, f *fixture) uuid.UUID {
	t.Helper()
	sid := approvedSession(t, f)
	closedSession(t, f, "0") // pending sessions stay out

	p := seedAccount(f, model.AccountPayableKind, "30", "2024-03-10", model.AccountPending)
	f.store.payables[p.ID] = settled(p, "28", "2024-03-10", model.AccountPaid)
	r := seedAccount(f, model.AccountReceivableKind, "100", "2024-03-12", model.AccountPending)
	f.store.receivables[r.ID] = settled(r, "", "2024-03-12", model.AccountReceived)
	april := seedAccount(f, model.AccountReceivableKind, "999", "2024-04-02", model.AccountPending)
	f.store.receivables[april.ID] = settled(april, "999", "2024-04-02", model.AccountReceived)

	seedAccount(f, model.AccountPayableKind, "40", "2024-03-20", model.AccountPending)
	seedAccount(f, model.AccountReceivableKind, "15", "2024-03-25", model.AccountPending)
	seedAccount(f, model.AccountPayableKind, "77", "2024-03-26", model.AccountCancelled)
	return sid
}

func marchReq() dto.GenerateClosingRequest {
	return dto.GenerateClosingRequest{StartDate: "2024-03-01", EndDate: "2024-03-31"}
}

func TestGenerateClosing_Totals(t *testing.T) {
	f := newFixture()
	sid := seedMarch(t, f)

	c, err := f.closingService("").GenerateClosing(context.Background(), finance, marchReq())
	require.NoError(t, err)

	assert.Equal(t, "150.00", c.Revenue.StringFixed(2))
	assert.Equal(t, "48.00", c.Expense.StringFixed(2))
	assert.Equal(t, "102.00", c.Result.StringFixed(2))

	s := c.Summary
	assert.Equal(t, 1, s.Sessions.Count)
	assert.Equal(t, []uuid.UUID{sid}, s.Sessions.IDs)
	assert.Equal(t, "130.00", s.Sessions.Balance.StringFixed(2))
	assert.Equal(t, 1, s.Payables.Count)
	assert.Equal(t, "28.00", s.Payables.Total.StringFixed(2))
	assert.Equal(t, "100.00", s.Receivables.Total.StringFixed(2))
	assert.Equal(t, "40.00", s.OpenItems.Payables.Total.StringFixed(2))
	assert.Equal(t, "15.00", s.OpenItems.Receivables.Total.StringFixed(2))
	assert.Empty(t, c.BranchIDs)

	require.NotNil(t, c.Details)
	assert.Len(t, c.Details.Sessions, 1)
	assert.Len(t, c.Details.OpenPayables, 1)

	require.Len(t, f.store.closings, 1)
	assert.Contains(t, f.notify.events(), service.EventClosingGenerated)
}

func TestGenerateClosing_BranchFilter(t *testing.T) {
	f := newFixture()
	seedMarch(t, f)

	req := marchReq()
	req.BranchIDs = []int{2, 2, 0}
	c, err := f.closingService("").GenerateClosing(context.Background(), finance, req)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, c.BranchIDs)
	assert.Equal(t, 0, c.Summary.Sessions.Count)
	assert.Equal(t, 0, c.Summary.Payables.Count)
	assert.True(t, c.Result.IsZero())
}

func TestGenerateClosing_OneActivePerPeriod(t *testing.T) {
	f := newFixture()
	svc := f.closingService("")
	first, err := svc.GenerateClosing(context.Background(), finance, marchReq())
	require.NoError(t, err)

	_, err = svc.GenerateClosing(context.Background(), finance, marchReq())
	requireConflict(t, err, service.CodeClosingPeriodExists)
	assert.Len(t, f.store.closings, 1)

	// a different period is fine
	_, err = svc.GenerateClosing(context.Background(), finance, dto.GenerateClosingRequest{StartDate: "2024-03-01", EndDate: "2024-03-15"})
	require.NoError(t, err)

	_, err = svc.CancelClosing(context.Background(), uuid.MustParse(first.ID), finance, "wrong period")
	require.NoError(t, err)
	_, err = svc.GenerateClosing(context.Background(), finance, marchReq())
	require.NoError(t, err)
	assert.Len(t, f.store.closings, 3)
}

func TestGenerateClosing_Validation(t *testing.T) {
	f := newFixture()
	svc := f.closingService("")
	for _, req := range []dto.GenerateClosingRequest{
		{StartDate: "2024-03-31", EndDate: "2024-03-01"},
		{StartDate: "march", EndDate: "2024-03-01"},
		{StartDate: "2024-03-01", EndDate: ""},
	} {
		_, err := svc.GenerateClosing(context.Background(), finance, req)
		assert.ErrorIs(t, err, service.ErrValidation, "%+v", req)
	}
	assert.Empty(t, f.store.closings)
}

func TestGenerateClosing_SnapshotIsImmutable(t *testing.T) {
	f := newFixture()
	seedMarch(t, f)
	svc := f.closingService("")
	c, err := svc.GenerateClosing(context.Background(), finance, marchReq())
	require.NoError(t, err)

	// later activity must not leak into a stored closing
	seedAccount(f, model.AccountReceivableKind, "500", "2024-03-05", model.AccountPending)
	got, err := svc.GetClosing(context.Background(), uuid.MustParse(c.ID))
	require.NoError(t, err)
	assert.Equal(t, c.Summary.OpenItems.Receivables.Total.String(), got.Summary.OpenItems.Receivables.Total.String())
	assert.Equal(t, "102.00", got.Result.StringFixed(2))
	assert.Nil(t, got.Details)
}

func TestCancelClosing(t *testing.T) {
	f := newFixture()
	svc := f.closingService("")
	c, err := svc.GenerateClosing(context.Background(), finance, marchReq())
	require.NoError(t, err)
	id := uuid.MustParse(c.ID)

	_, err = svc.CancelClosing(context.Background(), id, finance, " ")
	assert.ErrorIs(t, err, service.ErrValidation)

	cancelled, err := svc.CancelClosing(context.Background(), id, finance, "duplicate")
	require.NoError(t, err)
	assert.True(t, cancelled.Cancelled)
	assert.Equal(t, "duplicate", *cancelled.CancelReason)
	assert.NotNil(t, cancelled.CancelledAt)

	_, err = svc.CancelClosing(context.Background(), id, finance, "again")
	requireConflict(t, err, service.CodeClosingCancelled)

	active, err := svc.ListClosings(context.Background(), repository.ClosingFilter{})
	require.NoError(t, err)
	assert.Empty(t, active.Data)
	all, err := svc.ListClosings(context.Background(), repository.ClosingFilter{IncludeCancelled: true})
	require.NoError(t, err)
	assert.Len(t, all.Data, 1)
}

func TestClosingExports(t *testing.T) {
	f := newFixture()
	seedMarch(t, f)
	svc := f.closingService("")
	c, err := svc.GenerateClosing(context.Background(), finance, marchReq())
	require.NoError(t, err)
	id := uuid.MustParse(c.ID)

	var xlsx bytes.Buffer
	name, err := svc.ExportXLSX(context.Background(), id, &xlsx)
	require.NoError(t, err)
	assert.Contains(t, name, "2024-03-01")
	assert.Regexp(t, `\.xlsx$`, name)
	assert.True(t, bytes.HasPrefix(xlsx.Bytes(), []byte("PK")))

	var pdf bytes.Buffer
	name, err = svc.ExportPDF(context.Background(), id, &pdf)
	require.NoError(t, err)
	assert.Regexp(t, `\.pdf$`, name)
	assert.True(t, bytes.HasPrefix(pdf.Bytes(), []byte("%PDF")))

	_, err = svc.ExportPDF(context.Background(), uuid.New(), &pdf)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestGenerateClosing_ArchivesPDFForMail(t *testing.T) {
	f := newFixture()
	dir := t.TempDir()
	_, err := f.closingService(dir).GenerateClosing(context.Background(), finance, marchReq())
	require.NoError(t, err)

	last := f.notify.sent[len(f.notify.sent)-1]
	require.Equal(t, service.EventClosingGenerated, last.Event)
	require.NotEmpty(t, last.Attachment)
	st, err := os.Stat(last.Attachment)
	require.NoError(t, err)
	assert.Greater(t, st.Size(), int64(0))
}

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"boutique/internal/infra"
	"boutique/internal/model"
	"boutique/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { retryBase = time.Millisecond }

// ── fakes ────────────────────────────────────────────────────────────────────

type fakeSender struct {
	failures int
	calls    int
	to       []string
}

func (s *fakeSender) Send(to []string, subject, body, attachment string) error {
	s.calls++
	if s.calls <= s.failures {
		return errors.New("smtp unavailable")
	}
	s.to = to
	return nil
}

type fakeAuditRepo struct {
	fail    int
	calls   int
	entries []model.AuditLog
}

var _ repository.AuditRepository = (*fakeAuditRepo)(nil)

func (r *fakeAuditRepo) Log(_ context.Context, e *model.AuditLog) error {
	r.calls++
	if r.calls <= r.fail {
		return errors.New("db down")
	}
	r.entries = append(r.entries, *e)
	return nil
}

func (r *fakeAuditRepo) List(context.Context, repository.AuditFilter) ([]model.AuditLog, int64, error) {
	return r.entries, int64(len(r.entries)), nil
}

type fakePayables struct {
	repository.AccountRepository
	dueSoon []model.Account
	overdue []model.Account
}

func (p *fakePayables) PendingDueBetween(context.Context, time.Time, time.Time, []int) ([]model.Account, error) {
	return p.dueSoon, nil
}

func (p *fakePayables) List(_ context.Context, f repository.AccountFilter) ([]model.Account, int64, error) {
	if !f.Overdue {
		return nil, 0, nil
	}
	return p.overdue, int64(len(p.overdue)), nil
}

type fakeClaimer struct{ held bool }

func (c *fakeClaimer) Claim(context.Context, string, time.Duration) error {
	if c.held {
		return infra.ErrLockHeld
	}
	c.held = true
	return nil
}

type fakeQueue struct{ payloads []interface{} }

func (q *fakeQueue) EnqueueNotification(_ context.Context, p interface{}) error {
	q.payloads = append(q.payloads, p)
	return nil
}

func mustJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

// ── notification worker ──────────────────────────────────────────────────────

func TestNotificationWorker_RetriesThenSends(t *testing.T) {
	sender := &fakeSender{failures: 2}
	w := NewNotificationWorker(sender, infra.NewCircuitBreaker(infra.DefaultCBConfig()), nil)

	w.Process(context.Background(), mustJSON(t, NotificationJobPayload{
		Event: "session.approved", To: []string{"finance@shop.test"}, Subject: "s", Body: "b",
	}))

	assert.Equal(t, 3, sender.calls)
	assert.Equal(t, []string{"finance@shop.test"}, sender.to)
}

func TestNotificationWorker_GivesUpAfterMaxAttempts(t *testing.T) {
	sender := &fakeSender{failures: 10}
	w := NewNotificationWorker(sender, infra.NewCircuitBreaker(infra.DefaultCBConfig()), nil)

	w.Process(context.Background(), mustJSON(t, NotificationJobPayload{To: []string{"x@shop.test"}}))

	assert.Equal(t, notificationMaxAttempts, sender.calls)
}

func TestNotificationWorker_SkipsWithoutRecipients(t *testing.T) {
	sender := &fakeSender{}
	w := NewNotificationWorker(sender, infra.NewCircuitBreaker(infra.DefaultCBConfig()), nil)

	w.Process(context.Background(), mustJSON(t, NotificationJobPayload{Event: "order.created"}))

	assert.Zero(t, sender.calls)
}

// ── audit worker ─────────────────────────────────────────────────────────────

func TestAuditWorker_PersistsRecord(t *testing.T) {
	repo := &fakeAuditRepo{fail: 1}
	w := NewAuditWorker(repo, nil)
	actor := uuid.New()
	at := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

	w.Process(context.Background(), mustJSON(t, AuditJobPayload{
		Entity:     "cash_session",
		EntityID:   "abc",
		Action:     model.AuditStatusChange,
		ActorID:    &actor,
		Before:     json.RawMessage(`{"status":"pending_approval"}`),
		After:      json.RawMessage(`{"status":"approved"}`),
		OccurredAt: at,
	}))

	require.Len(t, repo.entries, 1)
	got := repo.entries[0]
	assert.Equal(t, "cash_session", got.Entity)
	assert.Equal(t, model.AuditStatusChange, got.Action)
	assert.Equal(t, &actor, got.ActorID)
	require.NotNil(t, got.After)
	assert.JSONEq(t, `{"status":"approved"}`, *got.After)
	assert.True(t, got.CreatedAt.Equal(at))
}

func TestAuditWorker_NullSnapshotsStayNil(t *testing.T) {
	repo := &fakeAuditRepo{}
	w := NewAuditWorker(repo, nil)

	w.Process(context.Background(), mustJSON(t, AuditJobPayload{Entity: "order", EntityID: "1", Action: model.AuditCreate}))

	require.Len(t, repo.entries, 1)
	assert.Nil(t, repo.entries[0].Before)
	assert.Nil(t, repo.entries[0].After)
}

// ── reminder cron ────────────────────────────────────────────────────────────

func TestRunReminder_SendsDigestOncePerLease(t *testing.T) {
	due := time.Date(2026, 6, 12, 0, 0, 0, 0, time.UTC)
	payables := &fakePayables{
		dueSoon: []model.Account{{Description: "Rent", Amount: decimal.RequireFromString("3200"), DueDate: due}},
		overdue: []model.Account{{Description: "Supplier", Amount: decimal.RequireFromString("150.5"), DueDate: due.AddDate(0, 0, -5)}},
	}
	queue := &fakeQueue{}
	cfg := ReminderCronConfig{
		Payables:   payables,
		Locker:     &fakeClaimer{},
		Queue:      queue,
		Recipients: []string{"finance@shop.test"},
		Interval:   time.Hour,
		WindowDays: 7,
		Now:        func() time.Time { return time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC) },
	}

	require.NoError(t, runReminder(context.Background(), cfg))
	require.NoError(t, runReminder(context.Background(), cfg))

	require.Len(t, queue.payloads, 1)
	p := queue.payloads[0].(*NotificationJobPayload)
	assert.Equal(t, reminderEvent, p.Event)
	assert.Equal(t, "Payables: 1 overdue, 1 due soon", p.Subject)
	assert.Contains(t, p.Body, "Rent")
	assert.Contains(t, p.Body, "150.50")
}

func TestBuildDigest_NothingDue(t *testing.T) {
	p, err := buildDigest(context.Background(), ReminderCronConfig{Payables: &fakePayables{}, WindowDays: 7})
	require.NoError(t, err)
	assert.Nil(t, p)
}

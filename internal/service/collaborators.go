package service

import (
	"context"
	"encoding/json"
	"time"

	"boutique/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// JobQueue is implemented by *worker.Dispatcher.
type JobQueue interface {
	EnqueueAudit(ctx context.Context, payload interface{}) error
	EnqueueNotification(ctx context.Context, payload interface{}) error
}

// Broadcaster pushes live events to connected dashboards (realtime.Hub).
type Broadcaster interface {
	Broadcast(event string, data interface{})
}

const enqueueTimeout = 2 * time.Second

// detached keeps request values but survives the request being cancelled,
// bounded by a short timeout.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
}

// ── Audit ────────────────────────────────────────────────────────────────────

// AuditRecord describes one change. Before and After are marshalled to JSON.
type AuditRecord struct {
	Entity   string
	EntityID string
	Action   string
	ActorID  *uuid.UUID
	Before   interface{}
	After    interface{}
}

// Auditor records changes after the unit of work commits. It never fails
// the caller.
type Auditor interface {
	Record(ctx context.Context, rec AuditRecord)
}

type auditor struct {
	queue JobQueue
	now   func() time.Time
}

// NewAuditor returns an Auditor that enqueues onto queue. A nil queue
// yields a no-op auditor.
func NewAuditor(queue JobQueue) Auditor {
	return &auditor{queue: queue, now: time.Now}
}

func (a *auditor) Record(ctx context.Context, rec AuditRecord) {
	if a.queue == nil {
		return
	}
	payload := worker.AuditJobPayload{
		Entity:     rec.Entity,
		EntityID:   rec.EntityID,
		Action:     rec.Action,
		ActorID:    rec.ActorID,
		Before:     snapshot(rec.Before),
		After:      snapshot(rec.After),
		OccurredAt: a.now(),
	}
	ctx, cancel := detached(ctx)
	defer cancel()
	if err := a.queue.EnqueueAudit(ctx, payload); err != nil {
		log.Warn().Err(err).Str("entity", rec.Entity).Str("entity_id", rec.EntityID).Msg("audit enqueue failed")
	}
}

func snapshot(v interface{}) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Msg("audit snapshot marshal failed")
		return nil
	}
	return b
}

// ── Notifications ────────────────────────────────────────────────────────────

// Notification events.
const (
	EventSessionOpened      = "session.opened"
	EventSessionClosed      = "session.closed"
	EventSessionApproved    = "session.approved"
	EventSessionRejected    = "session.rejected"
	EventEntryChanged       = "entry.changed"
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventAccountSettled     = "account.settled"
	EventClosingGenerated   = "closing.generated"
	EventClosingCancelled   = "closing.cancelled"
)

// Notification is one outbound message. Mail is sent only when Subject is
// set; every notification is broadcast.
type Notification struct {
	Event      string
	Subject    string
	Body       string
	Attachment string // file path, mailed along when set
	Data       interface{}
}

// Notifier informs collaborators of status transitions, fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type notifier struct {
	queue      JobQueue
	hub        Broadcaster
	recipients []string
	now        func() time.Time
}

// NewNotifier mails recipients through queue and broadcasts through hub.
// Either may be nil.
func NewNotifier(queue JobQueue, hub Broadcaster, recipients []string) Notifier {
	return &notifier{queue: queue, hub: hub, recipients: recipients, now: time.Now}
}

func (n *notifier) Notify(ctx context.Context, msg Notification) {
	if n.hub != nil {
		n.hub.Broadcast(msg.Event, msg.Data)
	}
	if n.queue == nil || msg.Subject == "" || len(n.recipients) == 0 {
		return
	}
	ctx, cancel := detached(ctx)
	defer cancel()
	err := n.queue.EnqueueNotification(ctx, worker.NotificationJobPayload{
		Event:      msg.Event,
		To:         n.recipients,
		Subject:    msg.Subject,
		Body:       msg.Body,
		Attachment: msg.Attachment,
		OccurredAt: n.now(),
	})
	if err != nil {
		log.Warn().Err(err).Str("event", msg.Event).Msg("notification enqueue failed")
	}
}

package worker

// notification_worker.go
// Delivers outbound notifications (session approvals/rejections, order status
// changes, payable digests) by email. Delivery goes through the SMTP circuit
// breaker, is retried with backoff and dead-lettered when it keeps failing.
// Failures never reach the request that produced the notification.

import (
	"context"
	"encoding/json"
	"time"

	"boutique/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const notificationMaxAttempts = 3

// NotificationJobPayload is the body of a JobNotification.
type NotificationJobPayload struct {
	Event      string    `json:"event"`
	To         []string  `json:"to"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	Attachment string    `json:"attachment,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Sender is implemented by infra.Mailer.
type Sender interface {
	Send(to []string, subject, body, attachmentPath string) error
}

type NotificationWorker struct {
	sender Sender
	cb     *infra.CircuitBreaker
	rdb    *redis.Client
}

func NewNotificationWorker(sender Sender, cb *infra.CircuitBreaker, rdb *redis.Client) *NotificationWorker {
	return &NotificationWorker{sender: sender, cb: cb, rdb: rdb}
}

func (w *NotificationWorker) Process(ctx context.Context, raw json.RawMessage) {
	var p NotificationJobPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Error().Err(err).Msg("notification_worker: invalid payload")
		SendToDLQ(ctx, w.rdb, QueueNotification, JobNotification, raw, "invalid payload: "+err.Error(), 0)
		return
	}
	if len(p.To) == 0 {
		log.Debug().Str("event", p.Event).Msg("notification_worker: no recipients, skipping")
		return
	}

	err := withRetry(ctx, notificationMaxAttempts, func(attempt int) error {
		return w.cb.Execute(func() error {
			return w.sender.Send(p.To, p.Subject, p.Body, p.Attachment)
		})
	})
	if err != nil {
		log.Error().Err(err).Str("event", p.Event).Strs("to", p.To).Msg("notification_worker: delivery failed")
		SendToDLQ(ctx, w.rdb, QueueNotification, JobNotification, raw, err.Error(), notificationMaxAttempts)
		return
	}
	log.Info().Str("event", p.Event).Int("recipients", len(p.To)).Msg("notification_worker: sent")
}

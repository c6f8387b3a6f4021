package worker

// reminder_cron.go
// Periodically mails finance a digest of payables due soon and overdue.
// Every instance runs the ticker; a Redis lease makes sure only one of them
// sends the digest per interval.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"boutique/internal/infra"
	"boutique/internal/model"
	"boutique/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	reminderLockKey = "lock:finance:payables-digest"
	reminderEvent   = "finance.payables_digest"
	digestPageLimit = 500
)

// Claimer is implemented by infra.Locker.
type Claimer interface {
	Claim(ctx context.Context, key string, ttl time.Duration) error
}

// NotificationQueue is implemented by Dispatcher.
type NotificationQueue interface {
	EnqueueNotification(ctx context.Context, payload interface{}) error
}

// ReminderCronConfig holds all dependencies for the reminder goroutine.
type ReminderCronConfig struct {
	Payables   repository.AccountRepository
	Locker     Claimer
	Queue      NotificationQueue
	Recipients []string
	Interval   time.Duration
	WindowDays int
	Location   *time.Location
	Now        func() time.Time
}

// StartReminderCron ticks every cfg.Interval until ctx is cancelled.
func StartReminderCron(ctx context.Context, cfg ReminderCronConfig) {
	if cfg.Interval <= 0 || len(cfg.Recipients) == 0 {
		log.Info().Msg("reminder_cron: disabled (no interval or recipients)")
		return
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("reminder_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("reminder_cron: shutting down")
				return
			case <-ticker.C:
				if err := runReminder(ctx, cfg); err != nil {
					log.Error().Err(err).Msg("reminder_cron: tick failed")
				}
			}
		}
	}()
}

func runReminder(ctx context.Context, cfg ReminderCronConfig) error {
	// lease slightly shorter than the interval so the next tick can claim it
	ttl := cfg.Interval - cfg.Interval/10
	if err := cfg.Locker.Claim(ctx, reminderLockKey, ttl); err != nil {
		if errors.Is(err, infra.ErrLockHeld) {
			log.Debug().Msg("reminder_cron: another instance owns this interval")
			return nil
		}
		return err
	}

	payload, err := buildDigest(ctx, cfg)
	if err != nil || payload == nil {
		return err
	}
	return cfg.Queue.EnqueueNotification(ctx, payload)
}

// buildDigest returns nil when nothing is due.
func buildDigest(ctx context.Context, cfg ReminderCronConfig) (*NotificationJobPayload, error) {
	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	local := now().In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	until := today.AddDate(0, 0, cfg.WindowDays)

	dueSoon, err := cfg.Payables.PendingDueBetween(ctx, today, until, nil)
	if err != nil {
		return nil, fmt.Errorf("due soon: %w", err)
	}
	overdue, _, err := cfg.Payables.List(ctx, repository.AccountFilter{
		Overdue: true,
		AsOf:    today,
		Page:    repository.Page{Limit: digestPageLimit},
	})
	if err != nil {
		return nil, fmt.Errorf("overdue: %w", err)
	}
	if len(dueSoon) == 0 && len(overdue) == 0 {
		return nil, nil
	}

	var b strings.Builder
	writeSection(&b, "Overdue", overdue)
	writeSection(&b, fmt.Sprintf("Due in the next %d days", cfg.WindowDays), dueSoon)

	return &NotificationJobPayload{
		Event:      reminderEvent,
		To:         cfg.Recipients,
		Subject:    fmt.Sprintf("Payables: %d overdue, %d due soon", len(overdue), len(dueSoon)),
		Body:       b.String(),
		OccurredAt: now(),
	}, nil
}

func writeSection(b *strings.Builder, title string, accounts []model.Account) {
	if len(accounts) == 0 {
		return
	}
	fmt.Fprintf(b, "%s (%d)\n", title, len(accounts))
	for _, a := range accounts {
		fmt.Fprintf(b, "  %s  %10s  %s\n", a.DueDate.Format("2006-01-02"), a.Amount.StringFixed(2), a.Description)
	}
	b.WriteString("\n")
}

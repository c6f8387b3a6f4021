package worker

import (
	"context"
	"encoding/json"
	"time"

	"boutique/internal/model"
	"boutique/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const auditMaxAttempts = 3

// AuditJobPayload is the body of a JobAudit. Before/After hold the JSON
// snapshots of the entity around the change.
type AuditJobPayload struct {
	Entity     string          `json:"entity"`
	EntityID   string          `json:"entity_id"`
	Action     string          `json:"action"`
	ActorID    *uuid.UUID      `json:"actor_id,omitempty"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// AuditWorker persists audit records off the request path.
type AuditWorker struct {
	repo repository.AuditRepository
	rdb  *redis.Client
}

func NewAuditWorker(repo repository.AuditRepository, rdb *redis.Client) *AuditWorker {
	return &AuditWorker{repo: repo, rdb: rdb}
}

func (w *AuditWorker) Process(ctx context.Context, raw json.RawMessage) {
	var p AuditJobPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Error().Err(err).Msg("audit_worker: invalid payload")
		SendToDLQ(ctx, w.rdb, QueueAudit, JobAudit, raw, "invalid payload: "+err.Error(), 0)
		return
	}

	entry := &model.AuditLog{
		Entity:    p.Entity,
		EntityID:  p.EntityID,
		Action:    p.Action,
		ActorID:   p.ActorID,
		Before:    jsonText(p.Before),
		After:     jsonText(p.After),
		CreatedAt: p.OccurredAt,
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	err := withRetry(ctx, auditMaxAttempts, func(attempt int) error {
		entry.ID = uuid.Nil
		return w.repo.Log(ctx, entry)
	})
	if err != nil {
		log.Error().Err(err).Str("entity", p.Entity).Str("entity_id", p.EntityID).Msg("audit_worker: persist failed")
		SendToDLQ(ctx, w.rdb, QueueAudit, JobAudit, raw, err.Error(), auditMaxAttempts)
	}
}

func jsonText(raw json.RawMessage) *string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	s := string(raw)
	return &s
}

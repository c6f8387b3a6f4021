package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	AuditCreate       = "create"
	AuditUpdate       = "update"
	AuditDelete       = "delete"
	AuditStatusChange = "status_change"
)

// AuditLog keeps a before/after record of engine writes.
type AuditLog struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Entity   string     `gorm:"type:varchar(40);not null;index:idx_audit_entity"`
	EntityID string     `gorm:"type:varchar(50);not null;index:idx_audit_entity"`
	Action   string     `gorm:"type:varchar(20);not null;index"`
	ActorID  *uuid.UUID `gorm:"type:uuid;index"`
	Before   *string    `gorm:"type:jsonb"`
	After    *string    `gorm:"type:jsonb"`
	// CreatedAt is the time of the change, not of the worker insert.
	CreatedAt time.Time `gorm:"index"`
}

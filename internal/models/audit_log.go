package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records who did what to which entity. ActorId is nil for
// system-initiated actions (scheduler, worker).
type AuditLog struct {
	ID         uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorId    *int           `gorm:"column:actor_id" json:"actor_id"`
	Action     string         `gorm:"column:action;size:100;not null;index" json:"action"`
	EntityType string         `gorm:"column:entity_type;size:50;not null;index:idx_audit_entity" json:"entity_type"`
	EntityId   uint           `gorm:"column:entity_id;not null;index:idx_audit_entity" json:"entity_id"`
	Metadata   datatypes.JSON `gorm:"column:metadata" json:"metadata"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

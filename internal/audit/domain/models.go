package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type ActorType string

const (
	ActorTypeStaff  ActorType = "staff"
	ActorTypeSystem ActorType = "system"
)

type AuditLog struct {
	ID           snowflake.ID      `gorm:"column:id;primaryKey" json:"id"`
	ActorType    string            `gorm:"column:actor_type" json:"actor_type"`
	ActorID      *string           `gorm:"column:actor_id" json:"actor_id,omitempty"`
	Action       string            `gorm:"column:action" json:"action"`
	ResourceType string            `gorm:"column:resource_type" json:"resource_type"`
	ResourceID   *string           `gorm:"column:resource_id" json:"resource_id,omitempty"`
	Metadata     datatypes.JSONMap `gorm:"column:metadata" json:"metadata,omitempty"`
	IPAddress    *string           `gorm:"column:ip_address" json:"ip_address,omitempty"`
	UserAgent    *string           `gorm:"column:user_agent" json:"user_agent,omitempty"`
	RequestID    *string           `gorm:"column:request_id" json:"request_id,omitempty"`
	CreatedAt    time.Time         `gorm:"column:created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

type AuditCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	Action       string
	ResourceType string
	ResourceID   string
	ActorType    string
	StartAt      *time.Time
	EndAt        *time.Time
	Cursor       *AuditCursor
	Limit        int
}

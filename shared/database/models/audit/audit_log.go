package audit

import (
	"time"

	"github.com/google/uuid"

	"classtrack-backend/shared/database/models"
)

// Audit actions written by the API
const (
	ActionLogin       = "login"
	ActionLoginFailed = "login_failed"
	ActionCreate      = "create"
	ActionComment     = "comment"
	ActionSoftDelete  = "soft_delete"
)

// AuditLog is an append-only record of a mutation or auth event. Rows are
// never updated or deleted.
type AuditLog struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ActorUserID *uuid.UUID     `json:"actorUserId,omitempty" gorm:"type:uuid;index"`
	Action      string         `json:"action" gorm:"size:50;not null;index"`
	Entity      string         `json:"entity" gorm:"size:50;not null;index"`
	EntityID    string         `json:"entityId" gorm:"size:100;index"`
	Changes     models.JSONMap `json:"changes,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time      `json:"createdAt" gorm:"autoCreateTime;index"`

	// Relations
	Actor *models.User `json:"actor,omitempty" gorm:"foreignKey:ActorUserID"`
}

// TableName returns the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}

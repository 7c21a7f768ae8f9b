package model

import (
	"encoding/json"
	"time"
)

// AuditLog rows are append-only; there is no soft delete and no update path.
type AuditLog struct {
	ID           uint            `gorm:"primarykey" json:"id"`
	UserID       *uint           `json:"user_id,omitempty" gorm:"index"`
	Action       string          `json:"action" gorm:"not null"` // "create_form", "submit_response", ...
	ResourceType string          `json:"resource_type,omitempty" gorm:"size:50"`
	ResourceID   uint            `json:"resource_id,omitempty"`
	Details      json.RawMessage `json:"details,omitempty" gorm:"type:jsonb"`
	IPAddress    string          `json:"ip_address,omitempty" gorm:"size:45"`
	UserAgent    string          `json:"user_agent,omitempty" gorm:"type:text"`
	CreatedAt    time.Time       `json:"created_at" gorm:"index"`
}

package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// FormTemplate holds a reusable section/question tree as jsonb. Instantiating
// a template copies the tree into fresh Form/Section/Question rows.
type FormTemplate struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	Name        string          `json:"name" gorm:"not null"`
	Description string          `json:"description,omitempty" gorm:"type:text"`
	IsPublic    bool            `json:"is_public" gorm:"not null;default:false"`
	CreatedBy   uint            `json:"created_by" gorm:"not null;index"`
	Content     json.RawMessage `json:"content" gorm:"type:jsonb;not null"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

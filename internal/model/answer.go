package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Answer is the normalized, immutable value stored for one question within a
// committed response. Scalar values (text, email, choice, ISO dates) live in
// Text; structured values (numbers, ratings, multi-choice lists, file
// metadata) live in Value as jsonb.
type Answer struct {
	ID         uint            `gorm:"primarykey" json:"id"`
	ResponseID uint            `json:"response_id" gorm:"not null;index"`
	QuestionID uint            `json:"question_id" gorm:"not null;index"`
	Text       *string         `json:"text,omitempty" gorm:"type:text"`
	Value      json.RawMessage `json:"value,omitempty" gorm:"type:jsonb"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`
}

// FileMeta is the declared metadata stored for file answers. The blob itself
// lives in object storage under StorageKey.
type FileMeta struct {
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type,omitempty"`
	StorageKey  string `json:"storage_key,omitempty"`
}

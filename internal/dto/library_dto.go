package dto

import (
	"encoding/json"
	"time"
)

type LibraryQuestionDTO struct {
	ID        uint            `json:"id"`
	Text      string          `json:"text"`
	Type      string          `json:"type"`
	Required  bool            `json:"required"`
	IsPublic  bool            `json:"is_public"`
	CreatedBy uint            `json:"created_by"`
	Options   []string        `json:"options,omitempty"`
	Rules     json.RawMessage `json:"rules,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type LibraryQuestionCreateDTO struct {
	Text     string          `json:"text" binding:"required"`
	Type     string          `json:"type" binding:"required"`
	Required bool            `json:"required"`
	IsPublic bool            `json:"is_public"`
	Options  []string        `json:"options"`
	Rules    json.RawMessage `json:"rules"`
}

package dto

import (
	"encoding/json"
	"time"
)

type TemplateDTO struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	IsPublic    bool            `json:"is_public"`
	CreatedBy   uint            `json:"created_by"`
	Content     json.RawMessage `json:"content,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TemplateCreateDTO creates a template either from an existing form
// (FromFormID set) or from a raw section/question tree (Content set).
type TemplateCreateDTO struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	IsPublic    bool            `json:"is_public"`
	FromFormID  *uint           `json:"from_form_id"`
	Content     json.RawMessage `json:"content"`
}

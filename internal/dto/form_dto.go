package dto

import (
	"encoding/json"
	"time"
)

// --- Public (respondent-facing) views ---

type QuestionDTO struct {
	ID       uint            `json:"id"`
	Type     string          `json:"type"`
	Text     string          `json:"text"`
	Required bool            `json:"required"`
	Order    int             `json:"order"`
	Options  []string        `json:"options,omitempty"`
	Rules    json.RawMessage `json:"rules,omitempty"`
}

type SectionDTO struct {
	ID          uint          `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Order       int           `json:"order"`
	Questions   []QuestionDTO `json:"questions"`
}

type FormDTO struct {
	ID          uint         `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      string       `json:"status"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
	Sections    []SectionDTO `json:"sections"`
}

// --- Owner-facing requests ---

type FormCreateDTO struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type FormSettingsDTO struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	ResponseLimit *int       `json:"response_limit" binding:"omitempty,min=0"`
	ExpiresAt     *time.Time `json:"expires_at"`
}

// QuestionInputDTO carries one question of a structure update. A nil ID means
// a new question; a set ID must reference an existing question of the form.
type QuestionInputDTO struct {
	ID       *uint           `json:"id"`
	Type     string          `json:"type" binding:"required"`
	Text     string          `json:"text" binding:"required"`
	Required bool            `json:"required"`
	Order    int             `json:"order"`
	Options  []string        `json:"options"`
	Rules    json.RawMessage `json:"rules"`
}

type SectionInputDTO struct {
	ID          *uint              `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Order       int                `json:"order"`
	Questions   []QuestionInputDTO `json:"questions" binding:"dive"`
}

type FormStructureDTO struct {
	Sections []SectionInputDTO `json:"sections" binding:"required,dive"`
}

// --- Owner-facing views ---

type FormSummaryDTO struct {
	ID            uint       `json:"id"`
	Title         string     `json:"title"`
	Status        string     `json:"status"`
	ResponseCount int        `json:"response_count"`
	ResponseLimit int        `json:"response_limit"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type FormDetailDTO struct {
	ID            uint         `json:"id"`
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	Status        string       `json:"status"`
	CreatedBy     uint         `json:"created_by"`
	ResponseCount int          `json:"response_count"`
	ResponseLimit int          `json:"response_limit"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty"`
	PublishedAt   *time.Time   `json:"published_at,omitempty"`
	Sections      []SectionDTO `json:"sections"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	FormStatusDraft     = "draft"
	FormStatusPublished = "published"
	FormStatusArchived  = "archived"
)

type Form struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Title       string         `json:"title" gorm:"not null"`
	Description string         `json:"description,omitempty" gorm:"type:text"`
	Status      string         `json:"status" gorm:"not null;default:'draft';index"` // "draft", "published", "archived"
	CreatedBy   uint           `json:"created_by" gorm:"not null;index"`
	TemplateID  *uint          `json:"template_id,omitempty"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`

	// Submission window settings. A zero ResponseLimit means unlimited; a nil
	// ExpiresAt means the form never expires. ResponseCount is only ever moved
	// by the conditional update that claims a submission slot.
	ResponseLimit int        `json:"response_limit" gorm:"not null;default:0"`
	ResponseCount int        `json:"response_count" gorm:"not null;default:0"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`

	Sections  []Section      `json:"sections,omitempty" gorm:"foreignKey:FormID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// AcceptsSubmissions reports whether the form is inside its submission window
// at the given instant. The persistence layer re-checks the same conditions
// atomically at commit time; this is only for early rejection.
func (f *Form) AcceptsSubmissions(now time.Time) bool {
	if f.Status != FormStatusPublished {
		return false
	}
	if f.ResponseLimit > 0 && f.ResponseCount >= f.ResponseLimit {
		return false
	}
	if f.ExpiresAt != nil && !now.Before(*f.ExpiresAt) {
		return false
	}
	return true
}

// Questions returns every question of the form in section order then
// question order, assuming Sections were loaded ordered.
func (f *Form) Questions() []Question {
	var questions []Question
	for _, s := range f.Sections {
		questions = append(questions, s.Questions...)
	}
	return questions
}

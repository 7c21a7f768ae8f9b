package model

import (
	"time"

	"gorm.io/gorm"
)

type Response struct {
	ID     uint  `gorm:"primarykey" json:"id"`
	FormID uint  `json:"form_id" gorm:"not null;index;uniqueIndex:idx_responses_form_token"`
	UserID *uint `json:"user_id,omitempty" gorm:"index"`

	// SubmissionToken is the client-supplied (or server-generated) idempotency
	// key. The composite unique index makes a retried commit fail instead of
	// producing a second response for the same form.
	SubmissionToken string `json:"submission_token" gorm:"not null;uniqueIndex:idx_responses_form_token"`

	IPAddress   string         `json:"ip_address,omitempty" gorm:"size:45"`
	UserAgent   string         `json:"user_agent,omitempty" gorm:"type:text"`
	SubmittedAt time.Time      `json:"submitted_at" gorm:"autoCreateTime;index"`
	Answers     []Answer       `json:"answers,omitempty" gorm:"foreignKey:ResponseID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

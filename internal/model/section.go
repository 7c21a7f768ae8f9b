package model

import (
	"time"

	"gorm.io/gorm"
)

type Section struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	FormID      uint           `json:"form_id" gorm:"not null;index"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty" gorm:"type:text"`
	Order       int            `json:"order" gorm:"not null;default:0"`
	Questions   []Question     `json:"questions,omitempty" gorm:"foreignKey:SectionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin      = "admin"
	RoleCreator    = "creator"
	RoleAnalyst    = "analyst"
	RoleRespondent = "respondent"
)

type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Username     string         `json:"username" gorm:"not null;uniqueIndex"`
	Email        string         `json:"email" gorm:"not null;uniqueIndex"`
	PasswordHash string         `json:"-" gorm:"not null"`
	Role         string         `json:"role" gorm:"not null;default:'creator'"` // "admin", "creator", "analyst", "respondent"
	IsActive     bool           `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) CanCreateForms() bool {
	return u.Role == RoleAdmin || u.Role == RoleCreator
}

func (u *User) CanViewResponses() bool {
	return u.Role == RoleAdmin || u.Role == RoleCreator || u.Role == RoleAnalyst
}

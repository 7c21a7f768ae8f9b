package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// LibraryQuestion is a reusable question kept outside any form. Creators pick
// entries from the library when building a form; public entries are visible
// to every creator, private ones only to their owner.
type LibraryQuestion struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	Text      string          `json:"text" gorm:"type:text;not null"`
	Type      QuestionType    `json:"type" gorm:"not null"`
	Required  bool            `json:"required" gorm:"not null;default:false"`
	IsPublic  bool            `json:"is_public" gorm:"not null;default:false"`
	CreatedBy uint            `json:"created_by" gorm:"not null;index"`
	Options   json.RawMessage `json:"options,omitempty" gorm:"type:jsonb"`
	Rules     json.RawMessage `json:"rules,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (LibraryQuestion) TableName() string { return "question_library" }

// OptionValues decodes the jsonb option list. Nil for questions without options.
func (q *LibraryQuestion) OptionValues() ([]string, error) {
	if len(q.Options) == 0 {
		return nil, nil
	}
	var options []string
	if err := json.Unmarshal(q.Options, &options); err != nil {
		return nil, err
	}
	return options, nil
}

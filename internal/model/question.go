package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionShortText    QuestionType = "short_text"
	QuestionLongText     QuestionType = "long_text"
	QuestionSingleChoice QuestionType = "single_choice"
	QuestionMultiChoice  QuestionType = "multi_choice"
	QuestionDropdown     QuestionType = "dropdown"
	QuestionRating       QuestionType = "rating"
	QuestionFile         QuestionType = "file"
	QuestionDate         QuestionType = "date"
	QuestionEmail        QuestionType = "email"
	QuestionNumber       QuestionType = "number"
)

// QuestionTypes lists every supported type, for request validation.
var QuestionTypes = []QuestionType{
	QuestionShortText, QuestionLongText, QuestionSingleChoice, QuestionMultiChoice,
	QuestionDropdown, QuestionRating, QuestionFile, QuestionDate, QuestionEmail, QuestionNumber,
}

func (t QuestionType) Valid() bool {
	for _, known := range QuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// HasOptions reports whether the type draws its answers from a fixed option list.
func (t QuestionType) HasOptions() bool {
	return t == QuestionSingleChoice || t == QuestionMultiChoice || t == QuestionDropdown
}

type Question struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	SectionID uint            `json:"section_id" gorm:"not null;index"`
	Type      QuestionType    `json:"type" gorm:"not null"`
	Text      string          `json:"text" gorm:"type:text;not null"`
	Required  bool            `json:"required" gorm:"not null;default:false"`
	Order     int             `json:"order" gorm:"not null;default:0"`
	Options   json.RawMessage `json:"options,omitempty" gorm:"type:jsonb"` // ordered list of allowed values, choice types only
	Rules     json.RawMessage `json:"rules,omitempty" gorm:"type:jsonb"`   // per-type validation rules, see rules.go
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

// OptionValues decodes the jsonb option list. Nil for questions without options.
func (q *Question) OptionValues() ([]string, error) {
	if len(q.Options) == 0 {
		return nil, nil
	}
	var options []string
	if err := json.Unmarshal(q.Options, &options); err != nil {
		return nil, err
	}
	return options, nil
}

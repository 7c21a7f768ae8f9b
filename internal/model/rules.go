package model

import "encoding/json"

// Validation rules are stored per question as jsonb and decoded into the
// struct matching the question's type. Unknown keys are ignored so a rules
// payload written for one type never breaks another.

type TextRules struct {
	MinLength *int `json:"min_length,omitempty"`
	MaxLength *int `json:"max_length,omitempty"`
}

type NumberRules struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

type RatingRules struct {
	Min *int `json:"min,omitempty"` // default 1
	Max *int `json:"max,omitempty"` // default 5
}

type DateRules struct {
	Min string `json:"min,omitempty"` // inclusive, "2006-01-02"
	Max string `json:"max,omitempty"` // inclusive, "2006-01-02"
}

type FileRules struct {
	MaxSizeBytes      int64    `json:"max_size_bytes,omitempty"`
	AllowedExtensions []string `json:"allowed_extensions,omitempty"` // lowercase, without the dot
}

func (q *Question) TextRules() (TextRules, error) {
	var r TextRules
	return r, decodeRules(q.Rules, &r)
}

func (q *Question) NumberRules() (NumberRules, error) {
	var r NumberRules
	return r, decodeRules(q.Rules, &r)
}

func (q *Question) RatingRules() (RatingRules, error) {
	var r RatingRules
	return r, decodeRules(q.Rules, &r)
}

func (q *Question) DateRules() (DateRules, error) {
	var r DateRules
	return r, decodeRules(q.Rules, &r)
}

func (q *Question) FileRules() (FileRules, error) {
	var r FileRules
	return r, decodeRules(q.Rules, &r)
}

// CheckRules verifies the stored rules payload decodes for the question's
// type. Types without rule structs accept any payload.
func (q *Question) CheckRules() error {
	var err error
	switch q.Type {
	case QuestionShortText, QuestionLongText, QuestionEmail:
		_, err = q.TextRules()
	case QuestionNumber:
		_, err = q.NumberRules()
	case QuestionRating:
		_, err = q.RatingRules()
	case QuestionDate:
		_, err = q.DateRules()
	case QuestionFile:
		_, err = q.FileRules()
	}
	return err
}

func decodeRules(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

package dto

import (
	"encoding/json"
	"time"
)

type AnswerDTO struct {
	QuestionID   uint            `json:"question_id"`
	QuestionText string          `json:"question_text,omitempty"`
	QuestionType string          `json:"question_type,omitempty"`
	Text         *string         `json:"text,omitempty"`
	Value        json.RawMessage `json:"value,omitempty"`
}

type ResponseSummaryDTO struct {
	ID          uint      `json:"id"`
	FormID      uint      `json:"form_id"`
	UserID      *uint     `json:"user_id,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	AnswerCount int       `json:"answer_count"`
}

type ResponseDetailDTO struct {
	ID          uint        `json:"id"`
	FormID      uint        `json:"form_id"`
	UserID      *uint       `json:"user_id,omitempty"`
	IPAddress   string      `json:"ip_address,omitempty"`
	UserAgent   string      `json:"user_agent,omitempty"`
	SubmittedAt time.Time   `json:"submitted_at"`
	Answers     []AnswerDTO `json:"answers"`
}

type ResponsePageDTO struct {
	Items   []ResponseSummaryDTO `json:"items"`
	Total   int64                `json:"total"`
	Page    int                  `json:"page"`
	PerPage int                  `json:"per_page"`
}

// QuestionSummaryDTO is the per-question aggregation of a form's responses:
// option counts for choice questions, average plus distribution for ratings,
// a bare answered-count for everything else.
type QuestionSummaryDTO struct {
	QuestionID    uint           `json:"question_id"`
	QuestionText  string         `json:"question_text"`
	QuestionType  string         `json:"question_type"`
	Answered      int            `json:"answered"`
	OptionCounts  map[string]int `json:"option_counts,omitempty"`
	AverageRating *float64       `json:"average_rating,omitempty"`
}

type FormSummaryStatsDTO struct {
	FormID          uint                 `json:"form_id"`
	ResponseCount   int64                `json:"response_count"`
	Questions       []QuestionSummaryDTO `json:"questions"`
	ResponsesPerDay map[string]int       `json:"responses_per_day,omitempty"`
}

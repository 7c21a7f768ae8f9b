package dto

import "time"

// SubmittedAnswerDTO is one raw, unvalidated answer. Value is whatever JSON
// the client sent: string, number, list of strings, or file metadata object.
type SubmittedAnswerDTO struct {
	QuestionID uint `json:"question_id" binding:"required"`
	Value      any  `json:"value"`
}

type SubmitFormDTO struct {
	// SubmissionToken is an optional client-generated idempotency key. A
	// resubmission with the same token returns the original response instead
	// of committing a duplicate.
	SubmissionToken string               `json:"submission_token"`
	Answers         []SubmittedAnswerDTO `json:"answers" binding:"dive"`
}

// RequestMeta carries opaque request context the pipeline only passes through
// to the stored response and the audit log.
type RequestMeta struct {
	UserID    *uint
	IPAddress string
	UserAgent string
}

type SubmitResultDTO struct {
	ResponseID  uint      `json:"response_id"`
	SubmittedAt time.Time `json:"submitted_at"`
	// Duplicate is true when the submission token matched an already
	// committed response and nothing new was persisted.
	Duplicate bool `json:"duplicate,omitempty"`
}

// UploadResultDTO is returned by the file upload endpoint; clients echo it
// back as the value of a file answer.
type UploadResultDTO struct {
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type,omitempty"`
	StorageKey  string `json:"storage_key"`
}

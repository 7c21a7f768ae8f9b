package dto

// FailureKind identifies why a single answer was rejected. Validation
// failures are returned to the caller as data, one entry per bad field,
// never as opaque errors.
type FailureKind string

const (
	FailureRequiredFieldMissing FailureKind = "required_field_missing"
	FailureTypeMismatch         FailureKind = "type_mismatch"
	FailureInvalidOption        FailureKind = "invalid_option"
	FailureOutOfRange           FailureKind = "out_of_range"
	FailureLengthViolation      FailureKind = "length_violation"
	FailureFormatInvalid        FailureKind = "format_invalid"
	FailureFileRejected         FailureKind = "file_rejected"
	FailureUnknownQuestion      FailureKind = "unknown_question"
	FailureDuplicateAnswer      FailureKind = "duplicate_answer"
)

type FieldError struct {
	QuestionID uint        `json:"question_id"`
	Kind       FailureKind `json:"failure_kind"`
	Message    string      `json:"message"`
}

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// ValidationErrorResponse is the 422 body for rejected submissions.
type ValidationErrorResponse struct {
	Message  string       `json:"message"`
	Failures []FieldError `json:"failures"`
}

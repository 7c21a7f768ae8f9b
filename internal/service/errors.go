package service

import (
	"errors"
	"fmt"

	"github.com/lshigami/Bowerbirds/internal/dto"
)

var (
	ErrFormNotFound            = errors.New("form not found")
	ErrFormNotPublished        = errors.New("form is not published")
	ErrSubmissionWindowClosed  = errors.New("form is not accepting submissions")
	ErrFormLocked              = errors.New("form already has responses, structure is locked")
	ErrResponseNotFound        = errors.New("response not found")
	ErrTemplateNotFound        = errors.New("template not found")
	ErrLibraryQuestionNotFound = errors.New("library question not found")
	ErrForbidden               = errors.New("operation not allowed for this user")
	ErrEmailTaken              = errors.New("email or username already registered")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrStorageFailure          = errors.New("storage failure")
)

// ValidationError aggregates every per-question failure of one submission.
// It crosses the pipeline boundary as data: callers unpack Failures, they
// never branch on the message.
type ValidationError struct {
	Failures []dto.FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("submission rejected: %d invalid field(s)", len(e.Failures))
}

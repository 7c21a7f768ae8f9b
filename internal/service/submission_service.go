package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lshigami/Bowerbirds/internal/dto"
	"github.com/lshigami/Bowerbirds/internal/model"
	"github.com/lshigami/Bowerbirds/internal/monitoring"
	"github.com/lshigami/Bowerbirds/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// SubmissionService runs the full intake pipeline for one submission: load
// the schema, validate every answer against it, and persist the response with
// all its answers atomically. A submission either commits completely or
// leaves no trace.
type SubmissionService interface {
	Submit(formID uint, req dto.SubmitFormDTO, meta dto.RequestMeta) (*dto.SubmitResultDTO, error)
}

type submissionService struct {
	formService  FormService
	validator    AnswerValidator
	responseRepo repository.ResponseRepository
	auditRepo    repository.AuditRepository
}

func NewSubmissionService(
	formService FormService,
	validator AnswerValidator,
	responseRepo repository.ResponseRepository,
	auditRepo repository.AuditRepository,
) SubmissionService {
	return &submissionService{
		formService:  formService,
		validator:    validator,
		responseRepo: responseRepo,
		auditRepo:    auditRepo,
	}
}

func (s *submissionService) Submit(formID uint, req dto.SubmitFormDTO, meta dto.RequestMeta) (*dto.SubmitResultDTO, error) {
	form, err := s.formService.LoadSchema(formID, true)
	if err != nil {
		if errors.Is(err, ErrFormNotPublished) {
			monitoring.SubmissionCounter.WithLabelValues("closed").Inc()
		}
		return nil, err
	}
	// Early window check for a fast rejection; the commit transaction
	// re-checks the same conditions atomically.
	if !form.AcceptsSubmissions(time.Now().UTC()) {
		monitoring.SubmissionCounter.WithLabelValues("closed").Inc()
		return nil, ErrSubmissionWindowClosed
	}

	answers, failures := s.assemble(form, req.Answers)
	if len(failures) > 0 {
		for _, failure := range failures {
			monitoring.ValidationFailureCounter.WithLabelValues(string(failure.Kind)).Inc()
		}
		monitoring.SubmissionCounter.WithLabelValues("rejected").Inc()
		return nil, &ValidationError{Failures: failures}
	}

	token := req.SubmissionToken
	if token == "" {
		token = uuid.NewString()
	} else if existing, err := s.responseRepo.FindByFormAndToken(formID, token); err == nil {
		monitoring.SubmissionCounter.WithLabelValues("duplicate").Inc()
		return duplicateResult(existing), nil
	}

	response := &model.Response{
		FormID:          formID,
		UserID:          meta.UserID,
		SubmissionToken: token,
		IPAddress:       meta.IPAddress,
		UserAgent:       meta.UserAgent,
		Answers:         answers,
	}
	if err := s.responseRepo.Commit(response); err != nil {
		switch {
		case errors.Is(err, repository.ErrSubmissionClosed):
			monitoring.SubmissionCounter.WithLabelValues("closed").Inc()
			return nil, ErrSubmissionWindowClosed
		case errors.Is(err, gorm.ErrDuplicatedKey):
			// Two retries raced past the pre-check; the unique index on
			// (form_id, submission_token) caught the second one.
			if existing, findErr := s.responseRepo.FindByFormAndToken(formID, token); findErr == nil {
				monitoring.SubmissionCounter.WithLabelValues("duplicate").Inc()
				return duplicateResult(existing), nil
			}
			monitoring.SubmissionCounter.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		default:
			monitoring.SubmissionCounter.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}
	}

	monitoring.SubmissionCounter.WithLabelValues("accepted").Inc()
	s.audit(form, response, meta)
	return &dto.SubmitResultDTO{ResponseID: response.ID, SubmittedAt: response.SubmittedAt}, nil
}

// assemble validates the whole submission and collects every failure rather
// than stopping at the first, so respondents can fix their submission in one
// round trip. On success the returned answers follow schema display order.
func (s *submissionService) assemble(form *model.Form, submitted []dto.SubmittedAnswerDTO) ([]model.Answer, []dto.FieldError) {
	questions := form.Questions()
	byID := make(map[uint]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	var failures []dto.FieldError
	validated := make(map[uint]*model.Answer, len(submitted))
	failed := make(map[uint]bool)
	// Seen is tracked separately from validated and failed: an omitted
	// optional answer produces neither, but still counts as an occurrence.
	seen := make(map[uint]bool, len(submitted))

	for _, raw := range submitted {
		question, known := byID[raw.QuestionID]
		if !known {
			failures = append(failures, dto.FieldError{
				QuestionID: raw.QuestionID,
				Kind:       dto.FailureUnknownQuestion,
				Message:    "question does not belong to this form",
			})
			continue
		}
		if seen[raw.QuestionID] {
			failures = append(failures, dto.FieldError{
				QuestionID: raw.QuestionID,
				Kind:       dto.FailureDuplicateAnswer,
				Message:    "question was answered more than once",
			})
			continue
		}
		seen[raw.QuestionID] = true
		answer, failure := s.validator.Validate(question, raw.Value)
		if failure != nil {
			failed[raw.QuestionID] = true
			failures = append(failures, *failure)
			continue
		}
		if answer != nil {
			validated[raw.QuestionID] = answer
		}
	}

	// Required questions the submission never mentioned fail the same way as
	// ones answered with an empty value.
	for i := range questions {
		question := &questions[i]
		if !question.Required {
			continue
		}
		if _, ok := validated[question.ID]; ok {
			continue
		}
		if failed[question.ID] {
			continue
		}
		failures = append(failures, dto.FieldError{
			QuestionID: question.ID,
			Kind:       dto.FailureRequiredFieldMissing,
			Message:    "an answer is required",
		})
	}

	if len(failures) > 0 {
		return nil, failures
	}

	answers := make([]model.Answer, 0, len(validated))
	for i := range questions {
		if answer, ok := validated[questions[i].ID]; ok {
			answers = append(answers, *answer)
		}
	}
	return answers, nil
}

func (s *submissionService) audit(form *model.Form, response *model.Response, meta dto.RequestMeta) {
	details, _ := json.Marshal(map[string]any{
		"form_id":     form.ID,
		"response_id": response.ID,
		"answers":     len(response.Answers),
	})
	entry := &model.AuditLog{
		UserID:       meta.UserID,
		Action:       "submit_response",
		ResourceType: "response",
		ResourceID:   response.ID,
		Details:      details,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
	}
	// Auditing is best effort; a failed audit write never fails the submission.
	if err := s.auditRepo.Record(entry); err != nil {
		log.Warn().Err(err).Uint("response_id", response.ID).Msg("failed to record audit entry")
	}
}

func duplicateResult(existing *model.Response) *dto.SubmitResultDTO {
	return &dto.SubmitResultDTO{
		ResponseID:  existing.ID,
		SubmittedAt: existing.SubmittedAt,
		Duplicate:   true,
	}
}

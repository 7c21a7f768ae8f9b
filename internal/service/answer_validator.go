package service

import (
	"encoding/json"
	"fmt"
	"math"
	"net/mail"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lshigami/Bowerbirds/config"
	"github.com/lshigami/Bowerbirds/internal/dto"
	"github.com/lshigami/Bowerbirds/internal/model"
)

const (
	defaultMaxFileBytes = int64(16 << 20)
	defaultRatingMin    = 1
	defaultRatingMax    = 5
	dateLayout          = "2006-01-02"
)

// AnswerValidator checks one raw submitted value against one question
// definition and produces the normalized value to store. It is pure: no
// storage access, no side effects, so validating the same input twice yields
// the same result.
type AnswerValidator interface {
	// Validate returns the normalized answer, or a field error, or (nil, nil)
	// when an optional question was left unanswered.
	Validate(q *model.Question, raw any) (*model.Answer, *dto.FieldError)
}

type answerValidator struct {
	maxFileBytes int64
}

func NewAnswerValidator(cfg *config.Config) AnswerValidator {
	maxBytes := cfg.Submission.MaxFileBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxFileBytes
	}
	return &answerValidator{maxFileBytes: maxBytes}
}

func (v *answerValidator) Validate(q *model.Question, raw any) (*model.Answer, *dto.FieldError) {
	// Presence first: an absent optional answer is fine and produces no row,
	// an absent required answer fails before any type checking.
	if isAbsent(raw) {
		if q.Required {
			return nil, fail(q, dto.FailureRequiredFieldMissing, "an answer is required")
		}
		return nil, nil
	}

	switch q.Type {
	case model.QuestionShortText, model.QuestionLongText:
		return v.validateText(q, raw)
	case model.QuestionEmail:
		return v.validateEmail(q, raw)
	case model.QuestionNumber:
		return v.validateNumber(q, raw)
	case model.QuestionRating:
		return v.validateRating(q, raw)
	case model.QuestionDate:
		return v.validateDate(q, raw)
	case model.QuestionSingleChoice, model.QuestionDropdown:
		return v.validateChoice(q, raw)
	case model.QuestionMultiChoice:
		return v.validateMultiChoice(q, raw)
	case model.QuestionFile:
		return v.validateFile(q, raw)
	}
	return nil, fail(q, dto.FailureTypeMismatch, fmt.Sprintf("unsupported question type %q", q.Type))
}

func (v *answerValidator) validateText(q *model.Question, raw any) (*model.Answer, *dto.FieldError) {
	text, ok := raw.(string)
	if !ok {
		return nil, fail(q, dto.FailureTypeMismatch, "expected a text value")
	}
	rules, err := q.TextRules()
	if err != nil {
		return nil, fail(q, dto.FailureFormatInvalid, "question has malformed validation rules")
	}
	length := utf8.RuneCountInString(text)
	if rules.MinLength != nil && length < *rules.MinLength {
		return nil, fail(q, dto.FailureLengthViolation, fmt.Sprintf("must be at least %d characters", *rules.MinLength))
	}
	if rules.MaxLength != nil && length > *rules.MaxLength {
		return nil, fail(q, dto.FailureLengthViolation, fmt.Sprintf("must be at most %d characters", *rules.MaxLength))
	}
	return textAnswer(q, text), nil
}

func (v *answerValidator) validateEmail(q *model.Question, raw any) (*model.Answer, *dto.FieldError) {
	text, ok := raw.(string)
	if !ok {
		return nil, fail(q, dto.FailureTypeMismatch, "expected an email address")
	}
	addr, err := mail.ParseAddress(text)
	// Reject display-name forms like "Jane <jane@example.com>"; only the bare
	// address is a valid answer.
	if err != nil || addr.Name != "" || addr.Address != text {
		return nil, fail(q, dto.FailureFormatInvalid, "not a valid email address")
	}
	return textAnswer(q, text), nil
}

func (v *answerValidator) validateNumber(q *model.Question, raw any) (*model.Answer, *dto.FieldError) {
	number, ok := toFloat(raw)
	if !ok {
		return nil, fail(q, dto.FailureTypeMismatch, "expected a number")
	}
	rules, err := q.NumberRules()
	if err != nil {
		return nil, fail(q, dto.FailureFormatInvalid, "question has malformed validation rules")
	}
	if rules.Min != nil && number < *rules.Min {
		return nil, fail(q, dto.FailureOutOfRange, fmt.Sprintf("must be at least %v", *rules.Min))
	}
	if rules.Max != nil && number > *rules.Max {
		return nil, fail(q, dto.FailureOutOfRange, fmt.Sprintf("must be at most %v", *rules.Max))
	}
	return valueAnswer(q, number)
}

func (v *answerValidator) validateRating(q *model.Question, raw any) (*model.Answer, *dto.FieldError) {
	number, ok := toFloat(raw)
	if !ok || math.Trunc(number) != number {
		return nil, fail(q, dto.FailureTypeMismatch, "expected an integer rating")
	}
	rating := int(number)

	rules, err := q.RatingRules()
	if err != nil {
		return nil, fail(q, dto.FailureFormatInvalid, "question has malformed validation rules")
	}
	minRating, maxRating := defaultRatingMin, defaultRatingMax
	if rules.Min != nil {
		minRating = *rules.Min
	}
	if rules.Max != nil {
		maxRating = *rules.Max
	}
	if rating < minRating || rating > maxRating {
		return nil, fail(q, dto.FailureOutOfRange, fmt.Sprintf("rating must be between %d and %d", minRating, maxRating))
	}
	return valueAnswer(q, rating)
}

func (v *answerValidator) validateDate(q *model.Question, raw any) (*model.Answer, *dto.FieldError) {
	text, ok := raw.(string)
	if !ok {
		return nil, fail(q, dto.FailureTypeMismatch, "expected a date string")
	}
	date, err := time.Parse(dateLayout, text)
	if err != nil {
		return nil, fail(q, dto.FailureFormatInvalid, "expected a date in YYYY-MM-DD format")
	}
	rules, rulesErr := q.DateRules()
	if rulesErr != nil {
		return nil, fail(q, dto.FailureFormatInvalid, "question has malformed validation rules")
	}
	if rules.Min != "" {
		if minDate, err := time.Parse(dateLayout, rules.Min); err == nil && date.Before(minDate) {
			return nil, fail(q, dto.FailureOutOfRange, fmt.Sprintf("date must not be before %s", rules.Min))
		}
	}
	if rules.Max != "" {
		if maxDate, err := time.Parse(dateLayout, rules.Max); err == nil && date.After(maxDate) {
			return nil, fail(q, dto.FailureOutOfRange, fmt.Sprintf("date must not be after %s", rules.Max))
		}
	}
	return textAnswer(q, date.Format(dateLayout)), nil
}

func (v *answerValidator) validateChoice(q *model.Question, raw any) (*model.Answer, *dto.FieldError) {
	choice, ok := raw.(string)
	if !ok {
		return nil, fail(q, dto.FailureTypeMismatch, "expected a single option value")
	}
	options, err := q.OptionValues()
	if err != nil {
		return nil, fail(q, dto.FailureFormatInvalid, "question has malformed options")
	}
	for _, option := range options {
		if choice == option {
			return textAnswer(q, choice), nil
		}
	}
	return nil, fail(q, dto.FailureInvalidOption, fmt.Sprintf("%q is not one of the allowed options", choice))
}

func (v *answerValidator) validateMultiChoice(q *model.Question, raw any) (*model.Answer, *dto.FieldError) {
	var selected []string
	switch value := raw.(type) {
	case string:
		selected = []string{value}
	case []any:
		for _, element := range value {
			text, ok := element.(string)
			if !ok {
				return nil, fail(q, dto.FailureTypeMismatch, "expected a list of option values")
			}
			selected = append(selected, text)
		}
	case []string:
		selected = value
	default:
		return nil, fail(q, dto.FailureTypeMismatch, "expected a list of option values")
	}

	options, err := q.OptionValues()
	if err != nil {
		return nil, fail(q, dto.FailureFormatInvalid, "question has malformed options")
	}
	allowed := make(map[string]bool, len(options))
	for _, option := range options {
		allowed[option] = true
	}
	chosen := make(map[string]bool, len(selected))
	for _, choice := range selected {
		if !allowed[choice] {
			return nil, fail(q, dto.FailureInvalidOption, fmt.Sprintf("%q is not one of the allowed options", choice))
		}
		chosen[choice] = true
	}

	// Normalize to the option list order regardless of submission order, and
	// drop duplicates, so stored lists compare and export deterministically.
	normalized := make([]string, 0, len(chosen))
	for _, option := range options {
		if chosen[option] {
			normalized = append(normalized, option)
		}
	}
	return valueAnswer(q, normalized)
}

func (v *answerValidator) validateFile(q *model.Question, raw any) (*model.Answer, *dto.FieldError) {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fail(q, dto.FailureTypeMismatch, "expected file metadata")
	}
	var meta model.FileMeta
	if err := json.Unmarshal(encoded, &meta); err != nil || meta.Filename == "" || meta.Size <= 0 {
		return nil, fail(q, dto.FailureTypeMismatch, "expected file metadata with filename and size")
	}

	rules, rulesErr := q.FileRules()
	if rulesErr != nil {
		return nil, fail(q, dto.FailureFormatInvalid, "question has malformed validation rules")
	}
	maxBytes := rules.MaxSizeBytes
	if maxBytes <= 0 {
		maxBytes = v.maxFileBytes
	}
	if meta.Size > maxBytes {
		return nil, fail(q, dto.FailureFileRejected, fmt.Sprintf("file exceeds the %d byte limit", maxBytes))
	}
	if len(rules.AllowedExtensions) > 0 {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(meta.Filename)), ".")
		permitted := false
		for _, allowed := range rules.AllowedExtensions {
			if ext == strings.ToLower(allowed) {
				permitted = true
				break
			}
		}
		if !permitted {
			return nil, fail(q, dto.FailureFileRejected, fmt.Sprintf("file extension %q is not allowed", ext))
		}
	}
	return valueAnswer(q, meta)
}

func isAbsent(raw any) bool {
	switch value := raw.(type) {
	case nil:
		return true
	case string:
		return value == ""
	case []any:
		return len(value) == 0
	case []string:
		return len(value) == 0
	}
	return false
}

// toFloat coerces the raw value to a finite float64. NaN and the infinities
// are rejected: they compare false against every bound and cannot be stored
// as json.
func toFloat(raw any) (float64, bool) {
	var number float64
	switch value := raw.(type) {
	case float64:
		number = value
	case int:
		number = float64(value)
	case json.Number:
		parsed, err := value.Float64()
		if err != nil {
			return 0, false
		}
		number = parsed
	case string:
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, false
		}
		number = parsed
	default:
		return 0, false
	}
	if math.IsNaN(number) || math.IsInf(number, 0) {
		return 0, false
	}
	return number, true
}

func fail(q *model.Question, kind dto.FailureKind, message string) *dto.FieldError {
	return &dto.FieldError{QuestionID: q.ID, Kind: kind, Message: message}
}

func textAnswer(q *model.Question, text string) *model.Answer {
	return &model.Answer{QuestionID: q.ID, Text: &text}
}

func valueAnswer(q *model.Question, value any) (*model.Answer, *dto.FieldError) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fail(q, dto.FailureTypeMismatch, "value cannot be stored")
	}
	return &model.Answer{QuestionID: q.ID, Value: encoded}, nil
}

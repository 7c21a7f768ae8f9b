package service

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lshigami/Bowerbirds/config"
	"github.com/lshigami/Bowerbirds/internal/dto"
	"github.com/lshigami/Bowerbirds/internal/model"
)

func newTestValidator() AnswerValidator {
	cfg := &config.Config{}
	cfg.Submission.MaxFileBytes = 1 << 20
	return NewAnswerValidator(cfg)
}

func question(id uint, qType model.QuestionType, required bool, options []string, rules string) *model.Question {
	q := &model.Question{Type: qType, Required: required}
	q.ID = id
	if options != nil {
		raw, _ := json.Marshal(options)
		q.Options = raw
	}
	if rules != "" {
		q.Rules = json.RawMessage(rules)
	}
	return q
}

func TestValidatePresence(t *testing.T) {
	v := newTestValidator()

	required := question(1, model.QuestionShortText, true, nil, "")
	if _, failure := v.Validate(required, nil); failure == nil || failure.Kind != dto.FailureRequiredFieldMissing {
		t.Fatalf("required nil answer: got %+v, want required_field_missing", failure)
	}
	if _, failure := v.Validate(required, ""); failure == nil || failure.Kind != dto.FailureRequiredFieldMissing {
		t.Fatalf("required empty string: got %+v, want required_field_missing", failure)
	}

	optional := question(2, model.QuestionShortText, false, nil, "")
	answer, failure := v.Validate(optional, nil)
	if failure != nil {
		t.Fatalf("optional nil answer: unexpected failure %+v", failure)
	}
	if answer != nil {
		t.Fatalf("optional nil answer: expected no stored answer, got %+v", answer)
	}
}

func TestValidateText(t *testing.T) {
	v := newTestValidator()
	q := question(1, model.QuestionShortText, true, nil, `{"min_length":3,"max_length":5}`)

	tests := []struct {
		name     string
		raw      any
		wantKind dto.FailureKind
		wantText string
	}{
		{name: "within bounds", raw: "abcd", wantText: "abcd"},
		{name: "too short", raw: "ab", wantKind: dto.FailureLengthViolation},
		{name: "too long", raw: "abcdef", wantKind: dto.FailureLengthViolation},
		{name: "not a string", raw: 42.0, wantKind: dto.FailureTypeMismatch},
		{name: "multibyte runes counted not bytes", raw: "héllo", wantText: "héllo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer, failure := v.Validate(q, tt.raw)
			if tt.wantKind != "" {
				if failure == nil || failure.Kind != tt.wantKind {
					t.Fatalf("got %+v, want kind %s", failure, tt.wantKind)
				}
				return
			}
			if failure != nil {
				t.Fatalf("unexpected failure %+v", failure)
			}
			if answer.Text == nil || *answer.Text != tt.wantText {
				t.Fatalf("got text %v, want %q", answer.Text, tt.wantText)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	v := newTestValidator()
	q := question(1, model.QuestionEmail, true, nil, "")

	if _, failure := v.Validate(q, "jane@example.com"); failure != nil {
		t.Fatalf("valid email rejected: %+v", failure)
	}
	for _, bad := range []any{"not-an-email", "Jane <jane@example.com>", "jane@", 12.0} {
		if _, failure := v.Validate(q, bad); failure == nil {
			t.Fatalf("expected failure for %v", bad)
		}
	}
}

func TestValidateNumber(t *testing.T) {
	v := newTestValidator()
	q := question(1, model.QuestionNumber, true, nil, `{"min":0,"max":100}`)

	tests := []struct {
		name     string
		raw      any
		wantKind dto.FailureKind
	}{
		{name: "in range", raw: 42.5},
		{name: "numeric string accepted", raw: "17"},
		{name: "below min", raw: -1.0, wantKind: dto.FailureOutOfRange},
		{name: "above max", raw: 100.5, wantKind: dto.FailureOutOfRange},
		{name: "not numeric", raw: "abc", wantKind: dto.FailureTypeMismatch},
		{name: "boolean", raw: true, wantKind: dto.FailureTypeMismatch},
		{name: "NaN string", raw: "NaN", wantKind: dto.FailureTypeMismatch},
		{name: "Inf string", raw: "Inf", wantKind: dto.FailureTypeMismatch},
		{name: "negative infinity", raw: "-Inf", wantKind: dto.FailureTypeMismatch},
		{name: "NaN float", raw: math.NaN(), wantKind: dto.FailureTypeMismatch},
		{name: "infinite float", raw: math.Inf(1), wantKind: dto.FailureTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, failure := v.Validate(q, tt.raw)
			if tt.wantKind == "" && failure != nil {
				t.Fatalf("unexpected failure %+v", failure)
			}
			if tt.wantKind != "" && (failure == nil || failure.Kind != tt.wantKind) {
				t.Fatalf("got %+v, want kind %s", failure, tt.wantKind)
			}
		})
	}
}

func TestValidateRating(t *testing.T) {
	v := newTestValidator()
	q := question(1, model.QuestionRating, true, nil, "")

	answer, failure := v.Validate(q, 4.0)
	if failure != nil {
		t.Fatalf("rating 4 rejected: %+v", failure)
	}
	var stored int
	if err := json.Unmarshal(answer.Value, &stored); err != nil || stored != 4 {
		t.Fatalf("stored rating = %s, want 4", answer.Value)
	}

	// Default scale is 1 to 5.
	for _, bad := range []any{0.0, 6.0, 7.0} {
		if _, failure := v.Validate(q, bad); failure == nil || failure.Kind != dto.FailureOutOfRange {
			t.Fatalf("rating %v: got %+v, want out_of_range", bad, failure)
		}
	}
	if _, failure := v.Validate(q, 3.5); failure == nil || failure.Kind != dto.FailureTypeMismatch {
		t.Fatalf("fractional rating: got %+v, want type_mismatch", failure)
	}

	wide := question(2, model.QuestionRating, true, nil, `{"min":1,"max":10}`)
	if _, failure := v.Validate(wide, 9.0); failure != nil {
		t.Fatalf("rating 9 on 1-10 scale rejected: %+v", failure)
	}
}

func TestValidateDate(t *testing.T) {
	v := newTestValidator()
	q := question(1, model.QuestionDate, true, nil, `{"min":"2024-01-01","max":"2024-12-31"}`)

	answer, failure := v.Validate(q, "2024-06-15")
	if failure != nil {
		t.Fatalf("valid date rejected: %+v", failure)
	}
	if answer.Text == nil || *answer.Text != "2024-06-15" {
		t.Fatalf("stored date = %v, want 2024-06-15", answer.Text)
	}

	tests := []struct {
		raw      any
		wantKind dto.FailureKind
	}{
		{raw: "15/06/2024", wantKind: dto.FailureFormatInvalid},
		{raw: "2024-13-01", wantKind: dto.FailureFormatInvalid},
		{raw: "2023-12-31", wantKind: dto.FailureOutOfRange},
		{raw: "2025-01-01", wantKind: dto.FailureOutOfRange},
	}
	for _, tt := range tests {
		if _, failure := v.Validate(q, tt.raw); failure == nil || failure.Kind != tt.wantKind {
			t.Fatalf("date %v: got %+v, want %s", tt.raw, failure, tt.wantKind)
		}
	}
}

func TestValidateChoice(t *testing.T) {
	v := newTestValidator()
	q := question(1, model.QuestionSingleChoice, true, []string{"red", "green", "blue"}, "")

	answer, failure := v.Validate(q, "green")
	if failure != nil {
		t.Fatalf("valid choice rejected: %+v", failure)
	}
	if answer.Text == nil || *answer.Text != "green" {
		t.Fatalf("stored choice = %v, want green", answer.Text)
	}

	if _, failure := v.Validate(q, "purple"); failure == nil || failure.Kind != dto.FailureInvalidOption {
		t.Fatalf("unknown option: got %+v, want invalid_option", failure)
	}
	if _, failure := v.Validate(q, []any{"red"}); failure == nil || failure.Kind != dto.FailureTypeMismatch {
		t.Fatalf("list for single choice: got %+v, want type_mismatch", failure)
	}
}

func TestValidateMultiChoice(t *testing.T) {
	v := newTestValidator()
	q := question(1, model.QuestionMultiChoice, true, []string{"a", "b", "c"}, "")

	// Selections normalize to option order with duplicates dropped.
	answer, failure := v.Validate(q, []any{"c", "a", "c"})
	if failure != nil {
		t.Fatalf("valid selection rejected: %+v", failure)
	}
	var stored []string
	if err := json.Unmarshal(answer.Value, &stored); err != nil {
		t.Fatalf("stored value is not a string list: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "c"}, stored); diff != "" {
		t.Fatalf("normalized selection mismatch (-want +got):\n%s", diff)
	}

	// A bare string counts as a one element selection.
	if _, failure := v.Validate(q, "b"); failure != nil {
		t.Fatalf("single string selection rejected: %+v", failure)
	}

	if _, failure := v.Validate(q, []any{"a", "z"}); failure == nil || failure.Kind != dto.FailureInvalidOption {
		t.Fatalf("unknown member: got %+v, want invalid_option", failure)
	}
	if _, failure := v.Validate(q, []any{"a", 3.0}); failure == nil || failure.Kind != dto.FailureTypeMismatch {
		t.Fatalf("non-string member: got %+v, want type_mismatch", failure)
	}
}

func TestValidateFile(t *testing.T) {
	v := newTestValidator()
	q := question(1, model.QuestionFile, true, nil, `{"max_size_bytes":1000,"allowed_extensions":["pdf","png"]}`)

	meta := map[string]any{"filename": "report.pdf", "size": 900.0, "storage_key": "abc123.pdf"}
	answer, failure := v.Validate(q, meta)
	if failure != nil {
		t.Fatalf("valid file rejected: %+v", failure)
	}
	var stored model.FileMeta
	if err := json.Unmarshal(answer.Value, &stored); err != nil || stored.Filename != "report.pdf" {
		t.Fatalf("stored file meta = %s", answer.Value)
	}

	tooBig := map[string]any{"filename": "report.pdf", "size": 2000.0}
	if _, failure := v.Validate(q, tooBig); failure == nil || failure.Kind != dto.FailureFileRejected {
		t.Fatalf("oversized file: got %+v, want file_rejected", failure)
	}

	wrongExt := map[string]any{"filename": "report.exe", "size": 100.0}
	if _, failure := v.Validate(q, wrongExt); failure == nil || failure.Kind != dto.FailureFileRejected {
		t.Fatalf("disallowed extension: got %+v, want file_rejected", failure)
	}

	if _, failure := v.Validate(q, "not-a-file"); failure == nil || failure.Kind != dto.FailureTypeMismatch {
		t.Fatalf("string for file question: got %+v, want type_mismatch", failure)
	}
	if _, failure := v.Validate(q, map[string]any{"size": 100.0}); failure == nil || failure.Kind != dto.FailureTypeMismatch {
		t.Fatalf("missing filename: got %+v, want type_mismatch", failure)
	}
}

func TestValidateIsDeterministic(t *testing.T) {
	v := newTestValidator()
	q := question(1, model.QuestionMultiChoice, true, []string{"x", "y"}, "")

	first, failure := v.Validate(q, []any{"y", "x"})
	if failure != nil {
		t.Fatalf("unexpected failure %+v", failure)
	}
	second, failure := v.Validate(q, []any{"y", "x"})
	if failure != nil {
		t.Fatalf("unexpected failure %+v", failure)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("repeated validation differed (-first +second):\n%s", diff)
	}
}

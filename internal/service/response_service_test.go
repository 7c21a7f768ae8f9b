package service

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/lshigami/Bowerbirds/internal/model"
)

func storedResponses() []model.Response {
	day1 := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 6, 2, 9, 30, 0, 0, time.UTC)

	text1 := "loved it"
	text2 := "okay"
	yes := "yes"
	no := "no"

	first := model.Response{
		FormID:      10,
		SubmittedAt: day1,
		Answers: []model.Answer{
			{QuestionID: 1, Text: &text1},
			{QuestionID: 2, Value: json.RawMessage(`5`)},
			{QuestionID: 3, Text: &yes},
		},
	}
	first.ID = 101
	second := model.Response{
		FormID:      10,
		SubmittedAt: day2,
		Answers: []model.Answer{
			{QuestionID: 1, Text: &text2},
			{QuestionID: 2, Value: json.RawMessage(`3`)},
			{QuestionID: 3, Text: &no},
		},
	}
	second.ID = 102
	return []model.Response{first, second}
}

func newTestResponseService(form *model.Form, responses []model.Response) ResponseService {
	formRepo := &fakeFormRepo{form: form}
	responseRepo := newFakeResponseRepo()
	responseRepo.all = responses
	return NewResponseService(formRepo, responseRepo)
}

func TestSummaryAggregatesPerQuestion(t *testing.T) {
	form := surveyForm()
	form.CreatedBy = 7
	svc := newTestResponseService(form, storedResponses())

	stats, err := svc.Summary(actor(7, model.RoleCreator), form.ID)
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}
	if stats.ResponseCount != 2 {
		t.Fatalf("response count = %d, want 2", stats.ResponseCount)
	}
	if diff := cmp.Diff(map[string]int{"2024-06-01": 1, "2024-06-02": 1}, stats.ResponsesPerDay); diff != "" {
		t.Fatalf("responses per day mismatch (-want +got):\n%s", diff)
	}

	byQuestion := make(map[uint]int)
	for i, qs := range stats.Questions {
		byQuestion[qs.QuestionID] = i
	}

	rating := stats.Questions[byQuestion[2]]
	if rating.AverageRating == nil || *rating.AverageRating != 4.0 {
		t.Fatalf("average rating = %v, want 4.0", rating.AverageRating)
	}

	choice := stats.Questions[byQuestion[3]]
	if diff := cmp.Diff(map[string]int{"yes": 1, "no": 1}, choice.OptionCounts); diff != "" {
		t.Fatalf("option counts mismatch (-want +got):\n%s", diff)
	}

	text := stats.Questions[byQuestion[1]]
	if text.Answered != 2 {
		t.Fatalf("text answered = %d, want 2", text.Answered)
	}
}

func TestSummaryAccessControl(t *testing.T) {
	form := surveyForm()
	form.CreatedBy = 7
	svc := newTestResponseService(form, nil)

	// Analysts read any form, respondents read none, strangers with creator
	// role read only their own.
	if _, err := svc.Summary(actor(99, model.RoleAnalyst), form.ID); err != nil {
		t.Fatalf("analyst denied: %v", err)
	}
	if _, err := svc.Summary(actor(99, model.RoleCreator), form.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign creator: got %v, want ErrForbidden", err)
	}
	if _, err := svc.Summary(actor(7, model.RoleRespondent), form.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("respondent: got %v, want ErrForbidden", err)
	}
}

func TestExportCSV(t *testing.T) {
	form := surveyForm()
	form.CreatedBy = 7
	svc := newTestResponseService(form, storedResponses())

	data, err := svc.ExportCSV(actor(7, model.RoleCreator), form.ID)
	if err != nil {
		t.Fatalf("ExportCSV returned error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("csv has %d lines, want header plus 2 rows:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "response_id,submitted_at") {
		t.Fatalf("csv header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "loved it") || !strings.Contains(lines[1], "5") {
		t.Fatalf("first row missing answers: %q", lines[1])
	}
}

func TestListResponsesPagination(t *testing.T) {
	form := surveyForm()
	form.CreatedBy = 7
	svc := newTestResponseService(form, storedResponses())

	page, err := svc.ListResponses(actor(7, model.RoleCreator), form.ID, 1, 1)
	if err != nil {
		t.Fatalf("ListResponses returned error: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 1 {
		t.Fatalf("page = %+v, want total 2 with 1 item", page)
	}
	if page.Items[0].AnswerCount != 3 {
		t.Fatalf("answer count = %d, want 3", page.Items[0].AnswerCount)
	}
}

func TestAnswerDisplayValue(t *testing.T) {
	text := "hello"
	tests := []struct {
		name   string
		answer *model.Answer
		want   string
	}{
		{name: "missing answer", answer: nil, want: ""},
		{name: "text answer", answer: &model.Answer{Text: &text}, want: "hello"},
		{name: "number value", answer: &model.Answer{Value: json.RawMessage(`42.5`)}, want: "42.5"},
		{name: "multi choice list", answer: &model.Answer{Value: json.RawMessage(`["a","b"]`)}, want: "a; b"},
		{name: "file meta", answer: &model.Answer{Value: json.RawMessage(`{"filename":"cv.pdf","size":100}`)}, want: "cv.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := answerDisplayValue(tt.answer); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

package service

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lshigami/Bowerbirds/internal/dto"
	"github.com/lshigami/Bowerbirds/internal/model"
	"github.com/lshigami/Bowerbirds/internal/repository"
	"gorm.io/gorm"
)

// ResponseService is the owner/analyst side of stored responses: listing,
// inspection, export and aggregation. Stored answers are never modified here.
type ResponseService interface {
	ListResponses(actor *model.User, formID uint, page, perPage int) (*dto.ResponsePageDTO, error)
	GetResponse(actor *model.User, formID, responseID uint) (*dto.ResponseDetailDTO, error)
	DeleteResponse(actor *model.User, formID, responseID uint) error
	ExportCSV(actor *model.User, formID uint) ([]byte, error)
	ExportJSON(actor *model.User, formID uint) ([]byte, error)
	Summary(actor *model.User, formID uint) (*dto.FormSummaryStatsDTO, error)
}

type responseService struct {
	formRepo     repository.FormRepository
	responseRepo repository.ResponseRepository
}

func NewResponseService(formRepo repository.FormRepository, responseRepo repository.ResponseRepository) ResponseService {
	return &responseService{formRepo: formRepo, responseRepo: responseRepo}
}

func (s *responseService) ListResponses(actor *model.User, formID uint, page, perPage int) (*dto.ResponsePageDTO, error) {
	if _, err := s.loadReadable(actor, formID); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	responses, total, err := s.responseRepo.FindPageByFormID(formID, page, perPage)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ResponseSummaryDTO, 0, len(responses))
	for _, response := range responses {
		items = append(items, dto.ResponseSummaryDTO{
			ID:          response.ID,
			FormID:      response.FormID,
			UserID:      response.UserID,
			SubmittedAt: response.SubmittedAt,
			AnswerCount: len(response.Answers),
		})
	}
	return &dto.ResponsePageDTO{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

func (s *responseService) GetResponse(actor *model.User, formID, responseID uint) (*dto.ResponseDetailDTO, error) {
	form, err := s.loadReadable(actor, formID)
	if err != nil {
		return nil, err
	}
	response, err := s.responseRepo.FindByIDWithAnswers(responseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResponseNotFound
		}
		return nil, err
	}
	if response.FormID != formID {
		return nil, ErrResponseNotFound
	}

	questions := questionIndex(form)
	detail := &dto.ResponseDetailDTO{
		ID:          response.ID,
		FormID:      response.FormID,
		UserID:      response.UserID,
		IPAddress:   response.IPAddress,
		UserAgent:   response.UserAgent,
		SubmittedAt: response.SubmittedAt,
		Answers:     make([]dto.AnswerDTO, 0, len(response.Answers)),
	}
	for _, answer := range response.Answers {
		answerDTO := dto.AnswerDTO{
			QuestionID: answer.QuestionID,
			Text:       answer.Text,
			Value:      answer.Value,
		}
		if question, ok := questions[answer.QuestionID]; ok {
			answerDTO.QuestionText = question.Text
			answerDTO.QuestionType = string(question.Type)
		}
		detail.Answers = append(detail.Answers, answerDTO)
	}
	return detail, nil
}

func (s *responseService) DeleteResponse(actor *model.User, formID, responseID uint) error {
	form, err := s.loadReadable(actor, formID)
	if err != nil {
		return err
	}
	// Deleting data is owner-or-admin only, analyst access is read only.
	if form.CreatedBy != actor.ID && actor.Role != model.RoleAdmin {
		return ErrForbidden
	}
	response, err := s.responseRepo.FindByIDWithAnswers(responseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResponseNotFound
		}
		return err
	}
	if response.FormID != formID {
		return ErrResponseNotFound
	}
	return s.responseRepo.Delete(responseID)
}

// ExportCSV renders one row per response with one column per question, in
// schema display order.
func (s *responseService) ExportCSV(actor *model.User, formID uint) ([]byte, error) {
	form, err := s.loadReadable(actor, formID)
	if err != nil {
		return nil, err
	}
	responses, err := s.responseRepo.FindAllByFormID(formID)
	if err != nil {
		return nil, err
	}

	questions := form.Questions()
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"response_id", "submitted_at"}
	for _, question := range questions {
		header = append(header, question.Text)
	}
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	for _, response := range responses {
		byQuestion := make(map[uint]*model.Answer, len(response.Answers))
		for i := range response.Answers {
			byQuestion[response.Answers[i].QuestionID] = &response.Answers[i]
		}
		row := []string{
			fmt.Sprintf("%d", response.ID),
			response.SubmittedAt.Format("2006-01-02 15:04:05"),
		}
		for i := range questions {
			row = append(row, answerDisplayValue(byQuestion[questions[i].ID]))
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *responseService) ExportJSON(actor *model.User, formID uint) ([]byte, error) {
	form, err := s.loadReadable(actor, formID)
	if err != nil {
		return nil, err
	}
	responses, err := s.responseRepo.FindAllByFormID(formID)
	if err != nil {
		return nil, err
	}

	questions := questionIndex(form)
	type exportedAnswer struct {
		QuestionID uint   `json:"question_id"`
		Question   string `json:"question,omitempty"`
		Value      any    `json:"value"`
	}
	type exportedResponse struct {
		ResponseID  uint             `json:"response_id"`
		SubmittedAt string           `json:"submitted_at"`
		Answers     []exportedAnswer `json:"answers"`
	}

	out := make([]exportedResponse, 0, len(responses))
	for _, response := range responses {
		exported := exportedResponse{
			ResponseID:  response.ID,
			SubmittedAt: response.SubmittedAt.Format("2006-01-02T15:04:05Z07:00"),
			Answers:     make([]exportedAnswer, 0, len(response.Answers)),
		}
		for i := range response.Answers {
			answer := &response.Answers[i]
			entry := exportedAnswer{QuestionID: answer.QuestionID}
			if question, ok := questions[answer.QuestionID]; ok {
				entry.Question = question.Text
			}
			if answer.Text != nil {
				entry.Value = *answer.Text
			} else if len(answer.Value) > 0 {
				entry.Value = json.RawMessage(answer.Value)
			}
			exported.Answers = append(exported.Answers, entry)
		}
		out = append(out, exported)
	}
	return json.MarshalIndent(out, "", "  ")
}

// Summary aggregates all responses per question: option tallies for choice
// questions (each selection of a multi-choice answer counted separately),
// averages for ratings, answered counts for the rest.
func (s *responseService) Summary(actor *model.User, formID uint) (*dto.FormSummaryStatsDTO, error) {
	form, err := s.loadReadable(actor, formID)
	if err != nil {
		return nil, err
	}
	responses, err := s.responseRepo.FindAllByFormID(formID)
	if err != nil {
		return nil, err
	}

	questions := form.Questions()
	answersByQuestion := make(map[uint][]*model.Answer)
	perDay := make(map[string]int)
	for ri := range responses {
		perDay[responses[ri].SubmittedAt.Format("2006-01-02")]++
		for ai := range responses[ri].Answers {
			answer := &responses[ri].Answers[ai]
			answersByQuestion[answer.QuestionID] = append(answersByQuestion[answer.QuestionID], answer)
		}
	}

	stats := &dto.FormSummaryStatsDTO{
		FormID:          formID,
		ResponseCount:   int64(len(responses)),
		Questions:       make([]dto.QuestionSummaryDTO, 0, len(questions)),
		ResponsesPerDay: perDay,
	}
	for i := range questions {
		question := &questions[i]
		answers := answersByQuestion[question.ID]
		summary := dto.QuestionSummaryDTO{
			QuestionID:   question.ID,
			QuestionText: question.Text,
			QuestionType: string(question.Type),
			Answered:     len(answers),
		}
		switch question.Type {
		case model.QuestionSingleChoice, model.QuestionDropdown:
			counts := make(map[string]int)
			for _, answer := range answers {
				if answer.Text != nil {
					counts[*answer.Text]++
				}
			}
			summary.OptionCounts = counts
		case model.QuestionMultiChoice:
			counts := make(map[string]int)
			for _, answer := range answers {
				var selected []string
				if json.Unmarshal(answer.Value, &selected) == nil {
					for _, option := range selected {
						counts[option]++
					}
				}
			}
			summary.OptionCounts = counts
		case model.QuestionRating:
			var sum float64
			var rated int
			for _, answer := range answers {
				var rating float64
				if json.Unmarshal(answer.Value, &rating) == nil {
					sum += rating
					rated++
				}
			}
			if rated > 0 {
				average := sum / float64(rated)
				summary.AverageRating = &average
			}
		}
		stats.Questions = append(stats.Questions, summary)
	}
	return stats, nil
}

func (s *responseService) loadReadable(actor *model.User, formID uint) (*model.Form, error) {
	form, err := s.formRepo.FindByIDWithSchema(formID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	if form.CreatedBy != actor.ID && actor.Role != model.RoleAdmin && actor.Role != model.RoleAnalyst {
		return nil, ErrForbidden
	}
	if !actor.CanViewResponses() {
		return nil, ErrForbidden
	}
	return form, nil
}

func questionIndex(form *model.Form) map[uint]*model.Question {
	questions := form.Questions()
	index := make(map[uint]*model.Question, len(questions))
	for i := range questions {
		index[questions[i].ID] = &questions[i]
	}
	return index
}

// answerDisplayValue flattens one stored answer to a single export cell.
func answerDisplayValue(answer *model.Answer) string {
	if answer == nil {
		return ""
	}
	if answer.Text != nil {
		return *answer.Text
	}
	if len(answer.Value) == 0 {
		return ""
	}
	var selected []string
	if json.Unmarshal(answer.Value, &selected) == nil {
		return strings.Join(selected, "; ")
	}
	var meta model.FileMeta
	if json.Unmarshal(answer.Value, &meta) == nil && meta.Filename != "" {
		return meta.Filename
	}
	return strings.Trim(string(answer.Value), "\"")
}

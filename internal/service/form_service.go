package service

import (
	"errors"

	"github.com/lshigami/Bowerbirds/internal/dto"
	"github.com/lshigami/Bowerbirds/internal/model"
	"github.com/lshigami/Bowerbirds/internal/repository"
	"gorm.io/gorm"
)

// FormService serves the read side of a form for respondents: the full
// schema with sections and questions in display order.
type FormService interface {
	// LoadSchema fetches the form with its sections and questions preloaded.
	// With forSubmission set, only published forms are returned.
	LoadSchema(formID uint, forSubmission bool) (*model.Form, error)
	GetPublicForm(formID uint) (*dto.FormDTO, error)
}

type formService struct {
	formRepo repository.FormRepository
}

func NewFormService(formRepo repository.FormRepository) FormService {
	return &formService{formRepo: formRepo}
}

func (s *formService) LoadSchema(formID uint, forSubmission bool) (*model.Form, error) {
	form, err := s.formRepo.FindByIDWithSchema(formID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	if forSubmission && form.Status != model.FormStatusPublished {
		return nil, ErrFormNotPublished
	}
	return form, nil
}

func (s *formService) GetPublicForm(formID uint) (*dto.FormDTO, error) {
	form, err := s.LoadSchema(formID, true)
	if err != nil {
		return nil, err
	}
	return formToDTO(form), nil
}

func formToDTO(form *model.Form) *dto.FormDTO {
	out := &dto.FormDTO{
		ID:          form.ID,
		Title:       form.Title,
		Description: form.Description,
		Status:      form.Status,
		ExpiresAt:   form.ExpiresAt,
		Sections:    make([]dto.SectionDTO, 0, len(form.Sections)),
	}
	for _, section := range form.Sections {
		out.Sections = append(out.Sections, sectionToDTO(&section))
	}
	return out
}

func sectionToDTO(section *model.Section) dto.SectionDTO {
	out := dto.SectionDTO{
		ID:          section.ID,
		Title:       section.Title,
		Description: section.Description,
		Order:       section.Order,
		Questions:   make([]dto.QuestionDTO, 0, len(section.Questions)),
	}
	for _, question := range section.Questions {
		out.Questions = append(out.Questions, questionToDTO(&question))
	}
	return out
}

func questionToDTO(question *model.Question) dto.QuestionDTO {
	options, _ := question.OptionValues()
	return dto.QuestionDTO{
		ID:       question.ID,
		Type:     string(question.Type),
		Text:     question.Text,
		Required: question.Required,
		Order:    question.Order,
		Options:  options,
		Rules:    question.Rules,
	}
}

package service

import (
	"encoding/json"
	"errors"

	"github.com/lshigami/Bowerbirds/internal/dto"
	"github.com/lshigami/Bowerbirds/internal/model"
	"github.com/lshigami/Bowerbirds/internal/repository"
	"gorm.io/gorm"
)

// TemplateService manages reusable form layouts: snapshotting an existing
// form into a template and stamping a template out as a fresh draft form.
type TemplateService interface {
	ListTemplates(actor *model.User) ([]dto.TemplateDTO, error)
	GetTemplate(actor *model.User, templateID uint) (*dto.TemplateDTO, error)
	CreateTemplate(actor *model.User, req dto.TemplateCreateDTO) (*dto.TemplateDTO, error)
	DeleteTemplate(actor *model.User, templateID uint) error
	InstantiateTemplate(actor *model.User, templateID uint, title string) (*dto.FormDetailDTO, error)
}

// templateContent is the layout snapshot stored in a template's jsonb column.
type templateContent struct {
	Sections []templateSection `json:"sections"`
}

type templateSection struct {
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Questions   []templateQuestion `json:"questions"`
}

type templateQuestion struct {
	Type     string          `json:"type"`
	Text     string          `json:"text"`
	Required bool            `json:"required"`
	Options  []string        `json:"options,omitempty"`
	Rules    json.RawMessage `json:"rules,omitempty"`
}

type templateService struct {
	templateRepo repository.TemplateRepository
	formRepo     repository.FormRepository
}

func NewTemplateService(templateRepo repository.TemplateRepository, formRepo repository.FormRepository) TemplateService {
	return &templateService{templateRepo: templateRepo, formRepo: formRepo}
}

func (s *templateService) ListTemplates(actor *model.User) ([]dto.TemplateDTO, error) {
	templates, err := s.templateRepo.FindAvailable(actor.ID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TemplateDTO, 0, len(templates))
	for _, template := range templates {
		out = append(out, templateToDTO(&template))
	}
	return out, nil
}

func (s *templateService) GetTemplate(actor *model.User, templateID uint) (*dto.TemplateDTO, error) {
	template, err := s.loadVisible(actor, templateID)
	if err != nil {
		return nil, err
	}
	out := templateToDTO(template)
	return &out, nil
}

func (s *templateService) CreateTemplate(actor *model.User, req dto.TemplateCreateDTO) (*dto.TemplateDTO, error) {
	if !actor.CanCreateForms() {
		return nil, ErrForbidden
	}

	content := req.Content
	if req.FromFormID != nil {
		form, err := s.formRepo.FindByIDWithSchema(*req.FromFormID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrFormNotFound
			}
			return nil, err
		}
		if form.CreatedBy != actor.ID && actor.Role != model.RoleAdmin {
			return nil, ErrForbidden
		}
		content, err = snapshotForm(form)
		if err != nil {
			return nil, err
		}
	}
	if len(content) == 0 {
		return nil, &ValidationError{Failures: []dto.FieldError{{
			Kind:    dto.FailureRequiredFieldMissing,
			Message: "either from_form_id or content is required",
		}}}
	}
	// Decode round trip rejects content that could not be instantiated later.
	var decoded templateContent
	if err := json.Unmarshal(content, &decoded); err != nil {
		return nil, &ValidationError{Failures: []dto.FieldError{{
			Kind:    dto.FailureFormatInvalid,
			Message: "template content is malformed",
		}}}
	}

	template := &model.FormTemplate{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		CreatedBy:   actor.ID,
		Content:     content,
	}
	if err := s.templateRepo.Create(template); err != nil {
		return nil, err
	}
	out := templateToDTO(template)
	return &out, nil
}

func (s *templateService) DeleteTemplate(actor *model.User, templateID uint) error {
	template, err := s.loadVisible(actor, templateID)
	if err != nil {
		return err
	}
	if template.CreatedBy != actor.ID && actor.Role != model.RoleAdmin {
		return ErrForbidden
	}
	return s.templateRepo.Delete(templateID)
}

// InstantiateTemplate creates a new draft form from the template snapshot.
// The new form is fully owned by the actor and detached from the template
// except for the TemplateID backreference.
func (s *templateService) InstantiateTemplate(actor *model.User, templateID uint, title string) (*dto.FormDetailDTO, error) {
	if !actor.CanCreateForms() {
		return nil, ErrForbidden
	}
	template, err := s.loadVisible(actor, templateID)
	if err != nil {
		return nil, err
	}
	var content templateContent
	if err := json.Unmarshal(template.Content, &content); err != nil {
		return nil, err
	}
	if title == "" {
		title = template.Name
	}

	form := &model.Form{
		Title:      title,
		Status:     model.FormStatusDraft,
		CreatedBy:  actor.ID,
		TemplateID: &template.ID,
		Sections:   make([]model.Section, 0, len(content.Sections)),
	}
	for si, sectionSnapshot := range content.Sections {
		section := model.Section{
			Title:       sectionSnapshot.Title,
			Description: sectionSnapshot.Description,
			Order:       si,
			Questions:   make([]model.Question, 0, len(sectionSnapshot.Questions)),
		}
		for qi, questionSnapshot := range sectionSnapshot.Questions {
			options, err := json.Marshal(questionSnapshot.Options)
			if err != nil {
				return nil, err
			}
			if len(questionSnapshot.Options) == 0 {
				options = nil
			}
			section.Questions = append(section.Questions, model.Question{
				Type:     model.QuestionType(questionSnapshot.Type),
				Text:     questionSnapshot.Text,
				Required: questionSnapshot.Required,
				Order:    qi,
				Options:  options,
				Rules:    questionSnapshot.Rules,
			})
		}
		form.Sections = append(form.Sections, section)
	}
	if err := s.formRepo.Create(form); err != nil {
		return nil, err
	}
	return formToDetailDTO(form), nil
}

func (s *templateService) loadVisible(actor *model.User, templateID uint) (*model.FormTemplate, error) {
	template, err := s.templateRepo.FindByID(templateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	if !template.IsPublic && template.CreatedBy != actor.ID && actor.Role != model.RoleAdmin {
		return nil, ErrTemplateNotFound
	}
	return template, nil
}

func snapshotForm(form *model.Form) (json.RawMessage, error) {
	content := templateContent{Sections: make([]templateSection, 0, len(form.Sections))}
	for _, section := range form.Sections {
		snapshot := templateSection{
			Title:       section.Title,
			Description: section.Description,
			Questions:   make([]templateQuestion, 0, len(section.Questions)),
		}
		for _, question := range section.Questions {
			options, err := question.OptionValues()
			if err != nil {
				return nil, err
			}
			snapshot.Questions = append(snapshot.Questions, templateQuestion{
				Type:     string(question.Type),
				Text:     question.Text,
				Required: question.Required,
				Options:  options,
				Rules:    question.Rules,
			})
		}
		content.Sections = append(content.Sections, snapshot)
	}
	return json.Marshal(content)
}

func templateToDTO(template *model.FormTemplate) dto.TemplateDTO {
	return dto.TemplateDTO{
		ID:          template.ID,
		Name:        template.Name,
		Description: template.Description,
		IsPublic:    template.IsPublic,
		CreatedBy:   template.CreatedBy,
		Content:     template.Content,
		CreatedAt:   template.CreatedAt,
	}
}
